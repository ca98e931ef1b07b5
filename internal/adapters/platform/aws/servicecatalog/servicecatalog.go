package servicecatalog

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog/types"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

type ServiceCatalogAPI interface {
	SearchProductsAsAdmin(ctx context.Context, params *servicecatalog.SearchProductsAsAdminInput, optFns ...func(*servicecatalog.Options)) (*servicecatalog.SearchProductsAsAdminOutput, error)
}

var _ ServiceCatalogAPI = (*servicecatalog.Client)(nil)

type Client struct {
	api      ServiceCatalogAPI
	logger   ports.Logger
	limiter  shared.RateLimiter
	recorder shared.Recorder
}

func NewClient(api ServiceCatalogAPI, logger ports.Logger, limiter shared.RateLimiter, recorder shared.Recorder) *Client {
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	return &Client{api: api, logger: logger, limiter: limiter, recorder: recorder}
}

// SearchProductsAsAdminAll returns every product visible to the catalog
// administrator, or only those in portfolioID when it is set. Service Catalog
// pages with PageToken/NextPageToken.
func (c *Client) SearchProductsAsAdminAll(ctx context.Context, portfolioID string) ([]types.ProductViewDetail, error) {
	opts := []paging.Option{paging.WithLogger(c.logger), paging.WithRecorder(c.recorder)}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	in := &servicecatalog.SearchProductsAsAdminInput{}
	if portfolioID != "" {
		in.PortfolioId = aws.String(portfolioID)
	}
	out, err := paging.Slurp(ctx, "SearchProductsAsAdmin", c.api.SearchProductsAsAdmin, "ProductViewDetails", in, opts...)
	if err != nil {
		return nil, err
	}
	return out.ProductViewDetails, nil
}
