package budgets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	"github.com/aws/aws-sdk-go-v2/service/budgets/types"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

type BudgetsAPI interface {
	DescribeBudgets(ctx context.Context, params *budgets.DescribeBudgetsInput, optFns ...func(*budgets.Options)) (*budgets.DescribeBudgetsOutput, error)
}

var _ BudgetsAPI = (*budgets.Client)(nil)

type Client struct {
	api      BudgetsAPI
	logger   ports.Logger
	limiter  shared.RateLimiter
	recorder shared.Recorder
}

func NewClient(api BudgetsAPI, logger ports.Logger, limiter shared.RateLimiter, recorder shared.Recorder) *Client {
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	return &Client{api: api, logger: logger, limiter: limiter, recorder: recorder}
}

// DescribeBudgetsAll returns every budget owned by the account.
func (c *Client) DescribeBudgetsAll(ctx context.Context, accountID string) ([]types.Budget, error) {
	opts := []paging.Option{paging.WithNextToken(), paging.WithLogger(c.logger), paging.WithRecorder(c.recorder)}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	out, err := paging.Slurp(ctx, "DescribeBudgets", c.api.DescribeBudgets, "Budgets",
		&budgets.DescribeBudgetsInput{AccountId: aws.String(accountID)}, opts...)
	if err != nil {
		return nil, err
	}
	return out.Budgets, nil
}
