package ssm

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	awserrors "github.com/olusolaa/better-aws/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

const (
	DefaultMaxRetries   = 10
	DefaultPollInterval = time.Second
)

type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParameterHistory(ctx context.Context, params *ssm.GetParameterHistoryInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterHistoryOutput, error)
}

var (
	_ SSMAPI                           = (*ssm.Client)(nil)
	_ ssm.GetParameterHistoryAPIClient = (SSMAPI)(nil)
)

type Client struct {
	api          SSMAPI
	logger       ports.Logger
	limiter      shared.RateLimiter
	recorder     shared.Recorder
	maxRetries   int
	pollInterval time.Duration
}

type Option func(*Client)

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.pollInterval = d
		}
	}
}

func WithRateLimiter(l shared.RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithMetrics(r shared.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

func NewClient(api SSMAPI, logger ports.Logger, opts ...Option) *Client {
	c := &Client{
		api:          api,
		logger:       logger,
		recorder:     shared.NopRecorder{},
		maxRetries:   DefaultMaxRetries,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, c.logger)
}

// PutParameterAndWait writes a parameter and polls until a read returns the
// written version or a newer one. Reads of a brand new parameter may briefly
// report ParameterNotFound; that is retried, not returned.
func (c *Client) PutParameterAndWait(ctx context.Context, in *ssm.PutParameterInput) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	put, err := c.api.PutParameter(ctx, in)
	if err != nil {
		return nil, err
	}
	written := put.Version
	c.logger.Debugf(ctx, "Put parameter %s version %d", name, written)

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := paging.Sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		c.recorder.PollAttempt("GetParameter")

		got, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{Name: in.Name})
		if err != nil {
			if written == 1 && awserrors.IsParameterNotFound(err) {
				c.logger.Debugf(ctx, "Parameter %s not visible yet (attempt %d/%d)", name, attempt, c.maxRetries)
				continue
			}
			return nil, err
		}
		if got.Parameter != nil && got.Parameter.Version >= written {
			return got, nil
		}
		c.logger.Debugf(ctx, "Parameter %s still at an older version (attempt %d/%d)", name, attempt, c.maxRetries)
	}

	return nil, errors.New(errors.CodePollExhausted,
		fmt.Sprintf("parameter %s did not reach version %d after %d attempts", name, written, c.maxRetries))
}

// GetParameterHistoryAll returns every recorded version of a parameter.
func (c *Client) GetParameterHistoryAll(ctx context.Context, in *ssm.GetParameterHistoryInput) ([]types.ParameterHistory, error) {
	opts := []paging.Option{paging.WithNextToken(), paging.WithLogger(c.logger), paging.WithRecorder(c.recorder)}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	out, err := paging.Slurp(ctx, "GetParameterHistory", c.api.GetParameterHistory, "Parameters", in, opts...)
	if err != nil {
		return nil, err
	}
	return out.Parameters, nil
}

// GetParameterVersion finds one version in a parameter's history, stopping at
// the first page that contains it.
func (c *Client) GetParameterVersion(ctx context.Context, name string, version int64) (*types.ParameterHistory, error) {
	p := ssm.NewGetParameterHistoryPaginator(c.api, &ssm.GetParameterHistoryInput{Name: aws.String(name)})
	for p.HasMorePages() {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		c.recorder.PageFetched("GetParameterHistory")
		for i := range page.Parameters {
			if page.Parameters[i].Version == version {
				return &page.Parameters[i], nil
			}
		}
	}
	return nil, errors.New(errors.CodeResourceNotFound, fmt.Sprintf("could not find version %d of %s", version, name))
}
