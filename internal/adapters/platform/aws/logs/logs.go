package logs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

type LogsAPI interface {
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

var _ LogsAPI = (*cloudwatchlogs.Client)(nil)

type Client struct {
	api      LogsAPI
	logger   ports.Logger
	limiter  shared.RateLimiter
	recorder shared.Recorder
}

func NewClient(api LogsAPI, logger ports.Logger, limiter shared.RateLimiter, recorder shared.Recorder) *Client {
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	return &Client{api: api, logger: logger, limiter: limiter, recorder: recorder}
}

// GetLogEventsAll reads a log stream forward until the service hands back
// the same forward token twice, which is how it signals the end of the stream.
func (c *Client) GetLogEventsAll(ctx context.Context, in *cloudwatchlogs.GetLogEventsInput) ([]types.OutputLogEvent, error) {
	opts := []paging.Option{
		paging.WithCursorFields("NextToken", "NextForwardToken"),
		paging.WithStopOnRepeatedCursor(),
		paging.WithLogger(c.logger),
		paging.WithRecorder(c.recorder),
	}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	out, err := paging.Slurp(ctx, "GetLogEvents", c.api.GetLogEvents, "Events", in, opts...)
	if err != nil {
		return nil, err
	}
	return out.Events, nil
}
