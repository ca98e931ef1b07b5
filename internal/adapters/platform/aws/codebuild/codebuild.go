package codebuild

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
)

const DefaultPollInterval = 5 * time.Second

type CodeBuildAPI interface {
	StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
	BatchGetBuilds(ctx context.Context, params *codebuild.BatchGetBuildsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetBuildsOutput, error)
}

var _ CodeBuildAPI = (*codebuild.Client)(nil)

type Client struct {
	api          CodeBuildAPI
	logger       ports.Logger
	limiter      shared.RateLimiter
	recorder     shared.Recorder
	pollInterval time.Duration
}

type Option func(*Client)

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

func NewClient(api CodeBuildAPI, logger ports.Logger, opts ...Option) *Client {
	c := &Client{api: api, logger: logger, recorder: shared.NopRecorder{}, pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartBuildAndWait starts a build and polls it until it leaves IN_PROGRESS.
// The final build is returned whatever its status; callers decide what a
// FAILED or STOPPED build means to them.
func (c *Client) StartBuildAndWait(ctx context.Context, in *codebuild.StartBuildInput) (*types.Build, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.logger); err != nil {
			return nil, err
		}
	}
	out, err := c.api.StartBuild(ctx, in)
	if err != nil {
		return nil, err
	}
	build := out.Build
	if build == nil {
		return nil, errors.New(errors.CodePlatformAPIError,
			fmt.Sprintf("StartBuild for %s returned no build", aws.ToString(in.ProjectName)))
	}
	id := aws.ToString(build.Id)
	logger := c.logger.WithFields(map[string]any{"build_id": id})

	for build.BuildStatus == types.StatusTypeInProgress {
		if err := paging.Sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, c.logger); err != nil {
				return nil, err
			}
		}
		c.recorder.PollAttempt("BatchGetBuilds")
		res, err := c.api.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{Ids: []string{id}})
		if err != nil {
			return nil, err
		}
		if len(res.Builds) == 0 {
			return nil, errors.New(errors.CodeResourceNotFound, fmt.Sprintf("build %s not found", id))
		}
		build = &res.Builds[0]
		logger.Infof(ctx, "Current status: %s", build.BuildStatus)
	}
	return build, nil
}
