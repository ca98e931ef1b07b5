package cloudformation

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	awserrors "github.com/olusolaa/better-aws/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/core/domain"
)

func (c *Client) pagingOptions() []paging.Option {
	opts := []paging.Option{
		paging.WithNextToken(),
		paging.WithDelay(c.pageDelay),
		paging.WithLogger(c.logger),
		paging.WithRecorder(c.recorder),
	}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	return opts
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, c.logger)
}

// DescribeStacksAll returns every stack visible to the caller, or the stacks
// matching in.StackName.
func (c *Client) DescribeStacksAll(ctx context.Context, in *cloudformation.DescribeStacksInput) ([]types.Stack, error) {
	out, err := paging.Slurp(ctx, "DescribeStacks", c.api.DescribeStacks, "Stacks", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Stacks, nil
}

// ListStacksAll returns stack summaries, optionally filtered by status.
func (c *Client) ListStacksAll(ctx context.Context, statuses ...types.StackStatus) ([]types.StackSummary, error) {
	in := &cloudformation.ListStacksInput{StackStatusFilter: statuses}
	out, err := paging.Slurp(ctx, "ListStacks", c.api.ListStacks, "StackSummaries", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.StackSummaries, nil
}

// describeStack returns the stacks registered under name. A missing stack
// yields (nil, nil).
func (c *Client) describeStack(ctx context.Context, name string) ([]types.Stack, error) {
	stacks, err := c.DescribeStacksAll(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err != nil {
		if awserrors.IsStackNotFound(err, name) {
			return nil, nil
		}
		return nil, err
	}
	return stacks, nil
}

// StackEvents returns the most recent page of events for a stack, newest first.
func (c *Client) StackEvents(ctx context.Context, name string) ([]domain.StackEvent, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{StackName: aws.String(name)})
	if err != nil {
		return nil, err
	}
	return toDomainEvents(out.StackEvents), nil
}
