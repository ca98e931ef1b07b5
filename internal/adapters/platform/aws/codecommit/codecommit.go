package codecommit

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codecommit"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

type CodeCommitAPI interface {
	ListBranches(ctx context.Context, params *codecommit.ListBranchesInput, optFns ...func(*codecommit.Options)) (*codecommit.ListBranchesOutput, error)
}

var _ CodeCommitAPI = (*codecommit.Client)(nil)

type Client struct {
	api      CodeCommitAPI
	logger   ports.Logger
	limiter  shared.RateLimiter
	recorder shared.Recorder
}

func NewClient(api CodeCommitAPI, logger ports.Logger, limiter shared.RateLimiter, recorder shared.Recorder) *Client {
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	return &Client{api: api, logger: logger, limiter: limiter, recorder: recorder}
}

// ListBranchesAll returns every branch name in a repository.
func (c *Client) ListBranchesAll(ctx context.Context, repository string) ([]string, error) {
	opts := []paging.Option{paging.WithNextToken(), paging.WithLogger(c.logger), paging.WithRecorder(c.recorder)}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	out, err := paging.Slurp(ctx, "ListBranches", c.api.ListBranches, "Branches",
		&codecommit.ListBranchesInput{RepositoryName: aws.String(repository)}, opts...)
	if err != nil {
		return nil, err
	}
	return out.Branches, nil
}
