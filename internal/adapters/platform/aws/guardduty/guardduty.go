package guardduty

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"
	"github.com/aws/aws-sdk-go-v2/service/guardduty/types"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

type GuardDutyAPI interface {
	ListMembers(ctx context.Context, params *guardduty.ListMembersInput, optFns ...func(*guardduty.Options)) (*guardduty.ListMembersOutput, error)
}

var _ GuardDutyAPI = (*guardduty.Client)(nil)

type Client struct {
	api      GuardDutyAPI
	logger   ports.Logger
	limiter  shared.RateLimiter
	recorder shared.Recorder
}

func NewClient(api GuardDutyAPI, logger ports.Logger, limiter shared.RateLimiter, recorder shared.Recorder) *Client {
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	return &Client{api: api, logger: logger, limiter: limiter, recorder: recorder}
}

// ListMembersAll returns the member accounts of a detector. With
// onlyAssociated false, invited and disassociated members are included.
func (c *Client) ListMembersAll(ctx context.Context, detectorID string, onlyAssociated bool) ([]types.Member, error) {
	opts := []paging.Option{paging.WithNextToken(), paging.WithLogger(c.logger), paging.WithRecorder(c.recorder)}
	if c.limiter != nil {
		opts = append(opts, paging.WithRateLimiter(c.limiter))
	}
	in := &guardduty.ListMembersInput{DetectorId: aws.String(detectorID)}
	if !onlyAssociated {
		in.OnlyAssociated = aws.String("false")
	}
	out, err := paging.Slurp(ctx, "ListMembers", c.api.ListMembers, "Members", in, opts...)
	if err != nil {
		return nil, err
	}
	return out.Members, nil
}
