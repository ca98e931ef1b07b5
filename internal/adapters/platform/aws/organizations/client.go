// Package organizations resolves paths and walks the AWS Organizations
// hierarchy. All traversals are iterative and guard against revisiting a
// node, so arbitrarily deep trees cannot exhaust the stack.
package organizations

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

type Client struct {
	api       OrganizationsAPI
	logger    ports.Logger
	limiter   shared.RateLimiter
	recorder  shared.Recorder
	pageDelay time.Duration
}

type Option func(*Client)

func WithRateLimiter(l shared.RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

func WithMetrics(r shared.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

func NewClient(api OrganizationsAPI, logger ports.Logger, opts ...Option) *Client {
	c := &Client{api: api, logger: logger, recorder: shared.NopRecorder{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

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

func (c *Client) ListRootsAll(ctx context.Context) ([]types.Root, error) {
	out, err := paging.Slurp(ctx, "ListRoots", c.api.ListRoots, "Roots", &organizations.ListRootsInput{}, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Roots, nil
}

func (c *Client) ListAccountsAll(ctx context.Context) ([]types.Account, error) {
	out, err := paging.Slurp(ctx, "ListAccounts", c.api.ListAccounts, "Accounts", &organizations.ListAccountsInput{}, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

func (c *Client) ListChildrenAll(ctx context.Context, parentID string, childType types.ChildType) ([]types.Child, error) {
	in := &organizations.ListChildrenInput{ParentId: aws.String(parentID), ChildType: childType}
	out, err := paging.Slurp(ctx, "ListChildren", c.api.ListChildren, "Children", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Children, nil
}

func (c *Client) ListOrganizationalUnitsForParentAll(ctx context.Context, parentID string) ([]types.OrganizationalUnit, error) {
	in := &organizations.ListOrganizationalUnitsForParentInput{ParentId: aws.String(parentID)}
	out, err := paging.Slurp(ctx, "ListOrganizationalUnitsForParent", c.api.ListOrganizationalUnitsForParent, "OrganizationalUnits", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.OrganizationalUnits, nil
}

func (c *Client) ListPoliciesAll(ctx context.Context, filter types.PolicyType) ([]types.PolicySummary, error) {
	in := &organizations.ListPoliciesInput{Filter: filter}
	out, err := paging.Slurp(ctx, "ListPolicies", c.api.ListPolicies, "Policies", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Policies, nil
}

func (c *Client) ListPoliciesForTargetAll(ctx context.Context, targetID string, filter types.PolicyType) ([]types.PolicySummary, error) {
	in := &organizations.ListPoliciesForTargetInput{TargetId: aws.String(targetID), Filter: filter}
	out, err := paging.Slurp(ctx, "ListPoliciesForTarget", c.api.ListPoliciesForTarget, "Policies", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Policies, nil
}

func (c *Client) ListParentsAll(ctx context.Context, childID string) ([]types.Parent, error) {
	in := &organizations.ListParentsInput{ChildId: aws.String(childID)}
	out, err := paging.Slurp(ctx, "ListParents", c.api.ListParents, "Parents", in, c.pagingOptions()...)
	if err != nil {
		return nil, err
	}
	return out.Parents, nil
}
