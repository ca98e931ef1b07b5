package organizations

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/errors"
	"github.com/olusolaa/better-aws/internal/log"
	"github.com/olusolaa/better-aws/mocks"
)

func newTestClient() (*Client, *mocks.MockOrganizationsClient) {
	api := new(mocks.MockOrganizationsClient)
	return NewClient(api, log.Discard()), api
}

func roots(ids ...string) *organizations.ListRootsOutput {
	out := &organizations.ListRootsOutput{}
	for _, id := range ids {
		out.Roots = append(out.Roots, types.Root{Id: aws.String(id), Name: aws.String("Root"), Arn: aws.String("arn:" + id)})
	}
	return out
}

func expectUnits(api *mocks.MockOrganizationsClient, parent string, units map[string]string) {
	out := &organizations.ListOrganizationalUnitsForParentOutput{}
	for name, id := range units {
		out.OrganizationalUnits = append(out.OrganizationalUnits, types.OrganizationalUnit{Id: aws.String(id), Name: aws.String(name)})
	}
	api.On("ListOrganizationalUnitsForParent", mock.Anything, mock.MatchedBy(func(in *organizations.ListOrganizationalUnitsForParentInput) bool {
		return aws.ToString(in.ParentId) == parent
	}), mock.Anything).Return(out, nil)
}

func expectChildren(api *mocks.MockOrganizationsClient, parent string, childType types.ChildType, ids ...string) {
	out := &organizations.ListChildrenOutput{}
	for _, id := range ids {
		out.Children = append(out.Children, types.Child{Id: aws.String(id), Type: childType})
	}
	api.On("ListChildren", mock.Anything, mock.MatchedBy(func(in *organizations.ListChildrenInput) bool {
		return aws.ToString(in.ParentId) == parent && in.ChildType == childType
	}), mock.Anything).Return(out, nil)
}

func TestPathToOU_Root(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots("r-1"), nil)

	id, err := c.PathToOU(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "r-1", id)
}

func TestPathToOU_AmbiguousRoot(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots("r-1", "r-2"), nil)

	_, err := c.PathToOU(context.Background(), "/")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeAmbiguousRoot))
}

func TestPathToOU_NoRoot(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots(), nil)

	_, err := c.PathToOU(context.Background(), "/")
	assert.True(t, errors.Is(err, errors.CodeResourceNotFound))
}

func TestPathToOU_NestedPath(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots("r-1"), nil)
	expectUnits(api, "r-1", map[string]string{"Workloads": "ou-w", "Sandbox": "ou-s"})
	expectUnits(api, "ou-w", map[string]string{"Prod": "ou-p", "Dev": "ou-d"})

	id, err := c.PathToOU(context.Background(), "/Workloads/Prod")
	require.NoError(t, err)
	assert.Equal(t, "ou-p", id)

	id, err = c.PathToOU(context.Background(), "/Sandbox")
	require.NoError(t, err)
	assert.Equal(t, "ou-s", id)
}

func TestPathToOU_MissingSegment(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots("r-1"), nil)
	expectUnits(api, "r-1", map[string]string{"Workloads": "ou-w"})
	expectUnits(api, "ou-w", map[string]string{"Prod": "ou-p"})

	_, err := c.PathToOU(context.Background(), "/Workloads/Staging")
	assert.True(t, errors.Is(err, errors.CodeResourceNotFound))

	_, err = c.PathToOU(context.Background(), "/Nope")
	assert.True(t, errors.Is(err, errors.CodeResourceNotFound))
}

func TestPathToOU_NamesMatchExactly(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots("r-1"), nil)
	expectUnits(api, "r-1", map[string]string{"workloads": "ou-w"})

	_, err := c.PathToOU(context.Background(), "/Workloads")
	assert.True(t, errors.Is(err, errors.CodeResourceNotFound))
}

func TestListChildrenNested_Accounts(t *testing.T) {
	c, api := newTestClient()
	expectChildren(api, "ou-a", types.ChildTypeAccount, "111", "222")
	expectChildren(api, "ou-a", types.ChildTypeOrganizationalUnit, "ou-b")
	expectChildren(api, "ou-b", types.ChildTypeAccount, "333")
	expectChildren(api, "ou-b", types.ChildTypeOrganizationalUnit)

	ids, err := c.ListChildrenNested(context.Background(), "ou-a", types.ChildTypeAccount)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"111", "222", "333"}, ids); diff != "" {
		t.Errorf("accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestListChildrenNested_Units(t *testing.T) {
	c, api := newTestClient()
	expectChildren(api, "r-1", types.ChildTypeOrganizationalUnit, "ou-a", "ou-c")
	expectChildren(api, "ou-a", types.ChildTypeOrganizationalUnit, "ou-b")
	expectChildren(api, "ou-b", types.ChildTypeOrganizationalUnit)
	expectChildren(api, "ou-c", types.ChildTypeOrganizationalUnit)

	ids, err := c.ListChildrenNested(context.Background(), "r-1", types.ChildTypeOrganizationalUnit)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1", "ou-a", "ou-b", "ou-c"}, ids)
	api.AssertNotCalled(t, "ListChildren", mock.Anything, mock.MatchedBy(func(in *organizations.ListChildrenInput) bool {
		return in.ChildType == types.ChildTypeAccount
	}), mock.Anything)
}

func TestListChildrenNested_UnsupportedType(t *testing.T) {
	c, api := newTestClient()

	_, err := c.ListChildrenNested(context.Background(), "r-1", types.ChildType("POLICY"))
	assert.True(t, errors.Is(err, errors.CodeUnsupportedChildType))
	api.AssertNotCalled(t, "ListChildren", mock.Anything, mock.Anything, mock.Anything)
}

func TestListChildrenNested_CycleGuard(t *testing.T) {
	c, api := newTestClient()
	expectChildren(api, "ou-a", types.ChildTypeOrganizationalUnit, "ou-b")
	expectChildren(api, "ou-b", types.ChildTypeOrganizationalUnit, "ou-a")

	ids, err := c.ListChildrenNested(context.Background(), "ou-a", types.ChildTypeOrganizationalUnit)
	require.NoError(t, err)
	assert.Equal(t, []string{"ou-a", "ou-b"}, ids)
}

func TestBuildOUTree(t *testing.T) {
	c, api := newTestClient()
	api.On("ListRoots", mock.Anything, mock.Anything, mock.Anything).Return(roots("r-1"), nil)
	expectChildren(api, "r-1", types.ChildTypeOrganizationalUnit, "ou-w", "ou-s")
	expectChildren(api, "ou-w", types.ChildTypeOrganizationalUnit, "ou-p")
	expectChildren(api, "ou-s", types.ChildTypeOrganizationalUnit)
	expectChildren(api, "ou-p", types.ChildTypeOrganizationalUnit)
	for id, name := range map[string]string{"ou-w": "Workloads", "ou-s": "Sandbox", "ou-p": "Prod"} {
		api.On("DescribeOrganizationalUnit", mock.Anything, mock.MatchedBy(func(in *organizations.DescribeOrganizationalUnitInput) bool {
			return aws.ToString(in.OrganizationalUnitId) == id
		}), mock.Anything).Return(&organizations.DescribeOrganizationalUnitOutput{
			OrganizationalUnit: &types.OrganizationalUnit{Id: aws.String(id), Name: aws.String(name)},
		}, nil)
	}

	tree, err := c.BuildOUTree(context.Background(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, domain.NodeKindRoot, tree.Kind)
	assert.Equal(t, "Root", tree.Name)
	assert.Equal(t, []string{"Sandbox", "Workloads"}, tree.SortedChildNames())
	prod := tree.Children["Workloads"].Children["Prod"]
	require.NotNil(t, prod)
	assert.Equal(t, "ou-p", prod.ID)
	assert.Equal(t, 2, prod.Depth)
	assert.Equal(t, domain.NodeKindOrganizationalUnit, prod.Kind)
	api.AssertNotCalled(t, "ListChildren", mock.Anything, mock.MatchedBy(func(in *organizations.ListChildrenInput) bool {
		return in.ChildType == types.ChildTypeAccount
	}), mock.Anything)
}

func TestBuildOUTree_FromUnit(t *testing.T) {
	c, api := newTestClient()
	expectChildren(api, "ou-w", types.ChildTypeOrganizationalUnit)
	api.On("DescribeOrganizationalUnit", mock.Anything, mock.Anything, mock.Anything).Return(&organizations.DescribeOrganizationalUnitOutput{
		OrganizationalUnit: &types.OrganizationalUnit{Id: aws.String("ou-w"), Name: aws.String("Workloads")},
	}, nil)

	tree, err := c.BuildOUTree(context.Background(), "ou-w")
	require.NoError(t, err)
	assert.Equal(t, "Workloads", tree.Name)
	assert.Empty(t, tree.Children)
	api.AssertNotCalled(t, "ListRoots", mock.Anything, mock.Anything, mock.Anything)
}

func TestListPoliciesAll(t *testing.T) {
	c, api := newTestClient()
	api.On("ListPolicies", mock.Anything, mock.MatchedBy(func(in *organizations.ListPoliciesInput) bool {
		return in.Filter == types.PolicyTypeServiceControlPolicy && in.NextToken == nil
	}), mock.Anything).Return(&organizations.ListPoliciesOutput{
		Policies:  []types.PolicySummary{{Id: aws.String("p-1")}},
		NextToken: aws.String("t"),
	}, nil).Once()
	api.On("ListPolicies", mock.Anything, mock.MatchedBy(func(in *organizations.ListPoliciesInput) bool {
		return aws.ToString(in.NextToken) == "t"
	}), mock.Anything).Return(&organizations.ListPoliciesOutput{
		Policies: []types.PolicySummary{{Id: aws.String("p-2")}},
	}, nil).Once()

	policies, err := c.ListPoliciesAll(context.Background(), types.PolicyTypeServiceControlPolicy)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "p-2", aws.ToString(policies[1].Id))
}
