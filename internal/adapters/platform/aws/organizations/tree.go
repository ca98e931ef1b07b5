package organizations

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/errors"
)

const rootIDPrefix = "r-"

// PathToOU converts a slash-separated path of unit names ("/", "/Workloads/Prod")
// into the id of the unit it names. "/" resolves to the organization root and
// fails with CodeAmbiguousRoot when there is more than one. Names are matched
// exactly; the first root holding the first segment is the one searched.
func (c *Client) PathToOU(ctx context.Context, path string) (string, error) {
	c.logger.Debugf(ctx, "Converting path %s", path)

	roots, err := c.ListRootsAll(ctx)
	if err != nil {
		return "", err
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		switch len(roots) {
		case 1:
			return aws.ToString(roots[0].Id), nil
		case 0:
			return "", errors.New(errors.CodeResourceNotFound, "organization has no root")
		default:
			return "", errors.New(errors.CodeAmbiguousRoot,
				fmt.Sprintf("cannot resolve %q: organization has %d roots", path, len(roots)))
		}
	}

	for _, root := range roots {
		id, found, err := c.findChildOU(ctx, aws.ToString(root.Id), segments[0])
		if err != nil {
			return "", err
		}
		if !found {
			continue
		}
		for _, seg := range segments[1:] {
			c.logger.Debugf(ctx, "Looking for %s in %s", seg, id)
			next, ok, err := c.findChildOU(ctx, id, seg)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", errors.New(errors.CodeResourceNotFound,
					fmt.Sprintf("organizational unit %q not found under %s while resolving %s", seg, id, path))
			}
			id = next
		}
		return id, nil
	}
	return "", errors.New(errors.CodeResourceNotFound, fmt.Sprintf("organizational unit path %s not found", path))
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func (c *Client) findChildOU(ctx context.Context, parentID, name string) (string, bool, error) {
	units, err := c.ListOrganizationalUnitsForParentAll(ctx, parentID)
	if err != nil {
		return "", false, err
	}
	for _, ou := range units {
		if aws.ToString(ou.Name) == name {
			return aws.ToString(ou.Id), true, nil
		}
	}
	return "", false, nil
}

// BuildOUTree returns the unit id and every organizational unit beneath it.
// Accounts are not included.
func (c *Client) BuildOUTree(ctx context.Context, id string) (*domain.OrgNode, error) {
	root, err := c.describeNode(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{id: {}}
	stack := []*domain.OrgNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c.logger.Debugf(ctx, "Building unit tree for %s", node.ID)

		children, err := c.ListChildrenAll(ctx, node.ID, types.ChildTypeOrganizationalUnit)
		if err != nil {
			return nil, err
		}
		for _, ch := range children {
			childID := aws.ToString(ch.Id)
			if _, seen := visited[childID]; seen {
				c.logger.Warnf(ctx, "Unit %s already visited, skipping", childID)
				continue
			}
			visited[childID] = struct{}{}

			child, err := c.describeNode(ctx, childID, node.Depth+1)
			if err != nil {
				return nil, err
			}
			node.Children[child.Name] = child
			stack = append(stack, child)
		}
	}
	return root, nil
}

func (c *Client) describeNode(ctx context.Context, id string, depth int) (*domain.OrgNode, error) {
	if strings.HasPrefix(id, rootIDPrefix) {
		roots, err := c.ListRootsAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range roots {
			if aws.ToString(r.Id) == id {
				n := domain.NewOrgNode(id, aws.ToString(r.Name), domain.NodeKindRoot, depth)
				n.Arn = aws.ToString(r.Arn)
				return n, nil
			}
		}
		return nil, errors.New(errors.CodeResourceNotFound, fmt.Sprintf("root %s not found", id))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.logger); err != nil {
			return nil, err
		}
	}
	out, err := c.api.DescribeOrganizationalUnit(ctx, &organizations.DescribeOrganizationalUnitInput{
		OrganizationalUnitId: aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	ou := out.OrganizationalUnit
	if ou == nil {
		return nil, errors.New(errors.CodeResourceNotFound, fmt.Sprintf("organizational unit %s not found", id))
	}
	n := domain.NewOrgNode(id, aws.ToString(ou.Name), domain.NodeKindOrganizationalUnit, depth)
	n.Arn = aws.ToString(ou.Arn)
	return n, nil
}

// ListChildrenNested returns descendant ids of parentID.
// For ACCOUNT it returns every account directly under parentID or under any
// descendant unit. For ORGANIZATIONAL_UNIT it returns parentID itself followed
// by every descendant unit id. Order is depth-first, parents before children.
func (c *Client) ListChildrenNested(ctx context.Context, parentID string, childType types.ChildType) ([]string, error) {
	switch childType {
	case types.ChildTypeAccount, types.ChildTypeOrganizationalUnit:
	default:
		return nil, errors.New(errors.CodeUnsupportedChildType, fmt.Sprintf("unsupported child type: %s", childType))
	}

	var ids []string
	visited := map[string]struct{}{}
	stack := []string{parentID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		if childType == types.ChildTypeAccount {
			accounts, err := c.ListChildrenAll(ctx, id, types.ChildTypeAccount)
			if err != nil {
				return nil, err
			}
			for _, a := range accounts {
				ids = append(ids, aws.ToString(a.Id))
			}
		} else {
			ids = append(ids, id)
		}

		units, err := c.ListChildrenAll(ctx, id, types.ChildTypeOrganizationalUnit)
		if err != nil {
			return nil, err
		}
		for i := len(units) - 1; i >= 0; i-- {
			stack = append(stack, aws.ToString(units[i].Id))
		}
	}
	return ids, nil
}
