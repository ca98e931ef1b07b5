package domain

import "sort"

// OrgNode is one unit of an organization tree. Children are keyed by display
// name; there are no back-pointers.
type OrgNode struct {
	ID       string              `json:"id"`
	Arn      string              `json:"arn,omitempty"`
	Name     string              `json:"name"`
	Kind     NodeKind            `json:"kind"`
	Depth    int                 `json:"depth"`
	Children map[string]*OrgNode `json:"children,omitempty"`
}

func NewOrgNode(id, name string, kind NodeKind, depth int) *OrgNode {
	return &OrgNode{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Depth:    depth,
		Children: make(map[string]*OrgNode),
	}
}

// SortedChildNames returns child names in lexical order.
func (n *OrgNode) SortedChildNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk visits n and every descendant depth-first in name order.
func (n *OrgNode) Walk(fn func(node *OrgNode)) {
	if n == nil {
		return
	}
	stack := []*OrgNode{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(node)
		names := node.SortedChildNames()
		for i := len(names) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[names[i]])
		}
	}
}
