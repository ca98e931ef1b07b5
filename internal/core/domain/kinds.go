package domain

// NodeKind is the type of a node in an AWS Organizations hierarchy. Values
// match the provider's ChildType / TargetType strings.
type NodeKind string

const (
	NodeKindRoot               NodeKind = "ROOT"
	NodeKindOrganizationalUnit NodeKind = "ORGANIZATIONAL_UNIT"
	NodeKindAccount            NodeKind = "ACCOUNT"
)

func (k NodeKind) String() string {
	return string(k)
}
