package model

// NodeKind identifies a level of the provider placement hierarchy.
type NodeKind string

const (
	KindDatacenter   NodeKind = "datacenter"
	KindCluster      NodeKind = "cluster"
	KindResourcePool NodeKind = "resource_pool"
	KindHost         NodeKind = "host"
	KindFolder       NodeKind = "folder"
)

func (k NodeKind) Valid() bool {
	switch k {
	case KindDatacenter, KindCluster, KindResourcePool, KindHost, KindFolder:
		return true
	}
	return false
}

// PlacementNode is one element of the placement tree, linked to its parent.
type PlacementNode struct {
	ID     string
	Name   string
	Kind   NodeKind
	Parent *PlacementNode
}

// DetectAncestor walks upward from the node's parent and returns the nearest
// ancestor of the given kind, or nil.
func (n *PlacementNode) DetectAncestor(kind NodeKind) *PlacementNode {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// Path returns the node names from the root down to n.
func (n *PlacementNode) Path() []string {
	var path []string
	for p := n; p != nil; p = p.Parent {
		path = append([]string{p.Name}, path...)
	}
	return path
}
