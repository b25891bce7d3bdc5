package model

// Node is a single named node of a hierarchical feature model together with
// its nearest named ancestor. Parent is empty for root-level nodes.
type Node struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// HasParent reports whether the node has a named ancestor.
func (n Node) HasParent() bool {
	return n.Parent != ""
}

// Names returns the node names of a sequence in order.
func Names(nodes []Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

// ParentNames returns the distinct non-empty parent names of a sequence in
// first-occurrence order.
func ParentNames(nodes []Node) []string {
	seen := make(map[string]bool)
	var parents []string
	for _, n := range nodes {
		if n.Parent != "" && !seen[n.Parent] {
			seen[n.Parent] = true
			parents = append(parents, n.Parent)
		}
	}
	return parents
}
