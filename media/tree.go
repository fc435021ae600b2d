package media

// TreeNode is one clip with its replies attached, children in the order the
// input clips were given.
type TreeNode struct {
	Clip
	Children []*TreeNode `json:"children"`
}

// BuildTree assembles the reply tree from a flat clip set and returns the
// roots. A clip whose parent is not in the set becomes a root; dangling
// parents are not an error. Parents logically predate children
// (timestamp-derived identifiers), but malformed references are guarded
// against anyway: a self-parent or a parent chain that loops back promotes
// the clip to a root instead of recursing forever.
func BuildTree(clips []Clip) []*TreeNode {
	nodes := make(map[string]*TreeNode, len(clips))
	order := make([]*TreeNode, 0, len(clips))
	for _, c := range clips {
		n := &TreeNode{Clip: c, Children: []*TreeNode{}}
		nodes[c.Basename] = n
		order = append(order, n)
	}
	roots := make([]*TreeNode, 0, len(order))
	for _, n := range order {
		parent, ok := nodes[n.Parent]
		if n.Parent == "" || !ok || parent == n || onParentChain(nodes, parent, n) {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

// onParentChain reports whether target appears on the parent chain starting
// at start, bounded by the set size so a pre-existing loop cannot spin.
func onParentChain(nodes map[string]*TreeNode, start, target *TreeNode) bool {
	cur := start
	for steps := 0; cur != nil && steps <= len(nodes); steps++ {
		if cur == target {
			return true
		}
		cur = nodes[cur.Parent]
	}
	return false
}
