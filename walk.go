package exprgraph

import "exprgraph/internal/store"

// postOrder returns the distinct records reachable from root exactly once
// each, children before parents, lhs before rhs. It is the shared,
// iterative (explicit work stack) traversal every multi-node pass in this
// package builds on, so none of them recurse on graph depth.
func postOrder(root *store.Node) []*store.Node {
	if root == nil {
		return nil
	}

	type frame struct {
		n   *store.Node
		idx int
	}

	visited := map[*store.Node]bool{root: true}
	order := make([]*store.Node, 0, 16)
	stack := []*frame{{root, 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.idx < len(top.n.Children) {
			c := top.n.Children[top.idx]
			top.idx++
			if !visited[c] {
				visited[c] = true
				stack = append(stack, &frame{c, 0})
			}
			continue
		}
		order = append(order, top.n)
		stack = stack[:len(stack)-1]
	}
	return order
}

// Walk returns the distinct nodes reachable from t in deterministic
// post-order (children before parents, lhs before rhs), each appearing
// exactly once. t is borrowed; each returned Handle is a new, independently
// owned reference the caller must Release.
func Walk(t Handle) []Handle {
	nodes := postOrder(t.n)
	out := make([]Handle, len(nodes))
	for i, n := range nodes {
		out[i] = Handle{store.Clone(n)}
	}
	return out
}

// Size returns the number of unique nodes reachable from t, i.e.
// len(Walk(t)) without the allocation cost of cloning each one.
func Size(t Handle) int {
	return len(postOrder(t.n))
}
