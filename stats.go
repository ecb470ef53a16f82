package exprgraph

import (
	"io"

	"exprgraph/internal/store"
)

// SetLogOutput redirects the package's diagnostic logger (hash-cons
// insert/evict events), e.g. to os.Stderr while chasing a leak, or back
// to io.Discard to silence it again. Off by default.
func SetLogOutput(w io.Writer) {
	store.SetLogOutput(w)
}

// GraphStats summarises a graph for debugging.
type GraphStats struct {
	Nodes    int
	MaxDepth int
	HasXYZ   bool
	HasRemap bool
	HasOracle bool
}

// Stats reports the unique node count, maximum depth, and flag summary of
// t. t is borrowed.
func Stats(t Handle) GraphStats {
	flags := t.Flags()
	return GraphStats{
		Nodes:     Size(t),
		MaxDepth:  maxDepth(t.n),
		HasXYZ:    flags&HasXYZ != 0,
		HasRemap:  flags&HasRemap != 0,
		HasOracle: flags&HasOracle != 0,
	}
}

// maxDepth computes the longest root-to-leaf path, iteratively: a second
// post-order pass over the same node list walk uses, accumulating each
// node's depth from its already-visited children.
func maxDepth(root *store.Node) int {
	order := postOrder(root)
	depth := make(map[*store.Node]int, len(order))
	for _, n := range order {
		d := 0
		for _, c := range n.Children {
			if depth[c]+1 > d {
				d = depth[c] + 1
			}
		}
		depth[n] = d
	}
	return depth[root] + 1
}
