package exprgraph

import "exprgraph/internal/store"

// Remap returns a new Remap(body, x, y, z) wrapper without traversing
// body, so it costs O(1) regardless of body's size and never disturbs the
// graph it wraps. All four arguments are borrowed.
func Remap(body, x, y, z Handle) Handle {
	return Handle{store.MakeRemap(
		store.Clone(body.n), store.Clone(x.n), store.Clone(y.n), store.Clone(z.n),
	)}
}

// WithConstVars wraps t so downstream evaluators treat its free variables
// as constants, without mutating t. t is borrowed.
func WithConstVars(t Handle) Handle {
	return Handle{store.MakeConstVar(store.Clone(t.n))}
}

// Flatten eagerly resolves every Remap reachable from t into an equivalent
// Remap-free graph. t is borrowed.
//
// A node with HAS_REMAP unset is returned unchanged in O(1), by handle
// identity, per §5.6(5). Otherwise the whole reachable DAG is rebuilt
// bottom-up in one memoised pass (keyed by input record, so a node shared
// by two parents is flattened once): leaves are cloned as-is, ordinary
// operators are rebuilt through the smart constructors (re-applying
// folds), and each Remap node's body/x/y/z are flattened first (so nested
// remaps compose inner-first) and then the flattened body has its axis
// leaves substituted with the flattened replacements.
func Flatten(t Handle) Handle {
	if t.Flags()&HasRemap == 0 {
		return t.Clone()
	}
	return flattenRebuild(t.n)
}

func flattenRebuild(root *store.Node) Handle {
	order := postOrder(root)
	memo := make(map[*store.Node]Handle, len(order))

	for _, n := range order {
		var result Handle
		switch n.Kind {
		case store.Constant, store.AxisX, store.AxisY, store.AxisZ, store.FreeVar, store.OracleOp:
			result = Handle{store.Clone(n)}
		case store.UnaryOp:
			result = Unary(n.Op, memo[n.Children[0]])
		case store.BinaryOp:
			result = Binary(n.Op, memo[n.Children[0]], memo[n.Children[1]])
		case store.ConstVarOp:
			result = WithConstVars(memo[n.Children[0]])
		case store.RemapOp:
			fbody := memo[n.Children[0]]
			fx := memo[n.Children[1]]
			fy := memo[n.Children[2]]
			fz := memo[n.Children[3]]
			result = substituteAxes(fbody, fx, fy, fz)
		}
		memo[n] = result
	}

	final := memo[root].Clone()
	for _, h := range memo {
		h.Release()
	}
	return final
}

// substituteAxes rebuilds the (already Remap-free) fbody subgraph,
// replacing every VarX/VarY/VarZ leaf with fx/fy/fz respectively. It is
// its own memoised, iterative pass local to this one Remap node.
func substituteAxes(fbody, fx, fy, fz Handle) Handle {
	order := postOrder(fbody.n)
	memo := make(map[*store.Node]Handle, len(order))

	for _, n := range order {
		var result Handle
		switch n.Kind {
		case store.AxisX:
			result = fx.Clone()
		case store.AxisY:
			result = fy.Clone()
		case store.AxisZ:
			result = fz.Clone()
		case store.Constant, store.FreeVar, store.OracleOp:
			result = Handle{store.Clone(n)}
		case store.UnaryOp:
			result = Unary(n.Op, memo[n.Children[0]])
		case store.BinaryOp:
			result = Binary(n.Op, memo[n.Children[0]], memo[n.Children[1]])
		case store.ConstVarOp:
			result = WithConstVars(memo[n.Children[0]])
		}
		memo[n] = result
	}

	final := memo[fbody.n].Clone()
	for _, h := range memo {
		h.Release()
	}
	return final
}
