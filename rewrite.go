package exprgraph

import (
	"math"

	"exprgraph/internal/opcode"
	"exprgraph/internal/store"
)

// Unique rebuilds t one node at a time, bottom-up, through the smart
// constructors, so the result uses a single record per structurally equal
// subtree even if t itself was assembled without going through them (for
// instance, freshly deserialised). t is borrowed.
func Unique(t Handle) Handle {
	order := postOrder(t.n)
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
			result = Remap(memo[n.Children[0]], memo[n.Children[1]], memo[n.Children[2]], memo[n.Children[3]])
		}
		memo[n] = result
	}

	final := memo[t.n].Clone()
	for _, h := range memo {
		h.Release()
	}
	return final
}

// affineInfo is the accumulator CollectAffine carries up through a node's
// +, -, unary -, and c* spine: order lists atom records in first-seen
// order, coeff holds each atom's accumulated coefficient, and constant is
// the running scalar term. Atom keys are original, pre-rewrite records;
// their rebuilt form lives in the caller's collected map.
type affineInfo struct {
	order    []*store.Node
	coeff    map[*store.Node]float32
	constant float32
}

func singleAtom(n *store.Node) affineInfo {
	return affineInfo{order: []*store.Node{n}, coeff: map[*store.Node]float32{n: 1}, constant: 0}
}

func constAffine(v float32) affineInfo {
	return affineInfo{constant: v}
}

func scaleAffine(a affineInfo, k float32) affineInfo {
	out := affineInfo{
		order:    a.order,
		coeff:    make(map[*store.Node]float32, len(a.coeff)),
		constant: a.constant * k,
	}
	for n, c := range a.coeff {
		out.coeff[n] = c * k
	}
	return out
}

func mergeAffine(a, b affineInfo) affineInfo {
	out := affineInfo{
		order:    append([]*store.Node{}, a.order...),
		coeff:    make(map[*store.Node]float32, len(a.coeff)+len(b.coeff)),
		constant: a.constant + b.constant,
	}
	for n, c := range a.coeff {
		out.coeff[n] = c
	}
	for _, n := range b.order {
		if _, seen := out.coeff[n]; !seen {
			out.order = append(out.order, n)
		}
		out.coeff[n] += b.coeff[n]
	}
	return out
}

func rawConstVal(n *store.Node) (float32, bool) {
	if n.Kind != store.Constant {
		return 0, false
	}
	return math.Float32frombits(n.Bits), true
}

// buildFromAffine realises an affine accumulator as a right-associated
// sum: each nonzero-coefficient atom in reverse first-seen order (the
// most recently seen atom first), then the constant term last if nonzero,
// relying on the smart constructors' own identity folds (x+0=x, 1*x=x,
// -1*x=-x) to collapse the single-term and all-zero cases.
func buildFromAffine(a affineInfo, collected map[*store.Node]Handle) Handle {
	acc := Constant(0)
	for i := len(a.order) - 1; i >= 0; i-- {
		n := a.order[i]
		c := a.coeff[n]
		if c == 0 {
			continue
		}
		atom := collected[n]
		var term Handle
		switch c {
		case 1:
			term = atom.Clone()
		case -1:
			term = Unary(opcode.NEG, atom)
		default:
			k := Constant(c)
			term = Binary(opcode.MUL, atom, k)
			k.Release()
		}
		next := Binary(opcode.ADD, acc, term)
		acc.Release()
		term.Release()
		acc = next
	}
	k := Constant(a.constant)
	final := Binary(opcode.ADD, acc, k)
	acc.Release()
	k.Release()
	return final
}

// CollectAffine re-associates sums and scalar products across +, -, unary
// -, and c*x/x*c into a canonical affine-sum form: atoms (anything that
// isn't itself part of that spine) are recursively collected first and
// then treated opaquely, identical atoms merge their coefficients, and
// the result is rebuilt through the smart constructors so zero/unit
// coefficients fold away. t is borrowed.
func CollectAffine(t Handle) Handle {
	order := postOrder(t.n)
	collected := make(map[*store.Node]Handle, len(order))
	affine := make(map[*store.Node]affineInfo, len(order))

	for _, n := range order {
		var info affineInfo
		switch {
		case n.Kind == store.Constant:
			v, _ := rawConstVal(n)
			info = constAffine(v)
			collected[n] = Handle{store.Clone(n)}

		case n.Kind == store.BinaryOp && n.Op == opcode.ADD:
			info = mergeAffine(affine[n.Children[0]], affine[n.Children[1]])
			collected[n] = buildFromAffine(info, collected)

		case n.Kind == store.BinaryOp && n.Op == opcode.SUB:
			info = mergeAffine(affine[n.Children[0]], scaleAffine(affine[n.Children[1]], -1))
			collected[n] = buildFromAffine(info, collected)

		case n.Kind == store.UnaryOp && n.Op == opcode.NEG:
			info = scaleAffine(affine[n.Children[0]], -1)
			collected[n] = buildFromAffine(info, collected)

		case n.Kind == store.BinaryOp && n.Op == opcode.MUL:
			if k, ok := rawConstVal(n.Children[0]); ok {
				info = scaleAffine(affine[n.Children[1]], k)
				collected[n] = buildFromAffine(info, collected)
			} else if k, ok := rawConstVal(n.Children[1]); ok {
				info = scaleAffine(affine[n.Children[0]], k)
				collected[n] = buildFromAffine(info, collected)
			} else {
				collected[n] = Binary(n.Op, collected[n.Children[0]], collected[n.Children[1]])
				info = singleAtom(n)
			}

		case n.Kind == store.BinaryOp && n.Op == opcode.DIV:
			if k, ok := rawConstVal(n.Children[1]); ok {
				info = scaleAffine(affine[n.Children[0]], 1/k)
				collected[n] = buildFromAffine(info, collected)
			} else {
				collected[n] = Binary(n.Op, collected[n.Children[0]], collected[n.Children[1]])
				info = singleAtom(n)
			}

		case n.Kind == store.AxisX, n.Kind == store.AxisY, n.Kind == store.AxisZ,
			n.Kind == store.FreeVar, n.Kind == store.OracleOp:
			collected[n] = Handle{store.Clone(n)}
			info = singleAtom(n)

		case n.Kind == store.UnaryOp:
			collected[n] = Unary(n.Op, collected[n.Children[0]])
			info = singleAtom(n)

		case n.Kind == store.BinaryOp:
			collected[n] = Binary(n.Op, collected[n.Children[0]], collected[n.Children[1]])
			info = singleAtom(n)

		case n.Kind == store.ConstVarOp:
			collected[n] = WithConstVars(collected[n.Children[0]])
			info = singleAtom(n)

		case n.Kind == store.RemapOp:
			collected[n] = Remap(collected[n.Children[0]], collected[n.Children[1]], collected[n.Children[2]], collected[n.Children[3]])
			info = singleAtom(n)
		}
		affine[n] = info
	}

	final := collected[t.n].Clone()
	for _, h := range collected {
		h.Release()
	}
	return final
}

// Optimized runs the full rewrite pipeline: collapse pending remaps, then
// re-intern structurally, then canonicalise affine sums. t is borrowed.
func Optimized(t Handle) Handle {
	flat := Flatten(t)
	uniq := Unique(flat)
	flat.Release()
	affine := CollectAffine(uniq)
	uniq.Release()
	return affine
}
