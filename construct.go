package exprgraph

import (
	"math"

	"exprgraph/internal/opcode"
	"exprgraph/internal/store"
)

// X returns the axis singleton for the X coordinate.
func X() Handle { return Handle{store.MakeAxis(store.AxisX)} }

// Y returns the axis singleton for the Y coordinate.
func Y() Handle { return Handle{store.MakeAxis(store.AxisY)} }

// Z returns the axis singleton for the Z coordinate.
func Z() Handle { return Handle{store.MakeAxis(store.AxisZ)} }

// Var returns a fresh, never-interned free variable.
func Var() Handle { return Handle{store.NewFreeVar()} }

// Constant returns the interned constant for v's IEEE-754 bit pattern.
func Constant(v float32) Handle {
	return Handle{store.MakeConstant(math.Float32bits(v))}
}

// Oracle wraps c in a fresh, never-interned leaf.
func Oracle(c Clause) Handle {
	return Handle{store.NewOracle(c)}
}

func isConstant(h Handle) bool { return h.n.Kind == store.Constant }

func constVal(h Handle) float32 { return math.Float32frombits(h.n.Bits) }

func isValue(h Handle, v float32) bool {
	return isConstant(h) && constVal(h) == v
}

func isUnaryOp(h Handle, op opcode.Op) bool {
	return h.n.Kind == store.UnaryOp && h.n.Op == op
}

// Unary builds a unary node, applying idempotent and double-negation
// folding and constant evaluation before interning. t is borrowed: it
// remains valid and independently owned by the caller afterward.
func Unary(op opcode.Op, t Handle) Handle {
	info := opcode.Lookup(op)

	if info.Idempotent && isUnaryOp(t, op) {
		return t.Clone()
	}
	if op == opcode.NEG && isUnaryOp(t, opcode.NEG) {
		return Handle{store.Clone(t.n.Children[0])}
	}
	if isConstant(t) {
		return Constant(opcode.EvalUnary(op, constVal(t)))
	}
	return Handle{store.MakeUnary(op, store.Clone(t.n))}
}

// Binary builds a binary node, applying the algebraic identities and
// constant-folding rules of §5.4 before interning. lhs and rhs are
// borrowed: they remain valid and independently owned by the caller
// afterward.
func Binary(op opcode.Op, lhs, rhs Handle) Handle {
	switch op {
	case opcode.ADD:
		return buildAdd(lhs, rhs)
	case opcode.SUB:
		return buildSub(lhs, rhs)
	case opcode.MUL:
		return buildMul(lhs, rhs)
	case opcode.MIN, opcode.MAX:
		return buildMinMax(op, lhs, rhs)
	case opcode.POW, opcode.NTH_ROOT:
		if isValue(rhs, 1) {
			return lhs.Clone()
		}
	}
	return foldOrBuild(op, lhs, rhs)
}

func buildAdd(lhs, rhs Handle) Handle {
	if isValue(lhs, 0) {
		return rhs.Clone()
	}
	if isValue(rhs, 0) {
		return lhs.Clone()
	}
	if isUnaryOp(rhs, opcode.NEG) {
		y := Handle{store.Clone(rhs.n.Children[0])}
		result := Binary(opcode.SUB, lhs, y)
		y.Release()
		return result
	}
	return foldOrBuild(opcode.ADD, lhs, rhs)
}

func buildSub(lhs, rhs Handle) Handle {
	if isValue(rhs, 0) {
		return lhs.Clone()
	}
	if isValue(lhs, 0) {
		return Unary(opcode.NEG, rhs)
	}
	return foldOrBuild(opcode.SUB, lhs, rhs)
}

func buildMul(lhs, rhs Handle) Handle {
	if isValue(lhs, 0) || isValue(rhs, 0) {
		return Constant(0)
	}
	if isValue(lhs, 1) {
		return rhs.Clone()
	}
	if isValue(rhs, 1) {
		return lhs.Clone()
	}
	if isValue(lhs, -1) {
		return Unary(opcode.NEG, rhs)
	}
	if isValue(rhs, -1) {
		return Unary(opcode.NEG, lhs)
	}
	if lhs.n == rhs.n {
		return Unary(opcode.SQUARE, lhs)
	}
	return foldOrBuild(opcode.MUL, lhs, rhs)
}

func buildMinMax(op opcode.Op, lhs, rhs Handle) Handle {
	if lhs.n == rhs.n {
		return lhs.Clone()
	}
	return foldOrBuild(op, lhs, rhs)
}

// foldOrBuild evaluates op on lhs/rhs if both are constants, else builds
// (and interns) the real binary node. lhs and rhs are borrowed.
func foldOrBuild(op opcode.Op, lhs, rhs Handle) Handle {
	if isConstant(lhs) && isConstant(rhs) {
		return Constant(opcode.EvalBinary(op, constVal(lhs), constVal(rhs)))
	}
	return Handle{store.MakeBinary(op, store.Clone(lhs.n), store.Clone(rhs.n))}
}
