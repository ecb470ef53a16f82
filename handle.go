package exprgraph

import (
	"exprgraph/internal/clause"
	"exprgraph/internal/opcode"
	"exprgraph/internal/store"
)

// Kind tags which node variant a Handle refers to.
type Kind = store.Kind

// The closed set of node variants.
const (
	KindConstant   = store.Constant
	KindAxisX      = store.AxisX
	KindAxisY      = store.AxisY
	KindAxisZ      = store.AxisZ
	KindFreeVar    = store.FreeVar
	KindUnary      = store.UnaryOp
	KindBinary     = store.BinaryOp
	KindRemap      = store.RemapOp
	KindConstVar   = store.ConstVarOp
	KindOracle     = store.OracleOp
)

// Op identifies a unary or binary operator; see the opcode constants below.
type Op = opcode.Op

const (
	NEG      = opcode.NEG
	ABS      = opcode.ABS
	SQUARE   = opcode.SQUARE
	SQRT     = opcode.SQRT
	SIN      = opcode.SIN
	COS      = opcode.COS
	TAN      = opcode.TAN
	ASIN     = opcode.ASIN
	ACOS     = opcode.ACOS
	ATAN     = opcode.ATAN
	EXP      = opcode.EXP
	LOG      = opcode.LOG
	RECIP    = opcode.RECIP
	ADD      = opcode.ADD
	SUB      = opcode.SUB
	MUL      = opcode.MUL
	DIV      = opcode.DIV
	MIN      = opcode.MIN
	MAX      = opcode.MAX
	POW      = opcode.POW
	NTH_ROOT = opcode.NTH_ROOT
	ATAN2    = opcode.ATAN2
	MOD      = opcode.MOD
	COMPARE  = opcode.COMPARE
)

// Clause is the capability set an oracle leaf's payload must implement.
type Clause = clause.Clause

// Handle is a shared, thread-safe owning reference to a node record. Two
// handles are == exactly when they refer to the same underlying record
// (handle identity); this is the fast equality every rewrite pass uses.
//
// Every function in this package borrows the Handle arguments it is
// given: the argument remains valid and independently owned by the
// caller after the call returns. Every Handle a function returns is a new,
// independently owned reference that the caller must eventually give up
// with Release, whether or not it shares a record with one of the
// arguments.
type Handle struct {
	n *store.Node
}

// Clone returns a new owning Handle to the same record, incrementing its
// reference count.
func (h Handle) Clone() Handle {
	return Handle{store.Clone(h.n)}
}

// Release gives up this Handle's ownership share. Once the last Handle to
// a record is released, its hash-cons entry is erased and its children
// are released in turn.
func (h Handle) Release() {
	store.Release(h.n)
}

// IsZero reports whether h is the zero Handle (no underlying record); a
// zero Handle is never produced by a constructor. It is the value of an
// unset Handle variable and what Deserialize returns alongside an error.
func (h Handle) IsZero() bool {
	return h.n == nil
}

// Kind reports which node variant h is.
func (h Handle) Kind() Kind {
	return h.n.Kind
}

// Op reports the operator of a Unary or Binary node. It panics on any
// other Kind; callers should check Kind first.
func (h Handle) Op() Op {
	if h.n.Kind != store.UnaryOp && h.n.Kind != store.BinaryOp {
		panic("exprgraph: Op called on a node that is neither Unary nor Binary")
	}
	return h.n.Op
}

// Children returns fresh, independently owned handles to h's operands, in
// left-to-right order (lhs before rhs for Binary; body, x, y, z for
// Remap). The returned slice is empty for leaves.
func (h Handle) Children() []Handle {
	if len(h.n.Children) == 0 {
		return nil
	}
	out := make([]Handle, len(h.n.Children))
	for i, c := range h.n.Children {
		out[i] = Handle{store.Clone(c)}
	}
	return out
}

// RefCount returns h's current reference count: live handles plus one for
// the hash-cons table's own entry while that entry exists. It exists for
// tests and debugging.
func (h Handle) RefCount() int64 {
	return h.n.RefCount()
}

// Flags returns the HasXYZ/HasRemap/HasOracle summary bitset.
func (h Handle) Flags() uint8 {
	return h.n.Flags
}

const (
	HasXYZ    = store.HasXYZ
	HasRemap  = store.HasRemap
	HasOracle = store.HasOracle
)
