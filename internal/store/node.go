// Package store holds the node records the graph kernel is built from: the
// tagged node variant (C2's node storage) and the process-wide hash-cons
// table that deduplicates them (C3). Everything here is immutable once
// constructed; a *Node is shared by atomically reference-counted ownership
// rather than copied.
package store

import (
	"sync/atomic"

	"exprgraph/internal/clause"
	"exprgraph/internal/opcode"
)

// Kind tags which of the node variants a record is.
type Kind uint8

const (
	Constant Kind = iota
	AxisX
	AxisY
	AxisZ
	FreeVar
	UnaryOp
	BinaryOp
	RemapOp
	ConstVarOp
	OracleOp
)

// Flag bits summarise a subtree; see Node.Flags.
const (
	HasXYZ uint8 = 1 << iota
	HasRemap
	HasOracle
)

// Node is one immutable record in the expression DAG. A Handle is simply a
// *Node whose owner has agreed to call Clone before sharing it and Release
// when done with it; see handle.go.
type Node struct {
	Kind     Kind
	Op       opcode.Op     // meaningful for UnaryOp / BinaryOp
	Bits     uint32        // Constant's IEEE-754 bit pattern
	FreeID   uint64        // FreeVar's fresh identity
	Clause   clause.Clause // OracleOp's opaque payload
	Children []*Node       // owned child handles, arity depends on Kind
	Flags    uint8

	refcount atomic.Int64
}

// RefCount returns the node's current reference count: live handles plus
// one for the hash-cons table's own entry, while that entry exists.
func (n *Node) RefCount() int64 {
	return n.refcount.Load()
}

// ownFlags returns the flag contribution a node of this kind makes on top
// of the union of its children's flags.
func ownFlags(k Kind) uint8 {
	switch k {
	case AxisX, AxisY, AxisZ:
		return HasXYZ
	case RemapOp:
		return HasRemap
	case OracleOp:
		return HasOracle
	default:
		return 0
	}
}

func unionFlags(children []*Node) uint8 {
	var f uint8
	for _, c := range children {
		f |= c.Flags
	}
	return f
}

// Arity returns the number of owned children a node of this kind carries.
func (k Kind) Arity() int {
	switch k {
	case UnaryOp, ConstVarOp:
		return 1
	case BinaryOp:
		return 2
	case RemapOp:
		return 4
	default:
		return 0
	}
}
