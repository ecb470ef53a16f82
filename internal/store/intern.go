package store

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
	"weak"

	"exprgraph/internal/clause"
	"exprgraph/internal/opcode"
)

// Logger receives insert/evict diagnostics from the hash-cons table. It is
// silent by default; callers redirect it with SetLogOutput.
var Logger = log.New(io.Discard, "store: ", log.Lmicroseconds)

// SetLogOutput redirects the package logger, e.g. to os.Stderr for
// debugging a leak, or back to io.Discard to silence it again.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// key is the structural identity the hash-cons table dedupes on. Children
// are compared by pointer (handle identity), never recursively, so the
// array must be fixed-size to stay a comparable map key; Remap is the
// widest variant at four children.
type key struct {
	kind Kind
	op   opcode.Op
	bits uint32
	c    [4]*Node
}

func makeKey(kind Kind, op opcode.Op, bits uint32, children []*Node) key {
	var k key
	k.kind, k.op, k.bits = kind, op, bits
	copy(k.c[:], children)
	return k
}

var (
	mu    sync.Mutex
	table = make(map[key]weak.Pointer[Node])

	freeIDCounter atomic.Uint64
)

// axisPermanent reports whether kind is one of the three coordinate axes,
// whose hash-cons entry is never evicted: invariant 2 requires them to
// persist for the process lifetime regardless of live handle count.
func axisPermanent(kind Kind) bool {
	return kind == AxisX || kind == AxisY || kind == AxisZ
}

func interned(kind Kind) bool {
	return kind != FreeVar && kind != OracleOp
}

// intern finds or creates the unique record for (kind, op, bits, children).
// On a cache hit the supplied children are redundant (the existing record
// owns its own references to the same canonical child pointers) and are
// released; on a miss, ownership of children transfers into the new node.
func intern(kind Kind, op opcode.Op, bits uint32, children []*Node) *Node {
	k := makeKey(kind, op, bits, children)

	mu.Lock()
	if wp, ok := table[k]; ok {
		if n := wp.Value(); n != nil {
			n.refcount.Add(1)
			mu.Unlock()
			for _, c := range children {
				Release(c)
			}
			return n
		}
		delete(table, k)
	}
	n := &Node{
		Kind:     kind,
		Op:       op,
		Bits:     bits,
		Children: children,
		Flags:    ownFlags(kind) | unionFlags(children),
	}
	n.refcount.Store(2) // 1 for the handle returned below, 1 for this table entry
	table[k] = weak.Make(n)
	mu.Unlock()
	Logger.Printf("insert kind=%d op=%d size=%d", kind, op, len(table))
	return n
}

// Clone increments n's reference count and returns the same record, the
// handle equivalent of copying a counted pointer.
func Clone(n *Node) *Node {
	n.refcount.Add(1)
	return n
}

// Release drops one reference to n. When the last live handle to an
// interned node goes away its table entry is erased and its children are
// released in turn; non-interned nodes (FreeVar, Oracle) release their
// children directly once their own count hits zero. The walk is iterative
// so dropping a chain 32,768 deep cannot overflow the goroutine stack.
func Release(n *Node) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !interned(cur.Kind) {
			if cur.refcount.Add(-1) == 0 {
				stack = append(stack, cur.Children...)
			}
			continue
		}

		v := cur.refcount.Add(-1)
		if v != 1 || axisPermanent(cur.Kind) {
			continue
		}

		mu.Lock()
		if cur.refcount.Load() != 1 {
			// a concurrent intern() revived it between our decrement and
			// acquiring the lock; it is no longer ours to evict.
			mu.Unlock()
			continue
		}
		delete(table, keyOf(cur))
		mu.Unlock()
		Logger.Printf("evict kind=%d op=%d size=%d", cur.Kind, cur.Op, len(table))

		cur.refcount.Add(-1) // release the table's own held reference
		stack = append(stack, cur.Children...)
	}
}

func keyOf(n *Node) key {
	return makeKey(n.Kind, n.Op, n.Bits, n.Children)
}

// MakeConstant returns the interned constant for the given IEEE-754 bit
// pattern. Bit patterns, not numeric equality, decide identity so that
// +0/-0 and distinct NaN payloads are distinguishable.
func MakeConstant(bits uint32) *Node {
	return intern(Constant, 0, bits, nil)
}

// MakeAxis returns the interned singleton for one of AxisX, AxisY, AxisZ.
func MakeAxis(kind Kind) *Node {
	return intern(kind, 0, 0, nil)
}

// NewFreeVar returns a fresh, never-interned free variable distinguished
// by a process-wide atomic identity.
func NewFreeVar() *Node {
	n := &Node{Kind: FreeVar, FreeID: freeIDCounter.Add(1)}
	n.refcount.Store(1)
	return n
}

// NewOracle wraps an opaque clause in a fresh, never-interned leaf.
func NewOracle(c clause.Clause) *Node {
	n := &Node{Kind: OracleOp, Clause: c}
	n.refcount.Store(1)
	return n
}

// MakeUnary interns a unary node, taking ownership of child.
func MakeUnary(op opcode.Op, child *Node) *Node {
	return intern(UnaryOp, op, 0, []*Node{child})
}

// MakeBinary interns a binary node, taking ownership of lhs and rhs.
func MakeBinary(op opcode.Op, lhs, rhs *Node) *Node {
	return intern(BinaryOp, op, 0, []*Node{lhs, rhs})
}

// MakeRemap interns a deferred-substitution node, taking ownership of all
// four children. It never inspects body, which is what keeps remap O(1).
func MakeRemap(body, x, y, z *Node) *Node {
	return intern(RemapOp, 0, 0, []*Node{body, x, y, z})
}

// MakeConstVar interns an ApplyConstVars wrapper, taking ownership of body.
func MakeConstVar(body *Node) *Node {
	return intern(ConstVarOp, 0, 0, []*Node{body})
}
