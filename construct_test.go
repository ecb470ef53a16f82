package exprgraph

import (
	"testing"

	"exprgraph/internal/opcode"
)

func TestAxisSingletonIdentity(t *testing.T) {
	a := X()
	b := X()
	if a != b {
		t.Fatal("X() must return the same handle identity each call")
	}
	if x, y := X(), Y(); x == y {
		t.Fatal("X() and Y() must be distinct")
	}
	a.Release()
	b.Release()
}

func TestVarNeverEqual(t *testing.T) {
	a, b := Var(), Var()
	if a == b {
		t.Fatal("two Var() calls must be distinct")
	}
	a.Release()
	b.Release()
}

func TestIdentityFolds(t *testing.T) {
	x := X()
	defer x.Release()

	buildWithConstant := func(op opcode.Op, lhsIsX bool, v float32) func() Handle {
		return func() Handle {
			c := Constant(v)
			var r Handle
			if lhsIsX {
				r = Binary(op, x, c)
			} else {
				r = Binary(op, c, x)
			}
			c.Release()
			return r
		}
	}

	tests := []struct {
		name  string
		build func() Handle
		want  Handle
	}{
		{"x+0=x", buildWithConstant(opcode.ADD, true, 0), x},
		{"0+x=x", buildWithConstant(opcode.ADD, false, 0), x},
		{"x*1=x", buildWithConstant(opcode.MUL, true, 1), x},
		{"1*x=x", buildWithConstant(opcode.MUL, false, 1), x},
		{"pow(x,1)=x", buildWithConstant(opcode.POW, true, 1), x},
		{"min(x,x)=x", func() Handle { return Binary(MIN, x, x) }, x},
		{"max(x,x)=x", func() Handle { return Binary(MAX, x, x) }, x},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build()
			if got != tt.want {
				t.Errorf("%s: got a different record than x", tt.name)
			}
			got.Release()
		})
	}
}

func TestMulByZeroIsPositiveZero(t *testing.T) {
	x := X()
	defer x.Release()
	zero := Constant(0)
	got := Binary(MUL, x, zero)
	zero.Release()
	defer got.Release()
	if !isConstant(got) || constVal(got) != 0 {
		t.Fatalf("x*0 did not fold to 0")
	}
}

func TestDoubleNegationFolds(t *testing.T) {
	x := X()
	defer x.Release()
	neg := Unary(NEG, x)
	negneg := Unary(NEG, neg)
	neg.Release()
	defer negneg.Release()
	if negneg != x {
		t.Fatal("-(-x) must fold back to x by handle identity")
	}
}

func TestAbsIdempotent(t *testing.T) {
	x := X()
	defer x.Release()
	a := Unary(ABS, x)
	aa := Unary(ABS, a)
	defer a.Release()
	defer aa.Release()
	if a != aa {
		t.Fatal("abs(abs(x)) must equal abs(x) by handle identity")
	}
}

func TestAddNegRhsBecomesSub(t *testing.T) {
	x, y := X(), Y()
	defer x.Release()
	defer y.Release()
	negY := Unary(NEG, y)
	viaAdd := Binary(ADD, x, negY)
	negY.Release()
	viaSub := Binary(SUB, x, y)
	defer viaAdd.Release()
	defer viaSub.Release()
	if viaAdd != viaSub {
		t.Fatal("x + (-y) must be the same record as x - y")
	}
}

func TestConstantFolding(t *testing.T) {
	two, three := Constant(2), Constant(3)
	sum := Binary(ADD, two, three)
	two.Release()
	three.Release()
	defer sum.Release()
	if !isConstant(sum) || constVal(sum) != 5 {
		t.Fatalf("2+3 did not fold to constant 5")
	}
}

func TestMulSelfFoldsToSquare(t *testing.T) {
	x := X()
	defer x.Release()
	sq := Binary(MUL, x, x)
	defer sq.Release()
	want := Unary(SQUARE, x)
	defer want.Release()
	if sq != want {
		t.Fatal("x*x must fold to square(x) by handle identity")
	}
}

func TestScenario1(t *testing.T) {
	one := Constant(1)
	t1 := Binary(ADD, X(), one)
	one.Release()
	defer t1.Release()

	if t1.Op() != ADD {
		t.Fatalf("op = %v, want ADD", t1.Op())
	}
	children := t1.Children()
	defer children[0].Release()
	defer children[1].Release()
	if children[0].Kind() != KindAxisX {
		t.Fatalf("lhs kind = %v, want KindAxisX", children[0].Kind())
	}
	if children[1].Kind() != KindConstant || constVal(children[1]) != 1 {
		t.Fatal("rhs must be Constant(1)")
	}
}
