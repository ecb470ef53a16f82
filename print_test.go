package exprgraph

import (
	"bytes"
	"testing"
)

func printString(t *testing.T, h Handle) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Print(h, &buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	return buf.String()
}

func TestPrintLeaves(t *testing.T) {
	x, y, z := X(), Y(), Z()
	defer x.Release()
	defer y.Release()
	defer z.Release()

	if got := printString(t, x); got != "x" {
		t.Errorf("Print(X()) = %q, want x", got)
	}
	if got := printString(t, y); got != "y" {
		t.Errorf("Print(Y()) = %q, want y", got)
	}
	if got := printString(t, z); got != "z" {
		t.Errorf("Print(Z()) = %q, want z", got)
	}

	c := Constant(1.5)
	defer c.Release()
	if got := printString(t, c); got != "1.5" {
		t.Errorf("Print(Constant(1.5)) = %q, want 1.5", got)
	}
}

func TestPrintVariadicCollapse(t *testing.T) {
	x, y, z := X(), Y(), Z()
	defer x.Release()
	defer y.Release()
	defer z.Release()

	xy := Binary(ADD, x, y)
	chain := Binary(ADD, xy, z)
	xy.Release()
	defer chain.Release()

	if got, want := printString(t, chain), "(+ x y z)"; got != want {
		t.Errorf("Print((x+y)+z) = %q, want %q", got, want)
	}
}

func TestPrintNonCommutativeStaysBinary(t *testing.T) {
	x, y := X(), Y()
	defer x.Release()
	defer y.Release()

	sub := Binary(SUB, x, y)
	defer sub.Release()
	if got, want := printString(t, sub), "(- x y)"; got != want {
		t.Errorf("Print(x-y) = %q, want %q", got, want)
	}
}

func TestPrintUnary(t *testing.T) {
	x := X()
	defer x.Release()
	n := Unary(SIN, x)
	defer n.Release()
	if got, want := printString(t, n), "(sin x)"; got != want {
		t.Errorf("Print(sin(x)) = %q, want %q", got, want)
	}
}
