package exprgraph

import "testing"

func TestFlattenNoRemapIsHandleIdentity(t *testing.T) {
	x, y := X(), Y()
	defer x.Release()
	defer y.Release()
	sum := Binary(ADD, x, y)
	defer sum.Release()

	flat := Flatten(sum)
	defer flat.Release()
	if flat != sum {
		t.Fatal("Flatten(t) must return t by handle identity when HAS_REMAP is unset")
	}
}

func TestRemapIsLazy(t *testing.T) {
	x := X()
	defer x.Release()
	five := Constant(5)
	sum := Binary(ADD, x, five)
	five.Release()
	defer sum.Release()

	three := Constant(3)
	remapped := Remap(sum, three, x, x)
	three.Release()
	defer remapped.Release()
	if remapped.Kind() != KindRemap {
		t.Fatal("Remap must build a Remap wrapper, not traverse body")
	}
	if remapped.Flags()&HasRemap == 0 {
		t.Fatal("a Remap node must carry HAS_REMAP")
	}
}

// Scenario 2: (X()+5).Remap(3, X, X).Flatten() -> Constant(8).
func TestScenario2(t *testing.T) {
	x := X()
	five := Constant(5)
	sum := Binary(ADD, x, five)
	five.Release()

	three := Constant(3)
	remapped := Remap(sum, three, x, x)
	three.Release()
	sum.Release()

	flat := Flatten(remapped)
	remapped.Release()
	x.Release()
	defer flat.Release()

	if !isConstant(flat) || constVal(flat) != 8 {
		t.Fatalf("flattened value = %v, want Constant(8)", flat)
	}
}

// Scenario 3: a deep remap leaves the original handle untouched.
func TestScenario3DeepRemapPreservesOriginal(t *testing.T) {
	x, y, z := X(), Y(), Z()
	defer x.Release()
	defer y.Release()
	defer z.Release()

	acc := Constant(0)
	for i := 0; i < 32768; i++ {
		c := Constant(float32(i))
		term := Binary(MUL, y, c)
		c.Release()
		next := Binary(ADD, acc, term)
		term.Release()
		acc.Release()
		acc = next
	}
	tExpr := Binary(ADD, x, acc)
	acc.Release()
	defer tExpr.Release()

	sizeBefore := Size(tExpr)

	remapped := Remap(tExpr, z, x, y)
	flat := Flatten(remapped)
	remapped.Release()
	defer flat.Release()

	if Size(tExpr) != sizeBefore {
		t.Fatal("Remap/Flatten must not mutate the original graph")
	}
	if flat.Flags()&HasRemap != 0 {
		t.Fatal("Flatten's output must be remap-free")
	}
}

func TestNestedRemapComposesInnerFirst(t *testing.T) {
	x, y := X(), Y()
	defer x.Release()
	defer y.Release()

	inner := Remap(x, y, x, x) // inner: body=X, substitute X->Y, so flatten(inner)=Y
	two := Constant(2)
	outer := Remap(inner, x, two, x) // outer: body=inner (flattens to Y first), then substitute Y->2
	two.Release()
	inner.Release()

	flat := Flatten(outer)
	outer.Release()
	defer flat.Release()

	if !isConstant(flat) || constVal(flat) != 2 {
		t.Fatalf("nested remap result = %v, want Constant(2)", flat)
	}
}
