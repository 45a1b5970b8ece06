package objmodel

import (
	"math"
	"testing"
)

func TestFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{0, -0.0, 1.5, -1.5, math.Inf(1), math.Inf(-1), 3.14159265} {
		v := FromFloat(f)
		if !v.IsFloat() {
			t.Fatalf("FromFloat(%v) not IsFloat", f)
		}
		if got := v.Float(); got != f && !(math.IsNaN(got) && math.IsNaN(f)) {
			t.Fatalf("FromFloat(%v).Float() = %v", f, got)
		}
	}
}

func TestNaNCanonicalization(t *testing.T) {
	a := FromFloat(math.NaN())
	b := FromFloat(math.Float64frombits(0x7FF8000000000001))
	if a != b {
		t.Fatalf("expected all NaN payloads to canonicalize to the same Value, got %x vs %x", a, b)
	}
	if !a.IsFloat() {
		t.Fatalf("canonical NaN should still report IsFloat")
	}
}

func TestSmallIntRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, SmallIntMin, SmallIntMax, 1000, -1000} {
		if !InSmallIntRange(n) {
			t.Fatalf("expected %d in small int range", n)
		}
		v := FromSmallInt(n)
		if !v.IsSmallInt() {
			t.Fatalf("FromSmallInt(%d) not IsSmallInt", n)
		}
		if got := v.SmallInt(); got != n {
			t.Fatalf("FromSmallInt(%d).SmallInt() = %d", n, got)
		}
	}
}

func TestSmallIntRangeBoundary(t *testing.T) {
	if InSmallIntRange(SmallIntMax + 1) {
		t.Fatalf("expected SmallIntMax+1 to overflow the fast form")
	}
	if InSmallIntRange(SmallIntMin - 1) {
		t.Fatalf("expected SmallIntMin-1 to overflow the fast form")
	}
}

func TestSingletons(t *testing.T) {
	if !Null.IsNull() {
		t.Fatalf("Null.IsNull() = false")
	}
	if Null.IsBool() {
		t.Fatalf("Null.IsBool() = true")
	}
	if !True.IsBool() || !True.Bool() {
		t.Fatalf("True singleton broken")
	}
	if !False.IsBool() || False.Bool() {
		t.Fatalf("False singleton broken")
	}
	if FromBool(true) != True || FromBool(false) != False {
		t.Fatalf("FromBool not returning canonical singletons")
	}
}

func TestHeapAndHandleRefs(t *testing.T) {
	v := FromHeapRef(42)
	if !v.IsHeapRef() || v.HeapIndex() != 42 {
		t.Fatalf("heap ref round trip failed: %+v", v)
	}
	h := FromHandleRef(0xDEADBEEF)
	if !h.IsHandleRef() || h.HandleID() != 0xDEADBEEF {
		t.Fatalf("handle ref round trip failed: %+v", h)
	}
	if v.IsFloat() || v.IsSmallInt() || v.IsNull() || v.IsBool() || v.IsHandleRef() {
		t.Fatalf("heap ref misclassified: %s", v.TypeName())
	}
}

func TestTypeNameDiscriminatesAllKinds(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{FromFloat(1.0), "Float"},
		{FromSmallInt(7), "Int"},
		{Null, "Null"},
		{True, "Bool"},
		{FromHeapRef(0), "<heap>"},
		{FromHandleRef(0), "<handle>"},
	}
	for _, c := range cases {
		if got := c.v.TypeName(); got != c.want {
			t.Fatalf("TypeName() = %q, want %q", got, c.want)
		}
	}
}
