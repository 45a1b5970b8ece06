package types

import "testing"

func TestUnionCanonicalization(t *testing.T) {
	u1 := Union(Int, Str, Int)
	u2 := Union(Str, Int)
	if u1.String() != u2.String() {
		t.Fatalf("expected canonicalized unions to be equal: %s vs %s", u1, u2)
	}
}

func TestUnionSingleMemberCollapses(t *testing.T) {
	u := Union(Int, Int)
	if u.Tag != TagInt {
		t.Fatalf("expected single-member union to collapse to Int, got %s", u)
	}
}

func TestUnionWithDynamicCollapses(t *testing.T) {
	u := Union(Int, Dynamic, Str)
	if u.Tag != TagDynamic {
		t.Fatalf("expected union containing Dynamic to collapse to Dynamic, got %s", u)
	}
}

func TestJoinWidensMismatchedScalars(t *testing.T) {
	j := Join(Int, Str)
	if j.Tag != TagUnion {
		t.Fatalf("expected join of unrelated scalars to produce a union, got %s", j)
	}
}

func TestJoinMappingDissolvesShapeOnDisagreement(t *testing.T) {
	shaped := Mapping(Str, Dynamic, &Shape{Fields: []Field{{Key: "x", Value: Int, Presence: Always}}})
	unshaped := Mapping(Str, Int, nil)
	j := Join(shaped, unshaped)
	if j.Shape != nil {
		t.Fatalf("expected joining a shaped and unshaped mapping to dissolve the shape")
	}
}

func TestShapeSubtyping(t *testing.T) {
	wide := Mapping(Str, Dynamic, &Shape{Fields: []Field{
		{Key: "x", Value: Int, Presence: Always},
		{Key: "y", Value: Int, Presence: Always},
	}})
	narrow := Mapping(Str, Dynamic, &Shape{Fields: []Field{
		{Key: "x", Value: Int, Presence: Always},
	}})
	if IsSubtype(narrow, wide) {
		t.Fatalf("a mapping missing a required key should not be a subtype")
	}
	if !IsSubtype(wide, narrow) {
		// wide carries every field narrow requires; the check is keyed off
		// super's required fields only.
		t.Fatalf("a mapping with a superset of the required keys should be a subtype")
	}
}

func TestUnifyMismatch(t *testing.T) {
	err := Unify(Int, Str)
	if err == nil {
		t.Fatalf("expected unify mismatch error")
	}
	var uerr *UnifyError
	if !asUnifyError(err, &uerr) {
		t.Fatalf("expected *UnifyError, got %T", err)
	}
}

func asUnifyError(err error, out **UnifyError) bool {
	if e, ok := err.(*UnifyError); ok {
		*out = e
		return true
	}
	return false
}

func TestParseRoundTrip(t *testing.T) {
	cases := []*Type{Int, Float, Bool, Null, Bytes, Str, Dynamic, Class("Point")}
	for _, c := range cases {
		got, err := Parse(c.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", c, err)
		}
		if !got.Equal(c) {
			t.Fatalf("round trip mismatch: %s != %s", got, c)
		}
	}
}
