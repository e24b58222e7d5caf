package types

import "testing"

func TestLocalSourceRangeOrdering(t *testing.T) {
	a := LocalSourceRange{Begin: 1, End: 5}
	b := LocalSourceRange{Begin: 1, End: 9}
	c := LocalSourceRange{Begin: 2, End: 3}

	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %v < %v", b, c)
	}
	if a.Less(a) {
		t.Fatalf("range must not be less than itself")
	}
}

func TestLocalSourceRangeContains(t *testing.T) {
	r := LocalSourceRange{Begin: 10, End: 20}
	if !r.Contains(10) {
		t.Fatalf("begin offset should be contained (half-open)")
	}
	if r.Contains(20) {
		t.Fatalf("end offset must not be contained (half-open)")
	}
	if r.Contains(9) || r.Contains(21) {
		t.Fatalf("offsets outside the range must not be contained")
	}
}

func TestRelationKindString(t *testing.T) {
	if Caller.String() != "Caller" {
		t.Fatalf("got %q", Caller.String())
	}
	if RelationKind(200).String() != "Unknown" {
		t.Fatalf("expected Unknown for out-of-range kind")
	}
}

func TestRelationLess(t *testing.T) {
	r1 := Relation{Kind: Reference, Target: 1, Range: LocalSourceRange{Begin: 0, End: 1}}
	r2 := Relation{Kind: Reference, Target: 2, Range: LocalSourceRange{Begin: 0, End: 1}}
	r3 := Relation{Kind: Declaration, Target: 0, Range: LocalSourceRange{Begin: 0, End: 1}}

	if !r3.Less(r1) {
		t.Fatalf("lower RelationKind must sort first")
	}
	if !r1.Less(r2) {
		t.Fatalf("equal kind must fall back to Target ordering")
	}
}
