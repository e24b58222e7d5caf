package directive

import (
	"testing"

	"github.com/standardbeagle/lcserver/internal/types"
)

// TestRecordIfElseEndif is spec.md Scenario 4: of the two #include branches,
// only the live one produces an IncludeEntry, and the three conditionals
// carry the kinds/values the scenario names.
func TestRecordIfElseEndif(t *testing.T) {
	content := []byte("#if 0\n#include \"x.h\"\n#else\n#include \"y.h\"\n#endif\n")

	var resolvedAngled bool
	resolve := func(filename string, angled bool) (types.FileID, bool) {
		resolvedAngled = angled
		if filename == "y.h" {
			return types.FileID(2), false
		}
		return types.InvalidFileID, false
	}

	rec := Record(content, resolve)

	if len(rec.Conditions) != 3 {
		t.Fatalf("expected 3 conditions, got %d: %+v", len(rec.Conditions), rec.Conditions)
	}
	wantKinds := []types.ConditionKind{types.CondIf, types.CondElse, types.CondEndif}
	wantValues := []types.ConditionValue{types.CondFalse, types.CondTrue, types.CondNone}
	for i, c := range rec.Conditions {
		if c.Kind != wantKinds[i] {
			t.Errorf("condition %d: kind = %v, want %v", i, c.Kind, wantKinds[i])
		}
		if c.Value != wantValues[i] {
			t.Errorf("condition %d: value = %v, want %v", i, c.Value, wantValues[i])
		}
	}

	if len(rec.Includes) != 1 {
		t.Fatalf("expected exactly 1 include (the live branch only), got %d: %+v", len(rec.Includes), rec.Includes)
	}
	if rec.Includes[0].TargetFID != types.FileID(2) {
		t.Errorf("include target = %v, want y.h's FileID", rec.Includes[0].TargetFID)
	}
	if resolvedAngled {
		t.Errorf("y.h is a quoted include, resolver should have been called with angled=false")
	}
}

func TestRecordSkipsIncludeInDeadBranch(t *testing.T) {
	content := []byte("#ifdef NOT_DEFINED\n#include <never.h>\n#endif\n")
	calls := 0
	resolve := func(string, bool) (types.FileID, bool) {
		calls++
		return types.FileID(1), false
	}
	rec := Record(content, resolve)
	if len(rec.Includes) != 0 {
		t.Fatalf("dead branch must not produce an include entry, got %+v", rec.Includes)
	}
	if calls != 0 {
		t.Fatalf("resolver must not be called for a directive in a dead branch")
	}
}

func TestRecordIfdefIfndefLiveness(t *testing.T) {
	content := []byte("#define FOO\n#ifdef FOO\n#include \"a.h\"\n#endif\n#ifndef FOO\n#include \"b.h\"\n#endif\n")
	rec := Record(content, func(filename string, angled bool) (types.FileID, bool) {
		if filename == "a.h" {
			return types.FileID(1), false
		}
		return types.FileID(2), false
	})
	if len(rec.Includes) != 1 || rec.Includes[0].TargetFID != types.FileID(1) {
		t.Fatalf("expected only a.h's include entry, got %+v", rec.Includes)
	}
}

func TestRecordElifChainTakesFirstTrueOnly(t *testing.T) {
	content := []byte("#if 0\n#include \"a.h\"\n#elif 1\n#include \"b.h\"\n#elif 1\n#include \"c.h\"\n#endif\n")
	rec := Record(content, func(filename string, angled bool) (types.FileID, bool) {
		switch filename {
		case "b.h":
			return types.FileID(2), false
		case "c.h":
			return types.FileID(3), false
		}
		return types.InvalidFileID, false
	})
	if len(rec.Includes) != 1 || rec.Includes[0].TargetFID != types.FileID(2) {
		t.Fatalf("only the first true #elif branch should be live, got %+v", rec.Includes)
	}

	wantValues := []types.ConditionValue{types.CondFalse, types.CondTrue, types.CondSkipped, types.CondNone}
	if len(rec.Conditions) != len(wantValues) {
		t.Fatalf("expected %d conditions, got %d: %+v", len(wantValues), len(rec.Conditions), rec.Conditions)
	}
	for i, want := range wantValues {
		if rec.Conditions[i].Value != want {
			t.Errorf("condition %d: value = %v, want %v", i, rec.Conditions[i].Value, want)
		}
	}
}

func TestRecordHasIncludeDoesNotCountAsInclude(t *testing.T) {
	content := []byte("#if __has_include(\"opt.h\")\n#include \"opt.h\"\n#endif\n")
	rec := Record(content, func(filename string, angled bool) (types.FileID, bool) {
		if filename == "opt.h" {
			return types.FileID(5), false
		}
		return types.InvalidFileID, false
	})
	if len(rec.HasIncludes) != 1 {
		t.Fatalf("expected 1 __has_include entry, got %+v", rec.HasIncludes)
	}
	if rec.HasIncludes[0].TargetFID != types.FileID(5) {
		t.Errorf("has_include target = %v, want opt.h's FileID", rec.HasIncludes[0].TargetFID)
	}
	if len(rec.Includes) != 1 {
		t.Fatalf("the __has_include query itself must not add an Includes entry, only the real #include does: got %+v", rec.Includes)
	}
}

func TestRecordDefineUndefMacroEvents(t *testing.T) {
	content := []byte("#define FOO 1\nint x = FOO;\n#undef FOO\n")
	rec := Record(content, nil)
	if len(rec.Macros) != 3 {
		t.Fatalf("expected Def, Ref, Undef, got %d: %+v", len(rec.Macros), rec.Macros)
	}
	wantKinds := []types.MacroEventKind{types.MacroDef, types.MacroRef, types.MacroUndef}
	for i, want := range wantKinds {
		if rec.Macros[i].Kind != want {
			t.Errorf("macro event %d: kind = %v, want %v", i, rec.Macros[i].Kind, want)
		}
		if rec.Macros[i].MacroIdentity != "FOO" {
			t.Errorf("macro event %d: identity = %q, want FOO", i, rec.Macros[i].MacroIdentity)
		}
	}
}

func TestRecordPragmaRegionEndRegionOther(t *testing.T) {
	content := []byte("#pragma region Setup\n#pragma pack(1)\n#pragma endregion\n")
	rec := Record(content, nil)
	if len(rec.Pragmas) != 3 {
		t.Fatalf("expected 3 pragmas, got %d: %+v", len(rec.Pragmas), rec.Pragmas)
	}
	wantKinds := []types.PragmaKind{types.PragmaRegion, types.PragmaOther, types.PragmaEndRegion}
	for i, want := range wantKinds {
		if rec.Pragmas[i].Kind != want {
			t.Errorf("pragma %d: kind = %v, want %v", i, rec.Pragmas[i].Kind, want)
		}
	}
	if rec.Pragmas[0].Text != "Setup" {
		t.Errorf("region text = %q, want %q", rec.Pragmas[0].Text, "Setup")
	}
}

// TestRecordMismatchedEndRegion exercises the Open Question decision
// (spec.md §9): mismatched region/endregion pragmas are recorded as-is, no
// balancing is enforced.
func TestRecordMismatchedEndRegion(t *testing.T) {
	content := []byte("#pragma endregion\n#pragma region Orphan\n")
	rec := Record(content, nil)
	if len(rec.Pragmas) != 2 {
		t.Fatalf("expected both pragmas recorded despite mismatch, got %+v", rec.Pragmas)
	}
	if rec.Pragmas[0].Kind != types.PragmaEndRegion || rec.Pragmas[1].Kind != types.PragmaRegion {
		t.Fatalf("pragmas must be recorded in source order regardless of balance: %+v", rec.Pragmas)
	}
}

func TestRecordNilResolverLeavesInvalidFileID(t *testing.T) {
	content := []byte("#include <vector>\n")
	rec := Record(content, nil)
	if len(rec.Includes) != 1 {
		t.Fatalf("expected 1 include, got %+v", rec.Includes)
	}
	if rec.Includes[0].TargetFID != types.InvalidFileID {
		t.Errorf("with no resolver, target must be InvalidFileID, got %v", rec.Includes[0].TargetFID)
	}
}

func TestRecordOrderedByLocation(t *testing.T) {
	content := []byte("#include <a.h>\n#define A 1\n#include <b.h>\n")
	rec := Record(content, func(filename string, angled bool) (types.FileID, bool) {
		return types.FileID(1), false
	})
	if len(rec.Includes) != 2 {
		t.Fatalf("expected 2 includes, got %+v", rec.Includes)
	}
	if rec.Includes[0].Location >= rec.Includes[1].Location {
		t.Fatalf("includes must be ordered by source location: %+v", rec.Includes)
	}
	if rec.Macros[0].Location <= rec.Includes[0].Location || rec.Macros[0].Location >= rec.Includes[1].Location {
		t.Fatalf("the #define between the two includes must be located between them")
	}
}
