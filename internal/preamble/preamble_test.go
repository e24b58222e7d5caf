package preamble

import "testing"

func TestComputeBoundDirectivesOnly(t *testing.T) {
	content := []byte("#include <vector>\n#define FOO 1\n\nint main() {}\n")
	bound := ComputeBound(content)
	prefix := content[:bound]
	// Prefix should end right after the last directive line; the blank line
	// that follows it is not part of the bound.
	want := "#include <vector>\n#define FOO 1\n"
	if string(prefix) != want {
		t.Fatalf("got prefix %q, want %q", prefix, want)
	}
}

func TestComputeBoundInRange(t *testing.T) {
	samples := [][]byte{
		[]byte(""),
		[]byte("int x;\n"),
		[]byte("#include <a.h>\n#include <b.h>\nint x;\n"),
		[]byte("// leading comment\n#include <a.h>\nint x;\n"),
	}
	for _, content := range samples {
		bound := ComputeBound(content)
		if bound > uint32(len(content)) {
			t.Fatalf("bound %d exceeds content length %d", bound, len(content))
		}
	}
}

func TestComputeBoundStopsAtNonDirective(t *testing.T) {
	content := []byte("#include <a.h>\nint x = 1;\n#include <b.h>\n")
	bound := ComputeBound(content)
	want := uint32(len("#include <a.h>\n"))
	if bound != want {
		t.Fatalf("got %d, want %d (a later #include must not extend the bound)", bound, want)
	}
}

func TestComputeBoundsChain(t *testing.T) {
	content := []byte("#include <a.h>\n#define X 1\n#if X\n#endif\nint y;\n")
	bounds := ComputeBounds(content)
	if len(bounds) != 4 {
		t.Fatalf("expected 4 successive bounds, got %d: %v", len(bounds), bounds)
	}
	if bounds[len(bounds)-1] != ComputeBound(content) {
		t.Fatalf("last chained bound must equal ComputeBound")
	}
}

func TestComputeBoundEmptyContent(t *testing.T) {
	if ComputeBound(nil) != 0 {
		t.Fatalf("empty content must yield bound 0")
	}
}
