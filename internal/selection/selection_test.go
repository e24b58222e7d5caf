package selection

import (
	"testing"

	"github.com/standardbeagle/lcserver/internal/frontend"
)

func TestTreeMarksFullySelectedFunctionComplete(t *testing.T) {
	b := frontend.NewBuilder(nil)
	src := []byte("int add(int a, int b) { return a + b; }\n")
	u, err := b.Build(frontend.Request{
		Kind:     frontend.KindIndexing,
		MainPath: "main.cpp",
		Remapped: map[string][]byte{"main.cpp": src},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer u.Close()

	tree := Tree(u, u.MainFile(), 0, uint32(len(src)))
	if tree == nil {
		t.Fatal("expected a non-nil selection tree")
	}
	if tree.Kind != Complete {
		t.Fatalf("expected root to be Complete when the whole file is selected, got %v", tree.Kind)
	}
}

func TestTreePartialSelectionInsideBody(t *testing.T) {
	b := frontend.NewBuilder(nil)
	src := []byte("int add(int a, int b) { return a + b; }\n")
	u, err := b.Build(frontend.Request{
		Kind:     frontend.KindIndexing,
		MainPath: "main.cpp",
		Remapped: map[string][]byte{"main.cpp": src},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer u.Close()

	// Select just "return a" in the middle of the function body.
	begin := uint32(24)
	end := begin + uint32(len("return a"))
	tree := Tree(u, u.MainFile(), begin, end)
	if tree == nil {
		t.Fatal("expected a non-nil selection tree")
	}
	if tree.Kind == Complete {
		t.Fatalf("expected the root to not be Complete for a partial selection")
	}
}

func TestPointSelectionPrefersRightNeighbor(t *testing.T) {
	b := frontend.NewBuilder(nil)
	src := []byte("int x;\n")
	u, err := b.Build(frontend.Request{
		Kind:     frontend.KindIndexing,
		MainPath: "main.cpp",
		Remapped: map[string][]byte{"main.cpp": src},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer u.Close()

	node := Tree(u, u.MainFile(), 3, 3) // between "int" and "x"
	if node == nil {
		t.Fatal("expected a point-selection node")
	}
	if got := string(src[node.Range.Begin:node.Range.End]); got != "x" {
		t.Fatalf("expected the right-hand neighbor \"x\", got %q", got)
	}
}
