package features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/posconv"
)

func buildTestUnit(t *testing.T) (*frontend.CompilationUnit, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "util.h"), []byte("int helper(int a, int b);\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(dir, "main.cpp")
	src := "#include \"util.h\"\n" +
		"auto x = 1;\n" +
		"int add(int a, int b) {\n" +
		"  return helper(a, b);\n" +
		"}\n"
	if err := os.WriteFile(mainPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	b := frontend.NewBuilder([]string{dir})
	u, err := b.Build(frontend.Request{Kind: frontend.KindIndexing, MainPath: mainPath})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(u.Close)
	return u, mainPath
}

func TestDocumentLinksReportsInclude(t *testing.T) {
	u, mainPath := buildTestUnit(t)
	fid, ok := u.FileIDFor(mainPath)
	if !ok {
		t.Fatal("missing main FileID")
	}
	links := DocumentLinks(u, fid, posconv.UTF16, false)
	if len(links) == 0 {
		t.Fatal("expected at least one document link for the #include")
	}
}

func TestSemanticTokensProducesData(t *testing.T) {
	u, mainPath := buildTestUnit(t)
	fid, _ := u.FileIDFor(mainPath)
	toks := SemanticTokens(u, fid, posconv.UTF16)
	if len(toks.Data) == 0 {
		t.Fatal("expected non-empty semantic tokens data")
	}
	if len(toks.Data)%5 != 0 {
		t.Fatalf("expected a multiple of 5 uint32s, got %d", len(toks.Data))
	}
}

func TestHoverClassifiesIdentifier(t *testing.T) {
	u, mainPath := buildTestUnit(t)
	fid, _ := u.FileIDFor(mainPath)
	content, _ := u.Content(fid)

	offset := indexOf(content, "add")
	hover, ok := Hover(u, fid, uint32(offset), posconv.UTF16)
	if !ok {
		t.Fatal("expected a hover result")
	}
	if hover.Contents == "" {
		t.Fatal("expected non-empty hover contents")
	}
}

func TestInlayHintsMarksAutoDecl(t *testing.T) {
	u, mainPath := buildTestUnit(t)
	fid, _ := u.FileIDFor(mainPath)
	hints := InlayHints(u, fid, posconv.UTF16)
	if len(hints) == 0 {
		t.Fatal("expected at least one inlay hint for the auto declaration or call arguments")
	}
}

func TestCompletionRanksExactPrefixHighest(t *testing.T) {
	result := Completion("hel", []Candidate{
		{Name: "helper"},
		{Name: "zzz_unrelated"},
	})
	if len(result.Items) == 0 {
		t.Fatal("expected at least one completion item")
	}
	if result.Items[0].Label != "helper" {
		t.Fatalf("expected helper to rank first, got %+v", result.Items)
	}
}

func TestCompletionStemMatchesSubwordVariant(t *testing.T) {
	// The fuzzy matcher rejects "connecting" against "connection_count" (the
	// candidate has no 'g'); the two split into words that share the Porter2
	// stem "connect", which adds stemBoost to the Jaro-Winkler near-miss score.
	result := Completion("connecting", []Candidate{
		{Name: "connection_count"},
		{Name: "zzz_unrelated"},
	})
	var found bool
	for _, item := range result.Items {
		if item.Label == "connection_count" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected connection_count to be included via stem overlap, got %+v", result.Items)
	}
}

func TestSharesStemSplitsCamelAndSnakeCase(t *testing.T) {
	if !sharesStem("getValue", "get_values") {
		t.Fatal("expected getValue and get_values to share the stem \"valu\"/\"get\"")
	}
	if sharesStem("xyz", "completely_unrelated") {
		t.Fatal("expected no stem overlap between unrelated short identifiers")
	}
}

func indexOf(content []byte, needle string) int {
	for i := 0; i+len(needle) <= len(content); i++ {
		if string(content[i:i+len(needle)]) == needle {
			return i
		}
	}
	return 0
}
