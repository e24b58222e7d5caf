package frontend

import "testing"

func TestBuildParsesSimpleTranslationUnit(t *testing.T) {
	b := NewBuilder(nil)
	src := []byte("int add(int a, int b) {\n  return a + b;\n}\n")

	u, err := b.Build(Request{
		Kind:     KindIndexing,
		MainPath: "main.cpp",
		Remapped: map[string][]byte{"main.cpp": src},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer u.Close()

	if u.MainFile() == 0 {
		t.Fatal("expected a non-zero main FileID")
	}
	content, ok := u.Content(u.MainFile())
	if !ok || string(content) != string(src) {
		t.Fatalf("content mismatch: ok=%v got=%q", ok, content)
	}
	if u.Root(u.MainFile()) == nil {
		t.Fatal("expected a non-nil root node")
	}
	tokens := u.SpelledTokens(u.MainFile())
	if len(tokens) == 0 {
		t.Fatal("expected at least one spelled token")
	}
}

func TestBuildRespectsStopFlag(t *testing.T) {
	b := NewBuilder(nil)
	stop := &StopFlag{}
	stop.Set()

	_, err := b.Build(Request{
		Kind:     KindIndexing,
		MainPath: "main.cpp",
		Remapped: map[string][]byte{"main.cpp": []byte("int x;\n")},
		StopFlag: stop,
	})
	if err == nil {
		t.Fatal("expected an error when StopFlag is set before parsing starts")
	}
}
