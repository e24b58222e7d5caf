package argfilter

import "testing"

func TestFilterRemovesInputOutputAndCompileFlags(t *testing.T) {
	f := New()
	got := f.Filter("clang++", []string{"-c", "main.cpp", "-o", "main.o", "-Wall", "main.cpp"}, "main.cpp")
	want := []string{"clang++", "-Wall"}
	if !equalArgs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterPreservesSeparateStyleValue(t *testing.T) {
	f := New()
	got := f.Filter("clang++", []string{"-I", "/usr/include"}, "")
	want := []string{"clang++", "-I", "/usr/include"}
	if !equalArgs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterPreservesJoinedStyleValue(t *testing.T) {
	f := New()
	got := f.Filter("clang++", []string{"-Iinclude", "-DFOO=1"}, "")
	want := []string{"clang++", "-Iinclude", "-DFOO=1"}
	if !equalArgs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterRemovesPCHFlags(t *testing.T) {
	f := New()
	got := f.Filter("clang++", []string{"-emit-pch", "-include-pch", "pre.pch", "-std=c++20"}, "")
	want := []string{"clang++", "-std=c++20"}
	if !equalArgs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInternReusesBackingArrayForEqualVectors(t *testing.T) {
	f := New()
	a := f.Filter("clang++", []string{"-std=c++20"}, "")
	b := f.Filter("clang++", []string{"-std=c++20"}, "")
	if &a[0] != &b[0] {
		t.Fatalf("expected interned pointer equality for identical argument vectors")
	}
}

func TestInternDistinguishesDifferentVectors(t *testing.T) {
	f := New()
	a := f.Filter("clang++", []string{"-std=c++20"}, "")
	b := f.Filter("clang++", []string{"-std=c++17"}, "")
	if equalArgs(a, b) {
		t.Fatalf("different argument vectors must not compare equal")
	}
}

func TestFilterBestEffortOnUnknownTokens(t *testing.T) {
	f := New()
	got := f.Filter("clang++", []string{"--some-unknown-flag=weird"}, "")
	want := []string{"clang++", "--some-unknown-flag=weird"}
	if !equalArgs(got, want) {
		t.Fatalf("unknown tokens should pass through unchanged: got %v", got)
	}
}
