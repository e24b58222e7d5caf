package pchcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/lcserver/internal/types"
)

func TestReusePCHAllConditionsHold(t *testing.T) {
	dir := t.TempDir()
	depFile := filepath.Join(dir, "dep.h")
	if err := os.WriteFile(depFile, []byte("int x;"), 0644); err != nil {
		t.Fatal(err)
	}
	depInfo, err := os.Stat(depFile)
	if err != nil {
		t.Fatal(err)
	}

	c := New(dir)
	content := []byte("#include \"dep.h\"\nint main() {}\n")
	info := BuildPCHInfo(filepath.Join(dir, "main.pch"), content, 17, []string{depFile}, []string{"-std=c++20"})
	info.Mtime = depInfo.ModTime().Add(time.Hour)
	c.StorePCH("main.cpp", info)

	got, ok := c.ReusePCH(ReuseQuery{
		Path:           "main.cpp",
		Content:        content,
		PreambleBound:  17,
		ArgumentVector: []string{"-std=c++20"},
	})
	if !ok {
		t.Fatal("expected reuse to succeed")
	}
	if got.OutputPath != info.OutputPath {
		t.Fatalf("got %q want %q", got.OutputPath, info.OutputPath)
	}
}

func TestReusePCHRejectsArgumentMismatch(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	content := []byte("int main() {}\n")
	info := BuildPCHInfo(filepath.Join(dir, "main.pch"), content, len(content), nil, []string{"-std=c++20"})
	c.StorePCH("main.cpp", info)

	_, ok := c.ReusePCH(ReuseQuery{
		Path:           "main.cpp",
		Content:        content,
		PreambleBound:  len(content),
		ArgumentVector: []string{"-std=c++17"},
	})
	if ok {
		t.Fatal("expected reuse to fail on argument mismatch")
	}
}

func TestReusePCHRejectsStaleDependency(t *testing.T) {
	dir := t.TempDir()
	depFile := filepath.Join(dir, "dep.h")
	if err := os.WriteFile(depFile, []byte("int x;"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(dir)
	content := []byte("int main() {}\n")
	info := BuildPCHInfo(filepath.Join(dir, "main.pch"), content, len(content), []string{depFile}, nil)
	info.Mtime = time.Now().Add(-time.Hour) // stored mtime predates dep's current mtime

	c.StorePCH("main.cpp", info)

	_, ok := c.ReusePCH(ReuseQuery{
		Path:           "main.cpp",
		Content:        content,
		PreambleBound:  len(content),
		ArgumentVector: nil,
	})
	if ok {
		t.Fatal("expected reuse to fail on stale dependency")
	}
}

func TestFlushAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	c.StorePCH("a.cpp", types.PCHInfo{OutputPath: "a.pch", ArgumentVector: []string{"-x"}})
	c.StorePCM("mymod", types.PCMInfo{Name: "mymod", SourcePath: "mymod.cppm"})

	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	c2 := New(dir)
	if err := c2.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	info, ok := c2.LookupPCH("a.cpp")
	if !ok || info.OutputPath != "a.pch" {
		t.Fatalf("got %+v ok=%v", info, ok)
	}
	pcm, ok := c2.LookupPCM("mymod")
	if !ok || pcm.SourcePath != "mymod.cppm" {
		t.Fatalf("got %+v ok=%v", pcm, ok)
	}
}
