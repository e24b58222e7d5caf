package compiledb

import "testing"

func TestUpdateAndLookup(t *testing.T) {
	db := New()
	ev, err := db.Update("/proj/main.cpp", "/proj", []string{"clang++", "-std=c++20", "-Iinclude", "main.cpp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Changed {
		t.Fatalf("first update should report a change")
	}

	dir, args, ok := db.Lookup("/proj/main.cpp", LookupOptions{})
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if dir != "/proj" {
		t.Fatalf("got directory %q", dir)
	}
	if args[len(args)-1] != "/proj/main.cpp" {
		t.Fatalf("expected file path appended at the end, got %v", args)
	}
}

func TestUpdateReportsNoChangeWhenIdentical(t *testing.T) {
	db := New()
	args := []string{"clang++", "-std=c++20", "main.cpp"}
	if _, err := db.Update("/proj/main.cpp", "/proj", args); err != nil {
		t.Fatal(err)
	}
	ev, err := db.Update("/proj/main.cpp", "/proj", args)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Changed {
		t.Fatalf("identical update should not report a change")
	}
}

func TestUpdateFromCommandString(t *testing.T) {
	db := New()
	_, err := db.Update("/proj/a.cpp", "/proj", `clang++ -std=c++20 "-I/usr/local/include" a.cpp`)
	if err != nil {
		t.Fatal(err)
	}
	_, args, ok := db.Lookup("/proj/a.cpp", LookupOptions{})
	if !ok {
		t.Fatal("expected entry")
	}
	found := false
	for _, a := range args {
		if a == "/usr/local/include" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected quoted include path preserved as one token, got %v", args)
	}
}

func TestLoadJSONSkipsMalformedEntries(t *testing.T) {
	db := New()
	data := []byte(`[
		{"directory": "/proj", "file": "a.cpp", "arguments": ["clang++", "a.cpp"]},
		{"directory": "/proj", "file": "b.cpp", "command": "clang++ b.cpp"},
		"not an object",
		{"file": "missing-directory.cpp", "command": "clang++ c.cpp"},
		{"directory": "/proj", "command": "clang++ d.cpp"}
	]`)
	events, err := db.LoadJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected exactly 2 valid entries processed, got %d", len(events))
	}
}

func TestLoadJSONArgumentsWinsOverCommand(t *testing.T) {
	db := New()
	data := []byte(`[{"directory": "/proj", "file": "a.cpp", "command": "clang++ -DFROM_COMMAND a.cpp", "arguments": ["clang++", "-DFROM_ARGS", "a.cpp"]}]`)
	if _, err := db.LoadJSON(data); err != nil {
		t.Fatal(err)
	}
	_, args, _ := db.Lookup("a.cpp", LookupOptions{})
	for _, a := range args {
		if a == "-DFROM_COMMAND" {
			t.Fatalf("command should be ignored when arguments is present")
		}
	}
}

func TestLookupAppliesPerLookupOptionsWithoutPersisting(t *testing.T) {
	db := New()
	if _, err := db.Update("a.cpp", "/proj", []string{"clang++", "a.cpp"}); err != nil {
		t.Fatal(err)
	}
	_, args1, _ := db.Lookup("a.cpp", LookupOptions{ResourceDir: "/usr/lib/clang/18"})
	_, args2, _ := db.Lookup("a.cpp", LookupOptions{})

	found := false
	for _, a := range args1 {
		if a == "-resource-dir=/usr/lib/clang/18" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected resource-dir augmentation in first lookup")
	}
	for _, a := range args2 {
		if a == "-resource-dir=/usr/lib/clang/18" {
			t.Fatalf("resource-dir augmentation must not persist to later lookups")
		}
	}
}

func TestModuleNameMap(t *testing.T) {
	db := New()
	db.RegisterModule("mymod", "/proj/mymod.cppm")
	path, ok := db.ModuleFile("mymod")
	if !ok || path != "/proj/mymod.cppm" {
		t.Fatalf("got %q, %v", path, ok)
	}
	if _, ok := db.ModuleFile("unknown"); ok {
		t.Fatalf("expected unknown module to be absent")
	}
}
