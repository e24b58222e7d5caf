package lspproto

import "testing"

func TestFileURIRoundTripPosix(t *testing.T) {
	path := "/home/user/proj/main.cpp"
	uri := PathToFileURI(path)
	got, err := FileURIToPath(uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Fatalf("round trip mismatch: got %q want %q", got, path)
	}
}

func TestFileURIWindowsDriveLetter(t *testing.T) {
	path, err := FileURIToPath("file:///C:/Users/dev/main.cpp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "C:/Users/dev/main.cpp" {
		t.Fatalf("got %q", path)
	}
}

func TestFileURIPercentDecoding(t *testing.T) {
	path, err := FileURIToPath("file:///tmp/my%20file.cpp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/my file.cpp" {
		t.Fatalf("got %q", path)
	}
}

func TestFileURIRejectsNonFileScheme(t *testing.T) {
	if _, err := FileURIToPath("http://example.com/main.cpp"); err == nil {
		t.Fatal("expected an error for non-file scheme")
	}
}

func TestPathToFileURIEscapesSpaces(t *testing.T) {
	uri := PathToFileURI("/tmp/my file.cpp")
	if uri != "file:///tmp/my%20file.cpp" {
		t.Fatalf("got %q", uri)
	}
}
