// Package lspproto defines the Go-shaped request/response structs for the
// JSON-RPC methods this server consumes (§6) and the file:// URI handling
// rules, without implementing JSON-RPC framing itself — framing is an
// external collaborator per spec.md §1, wired minimally in cmd/lcserver.
package lspproto

import (
	"fmt"
	"strings"
)

// ErrInvalidURI is returned by FileURIToPath for any URI that is not a
// well-formed file:// URI. Per §7, the caller rejects the request with an
// RPC error and leaves server state unaffected.
var ErrInvalidURI = fmt.Errorf("lspproto: invalid URI")

const fileScheme = "file://"

// alwaysUnescaped mirrors §6's egress rule: every non-alphanumeric byte is
// percent-encoded except these four.
const alwaysUnescaped = "-_./"

// FileURIToPath converts a file:// URI to an OS path. Percent-decoding is
// applied on ingress. Windows-style URIs (file:///C:/...) yield a bare
// drive-letter path with forward slashes, per §6; POSIX URIs yield an
// absolute path.
func FileURIToPath(uri string) (string, error) {
	if !strings.HasPrefix(uri, fileScheme) {
		return "", fmt.Errorf("%w: %q: missing file:// scheme", ErrInvalidURI, uri)
	}
	rest := uri[len(fileScheme):]

	// file:///C:/foo -> rest == "/C:/foo"; strip the leading slash in front
	// of a drive letter so the result is a normal Windows path.
	if len(rest) >= 3 && rest[0] == '/' && isDriveLetter(rest[1]) && rest[2] == ':' {
		rest = rest[1:]
	}

	decoded, err := percentDecode(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURI, uri, err)
	}
	if decoded == "" {
		return "", fmt.Errorf("%w: %q: empty path", ErrInvalidURI, uri)
	}
	return decoded, nil
}

// PathToFileURI converts an OS path to a file:// URI, percent-encoding
// every non-alphanumeric byte except alwaysUnescaped, per §6.
func PathToFileURI(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if len(path) >= 2 && isDriveLetter(path[0]) && path[1] == ':' {
		path = "/" + path
	}
	var b strings.Builder
	b.WriteString(fileScheme)
	for i := 0; i < len(path); i++ {
		c := path[i]
		if isAlphaNumeric(c) || strings.IndexByte(alwaysUnescaped, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isAlphaNumeric(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func percentDecode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated percent-escape at offset %d", i)
		}
		hi, ok1 := hexVal(s[i+1])
		lo, ok2 := hexVal(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid percent-escape %q at offset %d", s[i:i+3], i)
		}
		b.WriteByte(byte(hi<<4 | lo))
		i += 2
	}
	return b.String(), nil
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}
