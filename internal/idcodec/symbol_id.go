package idcodec

import (
	"github.com/standardbeagle/lcserver/internal/types"
)

// EncodeSymbolID renders a SymbolID (a 64-bit hash of the symbol's
// scope-qualified name) as a tagged base-63
// string, used by cmd/lcserver's "index" subcommand in place of printing
// the raw uint64.
func EncodeSymbolID(id types.SymbolID) string {
	return encodeTagged(kindSymbol, uint64(id))
}

// DecodeSymbolID parses a string produced by EncodeSymbolID back into a
// SymbolID. It rejects strings tagged for a different ID kind (ErrWrongKind)
// as well as malformed base-63 payloads.
func DecodeSymbolID(encoded string) (types.SymbolID, error) {
	value, err := decodeTagged(kindSymbol, encoded)
	if err != nil {
		return 0, err
	}
	return types.SymbolID(value), nil
}

// MustDecodeSymbolID decodes a base-63 string to a SymbolID, panicking on
// error. Used only where the input is already known valid (round-tripping
// a value this package itself just encoded).
func MustDecodeSymbolID(encoded string) types.SymbolID {
	id, err := DecodeSymbolID(encoded)
	if err != nil {
		panic("idcodec: MustDecodeSymbolID: " + err.Error())
	}
	return id
}

// IsValidSymbolID reports whether encoded is a well-formed EncodeSymbolID
// output. cmd/lcserver's "index --symbol" filter uses this to distinguish a
// user-typed short ID from a plain decimal SymbolID before choosing which
// decode path to take.
func IsValidSymbolID(encoded string) bool {
	return isValidTagged(kindSymbol, encoded)
}

// EncodeFileID renders a FileID (opaque, front-end-assigned, one per
// distinct path within a translation unit) as a tagged base-63 string.
func EncodeFileID(id types.FileID) string {
	return encodeTagged(kindFile, uint64(id))
}

// DecodeFileID parses a string produced by EncodeFileID back into a FileID,
// rejecting both wrong-kind tags and values wider than FileID's 32 bits —
// SymbolID's 64-bit hash space means a SymbolID-tagged string could
// otherwise decode to a numeric value no real FileID could ever hold.
func DecodeFileID(encoded string) (types.FileID, error) {
	value, err := decodeTagged(kindFile, encoded)
	if err != nil {
		return 0, err
	}
	if value > uint64(^types.FileID(0)) {
		return 0, ErrOverflow
	}
	return types.FileID(value), nil
}
