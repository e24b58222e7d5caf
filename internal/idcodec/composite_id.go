package idcodec

import (
	"github.com/standardbeagle/lcserver/internal/types"
)

// EncodeComposite packs a FileID and a symbol's position within that file's
// finalized symbolindex.FileIndex.Symbols slice (its "local symbol index")
// into one tagged base-63 string.
//
// This is shorter than EncodeSymbolID for the common case of pointing at a
// symbol the caller already knows the file of: a local symbol index is a
// small dense integer (position in a sorted per-file slice, spec §4.10),
// not a 64-bit hash. It is packed into the high 32 bits, so for a local
// index below 14 the composite string is at most 7 characters (tag
// included), where a SymbolID rendering is usually 12.
func EncodeComposite(fileID types.FileID, localSymbolIndex uint32) string {
	return encodeTagged(kindComposite, packUint32Pair(uint32(fileID), localSymbolIndex))
}

// DecodeComposite parses a string produced by EncodeComposite back into its
// FileID and local symbol index, rejecting strings tagged for a different
// ID kind.
func DecodeComposite(encoded string) (types.FileID, uint32, error) {
	combined, err := decodeTagged(kindComposite, encoded)
	if err != nil {
		return 0, 0, err
	}
	lower, upper := unpackUint32Pair(combined)
	return types.FileID(lower), upper, nil
}
