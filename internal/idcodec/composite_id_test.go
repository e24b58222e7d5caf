package idcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcserver/internal/types"
)

func TestEncodeDecodeCompositeRoundTrip(t *testing.T) {
	tests := []struct {
		fileID           types.FileID
		localSymbolIndex uint32
	}{
		{0, 0},
		{1, 0},
		{1, 7},
		{0xFFFFFFFF, 0xFFFFFFFF},
	}
	for _, tc := range tests {
		encoded := EncodeComposite(tc.fileID, tc.localSymbolIndex)
		fileID, localIdx, err := DecodeComposite(encoded)
		require.NoError(t, err)
		assert.Equal(t, tc.fileID, fileID)
		assert.Equal(t, tc.localSymbolIndex, localIdx)
	}
}

func TestEncodeCompositeShorterThanSymbolID(t *testing.T) {
	// The whole point of the composite form: a small (file, local index)
	// pair renders much shorter than a 64-bit SymbolID hash.
	composite := EncodeComposite(1, 3)
	full := EncodeSymbolID(types.SymbolID(0xDEADBEEFCAFEBABE))
	if len(composite) >= len(full) {
		t.Fatalf("composite rendering %q (%d chars) should be shorter than a full SymbolID rendering %q (%d chars)",
			composite, len(composite), full, len(full))
	}
}

func TestDecodeCompositeRejectsWrongKind(t *testing.T) {
	symStr := EncodeSymbolID(types.SymbolID(99))
	_, _, err := DecodeComposite(symStr)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestDecodeCompositeEmpty(t *testing.T) {
	_, _, err := DecodeComposite("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
