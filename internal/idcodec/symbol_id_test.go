package idcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcserver/internal/types"
)

func TestEncodeDecodeSymbolIDRoundTrip(t *testing.T) {
	ids := []types.SymbolID{0, 1, 62, 63, 1 << 40, 1<<63 + 7}
	for _, id := range ids {
		encoded := EncodeSymbolID(id)
		decoded, err := DecodeSymbolID(encoded)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeSymbolIDInvalid(t *testing.T) {
	_, err := DecodeSymbolID("not-base63!")
	assert.Error(t, err)
}

func TestDecodeSymbolIDRejectsFileIDString(t *testing.T) {
	fileStr := EncodeFileID(types.FileID(7))
	_, err := DecodeSymbolID(fileStr)
	assert.ErrorIs(t, err, ErrWrongKind, "a FileID-tagged string must never decode as a SymbolID")
}

func TestMustDecodeSymbolIDPanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustDecodeSymbolID to panic on invalid input")
		}
	}()
	MustDecodeSymbolID("not-base63!")
}

func TestIsValidSymbolID(t *testing.T) {
	assert.True(t, IsValidSymbolID(EncodeSymbolID(types.SymbolID(12345))))
	assert.False(t, IsValidSymbolID(EncodeFileID(types.FileID(1))), "a FileID string is not a valid SymbolID string")
	assert.False(t, IsValidSymbolID(""))
	assert.False(t, IsValidSymbolID("garbage!"))
}

func TestEncodeDecodeFileIDRoundTrip(t *testing.T) {
	ids := []types.FileID{types.InvalidFileID, 1, 62, 63, 0xFFFFFFFF}
	for _, id := range ids {
		encoded := EncodeFileID(id)
		decoded, err := DecodeFileID(encoded)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeFileIDOverflow(t *testing.T) {
	// A value well beyond uint32's range must still be rejected by
	// DecodeFileID as an overflow, independent of the tag check.
	encoded := encodeTagged(kindFile, uint64(1)<<40)
	_, err := DecodeFileID(encoded)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDecodeFileIDRejectsSymbolIDString(t *testing.T) {
	symStr := EncodeSymbolID(types.SymbolID(7))
	_, err := DecodeFileID(symStr)
	assert.ErrorIs(t, err, ErrWrongKind)
}
