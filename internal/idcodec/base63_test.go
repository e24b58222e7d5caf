package idcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBase63Zero(t *testing.T) {
	assert.Equal(t, "A", encodeBase63(0))
}

func TestEncodeBase63SingleDigits(t *testing.T) {
	tests := []struct {
		value    uint64
		expected string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "a"},
		{51, "z"},
		{52, "0"},
		{61, "9"},
		{62, "_"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, encodeBase63(tc.value))
		})
	}
}

func TestEncodeBase63MultiDigit(t *testing.T) {
	tests := []struct {
		value    uint64
		expected string
	}{
		{63, "BA"},
		{64, "BB"},
		{125, "B_"},
		{126, "CA"},
		{3969, "BAA"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, encodeBase63(tc.value))
		})
	}
}

func TestBase63RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 62, 63, 64, 100, 1000, 1000000,
		0xFFFFFFFF,
		0xFFFFFFFFFFFFFFFF,
	}
	for _, v := range values {
		encoded := encodeBase63(v)
		decoded, err := decodeBase63(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestDecodeBase63EmptyAndInvalid(t *testing.T) {
	_, err := decodeBase63("")
	assert.ErrorIs(t, err, ErrEmptyString)

	for _, s := range []string{"!", "@", "AB CD", "hello world"} {
		_, err := decodeBase63(s)
		assert.Error(t, err, "expected error decoding %q", s)
	}
}

func TestTaggedRoundTripRejectsWrongKind(t *testing.T) {
	fileStr := encodeTagged(kindFile, 42)
	symStr := encodeTagged(kindSymbol, 42)

	if fileStr == symStr {
		t.Fatalf("tags must disambiguate identical numeric payloads, got equal strings %q", fileStr)
	}

	_, err := decodeTagged(kindSymbol, fileStr)
	assert.ErrorIs(t, err, ErrWrongKind, "decoding a FileID string as a SymbolID must fail")

	_, err = decodeTagged(kindFile, symStr)
	assert.ErrorIs(t, err, ErrWrongKind, "decoding a SymbolID string as a FileID must fail")

	v, err := decodeTagged(kindFile, fileStr)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
}

func TestPackUnpackUint32Pair(t *testing.T) {
	tests := []struct {
		lower, upper uint32
	}{
		{0, 0},
		{1, 0},
		{0, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{12345, 67890},
	}
	for _, tc := range tests {
		packed := packUint32Pair(tc.lower, tc.upper)
		gotLower, gotUpper := unpackUint32Pair(packed)
		assert.Equal(t, tc.lower, gotLower)
		assert.Equal(t, tc.upper, gotUpper)
	}
}

func BenchmarkEncodeBase63(b *testing.B) {
	for i := 0; i < b.N; i++ {
		encodeBase63(uint64(i))
	}
}

func BenchmarkDecodeBase63(b *testing.B) {
	encoded := encodeBase63(12345678)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = decodeBase63(encoded)
	}
}
