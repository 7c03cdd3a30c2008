package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/sym"
)

func Test_Sym_roundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []sym.Sym{0, 1, 42, 1 << 20} {
		b := EncodeSym(s)
		assert.Len(b, 4)

		got, err := DecodeSym(b)
		require.NoError(t, err)
		assert.Equal(s, got)
	}
}

func Test_DecodeSym_rejectsWrongLength(t *testing.T) {
	_, err := DecodeSym([]byte{1, 2, 3})
	assert.Error(t, err)
}

func Test_Matrix_roundTrip(t *testing.T) {
	assert := assert.New(t)

	raw := []uint32{2, 1, 0, 3, 1, 2, 2, 3, 3}
	b := EncodeMatrix(raw)

	got, n, err := DecodeMatrix(b)
	require.NoError(t, err)
	assert.Equal(raw, got)
	assert.Equal(len(b), n)
}

func Test_Matrix_emptyRoundTrip(t *testing.T) {
	assert := assert.New(t)

	b := EncodeMatrix(nil)
	got, n, err := DecodeMatrix(b)
	require.NoError(t, err)
	assert.Empty(got)
	assert.Equal(4, n)
}

func Test_DecodeMatrix_rejectsTruncatedBuffer(t *testing.T) {
	raw := []uint32{1, 2, 3}
	b := EncodeMatrix(raw)

	_, _, err := DecodeMatrix(b[:len(b)-1])
	assert.Error(t, err)
}

func Test_Rules_roundTrip(t *testing.T) {
	assert := assert.New(t)

	raw := []uint32{1, 3, 2, 1, 2}
	b := EncodeRules(raw)

	got, n, err := DecodeRules(b)
	require.NoError(t, err)
	assert.Equal(raw, got)
	assert.Equal(len(b), n)
}
