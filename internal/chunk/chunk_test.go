package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/sym"
)

func syms(vs ...uint32) []sym.Sym {
	out := make([]sym.Sym, len(vs))
	for i, v := range vs {
		out[i] = sym.Sym(v)
	}
	return out
}

func Test_New_rejectsNonPositiveChunkSize(t *testing.T) {
	assert := assert.New(t)

	_, err := New(FromSymbols(syms(1, 2)), 0)
	assert.Error(err)

	_, err = New(FromSymbols(syms(1, 2)), -1)
	assert.Error(err)
}

func Test_Chunker_emptyInput_yieldsNoConfigs(t *testing.T) {
	assert := assert.New(t)

	c, err := New(FromSymbols(nil), 4)
	require.NoError(t, err)

	_, ok := c.Next()
	assert.False(ok)
}

func Test_Chunker_singleChunk_coversWholeInput(t *testing.T) {
	assert := assert.New(t)

	input := syms(1, 2, 1, 2)
	c, err := New(FromSymbols(input), 10)
	require.NoError(t, err)

	cfg, ok := c.Next()
	require.True(t, ok)

	assert.Equal(sym.Border, cfg.Seed.Sym)
	assert.Equal(sym.Undef, cfg.Seed.Prec)
	assert.Equal(1, cfg.Head)
	assert.Equal(len(cfg.Alpha)-1, cfg.End)

	expectAlpha := append([]sym.Sym{sym.Border}, input...)
	expectAlpha = append(expectAlpha, sym.Border)
	assert.Equal(expectAlpha, cfg.Alpha)

	_, ok = c.Next()
	assert.False(ok, "a fully-drained source must yield exactly one config")
}

func Test_Chunker_multipleChunks_overlapByOneSymbol(t *testing.T) {
	assert := assert.New(t)

	// 5 symbols, chunk size 2: chunks of [1,2], [3,4], [5].
	input := syms(1, 2, 3, 4, 5)
	c, err := New(FromSymbols(input), 2)
	require.NoError(t, err)

	cfg1, ok := c.Next()
	require.True(t, ok)
	assert.Equal(syms(0, 1, 2, 3), cfg1.Alpha)
	assert.Equal(sym.Border, cfg1.Seed.Sym)

	cfg2, ok := c.Next()
	require.True(t, ok)
	// lookbehind is the last symbol of the previous chunk (2); lookahead is
	// the first symbol of the chunk after this one (5).
	assert.Equal(syms(2, 3, 4, 5), cfg2.Alpha)
	assert.Equal(sym.Sym(2), cfg2.Seed.Sym)

	cfg3, ok := c.Next()
	require.True(t, ok)
	// final chunk: lookbehind is 4, only one real symbol (5) remains, and
	// the lookahead is the border sentinel since the source is exhausted.
	assert.Equal(syms(4, 5, 0), cfg3.Alpha)
	assert.Equal(sym.Sym(4), cfg3.Seed.Sym)
	assert.Equal(sym.Border, cfg3.Alpha[cfg3.End])

	_, ok = c.Next()
	assert.False(ok)
}

func Test_Chunker_exactMultiple_lastChunkHasBorderLookahead(t *testing.T) {
	assert := assert.New(t)

	// 4 symbols, chunk size 2: chunks [1,2], [3,4] — the second chunk's
	// peek finds the source exhausted and falls back to the border.
	input := syms(1, 2, 3, 4)
	c, err := New(FromSymbols(input), 2)
	require.NoError(t, err)

	_, ok := c.Next()
	require.True(t, ok)

	cfg2, ok := c.Next()
	require.True(t, ok)
	assert.Equal(sym.Border, cfg2.Alpha[cfg2.End])

	_, ok = c.Next()
	assert.False(ok)
}
