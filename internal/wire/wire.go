// Package wire implements the fixed-width binary layouts used to move
// symbols, precedence matrices, and rule tables across a process boundary —
// a grammar file loaded once and served out of internal/store, or a batch
// of results returned from a remote dispatch. Every layout here is a flat
// sequence of little-endian uint32s with no framing beyond a leading count,
// so the same bytes could be mapped straight into a GPU-resident buffer.
// rezi is deliberately not used at this layer: its variable-length encoding
// is the right tool for internal/store's larger, evolving records, but the
// wrong one for a bit-exact fixed-width buffer.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/dekarrin/opgparse/internal/sym"
)

// EncodeSym encodes a single symbol as 4 little-endian bytes.
func EncodeSym(s sym.Sym) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(s))
	return b
}

// DecodeSym decodes the layout EncodeSym produces.
func DecodeSym(b []byte) (sym.Sym, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("wire: Sym record must be 4 bytes, got %d", len(b))
	}
	return sym.Sym(binary.LittleEndian.Uint32(b)), nil
}

// EncodeMatrix encodes a flat row-major precedence matrix (as produced by
// grammar.OPGrammar.EncodeOpMatrix) as a leading uint32 length followed by
// that many little-endian uint32 cells.
func EncodeMatrix(raw []uint32) []byte {
	b := make([]byte, 4+4*len(raw))
	binary.LittleEndian.PutUint32(b[0:4], uint32(len(raw)))
	for i, v := range raw {
		off := 4 + 4*i
		binary.LittleEndian.PutUint32(b[off:off+4], v)
	}
	return b
}

// DecodeMatrix decodes the layout EncodeMatrix produces, returning the flat
// matrix and the number of bytes consumed.
func DecodeMatrix(b []byte) ([]uint32, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("wire: matrix record truncated before length header")
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	need := 4 + 4*int(n)
	if len(b) < need {
		return nil, 0, fmt.Errorf("wire: matrix record truncated: need %d bytes, have %d", need, len(b))
	}
	raw := make([]uint32, n)
	for i := range raw {
		off := 4 + 4*i
		raw[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}
	return raw, need, nil
}

// EncodeRules encodes a flat rule table (as produced by
// grammar.OPGrammar.EncodeRules) the same way EncodeMatrix does: a leading
// uint32 length, then that many little-endian uint32 words. The rule
// table's own internal [rule_count, (lhs, rhs_len, rhs...)*] structure is
// opaque to this layer — wire only moves the flat word stream intact.
func EncodeRules(raw []uint32) []byte {
	return EncodeMatrix(raw)
}

// DecodeRules decodes the layout EncodeRules produces.
func DecodeRules(b []byte) ([]uint32, int, error) {
	return DecodeMatrix(b)
}
