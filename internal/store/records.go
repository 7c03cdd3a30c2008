package store

import (
	"encoding/binary"
	"fmt"

	"github.com/dekarrin/opgparse/internal/automaton"
	"github.com/dekarrin/opgparse/internal/wire"
)

// The types in this file implement encoding.BinaryMarshaler and
// BinaryUnmarshaler so the sqlite backend can round-trip them through rezi's
// binary codec into TEXT columns. Layouts build on the fixed little-endian
// records in internal/wire: every count and word is a little-endian uint32,
// and stack/error entries are the 8-byte records the workers themselves use.

// U32List is a flat word list ([]uint32) in its wire form: a leading count
// followed by that many little-endian words. Precedence matrices, rule
// tables, and encoded input strings all persist through it.
type U32List []uint32

func (l U32List) MarshalBinary() ([]byte, error) {
	return wire.EncodeMatrix(l), nil
}

func (l *U32List) UnmarshalBinary(b []byte) error {
	raw, n, err := wire.DecodeMatrix(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("store: word list record has %d trailing bytes", len(b)-n)
	}
	*l = raw
	return nil
}

// StringList is an alphabet ([]string) in storage form: a leading count,
// then for each entry a length word followed by that many raw bytes.
type StringList []string

func (l StringList) MarshalBinary() ([]byte, error) {
	size := 4
	for _, s := range l {
		size += 4 + len(s)
	}
	b := make([]byte, size)
	binary.LittleEndian.PutUint32(b[0:4], uint32(len(l)))
	off := 4
	for _, s := range l {
		binary.LittleEndian.PutUint32(b[off:off+4], uint32(len(s)))
		off += 4
		copy(b[off:], s)
		off += len(s)
	}
	return b, nil
}

func (l *StringList) UnmarshalBinary(b []byte) error {
	if len(b) < 4 {
		return fmt.Errorf("store: string list record truncated before count")
	}
	count := binary.LittleEndian.Uint32(b[0:4])
	off := 4
	out := make([]string, count)
	for i := range out {
		if len(b) < off+4 {
			return fmt.Errorf("store: string list record truncated before entry %d length", i)
		}
		n := int(binary.LittleEndian.Uint32(b[off : off+4]))
		off += 4
		if len(b) < off+n {
			return fmt.Errorf("store: string list record truncated inside entry %d", i)
		}
		out[i] = string(b[off : off+n])
		off += n
	}
	if off != len(b) {
		return fmt.Errorf("store: string list record has %d trailing bytes", len(b)-off)
	}
	*l = out
	return nil
}

// MarshalBinary lays a ResultSet out as a residual count followed by each
// residual in order: a stack length word, the stack's 8-byte entries, a
// TopGives word (two's-complement, so -1 survives), and the 8-byte error
// record.
func (rs ResultSet) MarshalBinary() ([]byte, error) {
	size := 4
	for _, r := range rs.Residuals {
		size += 4 + 8*len(r.Stack) + 4 + 8
	}
	b := make([]byte, 0, size)

	var word [4]byte
	putWord := func(v uint32) {
		binary.LittleEndian.PutUint32(word[:], v)
		b = append(b, word[:]...)
	}

	putWord(uint32(len(rs.Residuals)))
	for _, r := range rs.Residuals {
		putWord(uint32(len(r.Stack)))
		for _, entry := range r.Stack {
			rec, err := entry.MarshalBinary()
			if err != nil {
				return nil, err
			}
			b = append(b, rec...)
		}
		putWord(uint32(int32(r.TopGives)))
		rec, err := r.Err.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b = append(b, rec...)
	}
	return b, nil
}

// UnmarshalBinary decodes the layout MarshalBinary produces.
func (rs *ResultSet) UnmarshalBinary(b []byte) error {
	off := 0
	takeWord := func() (uint32, error) {
		if len(b) < off+4 {
			return 0, fmt.Errorf("store: result set record truncated at byte %d", off)
		}
		v := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		return v, nil
	}

	count, err := takeWord()
	if err != nil {
		return err
	}
	residuals := make([]WorkerResidual, count)
	for i := range residuals {
		stackLen, err := takeWord()
		if err != nil {
			return err
		}
		stack := make([]automaton.StackSym, stackLen)
		for j := range stack {
			if len(b) < off+8 {
				return fmt.Errorf("store: result set record truncated inside residual %d stack", i)
			}
			if err := stack[j].UnmarshalBinary(b[off : off+8]); err != nil {
				return err
			}
			off += 8
		}
		topGives, err := takeWord()
		if err != nil {
			return err
		}
		if len(b) < off+8 {
			return fmt.Errorf("store: result set record truncated before residual %d error slot", i)
		}
		var perr automaton.ParseError
		if err := perr.UnmarshalBinary(b[off : off+8]); err != nil {
			return err
		}
		off += 8

		residuals[i] = WorkerResidual{
			Stack:    stack,
			TopGives: int(int32(topGives)),
			Err:      perr,
		}
	}
	if off != len(b) {
		return fmt.Errorf("store: result set record has %d trailing bytes", len(b)-off)
	}
	rs.Residuals = residuals
	return nil
}
