package automaton

import (
	"encoding/binary"
	"fmt"

	"github.com/dekarrin/opgparse/internal/sym"
)

// StackSym is one entry of the symbol stack: the symbol itself and the
// precedence relation in effect between the terminal at this entry (or the
// nearest terminal to its left) and the terminal immediately to its right on
// the stack at the moment it was pushed. Prec is sym.Undef for non-terminals
// and for every chunk's seed entry.
//
// StackSym's field order and width are load-bearing: MarshalBinary encodes
// it as two little-endian uint32s, matching the layout a GPU-resident stack
// buffer would use.
type StackSym struct {
	Sym  sym.Sym
	Prec sym.Prec
}

// MarshalBinary encodes the stack entry as two little-endian uint32s (Sym,
// Prec). Implementing encoding.BinaryMarshaler lets internal/store
// round-trip a residual stack through rezi's binary codec.
func (s StackSym) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], uint32(s.Sym))
	binary.LittleEndian.PutUint32(b[4:8], s.Prec.Encode())
	return b, nil
}

// UnmarshalBinary decodes the layout MarshalBinary produces.
func (s *StackSym) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("automaton: StackSym wire record must be 8 bytes, got %d", len(b))
	}
	s.Sym = sym.Sym(binary.LittleEndian.Uint32(b[0:4]))
	s.Prec = sym.DecodePrec(binary.LittleEndian.Uint32(b[4:8]))
	return nil
}

// stack is the dual-stack structure at the heart of the parser: the symbol
// stack plus the auxiliary gives-stack of back-indices, both addressed as
// (base, pointer) offsets into arenas the caller owns. No linked structures,
// no pointer graphs — every "reference" here is a plain integer index, so
// that the same layout works whether the arena is a goroutine-local slice or
// a sub-range of a buffer shared across a whole dispatch.
type stack struct {
	buf        []StackSym
	givesBuf   []uint32
	stackBase  int
	stackPtr   int
	termThresh uint32
	topTerm    int
	givesNR    int
}

// newStack wraps buf/givesBuf — arenas that may be shared with other
// workers — scoped to this worker's own stackBase. topTerm is defensively
// initialized to stackBase rather than left undefined: a non-terminal
// shifted before any terminal has been pushed would otherwise read an
// arbitrary slot.
func newStack(buf []StackSym, givesBuf []uint32, stackBase int, termThresh uint32) *stack {
	return &stack{
		buf:        buf,
		givesBuf:   givesBuf,
		stackBase:  stackBase,
		stackPtr:   stackBase,
		termThresh: termThresh,
		topTerm:    stackBase,
	}
}

func (s *stack) isNonTerminal(v sym.Sym) bool {
	return sym.IsNonTerminal(v, s.termThresh)
}

// push writes v at the current stack pointer, advances it, and maintains
// both derived indices: topTerm (the border counts as a terminal for this
// purpose) and, when v's relation is Gives, the gives-stack entry that lets
// a later handle lookup find this slot in O(1).
func (s *stack) push(v StackSym) {
	s.buf[s.stackPtr] = v
	if !s.isNonTerminal(v.Sym) {
		s.topTerm = s.stackPtr
	}
	if v.Prec == sym.Gives {
		s.givesBuf[s.stackBase+s.givesNR] = uint32(s.stackPtr)
		s.givesNR++
	}
	s.stackPtr++
}

// peekTopTerm returns the symbol at the topmost terminal-or-border entry.
// Calling this before any terminal (or the seed) has been pushed returns
// whatever topTerm was defensively initialized to; see newStack.
func (s *stack) peekTopTerm() sym.Sym {
	return s.buf[s.topTerm].Sym
}

// handleHead returns the index at which the topmost handle begins: the most
// recent Gives entry, extended one slot to the left if that slot holds a
// non-terminal.
func (s *stack) handleHead() int {
	topGives := int(s.givesBuf[s.stackBase+s.givesNR-1])
	if s.isNonTerminal(s.buf[topGives-1].Sym) {
		return topGives - 1
	}
	return topGives
}

// handleMatches reports whether the topmost handle is exactly the rule RHS
// rules[ruleOffset : ruleOffset+ruleLength].
func (s *stack) handleMatches(rules []uint32, ruleOffset, ruleLength int) bool {
	head := s.handleHead()
	if s.stackPtr-head != ruleLength {
		return false
	}
	for i := 0; i < ruleLength; i++ {
		if uint32(s.buf[head+i].Sym) != rules[ruleOffset+i] {
			return false
		}
	}
	return true
}

// popHandle removes the topmost handle from the stack. The terminal beneath
// the handle is always at handleHead-1, because the handle begins with (or
// immediately follows) a Gives marker whose left context is by construction
// a terminal.
func (s *stack) popHandle() {
	head := s.handleHead()
	s.stackPtr = head
	s.givesNR--
	s.topTerm = head - 1
}

// topGivesIndex returns the absolute index of the topmost Gives entry, or -1
// if the gives-stack is empty. Surfaced to callers (internal/dispatch) as the
// TopGives hint a downstream stitching pass would use to split a residual
// stack into its left and right factors.
func (s *stack) topGivesIndex() int {
	if s.givesNR == 0 {
		return -1
	}
	return int(s.givesBuf[s.stackBase+s.givesNR-1])
}
