// Package sym holds the symbol and precedence encoding shared by every other
// package in this repository: the flat uint32 numbering scheme that lets a
// grammar, a stack, and a wire buffer all agree on what a given integer
// means without carrying a pointer or a string anywhere near the hot path.
package sym

import "fmt"

// Sym is the encoded form of a grammar symbol: 0 is the border sentinel `#`,
// 1..TermThresh-1 are terminals, and everything at or above TermThresh is a
// non-terminal. The mapping from a caller's own symbol type (rune, string,
// whatever a lexer emits) to a Sym lives in package grammar; this package
// only knows about the integers.
type Sym uint32

// Border is the sentinel symbol `#` placed at both ends of a worker's
// encoded alpha window.
const Border Sym = 0

// IsBorder reports whether s is the border sentinel.
func IsBorder(s Sym) bool {
	return s == Border
}

// IsNonTerminal reports whether s falls at or above termThresh, the
// threshold below which every nonzero symbol is a terminal.
func IsNonTerminal(s Sym, termThresh uint32) bool {
	return uint32(s) >= termThresh
}

// IsTerminal reports whether s is a nonzero symbol below termThresh.
func IsTerminal(s Sym, termThresh uint32) bool {
	return !IsBorder(s) && !IsNonTerminal(s, termThresh)
}

// Prec is one of the four operator-precedence relations that can hold
// between two adjacent terminals. The numeric encoding is fixed by the wire
// format and must not be reordered: Undef=0, Gives=1, Equals=2, Takes=3.
type Prec uint32

const (
	// Undef means no precedence relation is defined between the pair, or
	// marks a stack entry that isn't a terminal-terminal relation (a
	// non-terminal, or a chunk's seed symbol).
	Undef Prec = 0
	// Gives is the "yields precedence" relation, written ⋖.
	Gives Prec = 1
	// Equals is the "equal precedence" relation, written ≐.
	Equals Prec = 2
	// Takes is the "takes precedence" relation, written ⋗.
	Takes Prec = 3
)

// DecodePrec maps a raw uint32, such as one read off the wire or out of a
// flat precedence matrix, to a Prec. Any value outside {0,1,2,3} decodes to
// Undef rather than panicking, since a malformed matrix cell should produce
// an in-band parse error, not a crash.
func DecodePrec(x uint32) Prec {
	switch x {
	case 1:
		return Gives
	case 2:
		return Equals
	case 3:
		return Takes
	default:
		return Undef
	}
}

// Encode returns the wire-format uint32 for p.
func (p Prec) Encode() uint32 {
	return uint32(p)
}

// String renders p using the conventional operator-precedence glyphs.
func (p Prec) String() string {
	switch p {
	case Gives:
		return "⋖"
	case Equals:
		return "≐"
	case Takes:
		return "⋗"
	default:
		return "⊥"
	}
}

// MixedSymbol is the decoded form of a Sym: either the border, a terminal
// carrying the caller's own terminal type T, or a non-terminal carrying the
// caller's own non-terminal type N. Exactly one of the three accessors
// returns ok=true for any given MixedSymbol.
type MixedSymbol[T, N any] struct {
	kind mixedKind
	term T
	nt   N
}

type mixedKind int

const (
	kindBorder mixedKind = iota
	kindTerminal
	kindNonTerminal
)

// NewBorder returns a MixedSymbol representing the border sentinel.
func NewBorder[T, N any]() MixedSymbol[T, N] {
	return MixedSymbol[T, N]{kind: kindBorder}
}

// NewTerminal returns a MixedSymbol wrapping a terminal value.
func NewTerminal[T, N any](t T) MixedSymbol[T, N] {
	return MixedSymbol[T, N]{kind: kindTerminal, term: t}
}

// NewNonTerminal returns a MixedSymbol wrapping a non-terminal value.
func NewNonTerminal[T, N any](n N) MixedSymbol[T, N] {
	return MixedSymbol[T, N]{kind: kindNonTerminal, nt: n}
}

// IsBorder reports whether m is the border sentinel.
func (m MixedSymbol[T, N]) IsBorder() bool {
	return m.kind == kindBorder
}

// Terminal returns m's terminal value and true, or the zero value and false
// if m does not wrap a terminal.
func (m MixedSymbol[T, N]) Terminal() (T, bool) {
	if m.kind != kindTerminal {
		var zero T
		return zero, false
	}
	return m.term, true
}

// NonTerminal returns m's non-terminal value and true, or the zero value and
// false if m does not wrap a non-terminal.
func (m MixedSymbol[T, N]) NonTerminal() (N, bool) {
	if m.kind != kindNonTerminal {
		var zero N
		return zero, false
	}
	return m.nt, true
}

// String gives a debug rendering of m; callers that need the caller's own
// symbol formatting should type-switch on Terminal/NonTerminal instead.
func (m MixedSymbol[T, N]) String() string {
	switch m.kind {
	case kindBorder:
		return "#"
	case kindTerminal:
		return fmt.Sprintf("%v", m.term)
	default:
		return fmt.Sprintf("%v", m.nt)
	}
}
