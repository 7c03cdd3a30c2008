// Package grammar builds and holds an encoded operator-precedence grammar:
// the precedence matrix and rule table that internal/automaton consumes, and
// the bijection between a caller's own terminal/non-terminal symbol types and
// the flat sym.Sym numbering every other package in this repository works in.
//
// Building or validating that a grammar is actually operator-precedence is
// out of scope here; OPGrammar assumes it is handed a well-formed one and
// encodes exactly what it's given.
package grammar

import (
	"fmt"

	"github.com/dekarrin/opgparse/internal/sym"
)

// Rule is one production of the grammar: LHS expands to RHS, a mix of
// terminals and non-terminals in the caller's own symbol types.
type Rule[T, N comparable] struct {
	LHS N
	RHS []sym.MixedSymbol[T, N]
}

// Copy returns a deep copy of r's RHS slice, so callers that build up a rule
// set incrementally don't alias shared backing arrays.
func (r Rule[T, N]) Copy() Rule[T, N] {
	rhs := make([]sym.MixedSymbol[T, N], len(r.RHS))
	copy(rhs, r.RHS)
	return Rule[T, N]{LHS: r.LHS, RHS: rhs}
}

func (r Rule[T, N]) String() string {
	s := fmt.Sprintf("%v ->", r.LHS)
	for _, m := range r.RHS {
		s += fmt.Sprintf(" %v", m)
	}
	return s
}

// OPGrammar is an operator-precedence grammar over an ordered terminal
// alphabet T and an ordered non-terminal alphabet N, both of which must be
// comparable so they can key a lookup map. Terminals encode to sym.Sym
// values 1..len(terminals), non-terminals to len(terminals)+1.. — see
// TermThresh. Construct with New or NewWithPrecFunc; the zero value is not
// usable.
type OPGrammar[T, N comparable] struct {
	terminals []T
	nonterms  []N
	rules     []Rule[T, N]
	opMatrix  map[[2]T]sym.Prec

	termThresh uint32
	termIndex  map[T]uint32
	ntIndex    map[N]uint32
}

// New builds an OPGrammar from an explicit precedence relation, given as a
// map from (left, right) terminal pairs to the relation that holds between
// them. Pairs absent from matrix decode to sym.Undef.
func New[T, N comparable](terminals []T, nonterms []N, rules []Rule[T, N], matrix map[[2]T]sym.Prec) *OPGrammar[T, N] {
	g := &OPGrammar[T, N]{
		terminals:  append([]T(nil), terminals...),
		nonterms:   append([]N(nil), nonterms...),
		rules:      make([]Rule[T, N], len(rules)),
		opMatrix:   matrix,
		termThresh: uint32(len(terminals)) + 1,
		termIndex:  make(map[T]uint32, len(terminals)),
		ntIndex:    make(map[N]uint32, len(nonterms)),
	}
	for i, r := range rules {
		g.rules[i] = r.Copy()
	}
	for i, t := range g.terminals {
		g.termIndex[t] = uint32(i) + 1
	}
	for i, n := range g.nonterms {
		g.ntIndex[n] = uint32(i) + g.termThresh
	}
	if g.opMatrix == nil {
		g.opMatrix = make(map[[2]T]sym.Prec)
	}
	return g
}

// NewWithPrecFunc builds an OPGrammar the same as New, except the precedence
// relation is derived by calling fn once for every ordered pair of terminals
// rather than supplied as a pre-built map.
func NewWithPrecFunc[T, N comparable](terminals []T, nonterms []N, rules []Rule[T, N], fn func(a, b T) sym.Prec) *OPGrammar[T, N] {
	matrix := make(map[[2]T]sym.Prec, len(terminals)*len(terminals))
	for _, a := range terminals {
		for _, b := range terminals {
			matrix[[2]T{a, b}] = fn(a, b)
		}
	}
	return New(terminals, nonterms, rules, matrix)
}

// TermThresh returns the symbol value at and above which an encoded symbol
// is a non-terminal.
func (g *OPGrammar[T, N]) TermThresh() uint32 {
	return g.termThresh
}

// HasTerminal reports whether t is in the grammar's terminal alphabet.
func (g *OPGrammar[T, N]) HasTerminal(t T) bool {
	_, ok := g.termIndex[t]
	return ok
}

// EncodeTerminal returns t's encoded symbol. Panics if t is not in the
// grammar's terminal alphabet — an unknown symbol here means the caller
// built the grammar and the input from different alphabets, which is a
// programming error rather than a parse error. Callers that need to check
// first should use HasTerminal.
func (g *OPGrammar[T, N]) EncodeTerminal(t T) sym.Sym {
	s, ok := g.termIndex[t]
	if !ok {
		panic(fmt.Sprintf("grammar: %v is not in the terminal alphabet", t))
	}
	return sym.Sym(s)
}

// EncodeNonTerminal returns n's encoded symbol. Panics if n is not in the
// grammar's non-terminal alphabet; see EncodeTerminal.
func (g *OPGrammar[T, N]) EncodeNonTerminal(n N) sym.Sym {
	s, ok := g.ntIndex[n]
	if !ok {
		panic(fmt.Sprintf("grammar: %v is not in the non-terminal alphabet", n))
	}
	return sym.Sym(s)
}

// EncodeMixed returns the encoded symbol for a Rule RHS element.
func (g *OPGrammar[T, N]) EncodeMixed(m sym.MixedSymbol[T, N]) sym.Sym {
	if m.IsBorder() {
		return sym.Border
	}
	if t, ok := m.Terminal(); ok {
		return g.EncodeTerminal(t)
	}
	n, _ := m.NonTerminal()
	return g.EncodeNonTerminal(n)
}

// EncodeString encodes a bare sequence of terminals, with no border
// sentinels.
func (g *OPGrammar[T, N]) EncodeString(s []T) []sym.Sym {
	out := make([]sym.Sym, len(s))
	for i, t := range s {
		out[i] = g.EncodeTerminal(t)
	}
	return out
}

// EncodeStringWithBorder encodes s with the border sentinel `#` prepended
// and appended, the form internal/chunk's seed/sentinel handling expects at
// the ends of a complete (unchunked) input.
func (g *OPGrammar[T, N]) EncodeStringWithBorder(s []T) []sym.Sym {
	out := make([]sym.Sym, 0, len(s)+2)
	out = append(out, sym.Border)
	out = append(out, g.EncodeString(s)...)
	out = append(out, sym.Border)
	return out
}

// EncodeRules returns the flat rule table:
//
//	[rule_count, (lhs, rhs_len, rhs...)*]
//
// in priority order — internal/automaton's reduce step tries rules in this
// order and commits to the first match.
func (g *OPGrammar[T, N]) EncodeRules() []uint32 {
	out := []uint32{uint32(len(g.rules))}
	for _, r := range g.rules {
		out = append(out, uint32(g.EncodeNonTerminal(r.LHS)))
		out = append(out, uint32(len(r.RHS)))
		for _, m := range r.RHS {
			out = append(out, uint32(g.EncodeMixed(m)))
		}
	}
	return out
}

// EncodeOpMatrix returns the flat, row-major precedence matrix of length
// TermThresh(). Row/column 0 (the border `#`) always follow the fixed
// sentinel policy — M[0][0]=Equals, M[0][j>0]=Gives, M[i>0][0]=Takes —
// regardless of what, if anything, the caller's precedence map or function
// said about those pairs; the map/function is only ever consulted for pairs
// of true terminals.
func (g *OPGrammar[T, N]) EncodeOpMatrix() []uint32 {
	thresh := g.termThresh
	out := make([]uint32, thresh*thresh)

	out[0] = sym.Equals.Encode()
	for j := uint32(1); j < thresh; j++ {
		out[j] = sym.Gives.Encode()
	}
	for i, a := range g.terminals {
		row := uint32(i) + 1
		out[row*thresh] = sym.Takes.Encode()
		for j, b := range g.terminals {
			col := uint32(j) + 1
			p, ok := g.opMatrix[[2]T{a, b}]
			if !ok {
				p = sym.Undef
			}
			out[row*thresh+col] = p.Encode()
		}
	}
	return out
}

// DecodeMixed decodes an encoded symbol back to a MixedSymbol. ok is false
// only if s falls outside the grammar's encoded range entirely (e.g. a
// corrupted wire value); border, terminal, and non-terminal symbols within
// range always decode successfully.
func (g *OPGrammar[T, N]) DecodeMixed(s sym.Sym) (sym.MixedSymbol[T, N], bool) {
	switch {
	case sym.IsBorder(s):
		return sym.NewBorder[T, N](), true
	case uint32(s) < g.termThresh:
		idx := uint32(s) - 1
		if idx >= uint32(len(g.terminals)) {
			return sym.MixedSymbol[T, N]{}, false
		}
		return sym.NewTerminal[T, N](g.terminals[idx]), true
	default:
		idx := uint32(s) - g.termThresh
		if idx >= uint32(len(g.nonterms)) {
			return sym.MixedSymbol[T, N]{}, false
		}
		return sym.NewNonTerminal[T, N](g.nonterms[idx]), true
	}
}

// PrecMatrixView is a read-only view of an encoded precedence matrix, shared
// read-only across every worker in a dispatch (see internal/dispatch).
type PrecMatrixView struct {
	Raw        []uint32
	TermThresh uint32
}

// Get returns the precedence relation between left and right, both encoded
// symbols. Out-of-range pairs return sym.Undef rather than panicking, since
// an out-of-bounds lookup here is a malformed-grammar condition that should
// surface as a parse error on the offending worker, not a crash that takes
// down the whole dispatch.
func (m PrecMatrixView) Get(left, right sym.Sym) sym.Prec {
	i, j := uint64(left), uint64(right)
	idx := i*uint64(m.TermThresh) + j
	if idx >= uint64(len(m.Raw)) {
		return sym.Undef
	}
	return sym.DecodePrec(m.Raw[idx])
}
