// Package chunk splits one long encoded input into the overlapping,
// independently-parseable windows internal/dispatch hands out to its
// workers: a single-pass, single-symbol-of-lookbehind generator built on
// top of a plain pull-based source, with no buffering beyond what one chunk
// needs.
package chunk

import (
	"fmt"

	"github.com/dekarrin/opgparse/internal/automaton"
	"github.com/dekarrin/opgparse/internal/sym"
)

// Source is anything a Chunker can drain encoded symbols from one at a time.
// Next returns ok=false once the source is exhausted; a Source must not
// return any further symbols after the first false.
type Source interface {
	Next() (sym.Sym, bool)
}

// SliceSource is the simplest Source: a fixed slice of symbols, such as one
// produced by grammar.OPGrammar's EncodeString.
type SliceSource struct {
	syms []sym.Sym
	pos  int
}

// FromSymbols wraps syms as a Source. syms is not copied; callers that need
// to reuse the backing slice afterward should pass a copy.
func FromSymbols(syms []sym.Sym) *SliceSource {
	return &SliceSource{syms: syms}
}

// Next implements Source.
func (s *SliceSource) Next() (sym.Sym, bool) {
	if s.pos >= len(s.syms) {
		return 0, false
	}
	v := s.syms[s.pos]
	s.pos++
	return v, true
}

// Config is one worker's share of the input: the bordered alpha window, the
// precomputed stack seed, and the head/end indices into Alpha that
// automaton.Run expects.
type Config struct {
	// Alpha is this chunk's window: one symbol of lookbehind, up to
	// chunkSize symbols drained from the source, and one symbol of
	// lookahead (border if the source was exhausted while building this
	// chunk).
	Alpha []sym.Sym
	// Seed is the stack entry automaton.Run pushes before its main loop —
	// always (lookbehind, Undef), matching Alpha[0].
	Seed automaton.StackSym
	// Head and End are the indices into Alpha that bound this chunk's main
	// loop: Head=1 (skipping the lookbehind already pushed as Seed),
	// End=len(Alpha)-1 (the index of the trailing lookahead symbol).
	Head, End int
}

// peekSource wraps a Source with one symbol of unconsumed lookahead, so a
// Chunker can see the first symbol of the next chunk without draining it.
type peekSource struct {
	src    Source
	peeked sym.Sym
	hasPk  bool
	done   bool
}

func newPeekSource(src Source) *peekSource {
	return &peekSource{src: src}
}

func (p *peekSource) fill() {
	if p.hasPk || p.done {
		return
	}
	v, ok := p.src.Next()
	if !ok {
		p.done = true
		return
	}
	p.peeked = v
	p.hasPk = true
}

// next consumes and returns the next symbol, or ok=false if exhausted.
func (p *peekSource) next() (sym.Sym, bool) {
	p.fill()
	if !p.hasPk {
		return 0, false
	}
	v := p.peeked
	p.hasPk = false
	return v, true
}

// peek returns the next symbol without consuming it, or ok=false if
// exhausted.
func (p *peekSource) peek() (sym.Sym, bool) {
	p.fill()
	if !p.hasPk {
		return 0, false
	}
	return p.peeked, true
}

// Chunker turns a Source into a sequence of overlapping Configs, one per
// call to Next. The zero value is not usable; construct with New.
type Chunker struct {
	src        *peekSource
	chunkSize  int
	lookbehind sym.Sym
}

// New returns a Chunker draining src in windows of up to chunkSize symbols
// each. chunkSize must be positive.
func New(src Source, chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk: chunkSize must be positive, got %d", chunkSize)
	}
	return &Chunker{
		src:        newPeekSource(src),
		chunkSize:  chunkSize,
		lookbehind: sym.Border,
	}, nil
}

// Next produces the next Config, or ok=false once the source is exhausted
// and every symbol has already been assigned to a chunk. An empty input
// yields zero configs — the very first call finds nothing to drain and
// returns immediately.
func (c *Chunker) Next() (Config, bool) {
	drained := make([]sym.Sym, 0, c.chunkSize)
	for len(drained) < c.chunkSize {
		v, ok := c.src.next()
		if !ok {
			break
		}
		drained = append(drained, v)
	}
	if len(drained) == 0 {
		return Config{}, false
	}

	alpha := make([]sym.Sym, 0, len(drained)+2)
	alpha = append(alpha, c.lookbehind)
	alpha = append(alpha, drained...)

	lookahead, ok := c.src.peek()
	if !ok {
		lookahead = sym.Border
	}
	alpha = append(alpha, lookahead)

	cfg := Config{
		Alpha: alpha,
		Seed:  automaton.StackSym{Sym: c.lookbehind, Prec: sym.Undef},
		Head:  1,
		End:   len(alpha) - 1,
	}

	c.lookbehind = drained[len(drained)-1]
	return cfg, true
}
