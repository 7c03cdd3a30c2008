// Package automaton implements the per-worker shift-reduce driver: the
// dual-stack automaton that turns one chunk's alpha window into a residual
// stack. The layout is deliberately shader-shaped — flat arenas, integer
// indices, no allocation inside the main loop — and the package carries no
// concurrency of its own; internal/dispatch is what runs many of these in
// parallel.
package automaton

import (
	"github.com/dekarrin/opgparse/internal/grammar"
	"github.com/dekarrin/opgparse/internal/sym"
)

// RunConfig bundles everything one invocation of Run needs. Stack and
// GivesStack may be arenas shared with other workers — Run only ever reads
// and writes the range starting at StackBase, so disjoint RunConfigs sharing
// the same backing arrays never race.
type RunConfig struct {
	// Alpha is the buffer this worker reads its input symbols from; Head and
	// End are indices into it (not necessarily 0 and len(Alpha), if Alpha is
	// itself a window shared with other workers).
	Alpha []sym.Sym
	Head  int
	End   int

	// Seed is pushed onto the stack before the main loop starts. It is the
	// chunk's one-symbol lookbehind — see internal/chunk.
	Seed StackSym

	// Stack and GivesStack are the arenas this worker's stack and
	// gives-stack live in, and StackBase is this worker's starting offset
	// into both.
	Stack      []StackSym
	GivesStack []uint32
	StackBase  int

	Matrix     grammar.PrecMatrixView
	Rules      []uint32
	TermThresh uint32
}

// Result is what one worker produces: where its stack ended up, and whether
// it failed.
type Result struct {
	// StackPtr is the exclusive upper bound of this worker's residual stack
	// within RunConfig.Stack; the residual itself is
	// Stack[StackBase:StackPtr].
	StackPtr int
	// TopGives is the absolute index (into RunConfig.Stack) of the topmost
	// Gives-tagged entry remaining on the stack, or -1 if none remain. This
	// is the hint a downstream stitching pass would use to split the
	// residual into its left and right factors.
	TopGives int
	Err      ParseError
}

// Run drives cfg's chunk to completion or to the first fatal parse error,
// handling each incoming symbol by case:
//
//   - a non-terminal always shifts;
//   - a terminal with Gives or Equals precedence against the current
//     top-of-stack terminal shifts;
//   - a terminal with Takes precedence and an empty gives-stack shifts (the
//     worker is still inside the leftmost prefix of its chunk, with nothing
//     to reduce yet);
//   - a terminal with Takes precedence and a non-empty gives-stack triggers
//     a reduction attempt; on success the loop re-examines the same input
//     symbol without advancing Head, since one Takes relation can trigger
//     more than one reduction in sequence;
//   - Undef precedence, or a reduction attempt that matches no rule, is a
//     fatal parse error.
//
// cfg.Alpha[cfg.End] is the chunk's one-symbol lookahead: a real symbol
// belonging to the next chunk, or the terminating border if this is the
// final chunk of the whole input. Run never shifts it — doing so would
// either duplicate a symbol the next worker owns, or push a border the
// grammar's rules never reference — but it is still consulted as a pure
// reduce trigger: a Takes relation against it can close out one or more
// pending handles exactly as it would mid-chunk, since a reduction decision
// never consumes input. Once the lookahead would otherwise need to be
// shifted, Run stops and reports success; this is what lets a worker
// spanning the entire input (chunk_size >= len(input)) fully reduce before
// its trailing border would be reached, matching the classical
// single-threaded parser's result.
//
// The error slot is pre-armed pessimistically at cfg.Head and rewritten on
// every shift, so a worker that returns early due to either
// fatal case leaves the failing symbol's location behind without any extra
// bookkeeping at the failure site itself.
func Run(cfg RunConfig) Result {
	st := newStack(cfg.Stack, cfg.GivesStack, cfg.StackBase, cfg.TermThresh)
	st.push(cfg.Seed)

	head := cfg.Head
	errSlot := atLocation(uint32(head))

	advance := func() {
		head++
		errSlot = atLocation(uint32(head))
	}

	fail := func() Result {
		return Result{StackPtr: st.stackPtr, TopGives: st.topGivesIndex(), Err: errSlot}
	}
	done := func() Result {
		return Result{StackPtr: st.stackPtr, TopGives: st.topGivesIndex(), Err: noParseError()}
	}

	for head <= cfg.End {
		atBoundary := head == cfg.End
		a := cfg.Alpha[head]

		if sym.IsNonTerminal(a, cfg.TermThresh) {
			if atBoundary {
				// Never reachable in practice (the lookahead is always
				// drawn from the terminal/border stream), but shifting a
				// non-terminal boundary symbol would be exactly as unsafe
				// as shifting a terminal one; treat it the same way.
				return done()
			}
			st.push(StackSym{Sym: a, Prec: sym.Undef})
			advance()
			continue
		}

		prec := cfg.Matrix.Get(st.peekTopTerm(), a)
		switch prec {
		case sym.Gives, sym.Equals:
			if atBoundary {
				return done()
			}
			st.push(StackSym{Sym: a, Prec: prec})
			advance()
		case sym.Takes:
			if st.givesNR == 0 {
				if atBoundary {
					return done()
				}
				st.push(StackSym{Sym: a, Prec: prec})
				advance()
				continue
			}
			if !reduceHandle(st, cfg.Rules) {
				return fail()
			}
			// reduceHandle does not advance head: the same incoming symbol
			// may trigger further reductions before it can finally shift,
			// including when that symbol is the lookahead at the boundary.
		default: // sym.Undef
			if atBoundary {
				return done()
			}
			return fail()
		}
	}

	return done()
}

// reduceHandle scans the rule table in priority order and reduces the
// topmost handle by the first matching rule. Returns false if no rule
// matches, leaving the stack untouched.
func reduceHandle(st *stack, rules []uint32) bool {
	if len(rules) == 0 {
		return false
	}
	ruleCount := rules[0]
	offset := 1
	for i := uint32(0); i < ruleCount; i++ {
		lhs := rules[offset]
		length := int(rules[offset+1])
		rhsOffset := offset + 2

		if st.handleMatches(rules, rhsOffset, length) {
			st.popHandle()
			st.push(StackSym{Sym: sym.Sym(lhs), Prec: sym.Undef})
			return true
		}
		offset = rhsOffset + length
	}
	return false
}
