// Package dispatch fans a batch of chunks out across worker goroutines,
// bounded by GOMAXPROCS, and gathers their residuals back into one Report.
// The packing works the way a GPU launch would: concatenate each chunk's
// Alpha into one shared buffer, reserve each worker its own slice of a
// shared stack/gives-stack arena, launch one goroutine per chunk, and
// re-slice the arena by (stackBase, stackPtr) once every worker has
// returned.
package dispatch

import (
	"context"
	"runtime"
	"sync"

	"github.com/dekarrin/opgparse/internal/automaton"
	"github.com/dekarrin/opgparse/internal/chunk"
	"github.com/dekarrin/opgparse/internal/grammar"
)

// Grammar is the read-only view of an encoded grammar every worker in a
// dispatch shares: a precedence matrix and a rule table, both safe for
// concurrent reads since no worker ever writes to them.
type Grammar struct {
	Matrix     grammar.PrecMatrixView
	Rules      []uint32
	TermThresh uint32
}

// Residual is one worker's leftover stack after its chunk has been run to
// completion or to its first fatal error.
type Residual struct {
	// Stack is this worker's residual stack, in bottom-to-top order.
	Stack []automaton.StackSym
	// TopGives is the index, within Stack, of the topmost Gives-tagged
	// entry, or -1 if none remain — the hint a downstream stitching pass
	// would use to split this residual into its left/right factors. Out of
	// scope here: dispatch only produces residuals, it never stitches them
	// into a parse tree.
	TopGives int
	// Err is the parse error this worker hit, or the zero value (Failed()
	// == false) if it consumed its whole chunk cleanly.
	Err automaton.ParseError
}

// Report is the outcome of one call to Run: one Residual per input chunk,
// in the same order as the configs slice that produced it.
type Report struct {
	Residuals []Residual
}

// Run dispatches configs across worker goroutines bounded by
// runtime.GOMAXPROCS(0), one chunk per worker, and gathers their residuals
// into a Report. Workers never touch each other's stack or gives-stack
// arena slice, so their execution order is unconstrained and their results
// are deterministic regardless of scheduling.
//
// ctx cancellation is honored only between worker launches, not
// mid-automaton — automaton.Run has no natural yield point short of
// finishing its chunk or hitting a fatal error, and interrupting it
// mid-stack would leave a torn residual with no well-defined meaning. If
// ctx is already done when Run is called, no workers are launched at all.
func Run(ctx context.Context, configs []chunk.Config, g Grammar) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if len(configs) == 0 {
		return Report{}, nil
	}

	stackBases := make([]int, len(configs))
	base := 0
	for i, cfg := range configs {
		stackBases[i] = base
		// +1 for the seed this worker pushes before its main loop.
		base += len(cfg.Alpha) + 1
	}
	arenaSize := base

	stackArena := make([]automaton.StackSym, arenaSize)
	givesArena := make([]uint32, arenaSize)
	results := make([]automaton.Result, len(configs))

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	for i := range configs {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = runWorker(configs[i], g, stackArena, givesArena, stackBases[i])
		}(i)
	}

	wg.Wait()

	residuals := make([]Residual, len(configs))
	for i, res := range results {
		// automaton reports TopGives as an absolute arena index; rebase it
		// to this worker's own residual slice
		topGives := res.TopGives
		if topGives >= 0 {
			topGives -= stackBases[i]
		}
		residuals[i] = Residual{
			Stack:    stackArena[stackBases[i]:res.StackPtr],
			TopGives: topGives,
			Err:      res.Err,
		}
	}

	return Report{Residuals: residuals}, nil
}

// runWorker drives one chunk through automaton.Run, recovering from any
// panic so a single malformed chunk can't take the rest of the dispatch
// down with it. An out-of-range index here (a rule table referencing a
// symbol past the arena, say) is a bad-input condition for one worker, not
// a reason to abort a dispatch whose other workers' results are still
// useful.
func runWorker(cfg chunk.Config, g Grammar, stackArena []automaton.StackSym, givesArena []uint32, stackBase int) (result automaton.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = automaton.Result{
				StackPtr: stackBase,
				TopGives: -1,
				Err:      panicParseError(cfg, r),
			}
		}
	}()

	return automaton.Run(automaton.RunConfig{
		Alpha:      cfg.Alpha,
		Head:       cfg.Head,
		End:        cfg.End,
		Seed:       cfg.Seed,
		Stack:      stackArena,
		GivesStack: givesArena,
		StackBase:  stackBase,
		Matrix:     g.Matrix,
		Rules:      g.Rules,
		TermThresh: g.TermThresh,
	})
}

// panicParseError turns a recovered panic into a ParseError located at this
// chunk's head, since that's the earliest position a malformed chunk could
// have gone wrong. The panic value itself (r) carries no further structured
// information ParseError's fixed two-uint32 wire shape could hold.
func panicParseError(cfg chunk.Config, r any) automaton.ParseError {
	_ = r
	return automaton.ParseError{Error: 1, Location: uint32(cfg.Head)}
}
