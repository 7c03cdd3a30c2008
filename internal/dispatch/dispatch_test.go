package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/automaton"
	"github.com/dekarrin/opgparse/internal/chunk"
	"github.com/dekarrin/opgparse/internal/grammar"
	"github.com/dekarrin/opgparse/internal/sym"
)

// parenGrammar is the same balanced-parenthesis fixture used by
// internal/automaton's and internal/grammar's tests, rebuilt here rather
// than imported since it's a test-only value a few lines long.
func parenGrammar() *grammar.OPGrammar[rune, string] {
	open, close := sym.NewTerminal[rune, string]('('), sym.NewTerminal[rune, string](')')
	s := sym.NewNonTerminal[rune, string]("S")

	rules := []grammar.Rule[rune, string]{
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{open, close}},
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{open, s, close}},
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{s, open, close}},
		{LHS: "S", RHS: []sym.MixedSymbol[rune, string]{s, open, s, close}},
	}

	return grammar.NewWithPrecFunc([]rune{'(', ')'}, []string{"S"}, rules, func(a, b rune) sym.Prec {
		switch {
		case a == '(' && b == '(':
			return sym.Gives
		case a == '(' && b == ')':
			return sym.Equals
		case a == ')' && b == '(':
			return sym.Takes
		case a == ')' && b == ')':
			return sym.Takes
		default:
			return sym.Undef
		}
	})
}

func dispatchGrammar(g *grammar.OPGrammar[rune, string]) Grammar {
	return Grammar{
		Matrix:     grammar.PrecMatrixView{Raw: g.EncodeOpMatrix(), TermThresh: g.TermThresh()},
		Rules:      g.EncodeRules(),
		TermThresh: g.TermThresh(),
	}
}

func chunkInput(t *testing.T, g *grammar.OPGrammar[rune, string], input string, chunkSize int) []chunk.Config {
	t.Helper()
	c, err := chunk.New(chunk.FromSymbols(g.EncodeString([]rune(input))), chunkSize)
	require.NoError(t, err)

	var configs []chunk.Config
	for {
		cfg, ok := c.Next()
		if !ok {
			break
		}
		configs = append(configs, cfg)
	}
	return configs
}

func Test_Run_emptyConfigs_yieldsEmptyReport(t *testing.T) {
	assert := assert.New(t)
	g := parenGrammar()

	rep, err := Run(context.Background(), nil, dispatchGrammar(g))
	require.NoError(t, err)
	assert.Empty(rep.Residuals)
}

func Test_Run_singleChunk_fullyReduces(t *testing.T) {
	assert := assert.New(t)
	g := parenGrammar()

	configs := chunkInput(t, g, "()", 10)
	require.Len(t, configs, 1)

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)
	require.Len(t, rep.Residuals, 1)

	res := rep.Residuals[0]
	require.False(t, res.Err.Failed(), "unexpected parse error: %s", res.Err)
	require.Len(t, res.Stack, 2)
	assert.Equal(sym.Border, res.Stack[0].Sym)
	assert.Equal(g.EncodeNonTerminal("S"), res.Stack[1].Sym)
	assert.Equal(-1, res.TopGives)
}

func Test_Run_nestedPair_fullyReduces(t *testing.T) {
	assert := assert.New(t)
	g := parenGrammar()

	configs := chunkInput(t, g, "(())", 10)
	require.Len(t, configs, 1)

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)
	require.Len(t, rep.Residuals, 1)

	res := rep.Residuals[0]
	require.False(t, res.Err.Failed(), "unexpected parse error: %s", res.Err)
	require.Len(t, res.Stack, 2)
	assert.Equal(g.EncodeNonTerminal("S"), res.Stack[1].Sym)
}

func Test_Run_multiWorker_allChunksSucceed(t *testing.T) {
	g := parenGrammar()

	configs := chunkInput(t, g, "(()(()()))", 4)
	require.True(t, len(configs) > 1, "expected this input/chunk_size to split across multiple workers")

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)
	require.Len(t, rep.Residuals, len(configs))

	for i, res := range rep.Residuals {
		assert.False(t, res.Err.Failed(), "worker %d unexpectedly errored: %s", i, res.Err)
	}
}

func Test_Run_incompleteInput_oneWorkerErrors(t *testing.T) {
	g := parenGrammar()

	configs := chunkInput(t, g, "(()", 10)
	require.Len(t, configs, 1)

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)
	require.Len(t, rep.Residuals, 1)

	assert.True(t, rep.Residuals[0].Err.Failed())
}

func Test_Run_badOrder_errors(t *testing.T) {
	g := parenGrammar()

	configs := chunkInput(t, g, ")(", 10)
	require.Len(t, configs, 1)

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)
	require.Len(t, rep.Residuals, 1)

	assert.True(t, rep.Residuals[0].Err.Failed())
}

func Test_Run_smallChunkSize_topGivesTracksOutstandingHandle(t *testing.T) {
	g := parenGrammar()

	configs := chunkInput(t, g, "((()))", 2)
	require.True(t, len(configs) > 1)

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)
	require.Len(t, rep.Residuals, len(configs))

	for i, res := range rep.Residuals {
		assert.False(t, res.Err.Failed(), "worker %d unexpectedly errored: %s", i, res.Err)

		// TopGives is the stitcher's split hint: when set, it must point at
		// a Gives-tagged entry within this worker's own residual.
		if res.TopGives >= 0 {
			require.Less(t, res.TopGives, len(res.Stack), "worker %d TopGives out of range", i)
			assert.Equal(t, sym.Gives, res.Stack[res.TopGives].Prec, "worker %d TopGives does not point at a Gives entry", i)
		}
	}
}

func Test_Run_contextAlreadyCanceled_launchesNoWorkers(t *testing.T) {
	g := parenGrammar()
	configs := chunkInput(t, g, "()", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, configs, dispatchGrammar(g))
	assert.Error(t, err)
}

func Test_Run_residualsAreIndependentSlices(t *testing.T) {
	g := parenGrammar()

	configs := chunkInput(t, g, "()()", 2)
	require.True(t, len(configs) > 1)

	rep, err := Run(context.Background(), configs, dispatchGrammar(g))
	require.NoError(t, err)

	// Each worker's residual must be backed by its own stackBase..stackPtr
	// slice of the arena — mutating one must never be visible through
	// another.
	if len(rep.Residuals) > 1 && len(rep.Residuals[0].Stack) > 0 {
		before := rep.Residuals[1].Stack[0]
		rep.Residuals[0].Stack[0] = automaton.StackSym{Sym: 9999, Prec: sym.Undef}
		assert.Equal(t, before, rep.Residuals[1].Stack[0])
	}
}
