package opgs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/grammarfile"
	"github.com/dekarrin/opgparse/internal/store/inmem"
	"github.com/dekarrin/opgparse/internal/sym"
	"github.com/google/uuid"
)

func parenDef() grammarfile.Def {
	return grammarfile.Def{
		Terminals:    []string{"(", ")"},
		NonTerminals: []string{"S"},
		Prec: []grammarfile.PrecDef{
			{Left: "(", Right: "(", Rel: "gives"},
			{Left: "(", Right: ")", Rel: "equals"},
			{Left: ")", Right: "(", Rel: "takes"},
			{Left: ")", Right: ")", Rel: "takes"},
		},
		Rules: []grammarfile.RuleDef{
			{LHS: "S", RHS: []string{"(", ")"}},
			{LHS: "S", RHS: []string{"(", "S", ")"}},
			{LHS: "S", RHS: []string{"S", "(", ")"}},
			{LHS: "S", RHS: []string{"S", "(", "S", ")"}},
		},
	}
}

func testService() Service {
	return Service{DB: inmem.NewDatastore()}
}

func Test_RegisterGrammar(t *testing.T) {
	assert := assert.New(t)
	svc := testService()
	ctx := context.Background()

	g, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	assert.Equal("paren", g.Name)
	assert.Equal(uint32(3), g.TermThresh())
	assert.Len(g.Matrix, 9)
	assert.NotEmpty(g.Rules)

	// same name again conflicts
	_, err = svc.RegisterGrammar(ctx, "paren", parenDef())
	assert.ErrorIs(err, apperr.ErrAlreadyExists)

	// a structurally bad definition is rejected before the store is touched
	bad := parenDef()
	bad.Rules = nil
	_, err = svc.RegisterGrammar(ctx, "paren2", bad)
	assert.ErrorIs(err, apperr.ErrBadGrammar)

	// blank name is rejected
	_, err = svc.RegisterGrammar(ctx, "", parenDef())
	assert.ErrorIs(err, apperr.ErrBadArgument)
}

func Test_GetGrammar_byIDAndName(t *testing.T) {
	assert := assert.New(t)
	svc := testService()
	ctx := context.Background()

	created, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	byName, err := svc.GetGrammar(ctx, "paren")
	require.NoError(t, err)
	assert.Equal(created.ID, byName.ID)

	byID, err := svc.GetGrammar(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(created.Name, byID.Name)

	_, err = svc.GetGrammar(ctx, "no-such-grammar")
	assert.ErrorIs(err, apperr.ErrNotFound)
}

func Test_SubmitJob_wholeInputReduces(t *testing.T) {
	assert := assert.New(t)
	svc := testService()
	ctx := context.Background()

	_, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	userID := uuid.New()
	job, err := svc.SubmitJob(ctx, userID, "paren", []string{"(", ")"}, 16)
	require.NoError(t, err)

	assert.Equal(userID, job.UserID)
	assert.Equal(16, job.ChunkSize)
	assert.Equal([]sym.Sym{1, 2}, job.Input)
	assert.False(job.Failed())

	require.Len(t, job.Results.Residuals, 1)
	res := job.Results.Residuals[0]
	require.Len(t, res.Stack, 2)
	assert.Equal(sym.Sym(0), res.Stack[0].Sym)
	assert.Equal(sym.Sym(3), res.Stack[1].Sym, "residual top should be the S nonterminal")
	assert.Equal(-1, res.TopGives)

	// the job is persisted and retrievable
	fetched, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(job.Input, fetched.Input)
	assert.Equal(job.Results, fetched.Results)
}

func Test_SubmitJob_multiChunk(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	_, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	tokens := []string{"(", "(", ")", "(", "(", ")", "(", ")", ")", ")"}
	job, err := svc.SubmitJob(ctx, uuid.New(), "paren", tokens, 4)
	require.NoError(t, err)

	require.Len(t, job.Results.Residuals, 3)
	assert.False(t, job.Failed())
}

func Test_SubmitJob_parseFailureIsNotAServiceError(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	_, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	job, err := svc.SubmitJob(ctx, uuid.New(), "paren", []string{"(", "(", ")"}, 16)
	require.NoError(t, err, "per-worker parse failures are part of the results, not submission errors")

	assert.True(t, job.Failed())
}

func Test_SubmitJob_badArguments(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	_, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	testCases := []struct {
		name      string
		grammar   string
		tokens    []string
		chunkSize int
		expect    error
	}{
		{
			name:      "zero chunk size",
			grammar:   "paren",
			tokens:    []string{"(", ")"},
			chunkSize: 0,
			expect:    apperr.ErrBadArgument,
		},
		{
			name:      "unknown grammar",
			grammar:   "nope",
			tokens:    []string{"(", ")"},
			chunkSize: 4,
			expect:    apperr.ErrNotFound,
		},
		{
			name:      "token outside the terminal alphabet",
			grammar:   "paren",
			tokens:    []string{"(", "x", ")"},
			chunkSize: 4,
			expect:    apperr.ErrBadArgument,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitJob(ctx, uuid.New(), tc.grammar, tc.tokens, tc.chunkSize)
			assert.ErrorIs(t, err, tc.expect)
		})
	}
}

func Test_GetJobsByUser(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	_, err := svc.RegisterGrammar(ctx, "paren", parenDef())
	require.NoError(t, err)

	alice := uuid.New()
	bob := uuid.New()

	_, err = svc.SubmitJob(ctx, alice, "paren", []string{"(", ")"}, 8)
	require.NoError(t, err)
	_, err = svc.SubmitJob(ctx, alice, "paren", []string{"(", "(", ")", ")"}, 8)
	require.NoError(t, err)
	_, err = svc.SubmitJob(ctx, bob, "paren", []string{"(", ")"}, 8)
	require.NoError(t, err)

	aliceJobs, err := svc.GetJobsByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, aliceJobs, 2)

	bobJobs, err := svc.GetJobsByUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobJobs, 1)
}
