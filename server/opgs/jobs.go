package opgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/chunk"
	"github.com/dekarrin/opgparse/internal/dispatch"
	"github.com/dekarrin/opgparse/internal/grammar"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/internal/sym"
	"github.com/google/uuid"
)

// SubmitJob encodes the given input tokens against the grammar referenced by
// grammarRef (ID or name), runs the full chunk-and-dispatch pipeline with
// the given chunk size, and persists the outcome as a new job owned by
// userID. Per-worker parse failures are not an error here: they are part of
// the job's results, exactly as the dispatcher reports them.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the grammar does not
// exist, it will match apperr.ErrNotFound. If the chunk size is not positive
// or a token is not in the grammar's terminal alphabet, it will match
// apperr.ErrBadArgument. If the error occured due to an unexpected problem
// with the store, it will match apperr.ErrStore.
func (svc Service) SubmitJob(ctx context.Context, userID uuid.UUID, grammarRef string, tokens []string, chunkSize int) (store.Job, error) {
	if chunkSize < 1 {
		return store.Job{}, apperr.New("chunk size must be positive", apperr.ErrBadArgument)
	}

	g, err := svc.GetGrammar(ctx, grammarRef)
	if err != nil {
		return store.Job{}, err
	}

	input, err := encodeTokens(g, tokens)
	if err != nil {
		return store.Job{}, err
	}

	chunker, err := chunk.New(chunk.FromSymbols(input), chunkSize)
	if err != nil {
		return store.Job{}, apperr.New("", err, apperr.ErrBadArgument)
	}

	var configs []chunk.Config
	for {
		cfg, ok := chunker.Next()
		if !ok {
			break
		}
		configs = append(configs, cfg)
	}

	report, err := dispatch.Run(ctx, configs, dispatch.Grammar{
		Matrix:     grammar.PrecMatrixView{Raw: g.Matrix, TermThresh: g.TermThresh()},
		Rules:      g.Rules,
		TermThresh: g.TermThresh(),
	})
	if err != nil {
		return store.Job{}, apperr.New("dispatch failed", err)
	}

	results := store.ResultSet{
		Residuals: make([]store.WorkerResidual, len(report.Residuals)),
	}
	for i, r := range report.Residuals {
		// copy out of the dispatch arena so the persisted stack doesn't
		// alias a buffer the next dispatch could reuse
		results.Residuals[i] = store.WorkerResidual{
			Stack:    append(r.Stack[:0:0], r.Stack...),
			TopGives: r.TopGives,
			Err:      r.Err,
		}
	}

	job := store.Job{
		UserID:    userID,
		GrammarID: g.ID,
		ChunkSize: chunkSize,
		Input:     input,
		Results:   results,
	}

	created, err := svc.DB.Jobs().Create(ctx, job)
	if err != nil {
		return store.Job{}, apperr.WrapStore("could not create job", err)
	}

	return created, nil
}

// encodeTokens maps external token strings to encoded symbols using the
// stored grammar's terminal alphabet. Only terminals are accepted; input
// streams never contain non-terminals or borders.
func encodeTokens(g store.Grammar, tokens []string) ([]sym.Sym, error) {
	index := make(map[string]sym.Sym, len(g.Terminals))
	for i, t := range g.Terminals {
		index[t] = sym.Sym(i + 1)
	}

	out := make([]sym.Sym, len(tokens))
	for i, tok := range tokens {
		s, ok := index[tok]
		if !ok {
			return nil, apperr.New(fmt.Sprintf("token %d: %q is not in the grammar's terminal alphabet", i, tok), apperr.ErrBadArgument)
		}
		out[i] = s
	}
	return out, nil
}

// GetJob returns the job with the given ID.
//
// The returned error, if non-nil, will match apperr.ErrNotFound if no such
// job exists, or apperr.ErrStore for an unexpected store problem.
func (svc Service) GetJob(ctx context.Context, id uuid.UUID) (store.Job, error) {
	job, err := svc.DB.Jobs().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Job{}, apperr.ErrNotFound
		}
		return store.Job{}, apperr.WrapStore("could not get job", err)
	}

	return job, nil
}

// GetAllJobs returns all jobs in persistence.
func (svc Service) GetAllJobs(ctx context.Context) ([]store.Job, error) {
	jobs, err := svc.DB.Jobs().GetAll(ctx)
	if err != nil {
		return nil, apperr.WrapStore("", err)
	}

	return jobs, nil
}

// GetJobsByUser returns all jobs owned by the given user.
func (svc Service) GetJobsByUser(ctx context.Context, userID uuid.UUID) ([]store.Job, error) {
	jobs, err := svc.DB.Jobs().GetAllByUser(ctx, userID)
	if err != nil {
		return nil, apperr.WrapStore("", err)
	}

	return jobs, nil
}

// DeleteJob deletes the job with the given ID. It returns the job as it was
// just before deletion.
//
// The returned error, if non-nil, will match apperr.ErrNotFound if no such
// job exists, or apperr.ErrStore for an unexpected store problem.
func (svc Service) DeleteJob(ctx context.Context, id uuid.UUID) (store.Job, error) {
	job, err := svc.DB.Jobs().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Job{}, apperr.ErrNotFound
		}
		return store.Job{}, apperr.WrapStore("could not delete job", err)
	}

	return job, nil
}
