package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/internal/util"
	"github.com/google/uuid"
)

func NewJobsRepository() *InMemoryJobsRepository {
	return &InMemoryJobsRepository{
		jobs: make(map[uuid.UUID]store.Job),
	}
}

type InMemoryJobsRepository struct {
	jobs map[uuid.UUID]store.Job
}

func (imjr *InMemoryJobsRepository) Close() error {
	return nil
}

func (imjr *InMemoryJobsRepository) Create(ctx context.Context, job store.Job) (store.Job, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return store.Job{}, fmt.Errorf("could not generate ID: %w", err)
	}

	job.ID = newUUID
	job.Created = time.Now()

	imjr.jobs[job.ID] = job

	return job, nil
}

func (imjr *InMemoryJobsRepository) GetAll(ctx context.Context) ([]store.Job, error) {
	all := make([]store.Job, len(imjr.jobs))

	i := 0
	for k := range imjr.jobs {
		all[i] = imjr.jobs[k]
		i++
	}

	all = util.SortBy(all, func(l, r store.Job) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (imjr *InMemoryJobsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]store.Job, error) {
	var all []store.Job

	for k := range imjr.jobs {
		if imjr.jobs[k].UserID == userID {
			all = append(all, imjr.jobs[k])
		}
	}

	all = util.SortBy(all, func(l, r store.Job) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (imjr *InMemoryJobsRepository) GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]store.Job, error) {
	var all []store.Job

	for k := range imjr.jobs {
		if imjr.jobs[k].GrammarID == grammarID {
			all = append(all, imjr.jobs[k])
		}
	}

	all = util.SortBy(all, func(l, r store.Job) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (imjr *InMemoryJobsRepository) GetByID(ctx context.Context, id uuid.UUID) (store.Job, error) {
	job, ok := imjr.jobs[id]
	if !ok {
		return store.Job{}, store.ErrNotFound
	}

	return job, nil
}

func (imjr *InMemoryJobsRepository) Delete(ctx context.Context, id uuid.UUID) (store.Job, error) {
	job, ok := imjr.jobs[id]
	if !ok {
		return store.Job{}, store.ErrNotFound
	}

	delete(imjr.jobs, id)

	return job, nil
}
