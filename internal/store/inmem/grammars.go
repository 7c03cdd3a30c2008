package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/internal/util"
	"github.com/google/uuid"
)

func NewGrammarsRepository() *InMemoryGrammarsRepository {
	return &InMemoryGrammarsRepository{
		grammars:    make(map[uuid.UUID]store.Grammar),
		byNameIndex: make(map[string]uuid.UUID),
	}
}

type InMemoryGrammarsRepository struct {
	grammars    map[uuid.UUID]store.Grammar
	byNameIndex map[string]uuid.UUID
}

func (imgr *InMemoryGrammarsRepository) Close() error {
	return nil
}

func (imgr *InMemoryGrammarsRepository) Create(ctx context.Context, g store.Grammar) (store.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return store.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	g.ID = newUUID

	if _, ok := imgr.byNameIndex[g.Name]; ok {
		return store.Grammar{}, store.ErrConstraintViolation
	}

	g.Created = time.Now()
	g.Modified = g.Created

	imgr.grammars[g.ID] = g
	imgr.byNameIndex[g.Name] = g.ID

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetAll(ctx context.Context) ([]store.Grammar, error) {
	all := make([]store.Grammar, 0, len(imgr.grammars))

	for _, name := range util.OrderedKeys(imgr.byNameIndex) {
		all = append(all, imgr.grammars[imgr.byNameIndex[name]])
	}

	return all, nil
}

func (imgr *InMemoryGrammarsRepository) Update(ctx context.Context, id uuid.UUID, g store.Grammar) (store.Grammar, error) {
	existing, ok := imgr.grammars[id]
	if !ok {
		return store.Grammar{}, store.ErrNotFound
	}

	if g.Name != existing.Name {
		if _, ok := imgr.byNameIndex[g.Name]; ok {
			return store.Grammar{}, store.ErrConstraintViolation
		}
	} else if g.ID != id {
		if _, ok := imgr.grammars[g.ID]; ok {
			return store.Grammar{}, store.ErrConstraintViolation
		}
	}

	g.Modified = time.Now()

	imgr.grammars[g.ID] = g
	imgr.byNameIndex[g.Name] = g.ID
	if g.ID != id {
		delete(imgr.grammars, id)
	}
	if g.Name != existing.Name {
		delete(imgr.byNameIndex, existing.Name)
	}

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetByID(ctx context.Context, id uuid.UUID) (store.Grammar, error) {
	g, ok := imgr.grammars[id]
	if !ok {
		return store.Grammar{}, store.ErrNotFound
	}

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetByName(ctx context.Context, name string) (store.Grammar, error) {
	id, ok := imgr.byNameIndex[name]
	if !ok {
		return store.Grammar{}, store.ErrNotFound
	}

	return imgr.grammars[id], nil
}

func (imgr *InMemoryGrammarsRepository) Delete(ctx context.Context, id uuid.UUID) (store.Grammar, error) {
	g, ok := imgr.grammars[id]
	if !ok {
		return store.Grammar{}, store.ErrNotFound
	}

	delete(imgr.byNameIndex, g.Name)
	delete(imgr.grammars, g.ID)

	return g, nil
}
