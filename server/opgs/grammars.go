package opgs

import (
	"context"
	"errors"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/grammarfile"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/google/uuid"
)

// RegisterGrammar validates def, builds and encodes the grammar it defines,
// and persists it under the given name. Returns the stored grammar as it
// exists after creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the definition is
// structurally invalid, it will match apperr.ErrBadGrammar. If a grammar
// with that name is already present, it will match apperr.ErrAlreadyExists.
// If the error occured due to an unexpected problem with the store, it will
// match apperr.ErrStore. Finally, if the name is blank, it will match
// apperr.ErrBadArgument.
func (svc Service) RegisterGrammar(ctx context.Context, name string, def grammarfile.Def) (store.Grammar, error) {
	if name == "" {
		return store.Grammar{}, apperr.New("name cannot be blank", apperr.ErrBadArgument)
	}

	g, err := def.Build()
	if err != nil {
		return store.Grammar{}, err
	}

	_, err = svc.DB.Grammars().GetByName(ctx, name)
	if err == nil {
		return store.Grammar{}, apperr.New("a grammar with that name already exists", apperr.ErrAlreadyExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Grammar{}, apperr.WrapStore("", err)
	}

	newGrammar := store.Grammar{
		Name:         name,
		Terminals:    def.Terminals,
		NonTerminals: def.NonTerminals,
		Matrix:       g.EncodeOpMatrix(),
		Rules:        g.EncodeRules(),
	}

	created, err := svc.DB.Grammars().Create(ctx, newGrammar)
	if err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			return store.Grammar{}, apperr.New("", apperr.ErrAlreadyExists)
		}
		return store.Grammar{}, apperr.WrapStore("could not create grammar", err)
	}

	return created, nil
}

// GetGrammar returns the grammar with the given ID or, if ref does not parse
// as a UUID, the grammar registered under that name.
//
// The returned error, if non-nil, will match apperr.ErrNotFound if no such
// grammar exists, or apperr.ErrStore for an unexpected store problem.
func (svc Service) GetGrammar(ctx context.Context, ref string) (store.Grammar, error) {
	var g store.Grammar
	var err error

	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		g, err = svc.DB.Grammars().GetByID(ctx, id)
	} else {
		g, err = svc.DB.Grammars().GetByName(ctx, ref)
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Grammar{}, apperr.ErrNotFound
		}
		return store.Grammar{}, apperr.WrapStore("could not get grammar", err)
	}

	return g, nil
}

// GetAllGrammars returns all registered grammars, ordered by name.
func (svc Service) GetAllGrammars(ctx context.Context) ([]store.Grammar, error) {
	grammars, err := svc.DB.Grammars().GetAll(ctx)
	if err != nil {
		return nil, apperr.WrapStore("", err)
	}

	return grammars, nil
}

// DeleteGrammar deletes the grammar with the given ID. It returns the
// grammar as it was just before deletion.
//
// The returned error, if non-nil, will match apperr.ErrNotFound if no such
// grammar exists, or apperr.ErrStore for an unexpected store problem.
func (svc Service) DeleteGrammar(ctx context.Context, id uuid.UUID) (store.Grammar, error) {
	g, err := svc.DB.Grammars().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Grammar{}, apperr.ErrNotFound
		}
		return store.Grammar{}, apperr.WrapStore("could not delete grammar", err)
	}

	return g, nil
}
