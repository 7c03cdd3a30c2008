package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/server/middle"
	"github.com/dekarrin/opgparse/server/result"
)

// HTTPCreateGrammar returns a HandlerFunc that registers a new grammar from
// the definition in the request body.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the logged-in user of the client making the request.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return api.Endpoint(api.epCreateGrammar)
}

// POST /grammars: register a new grammar (auth required)
func (api API) epCreateGrammar(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(store.User)

	var createGrammar GrammarRequest
	err := parseJSON(req, &createGrammar)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createGrammar.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty name")
	}

	g, err := api.Backend.RegisterGrammar(req.Context(), createGrammar.Name, createGrammar.Def())
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return result.Conflict("Grammar with that name already exists", "grammar '%s' already exists", createGrammar.Name)
		} else if errors.Is(err, apperr.ErrBadGrammar) || errors.Is(err, apperr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	resp := toGrammarModel(g)
	return result.Created(resp, "user '%s' registered grammar '%s' (%s)", user.Username, resp.Name, resp.ID)
}

// HTTPGetAllGrammars returns a HandlerFunc that retrieves all registered
// grammars. Login is not required.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return api.Endpoint(api.epGetAllGrammars)
}

// GET /grammars: get all grammars (auth not required)
func (api API) epGetAllGrammars(req *http.Request) result.Result {
	grammars, err := api.Backend.GetAllGrammars(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]GrammarModel, len(grammars))
	for i := range grammars {
		resp[i] = toGrammarModel(grammars[i])
	}

	return result.OK(resp, "client got all grammars")
}

// HTTPGetGrammar returns a HandlerFunc that retrieves a single registered
// grammar by ID or name. Login is not required.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return api.Endpoint(api.epGetGrammar)
}

// GET /grammars/{id}: get a grammar by ID or name (auth not required)
func (api API) epGetGrammar(req *http.Request) result.Result {
	ref, err := getURLParam(req, "id", func(s string) (string, error) { return s, nil })
	if err != nil {
		return result.NotFound()
	}

	g, err := api.Backend.GetGrammar(req.Context(), ref)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get grammar: " + err.Error())
	}

	resp := toGrammarModel(g)
	return result.OK(resp, "client got grammar '%s'", resp.Name)
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes a registered grammar.
// Only an admin user may delete grammars.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the ID of the grammar being deleted and the logged-in user of the
// client making the request.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return api.Endpoint(api.epDeleteGrammar)
}

// DELETE /grammars/{id}: delete a grammar (admin auth required)
func (api API) epDeleteGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(store.User)

	if user.Role != store.Admin {
		return result.Forbidden("user '%s' (role %s) delete grammar %s: forbidden", user.Username, user.Role, id)
	}

	deleted, err := api.Backend.DeleteGrammar(req.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not delete grammar: " + err.Error())
	}

	return result.NoContent("user '%s' successfully deleted grammar '%s'", user.Username, deleted.Name)
}
