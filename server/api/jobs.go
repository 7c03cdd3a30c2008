package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/server/middle"
	"github.com/dekarrin/opgparse/server/result"
)

// HTTPCreateJob returns a HandlerFunc that submits a new parse job: the
// input is chunked, dispatched across workers against the named grammar,
// and the gathered residuals are persisted and returned.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the logged-in user of the client making the request.
func (api API) HTTPCreateJob() http.HandlerFunc {
	return api.Endpoint(api.epCreateJob)
}

// POST /jobs: submit a parse job (auth required)
func (api API) epCreateJob(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(store.User)

	var createJob JobRequest
	err := parseJSON(req, &createJob)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createJob.Grammar == "" {
		return result.BadRequest("grammar: property is empty or missing from request", "empty grammar ref")
	}
	if len(createJob.Tokens) == 0 && createJob.Input == "" {
		return result.BadRequest("tokens/input: one of the two must be present in request", "no input")
	}

	tokens := createJob.Tokens
	if len(tokens) == 0 {
		// the convenience form: one token per character
		for _, ch := range createJob.Input {
			tokens = append(tokens, string(ch))
		}
	}

	job, err := api.Backend.SubmitJob(req.Context(), user.ID, createJob.Grammar, tokens, createJob.ChunkSize)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return result.BadRequest("grammar: no grammar with that ID or name exists", "grammar %q not found", createJob.Grammar)
		} else if errors.Is(err, apperr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	resp := toJobModel(job)
	return result.Created(resp, "user '%s' ran job %s (%d chunks, failed=%v)", user.Username, resp.ID, len(resp.Residuals), resp.Failed)
}

// HTTPGetAllJobs returns a HandlerFunc that retrieves jobs: all of them for
// an admin caller, the caller's own otherwise.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the logged-in user of the client making the request.
func (api API) HTTPGetAllJobs() http.HandlerFunc {
	return api.Endpoint(api.epGetAllJobs)
}

// GET /jobs: get own jobs, or all jobs if admin (auth required)
func (api API) epGetAllJobs(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(store.User)

	var jobs []store.Job
	var err error
	if user.Role == store.Admin {
		jobs, err = api.Backend.GetAllJobs(req.Context())
	} else {
		jobs, err = api.Backend.GetJobsByUser(req.Context(), user.ID)
	}
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]JobModel, len(jobs))
	for i := range jobs {
		resp[i] = toJobModel(jobs[i])
	}

	return result.OK(resp, "user '%s' got %d jobs", user.Username, len(resp))
}

// HTTPGetJob returns a HandlerFunc that retrieves one job. All users may
// retrieve their own jobs; only an admin user can retrieve another user's.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the ID of the job being retrieved and the logged-in user of the
// client making the request.
func (api API) HTTPGetJob() http.HandlerFunc {
	return api.Endpoint(api.epGetJob)
}

// GET /jobs/{id}: get a job
func (api API) epGetJob(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(store.User)

	job, err := api.Backend.GetJob(req.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get job: " + err.Error())
	}

	if job.UserID != user.ID && user.Role != store.Admin {
		return result.Forbidden("user '%s' (role %s) get job %s of user %s: forbidden", user.Username, user.Role, id, job.UserID)
	}

	resp := toJobModel(job)
	return result.OK(resp, "user '%s' got job %s", user.Username, resp.ID)
}

// HTTPDeleteJob returns a HandlerFunc that deletes a job. All users may
// delete their own jobs; only an admin user may delete another user's.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the ID of the job being deleted and the logged-in user of the
// client making the request.
func (api API) HTTPDeleteJob() http.HandlerFunc {
	return api.Endpoint(api.epDeleteJob)
}

// DELETE /jobs/{id}: delete a job
func (api API) epDeleteJob(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(store.User)

	job, err := api.Backend.GetJob(req.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get job: " + err.Error())
	}

	if job.UserID != user.ID && user.Role != store.Admin {
		return result.Forbidden("user '%s' (role %s) delete job %s of user %s: forbidden", user.Username, user.Role, id, job.UserID)
	}

	_, err = api.Backend.DeleteJob(req.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not delete job: " + err.Error())
	}

	return result.NoContent("user '%s' successfully deleted job %s", user.Username, id)
}
