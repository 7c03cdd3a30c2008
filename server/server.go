// Package server provides the opgparse job server: an HTTP front-end over
// the chunk-and-dispatch parsing pipeline, with persisted grammars, jobs,
// and JWT-authenticated operator accounts.
//
// The endpoints, all JSON and all under api.PathPrefix:
//
//   - POST   /login          - accepts username and password and returns a jwt.
//   - DELETE /login/{id}     - ends user authentication session and destroys the jwt.
//   - POST   /tokens         - create a new token for the logged-in user.
//   - POST   /grammars       - register a grammar definition (auth required).
//   - GET    /grammars       - get all registered grammars (auth not required).
//   - GET    /grammars/{id}  - get a grammar by ID or name (auth not required).
//   - DELETE /grammars/{id}  - delete a grammar (admin auth required).
//   - POST   /jobs           - chunk, dispatch, and persist a parse job (auth required).
//   - GET    /jobs           - get own jobs; all jobs if admin (auth required).
//   - GET    /jobs/{id}      - get a job, if it's yours or you are admin.
//   - DELETE /jobs/{id}      - delete a job, if it's yours or you are admin.
//   - POST   /users          - create a new account (admin auth required).
//   - GET    /users/{id}     - get info on a user (auth required).
//   - GET    /users          - get all users (admin auth required).
//   - DELETE /users/{id}     - delete a user (auth required).
//   - GET    /info           - get version info on the server itself.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/server/api"
	"github.com/dekarrin/opgparse/server/middle"
	"github.com/dekarrin/opgparse/server/opgs"
	"github.com/go-chi/chi/v5"
)

// Server is an opgparse job server, ready to serve requests once created
// with New. It is the arrangement of a store, a service layer over it, and
// the API over that into a routed HTTP handler.
type Server struct {
	router  chi.Router
	backend opgs.Service
	db      store.Store
	cfg     Config
}

// New creates a new Server from the given config. The config's DB is
// connected to immediately; a connection failure fails server creation.
func New(cfg Config) (*Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect DB: %w", err)
	}

	s := &Server{
		backend: opgs.Service{DB: db},
		db:      db,
		cfg:     cfg,
	}
	s.initRoutes()
	return s, nil
}

// Backend returns the service layer the server fronts, for direct
// programmatic access such as bootstrapping the initial admin user.
func (s *Server) Backend() opgs.Service {
	return s.backend
}

func (s *Server) initRoutes() {
	a := api.API{
		Backend:     s.backend,
		UnauthDelay: s.cfg.UnauthDelay(),
		Secret:      s.cfg.TokenSecret,
	}

	requireAuth := middle.RequireAuth(s.db.Users(), s.cfg.TokenSecret, s.cfg.UnauthDelay(), store.User{})
	optionalAuth := middle.OptionalAuth(s.db.Users(), s.cfg.TokenSecret, s.cfg.UnauthDelay(), store.User{})

	r := chi.NewRouter()
	r.Use(middle.DontPanic())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Post("/login", a.HTTPCreateLogin())
		r.With(requireAuth).Delete("/login/{id}", a.HTTPDeleteLogin())
		r.With(requireAuth).Post("/tokens", a.HTTPCreateToken())

		r.With(optionalAuth).Get("/info", a.HTTPGetInfo())

		r.Route("/grammars", func(r chi.Router) {
			r.Get("/", a.HTTPGetAllGrammars())
			r.Get("/{id}", a.HTTPGetGrammar())
			r.With(requireAuth).Post("/", a.HTTPCreateGrammar())
			r.With(requireAuth).Delete("/{id}", a.HTTPDeleteGrammar())
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", a.HTTPCreateJob())
			r.Get("/", a.HTTPGetAllJobs())
			r.Get("/{id}", a.HTTPGetJob())
			r.Delete("/{id}", a.HTTPDeleteJob())
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", a.HTTPCreateUser())
			r.Get("/", a.HTTPGetAllUsers())
			r.Get("/{id}", a.HTTPGetUser())
			r.Delete("/{id}", a.HTTPDeleteUser())
		})
	})

	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// ServeForever begins listening on the given address and port and serves
// requests until the process is killed or a server error occurs, which is
// returned. If address is empty, the server listens on localhost; if port is
// 0, port 8080 is used.
func (s *Server) ServeForever(address string, port int) error {
	if address == "" {
		address = "localhost"
	}
	if port == 0 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	return http.ListenAndServe(listenAddress, s.router)
}

// Close releases the server's store connections.
func (s *Server) Close() error {
	return s.db.Close()
}
