// Package inmem provides an in-memory implementation of the opgparse
// server's data store, suitable for tests and for running without any
// persistence configured.
package inmem

import (
	"github.com/dekarrin/opgparse/internal/store"
)

type datastore struct {
	users    *InMemoryUsersRepository
	grammars *InMemoryGrammarsRepository
	jobs     *InMemoryJobsRepository
}

func NewDatastore() store.Store {
	st := &datastore{
		users:    NewUsersRepository(),
		grammars: NewGrammarsRepository(),
	}
	st.jobs = NewJobsRepository()
	return st
}

func (s *datastore) Users() store.UserRepository {
	return s.users
}

func (s *datastore) Grammars() store.GrammarRepository {
	return s.grammars
}

func (s *datastore) Jobs() store.JobRepository {
	return s.jobs
}

func (s *datastore) Close() error {
	return nil
}
