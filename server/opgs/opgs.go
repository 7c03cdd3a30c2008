// Package opgs provides the service layer of the opgparse server: the
// backend logic behind the HTTP API, operating directly on a store.Store.
// For serving the service over HTTP, see the api package.
package opgs

import (
	"github.com/dekarrin/opgparse/internal/store"
)

// Service is the interface between the API layer and the persistence layer.
// All of its methods report failure conditions by returning errors that
// match the apperr sentinels under errors.Is.
type Service struct {
	DB store.Store
}
