// Package store provides data access objects for the opgparse job server:
// operator accounts, registered grammars, and the parse jobs that have been
// run against them. Implementations live in the inmem and sqlite
// subpackages.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dekarrin/opgparse/internal/automaton"
	"github.com/dekarrin/opgparse/internal/sym"
	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories.
type Store interface {
	Users() UserRepository
	Grammars() GrammarRepository
	Jobs() JobRepository
	Close() error
}

type GrammarRepository interface {
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)
	GetByName(ctx context.Context, name string) (Grammar, error)
	GetAll(ctx context.Context) ([]Grammar, error)
	Update(ctx context.Context, id uuid.UUID, g Grammar) (Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)
	Close() error
}

// Grammar is a registered operator-precedence grammar in its encoded form:
// the ordered alphabets plus the flat precedence matrix and rule table that
// dispatch workers consume directly. The matrix is TermThresh()² cells,
// row-major.
type Grammar struct {
	ID           uuid.UUID // PK, NOT NULL
	Name         string    // UNIQUE, NOT NULL
	Terminals    []string  // NOT NULL
	NonTerminals []string  // NOT NULL
	Matrix       []uint32  // NOT NULL
	Rules        []uint32  // NOT NULL
	Created      time.Time // NOT NULL
	Modified     time.Time
}

// TermThresh returns the encoded-symbol threshold at and above which a
// symbol of this grammar is a non-terminal.
func (g Grammar) TermThresh() uint32 {
	return uint32(len(g.Terminals)) + 1
}

type JobRepository interface {
	Create(ctx context.Context, job Job) (Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (Job, error)
	GetAll(ctx context.Context) ([]Job, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Job, error)
	GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]Job, error)
	Delete(ctx context.Context, id uuid.UUID) (Job, error)
	Close() error
}

// Job is one completed parallel-parse run: the encoded input it was given,
// the chunking granularity it ran with, and the residual stacks plus error
// slots its workers produced. Jobs are created already holding their
// results; a job record is never updated after creation.
type Job struct {
	ID        uuid.UUID // PK, NOT NULL
	UserID    uuid.UUID // FK (Many-to-One User.ID), NOT NULL
	GrammarID uuid.UUID // FK (Many-to-One Grammar.ID), NOT NULL
	ChunkSize int       // NOT NULL
	Input     []sym.Sym // NOT NULL; encoded symbols, no border sentinels
	Created   time.Time // NOT NULL
	Results   ResultSet
}

// Failed reports whether any worker of the job reported a parse error.
func (j Job) Failed() bool {
	for _, r := range j.Results.Residuals {
		if r.Err.Failed() {
			return true
		}
	}
	return false
}

// WorkerResidual is one worker's persisted outcome within a ResultSet.
type WorkerResidual struct {
	Stack    []automaton.StackSym
	TopGives int
	Err      automaton.ParseError
}

// ResultSet is the gathered outcome of one dispatched job, one
// WorkerResidual per chunk in chunk order.
type ResultSet struct {
	Residuals []WorkerResidual
}

type UserRepository interface {

	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)

	// Close closes the connection.
	Close() error
}

type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID     // PK, NOT NULL
	Username       string        // UNIQUE, NOT NULL
	Password       string        // NOT NULL
	Email          *mail.Address // NOT NULL
	Role           Role          // NOT NULL
	Created        time.Time     // NOT NULL
	Modified       time.Time
	LastLogoutTime time.Time // NOT NULL DEFAULT NOW()
	LastLoginTime  time.Time // NOT NULL
}
