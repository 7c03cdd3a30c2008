// Package sqlite provides a SQLite-backed implementation of the opgparse
// server's data store.
package sqlite

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"path/filepath"
	"time"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

type datastore struct {
	dbFilename     string
	jobsDBFilename string

	db     *sql.DB
	jobsDB *sql.DB

	users    *UsersDB
	grammars *GrammarsDB
	jobs     *JobsDB
}

// NewDatastore opens (creating if needed) the SQLite database files in
// storageDir and returns a store backed by them. Job records live in their
// own file since their result blobs dwarf every other table.
func NewDatastore(storageDir string) (store.Store, error) {
	st := &datastore{
		dbFilename:     "data.db",
		jobsDBFilename: "jobs.db",
	}

	fileName := filepath.Join(storageDir, st.dbFilename)
	jobsFileName := filepath.Join(storageDir, st.jobsDBFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}
	st.jobsDB, err = sql.Open("sqlite", jobsFileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.grammars = &GrammarsDB{db: st.db}
	if err := st.grammars.init(); err != nil {
		return nil, err
	}

	st.jobs = &JobsDB{db: st.jobsDB}
	if err := st.jobs.init(); err != nil {
		return nil, err
	}

	return st, nil
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
	jobsDBErr := s.jobsDB.Close()
	mainDBErr := s.db.Close()

	var err error
	if jobsDBErr != nil {
		err = fmt.Errorf("%s: %w", s.jobsDBFilename, jobsDBErr)
	}
	if mainDBErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally: %s: %w", err.Error(), s.dbFilename, mainDBErr)
		} else {
			err = fmt.Errorf("%s: %w", s.dbFilename, mainDBErr)
		}
	}
	return err
}

// convertToDB_Role converts a store.Role to storage DB format.
func convertToDB_Role(r store.Role) string {
	return r.String()
}

// convertToDB_Email converts a *mail.Address to storage DB format. If the
// pointer is nil, it will return the zero value.
func convertToDB_Email(email *mail.Address) string {
	if email == nil {
		return ""
	}
	return email.Address
}

// convertToDB_UUID converts a uuid.UUID to storage DB format on disk.
func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

// convertToDB_Time converts a time.Time to storage DB format on disk.
func convertToDB_Time(t time.Time) int64 {
	return t.Unix()
}

// convertToDB_Binary converts any binary-marshalable value to storage DB
// format on disk: the rezi encoding of the value, base64'd into a TEXT
// column.
func convertToDB_Binary(v interface{ MarshalBinary() ([]byte, error) }) string {
	return base64.StdEncoding.EncodeToString(rezi.EncBinary(v))
}

// convertFromDB_Email converts storage DB format value to a *mail.Address
// and stores it at the address pointed to by target. If the zero value is
// provided, target is set to a nil pointer. If there is a problem with the
// decoding, the returned error will wrap store.ErrDecodingFailure. If this
// function returns a non-nil error, target will not have been modified.
func convertFromDB_Email(s string, target **mail.Address) error {
	if s == "" {
		*target = nil
		return nil
	}

	email, err := mail.ParseAddress(s)
	if err != nil {
		return apperr.New("", err, store.ErrDecodingFailure)
	}

	*target = email
	return nil
}

// convertFromDB_Role converts storage DB format value to a store.Role and
// stores it at the address pointed to by target. If there is a problem with
// the decoding, the returned error will wrap store.ErrDecodingFailure.
func convertFromDB_Role(s string, target *store.Role) error {
	r, err := store.ParseRole(s)
	if err != nil {
		return apperr.New("", err, store.ErrDecodingFailure)
	}
	*target = r
	return nil
}

// convertFromDB_UUID converts storage DB format value to a uuid.UUID and
// stores it at the address pointed to by target. If there is a problem with
// the decoding, the returned error will wrap store.ErrDecodingFailure.
func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return apperr.New("", err, store.ErrDecodingFailure)
	}
	*target = u
	return nil
}

// convertFromDB_Time converts storage DB format value to a time.Time and
// stores it at the address pointed to by target.
func convertFromDB_Time(i int64, target *time.Time) error {
	t := time.Unix(i, 0)
	*target = t
	return nil
}

// convertFromDB_Binary converts a storage DB format string back into the
// binary-unmarshalable value pointed at by target. If there is a problem
// with the decoding, the returned error will wrap store.ErrDecodingFailure.
// If this function returns a non-nil error, target may hold a partial
// decode and must not be used.
func convertFromDB_Binary(s string, target interface{ UnmarshalBinary([]byte) error }) error {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return apperr.New("decode stored to bytes", err, store.ErrDecodingFailure)
	}

	n, err := rezi.DecBinary(data, target)
	if err != nil {
		return apperr.New("REZI decode", err, store.ErrDecodingFailure)
	}
	if n != len(data) {
		return apperr.New(fmt.Sprintf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(data)), store.ErrDecodingFailure)
	}

	return nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return store.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
