// Package apperr holds the error type and sentinel values shared across this
// repository's service layer: internal/grammarfile, internal/store, and
// server. The Error type carries a message plus one or more 'cause' errors
// and stays compatible with errors.Is, so callers can branch on the package
// sentinels without manual typecasting.
package apperr

import "errors"

var (
	// ErrBadGrammar is returned when a grammar definition is malformed: an
	// unknown precedence relation name, a rule referencing an undeclared
	// symbol, or any other structural problem caught before a grammar is
	// accepted into the store. Whether the grammar is actually an
	// operator-precedence grammar is never checked — this only covers
	// malformed input.
	ErrBadGrammar = errors.New("the grammar definition is malformed")

	// ErrNotFound is returned when a requested grammar or job does not
	// exist.
	ErrNotFound = errors.New("the requested entity could not be found")

	// ErrAlreadyExists is returned when a grammar is registered under a name
	// that is already in use.
	ErrAlreadyExists = errors.New("resource with same identifying information already exists")

	// ErrBadArgument is returned when a caller-supplied argument is invalid
	// on its face (empty name, non-positive chunk size, and so on).
	ErrBadArgument = errors.New("one or more of the arguments is invalid")

	// ErrStore is returned when the underlying store (SQLite) fails for
	// reasons unrelated to the caller's input.
	ErrStore = errors.New("an error occurred with the store")

	// ErrBadCredentials is returned when a login attempt names a user that
	// does not exist or supplies the wrong password; the two cases are
	// deliberately indistinguishable to the caller.
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")

	// ErrPermissions is returned when an authenticated caller attempts an
	// operation their role does not allow.
	ErrPermissions = errors.New("you don't have permission to do that")

	// ErrBodyUnmarshal is returned when a request body cannot be decoded at
	// all, as opposed to decoding fine but containing invalid values.
	ErrBodyUnmarshal = errors.New("malformed data in request")
)

// Error is a typed error that carries a message plus one or more causes it
// should also compare equal to under errors.Is. Construct with New or
// WrapStore; the zero value is usable but carries no message or causes.
type Error struct {
	msg   string
	cause []error
}

// Error returns e's message, concatenated with its first cause's message if
// one is set; if no message is set but a cause is, the cause's message alone
// is returned.
func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}
	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

// Unwrap returns e's causes for use by errors.Is/errors.As, or nil if none
// were set.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is reports whether target is e itself or one of e's causes.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && len(e.cause) == len(errTarget.cause) {
			allEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allEqual = false
					break
				}
			}
			if allEqual {
				return true
			}
		}
	}
	for _, c := range e.cause {
		if c == target {
			return true
		}
	}
	return false
}

// New creates an Error with the given message and causes. Causes are
// optional; a zero-cause Error is still a valid, usable error.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// WrapStore wraps err as a cause along with ErrStore, for errors originating
// below internal/store's own API (a *sql.DB call, a scan failure, and so
// on).
func WrapStore(msg string, err error) Error {
	return Error{msg: msg, cause: []error{err, ErrStore}}
}
