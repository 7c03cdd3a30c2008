package opgs

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login verifies the provided username and password against the existing
// user in persistence and returns that user if they match. Returns the user
// entity from the persistence layer that the username and password are valid
// for.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not
// match a user or if the password is incorrect, it will match
// apperr.ErrBadCredentials. If the error occured due to an unexpected
// problem with the store, it will match apperr.ErrStore.
func (svc Service) Login(ctx context.Context, username string, password string) (store.User, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperr.ErrBadCredentials
		}
		return store.User{}, apperr.WrapStore("", err)
	}

	// verify password
	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return store.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(bcryptHash, []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return store.User{}, apperr.ErrBadCredentials
		}
		return store.User{}, apperr.WrapStore("", err)
	}

	// successful login; update the DB
	user.LastLoginTime = time.Now()
	user, err = svc.DB.Users().Update(ctx, user.ID, user)
	if err != nil {
		return store.User{}, apperr.WrapStore("cannot update user login time", err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, invalidating
// any login that may be active. Returns the user entity that was logged out.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the user doesn't exist,
// it will match apperr.ErrNotFound. If the error occured due to an
// unexpected problem with the store, it will match apperr.ErrStore.
func (svc Service) Logout(ctx context.Context, who uuid.UUID) (store.User, error) {
	existing, err := svc.DB.Users().GetByID(ctx, who)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperr.ErrNotFound
		}
		return store.User{}, apperr.WrapStore("could not retrieve user", err)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := svc.DB.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return store.User{}, apperr.WrapStore("could not update user", err)
	}

	return updated, nil
}
