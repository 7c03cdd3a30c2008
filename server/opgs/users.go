package opgs

import (
	"context"
	"encoding/base64"
	"errors"
	"net/mail"

	"github.com/dekarrin/opgparse/internal/apperr"
	"github.com/dekarrin/opgparse/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GetAllUsers returns all users currently in persistence.
func (svc Service) GetAllUsers(ctx context.Context) ([]store.User, error) {
	users, err := svc.DB.Users().GetAll(ctx)
	if err != nil {
		return nil, apperr.WrapStore("", err)
	}

	return users, nil
}

// GetUser returns the user with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no user with that ID
// exists, it will match apperr.ErrNotFound. If the error occured due to an
// unexpected problem with the store, it will match apperr.ErrStore. Finally,
// if there is an issue with one of the arguments, it will match
// apperr.ErrBadArgument.
func (svc Service) GetUser(ctx context.Context, id string) (store.User, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return store.User{}, apperr.New("ID is not valid", apperr.ErrBadArgument)
	}

	user, err := svc.DB.Users().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperr.ErrNotFound
		}
		return store.User{}, apperr.WrapStore("could not get user", err)
	}

	return user, nil
}

// CreateUser creates a new user with the given username, password, and email
// combo. Returns the newly-created user as it exists after creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a user with that username
// is already present, it will match apperr.ErrAlreadyExists. If the error
// occured due to an unexpected problem with the store, it will match
// apperr.ErrStore. Finally, if one of the arguments is invalid, it will
// match apperr.ErrBadArgument.
func (svc Service) CreateUser(ctx context.Context, username, password, email string, role store.Role) (store.User, error) {
	var err error
	if username == "" {
		return store.User{}, apperr.New("username cannot be blank", err, apperr.ErrBadArgument)
	}
	if password == "" {
		return store.User{}, apperr.New("password cannot be blank", err, apperr.ErrBadArgument)
	}

	var storedEmail *mail.Address
	if email != "" {
		storedEmail, err = mail.ParseAddress(email)
		if err != nil {
			return store.User{}, apperr.New("email is not valid", err, apperr.ErrBadArgument)
		}
	}

	_, err = svc.DB.Users().GetByUsername(ctx, username)
	if err == nil {
		return store.User{}, apperr.New("a user with that username already exists", apperr.ErrAlreadyExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, apperr.WrapStore("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return store.User{}, apperr.New("password is too long", err, apperr.ErrBadArgument)
		} else {
			return store.User{}, apperr.New("password could not be encrypted", err)
		}
	}

	storedPass := base64.StdEncoding.EncodeToString(passHash)

	newUser := store.User{
		Username: username,
		Password: storedPass,
		Email:    storedEmail,
		Role:     role,
	}

	user, err := svc.DB.Users().Create(ctx, newUser)
	if err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			return store.User{}, apperr.New("", apperr.ErrAlreadyExists)
		}
		return store.User{}, apperr.WrapStore("could not create user", err)
	}

	return user, nil
}

// UpdatePassword sets the password of the user with the given ID to the new
// password. The new password cannot be empty. Returns the updated user.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no user with the given ID
// exists, it will match apperr.ErrNotFound. If the error occured due to an
// unexpected problem with the store, it will match apperr.ErrStore. Finally,
// if one of the arguments is invalid, it will match apperr.ErrBadArgument.
func (svc Service) UpdatePassword(ctx context.Context, id, password string) (store.User, error) {
	if password == "" {
		return store.User{}, apperr.New("password cannot be empty", apperr.ErrBadArgument)
	}
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return store.User{}, apperr.New("ID is not valid", apperr.ErrBadArgument)
	}

	existing, err := svc.DB.Users().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperr.New("no user with that ID exists", apperr.ErrNotFound)
		}
		return store.User{}, apperr.WrapStore("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return store.User{}, apperr.New("password is too long", err, apperr.ErrBadArgument)
		} else {
			return store.User{}, apperr.New("password could not be encrypted", err)
		}
	}

	storedPass := base64.StdEncoding.EncodeToString(passHash)

	existing.Password = storedPass

	updated, err := svc.DB.Users().Update(ctx, uuidID, existing)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperr.New("no user with that ID exists", apperr.ErrNotFound)
		}
		return store.User{}, apperr.WrapStore("could not update user", err)
	}

	return updated, nil
}

// DeleteUser deletes the user with the given ID. It returns the deleted user
// just after they were deleted.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no user with that
// username exists, it will match apperr.ErrNotFound. If the error occured
// due to an unexpected problem with the store, it will match apperr.ErrStore.
// Finally, if there is an issue with one of the arguments, it will match
// apperr.ErrBadArgument.
func (svc Service) DeleteUser(ctx context.Context, id string) (store.User, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return store.User{}, apperr.New("ID is not valid", apperr.ErrBadArgument)
	}

	user, err := svc.DB.Users().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperr.ErrNotFound
		}
		return store.User{}, apperr.WrapStore("could not delete user", err)
	}

	return user, nil
}
