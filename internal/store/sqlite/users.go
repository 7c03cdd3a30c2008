package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/opgparse/internal/store"
	"github.com/google/uuid"
)

type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		last_logout INTEGER NOT NULL,
		last_login INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user store.User) (store.User, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return store.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO users (id, username, password, email, role, created, modified, last_logout, last_login) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return store.User{}, wrapDBError(err)
	}
	now := time.Now()

	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		user.Username,
		user.Password,
		convertToDB_Email(user.Email),
		convertToDB_Role(user.Role),
		convertToDB_Time(now),
		convertToDB_Time(now),
		convertToDB_Time(now),
		convertToDB_Time(user.LastLoginTime),
	)
	if err != nil {
		return store.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (store.User, error) {
	user := store.User{
		ID: id,
	}
	var email string
	var role string
	var created int64
	var modified int64
	var lastLogout int64
	var lastLogin int64

	row := repo.db.QueryRowContext(ctx, `SELECT username, password, email, role, created, modified, last_logout, last_login FROM users WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	err := row.Scan(
		&user.Username,
		&user.Password,
		&email,
		&role,
		&created,
		&modified,
		&lastLogout,
		&lastLogin,
	)

	if err != nil {
		return user, wrapDBError(err)
	}

	if err := convertFromDB_Email(email, &user.Email); err != nil {
		return user, fmt.Errorf("stored email %q is invalid: %w", email, err)
	}
	if err := convertFromDB_Role(role, &user.Role); err != nil {
		return user, fmt.Errorf("stored role %q is invalid: %w", role, err)
	}
	convertFromDB_Time(created, &user.Created)
	convertFromDB_Time(modified, &user.Modified)
	convertFromDB_Time(lastLogout, &user.LastLogoutTime)
	convertFromDB_Time(lastLogin, &user.LastLoginTime)

	return user, nil
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (store.User, error) {
	user := store.User{
		Username: username,
	}
	var id string
	var email string
	var role string
	var created int64
	var modified int64
	var lastLogout int64
	var lastLogin int64

	row := repo.db.QueryRowContext(ctx, `SELECT id, password, email, role, created, modified, last_logout, last_login FROM users WHERE username = ?;`,
		username,
	)
	err := row.Scan(
		&id,
		&user.Password,
		&email,
		&role,
		&created,
		&modified,
		&lastLogout,
		&lastLogin,
	)

	if err != nil {
		return user, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &user.ID); err != nil {
		return user, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	if err := convertFromDB_Email(email, &user.Email); err != nil {
		return user, fmt.Errorf("stored email %q is invalid: %w", email, err)
	}
	if err := convertFromDB_Role(role, &user.Role); err != nil {
		return user, fmt.Errorf("stored role %q is invalid: %w", role, err)
	}
	convertFromDB_Time(created, &user.Created)
	convertFromDB_Time(modified, &user.Modified)
	convertFromDB_Time(lastLogout, &user.LastLogoutTime)
	convertFromDB_Time(lastLogin, &user.LastLoginTime)

	return user, nil
}

func (repo *UsersDB) GetAll(ctx context.Context) ([]store.User, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, username, password, email, role, created, modified, last_logout, last_login FROM users ORDER BY id;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.User

	for rows.Next() {
		var user store.User
		var id string
		var email string
		var role string
		var created int64
		var modified int64
		var lastLogout int64
		var lastLogin int64
		err = rows.Scan(
			&id,
			&user.Username,
			&user.Password,
			&email,
			&role,
			&created,
			&modified,
			&lastLogout,
			&lastLogin,
		)

		if err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &user.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		if err := convertFromDB_Email(email, &user.Email); err != nil {
			return all, fmt.Errorf("stored email %q is invalid: %w", email, err)
		}
		if err := convertFromDB_Role(role, &user.Role); err != nil {
			return all, fmt.Errorf("stored role %q is invalid: %w", role, err)
		}
		convertFromDB_Time(created, &user.Created)
		convertFromDB_Time(modified, &user.Modified)
		convertFromDB_Time(lastLogout, &user.LastLogoutTime)
		convertFromDB_Time(lastLogin, &user.LastLoginTime)

		all = append(all, user)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *UsersDB) Update(ctx context.Context, id uuid.UUID, user store.User) (store.User, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET id=?, username=?, password=?, email=?, role=?, modified=?, last_logout=?, last_login=? WHERE id=?;`,
		convertToDB_UUID(user.ID),
		user.Username,
		user.Password,
		convertToDB_Email(user.Email),
		convertToDB_Role(user.Role),
		convertToDB_Time(time.Now()),
		convertToDB_Time(user.LastLogoutTime),
		convertToDB_Time(user.LastLoginTime),
		convertToDB_UUID(id),
	)
	if err != nil {
		return store.User{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return store.User{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return store.User{}, store.ErrNotFound
	}

	return repo.GetByID(ctx, user.ID)
}

func (repo *UsersDB) Delete(ctx context.Context, id uuid.UUID) (store.User, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, convertToDB_UUID(id))
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, store.ErrNotFound
	}

	return curVal, nil
}

func (repo *UsersDB) Close() error {
	return repo.db.Close()
}
