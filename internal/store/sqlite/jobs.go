package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/opgparse/internal/store"
	"github.com/dekarrin/opgparse/internal/sym"
	"github.com/google/uuid"
)

type JobsDB struct {
	db *sql.DB
}

func (repo *JobsDB) init() error {
	// FKs not possible due to separate table files.
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		grammar_id TEXT NOT NULL,
		chunk_size INTEGER NOT NULL,
		input TEXT NOT NULL,
		results TEXT NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func convertToDB_SymString(s []sym.Sym) string {
	words := make(store.U32List, len(s))
	for i, v := range s {
		words[i] = uint32(v)
	}
	return convertToDB_Binary(words)
}

func convertFromDB_SymString(s string, target *[]sym.Sym) error {
	var words store.U32List
	if err := convertFromDB_Binary(s, &words); err != nil {
		return err
	}
	out := make([]sym.Sym, len(words))
	for i, v := range words {
		out[i] = sym.Sym(v)
	}
	*target = out
	return nil
}

func (repo *JobsDB) Create(ctx context.Context, job store.Job) (store.Job, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return store.Job{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO jobs (id, user_id, grammar_id, chunk_size, input, results, created) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return store.Job{}, wrapDBError(err)
	}
	now := time.Now()

	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(job.UserID),
		convertToDB_UUID(job.GrammarID),
		job.ChunkSize,
		convertToDB_SymString(job.Input),
		convertToDB_Binary(job.Results),
		convertToDB_Time(now),
	)
	if err != nil {
		return store.Job{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *JobsDB) GetByID(ctx context.Context, id uuid.UUID) (store.Job, error) {
	job := store.Job{
		ID: id,
	}
	var userID, grammarID string
	var input, results string
	var created int64

	row := repo.db.QueryRowContext(ctx, `SELECT user_id, grammar_id, chunk_size, input, results, created FROM jobs WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	err := row.Scan(
		&userID,
		&grammarID,
		&job.ChunkSize,
		&input,
		&results,
		&created,
	)

	if err != nil {
		return job, wrapDBError(err)
	}

	if err := convertFromDB_UUID(userID, &job.UserID); err != nil {
		return job, fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
	}
	if err := convertFromDB_UUID(grammarID, &job.GrammarID); err != nil {
		return job, fmt.Errorf("stored grammar ID %q is invalid: %w", grammarID, err)
	}
	if err := convertFromDB_SymString(input, &job.Input); err != nil {
		return job, fmt.Errorf("stored input for %s is invalid: %w", job.ID.String(), err)
	}
	if err := convertFromDB_Binary(results, &job.Results); err != nil {
		return job, fmt.Errorf("stored results for %s are invalid: %w", job.ID.String(), err)
	}
	convertFromDB_Time(created, &job.Created)

	return job, nil
}

func (repo *JobsDB) getAllWhere(ctx context.Context, where string, args ...interface{}) ([]store.Job, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, grammar_id, chunk_size, input, results, created FROM jobs `+where+` ORDER BY id;`, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.Job

	for rows.Next() {
		var job store.Job
		var id, userID, grammarID string
		var input, results string
		var created int64
		err = rows.Scan(
			&id,
			&userID,
			&grammarID,
			&job.ChunkSize,
			&input,
			&results,
			&created,
		)

		if err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &job.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		if err := convertFromDB_UUID(userID, &job.UserID); err != nil {
			return all, fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
		}
		if err := convertFromDB_UUID(grammarID, &job.GrammarID); err != nil {
			return all, fmt.Errorf("stored grammar ID %q is invalid: %w", grammarID, err)
		}
		if err := convertFromDB_SymString(input, &job.Input); err != nil {
			return all, fmt.Errorf("stored input for %s is invalid: %w", job.ID.String(), err)
		}
		if err := convertFromDB_Binary(results, &job.Results); err != nil {
			return all, fmt.Errorf("stored results for %s are invalid: %w", job.ID.String(), err)
		}
		convertFromDB_Time(created, &job.Created)

		all = append(all, job)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *JobsDB) GetAll(ctx context.Context) ([]store.Job, error) {
	return repo.getAllWhere(ctx, "")
}

func (repo *JobsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]store.Job, error) {
	return repo.getAllWhere(ctx, "WHERE user_id=?", convertToDB_UUID(userID))
}

func (repo *JobsDB) GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]store.Job, error) {
	return repo.getAllWhere(ctx, "WHERE grammar_id=?", convertToDB_UUID(grammarID))
}

func (repo *JobsDB) Delete(ctx context.Context, id uuid.UUID) (store.Job, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, convertToDB_UUID(id))
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

func (repo *JobsDB) Close() error {
	return repo.db.Close()
}
