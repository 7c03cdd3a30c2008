package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/opgparse/internal/store"
	"github.com/google/uuid"
)

type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		terminals TEXT NOT NULL,
		nonterminals TEXT NOT NULL,
		matrix TEXT NOT NULL,
		rules TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g store.Grammar) (store.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return store.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO grammars (id, name, terminals, nonterminals, matrix, rules, created, modified) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return store.Grammar{}, wrapDBError(err)
	}
	now := time.Now()

	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		g.Name,
		convertToDB_Binary(store.StringList(g.Terminals)),
		convertToDB_Binary(store.StringList(g.NonTerminals)),
		convertToDB_Binary(store.U32List(g.Matrix)),
		convertToDB_Binary(store.U32List(g.Rules)),
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return store.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

// scanGrammar reads one grammars row's columns (minus whichever identity
// column the query filtered on) into g.
func scanGrammar(g *store.Grammar, terminals, nonterminals, matrix, rules string, created, modified int64) error {
	var termList, ntList store.StringList
	var matList, ruleList store.U32List

	if err := convertFromDB_Binary(terminals, &termList); err != nil {
		return fmt.Errorf("stored terminal alphabet is invalid: %w", err)
	}
	if err := convertFromDB_Binary(nonterminals, &ntList); err != nil {
		return fmt.Errorf("stored nonterminal alphabet is invalid: %w", err)
	}
	if err := convertFromDB_Binary(matrix, &matList); err != nil {
		return fmt.Errorf("stored precedence matrix is invalid: %w", err)
	}
	if err := convertFromDB_Binary(rules, &ruleList); err != nil {
		return fmt.Errorf("stored rule table is invalid: %w", err)
	}

	g.Terminals = termList
	g.NonTerminals = ntList
	g.Matrix = matList
	g.Rules = ruleList
	convertFromDB_Time(created, &g.Created)
	convertFromDB_Time(modified, &g.Modified)
	return nil
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (store.Grammar, error) {
	g := store.Grammar{
		ID: id,
	}
	var terminals, nonterminals, matrix, rules string
	var created, modified int64

	row := repo.db.QueryRowContext(ctx, `SELECT name, terminals, nonterminals, matrix, rules, created, modified FROM grammars WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	err := row.Scan(
		&g.Name,
		&terminals,
		&nonterminals,
		&matrix,
		&rules,
		&created,
		&modified,
	)

	if err != nil {
		return g, wrapDBError(err)
	}

	if err := scanGrammar(&g, terminals, nonterminals, matrix, rules, created, modified); err != nil {
		return g, err
	}

	return g, nil
}

func (repo *GrammarsDB) GetByName(ctx context.Context, name string) (store.Grammar, error) {
	g := store.Grammar{
		Name: name,
	}
	var id string
	var terminals, nonterminals, matrix, rules string
	var created, modified int64

	row := repo.db.QueryRowContext(ctx, `SELECT id, terminals, nonterminals, matrix, rules, created, modified FROM grammars WHERE name = ?;`,
		name,
	)
	err := row.Scan(
		&id,
		&terminals,
		&nonterminals,
		&matrix,
		&rules,
		&created,
		&modified,
	)

	if err != nil {
		return g, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &g.ID); err != nil {
		return g, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	if err := scanGrammar(&g, terminals, nonterminals, matrix, rules, created, modified); err != nil {
		return g, err
	}

	return g, nil
}

func (repo *GrammarsDB) GetAll(ctx context.Context) ([]store.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, name, terminals, nonterminals, matrix, rules, created, modified FROM grammars ORDER BY name;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []store.Grammar

	for rows.Next() {
		var g store.Grammar
		var id string
		var terminals, nonterminals, matrix, rules string
		var created, modified int64
		err = rows.Scan(
			&id,
			&g.Name,
			&terminals,
			&nonterminals,
			&matrix,
			&rules,
			&created,
			&modified,
		)

		if err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &g.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		if err := scanGrammar(&g, terminals, nonterminals, matrix, rules, created, modified); err != nil {
			return all, err
		}

		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *GrammarsDB) Update(ctx context.Context, id uuid.UUID, g store.Grammar) (store.Grammar, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE grammars SET id=?, name=?, terminals=?, nonterminals=?, matrix=?, rules=?, modified=? WHERE id=?;`,
		convertToDB_UUID(g.ID),
		g.Name,
		convertToDB_Binary(store.StringList(g.Terminals)),
		convertToDB_Binary(store.StringList(g.NonTerminals)),
		convertToDB_Binary(store.U32List(g.Matrix)),
		convertToDB_Binary(store.U32List(g.Rules)),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err != nil {
		return store.Grammar{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return store.Grammar{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return store.Grammar{}, store.ErrNotFound
	}

	return repo.GetByID(ctx, g.ID)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (store.Grammar, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?`, convertToDB_UUID(id))
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

func (repo *GrammarsDB) Close() error {
	return repo.db.Close()
}
