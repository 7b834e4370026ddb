// Package pg implements the entity-scoped query executor over
// PostgreSQL. Table and column names come from schema metadata, so
// every identifier is quoted before it reaches SQL; values always
// travel as parameters.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"gatehouse.org/internal/schema"
)

// ErrNotFound reports an absent row.
var ErrNotFound = errors.New("pg: not found")

// Store wraps the database handle and the transaction primitive the
// row-level injector composes with.
type Store struct {
	db *sql.DB
}

// Open connects via the pgx stdlib driver with pool defaults tuned for
// the API workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (tests).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Transaction runs fn inside a single transaction, rolling back on
// error.
func (s *Store) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByIdentifiers fetches the identity row whose value matches any
// configured identifier field, as one OR-combined query.
func (s *Store) FindByIdentifiers(ctx context.Context, ident schema.Identity, value string) (map[string]any, error) {
	if len(ident.IdentifierFields) == 0 {
		return nil, fmt.Errorf("pg: identity %s has no identifier fields", ident.Entity)
	}
	preds := make([]string, 0, len(ident.IdentifierFields))
	args := make([]any, 0, len(ident.IdentifierFields))
	for i, field := range ident.IdentifierFields {
		preds = append(preds, fmt.Sprintf("%s = $%d", quote(field), i+1))
		args = append(args, value)
	}
	query := fmt.Sprintf("select %s from %s where %s limit 1",
		columnList(ident), quote(ident.Table), strings.Join(preds, " or "))
	return s.queryOne(ctx, query, args...)
}

// FindByField fetches the identity row matching a single field.
func (s *Store) FindByField(ctx context.Context, ident schema.Identity, field, value string) (map[string]any, error) {
	query := fmt.Sprintf("select %s from %s where %s = $1 limit 1",
		columnList(ident), quote(ident.Table), quote(field))
	return s.queryOne(ctx, query, value)
}

// FindByPK fetches the identity row by primary key.
func (s *Store) FindByPK(ctx context.Context, ident schema.Identity, id string) (map[string]any, error) {
	return s.FindByField(ctx, ident, ident.PKField, id)
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	row, err := scanRow(rows)
	if err != nil {
		return nil, err
	}
	return row, rows.Err()
}

// scanRow reads the current row into a column-keyed map, normalizing
// driver byte slices to strings.
func scanRow(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	for i := range values {
		values[i] = new(any)
	}
	if err := rows.Scan(values...); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		v := *(values[i].(*any))
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[col] = v
	}
	return row, nil
}

func columnList(ident schema.Identity) string {
	if len(ident.Fields) == 0 {
		return "*"
	}
	quoted := make([]string, len(ident.Fields))
	for i, f := range ident.Fields {
		quoted[i] = quote(f)
	}
	return strings.Join(quoted, ", ")
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
