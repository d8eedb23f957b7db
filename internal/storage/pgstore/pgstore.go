// Package pgstore provides the PostgreSQL storage backend on top of pgx.
// Technician id sets and payment method lists are stored as native arrays;
// callers only ever see Go slices.
package pgstore

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint failures.
const uniqueViolation = "23505"

// psql builds statements with dollar placeholders for pgx.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store is the PostgreSQL implementation of storage.Store.
type Store struct {
	db Database
}

// New creates a new Store instance using the provided Database connection.
func New(db Database) *Store {
	return &Store{db: db}
}

// Ping checks the connection to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.db.Close()
}

// isUniqueViolation reports whether err is a PostgreSQL unique-key violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
