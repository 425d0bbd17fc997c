package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

func pgCode(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports a unique violation on any constraint.
func IsUniqueViolation(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports a reference to a missing row.
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == foreignKeyViolation
}

// IsCheckViolation reports a failed CHECK constraint.
func IsCheckViolation(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == checkViolation
}

// IsNoRows reports whether a single-row query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
