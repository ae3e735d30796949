package repository

import (
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == pgUniqueViolation }

func isForeignKeyViolation(err error) bool { return pgCode(err) == pgForeignKeyViolation }

// isUUID reports whether id can match a UUID primary key. Lookups with any
// other id are answered NOT_FOUND without a query, since Postgres rejects
// the cast with an error rather than returning no rows.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
