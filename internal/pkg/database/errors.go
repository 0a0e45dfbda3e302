package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique_violation, optionally
// restricted to one constraint name.
func IsUniqueViolation(err error, constraint ...string) bool {
	return isPgError(err, codeUniqueViolation, constraint...)
}

func IsForeignKeyViolation(err error, constraint ...string) bool {
	return isPgError(err, codeForeignKeyViolation, constraint...)
}

func isPgError(err error, code string, constraint ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}
