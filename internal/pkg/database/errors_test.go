package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert employee: %w", &pgconn.PgError{Code: "23505", ConstraintName: "employees_company_id_email_key"})

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(err, "employees_company_id_email_key"))
	assert.False(t, IsUniqueViolation(err, "companies_username_key"))
	assert.False(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", pgx5URL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u:p@h/db", pgx5URL("postgresql://u:p@h/db"))
	assert.Equal(t, "pgx5://already", pgx5URL("pgx5://already"))
}
