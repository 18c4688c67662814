package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert products: %w", &pgconn.PgError{Code: SQLStateUniqueViolation})
	fk := &pgconn.PgError{Code: SQLStateForeignKeyViolation}
	check := &pgconn.PgError{Code: SQLStateCheckViolation}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.True(t, IsCheckViolation(check))
	assert.Equal(t, "", PgErrorCode(fmt.Errorf("plain")))
}

func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("insert document: %w", &pgconn.PgError{
		Code:           SQLStateForeignKeyViolation,
		ConstraintName: "documents_user_id_fkey",
	})
	assert.Equal(t, "documents_user_id_fkey", ConstraintName(err))
	assert.Equal(t, "", ConstraintName(fmt.Errorf("plain")))
}
