package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "uq_inv_movements_reference"})

	assert.True(t, IsUniqueViolation(err, "uq_inv_movements_reference"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "uq_cat_products_sku"))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
	assert.Equal(t, CodeUniqueViolation, PgErrorCode(err))
	assert.Equal(t, "", PgErrorCode(errors.New("plain")))
}

func TestIsCheckViolation(t *testing.T) {
	err := &pgconn.PgError{Code: CodeCheckViolation, ConstraintName: "ck_inv_batches_quantity"}
	assert.True(t, IsCheckViolation(err, "ck_inv_batches_quantity"))
	assert.False(t, IsUniqueViolation(err, ""))
}
