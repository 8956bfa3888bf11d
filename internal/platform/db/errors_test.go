package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "customers_code_key"})
	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "customers_code_key"))
	require.False(t, IsUniqueViolation(err, "products_sku_key"))
	require.False(t, IsUniqueViolation(errors.New("boom"), ""))
}

func TestForeignKeyViolation(t *testing.T) {
	err := fmt.Errorf("insert movement: %w", &pgconn.PgError{Code: "23503", ConstraintName: "inventory_movements_warehouse_id_fkey"})
	constraint, ok := ForeignKeyViolation(err)
	require.True(t, ok)
	require.Equal(t, "inventory_movements_warehouse_id_fkey", constraint)

	_, ok = ForeignKeyViolation(&pgconn.PgError{Code: "23505"})
	require.False(t, ok)
	_, ok = ForeignKeyViolation(pgx.ErrNoRows)
	require.False(t, ok)
}

func TestIsNoRows(t *testing.T) {
	require.True(t, IsNoRows(fmt.Errorf("load: %w", pgx.ErrNoRows)))
	require.False(t, IsNoRows(errors.New("boom")))
}
