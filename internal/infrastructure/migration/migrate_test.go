package migration

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/migrations"
)

func TestDatabaseURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/db?sslmode=disable": "pgx5://u:p@localhost:5432/db?sslmode=disable",
		"postgresql://localhost/db":                        "pgx5://localhost/db",
		"pgx5://localhost/db":                              "pgx5://localhost/db",
	}
	for in, want := range tests {
		assert.Equal(t, want, DatabaseURL(in), in)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))

	inventory, err := fs.ReadFile(migrations.FS, "000002_inventory.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(inventory), "uq_inv_movements_reference")
	assert.Contains(t, string(inventory), "ck_inv_batches_quantity")
}
