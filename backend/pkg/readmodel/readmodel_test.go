package readmodel

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsCreateProjectionTables(t *testing.T) {
	files, err := fs.Glob(Migrations(), "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"001_init.sql"}, files)

	schema, err := fs.ReadFile(Migrations(), "001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"users", "properties", "ownership_transfers"} {
		require.Contains(t, string(schema), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
