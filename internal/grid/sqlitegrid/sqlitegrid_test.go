package sqlitegrid_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/grid/gridtest"
	"github.com/JonMunkholm/rowstore/internal/grid/sqlitegrid"
)

func openTemp(t *testing.T, maxRows int) *sqlitegrid.Workbook {
	t.Helper()
	wb, err := sqlitegrid.Open(context.Background(), filepath.Join(t.TempDir(), "grid.db"), maxRows)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	return wb
}

func TestConformance(t *testing.T) {
	gridtest.Run(t, func(t *testing.T, maxRows int) grid.Workbook {
		return openTemp(t, maxRows)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlitegrid.Open(context.Background(), "", 0)
	require.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grid.db")

	wb, err := sqlitegrid.Open(ctx, path, 10)
	require.NoError(t, err)
	s, err := wb.AddSheet(ctx, "Users")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, 1, 1, [][]any{{"id", "name"}, {"u1", "Ann"}}))
	require.NoError(t, s.SetColumnTypes(ctx, map[string]string{"name": "string"}))
	require.NoError(t, wb.Close())

	wb, err = sqlitegrid.Open(ctx, path, 10)
	require.NoError(t, err)
	defer wb.Close()

	s, err = wb.Sheet(ctx, "Users")
	require.NoError(t, err)

	data, err := grid.DataRange(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"id", "name"}, {"u1", "Ann"}}, data)

	types, err := s.ColumnTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "string"}, types)
}

func TestRegistered(t *testing.T) {
	wb, err := grid.Open(context.Background(), "sqlite", grid.Options{
		Path: filepath.Join(t.TempDir(), "grid.db"),
	})
	require.NoError(t, err)
	require.NoError(t, wb.Close())
}
