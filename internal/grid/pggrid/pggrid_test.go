package pggrid_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/grid/gridtest"
	"github.com/JonMunkholm/rowstore/internal/grid/pggrid"
)

// TestConformance runs against a live database and is skipped unless
// TEST_DATABASE_URL is set. Tables are truncated between subtests.
func TestConformance(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	wb, err := pggrid.Open(ctx, grid.Options{URL: url, MaxConns: 4})
	require.NoError(t, err)
	wb.Close()

	gridtest.Run(t, func(t *testing.T, maxRows int) grid.Workbook {
		pool, err := pgxpool.New(ctx, url)
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		_, err = pool.Exec(ctx, `TRUNCATE grid_sheets, grid_cells, grid_checkboxes RESTART IDENTITY`)
		require.NoError(t, err)

		return pggrid.New(pool, maxRows)
	})
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := pggrid.Open(context.Background(), grid.Options{})
	require.Error(t, err)
}
