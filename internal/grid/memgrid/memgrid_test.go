package memgrid_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/grid/gridtest"
	"github.com/JonMunkholm/rowstore/internal/grid/memgrid"
)

func TestConformance(t *testing.T) {
	gridtest.Run(t, func(t *testing.T, maxRows int) grid.Workbook {
		return memgrid.New(maxRows)
	})
}

func TestRegistered(t *testing.T) {
	wb, err := grid.Open(context.Background(), "memory", grid.Options{DefaultMaxRows: 5})
	require.NoError(t, err)
	defer wb.Close()

	s, err := wb.AddSheet(context.Background(), "Sheet1")
	require.NoError(t, err)

	maxRows, err := s.MaxRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, maxRows)
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	wb := memgrid.New(0)
	s, err := wb.AddSheet(ctx, "Sheet1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, row, 1, [][]any{{row}}))
		}(i + 1)
	}
	wg.Wait()

	lastRow, err := s.LastRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, lastRow)
}
