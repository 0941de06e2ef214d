package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tixcli/internal/warehouse"
	"tixcli/pkg/contracts/domain"
)

func seedWarehouse(t *testing.T, ids ...string) *warehouse.MemoryWarehouse {
	t.Helper()
	w := warehouse.NewMemoryWarehouse()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)
	for _, id := range ids {
		_, err := w.InsertSnapshots(context.Background(), []*domain.PerformanceSnapshot{{
			SnapshotID:      id,
			PerformanceCode: "X-20241201",
			Title:           "X",
			Series:          "Classical",
			SnapshotDate:    date,
			PerformanceDate: date.AddDate(0, 1, 0),
			FiscalYear:      "FY25",
			FiscalWeek:      18,
			ISOWeek:         45,
			Source:          "tixcli",
		}})
		require.NoError(t, err)
	}
	return w
}

func TestIDCacheLoadsOncePerYear(t *testing.T) {
	w := seedWarehouse(t, "a", "b")
	c := NewIDCache(w)
	ctx := context.Background()

	ids, err := c.Existing(ctx, "FY25")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	// Second lookup is served from the cache even after the warehouse
	// gains a row.
	_, err = w.InsertSnapshots(ctx, []*domain.PerformanceSnapshot{{
		SnapshotID:      "c",
		PerformanceCode: "X-20241201",
		Title:           "X",
		Series:          "Classical",
		SnapshotDate:    time.Date(2024, time.November, 11, 0, 0, 0, 0, time.UTC),
		PerformanceDate: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
		FiscalYear:      "FY25",
		FiscalWeek:      19,
		ISOWeek:         46,
		Source:          "tixcli",
	}})
	require.NoError(t, err)

	ids, err = c.Existing(ctx, "FY25")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestIDCacheAddOnlyTouchesLoadedYears(t *testing.T) {
	c := NewIDCache(seedWarehouse(t, "a"))
	ctx := context.Background()

	// Adding to an unloaded year is a no-op; the eventual load must come
	// from the warehouse, not from a partially built set.
	c.Add("FY25", "b")
	ids, err := c.Existing(ctx, "FY25")
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	c.Add("FY25", "b")
	ids, err = c.Existing(ctx, "FY25")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestIDCacheInvalidate(t *testing.T) {
	w := seedWarehouse(t, "a")
	c := NewIDCache(w)
	ctx := context.Background()

	_, err := c.Existing(ctx, "FY25")
	require.NoError(t, err)

	_, err = w.DeleteFiscalYears(ctx, []string{"FY25"})
	require.NoError(t, err)

	c.Invalidate("FY25")
	ids, err := c.Existing(ctx, "FY25")
	require.NoError(t, err)
	assert.Empty(t, ids)

	c.InvalidateAll()
	_, misses := c.Stats()
	assert.Equal(t, int64(2), misses)
}
