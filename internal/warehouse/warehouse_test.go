package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tixcli/pkg/contracts/domain"
)

func testSnapshot(code string, snapshotDate time.Time, fiscalYear string) *domain.PerformanceSnapshot {
	return &domain.PerformanceSnapshot{
		SnapshotID:      domain.SnapshotID(code, snapshotDate, "tixcli"),
		PerformanceCode: code,
		Title:           "Test Concert",
		Series:          "Classical",
		SnapshotDate:    snapshotDate,
		PerformanceDate: snapshotDate.AddDate(0, 1, 0),
		FiscalYear:      fiscalYear,
		FiscalWeek:      18,
		ISOWeek:         44,
		TotalTickets:    200,
		TotalRevenue:    7200,
		Source:          "tixcli",
	}
}

func TestMemoryInsertIsIdempotent(t *testing.T) {
	w := NewMemoryWarehouse()
	ctx := context.Background()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	batch := []*domain.PerformanceSnapshot{
		testSnapshot("A-20241201", date, "FY25"),
		testSnapshot("B-20241215", date, "FY25"),
	}

	res, err := w.InsertSnapshots(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Empty(t, res.Failures)

	// Re-inserting the same IDs is a no-op, not an error.
	res, err = w.InsertSnapshots(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, w.Count())
}

func TestMemoryPartialFailure(t *testing.T) {
	w := NewMemoryWarehouse()
	ctx := context.Background()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	good := testSnapshot("A-20241201", date, "FY25")
	bad := testSnapshot("B-20241215", date, "FY25")
	w.RejectIDs = map[string]string{bad.SnapshotID: "schema mismatch"}

	res, err := w.InsertSnapshots(ctx, []*domain.PerformanceSnapshot{good, bad})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Equal(t, bad.SnapshotID, res.Failures[0].SnapshotID)
	assert.Equal(t, "schema mismatch", res.Failures[0].Reason)
	assert.NotNil(t, w.Snapshot(good.SnapshotID))
	assert.Nil(t, w.Snapshot(bad.SnapshotID))
}

func TestMemoryExistingSnapshotIDsFiltersByFiscalYear(t *testing.T) {
	w := NewMemoryWarehouse()
	ctx := context.Background()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	_, err := w.InsertSnapshots(ctx, []*domain.PerformanceSnapshot{
		testSnapshot("A-20241201", date, "FY25"),
		testSnapshot("B-20251201", date.AddDate(1, 0, 0), "FY26"),
	})
	require.NoError(t, err)

	ids, err := w.ExistingSnapshotIDs(ctx, []string{"FY25"})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	_, err = w.ExistingSnapshotIDs(ctx, []string{"FY2025"})
	assert.Error(t, err)
}

func TestMemoryDeleteFiscalYears(t *testing.T) {
	w := NewMemoryWarehouse()
	ctx := context.Background()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	_, err := w.InsertSnapshots(ctx, []*domain.PerformanceSnapshot{
		testSnapshot("A-20241201", date, "FY25"),
		testSnapshot("B-20241215", date, "FY25"),
		testSnapshot("C-20251201", date.AddDate(1, 0, 0), "FY26"),
	})
	require.NoError(t, err)

	deleted, err := w.DeleteFiscalYears(ctx, []string{"FY25"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 1, w.Count())
}

func TestWriteResultMerge(t *testing.T) {
	total := &WriteResult{}
	total.Merge(&WriteResult{Inserted: 3}, 0)
	total.Merge(&WriteResult{
		Inserted: 2,
		Failures: []RowFailure{{Index: 1, SnapshotID: "X", Reason: "bad"}},
	}, 3)

	assert.Equal(t, 5, total.Inserted)
	require.Len(t, total.Failures, 1)
	assert.Equal(t, 4, total.Failures[0].Index)
}

func TestSnapshotJSONOmitsUnresolvedChannels(t *testing.T) {
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)
	s := testSnapshot("A-20241201", date, "FY25")

	row := snapshotJSON(s)
	assert.NotContains(t, row, "single_tickets")
	assert.NotContains(t, row, "subscription_revenue")
	assert.Equal(t, "2024-11-04", row["snapshot_date"])

	tickets := int64(120)
	s.SingleTickets = &tickets
	row = snapshotJSON(s)
	assert.Equal(t, int64(120), row["single_tickets"])
}
