package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tixerrors "tixcli/internal/errors"
	"tixcli/internal/warehouse"
	"tixcli/pkg/contracts/domain"
)

func validSnapshot(code string, snapshotDate time.Time) *domain.PerformanceSnapshot {
	return &domain.PerformanceSnapshot{
		SnapshotID:      domain.SnapshotID(code, snapshotDate, "tixcli"),
		PerformanceCode: code,
		Title:           "Test Concert",
		Series:          "Classical",
		SnapshotDate:    snapshotDate,
		PerformanceDate: snapshotDate.AddDate(0, 1, 0),
		FiscalYear:      "FY25",
		FiscalWeek:      18,
		ISOWeek:         44,
		TotalTickets:    200,
		TotalRevenue:    7200,
		Source:          "tixcli",
	}
}

func testOptions() Options {
	return Options{BatchSize: 2, MaxRetries: 2, RetryBase: time.Millisecond, WritesPerSec: 1000}
}

func TestIngestAppendIsIdempotent(t *testing.T) {
	w := warehouse.NewMemoryWarehouse()
	g := NewIngestor(nil, w, testOptions())
	ctx := context.Background()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	batch := []*domain.PerformanceSnapshot{
		validSnapshot("A-20241201", date),
		validSnapshot("B-20241215", date),
		validSnapshot("C-20250110", date),
	}

	sum, err := g.Ingest(ctx, batch, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Inserted)
	assert.Equal(t, 0, sum.SkippedExisting)
	assert.Equal(t, 3, w.Count())

	// Running the same batch again writes nothing.
	sum, err = g.Ingest(ctx, batch, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Inserted)
	assert.Equal(t, 3, sum.SkippedExisting)
	assert.Equal(t, 3, w.Count())
}

func TestIngestClearReplacesFiscalYear(t *testing.T) {
	w := warehouse.NewMemoryWarehouse()
	g := NewIngestor(nil, w, testOptions())
	ctx := context.Background()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	_, err := g.Ingest(ctx, []*domain.PerformanceSnapshot{
		validSnapshot("A-20241201", date),
		validSnapshot("B-20241215", date),
	}, ModeAppend)
	require.NoError(t, err)

	sum, err := g.Ingest(ctx, []*domain.PerformanceSnapshot{
		validSnapshot("C-20250110", date),
	}, ModeClear)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Deleted)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, w.Count())
}

func TestIngestReportsRowFailuresWithoutFailingRun(t *testing.T) {
	w := warehouse.NewMemoryWarehouse()
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)
	bad := validSnapshot("B-20241215", date)
	w.RejectIDs = map[string]string{bad.SnapshotID: "schema mismatch"}

	g := NewIngestor(nil, w, testOptions())
	sum, err := g.Ingest(context.Background(), []*domain.PerformanceSnapshot{
		validSnapshot("A-20241201", date),
		bad,
		validSnapshot("C-20250110", date),
	}, ModeAppend)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Inserted)
	require.Len(t, sum.Failures, 1)
	assert.Equal(t, bad.SnapshotID, sum.Failures[0].SnapshotID)
	assert.Equal(t, 1, sum.Failures[0].Index)
}

func TestIngestDropsInvalidSnapshots(t *testing.T) {
	w := warehouse.NewMemoryWarehouse()
	g := NewIngestor(nil, w, testOptions())
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	invalid := validSnapshot("A-20241201", date)
	invalid.Series = ""

	sum, err := g.Ingest(context.Background(), []*domain.PerformanceSnapshot{
		invalid,
		validSnapshot("B-20241215", date),
	}, ModeAppend)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Invalid)
	assert.Equal(t, 1, sum.Validated)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 1, w.Count())
}

// flakyWarehouse fails InsertSnapshots a fixed number of times before
// delegating to the real backend.
type flakyWarehouse struct {
	*warehouse.MemoryWarehouse
	failures  int
	transient bool
	calls     int
}

func (f *flakyWarehouse) InsertSnapshots(ctx context.Context, snapshots []*domain.PerformanceSnapshot) (*warehouse.WriteResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, tixerrors.NewWarehouseWriteFailure("injected", nil, f.transient)
	}
	return f.MemoryWarehouse.InsertSnapshots(ctx, snapshots)
}

func TestIngestRetriesTransientFailures(t *testing.T) {
	w := &flakyWarehouse{MemoryWarehouse: warehouse.NewMemoryWarehouse(), failures: 2, transient: true}
	g := NewIngestor(nil, w, testOptions())
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	sum, err := g.Ingest(context.Background(), []*domain.PerformanceSnapshot{
		validSnapshot("A-20241201", date),
	}, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)
	assert.Equal(t, 3, w.calls)
}

func TestIngestDoesNotRetryPermanentFailures(t *testing.T) {
	w := &flakyWarehouse{MemoryWarehouse: warehouse.NewMemoryWarehouse(), failures: 1, transient: false}
	g := NewIngestor(nil, w, testOptions())
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	_, err := g.Ingest(context.Background(), []*domain.PerformanceSnapshot{
		validSnapshot("A-20241201", date),
	}, ModeAppend)
	require.Error(t, err)
	assert.Equal(t, 1, w.calls)
}

func TestIngestExhaustsRetries(t *testing.T) {
	w := &flakyWarehouse{MemoryWarehouse: warehouse.NewMemoryWarehouse(), failures: 10, transient: true}
	g := NewIngestor(nil, w, testOptions())
	date := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	_, err := g.Ingest(context.Background(), []*domain.PerformanceSnapshot{
		validSnapshot("A-20241201", date),
	}, ModeAppend)
	require.Error(t, err)
	assert.True(t, tixerrors.IsTransient(err))
	// One initial attempt plus MaxRetries.
	assert.Equal(t, 3, w.calls)
}
