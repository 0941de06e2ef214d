package normalize

import (
	"log/slog"

	"tixcli/internal/document"
	tixerrors "tixcli/internal/errors"
	"tixcli/pkg/contracts/domain"
)

// Normalizer converts raw SalesRecords into canonical
// PerformanceSnapshots.
type Normalizer struct {
	logger *slog.Logger
	source string
}

// NewNormalizer creates a normalizer stamping snapshots with the given
// provenance source tag.
func NewNormalizer(logger *slog.Logger, source string) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger, source: source}
}

// Normalize resolves the record's date, series, and identity against
// the document's snapshot date and the batch fiscal-year context.
// Records whose date cannot be resolved are dropped: without a date
// they cannot be placed in the time series.
func (n *Normalizer) Normalize(doc document.Document, rec domain.SalesRecord, fy FiscalYear) (*domain.PerformanceSnapshot, error) {
	performanceDate, err := ResolveDate(rec.DateRaw, fy)
	if err != nil {
		return nil, tixerrors.NewDateUnresolvable(rec.SourceDocument, rec.SourceRow, rec.DateRaw, err)
	}

	snap := &domain.PerformanceSnapshot{
		PerformanceCode: PerformanceCode(rec.Title, performanceDate),
		Title:           rec.Title,
		Series:          ResolveSeries(rec.SeriesRaw, rec.Title),
		SnapshotDate:    doc.SnapshotDate,
		PerformanceDate: performanceDate,
		FiscalYear:      FiscalYearForDate(performanceDate).Label,
		FiscalWeek:      FiscalWeek(performanceDate),
		Source:          n.source,

		SingleTickets:       rec.SingleTickets,
		SingleRevenue:       rec.SingleRevenue,
		SubscriptionTickets: rec.SubscriptionTickets,
		SubscriptionRevenue: rec.SubscriptionRevenue,
	}
	_, snap.ISOWeek = performanceDate.ISOWeek()
	snap.SnapshotID = domain.SnapshotID(snap.PerformanceCode, snap.SnapshotDate, snap.Source)

	n.deriveTotals(rec, snap)
	return snap, nil
}

// deriveTotals enforces the total = single + subscription invariant.
// Totals are always derived when both channels are known, never taken
// from an independently reported column, to avoid drift between the
// two. Layouts that only expose a total keep the reported value.
func (n *Normalizer) deriveTotals(rec domain.SalesRecord, snap *domain.PerformanceSnapshot) {
	switch {
	case rec.SingleTickets != nil && rec.SubscriptionTickets != nil:
		snap.TotalTickets = *rec.SingleTickets + *rec.SubscriptionTickets
	case rec.TotalTickets != nil:
		snap.TotalTickets = *rec.TotalTickets
	case rec.SingleTickets != nil:
		snap.TotalTickets = *rec.SingleTickets
	case rec.SubscriptionTickets != nil:
		snap.TotalTickets = *rec.SubscriptionTickets
	}

	switch {
	case rec.SingleRevenue != nil && rec.SubscriptionRevenue != nil:
		snap.TotalRevenue = *rec.SingleRevenue + *rec.SubscriptionRevenue
	case rec.TotalRevenue != nil:
		snap.TotalRevenue = *rec.TotalRevenue
	case rec.SingleRevenue != nil:
		snap.TotalRevenue = *rec.SingleRevenue
	case rec.SubscriptionRevenue != nil:
		snap.TotalRevenue = *rec.SubscriptionRevenue
	}
}
