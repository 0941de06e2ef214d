// Package warehouse persists performance snapshots. Two production
// backends are provided, BigQuery and Postgres, behind one interface,
// plus an in-memory backend for tests and local dry runs.
package warehouse

import (
	"context"
	"fmt"
	"regexp"

	"tixcli/pkg/contracts/domain"
)

// Warehouse is the persistence boundary of the pipeline. Implementations
// must treat snapshot_id as the primary key and silently skip duplicate
// IDs on insert, which is what makes append-mode ingestion idempotent.
type Warehouse interface {
	// ExistingSnapshotIDs returns the set of snapshot IDs already stored
	// for the given fiscal years.
	ExistingSnapshotIDs(ctx context.Context, fiscalYears []string) (map[string]struct{}, error)

	// InsertSnapshots writes a batch. Rows that fail individually are
	// reported in the result, not as an error; an error means the whole
	// batch failed.
	InsertSnapshots(ctx context.Context, snapshots []*domain.PerformanceSnapshot) (*WriteResult, error)

	// DeleteFiscalYears removes all snapshots for the given fiscal years
	// and returns the number of rows deleted.
	DeleteFiscalYears(ctx context.Context, fiscalYears []string) (int64, error)

	Close() error
}

// WriteResult reports the outcome of one insert batch.
type WriteResult struct {
	Inserted int
	Failures []RowFailure
}

// RowFailure identifies one rejected row within an otherwise accepted
// batch.
type RowFailure struct {
	Index      int
	SnapshotID string
	Reason     string
}

// Merge folds another batch result into this one, shifting the other's
// row indexes by offset so they stay meaningful across chunks.
func (r *WriteResult) Merge(other *WriteResult, offset int) {
	r.Inserted += other.Inserted
	for _, f := range other.Failures {
		f.Index += offset
		r.Failures = append(r.Failures, f)
	}
}

var reFiscalYearLabel = regexp.MustCompile(`^FY\d{2}$`)

// validateFiscalYears rejects labels that are not the canonical FYxx
// form. The BigQuery backend interpolates the labels into query text,
// so anything else is refused outright.
func validateFiscalYears(fiscalYears []string) error {
	if len(fiscalYears) == 0 {
		return fmt.Errorf("no fiscal years given")
	}
	for _, fy := range fiscalYears {
		if !reFiscalYearLabel.MatchString(fy) {
			return fmt.Errorf("invalid fiscal year label %q", fy)
		}
	}
	return nil
}
