package warehouse

import (
	"context"
	"sync"

	"tixcli/pkg/contracts/domain"
)

// MemoryWarehouse is an in-process Warehouse used by tests and by dry
// runs that need the full insert path without a real backend.
type MemoryWarehouse struct {
	mu   sync.RWMutex
	rows map[string]*domain.PerformanceSnapshot

	// RejectIDs forces per-row failures for the listed snapshot IDs,
	// simulating a backend that accepts the batch but rejects rows.
	RejectIDs map[string]string
}

// NewMemoryWarehouse returns an empty in-memory warehouse.
func NewMemoryWarehouse() *MemoryWarehouse {
	return &MemoryWarehouse{rows: make(map[string]*domain.PerformanceSnapshot)}
}

func (w *MemoryWarehouse) ExistingSnapshotIDs(ctx context.Context, fiscalYears []string) (map[string]struct{}, error) {
	if err := validateFiscalYears(fiscalYears); err != nil {
		return nil, err
	}
	years := make(map[string]struct{}, len(fiscalYears))
	for _, fy := range fiscalYears {
		years[fy] = struct{}{}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make(map[string]struct{})
	for id, s := range w.rows {
		if _, ok := years[s.FiscalYear]; ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (w *MemoryWarehouse) InsertSnapshots(ctx context.Context, snapshots []*domain.PerformanceSnapshot) (*WriteResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	result := &WriteResult{}
	for i, s := range snapshots {
		if reason, ok := w.RejectIDs[s.SnapshotID]; ok {
			result.Failures = append(result.Failures, RowFailure{
				Index:      i,
				SnapshotID: s.SnapshotID,
				Reason:     reason,
			})
			continue
		}
		if _, exists := w.rows[s.SnapshotID]; exists {
			continue
		}
		clone := *s
		w.rows[s.SnapshotID] = &clone
		result.Inserted++
	}
	return result, nil
}

func (w *MemoryWarehouse) DeleteFiscalYears(ctx context.Context, fiscalYears []string) (int64, error) {
	if err := validateFiscalYears(fiscalYears); err != nil {
		return 0, err
	}
	years := make(map[string]struct{}, len(fiscalYears))
	for _, fy := range fiscalYears {
		years[fy] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	var deleted int64
	for id, s := range w.rows {
		if _, ok := years[s.FiscalYear]; ok {
			delete(w.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (w *MemoryWarehouse) Close() error { return nil }

// Snapshot returns the stored row for an ID, or nil.
func (w *MemoryWarehouse) Snapshot(id string) *domain.PerformanceSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rows[id]
}

// Count returns the number of stored rows.
func (w *MemoryWarehouse) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.rows)
}
