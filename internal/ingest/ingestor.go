// Package ingest drives snapshots into the warehouse: structural
// validation, clear/append mode handling, batching, rate limiting, and
// retry on transient write failures.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	tixerrors "tixcli/internal/errors"
	"tixcli/internal/warehouse"
	"tixcli/pkg/contracts/domain"
)

// Mode selects how a run treats rows already in the warehouse.
type Mode int

const (
	// ModeAppend skips snapshots whose IDs already exist.
	ModeAppend Mode = iota
	// ModeClear deletes the affected fiscal years before writing.
	ModeClear
)

func (m Mode) String() string {
	if m == ModeClear {
		return "clear"
	}
	return "append"
}

// Options tune the write path.
type Options struct {
	BatchSize    int
	MaxRetries   int
	RetryBase    time.Duration
	WritesPerSec float64
}

// Summary reports what one ingestion run did to the warehouse.
type Summary struct {
	Mode            string                 `json:"mode"`
	Validated       int                    `json:"validated"`
	Invalid         int                    `json:"invalid"`
	SkippedExisting int                    `json:"skipped_existing"`
	Inserted        int                    `json:"inserted"`
	Deleted         int64                  `json:"deleted"`
	Failures        []warehouse.RowFailure `json:"failures,omitempty"`
}

// Ingestor validates and writes snapshot batches.
type Ingestor struct {
	logger    *slog.Logger
	warehouse warehouse.Warehouse
	cache     *IDCache
	validate  *validator.Validate
	limiter   *rate.Limiter
	opts      Options
}

// NewIngestor builds an ingestor over the given warehouse.
func NewIngestor(logger *slog.Logger, w warehouse.Warehouse, opts Options) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	limit := rate.Inf
	if opts.WritesPerSec > 0 {
		limit = rate.Limit(opts.WritesPerSec)
	}
	return &Ingestor{
		logger:    logger,
		warehouse: w,
		cache:     NewIDCache(w),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		limiter:   rate.NewLimiter(limit, 1),
		opts:      opts,
	}
}

// Ingest writes the batch to the warehouse under the given mode and
// returns a summary. Per-row failures do not fail the run; they are
// carried in the summary for the caller to report.
func (g *Ingestor) Ingest(ctx context.Context, snapshots []*domain.PerformanceSnapshot, mode Mode) (*Summary, error) {
	summary := &Summary{Mode: mode.String()}

	valid := g.validateBatch(snapshots, summary)
	years := fiscalYearsOf(valid)
	if len(years) == 0 {
		return summary, nil
	}

	if mode == ModeClear {
		deleted, err := g.warehouse.DeleteFiscalYears(ctx, years)
		if err != nil {
			return summary, err
		}
		g.cache.InvalidateAll()
		summary.Deleted = deleted
	} else {
		filtered, err := g.dropExisting(ctx, valid, summary)
		if err != nil {
			return summary, err
		}
		valid = filtered
	}

	for start := 0; start < len(valid); start += g.opts.BatchSize {
		end := start + g.opts.BatchSize
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		if err := g.limiter.Wait(ctx); err != nil {
			return summary, tixerrors.NewWarehouseWriteFailure("rate limiter interrupted", err, false)
		}
		res, err := g.insertWithRetry(ctx, chunk)
		if err != nil {
			return summary, err
		}

		failed := make(map[int]struct{}, len(res.Failures))
		for _, f := range res.Failures {
			failed[f.Index] = struct{}{}
		}
		for i, s := range chunk {
			if _, ok := failed[i]; !ok {
				g.cache.Add(s.FiscalYear, s.SnapshotID)
			}
		}
		summary.Merge(res, start)
	}
	return summary, nil
}

// Merge folds one chunk's write result into the summary.
func (s *Summary) Merge(res *warehouse.WriteResult, offset int) {
	s.Inserted += res.Inserted
	for _, f := range res.Failures {
		f.Index += offset
		s.Failures = append(s.Failures, f)
	}
}

// validateBatch drops structurally invalid snapshots. These indicate a
// pipeline bug upstream, not bad source data, so each one is logged
// loudly.
func (g *Ingestor) validateBatch(snapshots []*domain.PerformanceSnapshot, summary *Summary) []*domain.PerformanceSnapshot {
	valid := make([]*domain.PerformanceSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if err := g.validate.Struct(s); err != nil {
			summary.Invalid++
			g.logger.Error("dropping structurally invalid snapshot",
				slog.String("snapshot_id", s.SnapshotID),
				slog.String("error", err.Error()))
			continue
		}
		valid = append(valid, s)
	}
	summary.Validated = len(valid)
	return valid
}

func (g *Ingestor) dropExisting(ctx context.Context, snapshots []*domain.PerformanceSnapshot, summary *Summary) ([]*domain.PerformanceSnapshot, error) {
	kept := make([]*domain.PerformanceSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		existing, err := g.cache.Existing(ctx, s.FiscalYear)
		if err != nil {
			return nil, err
		}
		if _, ok := existing[s.SnapshotID]; ok {
			summary.SkippedExisting++
			g.logger.Debug("skipping existing snapshot",
				slog.String("snapshot_id", s.SnapshotID))
			continue
		}
		kept = append(kept, s)
	}
	return kept, nil
}

// insertWithRetry retries transient write failures with bounded
// exponential backoff. Non-transient failures are returned immediately.
func (g *Ingestor) insertWithRetry(ctx context.Context, chunk []*domain.PerformanceSnapshot) (*warehouse.WriteResult, error) {
	var lastErr error
	backoff := g.opts.RetryBase
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying warehouse write",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, tixerrors.NewWarehouseWriteFailure("write interrupted", ctx.Err(), false)
			}
			backoff *= 2
		}
		res, err := g.warehouse.InsertSnapshots(ctx, chunk)
		if err == nil {
			return res, nil
		}
		if !tixerrors.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func fiscalYearsOf(snapshots []*domain.PerformanceSnapshot) []string {
	seen := make(map[string]struct{})
	years := make([]string, 0, 2)
	for _, s := range snapshots {
		if _, ok := seen[s.FiscalYear]; ok {
			continue
		}
		seen[s.FiscalYear] = struct{}{}
		years = append(years, s.FiscalYear)
	}
	return years
}
