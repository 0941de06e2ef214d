package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tixcli/pkg/contracts/domain"
)

// sampleLimit caps how many full snapshots a run report embeds.
const sampleLimit = 5

// RunReport summarizes one pipeline run. Dry runs write it to disk as
// JSON so the batch can be inspected before anything touches the
// warehouse; live runs carry it back to the caller for logging and
// exit-code decisions.
type RunReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Mode        string    `json:"mode"`

	Documents        int      `json:"documents"`
	DocumentFailures []string `json:"document_failures,omitempty"`

	RecordsExtracted int            `json:"records_extracted"`
	RecordsDropped   map[string]int `json:"records_dropped,omitempty"`
	Corrected        int            `json:"corrected"`
	Snapshots        int            `json:"snapshots"`

	SnapshotDates []string                  `json:"snapshot_dates,omitempty"`
	Series        map[string]*SeriesSummary `json:"series,omitempty"`

	Samples []*domain.PerformanceSnapshot `json:"samples,omitempty"`
	Ingest  *Summary                      `json:"ingest,omitempty"`
}

// SeriesSummary aggregates the batch per series.
type SeriesSummary struct {
	Snapshots    int      `json:"snapshots"`
	TotalTickets int64    `json:"total_tickets"`
	TotalRevenue float64  `json:"total_revenue"`
	ATP          *float64 `json:"atp,omitempty"`
}

// NewRunReport starts a report for the given run.
func NewRunReport(runID, mode string) *RunReport {
	return &RunReport{
		RunID:          runID,
		GeneratedAt:    time.Now().UTC(),
		Mode:           mode,
		RecordsDropped: make(map[string]int),
		Series:         make(map[string]*SeriesSummary),
	}
}

// AddSnapshots folds the final batch into the report: per-series
// aggregates, the distinct snapshot dates seen, and a handful of full
// sample rows.
func (r *RunReport) AddSnapshots(snapshots []*domain.PerformanceSnapshot) {
	r.Snapshots = len(snapshots)

	dates := make(map[string]struct{})
	for _, s := range snapshots {
		dates[s.SnapshotDate.Format("2006-01-02")] = struct{}{}

		agg, ok := r.Series[s.Series]
		if !ok {
			agg = &SeriesSummary{}
			r.Series[s.Series] = agg
		}
		agg.Snapshots++
		agg.TotalTickets += s.TotalTickets
		agg.TotalRevenue += s.TotalRevenue

		if len(r.Samples) < sampleLimit {
			r.Samples = append(r.Samples, s)
		}
	}
	for _, agg := range r.Series {
		if agg.TotalTickets > 0 {
			atp := agg.TotalRevenue / float64(agg.TotalTickets)
			agg.ATP = &atp
		}
	}

	r.SnapshotDates = make([]string, 0, len(dates))
	for d := range dates {
		r.SnapshotDates = append(r.SnapshotDates, d)
	}
	sort.Strings(r.SnapshotDates)
}

// DropRecord tallies a record discarded before normalization completed,
// keyed by error code.
func (r *RunReport) DropRecord(code string) {
	r.RecordsDropped[code]++
}

// Write renders the report as indented JSON under dir, named by run ID.
func (r *RunReport) Write(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("tix-run-%s.json", r.RunID))

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
