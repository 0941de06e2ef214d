// Package correct repairs known systematic defects in the snapshot
// series before it reaches the warehouse. The only corrector today is
// the revenue spike corrector, which targets a recurring reporting
// glitch where a single weekly report briefly double-counts a
// performance's cumulative revenue.
package correct

import (
	"log/slog"
	"sort"

	"tixcli/pkg/contracts/domain"
)

// SpikeCorrector detects and overwrites transient revenue spikes in a
// performance's snapshot series. Cumulative sales figures should move
// slowly week over week; a point that jumps far above its predecessor
// and then collapses back is a reporting artifact, not a sale.
type SpikeCorrector struct {
	logger *slog.Logger

	// jumpFactor is the multiple of the previous snapshot's revenue a
	// point must exceed to be suspect.
	jumpFactor float64
	// reversionFactor is the fraction of the suspect point's revenue
	// the following snapshot must fall below to confirm the spike.
	reversionFactor float64
}

// NewSpikeCorrector builds a corrector with the given thresholds.
func NewSpikeCorrector(logger *slog.Logger, jumpFactor, reversionFactor float64) *SpikeCorrector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpikeCorrector{
		logger:          logger,
		jumpFactor:      jumpFactor,
		reversionFactor: reversionFactor,
	}
}

// Correct scans the batch for revenue spikes and overwrites confirmed
// spikes in place from the preceding snapshot. It returns the number of
// snapshots corrected. Boundary snapshots are never corrected: without
// both neighbors the jump-and-reversion shape cannot be confirmed.
func (c *SpikeCorrector) Correct(snapshots []*domain.PerformanceSnapshot) int {
	corrected := 0
	for code, series := range groupByPerformance(snapshots) {
		sort.Slice(series, func(i, j int) bool {
			return series[i].SnapshotDate.Before(series[j].SnapshotDate)
		})
		for i := 1; i < len(series)-1; i++ {
			if !c.isSpike(series[i-1], series[i], series[i+1]) {
				continue
			}
			before := series[i].TotalRevenue
			c.overwrite(series[i], series[i-1])
			corrected++
			c.logger.Warn("corrected revenue spike",
				slog.String("performance_code", code),
				slog.String("snapshot_id", series[i].SnapshotID),
				slog.Time("snapshot_date", series[i].SnapshotDate),
				slog.Float64("revenue_before", before),
				slog.Float64("revenue_after", series[i].TotalRevenue))
		}
	}
	return corrected
}

func (c *SpikeCorrector) isSpike(prev, cur, next *domain.PerformanceSnapshot) bool {
	if prev.TotalRevenue <= 0 {
		return false
	}
	return cur.TotalRevenue > c.jumpFactor*prev.TotalRevenue &&
		next.TotalRevenue < c.reversionFactor*cur.TotalRevenue
}

// overwrite replaces the spike's sales figures with the predecessor's.
// Carrying the previous cumulative position forward is the least-wrong
// repair: the true value is unknown but bounded below by it.
func (c *SpikeCorrector) overwrite(dst, src *domain.PerformanceSnapshot) {
	dst.SingleTickets = cloneInt(src.SingleTickets)
	dst.SingleRevenue = cloneFloat(src.SingleRevenue)
	dst.SubscriptionTickets = cloneInt(src.SubscriptionTickets)
	dst.SubscriptionRevenue = cloneFloat(src.SubscriptionRevenue)
	dst.TotalTickets = src.TotalTickets
	dst.TotalRevenue = src.TotalRevenue
	dst.Corrected = true
}

func groupByPerformance(snapshots []*domain.PerformanceSnapshot) map[string][]*domain.PerformanceSnapshot {
	groups := make(map[string][]*domain.PerformanceSnapshot)
	for _, s := range snapshots {
		groups[s.PerformanceCode] = append(groups[s.PerformanceCode], s)
	}
	return groups
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
