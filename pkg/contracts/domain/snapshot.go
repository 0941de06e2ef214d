package domain

import (
	"fmt"
	"time"
)

// SaleChannel identifies how a block of tickets was sold.
type SaleChannel string

const (
	// ChannelSingle covers individually purchased seats.
	ChannelSingle SaleChannel = "single"
	// ChannelSubscription covers subscription seats, both fixed packages
	// and flexible (non-fixed) packages.
	ChannelSubscription SaleChannel = "subscription"
	// ChannelTotal is the sum over all channels.
	ChannelTotal SaleChannel = "total"
)

// PerformanceSnapshot is one point-in-time capture of a performance's
// cumulative ticket and revenue totals, identified by the date of the
// report that carried it. It is the canonical output of the ingestion
// pipeline and the only shape downstream consumers ever see.
type PerformanceSnapshot struct {
	SnapshotID      string    `json:"snapshot_id" validate:"required"`
	PerformanceCode string    `json:"performance_code" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	Series          string    `json:"series" validate:"required"`
	SnapshotDate    time.Time `json:"snapshot_date" validate:"required"`
	PerformanceDate time.Time `json:"performance_date" validate:"required"`
	FiscalYear      string    `json:"fiscal_year" validate:"required"`
	FiscalWeek      int       `json:"fiscal_week" validate:"min=1,max=53"`
	ISOWeek         int       `json:"iso_week" validate:"min=1,max=53"`

	// Per-channel figures are nil when the source layout did not expose
	// the channel, never zero-defaulted.
	SingleTickets       *int64   `json:"single_tickets,omitempty"`
	SingleRevenue       *float64 `json:"single_revenue,omitempty"`
	SubscriptionTickets *int64   `json:"subscription_tickets,omitempty"`
	SubscriptionRevenue *float64 `json:"subscription_revenue,omitempty"`
	TotalTickets        int64    `json:"total_tickets" validate:"min=0"`
	TotalRevenue        float64  `json:"total_revenue" validate:"min=0"`

	// Source tags which pipeline/version produced the row.
	Source string `json:"source" validate:"required"`
	// Corrected marks rows rewritten by the anomaly corrector.
	Corrected bool `json:"corrected"`
}

// SnapshotID derives the deterministic snapshot identity. Re-ingesting
// the same document always yields the same ID, which is what makes
// append-mode ingestion idempotent.
func SnapshotID(performanceCode string, snapshotDate time.Time, source string) string {
	return fmt.Sprintf("%s|%s|%s", performanceCode, snapshotDate.Format("2006-01-02"), source)
}

// ATP returns the average ticket price for a channel, or nil when the
// channel is unresolved or has sold no tickets.
func (s *PerformanceSnapshot) ATP(ch SaleChannel) *float64 {
	var tickets int64
	var revenue float64
	switch ch {
	case ChannelSingle:
		if s.SingleTickets == nil || s.SingleRevenue == nil {
			return nil
		}
		tickets, revenue = *s.SingleTickets, *s.SingleRevenue
	case ChannelSubscription:
		if s.SubscriptionTickets == nil || s.SubscriptionRevenue == nil {
			return nil
		}
		tickets, revenue = *s.SubscriptionTickets, *s.SubscriptionRevenue
	case ChannelTotal:
		tickets, revenue = s.TotalTickets, s.TotalRevenue
	default:
		return nil
	}
	if tickets == 0 {
		return nil
	}
	atp := revenue / float64(tickets)
	return &atp
}

// ChannelsConsistent reports whether total tickets equal the sum of the
// single and subscription channels. Snapshots with an unresolved channel
// are trivially consistent.
func (s *PerformanceSnapshot) ChannelsConsistent() bool {
	if s.SingleTickets == nil || s.SubscriptionTickets == nil {
		return true
	}
	return s.TotalTickets == *s.SingleTickets + *s.SubscriptionTickets
}
