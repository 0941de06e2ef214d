package domain

// FieldKind names one semantic column of a sales report. The layout
// detector maps every kind the pipeline needs to either a concrete
// column offset or an explicit unavailable marker; silent absence is
// not allowed.
type FieldKind string

const (
	FieldTitle               FieldKind = "title"
	FieldDate                FieldKind = "date"
	FieldBudget              FieldKind = "budget"
	FieldSingleTickets       FieldKind = "single_tickets"
	FieldSingleRevenue       FieldKind = "single_revenue"
	FieldSubscriptionTickets FieldKind = "subscription_tickets"
	FieldSubscriptionRevenue FieldKind = "subscription_revenue"
	FieldTotalTickets        FieldKind = "total_tickets"
	FieldTotalRevenue        FieldKind = "total_revenue"
)

// RequiredFields are the kinds downstream stages cannot work without.
var RequiredFields = []FieldKind{
	FieldDate,
	FieldTotalTickets,
	FieldTotalRevenue,
}

// SalesRecord is the raw per-performance row as extracted from a
// document, before date and series normalization. Numeric fields are
// nil when the source cell was empty or the column unresolved.
type SalesRecord struct {
	Title     string `json:"title"`
	SeriesRaw string `json:"series_raw"`
	// DateRaw holds whatever the source used: an Excel serial, an ISO
	// string, or free text like "Nov. 1-3".
	DateRaw string   `json:"date_raw"`
	Budget  *float64 `json:"budget,omitempty"`

	SingleTickets       *int64   `json:"single_tickets,omitempty"`
	SingleRevenue       *float64 `json:"single_revenue,omitempty"`
	SubscriptionTickets *int64   `json:"subscription_tickets,omitempty"`
	SubscriptionRevenue *float64 `json:"subscription_revenue,omitempty"`
	TotalTickets        *int64   `json:"total_tickets,omitempty"`
	TotalRevenue        *float64 `json:"total_revenue,omitempty"`

	// Provenance for audit logging of drops and corrections.
	SourceDocument string `json:"source_document"`
	SourceRow      int    `json:"source_row"`
}

// Empty reports whether the record carries no ticket or revenue figures
// at all. Empty records are discarded before normalization.
func (r *SalesRecord) Empty() bool {
	return r.SingleTickets == nil && r.SingleRevenue == nil &&
		r.SubscriptionTickets == nil && r.SubscriptionRevenue == nil &&
		r.TotalTickets == nil && r.TotalRevenue == nil
}
