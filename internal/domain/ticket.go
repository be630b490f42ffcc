package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketState string

const (
	// StateAvailable is the event-owned pool: generated stock not yet
	// handed to any seller.
	StateAvailable TicketState = "available"
	// StateAssigned is the seller-owned pool.
	StateAssigned     TicketState = "assigned"
	StateReserved     TicketState = "reserved"
	StateReportedSold TicketState = "reported_sold"
	StateApproved     TicketState = "approved"
	StateUsed         TicketState = "used"
)

// Ticket is one admission unit tied to an event, tracked through a fixed
// lifecycle. The code is the public identifier; it never changes and is
// never reused.
type Ticket struct {
	Code          string
	EventID       string
	State         TicketState
	SellerID      *string
	BuyerName     string
	BuyerContact  string
	Price         decimal.NullDecimal
	PaymentMethod string
	ReportedBy    string
	ApprovedBy    string
	CreatedAt     time.Time
	AssignedAt    *time.Time
	ReservedAt    *time.Time
	ReportedAt    *time.Time
	PaidAt        *time.Time
	UsedAt        *time.Time
}

// OwnedBy reports whether the ticket is held by the given seller.
func (t Ticket) OwnedBy(sellerID string) bool {
	return t.SellerID != nil && *t.SellerID == sellerID
}

// TicketSummary is a per-state count for one seller or one event.
type TicketSummary struct {
	State TicketState
	Count int
}
