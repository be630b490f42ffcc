package domain

import "github.com/shopspring/decimal"

// CommandKind names a single-ticket lifecycle transition. All mutation of
// ticket state funnels through commands; there are no raw field patches.
type CommandKind string

const (
	CommandReserve         CommandKind = "reserve"
	CommandReportSale      CommandKind = "report_sale"
	CommandApprove         CommandKind = "approve"
	CommandReject          CommandKind = "reject"
	CommandQuitReservation CommandKind = "quit_reservation"
	CommandValidate        CommandKind = "validate"
	CommandUnassign        CommandKind = "unassign"
)

// Command is a tagged transition request. Only the fields relevant to the
// kind are read; the rest stay zero.
type Command struct {
	Kind CommandKind

	// Reserve
	BuyerName    string
	BuyerContact string

	// ReportSale (optional) and Approve (required)
	Price decimal.NullDecimal

	// Approve
	PaymentMethod string
}
