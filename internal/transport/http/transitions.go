package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/monitoring"
	"github.com/shopspring/decimal"
)

// Transitioner is the minimal interface needed to apply a single-ticket
// command.
type Transitioner interface {
	Apply(ctx context.Context, code string, cmd domain.Command, caller domain.Caller) (domain.Ticket, error)
}

var ticketActions = map[string]domain.CommandKind{
	"reserve":          domain.CommandReserve,
	"report-sale":      domain.CommandReportSale,
	"approve":          domain.CommandApprove,
	"reject":           domain.CommandReject,
	"quit-reservation": domain.CommandQuitReservation,
	"unassign":         domain.CommandUnassign,
}

// HandleTicketCommands routes POST /tickets/{code}/{action} to the
// transition engine. The action names map 1:1 onto command kinds; there is
// no endpoint that writes ticket fields directly.
func HandleTicketCommands(svc Transitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		code, action, ok := parseTicketActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		kind, ok := ticketActions[action]
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing caller")
			return
		}

		cmd := domain.Command{Kind: kind}
		if r.ContentLength != 0 {
			var req ticketCommandRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			cmd.BuyerName = req.BuyerName
			cmd.BuyerContact = req.BuyerContact
			cmd.PaymentMethod = req.PaymentMethod
			if req.Price != nil {
				cmd.Price = decimal.NewNullDecimal(*req.Price)
			}
		}

		ticket, err := svc.Apply(r.Context(), code, cmd, caller)
		if err != nil {
			monitoring.RecordTransition(string(kind), "rejected")
			writeDomainError(w, err)
			return
		}

		monitoring.RecordTransition(string(kind), "applied")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newTicketResponse(ticket))
	}
}

func parseTicketActionPath(path string) (code, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", "", false
	}
	if parts[0] != "tickets" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type ticketCommandRequest struct {
	BuyerName     string           `json:"buyer_name,omitempty"`
	BuyerContact  string           `json:"buyer_contact,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
}

type ticketResponse struct {
	Code          string           `json:"code"`
	EventID       string           `json:"event_id"`
	State         string           `json:"state"`
	SellerID      *string          `json:"seller_id,omitempty"`
	BuyerName     string           `json:"buyer_name,omitempty"`
	BuyerContact  string           `json:"buyer_contact,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	ReportedBy    string           `json:"reported_by,omitempty"`
	ApprovedBy    string           `json:"approved_by,omitempty"`
	ReservedAt    *time.Time       `json:"reserved_at,omitempty"`
	ReportedAt    *time.Time       `json:"reported_at,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	UsedAt        *time.Time       `json:"used_at,omitempty"`
}

func newTicketResponse(t domain.Ticket) ticketResponse {
	resp := ticketResponse{
		Code:          t.Code,
		EventID:       t.EventID,
		State:         string(t.State),
		SellerID:      t.SellerID,
		BuyerName:     t.BuyerName,
		BuyerContact:  t.BuyerContact,
		PaymentMethod: t.PaymentMethod,
		ReportedBy:    t.ReportedBy,
		ApprovedBy:    t.ApprovedBy,
		ReservedAt:    t.ReservedAt,
		ReportedAt:    t.ReportedAt,
		PaidAt:        t.PaidAt,
		UsedAt:        t.UsedAt,
	}
	if t.Price.Valid {
		price := t.Price.Decimal
		resp.Price = &price
	}
	return resp
}
