package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/app"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/monitoring"
	"github.com/shopspring/decimal"
)

// Allocator is the minimal interface needed for bulk allocation.
type Allocator interface {
	Allocate(ctx context.Context, in app.AllocateInput, caller domain.Caller) (app.AllocationResult, error)
}

// EventQueries is the minimal interface needed for per-event projections.
type EventQueries interface {
	PendingApproval(ctx context.Context, eventID string, caller domain.Caller) (app.PendingApproval, error)
	Snapshot(ctx context.Context, eventID string, caller domain.Caller) ([]domain.TicketSummary, error)
}

// HandleAdminEventActions routes /admin/events/{id}/allocate, /pending and
// /inventory.
func HandleAdminEventActions(alloc Allocator, queries EventQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, action, ok := parseAdminEventActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing caller")
			return
		}

		switch action {
		case "allocate":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			handleAllocate(w, r, alloc, eventID, caller)
		case "pending":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			handlePending(w, r, queries, eventID, caller)
		case "inventory":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			handleInventory(w, r, queries, eventID, caller)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleAllocate(w http.ResponseWriter, r *http.Request, alloc Allocator, eventID string, caller domain.Caller) {
	var req allocateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	result, err := alloc.Allocate(r.Context(), app.AllocateInput{
		EventID:  eventID,
		Count:    req.Count,
		SellerID: req.SellerID,
	}, caller)
	if err != nil {
		monitoring.RecordAllocation("rejected")
		var insufficient *domain.InsufficientInventoryError
		switch {
		case errors.As(err, &insufficient):
			writeInsufficientInventory(w, insufficient)
		case errors.Is(err, domain.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
		case errors.Is(err, domain.ErrInvalidTarget):
			writeError(w, http.StatusBadRequest, codeInvalidTarget, err.Error())
		default:
			writeDomainError(w, err)
		}
		return
	}

	monitoring.RecordAllocation("claimed")
	resp := allocateResponse{
		EventID:  eventID,
		SellerID: req.SellerID,
		Claimed:  result.Claimed,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func handlePending(w http.ResponseWriter, r *http.Request, queries EventQueries, eventID string, caller domain.Caller) {
	pending, err := queries.PendingApproval(r.Context(), eventID, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tickets := make([]ticketResponse, 0, len(pending.Tickets))
	for _, t := range pending.Tickets {
		tickets = append(tickets, newTicketResponse(t))
	}
	resp := pendingResponse{
		EventID: eventID,
		Tickets: tickets,
		Total:   pending.Total,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func handleInventory(w http.ResponseWriter, r *http.Request, queries EventQueries, eventID string, caller domain.Caller) {
	summaries, err := queries.Snapshot(r.Context(), eventID, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, summaryResponse{State: string(s.State), Count: s.Count})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeInsufficientInventory(w http.ResponseWriter, e *domain.InsufficientInventoryError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(insufficientInventoryResponse{
		Error:     e.Error(),
		Code:      codeInsufficientInventory,
		Requested: e.Requested,
		Available: e.Available,
	})
}

func parseAdminEventActionPath(path string) (eventID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		return "", "", false
	}
	if parts[0] != "admin" || parts[1] != "events" || parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

type allocateRequest struct {
	Count    int    `json:"count"`
	SellerID string `json:"seller_id"`
}

type allocateResponse struct {
	EventID  string   `json:"event_id"`
	SellerID string   `json:"seller_id"`
	Claimed  []string `json:"claimed"`
}

type insufficientInventoryResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type pendingResponse struct {
	EventID string           `json:"event_id"`
	Tickets []ticketResponse `json:"tickets"`
	Total   decimal.Decimal  `json:"total"`
}

type summaryResponse struct {
	State string `json:"state"`
	Count int    `json:"count"`
}
