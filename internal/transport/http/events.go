package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/app"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/monitoring"
	"github.com/shopspring/decimal"
)

// InventoryService is the minimal interface needed for admin event
// endpoints.
type InventoryService interface {
	CreateEventInventory(ctx context.Context, in app.CreateEventInput, caller domain.Caller) (app.CreateEventResult, error)
	ListEvents(ctx context.Context, caller domain.Caller) ([]domain.Event, error)
}

// HandleAdminEvents returns an HTTP handler for event creation and listing.
// Creating an event generates its full ticket stock in the same call.
func HandleAdminEvents(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing caller")
			return
		}

		switch r.Method {
		case http.MethodGet:
			events, err := svc.ListEvents(r.Context(), caller)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]eventResponse, 0, len(events))
			for _, event := range events {
				resp = append(resp, newEventResponse(event))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodPost:
			var req createEventRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.Name == "" {
				writeError(w, http.StatusBadRequest, codeEventNameRequired, domain.ErrEventNameRequired.Error())
				return
			}
			if req.Capacity <= 0 {
				writeError(w, http.StatusBadRequest, codeInvalidCapacity, domain.ErrInvalidCapacity.Error())
				return
			}

			var startsAt *time.Time
			if req.StartsAt != "" {
				parsed, err := time.Parse(time.RFC3339, req.StartsAt)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "invalid starts_at format")
					return
				}
				startsAt = &parsed
			}

			basePrice := decimal.Zero
			if req.BasePrice != nil {
				basePrice = *req.BasePrice
			}

			result, err := svc.CreateEventInventory(r.Context(), app.CreateEventInput{
				Name:      req.Name,
				Venue:     req.Venue,
				StartsAt:  startsAt,
				Capacity:  req.Capacity,
				BasePrice: basePrice,
			}, caller)
			if err != nil && !errors.Is(err, domain.ErrCodeGenerationExhausted) {
				switch {
				case errors.Is(err, domain.ErrEventNameRequired):
					writeError(w, http.StatusBadRequest, codeEventNameRequired, err.Error())
				case errors.Is(err, domain.ErrInvalidCapacity):
					writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
				default:
					writeDomainError(w, err)
				}
				return
			}

			monitoring.RecordTicketsGenerated(len(result.Tickets))

			codes := make([]string, 0, len(result.Tickets))
			for _, t := range result.Tickets {
				codes = append(codes, t.Code)
			}
			resp := createEventResponse{
				eventResponse: newEventResponse(result.Event),
				TicketCodes:   codes,
				FailedCodes:   result.FailedCodes,
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(resp)
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

type createEventRequest struct {
	Name      string           `json:"name"`
	Venue     string           `json:"venue,omitempty"`
	StartsAt  string           `json:"starts_at,omitempty"`
	Capacity  int              `json:"capacity"`
	BasePrice *decimal.Decimal `json:"base_price,omitempty"`
}

type eventResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Venue     string          `json:"venue"`
	StartsAt  time.Time       `json:"starts_at"`
	Capacity  int             `json:"capacity"`
	BasePrice decimal.Decimal `json:"base_price"`
}

func newEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:        event.ID,
		Name:      event.Name,
		Venue:     event.Venue,
		StartsAt:  event.StartsAt,
		Capacity:  event.Capacity,
		BasePrice: event.BasePrice,
	}
}

type createEventResponse struct {
	eventResponse
	TicketCodes []string `json:"ticket_codes"`
	FailedCodes int      `json:"failed_codes,omitempty"`
}
