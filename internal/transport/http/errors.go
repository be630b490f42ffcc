package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidStartsAt       = "invalid_starts_at"
	codeInvalidID             = "invalid_id"
	codeEventNameRequired     = "event_name_required"
	codeBuyerNameRequired     = "buyer_name_required"
	codePaymentMethodRequired = "payment_method_required"
	codePriceRequired         = "price_required"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidCapacity       = "invalid_capacity"
	codeInvalidTarget         = "invalid_target"
	codeUnauthorized          = "unauthorized"
	codeForbidden             = "forbidden"
	codeEventNotFound         = "event_not_found"
	codeTicketNotFound        = "ticket_not_found"
	codeInvalidTransition     = "invalid_state_transition"
	codeInsufficientInventory = "insufficient_inventory"
	codeAlreadyUsed           = "already_used"
	codeAllocationConflict    = "allocation_conflict"
	codeCodeGenerationFailed  = "code_generation_exhausted"
	codeDuplicateTicketCode   = "duplicate_ticket_code"
	codeRateLimited           = "rate_limited"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the shared slice of the domain error taxonomy to
// HTTP responses. Handlers with endpoint-specific errors handle those first
// and fall back here.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrAlreadyUsed):
		writeError(w, http.StatusConflict, codeAlreadyUsed, err.Error())
	case errors.Is(err, domain.ErrAllocationConflict):
		writeError(w, http.StatusServiceUnavailable, codeAllocationConflict, err.Error())
	case errors.Is(err, domain.ErrDuplicateTicketCode):
		writeError(w, http.StatusConflict, codeDuplicateTicketCode, err.Error())
	case errors.Is(err, domain.ErrBuyerNameRequired):
		writeError(w, http.StatusBadRequest, codeBuyerNameRequired, err.Error())
	case errors.Is(err, domain.ErrPaymentMethodRequired):
		writeError(w, http.StatusBadRequest, codePaymentMethodRequired, err.Error())
	case errors.Is(err, domain.ErrPriceRequired):
		writeError(w, http.StatusBadRequest, codePriceRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
