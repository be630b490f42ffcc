package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/monitoring"
)

// HandleGateValidate redeems a ticket at the door: POST /gate/{code}/validate.
// Re-scanning an already-used ticket reports already_used without touching
// the original redemption timestamp.
func HandleGateValidate(svc Transitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		code, ok := parseGatePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		caller, ok := CallerFromContext(r.Context())
		if !ok {
			caller = domain.Caller{Role: domain.RoleGuest}
		}

		ticket, err := svc.Apply(r.Context(), code, domain.Command{Kind: domain.CommandValidate}, caller)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrAlreadyUsed):
				monitoring.RecordGateScan("already_used")
			default:
				monitoring.RecordGateScan("rejected")
			}
			writeDomainError(w, err)
			return
		}

		monitoring.RecordGateScan("admitted")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newTicketResponse(ticket))
	}
}

func parseGatePath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "gate" || parts[2] != "validate" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
