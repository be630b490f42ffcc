package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
)

// StockQueries is the minimal interface needed for the seller stock view.
type StockQueries interface {
	Stock(ctx context.Context, sellerID string, caller domain.Caller) ([]domain.TicketSummary, error)
}

// HandleStock returns GET /stock: the caller's tickets grouped by state.
// Admins may pass ?seller_id= to inspect another seller's stock.
func HandleStock(svc StockQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing caller")
			return
		}

		sellerID := r.URL.Query().Get("seller_id")
		if sellerID == "" {
			sellerID = caller.ID
		}

		summaries, err := svc.Stock(r.Context(), sellerID, caller)
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
}
