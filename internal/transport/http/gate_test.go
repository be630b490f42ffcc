package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
)

func TestHandleGateValidate(t *testing.T) {
	t.Parallel()

	t.Run("validates as guest when no caller is attached", func(t *testing.T) {
		svc := &fakeTransitioner{ticket: domain.Ticket{Code: "TKT-A", State: domain.StateUsed}}

		req := httptest.NewRequest(http.MethodPost, "/gate/TKT-A/validate", nil)
		rec := httptest.NewRecorder()
		HandleGateValidate(svc)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotCode != "TKT-A" {
			t.Fatalf("expected code TKT-A, got %q", svc.gotCode)
		}
		if svc.gotCmd.Kind != domain.CommandValidate {
			t.Fatalf("expected validate command, got %+v", svc.gotCmd)
		}
		if svc.gotCaller.Role != domain.RoleGuest {
			t.Fatalf("expected guest caller, got %+v", svc.gotCaller)
		}
	})

	t.Run("re-scan reports already used", func(t *testing.T) {
		svc := &fakeTransitioner{err: domain.ErrAlreadyUsed}

		req := httptest.NewRequest(http.MethodPost, "/gate/TKT-A/validate", nil)
		rec := httptest.NewRecorder()
		HandleGateValidate(svc)(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != codeAlreadyUsed {
			t.Fatalf("expected code %q, got %q", codeAlreadyUsed, resp.Code)
		}
	})

	t.Run("unknown ticket is 404", func(t *testing.T) {
		svc := &fakeTransitioner{err: domain.ErrTicketNotFound}

		req := httptest.NewRequest(http.MethodPost, "/gate/TKT-MISSING/validate", nil)
		rec := httptest.NewRecorder()
		HandleGateValidate(svc)(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed path is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/gate/TKT-A/redeem", nil)
		rec := httptest.NewRecorder()
		HandleGateValidate(&fakeTransitioner{})(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/gate/TKT-A/validate", nil)
		rec := httptest.NewRecorder()
		HandleGateValidate(&fakeTransitioner{})(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}
