package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/clock"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

func TestTransitionService_Apply(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	sellerA := "seller-a"

	makeSvc := func(tickets []domain.Ticket, opts ...TransitionServiceOption) (*TransitionService, *fakeTicketRepo) {
		repo := newFakeTicketRepo(tickets)
		svc := NewTransitionService(repo, clock.NewFixed(now), opts...)
		return svc, repo
	}

	seller := domain.Caller{ID: sellerA, Role: domain.RoleSeller}
	admin := domain.Caller{ID: "admin-1", Role: domain.RoleAdmin}
	guest := domain.Caller{Role: domain.RoleGuest}

	t.Run("seller reserves own assigned ticket", func(t *testing.T) {
		svc, repo := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAssigned, SellerID: &sellerA},
		})

		ticket, err := svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:         domain.CommandReserve,
			BuyerName:    "Jane",
			BuyerContact: "jane@example.com",
		}, seller)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ticket.State != domain.StateReserved {
			t.Fatalf("expected state %s, got %s", domain.StateReserved, ticket.State)
		}
		if ticket.BuyerName != "Jane" || ticket.BuyerContact != "jane@example.com" {
			t.Fatalf("buyer fields not set: %+v", ticket)
		}
		if ticket.ReservedAt == nil || !ticket.ReservedAt.Equal(now) {
			t.Fatalf("expected reserved_at %v, got %v", now, ticket.ReservedAt)
		}
		if got := repo.tickets["TKT-A"]; got.State != domain.StateReserved {
			t.Fatalf("reservation not persisted: %+v", got)
		}
	})

	t.Run("reserve requires buyer name", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAssigned, SellerID: &sellerA},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandReserve}, seller)
		if !errors.Is(err, domain.ErrBuyerNameRequired) {
			t.Fatalf("expected ErrBuyerNameRequired, got %v", err)
		}
	})

	t.Run("other seller cannot reserve", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAssigned, SellerID: &sellerA},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:      domain.CommandReserve,
			BuyerName: "Jane",
		}, domain.Caller{ID: "seller-b", Role: domain.RoleSeller})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("guest cannot reserve available stock by default", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAvailable},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:      domain.CommandReserve,
			BuyerName: "Jane",
		}, guest)
		if !errors.Is(err, domain.ErrInvalidStateTransition) {
			t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
		}
	})

	t.Run("public reservation opens available pool to guests", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAvailable},
		}, WithPublicReservation())

		ticket, err := svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:      domain.CommandReserve,
			BuyerName: "Jane",
		}, guest)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ticket.State != domain.StateReserved {
			t.Fatalf("expected state %s, got %s", domain.StateReserved, ticket.State)
		}
		if ticket.SellerID != nil {
			t.Fatalf("expected event-owned reservation to keep seller nil, got %v", *ticket.SellerID)
		}
	})

	t.Run("report sale and reject restores pre-report state", func(t *testing.T) {
		reservedAt := now.Add(-time.Hour)
		svc, repo := makeSvc([]domain.Ticket{
			{
				Code:       "TKT-A",
				State:      domain.StateReserved,
				SellerID:   &sellerA,
				BuyerName:  "Jane",
				ReservedAt: &reservedAt,
			},
		})

		price := decimal.NewFromInt(500)
		reported, err := svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:  domain.CommandReportSale,
			Price: decimal.NewNullDecimal(price),
		}, seller)
		if err != nil {
			t.Fatalf("report: expected no error, got %v", err)
		}
		if reported.State != domain.StateReportedSold {
			t.Fatalf("expected state %s, got %s", domain.StateReportedSold, reported.State)
		}
		if !reported.Price.Valid || !reported.Price.Decimal.Equal(price) {
			t.Fatalf("expected price 500, got %+v", reported.Price)
		}
		if reported.ReportedBy != seller.ID {
			t.Fatalf("expected reported_by %q, got %q", seller.ID, reported.ReportedBy)
		}

		rejected, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandReject}, admin)
		if err != nil {
			t.Fatalf("reject: expected no error, got %v", err)
		}
		if rejected.State != domain.StateReserved {
			t.Fatalf("expected rollback to %s, got %s", domain.StateReserved, rejected.State)
		}
		if rejected.Price.Valid {
			t.Fatalf("expected price cleared, got %+v", rejected.Price)
		}
		if rejected.BuyerName != "Jane" {
			t.Fatalf("expected buyer preserved, got %q", rejected.BuyerName)
		}
		if rejected.ReportedAt != nil {
			t.Fatalf("expected reported_at cleared, got %v", rejected.ReportedAt)
		}
		if rejected.ReportedBy != "" {
			t.Fatalf("expected reported_by cleared, got %q", rejected.ReportedBy)
		}
		if !rejected.OwnedBy(sellerA) {
			t.Fatalf("expected seller preserved, got %+v", rejected.SellerID)
		}
		if got := repo.tickets["TKT-A"]; got.State != domain.StateReserved {
			t.Fatalf("rollback not persisted: %+v", got)
		}
	})

	t.Run("reject without buyer returns ticket to seller stock", func(t *testing.T) {
		reportedAt := now.Add(-time.Minute)
		svc, _ := makeSvc([]domain.Ticket{
			{
				Code:       "TKT-A",
				State:      domain.StateReportedSold,
				SellerID:   &sellerA,
				ReportedAt: &reportedAt,
			},
		})

		rejected, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandReject}, admin)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rejected.State != domain.StateAssigned {
			t.Fatalf("expected %s, got %s", domain.StateAssigned, rejected.State)
		}
	})

	t.Run("seller cannot reject", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateReportedSold, SellerID: &sellerA, BuyerName: "Jane"},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandReject}, seller)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("seller quits reservation back to own stock", func(t *testing.T) {
		reservedAt := now.Add(-time.Hour)
		svc, repo := makeSvc([]domain.Ticket{
			{
				Code:         "TKT-A",
				State:        domain.StateReserved,
				SellerID:     &sellerA,
				BuyerName:    "Jane",
				BuyerContact: "jane@example.com",
				ReservedAt:   &reservedAt,
			},
		})

		ticket, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandQuitReservation}, seller)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ticket.State != domain.StateAssigned {
			t.Fatalf("expected %s, got %s", domain.StateAssigned, ticket.State)
		}
		if !ticket.OwnedBy(sellerA) {
			t.Fatalf("expected seller preserved, got %+v", ticket.SellerID)
		}
		if ticket.BuyerName != "" || ticket.BuyerContact != "" {
			t.Fatalf("expected buyer fields cleared, got %+v", ticket)
		}
		if ticket.ReservedAt != nil {
			t.Fatalf("expected reserved_at cleared, got %v", ticket.ReservedAt)
		}
		if got := repo.tickets["TKT-A"]; got.State != domain.StateAssigned {
			t.Fatalf("rollback not persisted: %+v", got)
		}
	})

	t.Run("other seller cannot quit a reservation", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateReserved, SellerID: &sellerA, BuyerName: "Jane"},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandQuitReservation},
			domain.Caller{ID: "seller-b", Role: domain.RoleSeller})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("quitting a public reservation returns the ticket to the pool", func(t *testing.T) {
		reservedAt := now.Add(-time.Hour)
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateReserved, BuyerName: "Jane", ReservedAt: &reservedAt},
		})

		// No seller to return to, so only an admin may cancel it.
		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandQuitReservation}, guest)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for guest, got %v", err)
		}

		ticket, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandQuitReservation}, admin)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ticket.State != domain.StateAvailable {
			t.Fatalf("expected %s, got %s", domain.StateAvailable, ticket.State)
		}
		if ticket.BuyerName != "" || ticket.ReservedAt != nil {
			t.Fatalf("expected reservation fields cleared, got %+v", ticket)
		}
	})

	t.Run("quit reservation only applies to reserved tickets", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAssigned, SellerID: &sellerA},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandQuitReservation}, seller)
		var invalid *domain.InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
	})

	t.Run("approve requires payment method and price", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateReportedSold, SellerID: &sellerA, BuyerName: "Jane"},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandApprove}, admin)
		if !errors.Is(err, domain.ErrPaymentMethodRequired) {
			t.Fatalf("expected ErrPaymentMethodRequired, got %v", err)
		}

		_, err = svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:          domain.CommandApprove,
			PaymentMethod: "cash",
		}, admin)
		if !errors.Is(err, domain.ErrPriceRequired) {
			t.Fatalf("expected ErrPriceRequired, got %v", err)
		}

		approved, err := svc.Apply(context.Background(), "TKT-A", domain.Command{
			Kind:          domain.CommandApprove,
			PaymentMethod: "cash",
			Price:         decimal.NewNullDecimal(decimal.NewFromInt(450)),
		}, admin)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if approved.State != domain.StateApproved || approved.PaymentMethod != "cash" {
			t.Fatalf("unexpected approval result: %+v", approved)
		}
		if approved.ApprovedBy != admin.ID {
			t.Fatalf("expected approved_by %q, got %q", admin.ID, approved.ApprovedBy)
		}
		if approved.PaidAt == nil || !approved.PaidAt.Equal(now) {
			t.Fatalf("expected paid_at %v, got %v", now, approved.PaidAt)
		}
	})

	t.Run("gate validation is terminal and idempotent", func(t *testing.T) {
		svc, repo := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateApproved, SellerID: &sellerA, BuyerName: "Jane"},
		})

		used, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandValidate}, guest)
		if err != nil {
			t.Fatalf("first scan: expected no error, got %v", err)
		}
		if used.State != domain.StateUsed || used.UsedAt == nil {
			t.Fatalf("unexpected scan result: %+v", used)
		}
		firstUsedAt := *used.UsedAt

		_, err = svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandValidate}, guest)
		if !errors.Is(err, domain.ErrAlreadyUsed) {
			t.Fatalf("second scan: expected ErrAlreadyUsed, got %v", err)
		}
		got := repo.tickets["TKT-A"]
		if got.UsedAt == nil || !got.UsedAt.Equal(firstUsedAt) {
			t.Fatalf("expected used_at untouched, got %v", got.UsedAt)
		}
	})

	t.Run("unassign returns ticket fully to pool", func(t *testing.T) {
		reservedAt := now.Add(-time.Hour)
		svc, _ := makeSvc([]domain.Ticket{
			{
				Code:       "TKT-A",
				State:      domain.StateReserved,
				SellerID:   &sellerA,
				BuyerName:  "Jane",
				ReservedAt: &reservedAt,
			},
		})

		ticket, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandUnassign}, admin)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ticket.State != domain.StateAvailable {
			t.Fatalf("expected %s, got %s", domain.StateAvailable, ticket.State)
		}
		if ticket.SellerID != nil || ticket.BuyerName != "" || ticket.ReservedAt != nil {
			t.Fatalf("expected seller, buyer and timestamps cleared: %+v", ticket)
		}
	})

	t.Run("invalid source state is rejected with details", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Ticket{
			{Code: "TKT-A", State: domain.StateAvailable},
		})

		_, err := svc.Apply(context.Background(), "TKT-A", domain.Command{Kind: domain.CommandApprove}, admin)
		var invalid *domain.InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
		if invalid.Current != domain.StateAvailable || invalid.Attempted != domain.CommandApprove {
			t.Fatalf("unexpected details: %+v", invalid)
		}
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc, _ := makeSvc(nil)

		_, err := svc.Apply(context.Background(), "TKT-MISSING", domain.Command{Kind: domain.CommandValidate}, guest)
		if !errors.Is(err, domain.ErrTicketNotFound) {
			t.Fatalf("expected ErrTicketNotFound, got %v", err)
		}
	})
}

type fakeTicketRepo struct {
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo(tickets []domain.Ticket) *fakeTicketRepo {
	m := make(map[string]domain.Ticket, len(tickets))
	for _, t := range tickets {
		m[t.Code] = t
	}
	return &fakeTicketRepo{tickets: m}
}

func (f *fakeTicketRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTicketRepo) GetTicketForUpdate(_ context.Context, code string) (domain.Ticket, error) {
	t, ok := f.tickets[code]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return t, nil
}

func (f *fakeTicketRepo) UpdateTicket(_ context.Context, t domain.Ticket) error {
	if _, ok := f.tickets[t.Code]; !ok {
		return domain.ErrTicketNotFound
	}
	f.tickets[t.Code] = t
	return nil
}
