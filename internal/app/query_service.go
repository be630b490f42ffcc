package app

import (
	"context"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type QueryRepository interface {
	EventExists(ctx context.Context, eventID string) (bool, error)
	SellerStock(ctx context.Context, sellerID string) ([]domain.TicketSummary, error)
	ListReportedSold(ctx context.Context, eventID string) ([]domain.Ticket, error)
	EventSnapshot(ctx context.Context, eventID string) ([]domain.TicketSummary, error)
}

// QueryService exposes read-only projections over current ticket rows.
// Results are recomputed from the store on every call and are never an
// input to transition decisions.
type QueryService struct {
	repo QueryRepository
}

func NewQueryService(repo QueryRepository) *QueryService {
	return &QueryService{repo: repo}
}

// Stock returns the seller's tickets grouped by state. Sellers see only
// their own stock; admins may inspect any seller's.
func (s *QueryService) Stock(ctx context.Context, sellerID string, caller domain.Caller) ([]domain.TicketSummary, error) {
	if !caller.IsAdmin() && caller.ID != sellerID {
		return nil, domain.ErrForbidden
	}
	return s.repo.SellerStock(ctx, sellerID)
}

type PendingApproval struct {
	Tickets []domain.Ticket
	// Total sums the reported prices of the listed tickets; tickets
	// reported without a price contribute nothing.
	Total decimal.Decimal
}

func (s *QueryService) PendingApproval(ctx context.Context, eventID string, caller domain.Caller) (PendingApproval, error) {
	if !caller.IsAdmin() {
		return PendingApproval{}, domain.ErrForbidden
	}
	exists, err := s.repo.EventExists(ctx, eventID)
	if err != nil {
		return PendingApproval{}, err
	}
	if !exists {
		return PendingApproval{}, domain.ErrEventNotFound
	}

	tickets, err := s.repo.ListReportedSold(ctx, eventID)
	if err != nil {
		return PendingApproval{}, err
	}

	total := decimal.Zero
	for _, t := range tickets {
		if t.Price.Valid {
			total = total.Add(t.Price.Decimal)
		}
	}
	return PendingApproval{Tickets: tickets, Total: total}, nil
}

// Snapshot returns per-state counts for one event's whole inventory.
func (s *QueryService) Snapshot(ctx context.Context, eventID string, caller domain.Caller) ([]domain.TicketSummary, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	exists, err := s.repo.EventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrEventNotFound
	}
	return s.repo.EventSnapshot(ctx, eventID)
}
