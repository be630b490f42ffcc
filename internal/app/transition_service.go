package app

import (
	"context"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/clock"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type TransitionRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetTicketForUpdate(ctx context.Context, code string) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, ticket domain.Ticket) error
}

// TransitionService validates and applies single-ticket lifecycle changes.
// Every edge is declared in one table: allowed source states, a role guard
// and an apply step. Nothing else in the repository writes ticket state.
type TransitionService struct {
	repo  TransitionRepository
	clock clock.Clock
	edges map[domain.CommandKind]edge
}

type edge struct {
	from  []domain.TicketState
	guard func(caller domain.Caller, t domain.Ticket) error
	apply func(t domain.Ticket, cmd domain.Command, caller domain.Caller, now time.Time) (domain.Ticket, error)
}

type TransitionServiceOption func(*TransitionService)

// WithPublicReservation opens the available pool to direct guest
// reservations (event-owned stock, no seller involved). Off by default;
// this is per-deployment configuration.
func WithPublicReservation() TransitionServiceOption {
	return func(s *TransitionService) {
		reserve := s.edges[domain.CommandReserve]
		reserve.from = append(reserve.from, domain.StateAvailable)
		s.edges[domain.CommandReserve] = reserve
	}
}

func NewTransitionService(repo TransitionRepository, clk clock.Clock, opts ...TransitionServiceOption) *TransitionService {
	svc := &TransitionService{
		repo:  repo,
		clock: clk,
	}
	svc.edges = map[domain.CommandKind]edge{
		domain.CommandReserve: {
			from:  []domain.TicketState{domain.StateAssigned},
			guard: svc.guardSellerOrPublic,
			apply: applyReserve,
		},
		domain.CommandReportSale: {
			from:  []domain.TicketState{domain.StateReserved},
			guard: guardOwningSellerOrAdmin,
			apply: applyReportSale,
		},
		domain.CommandApprove: {
			from:  []domain.TicketState{domain.StateReportedSold},
			guard: guardAdmin,
			apply: applyApprove,
		},
		domain.CommandReject: {
			from:  []domain.TicketState{domain.StateReportedSold},
			guard: guardAdmin,
			apply: applyReject,
		},
		domain.CommandQuitReservation: {
			from:  []domain.TicketState{domain.StateReserved},
			guard: guardOwningSellerOrAdmin,
			apply: applyQuitReservation,
		},
		domain.CommandValidate: {
			from:  []domain.TicketState{domain.StateApproved},
			guard: guardAnyCaller,
			apply: applyValidate,
		},
		domain.CommandUnassign: {
			from:  []domain.TicketState{domain.StateAssigned, domain.StateReserved},
			guard: guardAdmin,
			apply: applyUnassign,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Apply runs one command against one ticket inside a transaction: lock the
// row, check the edge and its guard, write the next state.
func (s *TransitionService) Apply(ctx context.Context, code string, cmd domain.Command, caller domain.Caller) (domain.Ticket, error) {
	e, ok := s.edges[cmd.Kind]
	if !ok {
		return domain.Ticket{}, &domain.InvalidTransitionError{Attempted: cmd.Kind}
	}

	now := s.clock.Now()
	var result domain.Ticket

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.repo.GetTicketForUpdate(txCtx, code)
		if err != nil {
			return err
		}

		// A second gate scan is a distinct, non-destructive outcome rather
		// than a generic transition rejection.
		if cmd.Kind == domain.CommandValidate && ticket.State == domain.StateUsed {
			return domain.ErrAlreadyUsed
		}

		if !stateIn(ticket.State, e.from) {
			return &domain.InvalidTransitionError{Current: ticket.State, Attempted: cmd.Kind}
		}
		if err := e.guard(caller, ticket); err != nil {
			return err
		}

		next, err := e.apply(ticket, cmd, caller, now)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateTicket(txCtx, next); err != nil {
			return err
		}

		result = next
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return result, nil
}

func stateIn(state domain.TicketState, states []domain.TicketState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

func guardAdmin(caller domain.Caller, _ domain.Ticket) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

func guardOwningSellerOrAdmin(caller domain.Caller, t domain.Ticket) error {
	if caller.IsAdmin() || t.OwnedBy(caller.ID) {
		return nil
	}
	return domain.ErrForbidden
}

func guardAnyCaller(_ domain.Caller, _ domain.Ticket) error {
	return nil
}

// guardSellerOrPublic covers both reservation flows: seller-owned stock
// needs the owning seller (or an admin), event-owned stock is open to any
// caller when the public edge is enabled.
func (s *TransitionService) guardSellerOrPublic(caller domain.Caller, t domain.Ticket) error {
	if t.State == domain.StateAvailable {
		return nil
	}
	return guardOwningSellerOrAdmin(caller, t)
}

func applyReserve(t domain.Ticket, cmd domain.Command, _ domain.Caller, now time.Time) (domain.Ticket, error) {
	if cmd.BuyerName == "" {
		return domain.Ticket{}, domain.ErrBuyerNameRequired
	}
	t.State = domain.StateReserved
	t.BuyerName = cmd.BuyerName
	t.BuyerContact = cmd.BuyerContact
	t.ReservedAt = &now
	return t, nil
}

func applyReportSale(t domain.Ticket, cmd domain.Command, caller domain.Caller, now time.Time) (domain.Ticket, error) {
	t.State = domain.StateReportedSold
	t.ReportedBy = caller.ID
	t.ReportedAt = &now
	if cmd.Price.Valid {
		t.Price = cmd.Price
	}
	return t, nil
}

func applyApprove(t domain.Ticket, cmd domain.Command, caller domain.Caller, now time.Time) (domain.Ticket, error) {
	if cmd.PaymentMethod == "" {
		return domain.Ticket{}, domain.ErrPaymentMethodRequired
	}
	if !cmd.Price.Valid {
		return domain.Ticket{}, domain.ErrPriceRequired
	}
	t.State = domain.StateApproved
	t.PaymentMethod = cmd.PaymentMethod
	t.Price = cmd.Price
	t.ApprovedBy = caller.ID
	t.PaidAt = &now
	return t, nil
}

// applyReject rolls back a reported sale. The ticket returns to reserved
// when buyer details were taken before the report, otherwise to the
// seller's stock; the sale-cycle fields are cleared either way.
func applyReject(t domain.Ticket, _ domain.Command, _ domain.Caller, _ time.Time) (domain.Ticket, error) {
	if t.BuyerName != "" {
		t.State = domain.StateReserved
	} else {
		t.State = domain.StateAssigned
	}
	t.ReportedAt = nil
	t.Price = decimal.NullDecimal{}
	t.PaymentMethod = ""
	t.ReportedBy = ""
	t.ApprovedBy = ""
	return t, nil
}

// applyQuitReservation cancels a reservation whose buyer backed out before
// any sale was reported. Seller-owned stock returns to the seller; a public
// reservation has no seller to return to and goes back to the pool.
func applyQuitReservation(t domain.Ticket, _ domain.Command, _ domain.Caller, _ time.Time) (domain.Ticket, error) {
	if t.SellerID != nil {
		t.State = domain.StateAssigned
	} else {
		t.State = domain.StateAvailable
	}
	t.BuyerName = ""
	t.BuyerContact = ""
	t.ReservedAt = nil
	return t, nil
}

func applyValidate(t domain.Ticket, _ domain.Command, _ domain.Caller, now time.Time) (domain.Ticket, error) {
	t.State = domain.StateUsed
	t.UsedAt = &now
	return t, nil
}

func applyUnassign(t domain.Ticket, _ domain.Command, _ domain.Caller, _ time.Time) (domain.Ticket, error) {
	t.State = domain.StateAvailable
	t.SellerID = nil
	t.BuyerName = ""
	t.BuyerContact = ""
	t.Price = decimal.NullDecimal{}
	t.PaymentMethod = ""
	t.ReportedBy = ""
	t.ApprovedBy = ""
	t.AssignedAt = nil
	t.ReservedAt = nil
	t.ReportedAt = nil
	t.PaidAt = nil
	t.UsedAt = nil
	return t, nil
}
