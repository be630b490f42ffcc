package app

import (
	"context"
	"errors"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/clock"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type InventoryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	ListEvents(ctx context.Context) ([]domain.Event, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateTickets(ctx context.Context, tickets []domain.Ticket) error
}

// InventoryService creates events together with their full ticket stock.
type InventoryService struct {
	repo  InventoryRepository
	clock clock.Clock
}

func NewInventoryService(repo InventoryRepository, clk clock.Clock) *InventoryService {
	return &InventoryService{
		repo:  repo,
		clock: clk,
	}
}

type CreateEventInput struct {
	Name      string
	Venue     string
	StartsAt  *time.Time
	Capacity  int
	BasePrice decimal.Decimal
}

type CreateEventResult struct {
	Event   domain.Event
	Tickets []domain.Ticket
	// FailedCodes counts tickets whose code could not be established within
	// the retry budget. The rest of the batch is still committed.
	FailedCodes int
}

// CreateEventInventory creates the event and generates one available ticket
// per seat of capacity, each with a fresh unique code, in one transaction.
func (s *InventoryService) CreateEventInventory(ctx context.Context, in CreateEventInput, caller domain.Caller) (CreateEventResult, error) {
	if !caller.IsAdmin() {
		return CreateEventResult{}, domain.ErrForbidden
	}
	if in.Name == "" {
		return CreateEventResult{}, domain.ErrEventNameRequired
	}
	if in.Capacity <= 0 {
		return CreateEventResult{}, domain.ErrInvalidCapacity
	}

	now := s.clock.Now()
	startsAt := now
	if in.StartsAt != nil {
		startsAt = *in.StartsAt
	}

	event := domain.Event{
		ID:        newEventID(),
		Name:      in.Name,
		Venue:     in.Venue,
		StartsAt:  startsAt,
		Capacity:  in.Capacity,
		BasePrice: in.BasePrice,
		CreatedAt: now,
	}

	var result CreateEventResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateEvent(txCtx, event); err != nil {
			return err
		}

		batch := make(map[string]struct{}, in.Capacity)
		tickets := make([]domain.Ticket, 0, in.Capacity)
		failed := 0
		for i := 0; i < in.Capacity; i++ {
			code, err := NewTicketCode(txCtx, s.repo, batch)
			if err != nil {
				// Exhaustion is fatal for this ticket only; the batch
				// continues and the shortfall is reported to the caller.
				if errors.Is(err, domain.ErrCodeGenerationExhausted) {
					failed++
					continue
				}
				return err
			}
			batch[code] = struct{}{}
			tickets = append(tickets, domain.Ticket{
				Code:      code,
				EventID:   event.ID,
				State:     domain.StateAvailable,
				CreatedAt: now,
			})
		}

		if err := s.repo.CreateTickets(txCtx, tickets); err != nil {
			return err
		}

		result = CreateEventResult{
			Event:       event,
			Tickets:     tickets,
			FailedCodes: failed,
		}
		return nil
	})
	if err != nil {
		return CreateEventResult{}, err
	}

	if result.FailedCodes > 0 {
		return result, &domain.CodeExhaustionError{Failed: result.FailedCodes}
	}
	return result, nil
}

func (s *InventoryService) ListEvents(ctx context.Context, caller domain.Caller) ([]domain.Event, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListEvents(ctx)
}
