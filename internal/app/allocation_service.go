package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/clock"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
)

type AllocationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	EventExists(ctx context.Context, eventID string) (bool, error)
	// LockTickets locks up to limit tickets in the given state for the
	// event, ordered by code ascending, and returns their codes.
	LockTickets(ctx context.Context, eventID string, state domain.TicketState, limit int) ([]string, error)
	// AssignTickets flips the locked rows to the seller's stock in one
	// statement and returns how many rows actually changed.
	AssignTickets(ctx context.Context, codes []string, from domain.TicketState, sellerID string, at time.Time) (int64, error)
}

// AllocationService atomically claims N available tickets for a seller.
// Either all requested tickets are claimed or none are; concurrent
// allocations against the same pool never receive overlapping code sets.
type AllocationService struct {
	repo    AllocationRepository
	clock   clock.Clock
	retries int
}

const defaultAllocationRetries = 3

func NewAllocationService(repo AllocationRepository, clk clock.Clock, opts ...AllocationServiceOption) *AllocationService {
	svc := &AllocationService{
		repo:    repo,
		clock:   clk,
		retries: defaultAllocationRetries,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type AllocationServiceOption func(*AllocationService)

// WithAllocationRetries overrides the retry budget for transaction
// conflicts.
func WithAllocationRetries(n int) AllocationServiceOption {
	return func(s *AllocationService) {
		if n > 0 {
			s.retries = n
		}
	}
}

type AllocateInput struct {
	EventID  string
	Count    int
	SellerID string
}

type AllocationResult struct {
	Claimed []string
}

func (s *AllocationService) Allocate(ctx context.Context, in AllocateInput, caller domain.Caller) (AllocationResult, error) {
	if !caller.IsAdmin() {
		return AllocationResult{}, domain.ErrForbidden
	}
	if in.Count <= 0 {
		return AllocationResult{}, domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(in.SellerID) == "" {
		return AllocationResult{}, domain.ErrInvalidTarget
	}

	var result AllocationResult
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		result, err = s.allocateOnce(ctx, in)
		// Only serialization conflicts are retried; everything else is
		// surfaced as-is.
		if errors.Is(err, domain.ErrAllocationConflict) {
			continue
		}
		return result, err
	}
	return AllocationResult{}, domain.ErrAllocationConflict
}

func (s *AllocationService) allocateOnce(ctx context.Context, in AllocateInput) (AllocationResult, error) {
	now := s.clock.Now()
	var result AllocationResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.EventExists(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrEventNotFound
		}

		codes, err := s.repo.LockTickets(txCtx, in.EventID, domain.StateAvailable, in.Count)
		if err != nil {
			return err
		}
		if len(codes) < in.Count {
			return &domain.InsufficientInventoryError{
				Requested: in.Count,
				Available: len(codes),
			}
		}

		updated, err := s.repo.AssignTickets(txCtx, codes, domain.StateAvailable, in.SellerID, now)
		if err != nil {
			return err
		}
		if updated != int64(in.Count) {
			// A locked row changed state underneath us; roll back and let
			// the caller's retry budget decide.
			return domain.ErrAllocationConflict
		}

		result = AllocationResult{Claimed: codes}
		return nil
	})
	if err != nil {
		return AllocationResult{}, err
	}
	return result, nil
}
