package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound           = errors.New("event not found")
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidStateTransition  = errors.New("invalid state transition")
	ErrInsufficientInventory   = errors.New("insufficient inventory")
	ErrCodeGenerationExhausted = errors.New("ticket code generation exhausted")
	ErrDuplicateTicketCode     = errors.New("duplicate ticket code")
	ErrAllocationConflict      = errors.New("allocation conflict")
	ErrAlreadyUsed             = errors.New("ticket already used")
	ErrInvalidTarget           = errors.New("invalid allocation target")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidCapacity         = errors.New("invalid capacity")
	ErrEventNameRequired       = errors.New("event name required")
	ErrBuyerNameRequired       = errors.New("buyer name required")
	ErrPaymentMethodRequired   = errors.New("payment method required")
	ErrPriceRequired           = errors.New("price required")
	ErrInvalidID               = errors.New("invalid id")
)

// InvalidTransitionError reports a command attempted from a state that has
// no edge for it. It matches ErrInvalidStateTransition under errors.Is.
type InvalidTransitionError struct {
	Current   TicketState
	Attempted CommandKind
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s not allowed from %s", e.Attempted, e.Current)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// InsufficientInventoryError reports an all-or-nothing allocation that found
// fewer tickets than requested. Nothing was claimed. It matches
// ErrInsufficientInventory under errors.Is.
type InsufficientInventoryError struct {
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// CodeExhaustionError reports how many ticket codes could not be established
// within the retry budget during a bulk generation. It matches
// ErrCodeGenerationExhausted under errors.Is.
type CodeExhaustionError struct {
	Failed int
}

func (e *CodeExhaustionError) Error() string {
	return fmt.Sprintf("ticket code generation exhausted for %d ticket(s)", e.Failed)
}

func (e *CodeExhaustionError) Is(target error) bool {
	return target == ErrCodeGenerationExhausted
}
