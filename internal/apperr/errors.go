// Package apperr holds the error taxonomy shared by the sales workflow.
// Callers match with errors.Is; the HTTP layer maps each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidPricing    = errors.New("invalid pricing")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateOrder is returned by a store when the external id is taken.
	ErrDuplicateOrder = errors.New("order with this external id already exists")

	// ErrAlreadyTerminal is also an ErrInvalidTransition.
	ErrAlreadyTerminal = fmt.Errorf("%w: order already in a terminal state", ErrInvalidTransition)

	// ErrStockInvariant means a mutation would leave a variant in an impossible
	// state (negative stock, reserved above actual). Internal, never a 4xx.
	ErrStockInvariant = errors.New("stock invariant violated")
)

func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func InvalidPricingf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPricing, fmt.Sprintf(format, args...))
}

func InvalidTransitionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// StockError carries the detail of a rejected reservation.
type StockError struct {
	VariantID string `json:"variant_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: available %d, requested %d",
		e.VariantID, e.Available, e.Requested)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }
