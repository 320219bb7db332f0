package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlreadyTerminalIsInvalidTransition(t *testing.T) {
	assert.ErrorIs(t, ErrAlreadyTerminal, ErrInvalidTransition)
	assert.False(t, errors.Is(ErrInvalidTransition, ErrAlreadyTerminal))
}

func TestStockErrorMatchesInsufficientStock(t *testing.T) {
	var err error = &StockError{VariantID: "v-1", Requested: 3, Available: 2}
	wrapped := fmt.Errorf("line 1: %w", err)

	assert.ErrorIs(t, wrapped, ErrInsufficientStock)

	var se *StockError
	if assert.ErrorAs(t, wrapped, &se) {
		assert.Equal(t, 2, se.Available)
		assert.Equal(t, 3, se.Requested)
	}
	assert.Contains(t, err.Error(), "v-1")
}

func TestHelpersWrapSentinels(t *testing.T) {
	assert.ErrorIs(t, InvalidArgument("qty"), ErrInvalidArgument)
	assert.ErrorIs(t, InvalidArgumentf("qty %d", 0), ErrInvalidArgument)
	assert.ErrorIs(t, InvalidPricingf("price %s", "-1"), ErrInvalidPricing)
	assert.ErrorIs(t, InvalidTransitionf("%s -> %s", "A", "B"), ErrInvalidTransition)
}
