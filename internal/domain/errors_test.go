package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_Is(t *testing.T) {
	ise := fmt.Errorf("release: %w", NewInsufficientStock("p", "l", 2, 5))
	assert.ErrorIs(t, ise, ErrInsufficientStock)
	assert.NotErrorIs(t, ise, ErrInvalidTransition)
	var typed *InsufficientStockError
	assert.True(t, errors.As(ise, &typed))
	assert.Equal(t, int64(5), typed.Requested)

	assert.ErrorIs(t, NewInvalidTransition("COMPLETED", "cancel"), ErrInvalidTransition)
	assert.ErrorIs(t, NewInvariantViolation("x=%d", 1), ErrInvariantViolation)
	assert.Contains(t, NewInvalidTransition("COMPLETED", "cancel").Error(), "COMPLETED")
}
