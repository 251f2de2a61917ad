package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsIdentity(t *testing.T) {
	cause := errors.New("row locked")
	err := ErrInvalidTransition.Wrap(cause)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrInvalidTransition.Err, "sentinel must not be mutated")
	assert.Equal(t, "INVALID_TRANSITION: Invalid state transition: row locked", err.Error())
}

func TestWithDetailsCopies(t *testing.T) {
	err := ErrInvalidTransition.WithDetails(map[string]any{"current_status": "pending"})
	assert.Equal(t, "pending", err.Details["current_status"])
	assert.Nil(t, ErrInvalidTransition.Details)
}

func TestFromFindsWrappedError(t *testing.T) {
	err := fmt.Errorf("load order: %w", ErrOrderNotFound)
	e, ok := From(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, "ORDER_NOT_FOUND", e.Code)

	_, ok = From(errors.New("plain"))
	assert.False(t, ok)
}

func TestDistinctCodesDoNotMatch(t *testing.T) {
	assert.NotErrorIs(t, ErrMissingMealID, ErrInvalidMealID)
	assert.Equal(t, http.StatusUnauthorized, ErrMalformedToken.Status)
	assert.Equal(t, http.StatusForbidden, ErrTokenInvalid.Status)
}
