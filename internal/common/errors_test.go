package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create: %w", NewValidationError("title", "is required"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrForbidden))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "title: is required", ve.Error())
}

func TestValidationError_NoField(t *testing.T) {
	err := &ValidationError{Reason: "too many files"}
	assert.Equal(t, "too many files", err.Error())
}

func TestLockedError_CarriesOpenDate(t *testing.T) {
	open := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	err := fmt.Errorf("media: %w", &LockedError{OpenDate: open})

	assert.True(t, errors.Is(err, ErrForbidden))

	var le *LockedError
	if assert.True(t, errors.As(err, &le)) {
		assert.Equal(t, open, le.OpenDate)
	}
	assert.Contains(t, err.Error(), "2030-01-02T03:04:05Z")
}
