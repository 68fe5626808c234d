package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "ad %s not found", "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "abc")
}

func TestMatchSurvivesFurtherWrapping(t *testing.T) {
	inner := Wrap(ErrDuplicatePurchase, "already claimed")
	outer := fmt.Errorf("purchase: %w", inner)
	assert.ErrorIs(t, outer, ErrDuplicatePurchase)

	var ae *Error
	assert.True(t, errors.As(outer, &ae))
	assert.Equal(t, ErrDuplicatePurchase.Code, ae.Code)
}

func TestPlainErrorDoesNotMatch(t *testing.T) {
	assert.NotErrorIs(t, errors.New("boom"), ErrNotFound)
}
