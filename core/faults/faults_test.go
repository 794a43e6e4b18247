package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultsMatchTheirSentinel(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{NotFound("trailer %s not found", "trl-1"), ErrNotFound},
		{Conflict("dock %d is booked", 3), ErrConflict},
		{PreconditionFailed("no recorded check-in"), ErrPreconditionFailed},
	}
	sentinels := []error{ErrNotFound, ErrConflict, ErrPreconditionFailed}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		for _, other := range sentinels {
			if other != tc.sentinel {
				assert.NotErrorIs(t, tc.err, other)
			}
		}
	}
}

func TestFaultMessage(t *testing.T) {
	err := NotFound("appointment %s not found", "apt-9")
	assert.Equal(t, "appointment apt-9 not found", err.Error())
}

func TestWrappedFaultStillMatches(t *testing.T) {
	err := fmt.Errorf("check-in: %w", Conflict("yard full"))
	assert.True(t, errors.Is(err, ErrConflict))
}
