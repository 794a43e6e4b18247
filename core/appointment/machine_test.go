package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dockops/yms/core/model"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to model.AppointmentStatus }{
		{model.AppointmentScheduled, model.AppointmentCheckedIn},
		{model.AppointmentScheduled, model.AppointmentCancelled},
		{model.AppointmentCheckedIn, model.AppointmentInProgress},
		{model.AppointmentCheckedIn, model.AppointmentCancelled},
		{model.AppointmentInProgress, model.AppointmentCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	all := []model.AppointmentStatus{
		model.AppointmentScheduled,
		model.AppointmentCheckedIn,
		model.AppointmentInProgress,
		model.AppointmentCompleted,
		model.AppointmentCancelled,
	}
	for _, to := range all {
		assert.False(t, CanTransition(model.AppointmentCompleted, to), "completed -> %s", to)
		assert.False(t, CanTransition(model.AppointmentCancelled, to), "cancelled -> %s", to)
	}
}

func TestForbiddenTransitions(t *testing.T) {
	forbidden := []struct{ from, to model.AppointmentStatus }{
		{model.AppointmentScheduled, model.AppointmentInProgress},
		{model.AppointmentScheduled, model.AppointmentCompleted},
		{model.AppointmentCheckedIn, model.AppointmentCompleted},
		{model.AppointmentInProgress, model.AppointmentCancelled},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
