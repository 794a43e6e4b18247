package appointment

import "github.com/dockops/yms/core/model"

// transitions is the allowed state graph. Completed and cancelled are
// terminal; reschedule re-enters scheduled through allocation, not through a
// status change.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentScheduled:  {model.AppointmentCheckedIn, model.AppointmentCancelled},
	model.AppointmentCheckedIn:  {model.AppointmentInProgress, model.AppointmentCancelled},
	model.AppointmentInProgress: {model.AppointmentCompleted},
	model.AppointmentCompleted:  {},
	model.AppointmentCancelled:  {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
