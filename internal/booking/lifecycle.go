package booking

import "github.com/iliyamo/spacehire/internal/model"

var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusDeclined, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCancelled, model.StatusCompleted},
	model.StatusDeclined:  {},
	model.StatusCancelled: {},
	model.StatusCompleted: {},
}

// hostSettable are the targets a host or admin may request directly.
// Completion is reserved for the scheduled completion job.
var hostSettable = map[model.ReservationStatus]bool{
	model.StatusConfirmed: true,
	model.StatusDeclined:  true,
	model.StatusCancelled: true,
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to model.ReservationStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s. Unknown statuses are
// treated as terminal.
func IsTerminal(s model.ReservationStatus) bool {
	return len(transitions[s]) == 0
}

// HostSettable reports whether s may be requested through UpdateStatus.
func HostSettable(s model.ReservationStatus) bool {
	return hostSettable[s]
}
