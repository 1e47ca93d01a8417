package reservation

import "github.com/heejin0702/anpetna-care/internal/schedule"

// transitions is the natural lifecycle. Admins may step outside it, see CanAdminSet.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCanceled},
	StatusConfirmed: {StatusCanceled, StatusNoShow},
}

// CanTransitionTo reports whether next follows s in the natural lifecycle.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanAdminSet reports whether an admin may move a reservation from one status to another.
// Any status may be set while the reservation is open; once terminal it only accepts itself.
func CanAdminSet(from, to Status) bool {
	return from == to || !from.IsTerminal()
}

// CanCancel is the member cancellation rule. Pending reservations can always be canceled, confirmed
// ones until the day before eventDate. Only calendar days are compared.
func CanCancel(status Status, eventDate, today schedule.Date) bool {
	switch status {
	case StatusPending:
		return true
	case StatusConfirmed:
		return !today.After(eventDate.AddDays(-1))
	default:
		return false
	}
}

// cancelError explains why CanCancel refused.
func cancelError(status Status) error {
	if status == StatusConfirmed {
		return ErrCancelNotAllowed
	}
	return ErrNotCancelable
}
