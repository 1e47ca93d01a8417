package reservation

import (
	"errors"
	"time"

	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

var (
	ErrNotFound          = apperror.NotFound("reservation not found")
	ErrInvalidInput      = apperror.Validation("invalid reservation request")
	ErrInvalidStatus     = apperror.Validation("invalid reservation status")
	ErrPastDate          = apperror.PastDate("cannot reserve a time in the past")
	ErrSlotConflict      = apperror.Conflict("time slot is already reserved")
	ErrSlotClosed        = apperror.Conflict("time slot is closed")
	ErrStayConflict      = apperror.Conflict("stay overlaps an existing reservation")
	ErrCancelNotAllowed  = apperror.PolicyViolation("confirmed reservations can only be canceled until the day before the appointment or check-in date")
	ErrNotCancelable     = apperror.PolicyViolation("only pending or confirmed reservations can be canceled")
	ErrInvalidTransition = apperror.InvalidTransition("reservation is closed and its status can no longer change")
	ErrPermissionDenied  = apperror.Forbidden("permission denied")

	// ErrDuplicateRequest is returned by Repository.Create when the member already used the idempotency key.
	ErrDuplicateRequest = errors.New("idempotency key already used")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCanceled  Status = "CANCELED"
	StatusNoShow    Status = "NOSHOW"
)

var (
	// ActiveStatuses occupy a slot or a stay.
	ActiveStatuses = []Status{StatusPending, StatusConfirmed}
	// LockedStatuses pin a slot against closure toggles.
	LockedStatuses = []Status{StatusConfirmed, StatusNoShow}
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCanceled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCanceled || s == StatusNoShow
}

// Reservation is either a hospital appointment (doctor, date and slot) or a hotel stay (check-in and
// check-out dates). The fields of the other kind are left zero.
type Reservation struct {
	ID          string
	ServiceType schedule.ServiceType
	VenueID     string
	VenueName   string
	DoctorID    string
	DoctorName  string

	AppointmentDate schedule.Date
	AppointmentTime schedule.TimeOfDay
	CheckIn         schedule.Date
	CheckOut        schedule.Date

	MemberID       string
	ReserverName   string
	PrimaryPhone   string
	SecondaryPhone string
	PetName        string
	PetBirthYear   int
	PetSpecies     string
	PetGender      string
	Memo           string

	Status         Status
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EventDate is the day the reservation takes place: the appointment date or the check-in date.
func (r *Reservation) EventDate() schedule.Date {
	if r.ServiceType == schedule.ServiceHotel {
		return r.CheckIn
	}
	return r.AppointmentDate
}

// Filter defines parameters for listing reservations.
type Filter struct {
	VenueID     string
	ServiceType schedule.ServiceType
	Status      Status
	DoctorID    string
	Date        *schedule.Date // Appointment date, or any day of a stay
	MemberID    string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// Sortable columns accepted by Filter.SortBy.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByEventDate = "event_date"
	SortByStatus    = "status"
)
