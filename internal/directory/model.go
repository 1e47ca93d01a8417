package directory

import (
	"time"

	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
)

var (
	ErrVenueNotFound  = apperror.NotFound("venue not found")
	ErrDoctorNotFound = apperror.NotFound("doctor not found")
)

// Venue is a hospital or hotel site. The directory is maintained elsewhere and is read-only here.
type Venue struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Doctor belongs to exactly one venue.
type Doctor struct {
	ID        string
	VenueID   string
	VenueName string
	Name      string
	CreatedAt time.Time
}

// VenueFilter defines parameters for listing venues.
type VenueFilter struct {
	Keyword  string
	Page     int
	PageSize int
}

// DoctorFilter defines parameters for listing doctors.
type DoctorFilter struct {
	VenueID  string
	Page     int
	PageSize int
}
