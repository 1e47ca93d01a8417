package http

import (
	"time"

	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/pkg/request"
)

type VenueResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewVenueResponse(v *directory.Venue) VenueResponse {
	return VenueResponse{
		ID:        v.ID,
		Name:      v.Name,
		CreatedAt: v.CreatedAt,
	}
}

type DoctorResponse struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	VenueName string    `json:"venue_name"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDoctorResponse(d *directory.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		VenueID:   d.VenueID,
		VenueName: d.VenueName,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
	}
}

type ListVenuesRequest struct {
	request.ListParams
	Keyword string `form:"q"`
}

// VenueTag is the compact venue reference embedded in other responses.
type VenueTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DoctorTag is the compact doctor reference embedded in other responses.
type DoctorTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
