package http

import (
	"github.com/heejin0702/anpetna-care/internal/availability"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

type DateQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type StayQuery struct {
	CheckIn  string `form:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut string `form:"check_out" binding:"required,datetime=2006-01-02"`
}

type AvailableTimesResponse struct {
	DoctorID string           `json:"doctor_id"`
	Date     schedule.Date    `json:"date"`
	Times    schedule.TimeSet `json:"times"`
}

type StayAvailabilityResponse struct {
	VenueID   string        `json:"venue_id"`
	CheckIn   schedule.Date `json:"check_in"`
	CheckOut  schedule.Date `json:"check_out"`
	Available bool          `json:"available"`
}

type DayViewResponse struct {
	DoctorID  string           `json:"doctor_id"`
	Date      schedule.Date    `json:"date"`
	Catalog   schedule.TimeSet `json:"catalog"`
	Reserved  schedule.TimeSet `json:"reserved"`
	Locked    schedule.TimeSet `json:"locked"`
	Closed    schedule.TimeSet `json:"closed"`
	Past      schedule.TimeSet `json:"past"`
	Available schedule.TimeSet `json:"available"`
}

func NewDayViewResponse(doctorID string, v *availability.DayView) DayViewResponse {
	return DayViewResponse{
		DoctorID:  doctorID,
		Date:      v.Date,
		Catalog:   v.Catalog,
		Reserved:  v.Reserved,
		Locked:    v.Locked,
		Closed:    v.Closed,
		Past:      v.Past,
		Available: v.Available,
	}
}
