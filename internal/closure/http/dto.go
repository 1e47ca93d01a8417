package http

import (
	"github.com/heejin0702/anpetna-care/internal/closure"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// MergeClosuresRequest carries only the times toggled in the admin's session.
type MergeClosuresRequest struct {
	Date    schedule.Date        `json:"date"`
	Toggled []schedule.TimeOfDay `json:"toggled" binding:"required,max=48"`
}

type MergeClosuresResponse struct {
	DoctorID string           `json:"doctor_id"`
	Date     schedule.Date    `json:"date"`
	Closed   schedule.TimeSet `json:"closed"`
	Ignored  schedule.TimeSet `json:"ignored"`
}

func NewMergeClosuresResponse(doctorID string, date schedule.Date, r *closure.MergeResult) MergeClosuresResponse {
	return MergeClosuresResponse{
		DoctorID: doctorID,
		Date:     date,
		Closed:   r.Closed,
		Ignored:  r.Ignored,
	}
}
