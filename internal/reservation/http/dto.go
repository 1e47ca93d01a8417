package http

import (
	"time"

	dirHttp "github.com/heejin0702/anpetna-care/internal/directory/http"
	"github.com/heejin0702/anpetna-care/internal/pkg/request"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CreateReservationRequest struct {
	ServiceType     string              `json:"service_type" binding:"required,oneof=HOSPITAL HOTEL"`
	VenueID         string              `json:"venue_id" binding:"required,uuid"`
	DoctorID        string              `json:"doctor_id" binding:"omitempty,uuid"`
	AppointmentDate *schedule.Date      `json:"appointment_date"`
	AppointmentTime *schedule.TimeOfDay `json:"appointment_time"`
	CheckIn         *schedule.Date      `json:"check_in"`
	CheckOut        *schedule.Date      `json:"check_out"`
	ReserverName    string              `json:"reserver_name" binding:"required,max=50"`
	PrimaryPhone    string              `json:"primary_phone" binding:"required,max=20"`
	SecondaryPhone  string              `json:"secondary_phone" binding:"omitempty,max=20"`
	PetName         string              `json:"pet_name" binding:"required,max=50"`
	PetBirthYear    int                 `json:"pet_birth_year" binding:"required"`
	PetSpecies      string              `json:"pet_species" binding:"omitempty,max=30"`
	PetGender       string              `json:"pet_gender" binding:"omitempty,max=10"`
	Memo            string              `json:"memo" binding:"omitempty,max=1000"`
}

func (r *CreateReservationRequest) ToServiceRequest(idempotencyKey string) reservation.CreateRequest {
	req := reservation.CreateRequest{
		ServiceType:     schedule.ServiceType(r.ServiceType),
		VenueID:         r.VenueID,
		DoctorID:        r.DoctorID,
		AppointmentTime: r.AppointmentTime,
		ReserverName:    r.ReserverName,
		PrimaryPhone:    r.PrimaryPhone,
		SecondaryPhone:  r.SecondaryPhone,
		PetName:         r.PetName,
		PetBirthYear:    r.PetBirthYear,
		PetSpecies:      r.PetSpecies,
		PetGender:       r.PetGender,
		Memo:            r.Memo,
		IdempotencyKey:  idempotencyKey,
	}
	if r.AppointmentDate != nil {
		req.AppointmentDate = *r.AppointmentDate
	}
	if r.CheckIn != nil {
		req.CheckIn = *r.CheckIn
	}
	if r.CheckOut != nil {
		req.CheckOut = *r.CheckOut
	}
	return req
}

// ListMyReservationsRequest defines query parameters for a member's own reservations.
type ListMyReservationsRequest struct {
	request.ListParams
	ServiceType string `form:"service_type" binding:"omitempty,oneof=HOSPITAL HOTEL"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED REJECTED CANCELED NOSHOW"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at event_date status"`
}

func (r *ListMyReservationsRequest) Filter() reservation.Filter {
	return reservation.Filter{
		ServiceType: schedule.ServiceType(r.ServiceType),
		Status:      reservation.Status(r.Status),
		Page:        r.Page,
		PageSize:    r.PageSize,
		SortBy:      r.SortBy,
		SortOrder:   r.SortOrder,
	}
}

// ListReservationsRequest defines query parameters for the admin reservation list.
type ListReservationsRequest struct {
	ListMyReservationsRequest
	VenueID  string `form:"venue_id" binding:"omitempty,uuid"`
	DoctorID string `form:"doctor_id" binding:"omitempty,uuid"`
	Date     string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	MemberID string `form:"member_id" binding:"omitempty,max=100"`
}

func (r *ListReservationsRequest) Filter() (reservation.Filter, error) {
	f := r.ListMyReservationsRequest.Filter()
	f.VenueID = r.VenueID
	f.DoctorID = r.DoctorID
	f.MemberID = r.MemberID
	if r.Date != "" {
		d, err := schedule.ParseDate(r.Date)
		if err != nil {
			return f, err
		}
		f.Date = &d
	}
	return f, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED REJECTED CANCELED NOSHOW"`
}

type BulkStatusRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
	Status string   `json:"status" binding:"required,oneof=PENDING CONFIRMED REJECTED CANCELED NOSHOW"`
}

type BulkStatusResponse struct {
	Status  string            `json:"status"`
	Applied []string          `json:"applied"`
	Failed  map[string]string `json:"failed"`
}

type ReservationResponse struct {
	ID              string              `json:"id"`
	ServiceType     string              `json:"service_type"`
	Venue           dirHttp.VenueTag    `json:"venue"`
	Doctor          *dirHttp.DoctorTag  `json:"doctor,omitempty"`
	AppointmentDate *schedule.Date      `json:"appointment_date,omitempty"`
	AppointmentTime *schedule.TimeOfDay `json:"appointment_time,omitempty"`
	CheckIn         *schedule.Date      `json:"check_in,omitempty"`
	CheckOut        *schedule.Date      `json:"check_out,omitempty"`
	MemberID        string              `json:"member_id"`
	ReserverName    string              `json:"reserver_name"`
	PrimaryPhone    string              `json:"primary_phone"`
	SecondaryPhone  string              `json:"secondary_phone,omitempty"`
	PetName         string              `json:"pet_name"`
	PetBirthYear    int                 `json:"pet_birth_year"`
	PetSpecies      string              `json:"pet_species,omitempty"`
	PetGender       string              `json:"pet_gender,omitempty"`
	Memo            string              `json:"memo,omitempty"`
	Status          string              `json:"status"`
	Cancelable      bool                `json:"cancelable"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func NewReservationResponse(r *reservation.Reservation, cancelable bool) ReservationResponse {
	resp := ReservationResponse{
		ID:             r.ID,
		ServiceType:    string(r.ServiceType),
		Venue:          dirHttp.VenueTag{ID: r.VenueID, Name: r.VenueName},
		MemberID:       r.MemberID,
		ReserverName:   r.ReserverName,
		PrimaryPhone:   r.PrimaryPhone,
		SecondaryPhone: r.SecondaryPhone,
		PetName:        r.PetName,
		PetBirthYear:   r.PetBirthYear,
		PetSpecies:     r.PetSpecies,
		PetGender:      r.PetGender,
		Memo:           r.Memo,
		Status:         string(r.Status),
		Cancelable:     cancelable,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}

	if r.ServiceType == schedule.ServiceHospital {
		date, t := r.AppointmentDate, r.AppointmentTime
		resp.Doctor = &dirHttp.DoctorTag{ID: r.DoctorID, Name: r.DoctorName}
		resp.AppointmentDate = &date
		resp.AppointmentTime = &t
	} else {
		in, out := r.CheckIn, r.CheckOut
		resp.CheckIn = &in
		resp.CheckOut = &out
	}
	return resp
}
