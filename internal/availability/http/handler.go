package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heejin0702/anpetna-care/internal/availability"
	"github.com/heejin0702/anpetna-care/internal/pkg/request"
	"github.com/heejin0702/anpetna-care/internal/pkg/response"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

// AvailableTimes lists the bookable slots of a doctor on one date.
func (h *Handler) AvailableTimes(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid doctor id", err)
		return
	}
	var q DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}
	date, err := schedule.ParseDate(q.Date)
	if err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	times, err := h.service.Resolve(c.Request.Context(), uri.ID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailableTimesResponse{DoctorID: uri.ID, Date: date, Times: times})
}

// StayAvailability reports whether a hotel stay can be booked at the venue.
func (h *Handler) StayAvailability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid venue id", err)
		return
	}
	var q StayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}
	checkIn, err := schedule.ParseDate(q.CheckIn)
	if err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}
	checkOut, err := schedule.ParseDate(q.CheckOut)
	if err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	ok, err := h.service.StayAvailable(c.Request.Context(), uri.ID, checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, StayAvailabilityResponse{
		VenueID:   uri.ID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Available: ok,
	})
}
