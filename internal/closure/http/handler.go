package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/availability"
	avHttp "github.com/heejin0702/anpetna-care/internal/availability/http"
	"github.com/heejin0702/anpetna-care/internal/closure"
	"github.com/heejin0702/anpetna-care/internal/pkg/request"
	"github.com/heejin0702/anpetna-care/internal/pkg/response"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

type Handler struct {
	service      closure.Service
	availability availability.Service
}

func NewHandler(service closure.Service, availabilityService availability.Service) *Handler {
	return &Handler{
		service:      service,
		availability: availabilityService,
	}
}

// DayView shows a doctor's day as the closure editor needs it.
func (h *Handler) DayView(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid doctor id", err)
		return
	}
	var q avHttp.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}
	date, err := schedule.ParseDate(q.Date)
	if err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	view, err := h.availability.DayView(c.Request.Context(), uri.ID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, avHttp.NewDayViewResponse(uri.ID, view))
}

// Merge applies the admin's toggled times to the stored closures.
func (h *Handler) Merge(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid doctor id", err)
		return
	}
	var body MergeClosuresRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	result, err := h.service.Merge(c.Request.Context(), p, closure.MergeRequest{
		DoctorID: uri.ID,
		Date:     body.Date,
		Toggled:  schedule.NewTimeSet(body.Toggled...),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewMergeClosuresResponse(uri.ID, body.Date, result))
}
