package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/pkg/request"
	"github.com/heejin0702/anpetna-care/internal/pkg/response"
)

type DirectoryHandler struct {
	service directory.Service
}

func NewHandler(service directory.Service) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

// ListVenues retrieves a paginated list of venues, optionally filtered by name.
func (h *DirectoryHandler) ListVenues(c *gin.Context) {
	var req ListVenuesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	venues, total, err := h.service.ListVenues(c.Request.Context(), directory.VenueFilter{
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]VenueResponse, len(venues))
	for i, v := range venues {
		items[i] = NewVenueResponse(v)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// ListDoctors retrieves the doctors working at a venue.
func (h *DirectoryHandler) ListDoctors(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid venue id", err)
		return
	}
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	doctors, total, err := h.service.ListDoctors(c.Request.Context(), directory.DoctorFilter{
		VenueID:  uri.ID,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]DoctorResponse, len(doctors))
	for i, d := range doctors {
		items[i] = NewDoctorResponse(d)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

// GetVenue retrieves one venue.
func (h *DirectoryHandler) GetVenue(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid venue id", err)
		return
	}

	v, err := h.service.GetVenue(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewVenueResponse(v))
}

// GetDoctor retrieves one doctor with the venue name attached.
func (h *DirectoryHandler) GetDoctor(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid doctor id", err)
		return
	}

	d, err := h.service.GetDoctor(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewDoctorResponse(d))
}
