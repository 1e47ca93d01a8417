package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/pkg/request"
	"github.com/heejin0702/anpetna-care/internal/pkg/response"
	"github.com/heejin0702/anpetna-care/internal/reservation"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) respond(c *gin.Context, code int, r *reservation.Reservation) {
	c.JSON(code, NewReservationResponse(r, h.service.IsCancelable(r)))
}

func (h *Handler) respondPage(c *gin.Context, list []*reservation.Reservation, page, pageSize, total int) {
	items := make([]ReservationResponse, len(list))
	for i, r := range list {
		items[i] = NewReservationResponse(r, h.service.IsCancelable(r))
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

// Create books a hospital slot or a hotel stay for the caller.
// A repeated Idempotency-Key returns the original reservation with 200 instead of 201.
func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	res, replayed, err := h.service.Create(c.Request.Context(), p, body.ToServiceRequest(c.GetHeader(IdempotencyKeyHeader)))
	if err != nil {
		response.Error(c, err)
		return
	}

	code := http.StatusCreated
	if replayed {
		code = http.StatusOK
	}
	h.respond(c, code, res)
}

// ListMine retrieves the caller's own reservations.
func (h *Handler) ListMine(c *gin.Context) {
	var req ListMyReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	list, total, err := h.service.List(c.Request.Context(), auth.Principal{MemberID: p.MemberID, Role: auth.RoleMember}, req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondPage(c, list, req.Page, req.PageSize, total)
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid reservation id", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	res, err := h.service.GetByID(c.Request.Context(), p, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, http.StatusOK, res)
}

// Cancel is the member-initiated cancellation, gated by the cancellation policy.
func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid reservation id", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	res, err := h.service.Cancel(c.Request.Context(), p, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, http.StatusOK, res)
}

// AdminList retrieves reservations across all members with filters.
func (h *Handler) AdminList(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}
	filter, err := req.Filter()
	if err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	list, total, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondPage(c, list, req.Page, req.PageSize, total)
}

// AdminSetStatus sets one reservation's status.
func (h *Handler) AdminSetStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, "invalid reservation id", err)
		return
	}
	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	res, err := h.service.SetStatus(c.Request.Context(), p, uri.ID, reservation.Status(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, http.StatusOK, res)
}

// AdminBulkStatus applies one status to many reservations and reports the outcome per id.
func (h *Handler) AdminBulkStatus(c *gin.Context) {
	var body BulkStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	p, _ := auth.GetPrincipal(c)
	result, err := h.service.ApplyBulk(c.Request.Context(), p, body.IDs, reservation.Status(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, BulkStatusResponse{
		Status:  body.Status,
		Applied: result.Applied,
		Failed:  result.Failed,
	})
}
