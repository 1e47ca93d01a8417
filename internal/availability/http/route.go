package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("/doctors/:id/available-times", h.AvailableTimes)     // Bookable slots of a doctor's day
		group.GET("/venues/:id/stay-availability", h.StayAvailability) // Hotel range bookable?
	}
}
