package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/reservations")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.POST("", h.Create)            // Create reservation
		group.GET("", h.ListMine)           // List own reservations
		group.GET("/:id", h.Get)            // Get reservation (owner or admin)
		group.POST("/:id/cancel", h.Cancel) // Member cancel
	}

	// === Admin Routes ===
	admin := g.Group("/admin/reservations")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("", h.AdminList)                   // List all reservations
		admin.PATCH("/:id/status", h.AdminSetStatus) // Set status of one reservation
		admin.POST("/status", h.AdminBulkStatus)     // Set status of many reservations
	}
}
