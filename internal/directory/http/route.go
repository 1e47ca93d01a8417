package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *DirectoryHandler, authMiddleware gin.HandlerFunc) {
	group := g.Group("")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("/venues", h.ListVenues)              // List venues
		group.GET("/venues/:id", h.GetVenue)            // Get venue details
		group.GET("/venues/:id/doctors", h.ListDoctors) // List doctors of a venue
		group.GET("/doctors/:id", h.GetDoctor)          // Get doctor details
	}
}
