package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/availability"
	avHttp "github.com/heejin0702/anpetna-care/internal/availability/http"
	"github.com/heejin0702/anpetna-care/internal/closure"
	closureHttp "github.com/heejin0702/anpetna-care/internal/closure/http"
	"github.com/heejin0702/anpetna-care/internal/directory"
	dirHttp "github.com/heejin0702/anpetna-care/internal/directory/http"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	resHttp "github.com/heejin0702/anpetna-care/internal/reservation/http"
)

// Pinger reports storage liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger
	JWTManager   *auth.JWTManager
	// DB is nil when running on the memory store.
	DB Pinger

	DirectoryService    directory.Service
	AvailabilityService availability.Service
	ClosureService      closure.Service
	ReservationService  reservation.Service
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: Structured access log through zap.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Storefront dev server
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", resHttp.IdempotencyKeyHeader}
	if len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	r.GET("/healthz", healthHandler(cfg.DB))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks if the principal carries the admin role.
	adminMiddleware := auth.RequireAdmin()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	dirHandler := dirHttp.NewHandler(cfg.DirectoryService)
	avHandler := avHttp.NewHandler(cfg.AvailabilityService)
	closureHandler := closureHttp.NewHandler(cfg.ClosureService, cfg.AvailabilityService)
	resHandler := resHttp.NewHandler(cfg.ReservationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		dirHttp.RegisterRoutes(v1, dirHandler, authMiddleware)
		avHttp.RegisterRoutes(v1, avHandler, authMiddleware)
		closureHttp.RegisterRoutes(v1, closureHandler, authMiddleware, adminMiddleware)
		resHttp.RegisterRoutes(v1, resHandler, authMiddleware, adminMiddleware)
	}

	return r
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
