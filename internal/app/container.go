package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/heejin0702/anpetna-care/internal/api"
	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/availability"
	"github.com/heejin0702/anpetna-care/internal/closure"
	"github.com/heejin0702/anpetna-care/internal/directory"
	"github.com/heejin0702/anpetna-care/internal/notify"
	"github.com/heejin0702/anpetna-care/internal/pkg/clock"
	"github.com/heejin0702/anpetna-care/internal/reservation"
	"github.com/heejin0702/anpetna-care/internal/schedule"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	// DBPool selects the Postgres store; nil runs everything in memory.
	DBPool          *pgxpool.Pool
	JWTSecret       string
	JWTTTL          time.Duration
	Location        *time.Location
	Catalog         *schedule.Catalog
	BulkConcurrency int
	Logger          *zap.Logger
	Notifier        notify.Notifier
	Clock           clock.Clock
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	// MemoryDirectory is set on the memory store so the directory can be seeded.
	MemoryDirectory *directory.MemoryRepository
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Catalog == nil {
		cfg.Catalog = schedule.DefaultCatalog()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewLogNotifier(cfg.Logger)
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var (
		dirRepo     directory.Repository
		closureRepo closure.Repository
		resRepo     reservation.Repository
		memDir      *directory.MemoryRepository
		pinger      api.Pinger
	)
	if cfg.DBPool != nil {
		dirRepo = directory.NewPgxRepository(cfg.DBPool)
		closureRepo = closure.NewPgxRepository(cfg.DBPool)
		resRepo = reservation.NewPgxRepository(cfg.DBPool)
		pinger = cfg.DBPool
	} else {
		memDir = directory.NewMemoryRepository()
		dirRepo = memDir
		memClosures := closure.NewMemoryRepository()
		closureRepo = memClosures
		resRepo = reservation.NewMemoryRepository(memDir, cfg.Clock).WithClosureGuard(memClosures)
	}

	// Directory Module
	dirService := directory.NewService(dirRepo)

	// Closure Module
	closureService := closure.NewService(closureRepo, resRepo, dirService, cfg.Catalog, cfg.Logger.Named("closure"))

	// Availability Module
	avService := availability.NewService(resRepo, closureService, dirService, cfg.Catalog, cfg.Clock, cfg.Location)

	// Reservation Module
	resService := reservation.NewService(resRepo, dirService, closureService, reservation.Options{
		Catalog:         cfg.Catalog,
		Location:        cfg.Location,
		Clock:           cfg.Clock,
		Notifier:        cfg.Notifier,
		Logger:          cfg.Logger.Named("reservation"),
		BulkConcurrency: cfg.BulkConcurrency,
	})

	// API Router Config
	routerParams := api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              cfg.Logger.Named("http"),
		JWTManager:          jwtManager,
		DB:                  pinger,
		DirectoryService:    dirService,
		AvailabilityService: avService,
		ClosureService:      closureService,
		ReservationService:  resService,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:          router,
		JWTManager:      jwtManager,
		MemoryDirectory: memDir,
	}
}
