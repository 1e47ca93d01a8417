package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/heejin0702/anpetna-care/internal/app"
	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/config"
	"github.com/heejin0702/anpetna-care/internal/db"
	"github.com/heejin0702/anpetna-care/internal/notify"
)

// devTokenTTL bounds the tokens printed for local runs on the memory store.
const devTokenTTL = 12 * time.Hour

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.IsProduction)
	defer logger.Sync()

	catalog, err := cfg.Catalog()
	if err != nil {
		logger.Fatal("invalid slot catalog", zap.Error(err))
	}

	// Connect DB
	var pool *pgxpool.Pool
	if cfg.StoreDriver == config.StoreDriverPostgres {
		pool, err = db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal("failed to connect to db", zap.Error(err))
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, pool); err != nil {
				logger.Fatal("failed to migrate db", zap.Error(err))
			}
		}
	}

	// Notifications
	var notifier notify.Notifier = notify.NewLogNotifier(logger.Named("notify"))
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.NotifyExchange, logger.Named("notify"))
		if err != nil {
			logger.Fatal("failed to connect notifier", zap.Error(err))
		}
		defer func() {
			if err := amqpNotifier.Close(); err != nil {
				logger.Warn("failed to close notifier", zap.Error(err))
			}
		}()
		notifier = amqpNotifier
	}

	container := app.NewContainer(app.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		DBPool:          pool,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          devTokenTTL,
		Location:        cfg.Location,
		Catalog:         catalog,
		BulkConcurrency: cfg.BulkConcurrency,
		Logger:          logger,
		Notifier:        notifier,
	})

	if container.MemoryDirectory != nil && !cfg.IsProduction {
		seedMemoryStore(logger, container)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		logger.Info("server running",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.String("timezone", cfg.Location.String()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

// seedMemoryStore registers a demo hospital, hotel and doctor, and prints tokens to call the API with.
func seedMemoryStore(logger *zap.Logger, c *app.Container) {
	hospital := c.MemoryDirectory.AddVenue("Anpetna Animal Hospital", "")
	hotel := c.MemoryDirectory.AddVenue("Anpetna Pet Hotel", "")
	doctor, err := c.MemoryDirectory.AddDoctor(hospital.ID, "Dr. Kim", "")
	if err != nil {
		logger.Fatal("failed to seed memory store", zap.Error(err))
	}

	memberToken, err := c.JWTManager.GenerateAccessToken("demo-member", auth.RoleMember)
	if err != nil {
		logger.Fatal("failed to issue demo token", zap.Error(err))
	}
	adminToken, err := c.JWTManager.GenerateAccessToken("demo-admin", auth.RoleAdmin)
	if err != nil {
		logger.Fatal("failed to issue demo token", zap.Error(err))
	}

	logger.Info("memory store seeded",
		zap.String("hospital_id", hospital.ID),
		zap.String("hotel_id", hotel.ID),
		zap.String("doctor_id", doctor.ID),
		zap.String("member_token", memberToken),
		zap.String("admin_token", adminToken),
	)
}
