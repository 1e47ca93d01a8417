package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/heejin0702/anpetna-care/internal/schedule"
)

const PROD_STRING = "prod"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	HTTPAddr        string
	StoreDriver     string
	DBDSN           string
	MigrateOnStart  bool
	JWTSecret       string
	Location        *time.Location
	SlotFirst       schedule.TimeOfDay
	SlotMinutes     int
	SlotCount       int
	BulkConcurrency int
	AMQPURL         string
	NotifyExchange  string
}

// Catalog builds the hospital slot catalog described by the config.
func (c *Config) Catalog() (*schedule.Catalog, error) {
	return schedule.NewCatalog(c.SlotFirst, c.SlotMinutes, c.SlotCount)
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Storage backend (default: postgres)
	cfg.StoreDriver = getEnv("STORE_DRIVER", StoreDriverPostgres)
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		// Database DSN is required
		cfg.DBDSN = os.Getenv("DB_DSN")
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.MigrateOnStart, err = getEnvAsBool("MIGRATE_ON_START", true)
	if err != nil {
		return nil, fmt.Errorf("invalid MIGRATE_ON_START: %w", err)
	}

	// JWT secret is required for verifying tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Business time zone; every date and slot is interpreted here.
	cfg.Location, err = time.LoadLocation(getEnv("APP_TIMEZONE", "Asia/Seoul"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg.SlotFirst, err = schedule.ParseTimeOfDay(getEnv("SLOT_FIRST", schedule.DefaultFirstSlot.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_FIRST: %w", err)
	}
	cfg.SlotMinutes, err = getEnvAsInt("SLOT_MINUTES", schedule.DefaultSlotMinutes)
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_MINUTES: %w", err)
	}
	cfg.SlotCount, err = getEnvAsInt("SLOT_COUNT", schedule.DefaultSlotCount)
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_COUNT: %w", err)
	}
	if _, err := cfg.Catalog(); err != nil {
		return nil, fmt.Errorf("invalid slot catalog: %w", err)
	}

	// Parallelism of bulk status updates (default: 8)
	cfg.BulkConcurrency, err = getEnvAsInt("BULK_CONCURRENCY", 8)
	if err != nil {
		return nil, fmt.Errorf("invalid BULK_CONCURRENCY: %w", err)
	}
	if cfg.BulkConcurrency < 1 {
		return nil, fmt.Errorf("BULK_CONCURRENCY must be at least 1")
	}

	// Notifications go to RabbitMQ only when a URL is configured.
	cfg.AMQPURL = getEnv("AMQP_URL", "")
	cfg.NotifyExchange = getEnv("NOTIFY_EXCHANGE", "care.reservations")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}

	return val, nil
}
