package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "Asia/Seoul", cfg.Location.String())
	assert.Equal(t, 8, cfg.BulkConcurrency)
	assert.True(t, cfg.MigrateOnStart)
	assert.Empty(t, cfg.AMQPURL)

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Len(t, catalog.Set(), 18)
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown driver", "STORE_DRIVER", "mongo"},
		{"bad slot time", "SLOT_FIRST", "ten"},
		{"catalog past midnight", "SLOT_COUNT", "100"},
		{"bad timezone", "APP_TIMEZONE", "Mars/Olympus"},
		{"zero concurrency", "BULK_CONCURRENCY", "0"},
		{"bad bool", "MIGRATE_ON_START", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", "memory")
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
