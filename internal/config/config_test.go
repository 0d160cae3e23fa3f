package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("SELLER_LOCK_TIMEOUT", "")
	require.NoError(t, os.Unsetenv("SELLER_LOCK_TIMEOUT"))
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.SellerLockTimeout)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Len(t, cfg.AllowedOrigins, 2)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("SELLER_LOCK_TIMEOUT", "250ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("THREAD_BRIDGE_URL", "http://threads.local/")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.SellerLockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "http://threads.local", cfg.ThreadBridgeURL)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("неизвестный драйвер", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mongo")
		_, err := fromEnv()
		assert.Error(t, err)
	})

	t.Run("нулевой таймаут блокировки", func(t *testing.T) {
		t.Setenv("SELLER_LOCK_TIMEOUT", "0s")
		_, err := fromEnv()
		assert.Error(t, err)
	})

	t.Run("короткий секрет в production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "short")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com")
		_, err := fromEnv()
		assert.Error(t, err)
	})

	t.Run("production без CORS", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		_, err := fromEnv()
		assert.Error(t, err)
	})
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "pg")
	t.Setenv("POSTGRESQL_USER", "engine")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "offers")

	assert.Equal(t, "postgres://engine:p%40ss@pg:5432/offers?sslmode=disable", getDatabaseURL())
}
