package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, "cabinet-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenExpiration)
	assert.Equal(t, 10, cfg.JWT.MaxRefreshCount)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, 3, cfg.Fiscal.MaxRetries)
	assert.Equal(t, time.Second, cfg.Fiscal.RetryBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.Fiscal.BulkDelay)
	assert.Equal(t, 10*time.Minute, cfg.Fiscal.CacheTTL)
	assert.Equal(t, 30, cfg.Fiscal.AttestationWindow)
	assert.Equal(t, 10, cfg.Fiscal.TaxWindow)

	assert.Empty(t, cfg.HTTP.CORSAllowOrigins, "no wildcard fallback for CORS origins")
	assert.NotEmpty(t, cfg.HTTP.CORSAllowMethods)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Fiscal.MaxRetries = 5
	cfg.Fiscal.CacheTTL = time.Minute
	applyDefaults(cfg)

	assert.Equal(t, 5, cfg.Fiscal.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Fiscal.CacheTTL)
}

func TestValidate(t *testing.T) {
	t.Run("accepts the defaults", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	t.Run("rejects idle connections exceeding open connections", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 50
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects a bulk delay under 500ms", func(t *testing.T) {
		cfg := validConfig()
		cfg.Fiscal.BulkDelay = 100 * time.Millisecond
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bulk_delay")
	})

	t.Run("rejects a zero retry budget", func(t *testing.T) {
		cfg := validConfig()
		cfg.Fiscal.MaxRetries = 0
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects an out-of-range sampling ratio", func(t *testing.T) {
		cfg := validConfig()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.validate())
	})
}

func TestValidateProduction(t *testing.T) {
	productionConfig := func() *Config {
		cfg := validConfig()
		cfg.App.Env = "production"
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "s3cret"
		cfg.Database.SSLMode = "require"
		return cfg
	}

	t.Run("accepts a hardened config", func(t *testing.T) {
		require.NoError(t, productionConfig().validate())
	})

	t.Run("requires a JWT secret", func(t *testing.T) {
		cfg := productionConfig()
		cfg.JWT.Secret = ""
		assert.Error(t, cfg.validate())
	})

	t.Run("requires a long JWT secret", func(t *testing.T) {
		cfg := productionConfig()
		cfg.JWT.Secret = "too-short"
		assert.Error(t, cfg.validate())
	})

	t.Run("requires a database password", func(t *testing.T) {
		cfg := productionConfig()
		cfg.Database.Password = ""
		assert.Error(t, cfg.validate())
	})

	t.Run("refuses sslmode disable", func(t *testing.T) {
		cfg := productionConfig()
		cfg.Database.SSLMode = "disable"
		assert.Error(t, cfg.validate())
	})

	t.Run("refuses a wildcard CORS origin", func(t *testing.T) {
		cfg := productionConfig()
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "cabinet",
		Password: "p@ss/word",
		DBName:   "cabinet",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "special characters must be escaped")
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.RedisAddr())
}
