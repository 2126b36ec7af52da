package config

import (
	"testing"
	"time"

	"github.com/function61/gokit/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("BOOKS_PRIMARY.ENV", "local")
	t.Setenv("BOOKS_SERVER.PORT", "8080")
	t.Setenv("BOOKS_DATABASE.HOST", "localhost")
	t.Setenv("BOOKS_DATABASE.PORT", "5432")
	t.Setenv("BOOKS_DATABASE.USER", "books")
	t.Setenv("BOOKS_DATABASE.PASSWORD", "pa:ss@word")
	t.Setenv("BOOKS_DATABASE.NAME", "books")
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	assert.Ok(t, err)

	assert.EqualString(t, cfg.Server.Port, "8080")
	assert.EqualString(t, cfg.Database.SSLMode, "disable")
	assert.Assert(t, cfg.Database.Port == 5432)
	assert.Assert(t, cfg.Database.MaxOpenConns == 10)
	assert.Assert(t, cfg.Server.ReadTimeout == 5)
	assert.Assert(t, cfg.IsLocal())

	assert.EqualString(t, cfg.Observability.ServiceName, ServiceName)
	assert.EqualString(t, cfg.Observability.Environment, "local")
	assert.Assert(t, !cfg.Observability.NewRelicEnabled())
}

func TestLoadConfigMissingDatabase(t *testing.T) {
	t.Setenv("BOOKS_PRIMARY.ENV", "local")
	t.Setenv("BOOKS_SERVER.PORT", "8080")

	_, err := LoadConfig()
	assert.Assert(t, err != nil)
}

func TestLoadConfigRejectsUnknownSSLMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOOKS_DATABASE.SSL_MODE", "sometimes")

	_, err := LoadConfig()
	assert.Assert(t, err != nil)
}

func TestObservabilityValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ObservabilityConfig)
		valid  bool
	}{
		{"defaults", func(c *ObservabilityConfig) {}, true},
		{"unknown level", func(c *ObservabilityConfig) { c.Logging.Level = "inf" }, false},
		{"unknown format", func(c *ObservabilityConfig) { c.Logging.Format = "xml" }, false},
		{"negative slow query threshold", func(c *ObservabilityConfig) { c.Logging.SlowQueryThreshold = -time.Second }, false},
		{"health timeout too short", func(c *ObservabilityConfig) { c.HealthChecks.Timeout = time.Millisecond }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultObservabilityConfig()
			tt.mutate(c)

			err := c.Validate()
			assert.Assert(t, (err == nil) == tt.valid)
		})
	}
}

func TestGetLogLevelDefaultsByEnvironment(t *testing.T) {
	c := DefaultObservabilityConfig()
	c.Logging.Level = ""

	c.Environment = "production"
	assert.EqualString(t, c.GetLogLevel(), "info")

	c.Environment = "development"
	assert.EqualString(t, c.GetLogLevel(), "debug")

	c.Logging.Level = "warn"
	assert.EqualString(t, c.GetLogLevel(), "warn")
}
