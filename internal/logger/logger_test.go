package logger

import (
	"testing"

	"github.com/deppfellow/go-books/internal/config"
	"github.com/function61/gokit/assert"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

func TestGetPgxTraceLogLevel(t *testing.T) {
	tests := []struct {
		in  zerolog.Level
		out tracelog.LogLevel
	}{
		{zerolog.TraceLevel, tracelog.LogLevelTrace},
		{zerolog.DebugLevel, tracelog.LogLevelDebug},
		{zerolog.InfoLevel, tracelog.LogLevelInfo},
		{zerolog.WarnLevel, tracelog.LogLevelWarn},
		{zerolog.ErrorLevel, tracelog.LogLevelError},
		{zerolog.Disabled, tracelog.LogLevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Assert(t, GetPgxTraceLogLevel(tt.in) == tt.out)
		})
	}
}

func TestLoggerServiceWithoutLicenseKey(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()

	service, err := NewLoggerService(cfg)
	assert.Ok(t, err)
	assert.Assert(t, service.GetApplication() == nil)

	// must not panic without an application
	service.Shutdown()

	logger := NewLoggerWithService(cfg, service)
	assert.Assert(t, logger.GetLevel() == zerolog.InfoLevel)
}

func TestWithTraceContextNilTransaction(t *testing.T) {
	base := zerolog.Nop()
	logger := WithTraceContext(base, nil)
	assert.Assert(t, logger.GetLevel() == base.GetLevel())
}
