// Package logger builds the application's zap logger.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for service.  The "production" environment gets
// zap's production config, anything else the development config.  format
// "json" selects the JSON encoder, anything else the console encoder.
func New(service, env, level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" || env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if format == "json" {
		cfg.Encoding = "json"
	} else {
		cfg.Encoding = "console"
	}

	cfg.InitialFields = map[string]any{
		"service": service,
		"env":     env,
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if host, err := os.Hostname(); err == nil {
		log = log.With(zap.String("hostname", host))
	}
	return log, nil
}

// WithRequest returns log annotated with the request and user ids, when set.
func WithRequest(log *zap.Logger, requestID string, userID uint64) *zap.Logger {
	var fields []zap.Field
	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID != 0 {
		fields = append(fields, zap.Uint64("user_id", userID))
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
