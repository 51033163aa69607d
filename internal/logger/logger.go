package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a type alias for zapcore.Field, a key-value pair attached to a log
// entry.
type Field = zapcore.Field

// Logger is the structured logging interface used across the service
type Logger interface {
	// Debug logs a message at debug level.
	Debug(msg string, fields ...Field)

	// Info logs a message at info level.
	Info(msg string, fields ...Field)

	// Warn logs a message at warning level.
	Warn(msg string, fields ...Field)

	// Error logs a message at error level.
	Error(msg string, fields ...Field)

	// With returns a new logger whose entries all carry the given fields.
	With(fields ...Field) Logger

	// Sync flushes any buffered log entries. Call before exiting.
	Sync() error
}

type zapLogger struct {
	logger *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, fields...)
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{
		logger: l.logger.With(fields...),
	}
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// NewLogger creates a Logger. With debug true it emits colorized,
// human-readable console output at debug level with stack traces from warn
// up; otherwise it uses zap's JSON production configuration.
func NewLogger(debug bool) (Logger, error) {
	var z *zap.Logger
	var err error

	if debug {
		z, err = buildDevelopmentLogger()
	} else {
		z, err = zap.NewProduction()
	}

	if err != nil {
		return nil, err
	}

	return &zapLogger{
		logger: z,
	}, nil
}

func buildDevelopmentLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	config.Encoding = "console"
	config.Development = true
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	// Sampling would hide repeated crawl warnings in development.
	config.Sampling = nil

	return config.Build(
		zap.AddStacktrace(zapcore.WarnLevel),
	)
}

// NewNopLogger returns a logger that discards everything. Useful in tests.
func NewNopLogger() Logger {
	return &zapLogger{
		logger: zap.NewNop(),
	}
}
