package logger

import (
	"time"

	"go.uber.org/zap"
)

// String creates a field with a string value.
// Example: logger.Info("source fetched", String("platform", "weibo"))
func String(key, val string) Field {
	return zap.String(key, val)
}

// Int creates a field with an int value.
// Example: logger.Info("observations recorded", Int("count", 50))
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Int64 creates a field with an int64 value.
// Example: logger.Debug("occurrence appended", Int64("occurrence_id", id))
func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

// Bool creates a field with a boolean value.
// Example: logger.Debug("headline recorded", Bool("is_new", true))
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Duration creates a field with a time.Duration value.
// Example: logger.Info("crawl round finished", Duration("elapsed", elapsed))
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Time creates a field with a time.Time value.
// Example: logger.Info("session started", Time("started_at", session.StartedAt))
func Time(key string, val time.Time) Field {
	return zap.Time(key, val)
}

// Error creates a field for an error value under the key "error".
// Example: logger.Error("fetch failed", Error(err))
func Error(err error) Field {
	return zap.Error(err)
}

// NamedError creates an error field with a custom key, for logging more than
// one error in a single entry.
// Example: logger.Error("push failed", NamedError("webhook_error", err))
func NamedError(key string, err error) Field {
	return zap.NamedError(key, err)
}

// Any creates a field with an arbitrary value, serialized via reflection.
// Prefer the typed constructors when one fits.
func Any(key string, val any) Field {
	return zap.Any(key, val)
}

// Strings creates a field with a slice of strings.
// Example: logger.Debug("group words", Strings("normal", words))
func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

// Stack creates a field that captures a stack trace under "stacktrace"
func Stack() Field {
	return zap.Stack("stacktrace")
}
