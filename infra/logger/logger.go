package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogContext holds contextual information attached to a log entry.
// Credentials and full PII must never be placed in Fields; use the
// redaction helpers for identifiers like phone numbers.
type LogContext struct {
	Provider  string
	RequestID string
	Fields    map[string]any
}

var (
	base zerolog.Logger
	once sync.Once
)

func root() *zerolog.Logger {
	once.Do(func() {
		level := parseLevel(os.Getenv("LOGGING_LEVEL"))
		base = zerolog.New(os.Stdout).
			Level(level).
			With().
			Timestamp().
			Str("service", "gateway").
			Logger()
	})
	return &base
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func event(e *zerolog.Event, message string, ctx ...LogContext) {
	if len(ctx) > 0 {
		c := ctx[0]
		if c.Provider != "" {
			e = e.Str("provider", c.Provider)
		}
		if c.RequestID != "" {
			e = e.Str("request_id", c.RequestID)
		}
		for k, v := range c.Fields {
			e = e.Interface(k, v)
		}
	}
	e.Msg(message)
}

// Debug logs a debug message.
func Debug(message string, ctx ...LogContext) {
	event(root().Debug(), message, ctx...)
}

// Info logs an info message.
func Info(message string, ctx ...LogContext) {
	event(root().Info(), message, ctx...)
}

// Warn logs a warning message.
func Warn(message string, ctx ...LogContext) {
	event(root().Warn(), message, ctx...)
}

// Error logs an error message.
func Error(message string, err error, ctx ...LogContext) {
	e := root().Error()
	if err != nil {
		e = e.Err(err)
	}
	event(e, message, ctx...)
}

// Fatal logs a fatal message and exits.
func Fatal(message string, err error, ctx ...LogContext) {
	e := root().Fatal()
	if err != nil {
		e = e.Err(err)
	}
	event(e, message, ctx...)
}

// TruncatePhone keeps the first five characters of a phone number so log
// lines stay correlatable without exposing the full number.
func TruncatePhone(phone string) string {
	if len(phone) <= 5 {
		return phone
	}
	return phone[:5] + "***"
}

// MaskSecret replaces all but the last four characters of a secret value.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 4) + value[len(value)-4:]
}
