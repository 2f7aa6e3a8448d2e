// Package slogx contains slog attribute constructors shared by the packages of
// this module.
package slogx

import (
	"fmt"
	"log/slog"
)

// KeyLoggerName is the attribute key that names the component emitting a record.
const KeyLoggerName = "logger"

// Error returns an "error" attribute holding the message of err.
// A nil error produces an empty string value instead of panicking.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer renders value through its String method.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName tags a record with the component that logged it.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Truncated logs at most limit bytes of value, marking the cut with an ellipsis.
// Tool results and model output can be kilobytes long; debug logs only need the head.
func Truncated(key, value string, limit int) slog.Attr {
	if limit <= 0 || len(value) <= limit {
		return slog.String(key, value)
	}
	return slog.String(key, value[:limit]+"…")
}
