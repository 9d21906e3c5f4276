// Package sl provides slog attribute helpers shared across the service.
package sl

import (
	"log/slog"
)

// Err wraps an error as a standard "error" attribute.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module namespaces log records by component.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret logs a sensitive value masked to its first characters.
func Secret(key, value string) slog.Attr {
	masked := "****"
	if len(value) > 8 {
		masked = value[:4] + "****"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}
