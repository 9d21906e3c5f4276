// Package logger configures the application slog logger per environment.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

// SetupLogger returns a logger for the given environment: human-readable
// debug output for local, JSON at info level (stdout + file) for prod.
func SetupLogger(env, logPath string) *slog.Logger {
	switch env {
	case envProd:
		var out io.Writer = os.Stdout
		file, err := os.OpenFile(
			filepath.Join(logPath, "crewchat.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
		)
		if err == nil {
			out = io.MultiWriter(os.Stdout, file)
		}
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envLocal:
		fallthrough
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
