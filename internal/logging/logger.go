package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithSession returns a logger with orchestration session fields
// attached. Use this for all logging within a transcript dispatch.
func WithSession(sessionID, learnerID, intent string) *slog.Logger {
	return slog.With(
		"session_id", sessionID,
		"learner_id", learnerID,
		"intent", intent,
	)
}

// WithPlugin returns a logger scoped to one plugin invocation within a
// session.
func WithPlugin(logger *slog.Logger, plugin, function string) *slog.Logger {
	return logger.With(
		"plugin", plugin,
		"function", function,
	)
}
