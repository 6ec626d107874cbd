package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a minimal structured logger with secret redaction.
// Output goes to stderr so command output on stdout stays clean.
func New() *slog.Logger {
	return NewWithLevel("warn")
}

// NewWithLevel returns a logger filtered at the named level.
func NewWithLevel(level string) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter returns a redacting text logger writing to w.
func NewWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if isSecretKey(a.Key) {
				a.Value = slog.StringValue("[redacted]")
			}
			return a
		},
	})
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	return strings.Contains(k, "token") || strings.Contains(k, "secret") || strings.Contains(k, "key") || strings.Contains(k, "pass")
}
