// Package debug carries the --debug switch through contexts and sets up slog.
package debug

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// secretAttrs are log attribute keys whose values are always masked.
var secretAttrs = map[string]bool{
	"api_key": true,
	"apikey":  true,
	"api-key": true,
	"key":     true,
}

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// SetupLogger installs a text slog handler on w as the default logger. The
// level is debug when debugEnabled, warn otherwise.
func SetupLogger(w io.Writer, debugEnabled bool) {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if secretAttrs[strings.ToLower(a.Key)] {
				a.Value = slog.StringValue(Redact(a.Value.String()))
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}

// Redact masks a secret, keeping the last four characters of long values.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
