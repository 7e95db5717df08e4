// Package dryrun previews searches without sending them. Every search spends
// credits, so a preview shows what would be sent and what the cache would
// answer instead.
package dryrun

import (
	"context"
	"fmt"
	"io"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Preview is one search that would be sent. Error is set when the item would
// be rejected before reaching the API.
type Preview struct {
	Item    int    `json:"item"`
	Query   string `json:"query"`
	Type    string `json:"type"`
	Timeout int    `json:"timeout,omitempty"`
	Cached  bool   `json:"cached"`
	Error   string `json:"error,omitempty"`
}

// Summary counts what a set of previews would cost.
type Summary struct {
	Items   int
	Cached  int
	Invalid int
}

// Requests is the number of searches that would reach the API.
func (s Summary) Requests() int {
	return s.Items - s.Cached - s.Invalid
}

// Summarize totals previews.
func Summarize(previews []Preview) Summary {
	s := Summary{Items: len(previews)}
	for _, p := range previews {
		switch {
		case p.Error != "":
			s.Invalid++
		case p.Cached:
			s.Cached++
		}
	}
	return s
}

// Write outputs the summary to the writer
func (s Summary) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "[DRY-RUN] Would send %d search request(s) for %d identifier(s)\n", s.Requests(), s.Items)
	if s.Cached > 0 {
		_, _ = fmt.Fprintf(w, "  %d answered from cache\n", s.Cached)
	}
	if s.Invalid > 0 {
		_, _ = fmt.Fprintf(w, "  ! %d rejected before sending\n", s.Invalid)
	}
	_, _ = fmt.Fprintln(w, "No credits spent (dry-run mode)")
}
