package outfmt

import (
	"context"
	"io"

	"github.com/osint-industries/oi-cli/internal/filter"
)

type queryKey struct{}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery retrieves the jq query from context
func GetQuery(ctx context.Context) string {
	q, _ := ctx.Value(queryKey{}).(string)
	return q
}

// ApplyQuery marshals v and runs query over it. With an empty query the
// decoded form of v is returned, which is what templates need.
func ApplyQuery(v any, query string) (any, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return filter.Decode(data)
	}
	return filter.ApplyFromJSON(data, query)
}

// WriteJSONFiltered writes JSON with optional jq filtering.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	if query == "" {
		return WriteJSONMaybeCompact(w, v, compact)
	}
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return WriteJSONMaybeCompact(w, result, compact)
}
