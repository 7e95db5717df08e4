package batch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/osint-industries/oi-cli/internal/cache"
	"github.com/osint-industries/oi-cli/internal/osint"
)

// Searcher runs one lookup. *osint.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req osint.SearchRequest) ([]osint.Module, error)
}

// CachedSearcher serves repeated lookups from a cache.Store so they do not
// spend credits twice. Only successful responses are stored.
type CachedSearcher struct {
	Next    Searcher
	Store   cache.Store
	BaseURL string
}

// Search returns the cached modules for req when present, otherwise asks Next
// and stores the result.
func (c *CachedSearcher) Search(ctx context.Context, req osint.SearchRequest) ([]osint.Module, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := c.key(req)

	if body, ok := c.Store.Get(ctx, key); ok {
		modules, err := osint.ParseModules(body)
		if err == nil {
			slog.Debug("search cache hit", "type", req.Type, "modules", len(modules))
			return modules, nil
		}
		slog.Warn("ignoring unreadable cache entry", "error", err)
	}

	modules, err := c.Next.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if modules == nil {
		modules = []osint.Module{}
	}
	body, err := json.Marshal(modules)
	if err != nil {
		slog.Warn("search result not cached", "error", err)
		return modules, nil
	}
	c.Store.Put(ctx, key, body)
	return modules, nil
}

// Cached reports whether a usable entry for req is in the store.
func (c *CachedSearcher) Cached(ctx context.Context, req osint.SearchRequest) bool {
	if err := req.Validate(); err != nil {
		return false
	}
	body, ok := c.Store.Get(ctx, c.key(req))
	if !ok {
		return false
	}
	_, err := osint.ParseModules(body)
	return err == nil
}

func (c *CachedSearcher) key(req osint.SearchRequest) string {
	return cache.Key(c.BaseURL, string(req.Type), req.Query, req.Timeout)
}
