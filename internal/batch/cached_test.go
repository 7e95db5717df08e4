package batch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osint-industries/oi-cli/internal/cache"
	"github.com/osint-industries/oi-cli/internal/osint"
)

func TestCachedSearcher_HitSkipsAPI(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"type":"email","query":"alice@example.com","timeout":10}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"module":"github","data":{"username":"alice","id":42}}]`))
	}))
	t.Cleanup(server.Close)

	client := osint.New(server.URL, "test-key")
	cached := &CachedSearcher{
		Next:    client,
		Store:   cache.NewFileStore(t.TempDir(), time.Minute),
		BaseURL: client.BaseURL,
	}

	req := osint.SearchRequest{Type: osint.SearchEmail, Query: "alice@example.com"}
	for range 3 {
		modules, err := cached.Search(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, modules, 1)
		assert.Equal(t, "github", modules[0].Name)
		id, ok := modules[0].Data.Get("id")
		require.True(t, ok)
		assert.Equal(t, "42", id.Num().String())
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedSearcher_ErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	cached := &CachedSearcher{
		Next: searchFunc(func(context.Context, osint.SearchRequest) ([]osint.Module, error) {
			calls.Add(1)
			return nil, errors.New("upstream down")
		}),
		Store:   cache.NewFileStore(t.TempDir(), time.Minute),
		BaseURL: "https://osint.industries/api",
	}
	req := osint.SearchRequest{Type: osint.SearchPhone, Query: "+14155550100"}
	_, err := cached.Search(context.Background(), req)
	require.Error(t, err)
	_, err = cached.Search(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachedSearcher_EmptyResultIsCached(t *testing.T) {
	var calls atomic.Int32
	cached := &CachedSearcher{
		Next: searchFunc(func(context.Context, osint.SearchRequest) ([]osint.Module, error) {
			calls.Add(1)
			return nil, nil
		}),
		Store:   cache.NewFileStore(t.TempDir(), time.Minute),
		BaseURL: "https://osint.industries/api",
	}
	req := osint.SearchRequest{Type: osint.SearchEmail, Query: "nobody@example.com"}
	for range 2 {
		modules, err := cached.Search(context.Background(), req)
		require.NoError(t, err)
		assert.NotNil(t, modules)
		assert.Empty(t, modules)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedSearcher_InvalidRequest(t *testing.T) {
	cached := &CachedSearcher{
		Next: searchFunc(func(context.Context, osint.SearchRequest) ([]osint.Module, error) {
			t.Fatal("search should not run for an invalid request")
			return nil, nil
		}),
		Store: cache.NewFileStore(t.TempDir(), time.Minute),
	}
	_, err := cached.Search(context.Background(), osint.SearchRequest{Type: osint.SearchEmail, Query: "a@b.co", Timeout: 61})
	var se *osint.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, osint.ErrValidation, se.Code)
}

func TestCachedSearcher_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := cache.NewRedisStore("redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var calls atomic.Int32
	cached := &CachedSearcher{
		Next: searchFunc(func(context.Context, osint.SearchRequest) ([]osint.Module, error) {
			calls.Add(1)
			return []osint.Module{githubModule("alice")}, nil
		}),
		Store:   store,
		BaseURL: "https://osint.industries/api",
	}
	req := osint.SearchRequest{Type: osint.SearchEmail, Query: "alice@example.com"}
	for range 2 {
		modules, err := cached.Search(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, modules, 1)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, mr.Keys(), 1)
}

func TestCachedSearcher_Cached(t *testing.T) {
	store := cache.NewFileStore(t.TempDir(), time.Minute)
	cached := &CachedSearcher{
		Next: searchFunc(func(context.Context, osint.SearchRequest) ([]osint.Module, error) {
			return []osint.Module{}, nil
		}),
		Store:   store,
		BaseURL: "https://osint.industries/api",
	}
	ctx := context.Background()
	req := osint.SearchRequest{Type: osint.SearchEmail, Query: "alice@example.com"}

	assert.False(t, cached.Cached(ctx, req))
	_, err := cached.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, cached.Cached(ctx, req))
	assert.True(t, cached.Cached(ctx, osint.SearchRequest{Type: osint.SearchEmail, Query: "alice@example.com", Timeout: osint.DefaultSearchTimeout}))
	assert.False(t, cached.Cached(ctx, osint.SearchRequest{Type: osint.SearchEmail, Query: "alice@example.com", Timeout: 30}))
	assert.False(t, cached.Cached(ctx, osint.SearchRequest{Type: "fax", Query: "alice@example.com"}))

	store.Put(ctx, cache.Key(cached.BaseURL, "email", "broken@example.com", osint.DefaultSearchTimeout), []byte("{not json"))
	assert.False(t, cached.Cached(ctx, osint.SearchRequest{Type: osint.SearchEmail, Query: "broken@example.com"}))
}
