package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Body     json.RawMessage `json:"body"`
}

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates a FileStore. A non-positive ttl selects DefaultTTL.
func NewFileStore(dir string, ttl time.Duration) *FileStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileStore{dir: dir, ttl: ttl}
}

// DefaultDir returns "$XDG_CACHE_HOME/oi" or the platform equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "oi"), nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the cached body for key. Expired entries are removed.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool) {
	if !isCacheKey(key) {
		return nil, false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if time.Since(e.CachedAt) > s.ttl {
		_ = os.Remove(s.path(key))
		return nil, false
	}
	return e.Body, true
}

// Put stores body, which must be valid JSON. Errors are ignored.
func (s *FileStore) Put(_ context.Context, key string, body []byte) {
	if !isCacheKey(key) || !json.Valid(body) {
		return
	}
	data, err := json.Marshal(entry{CachedAt: time.Now(), Body: body})
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}

	// Write then rename so readers never see a partial file.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path(key))
}

// Clear removes cache files from the directory. Files not named like a cache
// key are left alone.
func (s *FileStore) Clear(context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || !isCacheKey(strings.TrimSuffix(name, ".json")) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *FileStore) Close() error { return nil }

// isCacheKey accepts 40 lowercase hex characters, the output of Key.
func isCacheKey(s string) bool {
	if len(s) != 40 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
