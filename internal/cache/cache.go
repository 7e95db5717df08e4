// Package cache keeps search responses so repeating a lookup does not spend
// credits again.
//
// Entries are keyed by a hash of the API base URL, identifier type, query and
// search timeout. The default backend is a directory of JSON files; setting
// OSINT_REDIS_URL switches to Redis so several machines can share results.
// Default TTL is 15 minutes. Disable with OSINT_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTTL = 15 * time.Minute

	EnvNoCache  = "OSINT_NO_CACHE"
	EnvRedisURL = "OSINT_REDIS_URL"
)

var getenv = os.Getenv

// Store is a TTL-bounded byte cache. Get and Put never fail loudly: a broken
// cache degrades to a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte)
	// Clear removes every entry this package wrote and reports how many.
	Clear(ctx context.Context) (int, error)
	Close() error
}

// Key derives the cache key for a search.
func Key(baseURL, searchType, query string, timeout int) string {
	h := sha1.New()
	for _, part := range []string{
		strings.TrimSuffix(baseURL, "/"),
		strings.ToLower(searchType),
		strings.TrimSpace(query),
		strconv.Itoa(timeout),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Disabled reports whether OSINT_NO_CACHE is set.
func Disabled() bool {
	v := strings.TrimSpace(strings.ToLower(getenv(EnvNoCache)))
	return v != "" && v != "0" && v != "false"
}

// Open returns the Redis store when OSINT_REDIS_URL is set and the file store
// under dir otherwise.
func Open(dir string, ttl time.Duration) (Store, error) {
	if url := strings.TrimSpace(getenv(EnvRedisURL)); url != "" {
		return NewRedisStore(url, ttl)
	}
	return NewFileStore(dir, ttl), nil
}
