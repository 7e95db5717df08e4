package cache_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/osint-industries/oi-cli/internal/cache"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := cache.NewRedisStoreWithClient(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_PutAndGet(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	key := cache.Key("u", "phone", "+15555550100", 10)

	s.Put(ctx, key, []byte(`[{"name":"x","data":{}}]`))
	got, ok := s.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != `[{"name":"x","data":{}}]` {
		t.Errorf("got %s", got)
	}
	if ttl := mr.TTL("oi:search:" + key); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	key := cache.Key("u", "email", "q", 10)

	s.Put(ctx, key, []byte(`[]`))
	mr.FastForward(2 * time.Minute)

	if _, ok := s.Get(ctx, key); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestRedisStore_Clear(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	s.Put(ctx, cache.Key("u", "email", "a", 10), []byte(`[]`))
	s.Put(ctx, cache.Key("u", "email", "b", 10), []byte(`[]`))
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatal(err)
	}

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	if !mr.Exists("unrelated") {
		t.Error("Clear removed a key outside its prefix")
	}
}

func TestRedisStore_ServerDownIsMiss(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	mr.Close()

	key := cache.Key("u", "email", "q", 10)
	s.Put(ctx, key, []byte(`[]`))
	if _, ok := s.Get(ctx, key); ok {
		t.Fatal("unreachable redis should be a miss")
	}
}
