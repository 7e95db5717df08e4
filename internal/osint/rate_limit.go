package osint

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// unixTimestampThreshold separates absolute reset timestamps from relative
// seconds in X-RateLimit-Reset.
const unixTimestampThreshold = 1_000_000_000

// RateLimitInfo holds the rate limit headers of the latest response.
type RateLimitInfo struct {
	Limit     *int
	Remaining *int
	ResetAt   *time.Time
}

// LastRateLimit returns a copy of the most recent rate limit info, or nil.
func (c *Client) LastRateLimit() *RateLimitInfo {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	if c.lastRateLimit == nil {
		return nil
	}
	info := *c.lastRateLimit
	return &info
}

func (c *Client) recordRateLimit(h http.Header) {
	info := parseRateLimitInfo(h, time.Now())
	if info == nil {
		return
	}
	c.rateLimitMu.Lock()
	c.lastRateLimit = info
	c.rateLimitMu.Unlock()
}

func parseRateLimitInfo(h http.Header, now time.Time) *RateLimitInfo {
	limitVal := firstHeader(h, "X-RateLimit-Limit", "RateLimit-Limit")
	remainingVal := firstHeader(h, "X-RateLimit-Remaining", "RateLimit-Remaining")
	resetVal := firstHeader(h, "X-RateLimit-Reset", "RateLimit-Reset")

	info := &RateLimitInfo{}
	if v, err := strconv.Atoi(limitVal); err == nil {
		info.Limit = &v
	}
	if v, err := strconv.Atoi(remainingVal); err == nil {
		info.Remaining = &v
	}
	if secs, err := strconv.ParseInt(resetVal, 10, 64); err == nil && secs >= 0 {
		var t time.Time
		if secs > unixTimestampThreshold {
			t = time.Unix(secs, 0).UTC()
		} else {
			t = now.Add(time.Duration(secs) * time.Second).UTC()
		}
		info.ResetAt = &t
	}

	if info.Limit == nil && info.Remaining == nil && info.ResetAt == nil {
		return nil
	}
	return info
}

func firstHeader(h http.Header, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(h.Get(key)); value != "" {
			return value
		}
	}
	return ""
}
