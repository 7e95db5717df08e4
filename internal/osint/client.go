package osint

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osint-industries/oi-cli/internal/debug"
	"github.com/osint-industries/oi-cli/internal/validation"
)

const (
	// DefaultBaseURL is the public OSINT Industries API root.
	DefaultBaseURL = "https://osint.industries/api"

	// DefaultTimeout bounds a single HTTP round trip. It must exceed
	// MaxSearchTimeout, which the server may spend waiting on slow sources.
	DefaultTimeout = 90 * time.Second

	apiKeyHeader = "api-key"
)

// Client talks to the OSINT Industries API.
//
// The circuit breaker state lives as long as the client. Reusing one client for
// a whole batch means repeated server failures short-circuit the remaining
// items instead of hammering the API.
type Client struct {
	BaseURL        string
	APIKey         string
	HTTP           *http.Client
	UserAgent      string
	RetryConfig    RetryConfig
	circuitBreaker *circuitBreaker
	validatedURL   bool
	validateMu     sync.Mutex
	rateLimitMu    sync.Mutex
	lastRateLimit  *RateLimitInfo
}

// New creates a client for baseURL authenticated with apiKey. An empty
// baseURL selects DefaultBaseURL.
func New(baseURL, apiKey string) *Client {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	retryCfg := DefaultRetryConfig()
	return &Client{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		RetryConfig: retryCfg,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		circuitBreaker: &circuitBreaker{
			threshold: retryCfg.CircuitBreakerThreshold,
			resetTime: retryCfg.CircuitBreakerResetTime,
		},
	}
}

// SetRetryConfig replaces the retry settings and realigns the circuit breaker.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.RetryConfig = cfg
	if c.circuitBreaker != nil {
		c.circuitBreaker.mu.Lock()
		c.circuitBreaker.threshold = cfg.CircuitBreakerThreshold
		c.circuitBreaker.resetTime = cfg.CircuitBreakerResetTime
		c.circuitBreaker.mu.Unlock()
	}
}

// ResetCircuitBreaker closes the circuit and forgets past failures.
func (c *Client) ResetCircuitBreaker() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.reset()
	}
}

func (c *Client) ensureBaseURLValidated() error {
	c.validateMu.Lock()
	defer c.validateMu.Unlock()

	if c.validatedURL {
		return nil
	}
	if err := validation.ValidateBaseURL(c.BaseURL); err != nil {
		return fmt.Errorf("URL validation failed: %w", err)
	}
	c.validatedURL = true
	return nil
}

func (c *Client) endpoint(path string) string {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	return c.BaseURL + path
}

// do sends a JSON request and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	respBody, _, err := c.execute(ctx, method, c.endpoint(path), payload)
	return respBody, err
}

// execute runs one logical request with 429/5xx retries and circuit breaker
// bookkeeping. Non-idempotent requests are never retried on 5xx.
func (c *Client) execute(ctx context.Context, method, url string, body []byte) ([]byte, int, error) {
	if c.circuitBreaker != nil && c.circuitBreaker.isOpen() {
		return nil, 0, &CircuitBreakerError{}
	}
	if err := c.ensureBaseURLValidated(); err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, 0, &AuthError{Reason: "no API key configured"}
	}

	idempotent := method == http.MethodGet || method == http.MethodHead
	var retries429, retries5xx int
	attempt := 0

	for {
		attempt++
		start := time.Now()

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set(apiKeyHeader, c.APIKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			if debug.IsEnabled(ctx) {
				slog.Debug("request failed", "method", method, "url", url, "attempt", attempt, "error", err)
			}
			return nil, 0, fmt.Errorf("request failed: %w", err)
		}
		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read response: %w", err)
		}
		c.recordRateLimit(resp.Header)
		if debug.IsEnabled(ctx) {
			slog.Debug("request complete", "method", method, "url", url, "status", resp.StatusCode, "attempt", attempt, "duration", time.Since(start))
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter, hasRetryAfter := retryAfterDuration(resp.Header)
			if !hasRetryAfter {
				retryAfter = c.RetryConfig.RateLimitBaseDelay * time.Duration(1<<retries429)
			}
			if retries429 >= c.RetryConfig.MaxRateLimitRetries {
				return nil, resp.StatusCode, &RateLimitError{RetryAfter: retryAfter}
			}
			slog.Info("rate limited, retrying", "delay", retryAfter, "attempt", retries429+1)
			if err := sleepWithContext(ctx, retryAfter); err != nil {
				return nil, 0, err
			}
			retries429++
			continue

		case resp.StatusCode >= 500:
			if c.circuitBreaker != nil {
				c.circuitBreaker.recordFailure()
			}
			if idempotent && retries5xx < c.RetryConfig.Max5xxRetries {
				slog.Info("server error, retrying", "status", resp.StatusCode)
				if err := sleepWithContext(ctx, c.RetryConfig.ServerErrorRetryDelay); err != nil {
					return nil, 0, err
				}
				retries5xx++
				continue
			}
			return nil, resp.StatusCode, newAPIError(resp, respBody)

		case resp.StatusCode == http.StatusUnauthorized:
			return nil, resp.StatusCode, &AuthError{Reason: sanitizeErrorBody(string(respBody))}

		case resp.StatusCode >= 400:
			return nil, resp.StatusCode, newAPIError(resp, respBody)
		}

		if c.circuitBreaker != nil {
			c.circuitBreaker.recordSuccess()
		}
		return respBody, resp.StatusCode, nil
	}
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       sanitizeErrorBody(string(body)),
		RequestID:  requestIDFromHeader(resp.Header),
	}
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return strings.TrimSpace(header.Get("X-Request-Id"))
}
