package osint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osint-industries/oi-cli/internal/jsonval"
)

func TestSearch_SendsRequestAndParsesModules(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/request", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "email", body["type"])
		assert.Equal(t, "user@example.com", body["query"])
		assert.Equal(t, float64(25), body["timeout"])

		_, _ = w.Write([]byte(`[
			{"name":"github","data":{"registered":true,"username":"octo"}},
			{"module":"gravatar","data":{"registered":false}}
		]`))
	})

	modules, err := c.Search(context.Background(), SearchRequest{Type: "Email", Query: " user@example.com ", Timeout: 25})
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "github", modules[0].Name)
	assert.Equal(t, "gravatar", modules[1].Name)
	username, ok := modules[0].Data.Get("username")
	require.True(t, ok)
	assert.Equal(t, "octo", username.Str())
}

func TestSearch_ValidationFailsBeforeRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"bad type", SearchRequest{Type: "username", Query: "x"}},
		{"empty query", SearchRequest{Type: SearchEmail, Query: "  "}},
		{"timeout too high", SearchRequest{Type: SearchPhone, Query: "+1555", Timeout: 61}},
		{"timeout negative", SearchRequest{Type: SearchPhone, Query: "+1555", Timeout: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Search(context.Background(), tt.req)
			var se *StructuredError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, ErrValidation, se.Code)
		})
	}
}

func TestSearchRequest_DefaultTimeout(t *testing.T) {
	req := SearchRequest{Type: SearchEmail, Query: "a@b.co"}
	require.NoError(t, req.Validate())
	assert.Equal(t, DefaultSearchTimeout, req.Timeout)
}

func TestParseSearchType(t *testing.T) {
	got, err := ParseSearchType(" PHONE ")
	require.NoError(t, err)
	assert.Equal(t, SearchPhone, got)

	_, err = ParseSearchType("fax")
	var se *StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"email", "phone"}, se.AllowedValues)
}

func TestDetectSearchType(t *testing.T) {
	assert.Equal(t, SearchEmail, DetectSearchType("someone@example.com"))
	assert.Equal(t, SearchPhone, DetectSearchType("+44 20 7946 0958"))
}

func TestParseModules(t *testing.T) {
	t.Run("empty array", func(t *testing.T) {
		modules, err := ParseModules([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, modules)
	})

	t.Run("wrapped list", func(t *testing.T) {
		modules, err := ParseModules([]byte(`{"modules":[{"name":"x","data":{}}]}`))
		require.NoError(t, err)
		require.Len(t, modules, 1)
		assert.Equal(t, "x", modules[0].Name)
	})

	t.Run("missing data stays absent", func(t *testing.T) {
		modules, err := ParseModules([]byte(`[{"name":"x"}]`))
		require.NoError(t, err)
		require.Len(t, modules, 1)
		assert.Equal(t, jsonval.Unsupported, modules[0].Data.Kind())
		assert.Equal(t, `{"name":"x","data":null}`, marshal(t, modules[0]))
		assert.Equal(t, `{"name":"x","data":{"platformVariables":[]}}`, marshal(t, ProjectModule(modules[0])))
	})

	t.Run("explicit null data", func(t *testing.T) {
		modules, err := ParseModules([]byte(`[{"name":"x","data":null}]`))
		require.NoError(t, err)
		assert.Equal(t, `{"name":"x","data":null}`, marshal(t, modules[0]))
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := ParseModules([]byte(`"nope"`))
		assert.Error(t, err)
	})

	t.Run("non-object module", func(t *testing.T) {
		_, err := ParseModules([]byte(`[1]`))
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseModules([]byte(`[{`))
		assert.Error(t, err)
	})
}

func TestCredits(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"bare number", `120`, 120, false},
		{"object", `{"credits": 75}`, 75, false},
		{"missing field", `{"balance": 3}`, 0, true},
		{"string", `"lots"`, 0, true},
		{"not json", `ok`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/credits", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.Credits(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructuredErrorFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"payment required", &APIError{StatusCode: 402, Body: "no credits"}, ErrInsufficientCredits},
		{"forbidden", &APIError{StatusCode: 403}, ErrForbidden},
		{"server", &APIError{StatusCode: 503}, ErrServerError},
		{"auth", &AuthError{Reason: "bad"}, ErrUnauthorized},
		{"rate limit", &RateLimitError{}, ErrRateLimited},
		{"circuit", &CircuitBreakerError{}, ErrCircuitOpen},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"other", errors.New("boom"), ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := StructuredErrorFromError(tt.err)
			require.NotNil(t, se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.code.IsRetryable(), se.Retryable)
		})
	}
	assert.Nil(t, StructuredErrorFromError(nil))
}
