package osint

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/osint-industries/oi-cli/internal/jsonval"
)

// SearchType is the kind of identifier being looked up.
type SearchType string

const (
	SearchEmail SearchType = "email"
	SearchPhone SearchType = "phone"
)

// SearchTypes lists the accepted identifier types.
var SearchTypes = []string{string(SearchEmail), string(SearchPhone)}

// Search timeout bounds, in seconds.
const (
	MinSearchTimeout     = 1
	MaxSearchTimeout     = 60
	DefaultSearchTimeout = 10
)

// ParseSearchType accepts "email" or "phone" in any case.
func ParseSearchType(s string) (SearchType, error) {
	t := SearchType(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(SearchTypes, string(t)) {
		return "", NewValidationError("type", s, SearchTypes)
	}
	return t, nil
}

// DetectSearchType guesses the type of an identifier: anything with an @ is an
// email address, everything else a phone number.
func DetectSearchType(query string) SearchType {
	if strings.Contains(query, "@") {
		return SearchEmail
	}
	return SearchPhone
}

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Type    SearchType `json:"type"`
	Query   string     `json:"query"`
	Timeout int        `json:"timeout"`
}

// Validate checks the type, a non-empty query and the timeout range. A zero
// timeout is replaced by DefaultSearchTimeout.
func (r *SearchRequest) Validate() error {
	t, err := ParseSearchType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = t
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return NewStructuredError(ErrValidation, "query is required")
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultSearchTimeout
	}
	if r.Timeout < MinSearchTimeout || r.Timeout > MaxSearchTimeout {
		return NewStructuredError(ErrValidation,
			fmt.Sprintf("timeout must be between %d and %d seconds, got %d", MinSearchTimeout, MaxSearchTimeout, r.Timeout))
	}
	return nil
}

// Search looks up an email address or phone number and returns the modules
// that reported data, in response order.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Module, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/v2/request", req)
	if err != nil {
		return nil, err
	}
	return ParseModules(body)
}

// ParseModules decodes a search response: an array of objects carrying the
// source name under "name" (or "module") and its payload under "data".
func ParseModules(body []byte) ([]Module, error) {
	v, err := jsonval.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if v.Kind() == jsonval.Object {
		// Some deployments wrap the list.
		for _, key := range []string{"modules", "data", "results"} {
			if inner, ok := v.Get(key); ok && inner.Kind() == jsonval.Array {
				v = inner
				break
			}
		}
	}
	if v.Kind() != jsonval.Array {
		return nil, fmt.Errorf("failed to decode search response: expected array, got %s", v.Kind())
	}

	modules := make([]Module, 0, v.Len())
	for i, elem := range v.Elems() {
		if elem.Kind() != jsonval.Object {
			return nil, fmt.Errorf("failed to decode search response: module %d is %s, not object", i, elem.Kind())
		}
		// A module without data keeps Data absent; it encodes as null.
		m := Module{Data: jsonval.Undefined()}
		if name, ok := elem.Get("name"); ok && name.Kind() == jsonval.String {
			m.Name = name.Str()
		} else if name, ok := elem.Get("module"); ok && name.Kind() == jsonval.String {
			m.Name = name.Str()
		}
		if data, ok := elem.Get("data"); ok {
			m.Data = data
		}
		modules = append(modules, m)
	}
	return modules, nil
}
