// Package filter runs jq expressions over decoded JSON with gojq.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression undoes shell escaping of operators. Zsh escapes ! to \!
// even inside single quotes, which breaks != and friends.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Compile parses an expression once so it can be applied to many records.
func Compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(NormalizeExpression(expression))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return code, nil
}

// Apply applies a jq expression to data decoded by encoding/json. A single
// result is returned bare, several as a slice, none as nil.
//
// When a root array query such as .[] hits a grouped search record, the
// query is retried against its modules list.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	results, err := Run(code, data)
	if err != nil {
		if modules, ok := modulesFallback(data, expression); ok {
			if retry, retryErr := Run(code, modules); retryErr == nil {
				results, err = retry, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return collapse(results), nil
}

// Run executes compiled code and collects every emitted value.
func Run(code *gojq.Code, data any) ([]any, error) {
	iter := code.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			if haltErr, ok := err.(*gojq.HaltError); ok && haltErr.Value() == nil {
				break
			}
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func collapse(results []any) any {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	default:
		return results
	}
}

func modulesFallback(data any, expression string) (any, bool) {
	expr := strings.TrimSpace(expression)
	if !strings.HasPrefix(expr, ".[]") && !strings.HasPrefix(expr, "[.[]") {
		return nil, false
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	modules, ok := m["modules"].([]any)
	return modules, ok
}

// Decode turns JSON bytes into the generic form gojq expects.
func Decode(jsonData []byte) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return data, nil
}

// ApplyFromJSON decodes jsonData and applies expression to it.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	data, err := Decode(jsonData)
	if err != nil {
		return nil, err
	}
	return Apply(data, expression)
}
