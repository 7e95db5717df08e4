package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/osint-industries/oi-cli/internal/jsonval"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input       string
		expected    Mode
		expectError bool
	}{
		{"text", Text, false},
		{"", Text, false},
		{"json", JSON, false},
		{"jsonl", JSONL, false},
		{"ndjson", JSONL, false},
		{"agent", Text, true},
		{"JSON", Text, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := Parse(tt.input)
			if tt.expectError != (err != nil) {
				t.Fatalf("Parse(%q) error = %v, expectError %v", tt.input, err, tt.expectError)
			}
			if !tt.expectError && mode != tt.expected {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, mode, tt.expected)
			}
		})
	}
}

func TestModeContext(t *testing.T) {
	ctx := context.Background()
	if ModeFromContext(ctx) != Text || IsJSON(ctx) {
		t.Error("expected default mode to be Text")
	}

	ctx = WithMode(ctx, JSONL)
	if !IsJSON(ctx) || !IsJSONL(ctx) {
		t.Error("JSONL should count as JSON output")
	}
	if ModeFromContext(ctx).String() != "jsonl" {
		t.Errorf("String() = %q", ModeFromContext(ctx).String())
	}
}

func TestFlagContexts(t *testing.T) {
	ctx := context.Background()
	if IsCompact(ctx) || ColorEnabled(ctx) || GetQuery(ctx) != "" || GetTemplate(ctx) != "" {
		t.Fatal("expected empty defaults")
	}
	ctx = WithCompact(ctx, true)
	ctx = WithColor(ctx, true)
	ctx = WithQuery(ctx, ".x")
	ctx = WithTemplate(ctx, "{{.x}}")
	if !IsCompact(ctx) || !ColorEnabled(ctx) || GetQuery(ctx) != ".x" || GetTemplate(ctx) != "{{.x}}" {
		t.Fatal("context values not stored")
	}
}

func TestWriteJSON_PreservesKeyOrderAndSkipsHTMLEscape(t *testing.T) {
	v := jsonval.MustParse(`{"zeta":1,"alpha":"https://x.test/?a=1&b=<2>"}`)

	var buf bytes.Buffer
	if err := WriteJSONMaybeCompact(&buf, v, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"zeta":1,"alpha":"https://x.test/?a=1&b=<2>"}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteJSON(&buf, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "{\n  \"zeta\": 1,") {
		t.Errorf("expected indented output in key order, got:\n%s", buf.String())
	}
}

func TestWritePretty(t *testing.T) {
	v := map[string]any{"tags": []any{"a", "b"}}

	var plain bytes.Buffer
	if err := WritePretty(&plain, v, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !json.Valid(plain.Bytes()) {
		t.Errorf("uncolored pretty output should be valid JSON: %s", plain.String())
	}
	if !strings.Contains(plain.String(), `["a", "b"]`) {
		t.Errorf("expected short array on one line, got:\n%s", plain.String())
	}

	var colored bytes.Buffer
	if err := WritePretty(&colored, v, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("expected ANSI escapes in colored output")
	}
}

func TestWriteJSONFiltered(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]string{"name": "test", "id": "123"}
	if err := WriteJSONFiltered(&buf, data, ".name", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `"test"` {
		t.Errorf("expected filtered output, got: %s", buf.String())
	}

	if err := WriteJSONFiltered(&buf, data, ".[[[", false); err == nil {
		t.Error("expected error for invalid query")
	}
}

func TestWriteTemplate(t *testing.T) {
	tests := []struct {
		name string
		data any
		tmpl string
		want string
	}{
		{"field", map[string]any{"name": "test"}, "Name: {{.name}}", "Name: test"},
		{"missing key", map[string]any{}, "[{{.name}}]", "[<no value>]"},
		{"json func", map[string]any{"a": []any{1.0}}, `{{json .a}}`, "[1]"},
		{"join func", map[string]any{"t": []any{"x", "y"}}, `{{join ", " .t}}`, "x, y"},
		{"default func", map[string]any{"n": ""}, `{{default "-" .n}}`, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteTemplate(&buf, tt.data, tt.tmpl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteTemplate_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTemplate(&buf, nil, "{{.name")
	if err == nil || !strings.Contains(err.Error(), "invalid template") {
		t.Errorf("expected parse error, got %v", err)
	}

	err = WriteTemplate(&buf, map[string]any{"n": 1}, "{{index .n 3}}")
	if err == nil || !strings.Contains(err.Error(), "template execution error") {
		t.Errorf("expected execution error, got %v", err)
	}
}
