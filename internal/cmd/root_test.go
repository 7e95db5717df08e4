package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownCommandSuggestion(t *testing.T) {
	res := runCLI(t, "", "serach", "a@example.com")
	require.Error(t, res.err)
	assert.Equal(t, exitUsage, res.exitCode())
	assert.Contains(t, res.stderr, `Did you mean "search"?`)
}

func TestUnknownFlagSuggestion(t *testing.T) {
	res := runCLI(t, "", "search", "--splt", "a@example.com")
	require.Error(t, res.err)
	assert.Equal(t, exitUsage, res.exitCode())
	assert.Contains(t, res.stderr, `Did you mean "--split"?`)
	assert.Contains(t, res.stderr, `Run "oi search --help"`)
}

func TestFlagAliases(t *testing.T) {
	useAPI(t, creditsHandler(t, `5`))

	res := runCLI(t, "", "credits", "--out", "json", "--jq", ".credits")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "5\n", res.stdout)

	res = runCLI(t, "", "credits", "--tpl", "{{.credits}} left")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "5 left\n", res.stdout)
}

func TestOutputFlags(t *testing.T) {
	useAPI(t, creditsHandler(t, `5`))

	tests := []struct {
		name     string
		args     []string
		env      string
		wantOut  string
		wantCode int
	}{
		{name: "ndjson is jsonl", args: []string{"credits", "-o", "ndjson"}, wantOut: "{\"credits\":5}\n"},
		{name: "env output", args: []string{"credits"}, env: "jsonl", wantOut: "{\"credits\":5}\n"},
		{name: "json conflicts with text", args: []string{"credits", "--json", "-o", "text"}, wantCode: exitUsage},
		{name: "query needs json", args: []string{"credits", "-o", "text", "-q", ".credits"}, wantCode: exitUsage},
		{name: "bad output", args: []string{"credits", "-o", "yaml"}, wantCode: exitUsage},
		{name: "bad color", args: []string{"credits", "--color", "sometimes"}, wantCode: exitUsage},
		{name: "negative retries", args: []string{"credits", "--max-5xx-retries", "-1"}, wantCode: exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(envOutput, tt.env)
			}
			res := runCLI(t, "", tt.args...)
			if tt.wantCode != 0 {
				require.Error(t, res.err)
				assert.Equal(t, tt.wantCode, res.exitCode(), res.stderr)
				return
			}
			require.NoError(t, res.err, res.stderr)
			assert.Equal(t, tt.wantOut, res.stdout)
		})
	}
}

func TestSilentHidesErrors(t *testing.T) {
	useKeyring(t)
	res := runCLI(t, "", "credits", "--silent")
	require.Error(t, res.err)
	assert.Equal(t, exitAuth, res.exitCode())
	assert.Empty(t, res.stderr)
}

func TestExtractFlag(t *testing.T) {
	assert.Equal(t, "--splt", extractFlag("unknown flag: --splt"))
	assert.Equal(t, "--splt", extractFlag("unknown flag: --splt=true"))
	assert.Equal(t, "-z", extractFlag("unknown shorthand flag: 'z' in -z"))
	assert.Equal(t, "", extractFlag("something else"))
}
