package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/99designs/keyring"

	"github.com/osint-industries/oi-cli/internal/config"
	"github.com/osint-industries/oi-cli/internal/iocontext"
)

// testRing backs every keyring open during a test; useKeyring swaps in a
// fresh one.
var testRing keyring.Keyring = keyring.NewArrayKeyring(nil)

func TestMain(m *testing.M) {
	// Keep the developer's shell and dotfiles out of the tests.
	home, err := os.MkdirTemp("", "oi-cmd-test")
	if err != nil {
		panic(err)
	}
	for key, value := range map[string]string{
		"XDG_CONFIG_HOME":    home,
		"XDG_CACHE_HOME":     home,
		"OSINT_OUTPUT":       "text",
		"OSINT_NO_CACHE":     "1",
		"OI_NO_UPDATE_CHECK": "1",
		"NO_COLOR":           "1",
	} {
		_ = os.Setenv(key, value)
	}
	for _, key := range []string{config.EnvAPIKey, config.EnvBaseURL, config.EnvProfile, "OSINT_REDIS_URL"} {
		_ = os.Unsetenv(key)
	}

	cleanup := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return testRing, nil
	})
	code := m.Run()
	cleanup()
	_ = os.RemoveAll(home)
	os.Exit(code)
}

func useKeyring(t *testing.T) {
	t.Helper()
	prev := testRing
	testRing = keyring.NewArrayKeyring(nil)
	t.Cleanup(func() { testRing = prev })
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (r cliResult) exitCode() int {
	return ExitCode(r.err)
}

func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &out,
		ErrOut: &errOut,
		In:     strings.NewReader(stdin),
	})
	err := Execute(ctx, args)
	return cliResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// useAPI starts a fake API and points the env credentials at it.
func useAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv(config.EnvAPIKey, "test-key-123456")
	t.Setenv(config.EnvBaseURL, server.URL)
	return server
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
