package cmd

import (
	"github.com/spf13/cobra"

	"github.com/osint-industries/oi-cli/internal/config"
	"github.com/osint-industries/oi-cli/internal/osint"
)

// retryConfig layers explicitly set retry flags over the env-derived defaults.
func retryConfig(cmd *cobra.Command) osint.RetryConfig {
	cfg := osint.DefaultRetryConfig()
	if flagOrAliasChanged(cmd, "max-rate-limit-retries") {
		cfg.MaxRateLimitRetries = flags.MaxRateLimitRetries
	}
	if flagOrAliasChanged(cmd, "max-5xx-retries") {
		cfg.Max5xxRetries = flags.Max5xxRetries
	}
	if flagOrAliasChanged(cmd, "rate-limit-delay") {
		cfg.RateLimitBaseDelay = flags.RateLimitDelay
	}
	if flagOrAliasChanged(cmd, "server-error-delay") {
		cfg.ServerErrorRetryDelay = flags.ServerErrorDelay
	}
	if flagOrAliasChanged(cmd, "circuit-breaker-threshold") {
		cfg.CircuitBreakerThreshold = flags.CircuitBreakerThreshold
	}
	if flagOrAliasChanged(cmd, "circuit-breaker-reset-time") {
		cfg.CircuitBreakerResetTime = flags.CircuitBreakerResetTime
	}
	return cfg
}

// newClientFor builds a client for an explicit key and base URL.
func newClientFor(cmd *cobra.Command, baseURL, apiKey string) *osint.Client {
	c := osint.New(baseURL, apiKey)
	c.HTTP.Timeout = flags.RequestTimeout
	c.UserAgent = "oi-cli/" + version
	c.SetRetryConfig(retryConfig(cmd))
	return c
}

// newClient resolves credentials from env and keyring and builds a client.
func newClient(cmd *cobra.Command) (*osint.Client, config.ClientConfig, error) {
	cfg, err := config.ResolveClientConfig(flags.BaseURL)
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	return newClientFor(cmd, cfg.BaseURL, cfg.APIKey), cfg, nil
}
