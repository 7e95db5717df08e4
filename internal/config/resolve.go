package config

import (
	"os"
	"strings"
)

// Source says where resolved credentials came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// ClientConfig contains resolved API client settings.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Profile string
	Source  Source
}

// ResolveClientConfig picks the credential to use. OSINT_API_KEY wins over the
// keyring; otherwise OSINT_PROFILE, then the current profile, is loaded.
// OSINT_BASE_URL overrides the base URL of either source, and a non-empty
// baseURLOverride overrides both.
func ResolveClientConfig(baseURLOverride string) (ClientConfig, error) {
	var cfg ClientConfig

	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		cfg = ClientConfig{APIKey: key, Source: SourceEnv}
	} else {
		profile := strings.TrimSpace(os.Getenv(EnvProfile))
		if profile == "" {
			current, err := CurrentProfile()
			if err != nil {
				return ClientConfig{}, err
			}
			profile = current
		}
		account, err := LoadProfile(profile)
		if err != nil {
			return ClientConfig{}, err
		}
		cfg = ClientConfig{
			APIKey:  account.APIKey,
			BaseURL: account.BaseURL,
			Profile: profile,
			Source:  SourceKeyring,
		}
	}

	if envURL := strings.TrimSpace(os.Getenv(EnvBaseURL)); envURL != "" {
		cfg.BaseURL = envURL
	}
	if o := strings.TrimSpace(baseURLOverride); o != "" {
		cfg.BaseURL = o
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return cfg, nil
}
