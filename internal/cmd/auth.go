package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/osint-industries/oi-cli/internal/config"
	"github.com/osint-industries/oi-cli/internal/debug"
	"github.com/osint-industries/oi-cli/internal/iocontext"
	"github.com/osint-industries/oi-cli/internal/osint"
	"github.com/osint-industries/oi-cli/internal/outfmt"
	"github.com/osint-industries/oi-cli/internal/resolve"
	"github.com/osint-industries/oi-cli/internal/validation"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the OSINT Industries API key",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthListCmd())
	cmd.AddCommand(newAuthSwitchCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

type loginResult struct {
	Profile string `json:"profile"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Credits *int   `json:"credits,omitempty"`
}

func newAuthLoginCmd() *cobra.Command {
	var (
		apiKey   string
		keyStdin bool
		profile  string
		envFile  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an API key to the OS keychain",
		Long: strings.TrimSpace(`
Save an OSINT Industries API key to your OS keychain.

The key is checked against the credits endpoint before it is saved, so a typo
fails here rather than on the first search. Use --no-verify to skip the check.
`),
		Example: strings.TrimSpace(`
  # Pipe the key in to keep it out of shell history
  pass show osint | oi auth login --api-key-stdin

  # Save under a named profile with a custom base URL
  oi auth login --api-key KEY --profile eu --base-url https://eu.example.com/api

  # Load OSINT_API_KEY (and optional OSINT_BASE_URL, OSINT_PROFILE) from a .env file
  oi auth login --env-file .env
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if apiKey != "" && keyStdin {
				return fmt.Errorf("--api-key and --api-key-stdin cannot be used together")
			}
			baseURL := flags.BaseURL

			if envFile != "" {
				envVars, err := config.ReadEnvFile(envFile)
				if err != nil {
					return err
				}
				config.ApplyRuntimeEnv(envVars)
				if apiKey == "" && !keyStdin {
					apiKey = strings.TrimSpace(envVars[config.EnvAPIKey])
				}
				if baseURL == "" {
					baseURL = strings.TrimSpace(envVars[config.EnvBaseURL])
				}
				if !flagOrAliasChanged(cmd, "profile") {
					if p := strings.TrimSpace(envVars[config.EnvProfile]); p != "" {
						profile = p
					}
				}
			}

			if keyStdin {
				data, err := io.ReadAll(iocontext.GetIO(cmd.Context()).In)
				if err != nil {
					return fmt.Errorf("failed to read API key from stdin: %w", err)
				}
				apiKey = string(data)
			}
			apiKey = strings.TrimSpace(apiKey)
			if apiKey == "" {
				return fmt.Errorf("--api-key is required (or use --api-key-stdin or --env-file)")
			}

			baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
			if baseURL != "" {
				if err := validation.ValidateBaseURL(baseURL); err != nil {
					return fmt.Errorf("invalid value for --base-url: %w", err)
				}
			}

			result := loginResult{Profile: profile, BaseURL: baseURL, APIKey: debug.Redact(apiKey)}
			if result.BaseURL == "" {
				result.BaseURL = osint.DefaultBaseURL
			}
			if !noVerify {
				credits, err := newClientFor(cmd, baseURL, apiKey).Credits(cmd.Context())
				if err != nil {
					return fmt.Errorf("API key verification failed: %w", err)
				}
				result.Credits = &credits
			}

			if err := config.SaveProfile(profile, config.Account{APIKey: apiKey, BaseURL: baseURL}); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			return printRecord(cmd, result, func(w io.Writer) error {
				_, _ = fmt.Fprintln(w, "API key saved.")
				_, _ = fmt.Fprintf(w, "  Profile:  %s\n", result.Profile)
				_, _ = fmt.Fprintf(w, "  Base URL: %s\n", result.BaseURL)
				_, _ = fmt.Fprintf(w, "  API key:  %s\n", result.APIKey)
				if result.Credits != nil {
					_, _ = fmt.Fprintf(w, "  Credits:  %d\n", *result.Credits)
				}
				return nil
			})
		}),
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().BoolVar(&keyStdin, "api-key-stdin", false, "Read the API key from stdin")
	cmd.Flags().StringVar(&profile, "profile", "default", "Profile name to save the key under")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load OSINT_* (and optional OI_KEYRING_*) values from a .env file")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Save without checking the key against the API")
	flagAlias(cmd.Flags(), "api-key", "key")
	flagAlias(cmd.Flags(), "profile", "pf")
	flagAlias(cmd.Flags(), "env-file", "env")
	return cmd
}

type statusResult struct {
	Configured bool          `json:"configured"`
	Source     config.Source `json:"source,omitempty"`
	Profile    string        `json:"profile,omitempty"`
	BaseURL    string        `json:"base_url,omitempty"`
	APIKey     string        `json:"api_key,omitempty"`
	Credits    *int          `json:"credits,omitempty"`
	RateLimit  *rateLimit    `json:"rate_limit,omitempty"`
}

type rateLimit struct {
	Limit     *int   `json:"limit,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
	ResetAt   string `json:"reset_at,omitempty"`
}

func newAuthStatusCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which API key is in use",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := newClient(cmd)
			if errors.Is(err, config.ErrNotConfigured) {
				return printRecord(cmd, statusResult{}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Not logged in. Run 'oi auth login' or set "+config.EnvAPIKey+".")
					return err
				})
			}
			if err != nil {
				return err
			}

			result := statusResult{
				Configured: true,
				Source:     cfg.Source,
				Profile:    cfg.Profile,
				BaseURL:    client.BaseURL,
				APIKey:     debug.Redact(cfg.APIKey),
			}
			if check {
				credits, err := client.Credits(cmd.Context())
				if err != nil {
					return err
				}
				result.Credits = &credits
				if info := client.LastRateLimit(); info != nil {
					rl := &rateLimit{Limit: info.Limit, Remaining: info.Remaining}
					if info.ResetAt != nil {
						rl.ResetAt = info.ResetAt.UTC().Format(time.RFC3339)
					}
					result.RateLimit = rl
				}
			}

			return printRecord(cmd, result, func(w io.Writer) error {
				switch cfg.Source {
				case config.SourceEnv:
					_, _ = fmt.Fprintf(w, "Using API key from %s\n", config.EnvAPIKey)
				default:
					_, _ = fmt.Fprintf(w, "Using profile %q\n", result.Profile)
				}
				_, _ = fmt.Fprintf(w, "  Base URL: %s\n", result.BaseURL)
				_, _ = fmt.Fprintf(w, "  API key:  %s\n", result.APIKey)
				if result.Credits != nil {
					_, _ = fmt.Fprintf(w, "  Credits:  %d\n", *result.Credits)
				}
				if rl := result.RateLimit; rl != nil && rl.Remaining != nil {
					_, _ = fmt.Fprintf(w, "  Rate limit remaining: %d\n", *rl.Remaining)
				}
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&check, "check", false, "Verify the key against the API and show credits")
	return cmd
}

type profileEntry struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, err := config.CurrentProfile()
			if err != nil {
				return err
			}
			entries := make([]profileEntry, 0, len(profiles))
			for _, p := range profiles {
				entries = append(entries, profileEntry{Name: p, Current: p == current})
			}
			return printRecord(cmd, entries, func(w io.Writer) error {
				if len(entries) == 0 {
					_, err := fmt.Fprintln(w, "No saved profiles. Run 'oi auth login'.")
					return err
				}
				table := outfmt.NewTable(w, "PROFILE", "CURRENT")
				for _, e := range entries {
					marker := ""
					if e.Current {
						marker = "*"
					}
					table.Row(e.Name, marker)
				}
				return table.Flush()
			})
		}),
	}
}

// resolveProfile matches a possibly abbreviated profile name against the
// saved profiles.
func resolveProfile(name string) (string, error) {
	profiles, err := config.ListProfiles()
	if err != nil {
		return "", err
	}
	match, err := resolve.Name(name, profiles)
	switch {
	case err == nil:
		return match, nil
	case errors.Is(err, resolve.ErrEmptyItems):
		return "", fmt.Errorf("%w: no profiles saved", config.ErrProfileNotFound)
	default:
		var amb *resolve.AmbiguousError
		if errors.As(err, &amb) {
			return "", err
		}
		return "", fmt.Errorf("%w: %q", config.ErrProfileNotFound, name)
	}
}

func newAuthSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "switch PROFILE",
		Aliases: []string{"use"},
		Short:   "Make a saved profile current",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			profile, err := resolveProfile(args[0])
			if err != nil {
				return err
			}
			if err := config.SwitchProfile(profile); err != nil {
				return err
			}
			return printRecord(cmd, profileEntry{Name: profile, Current: true}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Switched to profile %q\n", profile)
				return err
			})
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout [PROFILE]",
		Short: "Remove a saved API key (default: the current profile)",
		Args:  cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var profile string
			var err error
			if len(args) == 1 {
				profile, err = resolveProfile(args[0])
			} else {
				profile, err = config.CurrentProfile()
			}
			if err != nil {
				return err
			}
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			result := map[string]string{"removed": profile}
			return printRecord(cmd, result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed profile %q\n", profile)
				return err
			})
		}),
	}
}
