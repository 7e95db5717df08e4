package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/osint-industries/oi-cli/internal/config"
	"github.com/osint-industries/oi-cli/internal/debug"
	"github.com/osint-industries/oi-cli/internal/dryrun"
	"github.com/osint-industries/oi-cli/internal/iocontext"
	"github.com/osint-industries/oi-cli/internal/osint"
	"github.com/osint-industries/oi-cli/internal/outfmt"
	"github.com/osint-industries/oi-cli/internal/resolve"
	"github.com/osint-industries/oi-cli/internal/validation"
)

// envOutput selects the default --output.
const envOutput = "OSINT_OUTPUT"

// rootFlags holds global CLI flags
type rootFlags struct {
	Output                  string
	JSON                    bool
	Color                   string
	Debug                   bool
	DryRun                  bool
	Quiet                   bool
	Silent                  bool
	AllowPrivate            bool
	Query                   string
	Template                string
	Compact                 bool
	BaseURL                 string
	RequestTimeout          time.Duration
	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitDelay          time.Duration
	ServerErrorDelay        time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration
}

// flags holds the global command flags. It is reset at the start of every
// Execute() call; code outside a command's RunE reads stale values.
var flags rootFlags

func defaultFlags() rootFlags {
	return rootFlags{
		Output:         defaultOutput(),
		Color:          "auto",
		AllowPrivate:   parseBoolEnv(validation.EnvAllowPrivate),
		RequestTimeout: osint.DefaultTimeout,
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv(envOutput)); value != "" {
		return normalizeOutputFormat(value)
	}
	return "text"
}

func normalizeOutputFormat(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

// loadTemplate accepts an inline template or @path.
func loadTemplate(value string) (string, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read --template file %q: %w", path, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func newRootCmd(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:   "oi",
		Short: "Look up email addresses and phone numbers with OSINT Industries",
		Long: `oi searches the OSINT Industries API for the accounts and public data linked
to an email address or phone number, and reports remaining credits.

Authenticate once with 'oi auth login', or export OSINT_API_KEY.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // did-you-mean comes from enhanceUnknownError
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupContext(cmd)
		},
	}
	root.SetContext(ctx)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env "+envOutput+")")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.StringVar(&flags.Color, "color", flags.Color, "Color output: auto|always|never")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.Silent, "silent", false, "Suppress non-error output to stderr")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Show the searches that would be sent without spending credits")
	pf.BoolVar(&flags.AllowPrivate, "allow-private", flags.AllowPrivate, "Allow private-network API URLs (env "+validation.EnvAllowPrivate+")")
	pf.StringVar(&flags.BaseURL, "base-url", "", "API base URL (env "+config.EnvBaseURL+")")
	pf.DurationVar(&flags.RequestTimeout, "request-timeout", flags.RequestTimeout, "HTTP request timeout (e.g. 90s)")
	pf.IntVar(&flags.MaxRateLimitRetries, "max-rate-limit-retries", 0, "Max retries for 429 responses (overrides env)")
	pf.IntVar(&flags.Max5xxRetries, "max-5xx-retries", 0, "Max retries for 5xx responses on GET (overrides env)")
	pf.DurationVar(&flags.RateLimitDelay, "rate-limit-delay", 0, "Base delay for 429 retries (overrides env)")
	pf.DurationVar(&flags.ServerErrorDelay, "server-error-delay", 0, "Delay between 5xx retries (overrides env)")
	pf.IntVar(&flags.CircuitBreakerThreshold, "circuit-breaker-threshold", 0, "Failures before the circuit opens (overrides env)")
	pf.DurationVar(&flags.CircuitBreakerResetTime, "circuit-breaker-reset-time", 0, "Circuit breaker reset time (overrides env)")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "query", "jq")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "debug", "dbg")
	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "silent", "sil")
	flagAlias(pf, "allow-private", "ap")
	flagAlias(pf, "request-timeout", "rto")
	flagAlias(pf, "max-rate-limit-retries", "max-rl")
	flagAlias(pf, "max-5xx-retries", "m5x")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newCreditsCmd())
	root.AddCommand(newNormalizeCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// setupContext turns the parsed global flags into context values.
func setupContext(cmd *cobra.Command) error {
	ctx := cmd.Context()

	flags.Output = normalizeOutputFormat(flags.Output)
	if flags.JSON {
		if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
			return fmt.Errorf("--json and --output %s cannot be used together", flags.Output)
		}
		flags.Output = "json"
	}
	if flags.Query != "" && flags.Output == "text" {
		if flagOrAliasChanged(cmd, "output") {
			return fmt.Errorf("--query requires --output json or jsonl (invalid value for --output)")
		}
		flags.Output = "json"
	}
	mode, err := outfmt.Parse(flags.Output)
	if err != nil {
		return fmt.Errorf("invalid value for --output: %w", err)
	}
	ctx = outfmt.WithMode(ctx, mode)
	ctx = outfmt.WithCompact(ctx, flags.Compact)
	if flags.Query != "" {
		ctx = outfmt.WithQuery(ctx, flags.Query)
	}
	if flags.Template != "" {
		tmpl, err := loadTemplate(flags.Template)
		if err != nil {
			return err
		}
		ctx = outfmt.WithTemplate(ctx, tmpl)
	}

	switch flags.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid value for --color %q: must be auto, always or never", flags.Color)
	}

	parent := iocontext.GetIO(ctx)
	ioStreams := &iocontext.IO{Out: parent.Out, ErrOut: parent.ErrOut, In: parent.In}
	if flags.Silent {
		ioStreams.ErrOut = io.Discard
	}
	if flags.Quiet && mode == outfmt.Text {
		ioStreams.Out = io.Discard
	}
	ctx = iocontext.WithIO(ctx, ioStreams)
	ctx = outfmt.WithColor(ctx, iocontext.ShouldColor(flags.Color, ioStreams.Out))
	cmd.SetOut(ioStreams.Out)
	cmd.SetErr(ioStreams.ErrOut)

	validation.SetAllowPrivate(flags.AllowPrivate)

	// Debug logs go to the real stderr even with --silent.
	debug.SetupLogger(parent.ErrOut, flags.Debug)
	ctx = debug.WithDebug(ctx, flags.Debug)
	ctx = dryrun.WithDryRun(ctx, flags.DryRun)

	for _, check := range []struct {
		name     string
		negative bool
	}{
		{"max-rate-limit-retries", flags.MaxRateLimitRetries < 0},
		{"max-5xx-retries", flags.Max5xxRetries < 0},
		{"rate-limit-delay", flags.RateLimitDelay < 0},
		{"server-error-delay", flags.ServerErrorDelay < 0},
		{"circuit-breaker-threshold", flags.CircuitBreakerThreshold < 0},
		{"circuit-breaker-reset-time", flags.CircuitBreakerResetTime < 0},
	} {
		if check.negative {
			return fmt.Errorf("invalid value for --%s: must be >= 0", check.name)
		}
	}
	if flags.RequestTimeout <= 0 {
		return fmt.Errorf("invalid value for --request-timeout: must be > 0")
	}

	cmd.SetContext(ctx)
	return nil
}

// Execute runs the root command. IO streams come from ctx when set, which is
// how tests capture output.
func Execute(ctx context.Context, args []string) error {
	// Runs before the flag reset so env-driven defaults see .env values.
	config.LoadDotEnv()

	flags = defaultFlags()

	root := newRootCmd(ctx)
	ioStreams := iocontext.GetIO(ctx)
	root.SetOut(ioStreams.Out)
	root.SetErr(ioStreams.ErrOut)
	root.SetIn(ioStreams.In)
	root.SetArgs(args)

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(ioStreams.ErrOut, enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := resolve.Suggest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		seen := make(map[string]bool)
		var flagNames []string
		addFlags := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Hidden || seen[f.Name] {
					return
				}
				seen[f.Name] = true
				flagNames = append(flagNames, f.Name)
			})
		}
		helpCmd := "oi --help"
		if targetCmd != nil {
			addFlags(targetCmd.Flags())
			addFlags(targetCmd.InheritedFlags())
			helpCmd = targetCmd.CommandPath() + " --help"
		} else {
			addFlags(root.PersistentFlags())
		}
		if suggestion := resolve.Suggest(strings.TrimLeft(unknown, "-"), flagNames); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, "--"+suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g. "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// shorthand errors look like: unknown shorthand flag: 'a' in -a
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexAny(rest, " ="); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
