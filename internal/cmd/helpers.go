package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/osint-industries/oi-cli/internal/iocontext"
	"github.com/osint-industries/oi-cli/internal/osint"
	"github.com/osint-industries/oi-cli/internal/outfmt"
)

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden alias for an existing flag. Both flags share
// the same underlying Value, so setting either one sets both.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	newAnn := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		newAnn[k] = v
	}
	a.Annotations = newAnn
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its hidden
// aliases was explicitly set.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func parseBoolEnv(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func stdout(cmd *cobra.Command) io.Writer {
	return iocontext.GetIO(cmd.Context()).Out
}

func stderr(cmd *cobra.Command) io.Writer {
	return iocontext.GetIO(cmd.Context()).ErrOut
}

// printInfo writes a status line to stderr unless --quiet or --silent is set.
func printInfo(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet || flags.Silent {
		return
	}
	_, _ = fmt.Fprintf(stderr(cmd), format+"\n", args...)
}

// readSource reads a file argument, with "-" or "" meaning stdin.
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(iocontext.GetIO(cmd.Context()).In)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return data, nil
}

var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

func printJSONErr(cmd *cobra.Command, v any) error {
	return outfmt.WriteJSON(stderr(cmd), v)
}

// RunE wraps a command function with enhanced error handling: structured JSON
// on stderr in JSON modes, a message with suggestions otherwise.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if isJSON(cmd) {
			if structured := osint.StructuredErrorFromError(err); structured != nil {
				_ = printJSONErr(cmd, structured)
			}
		} else {
			_, _ = fmt.Fprint(stderr(cmd), HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

// printRecord writes a single result object in the selected output mode.
// Streams of records go through outfmt.Emitter instead.
func printRecord(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	ctx := cmd.Context()
	out := stdout(cmd)
	query := outfmt.GetQuery(ctx)
	if tmpl := outfmt.GetTemplate(ctx); tmpl != "" {
		data, err := outfmt.ApplyQuery(v, query)
		if err != nil {
			return err
		}
		if err := outfmt.WriteTemplate(out, data, tmpl); err != nil {
			return err
		}
		_, err = io.WriteString(out, "\n")
		return err
	}
	switch outfmt.ModeFromContext(ctx) {
	case outfmt.JSON:
		return outfmt.WriteJSONFiltered(out, v, query, outfmt.IsCompact(ctx))
	case outfmt.JSONL:
		return outfmt.WriteJSONFiltered(out, v, query, true)
	default:
		return text(out)
	}
}
