package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/osint-industries/oi-cli/internal/batch"
	"github.com/osint-industries/oi-cli/internal/cache"
	"github.com/osint-industries/oi-cli/internal/dryrun"
	"github.com/osint-industries/oi-cli/internal/iocontext"
	"github.com/osint-industries/oi-cli/internal/jsonval"
	"github.com/osint-industries/oi-cli/internal/osint"
	"github.com/osint-industries/oi-cli/internal/outfmt"
)

type searchOptions struct {
	input          string
	searchType     string
	timeout        int
	split          bool
	raw            bool
	continueOnFail bool
	concurrency    int
	noCache        bool
	cacheTTL       time.Duration
}

func newSearchCmd() *cobra.Command {
	opts := searchOptions{
		searchType:  batch.TypeAuto,
		timeout:     osint.DefaultSearchTimeout,
		split:       true,
		concurrency: batch.DefaultConcurrency,
		cacheTTL:    cache.DefaultTTL,
	}

	cmd := &cobra.Command{
		Use:     "search [IDENTIFIER...]",
		Aliases: []string{"s", "lookup"},
		Short:   "Look up email addresses or phone numbers",
		Long: `Search the OSINT Industries API for each identifier and print one record per
module that returned data (or one record per identifier with --split=false).

Identifiers come from the arguments or from --input, one per line; blank lines
and lines starting with # are ignored. Results are cached for --cache-ttl
because every search spends credits.`,
		Example: `  oi search alice@example.com
  oi search --type phone "+44 20 7946 0958"
  oi search --input targets.txt --continue-on-fail -o jsonl
  oi search bob@example.com -q '.[] | select(.module.data.registered) | .module.name'`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		}),
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.input, "input", "i", "", "Read identifiers from a file, one per line ('-' for stdin)")
	fs.StringVarP(&opts.searchType, "type", "t", opts.searchType, "Identifier type: email|phone|auto")
	fs.IntVar(&opts.timeout, "timeout", opts.timeout, fmt.Sprintf("Server-side search timeout in seconds (%d-%d)", osint.MinSearchTimeout, osint.MaxSearchTimeout))
	fs.BoolVar(&opts.split, "split", opts.split, "Emit one record per module (false: one record per identifier)")
	fs.BoolVar(&opts.raw, "raw", false, "Output module data as returned by the API, without projection")
	fs.BoolVar(&opts.continueOnFail, "continue-on-fail", false, "Emit an error record for failed identifiers and keep going")
	fs.IntVarP(&opts.concurrency, "concurrency", "c", opts.concurrency, "Number of searches in flight")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Bypass the search result cache (env "+cache.EnvNoCache+")")
	fs.DurationVar(&opts.cacheTTL, "cache-ttl", opts.cacheTTL, "How long search results stay cached")

	flagAlias(fs, "continue-on-fail", "cof")
	flagAlias(fs, "concurrency", "conc")
	flagAlias(fs, "no-cache", "nc")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts searchOptions) error {
	ctx := cmd.Context()

	items, err := searchItems(cmd, args, opts.input)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("an identifier is required: pass one as an argument or use --input")
	}
	if opts.timeout < osint.MinSearchTimeout || opts.timeout > osint.MaxSearchTimeout {
		return fmt.Errorf("invalid value for --timeout: must be between %d and %d seconds", osint.MinSearchTimeout, osint.MaxSearchTimeout)
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("invalid value for --concurrency: must be >= 1")
	}
	if flags.RequestTimeout <= time.Duration(opts.timeout)*time.Second {
		return fmt.Errorf("invalid value for --request-timeout: must exceed --timeout (%ds)", opts.timeout)
	}

	client, cfg, err := newClient(cmd)
	if err != nil {
		return err
	}

	var searcher batch.Searcher = client
	if !opts.noCache && !cache.Disabled() {
		store, err := openCache(opts.cacheTTL)
		if err != nil {
			printInfo(cmd, "Warning: search cache unavailable: %v", err)
		} else {
			defer func() { _ = store.Close() }()
			searcher = &batch.CachedSearcher{Next: client, Store: store, BaseURL: client.BaseURL}
		}
	}
	slog.Debug("resolved credentials", "source", cfg.Source, "profile", cfg.Profile, "base_url", client.BaseURL)

	runner := &batch.Runner{
		Searcher: searcher,
		Options: batch.Options{
			Type:           opts.searchType,
			Timeout:        opts.timeout,
			Split:          opts.split,
			Raw:            opts.raw,
			ContinueOnFail: opts.continueOnFail,
			Concurrency:    opts.concurrency,
		},
	}
	if dryrun.IsEnabled(ctx) {
		return previewSearch(cmd, runner, items)
	}

	var table *outfmt.Table
	emitter, err := outfmt.NewEmitter(ctx, stdout(cmd), func(w io.Writer, record any) error {
		if table == nil {
			table = outfmt.NewTable(w, "ITEM", "QUERY", "TYPE", "MODULE", "REGISTERED", "USERNAME", "NAME", "PROFILE")
		}
		for _, row := range searchRows(record) {
			table.Row(row...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	runErr := runner.Run(ctx, items, emitter.Emit)

	// Records already emitted are still written when a later item fails.
	closeErr := emitter.Close()
	if table != nil {
		if err := table.Flush(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// previewSearch reports what runner would send for items without calling
// the API.
func previewSearch(cmd *cobra.Command, runner *batch.Runner, items []string) error {
	ctx := cmd.Context()
	if err := runner.CheckType(); err != nil {
		return err
	}
	cached, _ := runner.Searcher.(*batch.CachedSearcher)

	previews := make([]dryrun.Preview, 0, len(items))
	for i, item := range items {
		req, err := runner.Request(item)
		p := dryrun.Preview{Item: i, Query: req.Query, Type: string(req.Type), Timeout: req.Timeout}
		if err != nil {
			p.Error = err.Error()
			var se *osint.StructuredError
			if errors.As(err, &se) {
				p.Error = se.Message
			}
			p.Timeout = 0
		} else if cached != nil {
			p.Cached = cached.Cached(ctx, req)
		}
		previews = append(previews, p)
	}

	var table *outfmt.Table
	emitter, err := outfmt.NewEmitter(ctx, stdout(cmd), func(w io.Writer, record any) error {
		if table == nil {
			table = outfmt.NewTable(w, "ITEM", "QUERY", "TYPE", "TIMEOUT", "CACHED", "ERROR")
		}
		p := record.(dryrun.Preview)
		timeout := ""
		if p.Timeout > 0 {
			timeout = strconv.Itoa(p.Timeout) + "s"
		}
		table.Row(strconv.Itoa(p.Item), p.Query, p.Type, timeout, strconv.FormatBool(p.Cached), p.Error)
		return nil
	})
	if err != nil {
		return err
	}
	for _, p := range previews {
		if err := emitter.Emit(p); err != nil {
			return err
		}
	}
	if err := emitter.Close(); err != nil {
		return err
	}
	if table != nil {
		if err := table.Flush(); err != nil {
			return err
		}
	}
	if !flags.Quiet && !flags.Silent {
		dryrun.Summarize(previews).Write(stderr(cmd))
	}
	return nil
}

func searchItems(cmd *cobra.Command, args []string, input string) ([]string, error) {
	items := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			items = append(items, a)
		}
	}
	if input == "" {
		return items, nil
	}
	var r io.Reader
	if input == "-" {
		r = iocontext.GetIO(cmd.Context()).In
	} else {
		data, err := readSource(cmd, input)
		if err != nil {
			return nil, err
		}
		r = strings.NewReader(string(data))
	}
	fromInput, err := batch.ReadItems(r)
	if err != nil {
		return nil, err
	}
	return append(items, fromInput...), nil
}

func openCache(ttl time.Duration) (cache.Store, error) {
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir, ttl)
}

// searchRows flattens one record into table rows.
func searchRows(record any) [][]string {
	switch r := record.(type) {
	case batch.SplitRecord:
		if r.Module == nil {
			return [][]string{{strconv.Itoa(r.Item), r.Query, r.Type, "(none)", "", "", "", ""}}
		}
		return [][]string{moduleRow(r.Item, r.Query, r.Type, r.Module)}
	case batch.GroupedRecord:
		if len(r.Modules) == 0 {
			return [][]string{{strconv.Itoa(r.Item), r.Query, r.Type, "(none)", "", "", "", ""}}
		}
		rows := make([][]string, 0, len(r.Modules))
		for _, m := range r.Modules {
			rows = append(rows, moduleRow(r.Item, r.Query, r.Type, m))
		}
		return rows
	case batch.ErrorRecord:
		return [][]string{{strconv.Itoa(r.Item), r.Query, r.Type, "(error)", "", "", "", r.Error}}
	default:
		return nil
	}
}

func moduleRow(item int, query, searchType string, module any) []string {
	row := []string{strconv.Itoa(item), query, searchType, "", "", "", "", ""}
	switch m := module.(type) {
	case osint.ProjectedModule:
		row[3] = m.Name
		row[4] = cell(m.Data.Registered)
		row[5] = cell(m.Data.Username)
		row[6] = cell(m.Data.Name)
		row[7] = cell(m.Data.ProfileURL)
	case osint.Module:
		row[3] = m.Name
		row[4] = rawCell(m.Data, "registered")
		row[5] = rawCell(m.Data, "username")
		row[6] = rawCell(m.Data, "name")
		row[7] = rawCell(m.Data, "profileUrl")
	}
	return row
}

// cell renders a field for the table: strings bare, anything else as JSON,
// missing and null as blank.
func cell(v *jsonval.Value) string {
	if v == nil {
		return ""
	}
	switch v.Kind() {
	case jsonval.String:
		return v.Str()
	case jsonval.Null, jsonval.Unsupported:
		return ""
	default:
		return v.String()
	}
}

func rawCell(data jsonval.Value, key string) string {
	v, ok := data.Get(key)
	if !ok {
		return ""
	}
	return cell(&v)
}
