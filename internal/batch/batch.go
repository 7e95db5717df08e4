// Package batch runs lookups over a list of identifiers and turns each
// response into output records.
//
// Items run concurrently but records always come out in input order. Without
// ContinueOnFail the first failing item, in input order, stops the run; items
// after it emit nothing.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/osint-industries/oi-cli/internal/osint"
)

// DefaultConcurrency is the default number of lookups in flight.
const DefaultConcurrency = 3

// TypeAuto picks email or phone per item.
const TypeAuto = "auto"

// Options controls how items are searched and emitted.
type Options struct {
	// Type is email, phone or auto.
	Type string
	// Timeout is the server-side search timeout in seconds; 0 means the default.
	Timeout int
	// Split emits one record per module instead of one per item.
	Split bool
	// Raw forwards module data unmodified instead of projecting it.
	Raw            bool
	ContinueOnFail bool
	Concurrency    int
}

// SplitRecord is one module of one item. Module is null when the item
// produced no modules.
type SplitRecord struct {
	Item   int    `json:"item"`
	Query  string `json:"query"`
	Type   string `json:"type"`
	Module any    `json:"module"`
}

// GroupedRecord carries every module of one item.
type GroupedRecord struct {
	Item    int    `json:"item"`
	Query   string `json:"query"`
	Type    string `json:"type"`
	Modules []any  `json:"modules"`
}

// ErrorRecord replaces an item's records when it failed and ContinueOnFail
// is set.
type ErrorRecord struct {
	Item  int             `json:"item"`
	Query string          `json:"query"`
	Type  string          `json:"type"`
	Error string          `json:"error"`
	Code  osint.ErrorCode `json:"code,omitempty"`
}

// ItemError ties a failure to the item that caused it.
type ItemError struct {
	Item  int
	Query string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Item, e.Query, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Runner executes a batch against a Searcher.
type Runner struct {
	Searcher Searcher
	Options  Options
}

type outcome struct {
	searchType string
	modules    []osint.Module
	err        error
	done       chan struct{}
}

// Run searches every item and passes the resulting records to emit in input
// order. It returns the first failing item's *ItemError when ContinueOnFail is
// off, or the first error from emit.
func (r *Runner) Run(ctx context.Context, items []string, emit func(record any) error) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.CheckType(); err != nil {
		return err
	}
	concurrency := r.Options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)
	outcomes := make([]*outcome, len(items))
	for i := range items {
		outcomes[i] = &outcome{done: make(chan struct{})}
	}

	for i, item := range items {
		o := outcomes[i]
		g.Go(func() error {
			defer close(o.done)
			if err := sem.Acquire(gctx, 1); err != nil {
				o.err = err
				return nil
			}
			defer sem.Release(1)
			o.searchType, o.modules, o.err = r.lookup(gctx, item)
			return nil
		})
	}

	var runErr error
	for i, item := range items {
		o := outcomes[i]
		<-o.done
		query := strings.TrimSpace(item)
		if o.err != nil && ctx.Err() != nil {
			// Interrupted; the remaining outcomes are cancellations too.
			runErr = ctx.Err()
			break
		}
		if o.err != nil {
			slog.Debug("item failed", "item", i, "error", o.err)
			if !r.Options.ContinueOnFail {
				runErr = &ItemError{Item: i, Query: query, Err: o.err}
				break
			}
			if err := emit(errorRecord(i, query, o.searchType, o.err)); err != nil {
				runErr = err
				break
			}
			continue
		}
		if err := r.emitModules(i, query, o.searchType, o.modules, emit); err != nil {
			runErr = err
			break
		}
	}

	cancel()
	_ = g.Wait()
	return runErr
}

// CheckType validates Options.Type.
func (r *Runner) CheckType() error {
	if strings.EqualFold(strings.TrimSpace(r.Options.Type), TypeAuto) {
		return nil
	}
	if _, err := osint.ParseSearchType(r.Options.Type); err != nil {
		return osint.NewValidationError("type", r.Options.Type, append(append([]string{}, osint.SearchTypes...), TypeAuto))
	}
	return nil
}

func (r *Runner) resolveType(query string) osint.SearchType {
	if strings.EqualFold(strings.TrimSpace(r.Options.Type), TypeAuto) {
		return osint.DetectSearchType(query)
	}
	t, _ := osint.ParseSearchType(r.Options.Type)
	return t
}

// Request builds the validated search request for one item without sending
// it. On failure the returned request still carries the resolved type.
func (r *Runner) Request(item string) (osint.SearchRequest, error) {
	if err := r.CheckType(); err != nil {
		return osint.SearchRequest{}, err
	}
	query := strings.TrimSpace(item)
	req := osint.SearchRequest{
		Type:    r.resolveType(query),
		Query:   query,
		Timeout: r.Options.Timeout,
	}
	if err := validateIdentifier(string(req.Type), query); err != nil {
		return req, osint.NewStructuredError(osint.ErrValidation, err.Error())
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func (r *Runner) lookup(ctx context.Context, item string) (string, []osint.Module, error) {
	req, err := r.Request(item)
	if err != nil {
		return string(req.Type), nil, err
	}
	modules, err := r.Searcher.Search(ctx, req)
	return string(req.Type), modules, err
}

func (r *Runner) emitModules(item int, query, searchType string, modules []osint.Module, emit func(any) error) error {
	shaped := make([]any, 0, len(modules))
	for _, m := range modules {
		if r.Options.Raw {
			shaped = append(shaped, m)
		} else {
			shaped = append(shaped, osint.ProjectModule(m))
		}
	}

	if !r.Options.Split {
		return emit(GroupedRecord{Item: item, Query: query, Type: searchType, Modules: shaped})
	}
	if len(shaped) == 0 {
		return emit(SplitRecord{Item: item, Query: query, Type: searchType, Module: nil})
	}
	for _, m := range shaped {
		if err := emit(SplitRecord{Item: item, Query: query, Type: searchType, Module: m}); err != nil {
			return err
		}
	}
	return nil
}

func errorRecord(item int, query, searchType string, err error) ErrorRecord {
	rec := ErrorRecord{Item: item, Query: query, Type: searchType, Error: err.Error()}
	if se := osint.StructuredErrorFromError(err); se != nil && se.Code != osint.ErrUnknown {
		rec.Error = se.Message
		rec.Code = se.Code
	}
	return rec
}
