package outfmt

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"text/template"

	"github.com/itchyny/gojq"

	"github.com/osint-industries/oi-cli/internal/filter"
)

// TextFunc renders one record for humans.
type TextFunc func(w io.Writer, record any) error

// Emitter writes a stream of records in the context's output mode.
//
//   - JSON buffers every record and writes one array on Close. A query runs
//     against that array, as jq would over the whole document.
//   - JSONL writes each record on its own line as it arrives; a query runs
//     per record and each result gets its own line.
//   - Text renders each record with the template when one is set, otherwise
//     with the TextFunc.
type Emitter struct {
	out     io.Writer
	mode    Mode
	query   string
	code    *gojq.Code
	compact bool
	tmpl    *template.Template
	text    TextFunc
	records []any
	closed  bool
}

// NewEmitter creates an Emitter from the output settings in ctx.
func NewEmitter(ctx context.Context, out io.Writer, text TextFunc) (*Emitter, error) {
	e := &Emitter{
		out:     out,
		mode:    ModeFromContext(ctx),
		query:   GetQuery(ctx),
		compact: IsCompact(ctx),
		text:    text,
	}
	if tmpl := GetTemplate(ctx); tmpl != "" {
		t, err := ParseTemplate(tmpl)
		if err != nil {
			return nil, err
		}
		e.tmpl = t
	}
	if e.query != "" {
		// Fail on a bad expression before any request is made.
		code, err := filter.Compile(e.query)
		if err != nil {
			return nil, err
		}
		e.code = code
	}
	return e, nil
}

// Emit writes or buffers one record.
func (e *Emitter) Emit(record any) error {
	if e.closed {
		return fmt.Errorf("emitter already closed")
	}
	switch {
	case e.mode == JSON:
		e.records = append(e.records, record)
		return nil
	case e.mode == JSONL:
		return e.writeLine(record)
	case e.tmpl != nil:
		return e.writeTemplate(record)
	case e.text != nil:
		return e.text(e.out, record)
	default:
		return WriteJSONMaybeCompact(e.out, record, e.compact)
	}
}

// Close flushes buffered JSON output.
func (e *Emitter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.mode != JSON {
		return nil
	}
	records := e.records
	if records == nil {
		records = []any{}
	}
	if e.tmpl != nil {
		return e.writeTemplate(records)
	}
	return WriteJSONFiltered(e.out, records, e.query, e.compact)
}

func (e *Emitter) writeLine(record any) error {
	if e.query == "" {
		return WriteJSONMaybeCompact(e.out, record, true)
	}
	data, err := ApplyQuery(record, "")
	if err != nil {
		return err
	}
	results, err := filter.Run(e.code, data)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := WriteJSONMaybeCompact(e.out, r, true); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) writeTemplate(v any) error {
	data, err := ApplyQuery(v, e.query)
	if err != nil {
		return err
	}
	if err := executeTemplate(e.out, e.tmpl, data); err != nil {
		return err
	}
	_, err = io.WriteString(e.out, "\n")
	return err
}

// Table writes aligned columns for text output.
type Table struct {
	tw *tabwriter.Writer
}

// NewTable starts a table and writes its header row.
func NewTable(w io.Writer, headers ...string) *Table {
	t := &Table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	t.Row(headers...)
	return t
}

// Row writes a single row to the table.
func (t *Table) Row(columns ...string) {
	for i, col := range columns {
		if i > 0 {
			_, _ = fmt.Fprint(t.tw, "\t")
		}
		_, _ = fmt.Fprint(t.tw, col)
	}
	_, _ = fmt.Fprintln(t.tw)
}

// Flush writes buffered rows.
func (t *Table) Flush() error {
	return t.tw.Flush()
}
