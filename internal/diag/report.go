// Package diag implements the compiler's central diagnostic sink: a
// Report with a primary+continuation chain, a fatal/error-threshold
// short-circuit, and TTY-aware rendering.
package diag

import (
	"fmt"
	"io"

	"github.com/wiz-lang/wiz/internal/ast"
)

// Severity is the diagnostic taxonomy.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityError
	SeverityFatal
	SeverityInternal
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	case SeverityInternal:
		return "internal error"
	default:
		return "diagnostic"
	}
}

// isFatal reports whether a diagnostic of this severity alone aborts
// the current pass.
func (s Severity) isFatal() bool { return s == SeverityFatal || s == SeverityInternal }

// Diagnostic is a single reported message plus zero or more
// continuation notes. A continuation's rendered severity is forced to
// match the primary's fatality: notes under a fatal primary render as
// fatal, notes under a non-fatal primary render as "note".
type Diagnostic struct {
	Severity Severity
	Loc      ast.Location
	Message  string
	Notes    []Diagnostic
	// Cause, if set, is an underlying error this diagnostic wraps (e.g.
	// an I/O failure from the resource manager), rendered with %w-style
	// chaining via golang.org/x/xerrors so `errors.Is`/`errors.As`
	// still see through the diagnostic layer.
	Cause error
}

// Note attaches a continuation note and returns the receiver for
// chaining at the call site.
func (d Diagnostic) Note(loc ast.Location, format string, args ...any) Diagnostic {
	sev := SeverityNote
	if d.Severity.isFatal() {
		sev = d.Severity
	}
	d.Notes = append(d.Notes, Diagnostic{Severity: sev, Loc: loc, Message: fmt.Sprintf(format, args...)})
	return d
}

// Report accumulates diagnostics across a compilation and implements an
// error-threshold/fatal short-circuit.
type Report struct {
	diagnostics []Diagnostic
	errorCount  int
	fatal       bool
	threshold   int
	colorizer   Colorizer
	trace       io.Writer // non-nil only when verbose tracing is enabled
}

// DefaultThreshold is the error count at which Report escalates to fatal
// even absent an explicit Fatal/Internal diagnostic.
const DefaultThreshold = 64

// NewReport constructs a Report with the default error threshold and a
// no-op colorizer; callers needing TTY bolding call SetColorizer.
func NewReport() *Report {
	return &Report{threshold: DefaultThreshold, colorizer: NoColor{}}
}

func (r *Report) SetColorizer(c Colorizer) { r.colorizer = c }

// SetTraceWriter enables Report.Tracef output: pass timing and bank
// summaries go through the Report rather than a separate logging
// package.
func (r *Report) SetTraceWriter(w io.Writer) { r.trace = w }

// Tracef writes a non-diagnostic trace line if tracing is enabled.
func (r *Report) Tracef(format string, args ...any) {
	if r.trace == nil {
		return
	}
	fmt.Fprintf(r.trace, format+"\n", args...)
}

// Add records a diagnostic and updates the fatal/threshold state.
// Returns the report for chaining.
func (r *Report) Add(d Diagnostic) *Report {
	r.diagnostics = append(r.diagnostics, d)
	if d.Severity.isFatal() {
		r.fatal = true
	} else if d.Severity == SeverityError {
		r.errorCount++
		if r.errorCount >= r.threshold {
			r.fatal = true
		}
	}
	return r
}

// Errorf is a convenience for the common case of a plain error diagnostic.
func (r *Report) Errorf(loc ast.Location, format string, args ...any) *Report {
	return r.Add(Diagnostic{Severity: SeverityError, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// Fatalf records a fatal diagnostic.
func (r *Report) Fatalf(loc ast.Location, format string, args ...any) *Report {
	return r.Add(Diagnostic{Severity: SeverityFatal, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// Internalf records an internal-error diagnostic (invariant violation).
func (r *Report) Internalf(loc ast.Location, format string, args ...any) *Report {
	return r.Add(Diagnostic{Severity: SeverityInternal, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any Error/Fatal/Internal diagnostic has been
// recorded; passes use this to decide whether to abort before the next
// pass begins.
func (r *Report) HasErrors() bool { return r.errorCount > 0 || r.fatal }

// HasFatalError reports whether the fatal flag has tripped.
func (r *Report) HasFatalError() bool { return r.fatal }

// Diagnostics returns the accumulated diagnostics in report order.
func (r *Report) Diagnostics() []Diagnostic { return r.diagnostics }

// ErrorCount returns the number of non-fatal Error diagnostics recorded.
func (r *Report) ErrorCount() int { return r.errorCount }

// Render writes every diagnostic to w as "<path>:<line>: <severity>:
// <message>" lines, continuations indented beneath their primary,
// applying the configured Colorizer to single-quoted substrings.
func (r *Report) Render(w io.Writer) {
	for _, d := range r.diagnostics {
		renderOne(w, d, "", r.colorizer)
	}
}

func renderOne(w io.Writer, d Diagnostic, indent string, c Colorizer) {
	fmt.Fprintf(w, "%s%s: %s: %s\n", indent, d.Loc, d.Severity, colorizeQuoted(c, d.Message))
	for _, n := range d.Notes {
		renderOne(w, n, indent+"  ", c)
	}
}
