package diag

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
)

func loc(line int) ast.Location {
	return ast.Location{DisplayPath: "x.wiz", Line: line}
}

func TestReport_ThresholdEscalatesToFatal(t *testing.T) {
	r := NewReport()
	r.threshold = 3
	for i := 0; i < 2; i++ {
		r.Errorf(loc(i), "boom %d", i)
	}
	if r.HasFatalError() {
		t.Fatalf("should not be fatal before threshold")
	}
	r.Errorf(loc(99), "boom 3")
	if !r.HasFatalError() {
		t.Fatalf("should be fatal at threshold")
	}
}

func TestReport_NotesInheritPrimaryFatality(t *testing.T) {
	d := Diagnostic{Severity: SeverityFatal, Loc: loc(1), Message: "bad"}
	d = d.Note(loc(2), "see here")
	if d.Notes[0].Severity != SeverityFatal {
		t.Fatalf("note under fatal primary should render fatal, got %v", d.Notes[0].Severity)
	}

	e := Diagnostic{Severity: SeverityError, Loc: loc(1), Message: "bad"}
	e = e.Note(loc(2), "see here")
	if e.Notes[0].Severity != SeverityNote {
		t.Fatalf("note under non-fatal primary should render as note, got %v", e.Notes[0].Severity)
	}
}

func TestRender_BoldsQuotedSubstrings(t *testing.T) {
	r := NewReport()
	r.SetColorizer(ANSIColor{})
	r.Errorf(loc(1), "undefined identifier '%s'", "foo")
	var buf bytes.Buffer
	r.Render(&buf)
	if !strings.Contains(buf.String(), "\x1b[1m'foo'\x1b[0m") {
		t.Fatalf("expected bolded quoted substring, got %q", buf.String())
	}
}

func TestWrapInternal_PreservesCauseChain(t *testing.T) {
	cause := errors.New("disk full")
	d := WrapInternal(loc(1), cause, "could not write bank")
	if !errors.Is(d.Cause, cause) {
		t.Fatalf("expected wrapped cause to be the original error")
	}
}
