package symtab

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
)

func loc(line int) ast.Location { return ast.Location{DisplayPath: "t.wiz", Line: line} }

func TestAddDefinition_DuplicateNameIsRejectedWithBothLocations(t *testing.T) {
	root := NewScope("", nil)
	first := &Definition{Name: "x", Kind: KindLet, Loc: loc(1)}
	second := &Definition{Name: "x", Kind: KindLet, Loc: loc(2)}

	if d := root.AddDefinition(first); d != nil {
		t.Fatalf("first insert should succeed, got %v", d.Message)
	}
	d := root.AddDefinition(second)
	if d == nil {
		t.Fatalf("expected a redefinition diagnostic")
	}
	if d.Loc != loc(2) {
		t.Fatalf("primary location should be the second definition's site")
	}
	if len(d.Notes) != 1 || d.Notes[0].Loc != loc(1) {
		t.Fatalf("expected a note citing the first definition's site")
	}
}

func TestFindUnqualifiedDefinitions_StopsAtNearestNonEmptyAncestor(t *testing.T) {
	root := NewScope("", nil)
	mid := NewScope("%1%", root)
	inner := NewScope("%2%", mid)

	rootDef := &Definition{Name: "x", Kind: KindLet, Loc: loc(1)}
	midDef := &Definition{Name: "x", Kind: KindLet, Loc: loc(2)}
	root.AddDefinition(rootDef)
	mid.AddDefinition(midDef)

	got := inner.FindUnqualifiedDefinitions("x")
	if len(got) != 1 || got[0] != midDef {
		t.Fatalf("expected the mid-scope definition to shadow the root one, got %v", got)
	}
}

func TestFindUnqualifiedDefinitions_NotFoundReturnsEmpty(t *testing.T) {
	root := NewScope("", nil)
	if got := root.FindUnqualifiedDefinitions("missing"); len(got) != 0 {
		t.Fatalf("expected no results, got %v", got)
	}
}

func TestAddImport_RejectsSelfImport(t *testing.T) {
	s := NewScope("a", nil)
	if err := s.AddImport(s); err == nil {
		t.Fatalf("expected a self-import error")
	}
}

func TestAddImport_Idempotent(t *testing.T) {
	a := NewScope("a", nil)
	b := NewScope("b", nil)
	a.AddImport(b)
	a.AddImport(b)
	if len(a.imports) != 1 {
		t.Fatalf("expected exactly one import edge, got %d", len(a.imports))
	}
}

func TestFindMemberDefinitions_LocalShadowsImported(t *testing.T) {
	a := NewScope("a", nil)
	b := NewScope("b", nil)
	a.AddImport(b)

	localDef := &Definition{Name: "x", Kind: KindLet, Loc: loc(1)}
	importedDef := &Definition{Name: "x", Kind: KindLet, Loc: loc(2)}
	a.AddDefinition(localDef)
	b.AddDefinition(importedDef)

	got := a.FindMemberDefinitions("x")
	if len(got) != 1 || got[0] != localDef {
		t.Fatalf("expected local definition to shadow imported one, got %v", got)
	}
}

func TestAddRecursiveImport_LinksMatchingNamespaces(t *testing.T) {
	outerA := NewScope("", nil)
	outerB := NewScope("", nil)

	nsAInner := NewScope("ns", outerA)
	nsBInner := NewScope("ns", outerB)
	nsA := &Definition{Name: "ns", Kind: KindNamespace, Loc: loc(1), Namespace: nsAInner}
	nsB := &Definition{Name: "ns", Kind: KindNamespace, Loc: loc(2), Namespace: nsBInner}
	outerA.AddDefinition(nsA)
	outerB.AddDefinition(nsB)

	innerBDef := &Definition{Name: "thing", Kind: KindLet, Loc: loc(3)}
	nsBInner.AddDefinition(innerBDef)

	if err := outerA.AddRecursiveImport(outerB); err != nil {
		t.Fatalf("recursive import failed: %v", err)
	}
	got := nsAInner.FindUnqualifiedDefinitions("thing")
	if len(got) != 1 || got[0] != innerBDef {
		t.Fatalf("expected recursive import to link matching namespaces, got %v", got)
	}
}

func TestAddRecursiveImport_SharedSubstructureIsSafe(t *testing.T) {
	a := NewScope("", nil)
	b := NewScope("", nil)
	if err := a.AddRecursiveImport(b); err != nil {
		t.Fatalf("first recursive import: %v", err)
	}
	if err := a.AddRecursiveImport(b); err != nil {
		t.Fatalf("second (idempotent) recursive import should not fail: %v", err)
	}
}

func TestNameGenerator_ProducesUniqueSequence(t *testing.T) {
	var g NameGenerator
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := g.Next()
		if seen[name] {
			t.Fatalf("duplicate generated name %q", name)
		}
		seen[name] = true
	}
}
