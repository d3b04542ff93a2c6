package symtab

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/wiz-lang/wiz/internal/diag"
)

// Scope is a hierarchical namespace: a local name→Definition map plus an
// ordered list of imported sibling scopes. Scope names
// starting with '%' denote anonymous blocks.
type Scope struct {
	Name   string
	Parent *Scope // nil for root scopes

	locals map[string]*Definition
	order  []string

	imports          []*Scope
	recursiveImports map[*Scope]bool
}

// NewScope constructs a scope with the given name and parent (nil for a
// root scope).
func NewScope(name string, parent *Scope) *Scope {
	return &Scope{
		Name:             name,
		Parent:           parent,
		locals:           make(map[string]*Definition),
		recursiveImports: make(map[*Scope]bool),
	}
}

// AddDefinition inserts def, setting def.ParentScope. On a name clash it
// returns a redefinition diagnostic carrying both source locations
// and does not insert.
func (s *Scope) AddDefinition(def *Definition) *diag.Diagnostic {
	if existing, dup := s.locals[def.Name]; dup {
		d := diag.Diagnostic{Severity: diag.SeverityError, Loc: def.Loc,
			Message: fmt.Sprintf("redefinition of '%s'", def.Name)}
		d = d.Note(existing.Loc, "first defined here")
		return &d
	}
	def.ParentScope = s
	s.locals[def.Name] = def
	s.order = append(s.order, def.Name)
	return nil
}

// DefinitionsInOrder returns every local definition in insertion order,
// the order pass 2 (resolveDefinitionTypes) must iterate in.
func (s *Scope) DefinitionsInOrder() []*Definition {
	out := make([]*Definition, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.locals[name])
	}
	return out
}

// FindLocalMemberDefinition returns the local definition named name, if any.
func (s *Scope) FindLocalMemberDefinition(name string) *Definition {
	return s.locals[name]
}

// FindImportedMemberDefinitions returns the de-duplicated set of
// definitions named name visible through this scope's imports.
func (s *Scope) FindImportedMemberDefinitions(name string) []*Definition {
	var out []*Definition
	seen := make(map[*Definition]bool)
	for _, imp := range s.imports {
		for _, d := range imp.FindMemberDefinitions(name) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// FindMemberDefinitions returns local results first, then imported
// results; a local definition shadows an imported one of the same
// identity (it cannot, since imports only return foreign Definition
// pointers, but a local match alone is returned without consulting
// imports at all.
func (s *Scope) FindMemberDefinitions(name string) []*Definition {
	if local := s.FindLocalMemberDefinition(name); local != nil {
		return []*Definition{local}
	}
	return s.FindImportedMemberDefinitions(name)
}

// FindUnqualifiedDefinitions walks from s upward through ancestors,
// returning the first non-empty FindMemberDefinitions result (Property
// P8); it stops at the root without following further.
func (s *Scope) FindUnqualifiedDefinitions(name string) []*Definition {
	for scope := s; scope != nil; scope = scope.Parent {
		if defs := scope.FindMemberDefinitions(name); len(defs) > 0 {
			return defs
		}
	}
	return nil
}

// AddImport adds other as an imported sibling scope. Idempotent; rejects
// a self-import.
func (s *Scope) AddImport(other *Scope) error {
	if other == s {
		return fmt.Errorf("scope '%s' cannot import itself", s.Name)
	}
	for _, imp := range s.imports {
		if imp == other {
			return nil
		}
	}
	s.imports = append(s.imports, other)
	return nil
}

// AddRecursiveImport adds other, and for each local namespace member of
// s whose name matches a local namespace member of other, recursively
// imports that pair of inner scopes. Safe under shared
// substructure because AddImport/AddRecursiveImport are idempotent.
func (s *Scope) AddRecursiveImport(other *Scope) error {
	if err := s.AddImport(other); err != nil {
		return err
	}
	if s.recursiveImports[other] {
		return nil
	}
	s.recursiveImports[other] = true
	for _, name := range s.order {
		def := s.locals[name]
		if def.Kind != KindNamespace {
			continue
		}
		otherDef := other.FindLocalMemberDefinition(name)
		if otherDef == nil || otherDef.Kind != KindNamespace {
			continue
		}
		if err := def.Namespace.AddRecursiveImport(otherDef.Namespace); err != nil {
			return err
		}
	}
	return nil
}

// Root walks Parent links to the outermost scope.
func (s *Scope) Root() *Scope {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

// AllLocalDefinitions returns every local definition in no particular
// order.
func (s *Scope) AllLocalDefinitions() []*Definition {
	return lo.Values(s.locals)
}
