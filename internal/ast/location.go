// Package ast defines the polymorphic source-level AST that the
// compiler core consumes: Expression and TypeExpression tagged
// variants, Statement variants, Location, and Qualifiers.
//
// The parser and lexer that produce this tree are external collaborators;
// this package only fixes the shape they must hand the compiler.
package ast

import "fmt"

// Location is a source position: a display path (as the user wrote it,
// possibly relative), a canonical path (resolved, used for de-duplicating
// imports and for diagnostics that must disambiguate identical display
// paths), and a 1-based line number.
type Location struct {
	DisplayPath   string
	CanonicalPath string
	Line          int
}

// Builtin is the zero Location used for compiler-synthesized nodes that
// have no source site (e.g. builtin register definitions).
var Builtin = Location{DisplayPath: "<builtin>", CanonicalPath: "<builtin>", Line: 0}

func (l Location) String() string {
	if l.Line <= 0 {
		return l.DisplayPath
	}
	return fmt.Sprintf("%s:%d", l.DisplayPath, l.Line)
}

// IsSynthetic reports whether the location was generated by the compiler
// rather than copied from a user source token.
func (l Location) IsSynthetic() bool {
	return l.DisplayPath == "<builtin>" || l.DisplayPath == "<...>"
}
