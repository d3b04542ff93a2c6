package main

import (
	"fmt"

	"github.com/wiz-lang/wiz/internal/ast"
)

// Frontend turns one resolved source file's bytes into a statement
// list the compiler driver can reserve definitions from. Producing an
// AST from source text is the one piece of the toolchain this build
// does not implement: turning characters into tokens and tokens into
// a tree is orthogonal to everything the compiler/bank/format/debugfmt
// packages do, and no reference implementation of it travelled with
// the rest of this rebuild. Embedding callers (and this package's own
// tests) supply a Frontend that already has an AST on hand; running
// the built binary against real .wiz source fails with a clear
// diagnostic rather than pretending to parse.
type Frontend interface {
	Parse(displayPath, canonicalPath string, src []byte) ([]ast.Statement, error)
}

// unimplementedFrontend is the Frontend wired into the default CLI
// path. It exists so `wiz` links and runs standalone, and so the
// failure mode for "I fed it real source" is a message, not a panic.
type unimplementedFrontend struct{}

func (unimplementedFrontend) Parse(displayPath, _ string, _ []byte) ([]ast.Statement, error) {
	return nil, fmt.Errorf("%s: no source parser is wired into this build; construct the statement list programmatically and drive internal/compiler directly", displayPath)
}
