package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/resource"
)

// stubFrontend hands back a fixed statement list regardless of the
// bytes actually read, letting these tests exercise everything
// downstream of parsing without a real one.
type stubFrontend struct {
	program []ast.Statement
}

func (f stubFrontend) Parse(string, string, []byte) ([]ast.Statement, error) {
	return f.program, nil
}

func u8() ast.TypeExpression { return ast.NewIdentifierType(ast.Builtin, "u8") }

func samplePrgRom() []ast.Statement {
	return []ast.Statement{
		&ast.BankDecl{
			Name: "prg", Kind: ast.BankKindProgramRom,
			Origin:   ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x8000), 10),
			Capacity: ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x4000), 10),
		},
		&ast.InBank{
			BankName: "prg",
			Body: &ast.Block{Stmts: []ast.Statement{
				&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
					&ast.Return{},
				}}},
			}},
		},
	}
}

func TestRun_CompilesAndWritesNesRom(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "game.wiz")
	if err := os.WriteFile(input, []byte("// stub source, never parsed"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "game.nes")

	opts := options{
		Input:     input,
		Output:    output,
		platforms: newPlatformRegistry(),
		resources: resource.FileManager{},
		frontend:  stubFrontend{program: samplePrgRom()},
	}

	var diagBuf bytes.Buffer
	code := Run(opts, diag.NewReport(), &diagBuf)
	if code != 0 {
		t.Fatalf("unexpected exit code %d, diagnostics:\n%s", code, diagBuf.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("expected a rom to be written: %v", err)
	}
	if len(data) < 16 || string(data[:4]) != "NES\x1A" {
		t.Fatalf("expected an iNES header, got % X", data[:min(16, len(data))])
	}
}

func TestRun_UnknownSystemIsDiagnosed(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "game.wiz")
	if err := os.WriteFile(input, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := options{
		Input:      input,
		Output:     filepath.Join(dir, "game.bin"),
		SystemName: "does-not-exist",
		platforms:  newPlatformRegistry(),
		resources:  resource.FileManager{},
		frontend:   stubFrontend{program: nil},
	}

	var diagBuf bytes.Buffer
	code := Run(opts, diag.NewReport(), &diagBuf)
	if code != 1 {
		t.Fatalf("got exit code %d, want 1", code)
	}
	if diagBuf.Len() == 0 {
		t.Fatal("expected a rendered diagnostic")
	}
}
