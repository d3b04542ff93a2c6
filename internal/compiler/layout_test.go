package compiler

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/platform/mos6502"
)

func TestCompile_ConstantIfKeepsOnlyLiveBranch(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		romBank("prg", 0x8000),
		&ast.InBank{BankName: "prg", Body: &ast.Block{Stmts: []ast.Statement{
			&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
				&ast.If{
					Cond: ast.NewBooleanLit(ast.Builtin, true),
					Then: &ast.Block{Stmts: []ast.Statement{&ast.Return{}}},
					Else: &ast.Block{Stmts: []ast.Statement{&ast.Goto{Label: "never"}}},
				},
			}}},
		}}},
	}

	c.Compile(program)
	if c.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Report.Diagnostics())
	}
	prg := c.Banks.Lookup("prg")
	if prg.Data()[0] != 0x60 {
		t.Fatalf("expected only the then-branch's RTS to survive, got % X", prg.Data()[:1])
	}
}

func TestCompile_RelocateMidBlockMovesSubsequentCode(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		romBank("prg", 0x8000),
		&ast.InBank{BankName: "prg", Body: &ast.Block{Stmts: []ast.Statement{
			&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
				&ast.Return{},
				&ast.Relocate{Address: ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x8010), 10)},
				&ast.Return{},
			}}},
		}}},
	}

	c.Compile(program)
	if c.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Report.Diagnostics())
	}
	prg := c.Banks.Lookup("prg")
	if prg.Data()[0] != 0x60 {
		t.Fatalf("expected the first return at offset 0, got % X", prg.Data()[:1])
	}
	if prg.Data()[0x10] != 0x60 {
		t.Fatalf("expected the relocated return at offset 0x10, got % X", prg.Data()[0x10:0x11])
	}
}

func TestCompile_VarWithExplicitAddressSeeksWithinItsOriginBank(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		&ast.BankDecl{Name: "mmio", Kind: ast.BankKindUninitializedRam,
			Origin:   ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x2000), 10),
			Capacity: ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x100), 10)},
		&ast.VarDecl{Name: "filler", Type: u8Type(), BankName: "mmio"},
		&ast.VarDecl{Name: "ppu_ctrl", Type: u8Type(), BankName: "mmio",
			Address: ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x2010), 10)},
	}

	c.Compile(program)
	if c.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Report.Diagnostics())
	}
	def := c.RootScope().FindLocalMemberDefinition("ppu_ctrl")
	if def == nil || def.Address == nil {
		t.Fatal("expected ppu_ctrl to have a resolved address")
	}
	abs, ok := def.Address.Absolute()
	if !ok {
		t.Fatal("expected mmio bank's fixed origin to make ppu_ctrl's address absolute")
	}
	if abs != 0x2010 {
		t.Fatalf("got address 0x%X, want 0x2010", abs)
	}
}
