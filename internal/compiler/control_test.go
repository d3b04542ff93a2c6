package compiler

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/platform/mos6502"
)

func romBank(name string, origin int64) *ast.BankDecl {
	return &ast.BankDecl{
		Name: name, Kind: ast.BankKindProgramRom,
		Origin:   ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(origin), 10),
		Capacity: ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x100), 10),
	}
}

func TestCompile_GotoLowersToAbsoluteJump(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		romBank("prg", 0x8000),
		&ast.InBank{BankName: "prg", Body: &ast.Block{Stmts: []ast.Statement{
			&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
				&ast.Goto{Label: "loop"},
				&ast.LabelStmt{Name: "loop"},
				&ast.Return{},
			}}},
		}}},
	}

	c.Compile(program)
	if c.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Report.Diagnostics())
	}

	prg := c.Banks.Lookup("prg")
	data := prg.Data()[:4]
	// goto loop -> JMP $8003 (the byte right after the 3-byte jump, where
	// the label and the return sit), then RTS.
	want := []byte{0x4C, 0x03, 0x80, 0x60}
	if string(data) != string(want) {
		t.Fatalf("got % X, want % X", data, want)
	}
}

func TestCompile_InfiniteWhileLowersToBackwardsJumpWithBreak(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		romBank("prg", 0x8000),
		&ast.InBank{BankName: "prg", Body: &ast.Block{Stmts: []ast.Statement{
			&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
				&ast.While{Cond: ast.NewBooleanLit(ast.Builtin, true), Body: &ast.Block{Stmts: []ast.Statement{
					&ast.Break{},
				}}},
				&ast.Return{},
			}}},
		}}},
	}

	c.Compile(program)
	if c.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Report.Diagnostics())
	}

	prg := c.Banks.Lookup("prg")
	// break -> JMP to the loop's end label, which sits right after the
	// trailing backwards JMP; loop body has no other instructions.
	data := prg.Data()[:7]
	want := []byte{0x4C, 0x06, 0x80, 0x4C, 0x00, 0x80, 0x60}
	if string(data) != string(want) {
		t.Fatalf("got % X, want % X", data, want)
	}
}

func TestCompile_FalseWhileEmitsNothing(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		romBank("prg", 0x8000),
		&ast.InBank{BankName: "prg", Body: &ast.Block{Stmts: []ast.Statement{
			&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
				&ast.While{Cond: ast.NewBooleanLit(ast.Builtin, false), Body: &ast.Block{Stmts: []ast.Statement{
					&ast.Return{},
				}}},
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
		t.Fatalf("expected the dead loop to vanish and the trailing return to land first, got % X", prg.Data()[:1])
	}
}

func TestCompile_ConditionOnVarWithoutFixedAddressIsDiagnosed(t *testing.T) {
	c := NewCompiler(mos6502.New(), diag.NewReport(), bank.NewManager())
	program := []ast.Statement{
		&ast.VarDecl{Name: "flag", Type: u8Type(), BankName: "ram"},
		&ast.BankDecl{Name: "ram", Kind: ast.BankKindUninitializedRam,
			Capacity: ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(0x100), 10)},
		romBank("prg", 0x8000),
		&ast.InBank{BankName: "prg", Body: &ast.Block{Stmts: []ast.Statement{
			&ast.FuncDecl{Name: "main", Body: &ast.Block{Stmts: []ast.Statement{
				&ast.If{
					Cond: &ast.Identifier{Path: []string{"flag"}},
					Then: &ast.Block{Stmts: []ast.Statement{&ast.Return{}}},
				},
			}}},
		}}},
	}

	c.Compile(program)
	// The ram bank never fixed an origin, so flag has no absolute
	// address for the condition's load to name.
	if !c.Report.HasErrors() {
		t.Fatal("expected a diagnostic: the tested variable has no fixed address")
	}
}
