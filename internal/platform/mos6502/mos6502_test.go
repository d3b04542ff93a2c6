package mos6502

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestRegisterDefinitions_InstallsCoreRegistersAndFlags(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)

	for _, name := range []string{"a", "x", "y", "sp", "carry", "zero", "negative", "overflow"} {
		if scope.FindLocalMemberDefinition(name) == nil {
			t.Fatalf("expected builtin register/flag %q to be registered", name)
		}
	}
}

func TestLoadImmediate_EncodesLDA(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: "a"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x42)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, d := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected write diagnostic: %v", d.Message)
	}
	if len(bytes) != 2 || bytes[0] != 0xA9 || bytes[1] != 0x42 {
		t.Fatalf("expected LDA #$42 (0xA9 0x42), got %x", bytes)
	}
}

func TestReturn_EncodesRTS(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "return"}
	found, captures, d := p.Instructions().Select(typ, 0, nil, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 1 || bytes[0] != 0x60 {
		t.Fatalf("expected RTS (0x60), got %x", bytes)
	}
}

func TestUnconditionalBranch_EncodesJMPAbsolute(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: "always"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x1234)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0x4C || bytes[1] != 0x34 || bytes[2] != 0x12 {
		t.Fatalf("expected JMP $1234 (0x4C 0x34 0x12), got %x", bytes)
	}
}

func TestGetTestAndBranch_LessThanBranchesOnCarryClear(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)
	a := instr.Register{Def: scope.FindLocalMemberDefinition("a")}

	tb, ok := p.GetTestAndBranch(ast.BinLt, a, instr.Integer{Value: numeric.FromInt64(10)}, ast.DistanceDefault)
	if !ok {
		t.Fatal("expected a lowering for a < imm")
	}
	if tb.TestType.IntrinsicName != "compare" || len(tb.TestOperands) != 2 {
		t.Fatalf("expected a compare test, got %v", tb.TestType)
	}
	if len(tb.Branches) != 1 || tb.Branches[0].Flag != "carry" || tb.Branches[0].Value || !tb.Branches[0].Success {
		t.Fatalf("expected branch-on-carry-clear, got %+v", tb.Branches)
	}
}

func TestGetTestAndBranch_StrictGreaterBumpsTheConstant(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)
	a := instr.Register{Def: scope.FindLocalMemberDefinition("a")}

	tb, ok := p.GetTestAndBranch(ast.BinGt, a, instr.Integer{Value: numeric.FromInt64(10)}, ast.DistanceDefault)
	if !ok {
		t.Fatal("expected a lowering for a > imm")
	}
	if got := tb.TestOperands[1].(instr.Integer).Value.Int64(); got != 11 {
		t.Fatalf("expected the compare operand bumped to 11, got %d", got)
	}
	if _, ok := p.GetTestAndBranch(ast.BinGt, a, instr.Integer{Value: numeric.FromInt64(0xFF)}, ast.DistanceDefault); ok {
		t.Fatal("a > 255 has no 8-bit lowering and must decline")
	}
}

func TestConditionalBranch_ShortFormEncodesRelativeDisplacement(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.FlagBranch("zero", false)}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(10)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	// Displacement is measured from the branch's own first byte; the
	// encoded offset is from the next instruction.
	if len(bytes) != 2 || bytes[0] != 0xD0 || bytes[1] != 0x08 {
		t.Fatalf("expected BNE +8 (0xD0 0x08), got %x", bytes)
	}
}

func TestConditionalBranch_LongFormHopsOverAbsoluteJump(t *testing.T) {
	p := New()
	b := bank.New("prg", bank.KindProgramRom, 0x1000, 0)
	b.SetOrigin(0x8000)
	b.SeekRelative(0x20)

	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.FlagBranch("zero", false)}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x300)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	if size := found.Encoding.Size(found.Options, captures); size != 5 {
		t.Fatalf("expected the 5-byte long form, got %d", size)
	}
	bytes, _ := found.Encoding.Write(b, found.Options, captures, ast.Builtin)
	// Inverse branch (BEQ) over JMP $8320 (0x8020 + 0x300).
	want := []byte{0xF0, 0x03, 0x4C, 0x20, 0x83}
	if string(bytes) != string(want) {
		t.Fatalf("got % X, want % X", bytes, want)
	}
}

func TestSelect_ReportsDiagnosticForOutOfRangeOperand(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: "a"}
	_, _, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(9999)}}, ast.Builtin)
	if d == nil {
		t.Fatalf("expected a diagnostic for an operand outside the immediate range")
	}
}
