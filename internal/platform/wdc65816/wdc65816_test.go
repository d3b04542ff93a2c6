package wdc65816

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestRegisterDefinitions_InstallsSixteenBitRegisterFile(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)

	for _, name := range []string{"a", "x", "y", "dp", "db", "carry", "zero", "negative", "overflow"} {
		if scope.FindLocalMemberDefinition(name) == nil {
			t.Fatalf("expected builtin register/flag %q to be registered", name)
		}
	}
}

func TestLoadImmediate_WidthFollowsAccumulatorMode(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: "a"}

	found, captures, d := p.Instructions().Select(typ, uint32(p.DefaultModeFlags()), []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x7F)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0xA9 || bytes[1] != 0x7F {
		t.Fatalf("expected LDA #$7F (0xA9 0x7F), got %x", bytes)
	}

	found, captures, d = p.Instructions().Select(typ, uint32(ModeAccum16|ModeIndex8), []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x7F)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic in 16-bit mode: %v", d.Message)
	}
	bytes, _ = found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0xA9 || bytes[1] != 0x7F || bytes[2] != 0x00 {
		t.Fatalf("expected 16-bit LDA #$007F (0xA9 0x7F 0x00), got %x", bytes)
	}
}

func TestLoadImmediate_SixteenBitOperandRequiresWideMode(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: "a"}

	_, _, d := p.Instructions().Select(typ, uint32(p.DefaultModeFlags()), []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x1234)}}, ast.Builtin)
	if d == nil {
		t.Fatalf("expected a diagnostic: 16-bit immediate requires the wide accumulator mode")
	}

	found, captures, d := p.Instructions().Select(typ, uint32(ModeAccum16), []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x1234)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic in wide mode: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0xA9 || bytes[1] != 0x34 || bytes[2] != 0x12 {
		t.Fatalf("expected LDA #$1234 (0xA9 0x34 0x12), got %x", bytes)
	}
}

func TestModeAttribute_FlipsPairedBits(t *testing.T) {
	p := New()
	set, clear, ok := p.ModeAttribute("mem16")
	if !ok || set != ModeAccum16 || clear != ModeAccum8 {
		t.Fatalf("mem16 should set the wide accumulator bit and clear the narrow one")
	}
	if _, _, ok := p.ModeAttribute("banana"); ok {
		t.Fatalf("unknown attribute names must not resolve")
	}
}

func TestFarCall_EncodesJSL(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchCallFar}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x7E1234)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	want := []byte{0x22, 0x34, 0x12, 0x7E}
	if string(bytes) != string(want) {
		t.Fatalf("expected JSL $7E1234 (% X), got % X", want, bytes)
	}
}

func TestJump_EncodesJMPAbsolute(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x8000)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0x4C || bytes[1] != 0x00 || bytes[2] != 0x80 {
		t.Fatalf("expected JMP $8000 (0x4C 0x00 0x80), got %x", bytes)
	}
}
