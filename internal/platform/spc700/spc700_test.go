package spc700

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestRegisterDefinitions_InstallsRegisterFile(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)

	for _, name := range []string{"a", "x", "y", "sp", "carry", "zero"} {
		if scope.FindLocalMemberDefinition(name) == nil {
			t.Fatalf("expected builtin register/flag %q to be registered", name)
		}
	}
}

func TestLoadImmediate_EncodesMOVAimm(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: "a"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x10)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0xE8 || bytes[1] != 0x10 {
		t.Fatalf("expected MOV A,#$10 (0xE8 0x10), got %x", bytes)
	}
}

func TestReturn_EncodesRET(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "return"}
	found, captures, d := p.Instructions().Select(typ, 0, nil, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 1 || bytes[0] != 0x6F {
		t.Fatalf("expected RET (0x6F), got %x", bytes)
	}
}

func TestCompare_EncodesCMPAImmediate(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)
	a := instr.Register{Def: scope.FindLocalMemberDefinition("a")}

	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "compare"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{a, instr.Integer{Value: numeric.FromInt64(0x20)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0x68 || bytes[1] != 0x20 {
		t.Fatalf("expected CMP A,#$20 (0x68 0x20), got %x", bytes)
	}
}

func TestConditionalBranch_EncodesBNERelative(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.FlagBranch("zero", false)}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(6)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0xD0 || bytes[1] != 0x04 {
		t.Fatalf("expected BNE +4 (0xD0 0x04), got %x", bytes)
	}
}

func TestCall_EncodesCALLAbsolute(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchCall}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x0456)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0x3F || bytes[1] != 0x56 || bytes[2] != 0x04 {
		t.Fatalf("expected CALL !$0456 (0x3F 0x56 0x04), got %x", bytes)
	}
}

func TestJump_EncodesJMPAbsolute(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: "always"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x0200)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0x5F || bytes[1] != 0x00 || bytes[2] != 0x02 {
		t.Fatalf("expected JMP !$0200 (0x5F 0x00 0x02), got %x", bytes)
	}
}
