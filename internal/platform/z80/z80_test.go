package z80

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestRegisterDefinitions_InstallsEightBitRegisterFile(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)

	for _, name := range []string{"a", "b", "c", "d", "e", "h", "l", "zero", "carry"} {
		if scope.FindLocalMemberDefinition(name) == nil {
			t.Fatalf("expected builtin register/flag %q to be registered", name)
		}
	}
}

func TestLoadImmediate_EncodesLDAn(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: "a"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(7)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0x3E || bytes[1] != 0x07 {
		t.Fatalf("expected LD A,7 (0x3E 0x07), got %x", bytes)
	}
}

func TestStoreAbsolute_EncodesLDIndirectNN(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "store_a"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0xBEEF)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0x32 || bytes[1] != 0xEF || bytes[2] != 0xBE {
		t.Fatalf("expected LD ($BEEF),A (0x32 0xEF 0xBE), got %x", bytes)
	}
}

func TestCompare_EncodesCPImmediate(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)
	a := instr.Register{Def: scope.FindLocalMemberDefinition("a")}

	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "compare"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{a, instr.Integer{Value: numeric.FromInt64(9)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0xFE || bytes[1] != 0x09 {
		t.Fatalf("expected CP 9 (0xFE 0x09), got %x", bytes)
	}
}

func TestInterruptReturn_EncodesRETI(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "return_interrupt"}
	found, captures, d := p.Instructions().Select(typ, 0, nil, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0xED || bytes[1] != 0x4D {
		t.Fatalf("expected RETI (0xED 0x4D), got %x", bytes)
	}
}

func TestJump_EncodesJPnn(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: "always"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x0100)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0xC3 {
		t.Fatalf("expected JP nn to start with 0xC3, got %x", bytes)
	}
}
