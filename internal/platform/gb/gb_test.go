package gb

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestRegisterDefinitions_InstallsRegisterFile(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)

	for _, name := range []string{"a", "b", "c", "d", "e", "h", "l", "zero", "carry"} {
		if scope.FindLocalMemberDefinition(name) == nil {
			t.Fatalf("expected builtin register/flag %q to be registered", name)
		}
	}
}

func TestStoreAbsolute_EncodesLDIndirectNNUsingEA(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "store_a"}
	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x9800)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 3 || bytes[0] != 0xEA || bytes[1] != 0x00 || bytes[2] != 0x98 {
		t.Fatalf("expected LD ($9800),A (0xEA 0x00 0x98), got %x", bytes)
	}
}

func TestGetTestAndBranch_CarryIsABorrow(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)
	a := instr.Register{Def: scope.FindLocalMemberDefinition("a")}

	tb, ok := p.GetTestAndBranch(ast.BinLt, a, instr.Integer{Value: numeric.FromInt64(10)}, ast.DistanceDefault)
	if !ok {
		t.Fatal("expected a lowering for a < imm")
	}
	// CP sets carry when a < n on this family, the opposite of the
	// 6502's convention.
	if len(tb.Branches) != 1 || tb.Branches[0].Flag != "carry" || !tb.Branches[0].Value || !tb.Branches[0].Success {
		t.Fatalf("expected branch-on-carry-set, got %+v", tb.Branches)
	}
}

func TestGetTestAndBranch_DeclinesNonAccumulatorOperands(t *testing.T) {
	p := New()
	scope := symtab.NewScope("builtin", nil)
	p.RegisterDefinitions(scope)
	b := instr.Register{Def: scope.FindLocalMemberDefinition("b")}

	if _, ok := p.GetTestAndBranch(ast.BinEq, b, instr.Integer{Value: numeric.FromInt64(1)}, ast.DistanceDefault); ok {
		t.Fatal("CP only compares against the accumulator; b must decline")
	}
}

func TestConditionalBranch_PairsJRWithJP(t *testing.T) {
	p := New()
	typ := instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.FlagBranch("zero", true)}

	found, captures, d := p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(4)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ := found.Encoding.Write(nil, found.Options, captures, ast.Builtin)
	if len(bytes) != 2 || bytes[0] != 0x28 || bytes[1] != 0x02 {
		t.Fatalf("expected JR Z,+2 (0x28 0x02), got %x", bytes)
	}

	b := bank.New("home", bank.KindProgramRom, 0x1000, 0)
	b.SetOrigin(0x0150)
	found, captures, d = p.Instructions().Select(typ, 0, []instr.Operand{instr.Integer{Value: numeric.FromInt64(0x400)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	bytes, _ = found.Encoding.Write(b, found.Options, captures, ast.Builtin)
	// JP Z,a16 back-computed from the displacement: 0x0150 + 0x400.
	want := []byte{0xCA, 0x50, 0x05}
	if string(bytes) != string(want) {
		t.Fatalf("got % X, want % X", bytes, want)
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
	if len(bytes) != 1 || bytes[0] != 0xC9 {
		t.Fatalf("expected RET (0xC9), got %x", bytes)
	}
}
