package instr

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/numeric"
)

type fakeDef struct{ name string }

func (f fakeDef) DefName() string         { return f.name }
func (f fakeDef) DefLocation() ast.Location { return ast.Builtin }

func i128(n int64) numeric.Int128 { return numeric.FromInt64(n) }

func TestIntegerRangePattern_MatchesInclusiveBounds(t *testing.T) {
	p := IntegerRangePattern{Min: i128(0), Max: i128(255)}
	if !p.Matches(Integer{Value: i128(0)}) || !p.Matches(Integer{Value: i128(255)}) {
		t.Fatalf("expected both bounds to match")
	}
	if p.Matches(Integer{Value: i128(256)}) {
		t.Fatalf("256 should not match [0..255]")
	}
}

func TestIntegerRangePattern_IsSubsetOf(t *testing.T) {
	narrow := IntegerRangePattern{Min: i128(0), Max: i128(127)}
	wide := IntegerRangePattern{Min: i128(0), Max: i128(255)}
	if !narrow.IsSubsetOf(wide) {
		t.Fatalf("[0..127] should be a subset of [0..255]")
	}
	if wide.IsSubsetOf(narrow) {
		t.Fatalf("[0..255] should not be a subset of [0..127]")
	}
}

func TestRegisterPattern_MatchesByName(t *testing.T) {
	a := fakeDef{name: "a"}
	x := fakeDef{name: "x"}
	p := RegisterPattern{Def: a}
	if !p.Matches(Register{Def: a}) {
		t.Fatalf("expected register 'a' to match")
	}
	if p.Matches(Register{Def: x}) {
		t.Fatalf("register 'x' should not match pattern for 'a'")
	}
}

func TestCapture_AppendsMatchedOperandInOrder(t *testing.T) {
	sig := Signature{
		Type:     InstructionType{Kind: TypeBinaryOp, BinaryOp: ast.BinAdd},
		Patterns: []Pattern{Capture(IntegerRangePattern{Min: i128(0), Max: i128(255)}), Capture(IntegerRangePattern{Min: i128(0), Max: i128(255)})},
	}
	captures, ok := sig.Matches(0, []Operand{Integer{Value: i128(3)}, Integer{Value: i128(4)}})
	if !ok {
		t.Fatalf("expected signature to match")
	}
	if len(captures) != 2 || captures[0].(Integer).Value.Int64() != 3 || captures[1].(Integer).Value.Int64() != 4 {
		t.Fatalf("unexpected captures: %v", captures)
	}
}

func TestSignature_IsSubsetOfRequiresNarrowerPatternsAndSupersetModeFlags(t *testing.T) {
	typ := InstructionType{Kind: TypeUnaryOp, UnaryOp: ast.UnaryNeg}
	narrow := Signature{Type: typ, RequiredModeFlags: 0x3, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(15)}}}
	wide := Signature{Type: typ, RequiredModeFlags: 0x1, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(255)}}}
	if !narrow.IsSubsetOf(wide) {
		t.Fatalf("expected narrow signature to be a subset of wide")
	}
	if wide.IsSubsetOf(narrow) {
		t.Fatalf("wide signature should not be a subset of narrow")
	}
}

func TestTable_SelectPrefersMostSpecificMatch(t *testing.T) {
	typ := InstructionType{Kind: TypeUnaryOp, UnaryOp: ast.UnaryNeg}
	table := NewTable()
	wide := &Instruction{Signature: Signature{Type: typ, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(255)}}}}
	narrow := &Instruction{Signature: Signature{Type: typ, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(15)}}}}
	table.Register(wide)
	table.Register(narrow)

	got, _, d := table.Select(typ, 0, []Operand{Integer{Value: i128(5)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	if got != narrow {
		t.Fatalf("expected the narrower instruction to be selected")
	}
}

func TestTable_SelectFallsBackWhenNarrowerDoesNotMatch(t *testing.T) {
	typ := InstructionType{Kind: TypeUnaryOp, UnaryOp: ast.UnaryNeg}
	table := NewTable()
	wide := &Instruction{Signature: Signature{Type: typ, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(255)}}}}
	narrow := &Instruction{Signature: Signature{Type: typ, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(15)}}}}
	table.Register(wide)
	table.Register(narrow)

	got, _, d := table.Select(typ, 0, []Operand{Integer{Value: i128(200)}}, ast.Builtin)
	if d != nil {
		t.Fatalf("unexpected diagnostic: %v", d.Message)
	}
	if got != wide {
		t.Fatalf("expected the wide instruction to be selected when only it matches")
	}
}

func TestTable_SelectReportsCandidatesWhenNoneMatch(t *testing.T) {
	typ := InstructionType{Kind: TypeUnaryOp, UnaryOp: ast.UnaryNeg}
	table := NewTable()
	table.Register(&Instruction{Signature: Signature{Type: typ, Patterns: []Pattern{IntegerRangePattern{Min: i128(0), Max: i128(15)}}}})

	_, _, d := table.Select(typ, 0, []Operand{Integer{Value: i128(200)}}, ast.Builtin)
	if d == nil {
		t.Fatalf("expected a no-matching-form diagnostic")
	}
	if len(d.Notes) == 0 {
		t.Fatalf("expected a candidate-forms note")
	}
}

func TestOperand_CompareOrdersByKindThenValue(t *testing.T) {
	a := Integer{Value: i128(1)}
	b := Integer{Value: i128(2)}
	r := Register{Def: fakeDef{name: "a"}}
	if a.Compare(b) >= 0 {
		t.Fatalf("expected 1 < 2")
	}
	if r.Compare(a) == 0 {
		t.Fatalf("different kinds should never compare equal")
	}
}
