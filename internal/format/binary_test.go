package format

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
)

func TestBinaryFormat_ConcatenatesStoredBanksInOrder(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 4, 0)
	copy(prg.Data(), []byte{1, 2, 3, 4})
	chr := bank.New("chr", bank.KindCharacterRom, 2, 0)
	copy(chr.Data(), []byte{5, 6})
	ram := bank.New("ram", bank.KindUninitializedRam, 8, 0)

	ctx := NewOutputFormatContext(diag.NewReport(), NewConfig(nil), "out.bin", "bin", []*bank.Bank{prg, chr, ram})
	if !(BinaryFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}

	want := []byte{1, 2, 3, 4, 5, 6}
	if string(ctx.Data) != string(want) {
		t.Fatalf("got % X, want % X", ctx.Data, want)
	}
	if off := ctx.BankOffsets[chr]; off != 4 {
		t.Fatalf("expected chr bank offset 4, got %d", off)
	}
}

func TestBinaryFormat_TrimsLastStoredBank(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 4, 0xFF)
	copy(prg.Data(), []byte{1, 2})
	if d := prg.ReserveRom("x", nil, ast.Builtin, 2); d != nil {
		t.Fatalf("unexpected reservation error: %v", d)
	}

	cfg := NewConfig([]ast.ConfigEntry{{Key: "trim", Value: ast.NewBooleanLit(ast.Builtin, true)}})
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.bin", "bin", []*bank.Bank{prg})
	if !(BinaryFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	want := []byte{1, 2}
	if string(ctx.Data) != string(want) {
		t.Fatalf("expected trimmed output % X, got % X", want, ctx.Data)
	}
}
