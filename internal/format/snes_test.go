package format

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
)

func TestSnesFormat_LoRomHeaderAndSizeRounding(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x100, 0)
	cfg := NewConfig([]ast.ConfigEntry{
		{Key: "map_mode", Value: &ast.StringLit{Value: "lorom"}},
		{Key: "title", Value: &ast.StringLit{Value: "HELLO"}},
	})
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.sfc", "sfc", []*bank.Bank{prg})
	if !(SnesFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if ctx.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Report.Diagnostics())
	}
	if len(ctx.Data) != 128*1024 {
		t.Fatalf("expected the minimum 128 KiB ROM, got %d bytes", len(ctx.Data))
	}
	h := 0x7F00
	if ctx.Data[h+0xD6] != 0x20 {
		t.Fatalf("expected lorom map mode 0x20, got %02X", ctx.Data[h+0xD6])
	}
	if ctx.Data[h+0xDA] != 0x33 {
		t.Fatalf("expected the fixed 0x33 maker marker, got %02X", ctx.Data[h+0xDA])
	}
	if ctx.Data[h+0xD7] != 7 {
		t.Fatalf("expected ROM size setting log2(128K/1K)=7, got %d", ctx.Data[h+0xD7])
	}
	if string(ctx.Data[h+0xC0:h+0xC5]) != "HELLO" || ctx.Data[h+0xC5] != ' ' {
		t.Fatalf("expected a space-padded title, got %q", ctx.Data[h+0xC0:h+0xD5])
	}
}

func TestSnesFormat_ChecksumAndComplementSumToAllOnes(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x4000, 0x55)
	copy(prg.Data(), []byte{1, 2, 3})
	ctx := NewOutputFormatContext(diag.NewReport(), NewConfig(nil), "out.sfc", "sfc", []*bank.Bank{prg})
	if !(SnesFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	h := 0x7F00
	checksum := uint16(ctx.Data[h+0xDE]) | uint16(ctx.Data[h+0xDF])<<8
	complement := uint16(ctx.Data[h+0xDC]) | uint16(ctx.Data[h+0xDD])<<8
	if checksum+complement != 0xFFFF {
		t.Fatalf("checksum %04X and complement %04X must sum to FFFF", checksum, complement)
	}

	var want uint16
	for i, b := range ctx.Data {
		switch i {
		case h + 0xDC, h + 0xDD:
			want += 0xFF // complement slots held FF FF while summing
		case h + 0xDE, h + 0xDF:
			// checksum slots held 00 00
		default:
			want += uint16(b)
		}
	}
	if checksum != want {
		t.Fatalf("got checksum %04X, want %04X", checksum, want)
	}
}

func TestSnesFormat_HiRomMovesHeader(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x100, 0)
	cfg := stringConfig("map_mode", "hirom")
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.sfc", "sfc", []*bank.Bank{prg})
	if !(SnesFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if ctx.Data[0xFF00+0xD6] != 0x21 {
		t.Fatalf("expected hirom map mode 0x21 at the 0xFFD6 slot, got %02X", ctx.Data[0xFF00+0xD6])
	}
}

func TestSnesFormat_UnknownMapModeIsDiagnosed(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x100, 0)
	cfg := stringConfig("map_mode", "midrom")
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.sfc", "sfc", []*bank.Bank{prg})
	(SnesFormat{}).Generate(ctx)
	if !ctx.Report.HasErrors() {
		t.Fatal("expected a diagnostic for an unknown map mode")
	}
}

func TestSnesFormat_RamWithBatterySetsCartTypeFive(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x100, 0)
	cfg := NewConfig([]ast.ConfigEntry{
		{Key: "ram_size", Value: intExpr(8192)},
		{Key: "battery", Value: ast.NewBooleanLit(ast.Builtin, true)},
	})
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.sfc", "sfc", []*bank.Bank{prg})
	if !(SnesFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if ctx.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Report.Diagnostics())
	}
	if ctx.Data[0x7F00+0xD4] != 0x05 {
		t.Fatalf("expected cart type 0x05 (RAM with battery), got %02X", ctx.Data[0x7F00+0xD4])
	}
	if ctx.Data[0x7F00+0xD8] != 1 {
		t.Fatalf("expected ram size setting log2(8192/4096)=1, got %d", ctx.Data[0x7F00+0xD8])
	}
}

func TestSnesSmcFormat_PrependsCopierHeaderWithBlockCount(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x100, 0)
	ctx := NewOutputFormatContext(diag.NewReport(), NewConfig(nil), "out.smc", "smc", []*bank.Bank{prg})
	if !(SnesSmcFormat{}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if len(ctx.Data) != 0x200+128*1024 {
		t.Fatalf("expected a copier header ahead of the 128 KiB ROM, got %d bytes", len(ctx.Data))
	}
	blocks := int(ctx.Data[0]) | int(ctx.Data[1])<<8
	if blocks != 128*1024/8192 {
		t.Fatalf("expected %d 8 KiB blocks, got %d", 128*1024/8192, blocks)
	}
	if off := ctx.BankOffsets[prg]; off != 0x200 {
		t.Fatalf("expected the bank offset shifted past the copier header, got %d", off)
	}
}
