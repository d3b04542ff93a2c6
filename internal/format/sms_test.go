package format

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
)

func TestSmsFormat_StampsHeaderAtEightKiBOffset(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x2000, 0)
	ctx := NewOutputFormatContext(diag.NewReport(), NewConfig(nil), "out.sms", "sms", []*bank.Bank{prg})
	if !(SmsFormat{System: SmsMasterSystem}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if len(ctx.Data) != 0x2000 {
		t.Fatalf("expected an 8 KiB ROM, got %d bytes", len(ctx.Data))
	}
	if string(ctx.Data[0x1FF0:0x1FFA]) != "TMR SEGA  " {
		t.Fatalf("expected the TMR SEGA signature at 0x1FF0, got %q", ctx.Data[0x1FF0:0x1FFA])
	}
	// An all-zero ROM sums to zero outside the header.
	if ctx.Data[0x1FFA] != 0 || ctx.Data[0x1FFB] != 0 {
		t.Fatalf("expected a zero checksum, got % X", ctx.Data[0x1FFA:0x1FFC])
	}
	if ctx.Data[0x1FFF] != 0x4A {
		t.Fatalf("expected region/size byte 0x4A, got %02X", ctx.Data[0x1FFF])
	}
}

func TestSmsFormat_EncodesProductCodeVersionAndRegion(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x2000, 0)
	cfg := NewConfig([]ast.ConfigEntry{
		{Key: "product_code", Value: intExpr(12345)},
		{Key: "version", Value: intExpr(2)},
		{Key: "region", Value: &ast.StringLit{Value: "japan"}},
	})
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.sms", "sms", []*bank.Bank{prg})
	if !(SmsFormat{System: SmsMasterSystem}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if ctx.Report.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Report.Diagnostics())
	}
	h := 0x1FF0
	if ctx.Data[h+0xC] != 0x45 || ctx.Data[h+0xD] != 0x23 {
		t.Fatalf("expected BCD product code 45 23, got % X", ctx.Data[h+0xC:h+0xE])
	}
	if ctx.Data[h+0xE] != 0x12 {
		t.Fatalf("expected product-code high digit and version in one byte (0x12), got %02X", ctx.Data[h+0xE])
	}
	if ctx.Data[h+0xF] != 0x3A {
		t.Fatalf("expected japan region nibble over size setting (0x3A), got %02X", ctx.Data[h+0xF])
	}
}

func TestSmsFormat_LargerRomsMoveTheHeader(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x6000, 0)
	ctx := NewOutputFormatContext(diag.NewReport(), NewConfig(nil), "out.sms", "sms", []*bank.Bank{prg})
	if !(SmsFormat{System: SmsMasterSystem}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if len(ctx.Data) != 0x8000 {
		t.Fatalf("expected padding to 32 KiB, got %d bytes", len(ctx.Data))
	}
	if string(ctx.Data[0x7FF0:0x7FFA]) != "TMR SEGA  " {
		t.Fatalf("expected the signature at 0x7FF0 for a 32 KiB ROM")
	}
}

func TestSmsFormat_InvalidRegionIsDiagnosed(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x2000, 0)
	cfg := stringConfig("region", "atlantis")
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.sms", "sms", []*bank.Bank{prg})
	(SmsFormat{System: SmsMasterSystem}).Generate(ctx)
	if !ctx.Report.HasErrors() {
		t.Fatal("expected a diagnostic for an unknown region name")
	}
}

func TestSmsFormat_GameGearUsesItsOwnRegionNibble(t *testing.T) {
	prg := bank.New("prg", bank.KindProgramRom, 0x2000, 0)
	cfg := stringConfig("region", "international")
	ctx := NewOutputFormatContext(diag.NewReport(), cfg, "out.gg", "gg", []*bank.Bank{prg})
	if !(SmsFormat{System: SmsGameGear}).Generate(ctx) {
		t.Fatal("expected Generate to succeed")
	}
	if ctx.Data[0x1FFF]>>4 != 0x7 {
		t.Fatalf("expected Game Gear international nibble 0x7, got %X", ctx.Data[0x1FFF]>>4)
	}
}
