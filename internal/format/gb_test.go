package format

import (
	"testing"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
)

func TestGameBoyFormat_PadsAndStampsLogoAndChecksums(t *testing.T) {
	rom := bank.New("rom", bank.KindProgramRom, 16, 0)
	ctx := NewOutputFormatContext(diag.NewReport(), NewConfig(nil), "game.gb", "gb", []*bank.Bank{rom})

	if !(GameBoyFormat{}).Generate(ctx) {
		t.Fatalf("unexpected failure: %v", ctx.Report.Diagnostics())
	}
	if len(ctx.Data) != gbRomBankSize {
		t.Fatalf("expected a full 32 KiB bank, got %d bytes", len(ctx.Data))
	}
	if string(ctx.Data[0x104:0x104+len(gbLogoBitmap)]) != string(gbLogoBitmap) {
		t.Fatal("expected the Nintendo logo bitmap at 0x104")
	}
	if ctx.Data[0x14B] != 0x33 {
		t.Fatalf("expected the old-licensee placeholder byte 0x33 at 0x14B, got 0x%X", ctx.Data[0x14B])
	}

	var headerChecksum byte
	for i := 0x134; i < 0x14D; i++ {
		headerChecksum = headerChecksum - ctx.Data[i] - 1
	}
	if ctx.Data[0x14D] != headerChecksum {
		t.Fatalf("header checksum mismatch: stored 0x%X, recomputed 0x%X", ctx.Data[0x14D], headerChecksum)
	}
}

func TestGameBoyFormat_UnknownCartTypeIsDiagnosedWithLocation(t *testing.T) {
	rom := bank.New("rom", bank.KindProgramRom, 16, 0)
	report := diag.NewReport()
	entryLoc := ast.Location{DisplayPath: "game.wiz", Line: 3}
	cfg := NewConfig([]ast.ConfigEntry{{Key: "cart_type", Value: &ast.StringLit{Value: "not-a-real-mapper"}, Loc: entryLoc}})
	ctx := NewOutputFormatContext(report, cfg, "game.gb", "gb", []*bank.Bank{rom})

	(GameBoyFormat{}).Generate(ctx)
	if !report.HasErrors() {
		t.Fatal("expected an unknown cart_type to be diagnosed")
	}
	if got := report.Diagnostics()[0].Loc; got != entryLoc {
		t.Fatalf("expected the diagnostic at the cart_type entry %v, got %v", entryLoc, got)
	}
}
