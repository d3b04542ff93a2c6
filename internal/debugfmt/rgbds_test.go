package debugfmt

import (
	"bytes"
	"testing"

	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/format"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestRgbdsFormat_DeduplicatesByAddress(t *testing.T) {
	rom := bank.New("rom", bank.KindProgramRom, 0x100, 0)
	rom.SetOrigin(0x100)
	output := format.NewOutputFormatContext(diag.NewReport(), format.NewConfig(nil), "game.gb", "gb", []*bank.Bank{rom})
	output.BankOffsets[rom] = 0

	first := &symtab.Definition{Name: "entry", Kind: symtab.KindFunc, Address: &bank.Address{Relative: 0x10, Bank: rom}}
	alias := &symtab.Definition{Name: "entry_alias", Kind: symtab.KindFunc, Address: &bank.Address{Relative: 0x10, Bank: rom}}
	ctx := NewContext(output, []*symtab.Definition{first, alias}, 0, 0)

	var buf bytes.Buffer
	if err := (RgbdsFormat{}).Generate(ctx, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "00:0010 entry\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
