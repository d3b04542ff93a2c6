package debugfmt

import (
	"bytes"
	"testing"

	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/format"
	"github.com/wiz-lang/wiz/internal/symtab"
)

func TestWlaFormat_UsesUpperByteForSnesBankIndex(t *testing.T) {
	rom := bank.New("rom", bank.KindProgramRom, 0x10000, 0)
	rom.SetOrigin(0x028000)
	output := format.NewOutputFormatContext(diag.NewReport(), format.NewConfig(nil), "game.sfc", "sfc", []*bank.Bank{rom})

	fn := &symtab.Definition{Name: "main", Kind: symtab.KindFunc, Address: &bank.Address{Relative: 0, Bank: rom}}
	ctx := NewContext(output, []*symtab.Definition{fn}, 0x8000, 0)

	var buf bytes.Buffer
	if err := (WlaFormat{}).Generate(ctx, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[labels]\n02:8000 main\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
