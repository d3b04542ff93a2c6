package format

import (
	"github.com/samber/lo"

	"github.com/wiz-lang/wiz/internal/bank"
)

// storedBanks filters to the banks carrying a byte buffer, in
// declaration order.
func storedBanks(banks []*bank.Bank) []*bank.Bank {
	return lo.Filter(banks, func(b *bank.Bank, _ int) bool { return b.Kind.IsStored() })
}

// partitionByCharacterRom splits stored banks into (prg, chr): every
// non-CharacterRom stored bank (ProgramRom, DataRom, InitializedRam)
// goes to prg, and CharacterRom banks go to chr. The iNES format uses
// this split to lay PRG data ahead of CHR data.
func partitionByCharacterRom(banks []*bank.Bank) (prg, chr []*bank.Bank) {
	chr, prg = lo.FilterReject(storedBanks(banks), func(b *bank.Bank, _ int) bool { return b.Kind == bank.KindCharacterRom })
	return prg, chr
}
