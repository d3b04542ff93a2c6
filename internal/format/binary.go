package format

// BinaryFormat concatenates every stored bank in declaration order with
// no header. It is the fallback format for a `.bin` output or any
// output extension the CLI's platform/format inference table does not
// recognize.
type BinaryFormat struct{}

func (BinaryFormat) Generate(ctx *OutputFormatContext) bool {
	stored := storedBanks(ctx.Banks)
	for i, b := range stored {
		if i == len(stored)-1 {
			if trim, ok := ctx.Config.Boolean(ctx.Report, "trim", false); ok && trim {
				ctx.BankOffsets[b] = int64(len(ctx.Data))
				ctx.Data = append(ctx.Data, b.Data()[:b.CalculateUsedSize()]...)
				continue
			}
		}
		ctx.appendBank(b)
	}
	return true
}
