package format

import (
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
)

// OutputFormatContext is the state a single Formatter.Generate call
// accumulates into: the concatenated output buffer, and a record of
// where each stored bank ended up in it so that a later debug
// formatter can translate a bank-relative address into a file offset.
type OutputFormatContext struct {
	Report     *diag.Report
	Config     *Config
	OutputName string
	Banks      []*bank.Bank

	Data        []byte
	BankOffsets map[*bank.Bank]int64

	// FormatName is the short registry key ("nes", "gb", "sfc", ...)
	// the debug formatters consult to tell SNES-style bank numbering
	// apart from everyone else's.
	FormatName string
}

// NewOutputFormatContext starts an empty context over banks.
func NewOutputFormatContext(report *diag.Report, cfg *Config, outputName, formatName string, banks []*bank.Bank) *OutputFormatContext {
	return &OutputFormatContext{
		Report: report, Config: cfg, OutputName: outputName, FormatName: formatName,
		Banks: banks, BankOffsets: make(map[*bank.Bank]int64),
	}
}

// appendBank records the bank's starting offset and appends its bytes.
func (ctx *OutputFormatContext) appendBank(b *bank.Bank) {
	ctx.BankOffsets[b] = int64(len(ctx.Data))
	ctx.Data = append(ctx.Data, b.Data()...)
}

// GetOutputOffset maps a bank-relative address to its position in the
// finished output buffer, the mechanism every debug formatter uses to
// express an address output-relative rather than absolute.
func (ctx *OutputFormatContext) GetOutputOffset(addr bank.Address) (int64, bool) {
	if addr.Bank == nil {
		return 0, false
	}
	base, ok := ctx.BankOffsets[addr.Bank]
	if !ok {
		return 0, false
	}
	return base + addr.Relative, true
}

// Formatter is one target container format.
type Formatter interface {
	// Generate appends ctx's banks (and any header/footer bytes) to
	// ctx.Data, returning false if a fatal error (already reported to
	// ctx.Report) means the output should not be written to disk.
	Generate(ctx *OutputFormatContext) bool
}
