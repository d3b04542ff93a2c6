package instr

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
)

// Options carries the per-instruction parameters an Encoding consults:
// fixed opcode bytes, which captured operands feed which encoding slot,
// and which definitions (e.g. condition-code registers) become
// undefined after this instruction executes.
type Options struct {
	BaseOpcode     []byte
	CaptureIndices []int
	AffectedDefs   []ast.DefHandle
}

// Encoding is a pair of pure functions over (options, captures): Size
// answers an instruction's on-disk length before all labels are known,
// Write produces the final bytes once the bank's current position
// (needed by distance-relative forms like branches) is fixed.
type Encoding struct {
	Size  func(opts Options, captures []Operand) int
	Write func(b *bank.Bank, opts Options, captures []Operand, loc ast.Location) ([]byte, *diag.Diagnostic)
}

// Instruction is one platform-registered form: a signature it is
// selectable under, the encoding that sizes/writes it, and the fixed
// options threaded through that encoding.
type Instruction struct {
	Signature Signature
	Encoding  Encoding
	Options   Options
}
