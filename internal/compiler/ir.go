package compiler

import (
	"strings"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/instr"
)

// IRNode is the closed set of emitted intermediate-representation
// operations the layout and emit passes replay in order: label
// bindings, relocation-scope brackets, and lowered instructions.
type IRNode interface {
	Loc() ast.Location
}

type irBase struct{ loc ast.Location }

func (b irBase) Loc() ast.Location { return b.loc }

// Label marks that the given name resolves to the bank position
// current at this point in the IR stream, once layout has run.
type Label struct {
	irBase
	Name string
}

func NewLabel(loc ast.Location, name string) *Label {
	return &Label{irBase: irBase{loc: loc}, Name: name}
}

// LabelOperand is an operand whose final integer value is only known
// once the target label's address is resolved during layout; Target
// is substituted with the label's absolute address (or, for an
// encoding still attempting its short form, a relative displacement)
// on every layout iteration.
type LabelOperand struct {
	Target string
	// Relative selects displacement-from-here rather than absolute
	// address, used while an encoding is still attempting a short
	// branch form.
	Relative bool
}

func (o LabelOperand) Kind() instr.OperandKind { return instr.KindInteger }
func (o LabelOperand) String() string          { return "label(" + o.Target + ")" }
func (o LabelOperand) Compare(other instr.Operand) int {
	if other.Kind() != instr.KindInteger {
		return int(instr.KindInteger) - int(other.Kind())
	}
	if lo, ok := other.(LabelOperand); ok {
		return strings.Compare(o.Target, lo.Target)
	}
	return 1 // an unresolved label sorts after any concrete integer
}

// Code is a single lowered instruction: its high-level type, the mode
// flags active at emission time, and its operand list. Operands naming
// a label are LabelOperand values, resolved to a concrete instr.Integer
// immediately before each layout/emit pass visits this node.
type Code struct {
	irBase
	Type         instr.InstructionType
	ModeFlags    uint32
	Operands     []instr.Operand
	DistanceHint ast.DistanceHint
	Bank         *bank.Bank

	// usingShort records that once a branch has been shortened to its
	// relative form it is never allowed to grow back to the long form
	// on a later layout iteration, guaranteeing layout converges.
	usingShort bool
	size       int
}

func NewCode(loc ast.Location, typ instr.InstructionType, modeFlags uint32, operands []instr.Operand, hint ast.DistanceHint) *Code {
	return &Code{irBase: irBase{loc: loc}, Type: typ, ModeFlags: modeFlags, Operands: operands, DistanceHint: hint}
}

// PushRelocation and PopRelocation bracket an `in <bank> [@ address]`
// block, switching which bank subsequent Label/Code nodes advance.
type PushRelocation struct {
	irBase
	Bank    *bank.Bank
	Address *int64 // nil if the block carried no explicit `@ address`
}

type PopRelocation struct {
	irBase
}

// Seek is a mid-block `relocate <address>` directive: it moves the
// write cursor of the bank currently active on the relocation stack
// without opening or closing a scope.
type Seek struct {
	irBase
	Address int64
}
