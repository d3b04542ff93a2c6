package compiler

import (
	"reflect"

	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
)

// maxLayoutIterations bounds the fixpoint loop GenerateCode runs to
// resolve label addresses and instruction sizes together. Branches
// start on their pessimistic long encoding and only ever shrink
// (selectCode enforces the monovariant), so the loop settles in a
// handful of iterations even on branch-heavy programs.
const maxLayoutIterations = 64

type resolvedLabel struct {
	bank     *bank.Bank
	relative int64
}

func (r resolvedLabel) absolute() (int64, bool) {
	if r.bank == nil || !r.bank.HasOrigin() {
		return 0, false
	}
	return r.bank.Origin() + r.relative, true
}

// GenerateCode is pass 5: it fixes every `in <bank> @ addr` and
// `relocate addr` directive against a bank origin, then iterates
// label placement and instruction selection together until both stop
// changing, and finally commits the converged layout by reserving and
// writing the chosen bytes into each bank.
func (c *Compiler) GenerateCode() {
	c.adoptDynamicOrigins()
	if c.Report.HasErrors() {
		return
	}
	labels, chosen := c.layoutFixpoint()
	if c.Report.HasErrors() {
		return
	}
	c.commitCode(labels, chosen)
}

// adoptDynamicOrigins gives an origin to any bank first addressed
// through an explicit `in <bank> @ addr` or `relocate addr` rather
// than through a `bank` declaration's own origin field, walking the IR
// once in source order since that is the order the origin takes effect
// in.
func (c *Compiler) adoptDynamicOrigins() {
	var stack []*bank.Bank
	for _, node := range c.ir {
		switch n := node.(type) {
		case *PushRelocation:
			stack = append(stack, n.Bank)
			if n.Bank != nil && n.Address != nil && !n.Bank.HasOrigin() {
				if d := n.Bank.AbsoluteSeek(*n.Address, n.Loc()); d != nil {
					c.Report.Add(*d)
				}
			}
		case *PopRelocation:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case *Seek:
			if len(stack) == 0 || stack[len(stack)-1] == nil {
				continue
			}
			b := stack[len(stack)-1]
			if !b.HasOrigin() {
				if d := b.AbsoluteSeek(n.Address, n.Loc()); d != nil {
					c.Report.Add(*d)
				}
			}
		}
	}
}

// layoutFixpoint replays the IR stream repeatedly, each time resolving
// LabelOperand references against the previous iteration's addresses,
// until neither label address nor chosen instruction form changes.
// Returns the converged label table and, per Code node, the
// Instruction/captures pair selection settled on.
func (c *Compiler) layoutFixpoint() (map[string]resolvedLabel, map[*Code]selection) {
	seed := map[*bank.Bank]int64{}
	for _, node := range c.ir {
		var b *bank.Bank
		switch n := node.(type) {
		case *Code:
			b = n.Bank
		case *PushRelocation:
			b = n.Bank
		}
		if b == nil {
			continue
		}
		if _, seen := seed[b]; !seen {
			seed[b] = b.RelativePosition()
		}
	}

	labels := map[string]resolvedLabel{}
	chosen := map[*Code]selection{}

	// Iterations run quiet: a pessimistically-resolved forward branch
	// may transiently match nothing, and those diagnostics must not
	// outlive the iteration that produced them. One final reporting
	// pass over the converged layout surfaces the errors that remain.
	for iter := 0; iter < maxLayoutIterations; iter++ {
		newLabels, newChosen := c.layoutPass(seed, labels, false)
		converged := reflect.DeepEqual(labels, newLabels) && sameSizes(chosen, newChosen)
		labels, chosen = newLabels, newChosen
		if converged {
			break
		}
	}
	labels, chosen = c.layoutPass(seed, labels, true)
	return labels, chosen
}

// layoutPass replays the IR stream once against the previous
// iteration's label table, producing the next label table and
// per-Code selection. Diagnostics are recorded only when report is
// set.
func (c *Compiler) layoutPass(seed map[*bank.Bank]int64, labels map[string]resolvedLabel, report bool) (map[string]resolvedLabel, map[*Code]selection) {
	pos := make(map[*bank.Bank]int64, len(seed))
	for b, p := range seed {
		pos[b] = p
	}
	newLabels := map[string]resolvedLabel{}
	newChosen := map[*Code]selection{}
	var stack []*bank.Bank

	for _, node := range c.ir {
		switch n := node.(type) {
		case *PushRelocation:
			stack = append(stack, n.Bank)
			if n.Bank != nil && n.Address != nil && n.Bank.HasOrigin() {
				pos[n.Bank] = *n.Address - n.Bank.Origin()
			}
		case *PopRelocation:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case *Seek:
			if len(stack) > 0 && stack[len(stack)-1] != nil {
				b := stack[len(stack)-1]
				if b.HasOrigin() {
					pos[b] = n.Address - b.Origin()
				}
			}
		case *Label:
			var b *bank.Bank
			if len(stack) > 0 {
				b = stack[len(stack)-1]
			}
			newLabels[n.Name] = resolvedLabel{bank: b, relative: pos[b]}
		case *Code:
			var b *bank.Bank
			if len(stack) > 0 {
				b = stack[len(stack)-1]
			}
			n.Bank = b
			sel := c.selectCode(n, pos[b], labels, report)
			newChosen[n] = sel
			if b != nil {
				pos[b] += int64(sel.size)
			}
		}
	}
	return newLabels, newChosen
}

func sameSizes(a, b map[*Code]selection) bool {
	if len(a) != len(b) {
		return false
	}
	for code, sel := range b {
		prev, ok := a[code]
		if !ok || prev.size != sel.size {
			return false
		}
	}
	return true
}

type selection struct {
	instruction *instr.Instruction
	captures    []instr.Operand
	operands    []instr.Operand
	size        int
}

// selectCode resolves every LabelOperand in n against labels (the
// previous iteration's table) and runs instruction selection. The
// branch-shrinking monovariant lives here: displacement-bearing
// branches resolve pessimistically far on the first pass so the long
// encoding is chosen, and once an iteration settles on a shorter
// encoding the node may never grow back.
func (c *Compiler) selectCode(n *Code, herePos int64, labels map[string]resolvedLabel, report bool) selection {
	operands := make([]instr.Operand, len(n.Operands))
	for i, op := range n.Operands {
		lo, ok := op.(LabelOperand)
		if !ok {
			operands[i] = op
			continue
		}
		operands[i] = c.resolveLabelOperand(lo, n, herePos, labels, report)
	}

	inst, captures, derr := c.Platform.Instructions().Select(n.Type, n.ModeFlags, operands, n.Loc())
	if derr != nil {
		if report {
			c.Report.Add(*derr)
		}
		return selection{operands: operands, size: 0}
	}
	size := inst.Encoding.Size(inst.Options, captures)
	if n.size != 0 {
		if size < n.size {
			n.usingShort = true
		}
		if n.usingShort && size > n.size {
			if report {
				c.Report.Errorf(n.Loc(), "internal: branch encoding grew back after shortening")
			}
			size = n.size
		}
	}
	n.size = size
	return selection{instruction: inst, captures: captures, operands: operands, size: size}
}

func (c *Compiler) resolveLabelOperand(lo LabelOperand, n *Code, herePos int64, labels map[string]resolvedLabel, report bool) instr.Operand {
	target, ok := labels[lo.Target]
	if !ok {
		// Forward reference not yet seen this iteration. Relative
		// operands resolve pessimistically far so the long encoding is
		// picked first; absolute ones use the platform's representative
		// placeholder value.
		if lo.Relative {
			return instr.Integer{Value: numeric.FromInt64(0x7FFF), Placeholder: true}
		}
		return instr.Integer{Value: c.Platform.PlaceholderValue(), Placeholder: true}
	}
	if lo.Relative {
		if target.bank == nil || n.Bank == nil || target.bank != n.Bank {
			if report {
				c.Report.Errorf(n.Loc(), "branch to '%s' is not a relative displacement within the same bank", lo.Target)
			}
			return instr.Integer{Value: numeric.FromInt64(0), Placeholder: true}
		}
		return instr.Integer{Value: numeric.FromInt64(target.relative - herePos)}
	}
	abs, ok := target.absolute()
	if !ok {
		if report {
			c.Report.Errorf(n.Loc(), "label '%s' has no fixed address; its enclosing bank has no origin", lo.Target)
		}
		return instr.Integer{Value: numeric.FromInt64(0), Placeholder: true}
	}
	return instr.Integer{Value: numeric.FromInt64(abs)}
}

// commitCode replays the IR stream one last time against the converged
// layout, actually reserving and writing the chosen bytes.
func (c *Compiler) commitCode(labels map[string]resolvedLabel, chosen map[*Code]selection) {
	var stack []*bank.Bank
	for _, node := range c.ir {
		switch n := node.(type) {
		case *PushRelocation:
			stack = append(stack, n.Bank)
			if n.Bank != nil && n.Address != nil && n.Bank.HasOrigin() {
				rel := *n.Address - n.Bank.Origin()
				n.Bank.SeekRelative(rel)
			}
		case *PopRelocation:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case *Seek:
			if len(stack) > 0 && stack[len(stack)-1] != nil {
				b := stack[len(stack)-1]
				if b.HasOrigin() {
					b.SeekRelative(n.Address - b.Origin())
				}
			}
		case *Code:
			c.commitOne(n, chosen[n])
		}
	}
}

func (c *Compiler) commitOne(n *Code, sel selection) {
	if sel.instruction == nil || n.Bank == nil {
		return
	}
	b := n.Bank
	start := b.RelativePosition()
	if b.Kind.IsWritable() {
		if d := b.ReserveRam("instruction", n, n.Loc(), int64(sel.size)); d != nil {
			c.Report.Add(*d)
			return
		}
	} else {
		if d := b.ReserveRom("instruction", n, n.Loc(), int64(sel.size)); d != nil {
			c.Report.Add(*d)
			return
		}
	}
	b.SeekRelative(start)
	bytes, werr := sel.instruction.Encoding.Write(b, sel.instruction.Options, sel.captures, n.Loc())
	if werr != nil {
		c.Report.Add(*werr)
		b.SeekRelative(start + int64(sel.size))
		return
	}
	if d := b.Write("instruction", n, n.Loc(), bytes); d != nil {
		c.Report.Add(*d)
	}
	b.SeekRelative(start + int64(sel.size))
}
