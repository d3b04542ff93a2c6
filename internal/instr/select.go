package instr

import (
	"fmt"
	"strings"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/diag"
)

// Table indexes a platform's registered instructions by InstructionType
// for amortized O(1) candidate lookup, preserving each type's bucket in
// platform declaration order (selection's tie-break).
type Table struct {
	byType map[InstructionType][]*Instruction
}

func NewTable() *Table {
	return &Table{byType: make(map[InstructionType][]*Instruction)}
}

// Register appends instr to its type's candidate bucket, in call order.
func (t *Table) Register(instr *Instruction) {
	t.byType[instr.Signature.Type] = append(t.byType[instr.Signature.Type], instr)
}

// Select picks the most specific instruction matching (typ, modeFlags,
// operands): filter by signature match, then reduce by the IsSubsetOf
// partial order keeping the narrowest match seen, ties broken by
// declaration order. Returns a diagnostic enumerating candidate forms
// when nothing matches.
func (t *Table) Select(typ InstructionType, modeFlags uint32, operands []Operand, loc ast.Location) (*Instruction, []Operand, *diag.Diagnostic) {
	candidates := t.byType[typ]
	var bestInstr *Instruction
	var bestCaptures []Operand
	for _, c := range candidates {
		captures, ok := c.Signature.Matches(modeFlags, operands)
		if !ok {
			continue
		}
		if bestInstr == nil {
			bestInstr, bestCaptures = c, captures
			continue
		}
		if c.Signature.IsSubsetOf(bestInstr.Signature) && !bestInstr.Signature.IsSubsetOf(c.Signature) {
			bestInstr, bestCaptures = c, captures
		}
	}
	if bestInstr != nil {
		return bestInstr, bestCaptures, nil
	}
	var forms []string
	for _, c := range candidates {
		forms = append(forms, c.Signature.String())
	}
	operandStrs := make([]string, len(operands))
	for i, o := range operands {
		operandStrs[i] = o.String()
	}
	msg := fmt.Sprintf("no instruction form for %s(%s)", typ, strings.Join(operandStrs, ", "))
	d := diag.Diagnostic{Severity: diag.SeverityError, Loc: loc, Message: msg}
	if len(forms) > 0 {
		d = d.Note(loc, "candidate forms: %s", strings.Join(forms, "; "))
	}
	return nil, nil, &d
}
