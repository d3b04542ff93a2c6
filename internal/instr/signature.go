package instr

import (
	"fmt"
	"strings"

	"github.com/wiz-lang/wiz/internal/ast"
)

// InstructionTypeKind tags what kind of high-level operation a
// Signature answers for.
type InstructionTypeKind int

const (
	TypeBranch InstructionTypeKind = iota
	TypeUnaryOp
	TypeBinaryOp
	TypeVoidIntrinsic
	TypeLoadIntrinsic
)

// BranchKind names a platform-specific conditional or unconditional
// jump family (e.g. "always", "carry", "zero"); platforms register
// their own named constants, the set is open-ended by design.
type BranchKind string

// Branch kinds every platform registers. Unconditional and call
// branches take an absolute target address; BranchAlwaysRelative and
// all flag-conditional kinds take a displacement measured from the
// branch instruction's own first byte.
const (
	BranchAlways         BranchKind = "always"
	BranchAlwaysRelative BranchKind = "always.rel"
	BranchCall           BranchKind = "call"
	BranchCallFar        BranchKind = "call.far"
)

// FlagBranch names the conditional branch taken when the platform flag
// is in the given state ("zero" when set, "!zero" when clear).
func FlagBranch(flag string, value bool) BranchKind {
	if value {
		return BranchKind(flag)
	}
	return BranchKind("!" + flag)
}

// InstructionType identifies the family of high-level operation a
// signature matches. It is comparable so instructions can be indexed by
// type in a map for amortized O(1) lookup during selection.
type InstructionType struct {
	Kind       InstructionTypeKind
	Branch     BranchKind
	UnaryOp    ast.UnaryOpKind
	BinaryOp   ast.BinaryOpKind
	IntrinsicName string // for VoidIntrinsic/LoadIntrinsic, the registered definition's name
}

func (t InstructionType) String() string {
	switch t.Kind {
	case TypeBranch:
		return fmt.Sprintf("branch(%s)", t.Branch)
	case TypeUnaryOp:
		return fmt.Sprintf("unaryop(%d)", t.UnaryOp)
	case TypeBinaryOp:
		return fmt.Sprintf("binaryop(%d)", t.BinaryOp)
	case TypeVoidIntrinsic:
		return fmt.Sprintf("void_intrinsic(%s)", t.IntrinsicName)
	case TypeLoadIntrinsic:
		return fmt.Sprintf("load_intrinsic(%s)", t.IntrinsicName)
	default:
		return "instruction_type"
	}
}

// Signature is (type, required mode flags, pattern list). A mode-flag
// bit set in RequiredModeFlags must also be set in the current target
// mode for this signature to be selectable.
type Signature struct {
	Type            InstructionType
	RequiredModeFlags uint32
	Patterns        []Pattern
}

func (s Signature) String() string {
	parts := make([]string, len(s.Patterns))
	for i, p := range s.Patterns {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", s.Type, strings.Join(parts, ", "))
}

// Matches reports whether modeFlags satisfies the signature's required
// bits and every operand in order matches the corresponding pattern,
// returning the accumulated Capture-pattern operands on success.
func (s Signature) Matches(modeFlags uint32, operands []Operand) ([]Operand, bool) {
	if modeFlags&s.RequiredModeFlags != s.RequiredModeFlags {
		return nil, false
	}
	if len(operands) != len(s.Patterns) {
		return nil, false
	}
	var captures []Operand
	for i, p := range s.Patterns {
		if !p.Extract(operands[i], &captures) {
			return nil, false
		}
	}
	return captures, true
}

// IsSubsetOf implements the narrower-or-equal partial order used to
// pick the most specific matching instruction: equal type, this
// signature's required mode flags are a superset of other's (at least
// as constrained), same pattern count, and each pattern narrower.
func (s Signature) IsSubsetOf(other Signature) bool {
	if s.Type != other.Type {
		return false
	}
	if s.RequiredModeFlags&other.RequiredModeFlags != other.RequiredModeFlags {
		return false
	}
	if len(s.Patterns) != len(other.Patterns) {
		return false
	}
	for i := range s.Patterns {
		if !s.Patterns[i].IsSubsetOf(other.Patterns[i]) {
			return false
		}
	}
	return true
}
