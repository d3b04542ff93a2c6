// Package platform defines the target-CPU abstraction: each concrete
// CPU variant (internal/platform/mos6502, z80, gb, wdc65816, spc700)
// contributes register/intrinsic definitions, an instr.Table of
// selectable instruction forms, and the handful of target-specific
// lowering helpers the compiler driver cannot know generically (how a
// compare folds into a branch, what value stands in for a link-time
// placeholder, what the native pointer width is).
package platform

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// ModeFlags is the target CPU mode bitset (e.g. WDC65816 8/16-bit
// accumulator and index-register width). Meaning is entirely
// platform-defined; the core only shifts bits by name.
type ModeFlags = uint32

// TestAndBranch describes how a single compare-then-conditional-jump
// source construct lowers to one or more machine instructions: a test
// instruction type plus operands, followed by a list of (flag, value,
// outcome) cases the driver emits as chained conditional branches.
// Cases are tested in order; when the processor state matches no case,
// the comparison's outcome is failure.
type TestAndBranch struct {
	TestType     instr.InstructionType
	TestOperands []instr.Operand
	Branches     []TestAndBranchCase
}

// TestAndBranchCase: when Flag has Value after the test instruction,
// the comparison's outcome is Success.
type TestAndBranchCase struct {
	Flag    string
	Value   bool
	Success bool
}

// Platform is the contract the compiler driver and instruction selector
// depend on. GetTestAndBranch takes an ast.DistanceHint
// (Default/Short/Long) directly.
type Platform interface {
	// Name is the identifier used in --system and the extension registry.
	Name() string

	// RegisterDefinitions installs this platform's registers, condition
	// flags, intrinsics, and mode-attribute names into the shared
	// builtin scope during pass 1.
	RegisterDefinitions(builtins *symtab.Scope)

	// Instructions returns the populated selection table.
	Instructions() *instr.Table

	// PointerSizedType and FarPointerSizedType are the default integer
	// types for addresses and far (bank-crossing) addresses.
	PointerSizedType() ast.TypeExpression
	FarPointerSizedType() ast.TypeExpression

	// GetTestAndBranch returns a specialized compare+branch lowering for
	// op(left, right), or (TestAndBranch{}, false) to fall back to the
	// generic pattern (evaluate to a boolean, then branch on ZeroFlag).
	GetTestAndBranch(op ast.BinaryOpKind, left, right instr.Operand, distanceHint ast.DistanceHint) (TestAndBranch, bool)

	// ZeroFlag names the condition code the generic boolean-test
	// fallback branches on.
	ZeroFlag() string

	// DefaultModeFlags is the CPU's mode bitset at reset, installed as
	// the current mode when IR emission begins.
	DefaultModeFlags() ModeFlags

	// ModeAttribute maps a `#[name]` attribute statement to the mode
	// bits it sets and clears for the annotated statement's duration.
	// ok is false when the platform does not define name as a mode
	// attribute.
	ModeAttribute(name string) (set, clear ModeFlags, ok bool)

	// PlaceholderValue is a representative value within this platform's
	// typical immediate range, used when selecting an encoding for an
	// operand whose real value is only known at link time.
	PlaceholderValue() numeric.Int128
}

// Registry maps a platform name to its constructor, and an output file
// extension to the name of the platform/format pair it implies.
type Registry struct {
	platforms map[string]func() Platform
	byExt     map[string]ExtensionMapping
}

type ExtensionMapping struct {
	Platform string
	Format   string
}

func NewRegistry() *Registry {
	return &Registry{platforms: make(map[string]func() Platform), byExt: make(map[string]ExtensionMapping)}
}

func (r *Registry) Register(name string, ctor func() Platform) { r.platforms[name] = ctor }

func (r *Registry) RegisterExtension(ext, platformName, formatName string) {
	r.byExt[ext] = ExtensionMapping{Platform: platformName, Format: formatName}
}

func (r *Registry) New(name string) (Platform, bool) {
	ctor, ok := r.platforms[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

func (r *Registry) InferFromExtension(ext string) (ExtensionMapping, bool) {
	m, ok := r.byExt[ext]
	return m, ok
}
