// Package wdc65816 implements the platform.Platform for the WDC 65816
// (Super Nintendo, Apple IIgs): the 6502-descended register file
// extended to 16 bits, immediate-operand widths gated on the
// accumulator/index mode bits, and long (bank-crossing) calls.
package wdc65816

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/platform"
	"github.com/wiz-lang/wiz/internal/symtab"
)

const (
	RegA = iota
	RegX
	RegY
	RegDirectPage
	RegDataBank
	FlagCarry
	FlagZero
	FlagNegative
	FlagOverflow
)

// Mode bits. Exactly one of each pair is set at any time; the
// `#[mem8]`/`#[mem16]`/`#[idx8]`/`#[idx16]` attributes flip them.
const (
	ModeAccum8 platform.ModeFlags = 1 << iota
	ModeAccum16
	ModeIndex8
	ModeIndex16
)

type Platform struct {
	table *instr.Table
}

func New() *Platform {
	p := &Platform{table: instr.NewTable()}
	p.registerInstructions()
	return p
}

func (p *Platform) Name() string { return "wdc65816" }

func (p *Platform) RegisterDefinitions(builtins *symtab.Scope) {
	reg := func(name string, id int) {
		builtins.AddDefinition(&symtab.Definition{Name: name, Kind: symtab.KindRegister, Loc: ast.Builtin, RegisterID: id})
	}
	reg("a", RegA)
	reg("x", RegX)
	reg("y", RegY)
	reg("dp", RegDirectPage)
	reg("db", RegDataBank)
	reg("carry", FlagCarry)
	reg("zero", FlagZero)
	reg("negative", FlagNegative)
	reg("overflow", FlagOverflow)
}

func (p *Platform) Instructions() *instr.Table { return p.table }

func (p *Platform) PointerSizedType() ast.TypeExpression {
	return ast.NewIdentifierType(ast.Builtin, "u16")
}

func (p *Platform) FarPointerSizedType() ast.TypeExpression {
	return ast.NewIdentifierType(ast.Builtin, "u24")
}

func (p *Platform) ZeroFlag() string { return "zero" }

func (p *Platform) PlaceholderValue() numeric.Int128 { return numeric.FromInt64(0x34) }

// DefaultModeFlags matches the chip's reset (emulation) state: 8-bit
// accumulator and index registers.
func (p *Platform) DefaultModeFlags() platform.ModeFlags { return ModeAccum8 | ModeIndex8 }

func (p *Platform) ModeAttribute(name string) (set, clear platform.ModeFlags, ok bool) {
	switch name {
	case "mem8":
		return ModeAccum8, ModeAccum16, true
	case "mem16":
		return ModeAccum16, ModeAccum8, true
	case "idx8":
		return ModeIndex8, ModeIndex16, true
	case "idx16":
		return ModeIndex16, ModeIndex8, true
	default:
		return 0, 0, false
	}
}

// GetTestAndBranch mirrors the 6502 lowering: CMP/CPX/CPY followed by
// flag branches, with carry set meaning register >= operand.
func (p *Platform) GetTestAndBranch(op ast.BinaryOpKind, left, right instr.Operand, hint ast.DistanceHint) (platform.TestAndBranch, bool) {
	if _, ok := left.(instr.Register); !ok {
		return platform.TestAndBranch{}, false
	}
	switch right.(type) {
	case instr.Integer, instr.Dereference:
	default:
		return platform.TestAndBranch{}, false
	}
	var branches []platform.TestAndBranchCase
	switch op {
	case ast.BinEq:
		branches = []platform.TestAndBranchCase{{Flag: "zero", Value: true, Success: true}}
	case ast.BinNe:
		branches = []platform.TestAndBranchCase{{Flag: "zero", Value: false, Success: true}}
	case ast.BinLt:
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: false, Success: true}}
	case ast.BinGe:
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: true, Success: true}}
	case ast.BinLe:
		bumped, ok := incIntegerOperand(right)
		if !ok {
			return platform.TestAndBranch{}, false
		}
		right = bumped
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: false, Success: true}}
	case ast.BinGt:
		bumped, ok := incIntegerOperand(right)
		if !ok {
			return platform.TestAndBranch{}, false
		}
		right = bumped
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: true, Success: true}}
	default:
		return platform.TestAndBranch{}, false
	}
	return platform.TestAndBranch{
		TestType:     instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: "compare"},
		TestOperands: []instr.Operand{left, right},
		Branches:     branches,
	}, true
}

func incIntegerOperand(op instr.Operand) (instr.Operand, bool) {
	i, ok := op.(instr.Integer)
	if !ok || i.Placeholder {
		return nil, false
	}
	v := i.Value.Int64()
	if v >= 0xFFFF {
		return nil, false
	}
	return instr.Integer{Value: numeric.FromInt64(v + 1)}, true
}

type regName string

func (r regName) DefName() string { return string(r) }

var (
	u8Range  = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(255)}
	u16Range = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(65535)}
	u24Range = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(0xFFFFFF)}
	relRange = instr.IntegerRangePattern{Min: numeric.FromInt64(-126), Max: numeric.FromInt64(129)}
	farRange = instr.IntegerRangePattern{Min: numeric.FromInt64(-32768), Max: numeric.FromInt64(65535)}
	stepOne  = instr.IntegerRangePattern{Min: numeric.FromInt64(1), Max: numeric.FromInt64(1)}
)

func regPat(name string) instr.Pattern { return instr.RegisterPattern{Def: regName(name)} }

func derefCap(size int) instr.Pattern {
	return instr.DereferencePattern{Addr: instr.Capture(u16Range), Size: size}
}

func fixed(size int, write func(c []instr.Operand) []byte) instr.Encoding {
	return instr.Encoding{
		Size: func(opts instr.Options, c []instr.Operand) int { return size },
		Write: func(b *bank.Bank, opts instr.Options, c []instr.Operand, loc ast.Location) ([]byte, *diag.Diagnostic) {
			return write(c), nil
		},
	}
}

func capInt(c []instr.Operand, i int) int64 { return c[i].(instr.Integer).Value.Int64() }

func (p *Platform) add(typ instr.InstructionType, mode platform.ModeFlags, patterns []instr.Pattern, enc instr.Encoding) {
	p.table.Register(&instr.Instruction{
		Signature: instr.Signature{Type: typ, RequiredModeFlags: mode, Patterns: patterns},
		Encoding:  enc,
	})
}

func load(name string) instr.InstructionType {
	return instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: name}
}

func void(name string) instr.InstructionType {
	return instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: name}
}

func branch(kind instr.BranchKind) instr.InstructionType {
	return instr.InstructionType{Kind: instr.TypeBranch, Branch: kind}
}

func binOp(op ast.BinaryOpKind) instr.InstructionType {
	return instr.InstructionType{Kind: instr.TypeBinaryOp, BinaryOp: op}
}

func imm8(opcode byte) instr.Encoding {
	return fixed(2, func(c []instr.Operand) []byte { return []byte{opcode, byte(capInt(c, 0))} })
}

func imm16(opcode byte) instr.Encoding {
	return fixed(3, func(c []instr.Operand) []byte {
		v := capInt(c, 0)
		return []byte{opcode, byte(v), byte(v >> 8)}
	})
}

func abs16(opcode byte) instr.Encoding { return imm16(opcode) }

func abs24(opcode byte) instr.Encoding {
	return fixed(4, func(c []instr.Operand) []byte {
		v := capInt(c, 0)
		return []byte{opcode, byte(v), byte(v >> 8), byte(v >> 16)}
	})
}

func implied(opcode ...byte) instr.Encoding {
	return fixed(len(opcode), func(c []instr.Operand) []byte { return opcode })
}

func prefixedImm8(prefix, opcode byte) instr.Encoding {
	return fixed(3, func(c []instr.Operand) []byte { return []byte{prefix, opcode, byte(capInt(c, 0))} })
}

func prefixedImm16(prefix, opcode byte) instr.Encoding {
	return fixed(4, func(c []instr.Operand) []byte {
		v := capInt(c, 0)
		return []byte{prefix, opcode, byte(v), byte(v >> 8)}
	})
}

func (p *Platform) registerInstructions() {
	// Accumulator loads: immediate width follows the accumulator mode.
	p.add(load("a"), ModeAccum8, []instr.Pattern{instr.Capture(u8Range)}, imm8(0xA9))
	p.add(load("a"), ModeAccum16, []instr.Pattern{instr.Capture(u16Range)}, imm16(0xA9))
	p.add(load("a"), ModeAccum8, []instr.Pattern{derefCap(1)}, abs16(0xAD))
	p.add(load("a"), ModeAccum16, []instr.Pattern{derefCap(2)}, abs16(0xAD))
	p.add(load("a"), 0, []instr.Pattern{regPat("x")}, implied(0x8A))
	p.add(load("a"), 0, []instr.Pattern{regPat("y")}, implied(0x98))

	// Index loads.
	p.add(load("x"), ModeIndex8, []instr.Pattern{instr.Capture(u8Range)}, imm8(0xA2))
	p.add(load("x"), ModeIndex16, []instr.Pattern{instr.Capture(u16Range)}, imm16(0xA2))
	p.add(load("x"), 0, []instr.Pattern{regPat("a")}, implied(0xAA))
	p.add(load("y"), ModeIndex8, []instr.Pattern{instr.Capture(u8Range)}, imm8(0xA0))
	p.add(load("y"), ModeIndex16, []instr.Pattern{instr.Capture(u16Range)}, imm16(0xA0))
	p.add(load("y"), 0, []instr.Pattern{regPat("a")}, implied(0xA8))

	// STA abs.
	p.add(void("store_a"), 0, []instr.Pattern{instr.Capture(u16Range)}, abs16(0x8D))

	// Arithmetic (CLC/SEC stamped ahead, as on the 6502).
	p.add(binOp(ast.BinAdd), ModeAccum8, []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, prefixedImm8(0x18, 0x69))
	p.add(binOp(ast.BinAdd), ModeAccum16, []instr.Pattern{regPat("a"), instr.Capture(u16Range)}, prefixedImm16(0x18, 0x69))
	p.add(binOp(ast.BinSub), ModeAccum8, []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, prefixedImm8(0x38, 0xE9))
	p.add(binOp(ast.BinSub), ModeAccum16, []instr.Pattern{regPat("a"), instr.Capture(u16Range)}, prefixedImm16(0x38, 0xE9))
	p.add(binOp(ast.BinBitAnd), ModeAccum8, []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x29))
	p.add(binOp(ast.BinBitOr), ModeAccum8, []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x09))
	p.add(binOp(ast.BinBitXor), ModeAccum8, []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x49))
	p.add(binOp(ast.BinAdd), 0, []instr.Pattern{regPat("x"), stepOne}, implied(0xE8))
	p.add(binOp(ast.BinSub), 0, []instr.Pattern{regPat("x"), stepOne}, implied(0xCA))
	p.add(binOp(ast.BinAdd), 0, []instr.Pattern{regPat("y"), stepOne}, implied(0xC8))
	p.add(binOp(ast.BinSub), 0, []instr.Pattern{regPat("y"), stepOne}, implied(0x88))

	// Compares and the generic boolean test.
	p.add(void("compare"), ModeAccum8, []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xC9))
	p.add(void("compare"), ModeAccum16, []instr.Pattern{regPat("a"), instr.Capture(u16Range)}, imm16(0xC9))
	p.add(void("compare"), ModeAccum8, []instr.Pattern{regPat("a"), derefCap(1)}, abs16(0xCD))
	p.add(void("compare"), ModeIndex8, []instr.Pattern{regPat("x"), instr.Capture(u8Range)}, imm8(0xE0))
	p.add(void("compare"), ModeIndex16, []instr.Pattern{regPat("x"), instr.Capture(u16Range)}, imm16(0xE0))
	p.add(void("compare"), ModeIndex8, []instr.Pattern{regPat("y"), instr.Capture(u8Range)}, imm8(0xC0))
	p.add(void("compare"), ModeIndex16, []instr.Pattern{regPat("y"), instr.Capture(u16Range)}, imm16(0xC0))
	p.add(void("test"), ModeAccum8, []instr.Pattern{regPat("a")}, implied(0xC9, 0x00))
	p.add(void("test"), ModeAccum16, []instr.Pattern{regPat("a")}, implied(0xC9, 0x00, 0x00))

	// Jumps, calls, returns.
	p.add(branch(instr.BranchAlways), 0, []instr.Pattern{instr.Capture(u16Range)}, abs16(0x4C))
	p.add(branch(instr.BranchAlwaysRelative), 0, []instr.Pattern{instr.Capture(relRange)}, relBranch(0x80))
	p.add(branch(instr.BranchCall), 0, []instr.Pattern{instr.Capture(u16Range)}, abs16(0x20))
	p.add(branch(instr.BranchCallFar), 0, []instr.Pattern{instr.Capture(u24Range)}, abs24(0x22))
	p.add(void("return"), 0, nil, implied(0x60))
	p.add(void("return_far"), 0, nil, implied(0x6B))
	p.add(void("return_interrupt"), 0, nil, implied(0x40))

	// Conditional branches, relative and branch-around-JMP forms.
	p.condBranch("zero", true, 0xF0, 0xD0)
	p.condBranch("zero", false, 0xD0, 0xF0)
	p.condBranch("carry", true, 0xB0, 0x90)
	p.condBranch("carry", false, 0x90, 0xB0)
	p.condBranch("negative", true, 0x30, 0x10)
	p.condBranch("negative", false, 0x10, 0x30)
	p.condBranch("overflow", true, 0x70, 0x50)
	p.condBranch("overflow", false, 0x50, 0x70)
}

func (p *Platform) condBranch(flag string, value bool, opcode, inverse byte) {
	kind := instr.FlagBranch(flag, value)
	p.add(branch(kind), 0, []instr.Pattern{instr.Capture(relRange)}, relBranch(opcode))
	p.add(branch(kind), 0, []instr.Pattern{instr.Capture(farRange)}, longBranch(inverse))
}

func relBranch(opcode byte) instr.Encoding {
	return fixed(2, func(c []instr.Operand) []byte {
		return []byte{opcode, byte(capInt(c, 0) - 2)}
	})
}

func longBranch(inverse byte) instr.Encoding {
	return instr.Encoding{
		Size: func(opts instr.Options, c []instr.Operand) int { return 5 },
		Write: func(b *bank.Bank, opts instr.Options, c []instr.Operand, loc ast.Location) ([]byte, *diag.Diagnostic) {
			target := b.Origin() + b.RelativePosition() + capInt(c, 0)
			return []byte{inverse, 0x03, 0x4C, byte(target), byte(target >> 8)}, nil
		},
	}
}
