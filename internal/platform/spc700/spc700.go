// Package spc700 implements the platform.Platform for the Sony SPC700
// (Super Nintendo's sound coprocessor): the accumulator/x/y/sp
// register file over a 64KiB address space with no bank switching,
// MOV-based loads and stores, CMP compares, and the 6502-style
// relative branch family.
package spc700

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
	RegSP
	FlagCarry
	FlagZero
	FlagNegative
)

type Platform struct {
	table *instr.Table
}

func New() *Platform {
	p := &Platform{table: instr.NewTable()}
	p.registerInstructions()
	return p
}

func (p *Platform) Name() string { return "spc700" }

func (p *Platform) RegisterDefinitions(builtins *symtab.Scope) {
	reg := func(name string, id int) {
		builtins.AddDefinition(&symtab.Definition{Name: name, Kind: symtab.KindRegister, Loc: ast.Builtin, RegisterID: id})
	}
	reg("a", RegA)
	reg("x", RegX)
	reg("y", RegY)
	reg("sp", RegSP)
	reg("carry", FlagCarry)
	reg("zero", FlagZero)
	reg("negative", FlagNegative)
}

func (p *Platform) Instructions() *instr.Table { return p.table }

func (p *Platform) PointerSizedType() ast.TypeExpression {
	return ast.NewIdentifierType(ast.Builtin, "u16")
}

func (p *Platform) FarPointerSizedType() ast.TypeExpression {
	return ast.NewIdentifierType(ast.Builtin, "u16")
}

func (p *Platform) ZeroFlag() string { return "zero" }

func (p *Platform) PlaceholderValue() numeric.Int128 { return numeric.FromInt64(0) }

func (p *Platform) DefaultModeFlags() platform.ModeFlags { return 0 }

func (p *Platform) ModeAttribute(name string) (set, clear platform.ModeFlags, ok bool) {
	return 0, 0, false
}

// GetTestAndBranch lowers comparisons through CMP; the carry flag
// follows the 6502 convention (set when register >= operand).
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
	if v >= 0xFF {
		return nil, false
	}
	return instr.Integer{Value: numeric.FromInt64(v + 1)}, true
}

type regName string

func (r regName) DefName() string { return string(r) }

var (
	u8Range  = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(255)}
	u16Range = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(65535)}
	relRange = instr.IntegerRangePattern{Min: numeric.FromInt64(-126), Max: numeric.FromInt64(129)}
	farRange = instr.IntegerRangePattern{Min: numeric.FromInt64(-32768), Max: numeric.FromInt64(65535)}
	stepOne  = instr.IntegerRangePattern{Min: numeric.FromInt64(1), Max: numeric.FromInt64(1)}
)

func regPat(name string) instr.Pattern { return instr.RegisterPattern{Def: regName(name)} }

func derefCap() instr.Pattern {
	return instr.DereferencePattern{Addr: instr.Capture(u16Range), Size: 1}
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

func (p *Platform) add(typ instr.InstructionType, patterns []instr.Pattern, enc instr.Encoding) {
	p.table.Register(&instr.Instruction{Signature: instr.Signature{Type: typ, Patterns: patterns}, Encoding: enc})
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

func unOp(op ast.UnaryOpKind) instr.InstructionType {
	return instr.InstructionType{Kind: instr.TypeUnaryOp, UnaryOp: op}
}

func imm8(opcode byte) instr.Encoding {
	return fixed(2, func(c []instr.Operand) []byte { return []byte{opcode, byte(capInt(c, 0))} })
}

func abs16(opcode byte) instr.Encoding {
	return fixed(3, func(c []instr.Operand) []byte {
		v := capInt(c, 0)
		return []byte{opcode, byte(v), byte(v >> 8)}
	})
}

func implied(opcode ...byte) instr.Encoding {
	return fixed(len(opcode), func(c []instr.Operand) []byte { return opcode })
}

func prefixedImm8(prefix, opcode byte) instr.Encoding {
	return fixed(3, func(c []instr.Operand) []byte { return []byte{prefix, opcode, byte(capInt(c, 0))} })
}

func (p *Platform) registerInstructions() {
	// MOV A,#imm / MOV A,!abs / MOV A,X / MOV A,Y.
	p.add(load("a"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0xE8))
	p.add(load("a"), []instr.Pattern{derefCap()}, abs16(0xE5))
	p.add(load("a"), []instr.Pattern{regPat("x")}, implied(0x7D))
	p.add(load("a"), []instr.Pattern{regPat("y")}, implied(0xDD))
	// MOV X,#imm / MOV X,A; MOV Y,#imm / MOV Y,A.
	p.add(load("x"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0xCD))
	p.add(load("x"), []instr.Pattern{regPat("a")}, implied(0x5D))
	p.add(load("y"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0x8D))
	p.add(load("y"), []instr.Pattern{regPat("a")}, implied(0xFD))

	// MOV !abs,A.
	p.add(void("store_a"), []instr.Pattern{instr.Capture(u16Range)}, abs16(0xC5))

	// Arithmetic: ADC/SBC with the carry cleared/set first, logical
	// ops, and single-step INC/DEC forms for all three registers.
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("a"), stepOne}, implied(0xBC))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("a"), stepOne}, implied(0x9C))
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, prefixedImm8(0x60, 0x88))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, prefixedImm8(0x80, 0xA8))
	p.add(binOp(ast.BinBitAnd), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x28))
	p.add(binOp(ast.BinBitOr), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x08))
	p.add(binOp(ast.BinBitXor), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x48))
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("x"), stepOne}, implied(0x3D))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("x"), stepOne}, implied(0x1D))
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("y"), stepOne}, implied(0xFC))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("y"), stepOne}, implied(0xDC))
	p.add(unOp(ast.UnaryBitNot), []instr.Pattern{regPat("a")}, implied(0x48, 0xFF))

	// CMP forms and the generic boolean test.
	p.add(void("compare"), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x68))
	p.add(void("compare"), []instr.Pattern{regPat("a"), derefCap()}, abs16(0x65))
	p.add(void("compare"), []instr.Pattern{regPat("x"), instr.Capture(u8Range)}, imm8(0xC8))
	p.add(void("compare"), []instr.Pattern{regPat("y"), instr.Capture(u8Range)}, imm8(0xAD))
	p.add(void("test"), []instr.Pattern{regPat("a")}, implied(0x68, 0x00))

	// Jumps, calls, returns.
	p.add(branch(instr.BranchAlways), []instr.Pattern{instr.Capture(u16Range)}, abs16(0x5F))
	p.add(branch(instr.BranchAlwaysRelative), []instr.Pattern{instr.Capture(relRange)}, relBranch(0x2F))
	p.add(branch(instr.BranchCall), []instr.Pattern{instr.Capture(u16Range)}, abs16(0x3F))
	p.add(void("return"), nil, implied(0x6F))
	p.add(void("return_interrupt"), nil, implied(0x7F))

	// Conditional branches.
	p.condBranch("zero", true, 0xF0, 0xD0)
	p.condBranch("zero", false, 0xD0, 0xF0)
	p.condBranch("carry", true, 0xB0, 0x90)
	p.condBranch("carry", false, 0x90, 0xB0)
	p.condBranch("negative", true, 0x30, 0x10)
	p.condBranch("negative", false, 0x10, 0x30)
}

func (p *Platform) condBranch(flag string, value bool, opcode, inverse byte) {
	kind := instr.FlagBranch(flag, value)
	p.add(branch(kind), []instr.Pattern{instr.Capture(relRange)}, relBranch(opcode))
	p.add(branch(kind), []instr.Pattern{instr.Capture(farRange)}, longBranch(inverse))
}

func relBranch(opcode byte) instr.Encoding {
	return fixed(2, func(c []instr.Operand) []byte {
		return []byte{opcode, byte(capInt(c, 0) - 2)}
	})
}

// longBranch synthesizes an out-of-range conditional branch as the
// inverse condition hopping over an absolute JMP.
func longBranch(inverse byte) instr.Encoding {
	return instr.Encoding{
		Size: func(opts instr.Options, c []instr.Operand) int { return 5 },
		Write: func(b *bank.Bank, opts instr.Options, c []instr.Operand, loc ast.Location) ([]byte, *diag.Diagnostic) {
			target := b.Origin() + b.RelativePosition() + capInt(c, 0)
			return []byte{inverse, 0x03, 0x5F, byte(target), byte(target >> 8)}, nil
		},
	}
}
