// Package mos6502 implements the platform.Platform for the 6502/6502C
// family (NES, Commodore, Apple II-class targets): accumulator/X/Y/SP
// registers, the carry/zero/negative/overflow condition flags, and the
// opcode subset the compiler's lowered operations select from --
// immediate and absolute loads, stores, register transfers,
// accumulator arithmetic, compares, and the full conditional branch
// family in both relative and branch-around-jump form.
package mos6502

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
	FlagOverflow
)

type Platform struct {
	table *instr.Table
}

func New() *Platform {
	p := &Platform{table: instr.NewTable()}
	p.registerInstructions()
	return p
}

func (p *Platform) Name() string { return "mos6502" }

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
	reg("overflow", FlagOverflow)
}

func (p *Platform) Instructions() *instr.Table { return p.table }

func (p *Platform) PointerSizedType() ast.TypeExpression {
	return ast.NewIdentifierType(ast.Builtin, "u16")
}

func (p *Platform) FarPointerSizedType() ast.TypeExpression {
	return ast.NewIdentifierType(ast.Builtin, "u16")
}

func (p *Platform) ZeroFlag() string { return "zero" }

func (p *Platform) PlaceholderValue() numeric.Int128 { return numeric.FromInt64(0x34) }

func (p *Platform) DefaultModeFlags() platform.ModeFlags { return 0 }

func (p *Platform) ModeAttribute(name string) (set, clear platform.ModeFlags, ok bool) {
	return 0, 0, false
}

// GetTestAndBranch lowers a comparison to CMP/CPX/CPY plus flag
// branches. The carry flag follows the 6502 convention: set when the
// register is greater than or equal to the operand. Strict `>` and
// non-strict `<=` have no direct flag reading, so constant operands
// are nudged by one instead.
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

// regName satisfies the pattern-side register reference without
// needing the symtab definition the compiler resolves at emit time;
// matching is by name.
type regName string

func (r regName) DefName() string { return string(r) }

var (
	u8Range   = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(255)}
	u16Range  = instr.IntegerRangePattern{Min: numeric.FromInt64(0), Max: numeric.FromInt64(65535)}
	relRange  = instr.IntegerRangePattern{Min: numeric.FromInt64(-126), Max: numeric.FromInt64(129)}
	farRange  = instr.IntegerRangePattern{Min: numeric.FromInt64(-32768), Max: numeric.FromInt64(65535)}
	shiftSpan = instr.IntegerRangePattern{Min: numeric.FromInt64(1), Max: numeric.FromInt64(7)}
	stepOne   = instr.IntegerRangePattern{Min: numeric.FromInt64(1), Max: numeric.FromInt64(1)}
)

func regPat(name string) instr.Pattern { return instr.RegisterPattern{Def: regName(name)} }

func derefCap() instr.Pattern {
	return instr.DereferencePattern{Addr: instr.Capture(u16Range), Size: 1}
}

// fixed builds an encoding of constant size whose bytes depend only on
// the captured operands.
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

// prefixedImm8/prefixedAbs16 stamp a one-byte flag setup (CLC/SEC)
// ahead of the arithmetic opcode, so `+`/`-` behave as plain add and
// subtract rather than add/subtract-with-carry.
func prefixedImm8(prefix, opcode byte) instr.Encoding {
	return fixed(3, func(c []instr.Operand) []byte { return []byte{prefix, opcode, byte(capInt(c, 0))} })
}

func prefixedAbs16(prefix, opcode byte) instr.Encoding {
	return fixed(4, func(c []instr.Operand) []byte {
		v := capInt(c, 0)
		return []byte{prefix, opcode, byte(v), byte(v >> 8)}
	})
}

func (p *Platform) registerInstructions() {
	p.registerLoads()
	p.registerStores()
	p.registerArithmetic()
	p.registerCompares()
	p.registerBranches()
	p.registerReturns()
}

func (p *Platform) registerLoads() {
	// LDA #imm / LDA abs / TXA / TYA
	p.add(load("a"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0xA9))
	p.add(load("a"), []instr.Pattern{derefCap()}, abs16(0xAD))
	p.add(load("a"), []instr.Pattern{regPat("x")}, implied(0x8A))
	p.add(load("a"), []instr.Pattern{regPat("y")}, implied(0x98))
	// LDX #imm / LDX abs / TAX
	p.add(load("x"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0xA2))
	p.add(load("x"), []instr.Pattern{derefCap()}, abs16(0xAE))
	p.add(load("x"), []instr.Pattern{regPat("a")}, implied(0xAA))
	// LDY #imm / LDY abs / TAY
	p.add(load("y"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0xA0))
	p.add(load("y"), []instr.Pattern{derefCap()}, abs16(0xAC))
	p.add(load("y"), []instr.Pattern{regPat("a")}, implied(0xA8))
}

func (p *Platform) registerStores() {
	// STA abs
	p.add(void("store_a"), []instr.Pattern{instr.Capture(u16Range)}, abs16(0x8D))
}

func (p *Platform) registerArithmetic() {
	// Accumulator arithmetic against immediates and absolute memory.
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, prefixedImm8(0x18, 0x69))
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("a"), derefCap()}, prefixedAbs16(0x18, 0x6D))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, prefixedImm8(0x38, 0xE9))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("a"), derefCap()}, prefixedAbs16(0x38, 0xED))
	p.add(binOp(ast.BinBitAnd), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x29))
	p.add(binOp(ast.BinBitAnd), []instr.Pattern{regPat("a"), derefCap()}, abs16(0x2D))
	p.add(binOp(ast.BinBitOr), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x09))
	p.add(binOp(ast.BinBitOr), []instr.Pattern{regPat("a"), derefCap()}, abs16(0x0D))
	p.add(binOp(ast.BinBitXor), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0x49))
	p.add(binOp(ast.BinBitXor), []instr.Pattern{regPat("a"), derefCap()}, abs16(0x4D))

	// Constant shifts unroll to repeated single-bit shifts.
	p.add(binOp(ast.BinShl), []instr.Pattern{regPat("a"), instr.Capture(shiftSpan)}, shiftRun(0x0A))
	p.add(binOp(ast.BinShr), []instr.Pattern{regPat("a"), instr.Capture(shiftSpan)}, shiftRun(0x4A))

	// Index-register steps.
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("x"), stepOne}, implied(0xE8))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("x"), stepOne}, implied(0xCA))
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("y"), stepOne}, implied(0xC8))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("y"), stepOne}, implied(0x88))

	// ~a and -a on the accumulator.
	p.add(unOp(ast.UnaryBitNot), []instr.Pattern{regPat("a")}, implied(0x49, 0xFF))
	p.add(unOp(ast.UnaryNeg), []instr.Pattern{regPat("a")}, implied(0x49, 0xFF, 0x18, 0x69, 0x01))
}

func shiftRun(opcode byte) instr.Encoding {
	return instr.Encoding{
		Size: func(opts instr.Options, c []instr.Operand) int { return int(capInt(c, 0)) },
		Write: func(b *bank.Bank, opts instr.Options, c []instr.Operand, loc ast.Location) ([]byte, *diag.Diagnostic) {
			out := make([]byte, capInt(c, 0))
			for i := range out {
				out[i] = opcode
			}
			return out, nil
		},
	}
}

func (p *Platform) registerCompares() {
	p.add(void("compare"), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xC9))
	p.add(void("compare"), []instr.Pattern{regPat("a"), derefCap()}, abs16(0xCD))
	p.add(void("compare"), []instr.Pattern{regPat("x"), instr.Capture(u8Range)}, imm8(0xE0))
	p.add(void("compare"), []instr.Pattern{regPat("x"), derefCap()}, abs16(0xEC))
	p.add(void("compare"), []instr.Pattern{regPat("y"), instr.Capture(u8Range)}, imm8(0xC0))
	p.add(void("compare"), []instr.Pattern{regPat("y"), derefCap()}, abs16(0xCC))
	// Generic boolean test: CMP #0 leaves the zero flag set iff a == 0.
	p.add(void("test"), []instr.Pattern{regPat("a")}, implied(0xC9, 0x00))
}

func (p *Platform) registerBranches() {
	// JMP abs and JSR abs.
	p.add(branch(instr.BranchAlways), []instr.Pattern{instr.Capture(u16Range)}, abs16(0x4C))
	p.add(branch(instr.BranchCall), []instr.Pattern{instr.Capture(u16Range)}, abs16(0x20))

	// Flag-conditional branches: a 2-byte relative form when the
	// displacement fits, else the inverse branch hopping over a JMP.
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
	p.add(branch(kind), []instr.Pattern{instr.Capture(relRange)}, relBranch(opcode))
	p.add(branch(kind), []instr.Pattern{instr.Capture(farRange)}, longBranch(inverse))
}

// relBranch encodes a displacement measured from the branch's first
// byte as the 6502's from-next-instruction signed offset.
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
			return []byte{inverse, 0x03, 0x4C, byte(target), byte(target >> 8)}, nil
		},
	}
}

func (p *Platform) registerReturns() {
	p.add(void("return"), nil, implied(0x60))
	p.add(void("return_interrupt"), nil, implied(0x40))
}
