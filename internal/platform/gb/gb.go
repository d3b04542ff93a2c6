// Package gb implements the platform.Platform for the Game Boy's
// Sharp LR35902 CPU: a Z80-derived 8-bit register file without IX/IY,
// covering immediate/absolute loads, accumulator arithmetic, CP-based
// compares, and the JR/JP conditional branch pair.
package gb

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
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	FlagZero
	FlagCarry
)

type Platform struct {
	table *instr.Table
}

func New() *Platform {
	p := &Platform{table: instr.NewTable()}
	p.registerInstructions()
	return p
}

func (p *Platform) Name() string { return "gb" }

func (p *Platform) RegisterDefinitions(builtins *symtab.Scope) {
	reg := func(name string, id int) {
		builtins.AddDefinition(&symtab.Definition{Name: name, Kind: symtab.KindRegister, Loc: ast.Builtin, RegisterID: id})
	}
	reg("a", RegA)
	reg("b", RegB)
	reg("c", RegC)
	reg("d", RegD)
	reg("e", RegE)
	reg("h", RegH)
	reg("l", RegL)
	reg("zero", FlagZero)
	reg("carry", FlagCarry)
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

// GetTestAndBranch lowers comparisons through CP: the carry flag is a
// borrow on this family, so it is set when the accumulator is less
// than the operand.
func (p *Platform) GetTestAndBranch(op ast.BinaryOpKind, left, right instr.Operand, hint ast.DistanceHint) (platform.TestAndBranch, bool) {
	reg, ok := left.(instr.Register)
	if !ok || reg.Def.DefName() != "a" {
		return platform.TestAndBranch{}, false
	}
	if _, ok := right.(instr.Integer); !ok {
		return platform.TestAndBranch{}, false
	}
	var branches []platform.TestAndBranchCase
	switch op {
	case ast.BinEq:
		branches = []platform.TestAndBranchCase{{Flag: "zero", Value: true, Success: true}}
	case ast.BinNe:
		branches = []platform.TestAndBranchCase{{Flag: "zero", Value: false, Success: true}}
	case ast.BinLt:
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: true, Success: true}}
	case ast.BinGe:
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: false, Success: true}}
	case ast.BinLe:
		bumped, ok := incIntegerOperand(right)
		if !ok {
			return platform.TestAndBranch{}, false
		}
		right = bumped
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: true, Success: true}}
	case ast.BinGt:
		bumped, ok := incIntegerOperand(right)
		if !ok {
			return platform.TestAndBranch{}, false
		}
		right = bumped
		branches = []platform.TestAndBranchCase{{Flag: "carry", Value: false, Success: true}}
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

func (p *Platform) registerInstructions() {
	// Accumulator loads: LD A,d8 / LD A,(a16) / LD A,r.
	p.add(load("a"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0x3E))
	p.add(load("a"), []instr.Pattern{derefCap()}, abs16(0xFA))
	for i, name := range []string{"b", "c", "d", "e", "h", "l"} {
		p.add(load("a"), []instr.Pattern{regPat(name)}, implied(0x78+byte(i)))
	}
	// LD r,d8 and LD r,A for the common scratch registers.
	p.add(load("b"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0x06))
	p.add(load("b"), []instr.Pattern{regPat("a")}, implied(0x47))
	p.add(load("c"), []instr.Pattern{instr.Capture(u8Range)}, imm8(0x0E))
	p.add(load("c"), []instr.Pattern{regPat("a")}, implied(0x4F))

	// LD (a16),A.
	p.add(void("store_a"), []instr.Pattern{instr.Capture(u16Range)}, abs16(0xEA))

	// Accumulator arithmetic; the single-step forms win on +1/-1.
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("a"), stepOne}, implied(0x3C))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("a"), stepOne}, implied(0x3D))
	p.add(binOp(ast.BinAdd), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xC6))
	p.add(binOp(ast.BinSub), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xD6))
	p.add(binOp(ast.BinBitAnd), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xE6))
	p.add(binOp(ast.BinBitOr), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xF6))
	p.add(binOp(ast.BinBitXor), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xEE))
	p.add(unOp(ast.UnaryBitNot), []instr.Pattern{regPat("a")}, implied(0x2F))
	p.add(unOp(ast.UnaryNeg), []instr.Pattern{regPat("a")}, implied(0x2F, 0x3C))

	// CP d8 and the generic boolean test (OR A).
	p.add(void("compare"), []instr.Pattern{regPat("a"), instr.Capture(u8Range)}, imm8(0xFE))
	p.add(void("test"), []instr.Pattern{regPat("a")}, implied(0xB7))

	// Jumps, calls, returns.
	p.add(branch(instr.BranchAlways), []instr.Pattern{instr.Capture(u16Range)}, abs16(0xC3))
	p.add(branch(instr.BranchAlwaysRelative), []instr.Pattern{instr.Capture(relRange)}, relBranch(0x18))
	p.add(branch(instr.BranchCall), []instr.Pattern{instr.Capture(u16Range)}, abs16(0xCD))
	p.add(void("return"), nil, implied(0xC9))
	p.add(void("return_interrupt"), nil, implied(0xD9))

	// Conditional branches: JR cc,r8 when the displacement fits, else
	// JP cc,a16.
	p.condBranch("zero", true, 0x28, 0xCA)
	p.condBranch("zero", false, 0x20, 0xC2)
	p.condBranch("carry", true, 0x38, 0xDA)
	p.condBranch("carry", false, 0x30, 0xD2)
}

func (p *Platform) condBranch(flag string, value bool, relOp, absOp byte) {
	kind := instr.FlagBranch(flag, value)
	p.add(branch(kind), []instr.Pattern{instr.Capture(relRange)}, relBranch(relOp))
	p.add(branch(kind), []instr.Pattern{instr.Capture(farRange)}, condJump(absOp))
}

func relBranch(opcode byte) instr.Encoding {
	return fixed(2, func(c []instr.Operand) []byte {
		return []byte{opcode, byte(capInt(c, 0) - 2)}
	})
}

// condJump resolves the displacement back to an absolute target; this
// family has a true conditional absolute jump, so no branch-around
// sequence is needed.
func condJump(opcode byte) instr.Encoding {
	return instr.Encoding{
		Size: func(opts instr.Options, c []instr.Operand) int { return 3 },
		Write: func(b *bank.Bank, opts instr.Options, c []instr.Operand, loc ast.Location) ([]byte, *diag.Diagnostic) {
			target := b.Origin() + b.RelativePosition() + capInt(c, 0)
			return []byte{opcode, byte(target), byte(target >> 8)}, nil
		},
	}
}
