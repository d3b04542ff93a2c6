// Package instr implements the target-independent instruction model:
// operands, operand patterns, signatures, encodings, and selection.
// Platforms (internal/platform/...) populate this model with concrete
// patterns and encodings; the compiler driver calls Select to turn a
// lowered high-level operation into a chosen Instruction plus captures.
package instr

import (
	"fmt"
	"strings"

	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/numeric"
)

// OperandKind tags each Operand variant.
type OperandKind int

const (
	KindRegister OperandKind = iota
	KindInteger
	KindBoolean
	KindUnary
	KindBinary
	KindDereference
	KindIndex
	KindBitIndex
)

// OperandUnaryOp is the operator set a Unary operand may carry; this is
// the addressing-mode algebra (e.g. negated displacement), distinct from
// internal/ast's source-level UnaryOpKind.
type OperandUnaryOp int

const (
	OperandNeg OperandUnaryOp = iota
	OperandBitNot
	OperandLowByte
	OperandHighByte
)

// OperandBinaryOp is the operator set a Binary operand may carry (e.g.
// base+displacement addressing).
type OperandBinaryOp int

const (
	OperandAdd OperandBinaryOp = iota
	OperandSub
)

// Operand is the recursive tagged value instructions are selected
// against and encoded from: a register reference, an immediate, or a
// structural addressing form built from other operands.
type Operand interface {
	Kind() OperandKind
	String() string
	// Compare returns <0, 0, >0 establishing a total order, used for
	// deterministic candidate-list diagnostics and operand set dedup.
	Compare(other Operand) int
}

func kindOrder(k OperandKind) int { return int(k) }

func compareKind(a, b Operand) int {
	return kindOrder(a.Kind()) - kindOrder(b.Kind())
}

// Register names a definition (a platform register, e.g. the 6502 "a"
// accumulator) occupied by this operand.
type Register struct {
	Def ast.DefHandle
}

func (o Register) Kind() OperandKind  { return KindRegister }
func (o Register) String() string     { return o.Def.DefName() }
func (o Register) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	return strings.Compare(o.Def.DefName(), other.(Register).Def.DefName())
}

// Integer is a compile-time-known or placeholder (link-time-resolved)
// integer value. Placeholder operands still carry a representative
// Value so pattern range matching works before the real value is known.
type Integer struct {
	Value       numeric.Int128
	Placeholder bool
}

func (o Integer) Kind() OperandKind { return KindInteger }
func (o Integer) String() string {
	if o.Placeholder {
		return "?" + o.Value.String()
	}
	return o.Value.String()
}
func (o Integer) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	return o.Value.Cmp(other.(Integer).Value)
}

type Boolean struct {
	Value       bool
	Placeholder bool
}

func (o Boolean) Kind() OperandKind { return KindBoolean }
func (o Boolean) String() string {
	if o.Value {
		return "true"
	}
	return "false"
}
func (o Boolean) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	a, b := o.Value, other.(Boolean).Value
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

type Unary struct {
	Op      OperandUnaryOp
	Operand Operand
}

func (o Unary) Kind() OperandKind { return KindUnary }
func (o Unary) String() string    { return fmt.Sprintf("unary(%d, %s)", o.Op, o.Operand) }
func (o Unary) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	ot := other.(Unary)
	if o.Op != ot.Op {
		return int(o.Op) - int(ot.Op)
	}
	return o.Operand.Compare(ot.Operand)
}

type Binary struct {
	Op          OperandBinaryOp
	Left, Right Operand
}

func (o Binary) Kind() OperandKind { return KindBinary }
func (o Binary) String() string    { return fmt.Sprintf("binary(%d, %s, %s)", o.Op, o.Left, o.Right) }
func (o Binary) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	ot := other.(Binary)
	if o.Op != ot.Op {
		return int(o.Op) - int(ot.Op)
	}
	if c := o.Left.Compare(ot.Left); c != 0 {
		return c
	}
	return o.Right.Compare(ot.Right)
}

// Dereference is `[addr]`-style indirection; Size is the access width in
// bytes, Far selects a bank-crossing (long) addressing form.
type Dereference struct {
	Far  bool
	Addr Operand
	Size int
}

func (o Dereference) Kind() OperandKind { return KindDereference }
func (o Dereference) String() string    { return fmt.Sprintf("[%s]:%d", o.Addr, o.Size) }
func (o Dereference) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	ot := other.(Dereference)
	if o.Far != ot.Far {
		if o.Far {
			return 1
		}
		return -1
	}
	if o.Size != ot.Size {
		return o.Size - ot.Size
	}
	return o.Addr.Compare(ot.Addr)
}

// Index is `[addr + subscript*scale]`-style indexed addressing.
type Index struct {
	Far       bool
	Addr      Operand
	Subscript Operand
	Scale     int
	Size      int
}

func (o Index) Kind() OperandKind { return KindIndex }
func (o Index) String() string {
	return fmt.Sprintf("[%s + %s*%d]:%d", o.Addr, o.Subscript, o.Scale, o.Size)
}
func (o Index) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	ot := other.(Index)
	if c := o.Addr.Compare(ot.Addr); c != 0 {
		return c
	}
	if c := o.Subscript.Compare(ot.Subscript); c != 0 {
		return c
	}
	if o.Scale != ot.Scale {
		return o.Scale - ot.Scale
	}
	return o.Size - ot.Size
}

// BitIndex selects a single bit of operand (e.g. Z80's `bit N, r`).
type BitIndex struct {
	Operand Operand
	Index   int
}

func (o BitIndex) Kind() OperandKind { return KindBitIndex }
func (o BitIndex) String() string    { return fmt.Sprintf("%s.%d", o.Operand, o.Index) }
func (o BitIndex) Compare(other Operand) int {
	if c := compareKind(o, other); c != 0 {
		return c
	}
	ot := other.(BitIndex)
	if o.Index != ot.Index {
		return o.Index - ot.Index
	}
	return o.Operand.Compare(ot.Operand)
}
