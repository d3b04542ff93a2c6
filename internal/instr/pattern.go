package instr

import (
	"fmt"

	"github.com/wiz-lang/wiz/internal/numeric"
)

// PatternKind tags each Pattern variant.
type PatternKind int

const (
	PatternRegister PatternKind = iota
	PatternIntegerRange
	PatternIntegerAtLeast
	PatternBoolean
	PatternUnary
	PatternBinary
	PatternDereference
	PatternIndex
	PatternBitIndex
	PatternCapture
)

// Pattern matches an Operand tree. Capture wraps another pattern and,
// on a successful match, appends the matched operand to the caller's
// capture list; everything else is structural.
type Pattern interface {
	Kind() PatternKind
	Matches(op Operand) bool
	// Extract behaves like Matches but also appends to captures wherever
	// a Capture pattern (at any depth) matches.
	Extract(op Operand, captures *[]Operand) bool
	// IsSubsetOf reports whether every operand matched by this pattern is
	// also matched by other — a narrower-or-equal relation.
	IsSubsetOf(other Pattern) bool
	String() string
}

func unwrapCapture(p Pattern) Pattern {
	for {
		c, ok := p.(PatternCaptureNode)
		if !ok {
			return p
		}
		p = c.Inner
	}
}

// RegisterPattern matches an operand occupying a specific named
// register definition.
type RegisterPattern struct {
	Def interface{ DefName() string }
}

func (p RegisterPattern) Kind() PatternKind { return PatternRegister }
func (p RegisterPattern) String() string    { return p.Def.DefName() }
func (p RegisterPattern) Matches(op Operand) bool {
	r, ok := op.(Register)
	return ok && r.Def.DefName() == p.Def.DefName()
}
func (p RegisterPattern) Extract(op Operand, captures *[]Operand) bool { return p.Matches(op) }
func (p RegisterPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(RegisterPattern)
	return ok && o.Def.DefName() == p.Def.DefName()
}

type IntegerRangePattern struct {
	Min, Max numeric.Int128
}

func (p IntegerRangePattern) Kind() PatternKind { return PatternIntegerRange }
func (p IntegerRangePattern) String() string    { return fmt.Sprintf("[%s..%s]", p.Min, p.Max) }
func (p IntegerRangePattern) Matches(op Operand) bool {
	i, ok := op.(Integer)
	if !ok {
		return false
	}
	return p.Min.Cmp(i.Value) <= 0 && i.Value.Cmp(p.Max) <= 0
}
func (p IntegerRangePattern) Extract(op Operand, captures *[]Operand) bool { return p.Matches(op) }
func (p IntegerRangePattern) IsSubsetOf(other Pattern) bool {
	switch o := unwrapCapture(other).(type) {
	case IntegerRangePattern:
		return o.Min.Cmp(p.Min) <= 0 && p.Max.Cmp(o.Max) <= 0
	case IntegerAtLeastPattern:
		return o.Min.Cmp(p.Min) <= 0
	default:
		return false
	}
}

type IntegerAtLeastPattern struct {
	Min numeric.Int128
}

func (p IntegerAtLeastPattern) Kind() PatternKind { return PatternIntegerAtLeast }
func (p IntegerAtLeastPattern) String() string    { return fmt.Sprintf(">=%s", p.Min) }
func (p IntegerAtLeastPattern) Matches(op Operand) bool {
	i, ok := op.(Integer)
	return ok && p.Min.Cmp(i.Value) <= 0
}
func (p IntegerAtLeastPattern) Extract(op Operand, captures *[]Operand) bool { return p.Matches(op) }
func (p IntegerAtLeastPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(IntegerAtLeastPattern)
	return ok && o.Min.Cmp(p.Min) <= 0
}

type BooleanPattern struct {
	Value bool
}

func (p BooleanPattern) Kind() PatternKind { return PatternBoolean }
func (p BooleanPattern) String() string    { return fmt.Sprintf("%v", p.Value) }
func (p BooleanPattern) Matches(op Operand) bool {
	b, ok := op.(Boolean)
	return ok && b.Value == p.Value
}
func (p BooleanPattern) Extract(op Operand, captures *[]Operand) bool { return p.Matches(op) }
func (p BooleanPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(BooleanPattern)
	return ok && o.Value == p.Value
}

type UnaryPattern struct {
	Op    OperandUnaryOp
	Inner Pattern
}

func (p UnaryPattern) Kind() PatternKind { return PatternUnary }
func (p UnaryPattern) String() string    { return fmt.Sprintf("unary(%d, %s)", p.Op, p.Inner) }
func (p UnaryPattern) Matches(op Operand) bool {
	u, ok := op.(Unary)
	return ok && u.Op == p.Op && p.Inner.Matches(u.Operand)
}
func (p UnaryPattern) Extract(op Operand, captures *[]Operand) bool {
	u, ok := op.(Unary)
	return ok && u.Op == p.Op && p.Inner.Extract(u.Operand, captures)
}
func (p UnaryPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(UnaryPattern)
	return ok && o.Op == p.Op && p.Inner.IsSubsetOf(o.Inner)
}

type BinaryPattern struct {
	Op          OperandBinaryOp
	Left, Right Pattern
}

func (p BinaryPattern) Kind() PatternKind { return PatternBinary }
func (p BinaryPattern) String() string {
	return fmt.Sprintf("binary(%d, %s, %s)", p.Op, p.Left, p.Right)
}
func (p BinaryPattern) Matches(op Operand) bool {
	b, ok := op.(Binary)
	return ok && b.Op == p.Op && p.Left.Matches(b.Left) && p.Right.Matches(b.Right)
}
func (p BinaryPattern) Extract(op Operand, captures *[]Operand) bool {
	b, ok := op.(Binary)
	return ok && b.Op == p.Op && p.Left.Extract(b.Left, captures) && p.Right.Extract(b.Right, captures)
}
func (p BinaryPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(BinaryPattern)
	return ok && o.Op == p.Op && p.Left.IsSubsetOf(o.Left) && p.Right.IsSubsetOf(o.Right)
}

type DereferencePattern struct {
	Far  bool
	Addr Pattern
	Size int
}

func (p DereferencePattern) Kind() PatternKind { return PatternDereference }
func (p DereferencePattern) String() string    { return fmt.Sprintf("[%s]:%d", p.Addr, p.Size) }
func (p DereferencePattern) Matches(op Operand) bool {
	d, ok := op.(Dereference)
	return ok && d.Far == p.Far && d.Size == p.Size && p.Addr.Matches(d.Addr)
}
func (p DereferencePattern) Extract(op Operand, captures *[]Operand) bool {
	d, ok := op.(Dereference)
	return ok && d.Far == p.Far && d.Size == p.Size && p.Addr.Extract(d.Addr, captures)
}
func (p DereferencePattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(DereferencePattern)
	return ok && o.Far == p.Far && o.Size == p.Size && p.Addr.IsSubsetOf(o.Addr)
}

type IndexPattern struct {
	Far       bool
	Addr      Pattern
	Subscript Pattern
	Scale     int
	Size      int
}

func (p IndexPattern) Kind() PatternKind { return PatternIndex }
func (p IndexPattern) String() string {
	return fmt.Sprintf("[%s + %s*%d]:%d", p.Addr, p.Subscript, p.Scale, p.Size)
}
func (p IndexPattern) Matches(op Operand) bool {
	i, ok := op.(Index)
	return ok && i.Far == p.Far && i.Scale == p.Scale && i.Size == p.Size &&
		p.Addr.Matches(i.Addr) && p.Subscript.Matches(i.Subscript)
}
func (p IndexPattern) Extract(op Operand, captures *[]Operand) bool {
	i, ok := op.(Index)
	return ok && i.Far == p.Far && i.Scale == p.Scale && i.Size == p.Size &&
		p.Addr.Extract(i.Addr, captures) && p.Subscript.Extract(i.Subscript, captures)
}
func (p IndexPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(IndexPattern)
	return ok && o.Far == p.Far && o.Scale == p.Scale && o.Size == p.Size &&
		p.Addr.IsSubsetOf(o.Addr) && p.Subscript.IsSubsetOf(o.Subscript)
}

type BitIndexPattern struct {
	Operand Pattern
	Index   int
}

func (p BitIndexPattern) Kind() PatternKind { return PatternBitIndex }
func (p BitIndexPattern) String() string    { return fmt.Sprintf("%s.%d", p.Operand, p.Index) }
func (p BitIndexPattern) Matches(op Operand) bool {
	b, ok := op.(BitIndex)
	return ok && b.Index == p.Index && p.Operand.Matches(b.Operand)
}
func (p BitIndexPattern) Extract(op Operand, captures *[]Operand) bool {
	b, ok := op.(BitIndex)
	return ok && b.Index == p.Index && p.Operand.Extract(b.Operand, captures)
}
func (p BitIndexPattern) IsSubsetOf(other Pattern) bool {
	o, ok := unwrapCapture(other).(BitIndexPattern)
	return ok && o.Index == p.Index && p.Operand.IsSubsetOf(o.Operand)
}

// PatternCaptureNode records the matched operand into the caller's
// capture list, in addition to whatever matching Inner performs.
type PatternCaptureNode struct {
	Inner Pattern
}

func (p PatternCaptureNode) Kind() PatternKind { return PatternCapture }
func (p PatternCaptureNode) String() string    { return fmt.Sprintf("capture(%s)", p.Inner) }
func (p PatternCaptureNode) Matches(op Operand) bool {
	return p.Inner.Matches(op)
}
func (p PatternCaptureNode) Extract(op Operand, captures *[]Operand) bool {
	if !p.Inner.Extract(op, captures) {
		return false
	}
	*captures = append(*captures, op)
	return true
}
func (p PatternCaptureNode) IsSubsetOf(other Pattern) bool {
	return p.Inner.IsSubsetOf(unwrapCapture(other))
}

// Capture wraps inner in a capturing pattern.
func Capture(inner Pattern) Pattern { return PatternCaptureNode{Inner: inner} }
