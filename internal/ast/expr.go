package ast

import "github.com/wiz-lang/wiz/internal/numeric"

// ExprKind tags each Expression variant for exhaustive switches, letting
// callers classify a node without a type assertion when only the tag is
// needed (diagnostics, instruction-selection dispatch).
type ExprKind int

const (
	KindArrayComprehension ExprKind = iota
	KindArrayPadLiteral
	KindArrayLiteral
	KindBinaryOp
	KindBooleanLit
	KindCall
	KindCast
	KindEmbed
	KindFieldAccess
	KindIdentifier
	KindIntegerLit
	KindOffsetOf
	KindRangeLit
	KindResolvedIdentifier
	KindSideEffect
	KindStringLit
	KindStructLit
	KindTupleLit
	KindTypeOf
	KindTypeQuery
	KindUnaryOp
)

// ExprInfo is the once-set semantic-analysis record attached to an
// Expression: its resolved evaluation context, its typed TypeExpression,
// and analysis flags. A nil Info means the node hasn't been through
// semantic analysis yet.
type ExprInfo struct {
	Context EvalContext
	Type    TypeExpression
	Flags   ExprFlags
}

// Expression is the closed tagged union of source (and synthesized)
// expression nodes. Implementations are exhaustive by construction: the
// set of concrete types below is the universe, matched via Kind() or a
// type switch.
type Expression interface {
	Kind() ExprKind
	Loc() Location
	Info() *ExprInfo
	SetInfo(*ExprInfo)
	// Clone returns a deep, independently mutable copy: children are
	// cloned, Loc and Info (if present) are preserved.
	Clone() Expression
}

type exprBase struct {
	loc  Location
	info *ExprInfo
}

func (b *exprBase) Loc() Location    { return b.loc }
func (b *exprBase) Info() *ExprInfo  { return b.info }
func (b *exprBase) SetInfo(i *ExprInfo) { b.info = i }

// BinaryOpKind enumerates the operators a BinaryOp expression may carry.
type BinaryOpKind int

const (
	BinAdd BinaryOpKind = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinShl
	BinLogicalShl
	BinShr
	BinLogicalShr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinLogicalAnd
	BinLogicalOr
	BinConcat
)

// ToNumericOp maps an arithmetic/bitwise BinaryOpKind onto numeric.Op.
// Logical (&&/||) and Concat operators are handled by the folder
// directly and have no numeric.Op counterpart.
func (k BinaryOpKind) ToNumericOp() (numeric.Op, bool) {
	switch k {
	case BinAdd:
		return numeric.OpAdd, true
	case BinSub:
		return numeric.OpSub, true
	case BinMul:
		return numeric.OpMul, true
	case BinDiv:
		return numeric.OpDiv, true
	case BinMod:
		return numeric.OpMod, true
	case BinShl:
		return numeric.OpShl, true
	case BinLogicalShl:
		return numeric.OpLogicalShl, true
	case BinShr:
		return numeric.OpShr, true
	case BinLogicalShr:
		return numeric.OpLogicalShr, true
	case BinBitAnd:
		return numeric.OpBitAnd, true
	case BinBitOr:
		return numeric.OpBitOr, true
	case BinBitXor:
		return numeric.OpBitXor, true
	case BinEq:
		return numeric.OpEq, true
	case BinNe:
		return numeric.OpNe, true
	case BinLt:
		return numeric.OpLt, true
	case BinLe:
		return numeric.OpLe, true
	case BinGt:
		return numeric.OpGt, true
	case BinGe:
		return numeric.OpGe, true
	default:
		return 0, false
	}
}

// UnaryOpKind enumerates unary operators.
type UnaryOpKind int

const (
	UnaryNeg UnaryOpKind = iota
	UnaryNot
	UnaryBitNot
	UnaryAddressOf
	UnaryFarAddressOf
	UnaryLowByte
	UnaryHighByte
)

// TypeQueryKind enumerates the `is_*` family of type predicates.
type TypeQueryKind int

const (
	QueryIsType TypeQueryKind = iota
	QueryIsStruct
	QueryIsUnion
	QueryIsEnum
	QueryIsArray
	QueryIsPointer
	QueryIsFunc
)

// --- Literal and leaf variants ---

type IntegerLit struct {
	exprBase
	Value numeric.Int128
	// Base is preserved from the token only for diagnostic re-rendering
	// (e.g. echoing a hex literal back in an error); it has no semantic
	// effect on Value.
	Base int
}

func (e *IntegerLit) Kind() ExprKind { return KindIntegerLit }
func (e *IntegerLit) Clone() Expression {
	c := *e
	return &c
}

func NewIntegerLit(loc Location, v numeric.Int128, base int) *IntegerLit {
	return &IntegerLit{exprBase: exprBase{loc: loc}, Value: v, Base: base}
}

type BooleanLit struct {
	exprBase
	Value bool
}

func (e *BooleanLit) Kind() ExprKind { return KindBooleanLit }
func (e *BooleanLit) Clone() Expression {
	c := *e
	return &c
}

func NewBooleanLit(loc Location, v bool) *BooleanLit {
	return &BooleanLit{exprBase: exprBase{loc: loc}, Value: v}
}

type StringLit struct {
	exprBase
	Value string
}

func (e *StringLit) Kind() ExprKind { return KindStringLit }
func (e *StringLit) Clone() Expression {
	c := *e
	return &c
}

type Identifier struct {
	exprBase
	// Path supports qualified references (namespace.name); most
	// identifiers have a single element.
	Path []string
}

func (e *Identifier) Kind() ExprKind { return KindIdentifier }
func (e *Identifier) Clone() Expression {
	c := *e
	c.Path = append([]string(nil), e.Path...)
	return &c
}

// ResolvedIdentifier replaces an Identifier once name resolution has
// bound it to a concrete Definition.
type ResolvedIdentifier struct {
	exprBase
	Def DefHandle
}

func (e *ResolvedIdentifier) Kind() ExprKind { return KindResolvedIdentifier }
func (e *ResolvedIdentifier) Clone() Expression {
	c := *e
	return &c
}

// --- Composite variants ---

type BinaryOp struct {
	exprBase
	Op          BinaryOpKind
	Left, Right Expression
}

func (e *BinaryOp) Kind() ExprKind { return KindBinaryOp }
func (e *BinaryOp) Clone() Expression {
	return &BinaryOp{exprBase: e.exprBase, Op: e.Op, Left: e.Left.Clone(), Right: e.Right.Clone()}
}

type UnaryOp struct {
	exprBase
	Op      UnaryOpKind
	Operand Expression
}

func (e *UnaryOp) Kind() ExprKind { return KindUnaryOp }
func (e *UnaryOp) Clone() Expression {
	return &UnaryOp{exprBase: e.exprBase, Op: e.Op, Operand: e.Operand.Clone()}
}

type Call struct {
	exprBase
	Callee     Expression
	Args       []Expression
	IsInlined  bool
}

func (e *Call) Kind() ExprKind { return KindCall }
func (e *Call) Clone() Expression {
	args := make([]Expression, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.Clone()
	}
	return &Call{exprBase: e.exprBase, Callee: e.Callee.Clone(), Args: args, IsInlined: e.IsInlined}
}

type Cast struct {
	exprBase
	Target  TypeExpression
	Operand Expression
}

func (e *Cast) Kind() ExprKind { return KindCast }
func (e *Cast) Clone() Expression {
	return &Cast{exprBase: e.exprBase, Target: e.Target.Clone(), Operand: e.Operand.Clone()}
}

type Embed struct {
	exprBase
	Path string
}

func (e *Embed) Kind() ExprKind { return KindEmbed }
func (e *Embed) Clone() Expression {
	c := *e
	return &c
}

type FieldAccess struct {
	exprBase
	Base  Expression
	Field string
}

func (e *FieldAccess) Kind() ExprKind { return KindFieldAccess }
func (e *FieldAccess) Clone() Expression {
	return &FieldAccess{exprBase: e.exprBase, Base: e.Base.Clone(), Field: e.Field}
}

type ArrayLiteral struct {
	exprBase
	Elements []Expression
}

func (e *ArrayLiteral) Kind() ExprKind { return KindArrayLiteral }
func (e *ArrayLiteral) Clone() Expression {
	els := make([]Expression, len(e.Elements))
	for i, el := range e.Elements {
		els[i] = el.Clone()
	}
	return &ArrayLiteral{exprBase: e.exprBase, Elements: els}
}

// ArrayPadLiteral is `[value; count]`-style padding literal.
type ArrayPadLiteral struct {
	exprBase
	Value Expression
	Size  Expression
}

func (e *ArrayPadLiteral) Kind() ExprKind { return KindArrayPadLiteral }
func (e *ArrayPadLiteral) Clone() Expression {
	return &ArrayPadLiteral{exprBase: e.exprBase, Value: e.Value.Clone(), Size: e.Size.Clone()}
}

// ArrayComprehension is `[expr for Var in Seq (if Condition)?]`.
type ArrayComprehension struct {
	exprBase
	Element   Expression
	Var       string
	Seq       Expression
	Condition Expression // nil if absent
}

func (e *ArrayComprehension) Kind() ExprKind { return KindArrayComprehension }
func (e *ArrayComprehension) Clone() Expression {
	c := &ArrayComprehension{exprBase: e.exprBase, Element: e.Element.Clone(), Var: e.Var, Seq: e.Seq.Clone()}
	if e.Condition != nil {
		c.Condition = e.Condition.Clone()
	}
	return c
}

type RangeLit struct {
	exprBase
	Low, High Expression
}

func (e *RangeLit) Kind() ExprKind { return KindRangeLit }
func (e *RangeLit) Clone() Expression {
	return &RangeLit{exprBase: e.exprBase, Low: e.Low.Clone(), High: e.High.Clone()}
}

type OffsetOf struct {
	exprBase
	Type  TypeExpression
	Field string
}

func (e *OffsetOf) Kind() ExprKind { return KindOffsetOf }
func (e *OffsetOf) Clone() Expression {
	return &OffsetOf{exprBase: e.exprBase, Type: e.Type.Clone(), Field: e.Field}
}

type TypeOf struct {
	exprBase
	Operand Expression
}

func (e *TypeOf) Kind() ExprKind { return KindTypeOf }
func (e *TypeOf) Clone() Expression {
	return &TypeOf{exprBase: e.exprBase, Operand: e.Operand.Clone()}
}

type TypeQuery struct {
	exprBase
	Query TypeQueryKind
	Type  TypeExpression
}

func (e *TypeQuery) Kind() ExprKind { return KindTypeQuery }
func (e *TypeQuery) Clone() Expression {
	return &TypeQuery{exprBase: e.exprBase, Query: e.Query, Type: e.Type.Clone()}
}

type StructLitField struct {
	Name  string
	Value Expression
}

type StructLit struct {
	exprBase
	Type   TypeExpression
	Fields []StructLitField
}

func (e *StructLit) Kind() ExprKind { return KindStructLit }
func (e *StructLit) Clone() Expression {
	fields := make([]StructLitField, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = StructLitField{Name: f.Name, Value: f.Value.Clone()}
	}
	var t TypeExpression
	if e.Type != nil {
		t = e.Type.Clone()
	}
	return &StructLit{exprBase: e.exprBase, Type: t, Fields: fields}
}

type TupleLit struct {
	exprBase
	Elements []Expression
}

func (e *TupleLit) Kind() ExprKind { return KindTupleLit }
func (e *TupleLit) Clone() Expression {
	els := make([]Expression, len(e.Elements))
	for i, el := range e.Elements {
		els[i] = el.Clone()
	}
	return &TupleLit{exprBase: e.exprBase, Elements: els}
}

// SideEffect wraps a statement that must run for its Result expression's
// value to be valid (e.g. a call materialized as a temporary during
// lowering). The statement lives under its own inline site once emitted.
type SideEffect struct {
	exprBase
	Stmt   Statement
	Result Expression
}

func (e *SideEffect) Kind() ExprKind { return KindSideEffect }
func (e *SideEffect) Clone() Expression {
	return &SideEffect{exprBase: e.exprBase, Stmt: e.Stmt.Clone(), Result: e.Result.Clone()}
}
