package ast

// TypeExprKind tags each TypeExpression variant.
type TypeExprKind int

const (
	TypeKindArray TypeExprKind = iota
	TypeKindDesignatedStorage
	TypeKindFunction
	TypeKindIdentifier
	TypeKindPointer
	TypeKindResolvedIdentifier
	TypeKindTuple
	TypeKindTypeOf
)

// TypeExpression is the closed tagged union of type-position nodes.
type TypeExpression interface {
	TypeKind() TypeExprKind
	Loc() Location
	Clone() TypeExpression
}

type typeExprBase struct {
	loc Location
}

func (b typeExprBase) Loc() Location { return b.loc }

// ArrayType is `[ElementType; Size]` or `[ElementType]` (Size == nil for
// an unsized/open array, valid only in certain storage positions).
type ArrayType struct {
	typeExprBase
	Element TypeExpression
	Size    Expression // nil if unsized
}

func (t *ArrayType) TypeKind() TypeExprKind { return TypeKindArray }
func (t *ArrayType) Clone() TypeExpression {
	c := &ArrayType{typeExprBase: t.typeExprBase, Element: t.Element.Clone()}
	if t.Size != nil {
		c.Size = t.Size.Clone()
	}
	return c
}

// DesignatedStorageType names an element type stored inside a holder
// type (e.g. a `var` whose storage is carved out of a packed register).
type DesignatedStorageType struct {
	typeExprBase
	Element TypeExpression
	Holder  TypeExpression
}

func (t *DesignatedStorageType) TypeKind() TypeExprKind { return TypeKindDesignatedStorage }
func (t *DesignatedStorageType) Clone() TypeExpression {
	return &DesignatedStorageType{typeExprBase: t.typeExprBase, Element: t.Element.Clone(), Holder: t.Holder.Clone()}
}

// FunctionType is a function signature used in type position (e.g. a
// function pointer).
type FunctionType struct {
	typeExprBase
	Far        bool
	Params     []TypeExpression
	ReturnType TypeExpression // nil for void
}

func (t *FunctionType) TypeKind() TypeExprKind { return TypeKindFunction }
func (t *FunctionType) Clone() TypeExpression {
	params := make([]TypeExpression, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Clone()
	}
	c := &FunctionType{typeExprBase: t.typeExprBase, Far: t.Far, Params: params}
	if t.ReturnType != nil {
		c.ReturnType = t.ReturnType.Clone()
	}
	return c
}

// IdentifierType is an unresolved `path.to.Name` reference.
type IdentifierType struct {
	typeExprBase
	Path []string
}

func (t *IdentifierType) TypeKind() TypeExprKind { return TypeKindIdentifier }
func (t *IdentifierType) Clone() TypeExpression {
	return &IdentifierType{typeExprBase: t.typeExprBase, Path: append([]string(nil), t.Path...)}
}

// PointerType is `*ElementType` or `far *ElementType`, with qualifiers
// applying to the pointee.
type PointerType struct {
	typeExprBase
	Element    TypeExpression
	Qualifiers Qualifiers
}

func (t *PointerType) TypeKind() TypeExprKind { return TypeKindPointer }
func (t *PointerType) Clone() TypeExpression {
	return &PointerType{typeExprBase: t.typeExprBase, Element: t.Element.Clone(), Qualifiers: t.Qualifiers}
}

// ResolvedIdentifierType replaces an IdentifierType once name resolution
// bound it to a concrete Definition (struct/enum/alias/builtin).
type ResolvedIdentifierType struct {
	typeExprBase
	Def DefHandle
}

func (t *ResolvedIdentifierType) TypeKind() TypeExprKind { return TypeKindResolvedIdentifier }
func (t *ResolvedIdentifierType) Clone() TypeExpression {
	c := *t
	return &c
}

// TupleType is `(T1, T2, ...)`.
type TupleType struct {
	typeExprBase
	Elements []TypeExpression
}

func (t *TupleType) TypeKind() TypeExprKind { return TypeKindTuple }
func (t *TupleType) Clone() TypeExpression {
	els := make([]TypeExpression, len(t.Elements))
	for i, e := range t.Elements {
		els[i] = e.Clone()
	}
	return &TupleType{typeExprBase: t.typeExprBase, Elements: els}
}

// TypeOfType is `typeof(expr)`, inlined to a concrete type during
// pass 2 by analyzing Expr.
type TypeOfType struct {
	typeExprBase
	Expr Expression
}

func (t *TypeOfType) TypeKind() TypeExprKind { return TypeKindTypeOf }
func (t *TypeOfType) Clone() TypeExpression {
	return &TypeOfType{typeExprBase: t.typeExprBase, Expr: t.Expr.Clone()}
}

// NewIdentifierType is a convenience constructor mirroring the parser's
// production for a bare type name.
func NewIdentifierType(loc Location, path ...string) *IdentifierType {
	return &IdentifierType{typeExprBase: typeExprBase{loc: loc}, Path: path}
}
