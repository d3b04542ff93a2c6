// Package symtab implements the hierarchical symbol table (scopes) and
// the Definition entity that every named thing in a compiled program
// becomes: namespaces, vars, lets, funcs, structs/unions, enums (and
// their members), type aliases, banks, and platform-contributed
// registers/builtins.
package symtab

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/numeric"
)

// Kind tags the variant-specific payload carried by a Definition.
type Kind int

const (
	KindNamespace Kind = iota
	KindVar
	KindLet
	KindFunc
	KindStruct
	KindUnion
	KindEnum
	KindEnumMember
	KindTypeAlias
	KindBank
	KindRegister
	KindBuiltinType
	KindParam
	KindField
)

func (k Kind) String() string {
	names := [...]string{
		"namespace", "var", "let", "func", "struct", "union", "enum",
		"enum member", "typealias", "bank", "register", "builtin type",
		"param", "field",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "definition"
}

// Definition is a named, typed, possibly-addressable entity. Every
// definition lives in exactly one Scope (ParentScope) for its entire
// life; definitions are never deleted, only superseded by failing to be
// inserted (see Scope.AddDefinition).
//
// Variant-specific state is carried in flat optional fields rather than
// a payload interface (see internal/ast's Statement/Expression docs for
// the alternative interface-based style used where child polymorphism
// matters more than flat field access).
type Definition struct {
	Name        string
	Kind        Kind
	Loc         ast.Location
	ParentScope *Scope // weak: never walked during teardown

	// Address is set once storage is reserved (pass 3 for Var/Const, or
	// at IR layout time for code labels). Nil until then.
	Address *bank.Address

	// ResolvedType is filled in during pass 2 (resolveDefinitionTypes).
	ResolvedType ast.TypeExpression

	Qualifiers ast.Qualifiers

	// Namespace is the inner scope for Kind == KindNamespace.
	Namespace *Scope

	// Func payload.
	Params     []ast.Param
	ReturnType ast.TypeExpression
	Far        bool
	Inline     bool
	Body       *ast.Block

	// Var/Let payload.
	Initializer    ast.Expression // declared (pre-fold) initializer/value expression
	FoldedConstant ast.Expression // the folded literal, once pass 2 completes for a Let
	DeclaredAddr   ast.Expression // explicit `@ address`, nil if absent
	BankName       string

	// Struct/Union payload.
	IsUnion bool
	Fields  []ast.StructField

	// Enum payload.
	BaseType ast.TypeExpression
	Members  []*Definition // KindEnumMember children, in declaration order

	// EnumMember payload.
	EnumParent *Definition
	EnumValue  numeric.Int128 // valid once pass 2 folds it

	// Bank payload.
	BankKind     ast.BankKind
	BankOrigin   ast.Expression
	BankCapacity ast.Expression
	BankPadValue ast.Expression
	BankHandle   *bank.Bank // created at pass 3 entry

	// Register/BuiltinType payload (contributed by a platform).
	RegisterID int
}

// DefName implements ast.DefHandle.
func (d *Definition) DefName() string { return d.Name }

// DefLocation implements ast.DefHandle.
func (d *Definition) DefLocation() ast.Location { return d.Loc }

// QualifiedName renders the definition's fully-qualified dotted path by
// walking ParentScope links to the nearest root, matching the debug
// formatters' naming contract.
func (d *Definition) QualifiedName() string {
	parts := []string{d.Name}
	for s := d.ParentScope; s != nil && s.Parent != nil; s = s.Parent {
		if s.Name != "" {
			parts = append([]string{s.Name}, parts...)
		}
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}
