package ast

// Statement is the closed tagged union of statement-level nodes the
// compiler driver walks during passes 1, 4 and (transitively) 2/3.
type Statement interface {
	Loc() Location
	Clone() Statement
}

type stmtBase struct {
	loc Location
}

func (b stmtBase) Loc() Location { return b.loc }

// Block is a brace-delimited statement sequence; block-bearing
// statements (func/if/while/for/namespace/...) hold a *Block rather than
// embedding []Statement directly so the driver has one place to push/pop
// a fresh scope. Name is non-empty only for explicitly named blocks
// (namespaces); anonymous blocks get a generated "%hex%" name lazily
// from symtab.Scope.
type Block struct {
	stmtBase
	Name  string
	Stmts []Statement
}

func (s *Block) Clone() Statement {
	stmts := make([]Statement, len(s.Stmts))
	for i, st := range s.Stmts {
		stmts[i] = st.Clone()
	}
	return &Block{stmtBase: s.stmtBase, Name: s.Name, Stmts: stmts}
}

// Attribute is `#[name(args...)]` attached to the following statement.
type Attribute struct {
	Name string
	Args []Expression
	Loc  Location
}

func (a Attribute) Clone() Attribute {
	args := make([]Expression, len(a.Args))
	for i, e := range a.Args {
		args[i] = e.Clone()
	}
	return Attribute{Name: a.Name, Args: args, Loc: a.Loc}
}

// Attributed wraps any statement with its preceding `#[...]` attribute
// list, so the emitter can consult the active attribute stack.
type Attributed struct {
	stmtBase
	Attrs []Attribute
	Inner Statement
}

func (s *Attributed) Clone() Statement {
	attrs := make([]Attribute, len(s.Attrs))
	for i, a := range s.Attrs {
		attrs[i] = a.Clone()
	}
	return &Attributed{stmtBase: s.stmtBase, Attrs: attrs, Inner: s.Inner.Clone()}
}

// NamespaceDecl introduces a named scope; recursive imports link
// same-named namespaces across import graphs.
type NamespaceDecl struct {
	stmtBase
	Name string
	Body *Block
}

func (s *NamespaceDecl) Clone() Statement {
	return &NamespaceDecl{stmtBase: s.stmtBase, Name: s.Name, Body: s.Body.Clone().(*Block)}
}

// Param is a function parameter declaration.
type Param struct {
	Name string
	Type TypeExpression
}

// FuncDecl declares a function. Far marks a WDC65816-style far call;
// InlineOnly forbids a standalone call site (body is only ever spliced).
type FuncDecl struct {
	stmtBase
	Name       string
	Params     []Param
	ReturnType TypeExpression // nil for void
	Far        bool
	Inline     bool
	Body       *Block // nil for an `extern func` declaration
	Qualifiers Qualifiers
}

func (s *FuncDecl) Clone() Statement {
	params := make([]Param, len(s.Params))
	for i, p := range s.Params {
		params[i] = Param{Name: p.Name, Type: p.Type.Clone()}
	}
	c := &FuncDecl{stmtBase: s.stmtBase, Name: s.Name, Params: params, Far: s.Far, Inline: s.Inline, Qualifiers: s.Qualifiers}
	if s.ReturnType != nil {
		c.ReturnType = s.ReturnType.Clone()
	}
	if s.Body != nil {
		c.Body = s.Body.Clone().(*Block)
	}
	return c
}

// VarDecl declares a storage-bearing variable, optionally at an explicit
// absolute address and/or with an initializer.
type VarDecl struct {
	stmtBase
	Name        string
	Type        TypeExpression
	Address     Expression // explicit `@ address`, nil if absent
	Initializer Expression // nil if absent
	Qualifiers  Qualifiers
	BankName    string // bank the var resolves storage in; set at pass 1 from the enclosing `in` statement
}

func (s *VarDecl) Clone() Statement {
	c := &VarDecl{stmtBase: s.stmtBase, Name: s.Name, Type: s.Type.Clone(), Qualifiers: s.Qualifiers, BankName: s.BankName}
	if s.Address != nil {
		c.Address = s.Address.Clone()
	}
	if s.Initializer != nil {
		c.Initializer = s.Initializer.Clone()
	}
	return c
}

// LetDecl declares a compile-time constant name bound to an expression,
// evaluated (and cycle-checked) during pass 2.
type LetDecl struct {
	stmtBase
	Name string
	Type TypeExpression // nil if inferred
	Expr Expression
}

func (s *LetDecl) Clone() Statement {
	c := &LetDecl{stmtBase: s.stmtBase, Name: s.Name, Expr: s.Expr.Clone()}
	if s.Type != nil {
		c.Type = s.Type.Clone()
	}
	return c
}

// StructField is a field declaration inside a StructDecl.
type StructField struct {
	Name string
	Type TypeExpression
}

// StructDecl declares a struct or union (IsUnion distinguishes layout:
// union members overlap at offset 0).
type StructDecl struct {
	stmtBase
	Name    string
	Fields  []StructField
	IsUnion bool
}

func (s *StructDecl) Clone() Statement {
	fields := make([]StructField, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = StructField{Name: f.Name, Type: f.Type.Clone()}
	}
	return &StructDecl{stmtBase: s.stmtBase, Name: s.Name, Fields: fields, IsUnion: s.IsUnion}
}

// EnumMember is one member of an EnumDecl, with an optional explicit
// value expression (defaults to prior value + 1, or 0 for the first).
type EnumMember struct {
	Name  string
	Value Expression // nil if implicit
	Loc   Location
}

type EnumDecl struct {
	stmtBase
	Name     string
	BaseType TypeExpression // nil for the default backing type
	Members  []EnumMember
}

func (s *EnumDecl) Clone() Statement {
	members := make([]EnumMember, len(s.Members))
	for i, m := range s.Members {
		nm := EnumMember{Name: m.Name, Loc: m.Loc}
		if m.Value != nil {
			nm.Value = m.Value.Clone()
		}
		members[i] = nm
	}
	c := &EnumDecl{stmtBase: s.stmtBase, Name: s.Name, Members: members}
	if s.BaseType != nil {
		c.BaseType = s.BaseType.Clone()
	}
	return c
}

// TypeAliasDecl declares `typealias Name = Type`.
type TypeAliasDecl struct {
	stmtBase
	Name string
	Type TypeExpression
}

func (s *TypeAliasDecl) Clone() Statement {
	return &TypeAliasDecl{stmtBase: s.stmtBase, Name: s.Name, Type: s.Type.Clone()}
}

// BankKind tags the storage kind of a declared bank.
type BankKind int

const (
	BankKindNone BankKind = iota
	BankKindUninitializedRam
	BankKindInitializedRam
	BankKindProgramRom
	BankKindDataRom
	BankKindCharacterRom
)

func (k BankKind) String() string {
	switch k {
	case BankKindUninitializedRam:
		return "uninitialized_ram"
	case BankKindInitializedRam:
		return "initialized_ram"
	case BankKindProgramRom:
		return "program_rom"
	case BankKindDataRom:
		return "data_rom"
	case BankKindCharacterRom:
		return "char_rom"
	default:
		return "none"
	}
}

// BankDecl declares a named address region.
type BankDecl struct {
	stmtBase
	Name     string
	Kind     BankKind
	Origin   Expression // nil if unfixed (adopts the first seek's destination)
	Capacity Expression
	PadValue Expression // nil defaults to 0
}

func (s *BankDecl) Clone() Statement {
	c := &BankDecl{stmtBase: s.stmtBase, Name: s.Name, Kind: s.Kind, Capacity: s.Capacity.Clone()}
	if s.Origin != nil {
		c.Origin = s.Origin.Clone()
	}
	if s.PadValue != nil {
		c.PadValue = s.PadValue.Clone()
	}
	return c
}

// Import is `import "path"` (Recursive selects addRecursiveImport over
// AddImport).
type Import struct {
	stmtBase
	Path      string
	Recursive bool
}

func (s *Import) Clone() Statement {
	c := *s
	return &c
}

// InBank is `in <bank> [@ address] { ... }`; it pushes a relocation
// scope for the duration of Body.
type InBank struct {
	stmtBase
	BankName string
	Address  Expression // nil if absent
	Body     *Block
}

func (s *InBank) Clone() Statement {
	c := &InBank{stmtBase: s.stmtBase, BankName: s.BankName, Body: s.Body.Clone().(*Block)}
	if s.Address != nil {
		c.Address = s.Address.Clone()
	}
	return c
}

// Relocate is a mid-block `relocate <address>` seek that does not open a
// new relocation scope.
type Relocate struct {
	stmtBase
	Address Expression
}

func (s *Relocate) Clone() Statement {
	return &Relocate{stmtBase: s.stmtBase, Address: s.Address.Clone()}
}

// Assign is `lhs = rhs` or a compound assignment (`+=`, etc., encoded as
// Op != BinAssignPlain).
type AssignOpKind int

const (
	AssignPlain AssignOpKind = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignShl
	AssignShr
	AssignAnd
	AssignOr
	AssignXor
)

type Assign struct {
	stmtBase
	Op       AssignOpKind
	LHS, RHS Expression
}

func (s *Assign) Clone() Statement {
	return &Assign{stmtBase: s.stmtBase, Op: s.Op, LHS: s.LHS.Clone(), RHS: s.RHS.Clone()}
}

// ExprStmt is a bare expression evaluated for its side effects (a call).
type ExprStmt struct {
	stmtBase
	Expr Expression
}

func (s *ExprStmt) Clone() Statement {
	return &ExprStmt{stmtBase: s.stmtBase, Expr: s.Expr.Clone()}
}

// DistanceHint annotates a branch with a preferred encoding reach.
type DistanceHint int

const (
	DistanceDefault DistanceHint = iota
	DistanceShort
	DistanceLong
)

// If is `if cond { then } else { else }`, Else nil if absent. A branch
// may carry a distance hint only at the `goto`/explicit-branch level;
// If/While/For lower through the generic test-and-branch path and do
// not carry one directly.
type If struct {
	stmtBase
	Cond Expression
	Then *Block
	Else Statement // *Block or *If (else-if chain), nil if absent
}

func (s *If) Clone() Statement {
	c := &If{stmtBase: s.stmtBase, Cond: s.Cond.Clone(), Then: s.Then.Clone().(*Block)}
	if s.Else != nil {
		c.Else = s.Else.Clone()
	}
	return c
}

type While struct {
	stmtBase
	Label string // "" if unlabeled
	Cond  Expression
	Body  *Block
}

func (s *While) Clone() Statement {
	return &While{stmtBase: s.stmtBase, Label: s.Label, Cond: s.Cond.Clone(), Body: s.Body.Clone().(*Block)}
}

type DoWhile struct {
	stmtBase
	Label string
	Body  *Block
	Cond  Expression
}

func (s *DoWhile) Clone() Statement {
	return &DoWhile{stmtBase: s.stmtBase, Label: s.Label, Body: s.Body.Clone().(*Block), Cond: s.Cond.Clone()}
}

// For is `for Var in Seq by Step { Body }`; Step nil defaults to 1.
type For struct {
	stmtBase
	Label string
	Var   string
	Seq   Expression
	Step  Expression
	Body  *Block
}

func (s *For) Clone() Statement {
	c := &For{stmtBase: s.stmtBase, Label: s.Label, Var: s.Var, Seq: s.Seq.Clone(), Body: s.Body.Clone().(*Block)}
	if s.Step != nil {
		c.Step = s.Step.Clone()
	}
	return c
}

type Goto struct {
	stmtBase
	Label    string
	Distance DistanceHint
}

func (s *Goto) Clone() Statement {
	c := *s
	return &c
}

type LabelStmt struct {
	stmtBase
	Name string
}

func (s *LabelStmt) Clone() Statement {
	c := *s
	return &c
}

// Break/Continue optionally target a labeled enclosing loop rather than
// the innermost one.
type Break struct {
	stmtBase
	Label string
}

func (s *Break) Clone() Statement {
	c := *s
	return &c
}

type Continue struct {
	stmtBase
	Label string
}

func (s *Continue) Clone() Statement {
	c := *s
	return &c
}

type Return struct {
	stmtBase
	Value Expression // nil for void return
}

func (s *Return) Clone() Statement {
	c := &Return{stmtBase: s.stmtBase}
	if s.Value != nil {
		c.Value = s.Value.Clone()
	}
	return c
}

// ConfigEntry is one `key: expr` pair inside a `config { ... }` block.
type ConfigEntry struct {
	Key   string
	Value Expression
	Loc   Location
}

type ConfigDecl struct {
	stmtBase
	Entries []ConfigEntry
}

func (s *ConfigDecl) Clone() Statement {
	entries := make([]ConfigEntry, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = ConfigEntry{Key: e.Key, Value: e.Value.Clone(), Loc: e.Loc}
	}
	return &ConfigDecl{stmtBase: s.stmtBase, Entries: entries}
}
