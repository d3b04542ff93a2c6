// Package compiler implements the driver that turns a parsed program
// into finished bank bytes: five passes over the AST (reserve
// definitions, resolve definition types, reserve storage, emit IR,
// generate code), constant folding, and the fixpoint branch-distance
// layout that produces a stable set of instruction encodings before
// any byte is written.
package compiler

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/platform"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// Compiler drives a single compilation: one root symbol scope, one
// target platform, one bank manager, and the IR stream pass 4
// produces for pass 5 to lay out and emit.
type Compiler struct {
	Platform platform.Platform
	Report   *diag.Report
	Banks    *bank.Manager

	embed EmbedReader
	root  *symtab.Scope
	names symtab.NameGenerator

	ir        []IRNode
	bankStack []*bank.Bank
	loopStack []loopContext

	// Pass-4 emission state: the current mode-flag bitset (seeded from
	// the platform's reset state, adjusted by mode attributes), the
	// return-label stack for spliced inline call bodies, and the return
	// intrinsic the enclosing function's attributes selected.
	mode         uint32
	inlineReturn []string
	inlineDepth  int
	retIntrinsic string
}

type loopContext struct {
	label         string
	continueLabel string
	endLabel      string
}

// NewCompiler constructs a Compiler with plat's builtins already
// installed in the root scope.
func NewCompiler(plat platform.Platform, report *diag.Report, banks *bank.Manager) *Compiler {
	c := &Compiler{Platform: plat, Report: report, Banks: banks, root: symtab.NewScope("", nil)}
	plat.RegisterDefinitions(c.root)
	return c
}

// SetEmbedReader attaches the resource reader `embed` expressions are
// resolved through; without one, an embed expression diagnoses rather
// than reading a file.
func (c *Compiler) SetEmbedReader(r EmbedReader) { c.embed = r }

// RootScope returns the top-level scope, populated once ReserveDefinitions
// has run.
func (c *Compiler) RootScope() *symtab.Scope { return c.root }

// IR returns the instruction stream pass 4 produced, for inspection by
// tests and debug formatters after Compile has run.
func (c *Compiler) IR() []IRNode { return c.ir }

// Compile runs all five passes over program in order, stopping early
// if any pass leaves the report in an error state.
func (c *Compiler) Compile(program []ast.Statement) {
	c.ReserveDefinitions(program, c.root, "")
	if c.Report.HasErrors() {
		return
	}
	c.ResolveDefinitionTypes(c.root)
	if c.Report.HasErrors() {
		return
	}
	c.ReserveStorage(c.root)
	if c.Report.HasErrors() {
		return
	}
	c.EmitIR(program)
	if c.Report.HasErrors() {
		return
	}
	c.GenerateCode()
}

// --- Pass 1: reserve definitions ---

// ReserveDefinitions walks stmts, installing a Definition for every
// declaration into scope (recursing into namespaces and `in` blocks,
// which only affect the BankName a nested var inherits). Bare `import`
// statements are accepted as structural no-ops: resolving what they
// name against other source files is the job of the layer that drives
// multiple compilation units, above this package.
func (c *Compiler) ReserveDefinitions(stmts []ast.Statement, scope *symtab.Scope, bankName string) {
	for _, stmt := range stmts {
		c.reserveStatement(stmt, scope, bankName)
	}
}

func (c *Compiler) reserveStatement(stmt ast.Statement, scope *symtab.Scope, bankName string) {
	switch s := stmt.(type) {
	case *ast.Attributed:
		if !c.conditionallyCompiled(s, scope) {
			return
		}
		c.reserveStatement(s.Inner, scope, bankName)
	case *ast.Import:
		// Cross-file resolution happens above this package.
	case *ast.ConfigDecl:
		// Target/format selection is consumed by the command-line driver
		// before this package ever sees the program.
	case *ast.LabelStmt, *ast.Relocate:
		// Position-affecting directives inside an `in` block; pass 4
		// owns them.
	case *ast.NamespaceDecl:
		inner := symtab.NewScope(s.Name, scope)
		def := &symtab.Definition{Name: s.Name, Kind: symtab.KindNamespace, Loc: s.Loc(), Namespace: inner}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
			return
		}
		c.ReserveDefinitions(s.Body.Stmts, inner, bankName)
	case *ast.InBank:
		c.ReserveDefinitions(s.Body.Stmts, scope, s.BankName)
	case *ast.VarDecl:
		def := &symtab.Definition{
			Name: s.Name, Kind: symtab.KindVar, Loc: s.Loc(),
			ResolvedType: s.Type, Qualifiers: s.Qualifiers,
			Initializer: s.Initializer, DeclaredAddr: s.Address, BankName: bankName,
		}
		if s.BankName != "" {
			def.BankName = s.BankName
		}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	case *ast.LetDecl:
		def := &symtab.Definition{Name: s.Name, Kind: symtab.KindLet, Loc: s.Loc(), ResolvedType: s.Type, Initializer: s.Expr}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	case *ast.FuncDecl:
		def := &symtab.Definition{
			Name: s.Name, Kind: symtab.KindFunc, Loc: s.Loc(), Qualifiers: s.Qualifiers,
			Params: s.Params, ReturnType: s.ReturnType, Far: s.Far, Inline: s.Inline, Body: s.Body,
			BankName: bankName,
		}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	case *ast.StructDecl:
		def := &symtab.Definition{Name: s.Name, Kind: symtab.KindStruct, Loc: s.Loc(), IsUnion: s.IsUnion, Fields: s.Fields}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	case *ast.EnumDecl:
		def := &symtab.Definition{Name: s.Name, Kind: symtab.KindEnum, Loc: s.Loc(), BaseType: s.BaseType}
		for _, m := range s.Members {
			member := &symtab.Definition{Name: m.Name, Kind: symtab.KindEnumMember, Loc: m.Loc, Initializer: m.Value, EnumParent: def}
			def.Members = append(def.Members, member)
			if d := scope.AddDefinition(member); d != nil {
				c.Report.Add(*d)
			}
		}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	case *ast.TypeAliasDecl:
		def := &symtab.Definition{Name: s.Name, Kind: symtab.KindTypeAlias, Loc: s.Loc(), ResolvedType: s.Type}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	case *ast.BankDecl:
		def := &symtab.Definition{
			Name: s.Name, Kind: symtab.KindBank, Loc: s.Loc(),
			BankKind: s.Kind, BankOrigin: s.Origin, BankCapacity: s.Capacity, BankPadValue: s.PadValue,
		}
		if d := scope.AddDefinition(def); d != nil {
			c.Report.Add(*d)
		}
	default:
		c.Report.Errorf(stmt.Loc(), "this statement is not valid outside a function body")
	}
}

// conditionallyCompiled evaluates the `#[if cond]` attributes on s,
// reporting whether the wrapped statement is part of this compilation
// at all. A condition that does not fold to a constant boolean is
// diagnosed and treated as false. Other attribute names are left for
// the IR emitter, which owns the attribute stack.
func (c *Compiler) conditionallyCompiled(s *ast.Attributed, scope *symtab.Scope) bool {
	for _, a := range s.Attrs {
		if a.Name != "if" {
			continue
		}
		if len(a.Args) != 1 {
			c.Report.Errorf(a.Loc, "attribute 'if' takes exactly one argument")
			return false
		}
		folded := ReduceExpression(a.Args[0], scope, c.Report, c.embed)
		lit, ok := folded.(*ast.BooleanLit)
		if !ok {
			c.Report.Errorf(a.Args[0].Loc(), "conditional-compilation condition must fold to a constant boolean")
			return false
		}
		if !lit.Value {
			return false
		}
	}
	return true
}

// --- Pass 2: resolve definition types ---

// ResolveDefinitionTypes folds every Let and enum member's value in
// scope (recursing into namespaces) and substitutes single-element
// identifier type references with the struct/enum/typealias definition
// they name, found in this scope or an enclosing one (builtin types
// included). Qualified
// (namespace-prefixed) type names are left unresolved; this driver
// does not implement cross-namespace type lookup.
func (c *Compiler) ResolveDefinitionTypes(scope *symtab.Scope) {
	for _, def := range scope.DefinitionsInOrder() {
		switch def.Kind {
		case symtab.KindNamespace:
			c.ResolveDefinitionTypes(def.Namespace)
		case symtab.KindLet:
			FoldLetDefinition(def, scope, c.Report, c.embed)
			def.ResolvedType = c.resolveType(def.ResolvedType, scope)
		case symtab.KindVar:
			def.ResolvedType = c.resolveType(def.ResolvedType, scope)
		case symtab.KindEnum:
			FoldEnumMembers(def, scope, c.Report, c.embed)
			def.BaseType = c.resolveType(def.BaseType, scope)
		case symtab.KindTypeAlias:
			def.ResolvedType = c.resolveType(def.ResolvedType, scope)
		case symtab.KindStruct:
			for i := range def.Fields {
				def.Fields[i].Type = c.resolveType(def.Fields[i].Type, scope)
			}
		case symtab.KindFunc:
			for i := range def.Params {
				def.Params[i].Type = c.resolveType(def.Params[i].Type, scope)
			}
			if def.ReturnType != nil {
				def.ReturnType = c.resolveType(def.ReturnType, scope)
			}
		}
	}
}

func (c *Compiler) resolveType(t ast.TypeExpression, scope *symtab.Scope) ast.TypeExpression {
	if t == nil {
		return nil
	}
	switch n := t.(type) {
	case *ast.IdentifierType:
		if len(n.Path) != 1 {
			return t
		}
		defs := scope.FindUnqualifiedDefinitions(n.Path[0])
		if len(defs) != 1 {
			return t
		}
		switch defs[0].Kind {
		case symtab.KindStruct, symtab.KindEnum, symtab.KindTypeAlias, symtab.KindBuiltinType:
			return &ast.ResolvedIdentifierType{Def: defs[0]}
		default:
			return t
		}
	case *ast.ArrayType:
		return &ast.ArrayType{Element: c.resolveType(n.Element, scope), Size: n.Size}
	case *ast.PointerType:
		return &ast.PointerType{Element: c.resolveType(n.Element, scope), Qualifiers: n.Qualifiers}
	case *ast.TupleType:
		els := make([]ast.TypeExpression, len(n.Elements))
		for i, e := range n.Elements {
			els[i] = c.resolveType(e, scope)
		}
		return &ast.TupleType{Elements: els}
	default:
		return t
	}
}

// --- Pass 3: reserve storage ---

// ReserveStorage creates each bank's backing Bank, fixes its origin
// when the declaration supplied one, and reserves (and, for an
// initialized var, writes) every var's storage range within its named
// bank. A bank without an explicit origin is usable for position-
// independent code through label resolution in pass 5, but a var
// placed in one cannot be given a fixed address: referencing such a
// var from code is reported at IR-emission time.
func (c *Compiler) ReserveStorage(scope *symtab.Scope) {
	for _, def := range scope.DefinitionsInOrder() {
		if def.Kind == symtab.KindBank {
			c.reserveBank(def, scope)
		}
	}
	c.reserveVars(scope)
}

func (c *Compiler) reserveBank(def *symtab.Definition, scope *symtab.Scope) {
	capacity := int64(0x10000)
	if def.BankCapacity != nil {
		capacity = c.foldToInt64(def.BankCapacity, scope, "bank capacity")
	}
	var pad byte
	if def.BankPadValue != nil {
		pad = byte(c.foldToInt64(def.BankPadValue, scope, "bank pad value"))
	}
	b := c.Banks.Declare(def.Name, bank.FromASTKind(def.BankKind), capacity, pad)
	if b == nil {
		c.Report.Errorf(def.Loc, "bank '%s' is declared more than once", def.Name)
		return
	}
	if def.BankOrigin != nil {
		b.SetOrigin(c.foldToInt64(def.BankOrigin, scope, "bank origin"))
	}
	def.BankHandle = b
}

func (c *Compiler) foldToInt64(e ast.Expression, scope *symtab.Scope, what string) int64 {
	folded := ReduceExpression(e, scope, c.Report, c.embed)
	lit, ok := folded.(*ast.IntegerLit)
	if !ok {
		c.Report.Errorf(e.Loc(), "%s must be a constant integer", what)
		return 0
	}
	return lit.Value.Int64()
}

func (c *Compiler) reserveVars(scope *symtab.Scope) {
	for _, def := range scope.DefinitionsInOrder() {
		switch def.Kind {
		case symtab.KindNamespace:
			c.reserveVars(def.Namespace)
		case symtab.KindVar:
			c.reserveVar(def, scope)
		}
	}
}

func (c *Compiler) reserveVar(def *symtab.Definition, scope *symtab.Scope) {
	if def.Qualifiers.Has(ast.QualExtern) {
		// Extern storage belongs to someone else (hardware registers,
		// another program); record the declared address, reserve
		// nothing.
		if def.DeclaredAddr != nil {
			abs := c.foldToInt64(def.DeclaredAddr, scope, "variable address")
			b := c.Banks.Lookup(def.BankName)
			if b != nil && b.HasOrigin() {
				def.Address = &bank.Address{Relative: abs - b.Origin(), Bank: b}
			} else {
				anchor := bank.New(def.Name, bank.KindNone, 1, 0)
				anchor.SetOrigin(abs)
				def.Address = &bank.Address{Relative: 0, Bank: anchor}
			}
		}
		return
	}
	if def.BankName == "" {
		c.Report.Errorf(def.Loc, "variable '%s' is not placed in any bank", def.Name)
		return
	}
	b := c.Banks.Lookup(def.BankName)
	if b == nil {
		c.Report.Errorf(def.Loc, "variable '%s' references undeclared bank '%s'", def.Name, def.BankName)
		return
	}
	size := c.sizeOfType(def.ResolvedType)
	if def.DeclaredAddr != nil && b.HasOrigin() {
		abs := c.foldToInt64(def.DeclaredAddr, scope, "variable address")
		rel := abs - b.Origin()
		b.SeekRelative(rel)
	}
	start := b.RelativePosition()
	var d *diag.Diagnostic
	if b.Kind.IsWritable() {
		d = b.ReserveRam(def.Name, def, def.Loc, size)
	} else {
		d = b.ReserveRom(def.Name, def, def.Loc, size)
	}
	if d != nil {
		c.Report.Add(*d)
		return
	}
	def.Address = &bank.Address{Relative: start, Bank: b}
	if def.Initializer != nil {
		folded := ReduceExpression(def.Initializer, scope, c.Report, c.embed)
		data := c.serializeInitializer(def, folded, def.ResolvedType, size, scope)
		if data != nil {
			b.SeekRelative(start)
			if d := b.Write(def.Name, def, def.Loc, data); d != nil {
				c.Report.Add(*d)
			}
			b.SeekRelative(start + size)
		}
	}
}

// sizeOfType returns the storage size in bytes of t: builtin scalar
// widths, fixed-size arrays, struct field sums (union field maxima),
// enum base types, and alias chains. Anything else defaults to 1.
func (c *Compiler) sizeOfType(t ast.TypeExpression) int64 {
	return c.sizeOfTypeDepth(t, 0)
}

// maxTypeNesting caps alias/struct recursion so a self-referential type
// cannot hang storage sizing.
const maxTypeNesting = 16

func (c *Compiler) sizeOfTypeDepth(t ast.TypeExpression, depth int) int64 {
	if depth > maxTypeNesting {
		return 1
	}
	switch n := t.(type) {
	case *ast.IdentifierType:
		if len(n.Path) == 1 {
			if bits, _, ok := builtinIntWidth(n.Path[0]); ok {
				return int64((bits + 7) / 8)
			}
			if def := c.lookupTypeDef(n.Path[0]); def != nil {
				return c.sizeOfDefinitionDepth(def, depth+1)
			}
		}
		return 1
	case *ast.ResolvedIdentifierType:
		if def, ok := n.Def.(*symtab.Definition); ok {
			return c.sizeOfDefinitionDepth(def, depth+1)
		}
		return 1
	case *ast.ArrayType:
		elemSize := c.sizeOfTypeDepth(n.Element, depth+1)
		if n.Size == nil {
			return elemSize
		}
		folded := ReduceExpression(n.Size, c.root, c.Report, c.embed)
		if lit, ok := folded.(*ast.IntegerLit); ok {
			return elemSize * lit.Value.Int64()
		}
		return elemSize
	default:
		return 1
	}
}

func (c *Compiler) sizeOfDefinitionDepth(def *symtab.Definition, depth int) int64 {
	switch def.Kind {
	case symtab.KindStruct:
		total := int64(0)
		for _, field := range def.Fields {
			fieldSize := c.sizeOfTypeDepth(field.Type, depth+1)
			if def.IsUnion {
				if fieldSize > total {
					total = fieldSize
				}
			} else {
				total += fieldSize
			}
		}
		if total == 0 {
			total = 1
		}
		return total
	case symtab.KindTypeAlias:
		return c.sizeOfTypeDepth(def.ResolvedType, depth+1)
	case symtab.KindEnum:
		if def.BaseType != nil {
			return c.sizeOfTypeDepth(def.BaseType, depth+1)
		}
		return 1
	case symtab.KindBuiltinType:
		if bits, _, ok := builtinIntWidth(def.Name); ok {
			return int64((bits + 7) / 8)
		}
		return 1
	default:
		return 1
	}
}

func (c *Compiler) lookupTypeDef(name string) *symtab.Definition {
	defs := c.root.FindUnqualifiedDefinitions(name)
	if len(defs) != 1 {
		return nil
	}
	return defs[0]
}

// structDefOf chases a type expression to the struct definition it
// names (through aliases), or nil.
func (c *Compiler) structDefOf(t ast.TypeExpression, scope *symtab.Scope) *symtab.Definition {
	for depth := 0; t != nil && depth <= maxTypeNesting; depth++ {
		switch n := t.(type) {
		case *ast.ResolvedIdentifierType:
			def, ok := n.Def.(*symtab.Definition)
			if !ok {
				return nil
			}
			if def.Kind == symtab.KindStruct {
				return def
			}
			if def.Kind == symtab.KindTypeAlias {
				t = def.ResolvedType
				continue
			}
			return nil
		case *ast.IdentifierType:
			if len(n.Path) != 1 {
				return nil
			}
			defs := scope.FindUnqualifiedDefinitions(n.Path[0])
			if len(defs) != 1 {
				return nil
			}
			if defs[0].Kind == symtab.KindStruct {
				return defs[0]
			}
			if defs[0].Kind == symtab.KindTypeAlias {
				t = defs[0].ResolvedType
				continue
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// structFieldLayout returns the byte offset and width of the named
// field: the sum of preceding field sizes, or offset zero inside a
// union.
func (c *Compiler) structFieldLayout(st *symtab.Definition, name string) (offset, size int64, ok bool) {
	for _, field := range st.Fields {
		fieldSize := c.sizeOfType(field.Type)
		if field.Name == name {
			return offset, fieldSize, true
		}
		if !st.IsUnion {
			offset += fieldSize
		}
	}
	return 0, 0, false
}

// serializeInitializer renders a folded constant initializer to its
// raw on-disk bytes: integers and booleans little-endian in exactly size
// bytes, strings and arrays at their own rendered length. A shape
// with no constant byte rendering is diagnosed (returning nil) rather
// than silently leaving the bank's pad bytes in the reserved range.
func (c *Compiler) serializeInitializer(def *symtab.Definition, folded ast.Expression, t ast.TypeExpression, size int64, scope *symtab.Scope) []byte {
	switch n := folded.(type) {
	case *ast.IntegerLit:
		return leBytes(n.Value, size)
	case *ast.BooleanLit:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return leBytes(numeric.FromInt64(v), size)
	case *ast.StringLit:
		return []byte(n.Value)
	case *ast.ArrayLiteral:
		elemSize := int64(1)
		if at, ok := t.(*ast.ArrayType); ok {
			elemSize = c.sizeOfType(at.Element)
		}
		out := make([]byte, 0, int64(len(n.Elements))*elemSize)
		for _, el := range n.Elements {
			switch e := el.(type) {
			case *ast.IntegerLit:
				out = append(out, leBytes(e.Value, elemSize)...)
			case *ast.BooleanLit:
				v := int64(0)
				if e.Value {
					v = 1
				}
				out = append(out, leBytes(numeric.FromInt64(v), elemSize)...)
			default:
				c.Report.Errorf(def.Loc, "initializer for '%s' has an array element that is not a compile-time constant", def.Name)
				return nil
			}
		}
		return out
	case *ast.StructLit:
		return c.serializeStructLit(def, n, t, size, scope)
	default:
		c.Report.Errorf(def.Loc, "initializer for '%s' does not reduce to a constant this bank can store", def.Name)
		return nil
	}
}

// serializeStructLit lays each named field's constant value at its
// computed offset within a zeroed buffer of the struct's storage size.
func (c *Compiler) serializeStructLit(def *symtab.Definition, lit *ast.StructLit, t ast.TypeExpression, size int64, scope *symtab.Scope) []byte {
	st := c.structDefOf(lit.Type, scope)
	if st == nil {
		st = c.structDefOf(t, scope)
	}
	if st == nil {
		c.Report.Errorf(def.Loc, "struct initializer for '%s' names no resolvable struct type", def.Name)
		return nil
	}
	out := make([]byte, size)
	for _, fl := range lit.Fields {
		offset, fieldSize, ok := c.structFieldLayout(st, fl.Name)
		if !ok {
			c.Report.Errorf(def.Loc, "'%s' has no field named '%s'", st.Name, fl.Name)
			return nil
		}
		if offset+fieldSize > size {
			c.Report.Errorf(def.Loc, "field '%s' does not fit in the storage reserved for '%s'", fl.Name, def.Name)
			return nil
		}
		var value numeric.Int128
		switch v := fl.Value.(type) {
		case *ast.IntegerLit:
			value = v.Value
		case *ast.BooleanLit:
			value = numeric.Zero
			if v.Value {
				value = numeric.One
			}
		default:
			c.Report.Errorf(def.Loc, "field '%s' of '%s' is not a compile-time constant", fl.Name, def.Name)
			return nil
		}
		copy(out[offset:offset+fieldSize], leBytes(value, fieldSize))
	}
	return out
}

func leBytes(v numeric.Int128, size int64) []byte {
	out := make([]byte, size)
	u := v.Uint64()
	for i := int64(0); i < size && i < 8; i++ {
		out[i] = byte(u >> (8 * uint(i)))
	}
	return out
}
