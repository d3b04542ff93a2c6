package compiler

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// EmbedReader resolves an `embed "path"` expression to raw bytes. The
// driver only depends on this narrow interface rather than the full
// resource manager, so folding stays testable without wiring a real
// filesystem/import resolver.
type EmbedReader interface {
	ReadEmbed(path string) ([]byte, error)
}

// foldRecursionLimit bounds identifier-to-Let recursive evaluation,
// matching the per-name cycle-detection cap on let evaluation.
const foldRecursionLimit = 128

// builtinIntWidth reports the bit width and signedness of a builtin
// scalar type name, used by cast-narrowing checks. Non-scalar or
// unrecognized names return ok == false.
func builtinIntWidth(name string) (bits uint, signed bool, ok bool) {
	switch name {
	case "u8":
		return 8, false, true
	case "i8":
		return 8, true, true
	case "u16":
		return 16, false, true
	case "i16":
		return 16, true, true
	case "u24":
		return 24, false, true
	case "i24":
		return 24, true, true
	case "u32":
		return 32, false, true
	case "i32":
		return 32, true, true
	case "bool":
		return 1, false, true
	default:
		return 0, false, false
	}
}

func identifierTypeName(t ast.TypeExpression) (string, bool) {
	id, ok := t.(*ast.IdentifierType)
	if !ok || len(id.Path) != 1 {
		return "", false
	}
	return id.Path[0], true
}

// folder carries the state a single ReduceExpression call tree shares:
// the scope to resolve identifiers against, the report to diagnose
// into, and the Let-cycle detection stack.
type folder struct {
	scope   *symtab.Scope
	report  *diag.Report
	embed   EmbedReader
	letPath map[*symtab.Definition]bool
}

// ReduceExpression returns a constant-folded equivalent of e: identifier
// references to resolved Let/enum-member definitions are inlined,
// integer/boolean arithmetic is evaluated via internal/numeric, logical
// operators short-circuit, numeric casts are proven to fit or diagnosed,
// and embed/array/struct literals fold their children. Integer and
// boolean results of arithmetic, comparisons, casts and enum members
// carry e's source location; an inlined let constant keeps the location
// of the let's own initializer, and rebuilt composite nodes (arrays,
// tuples, struct and range literals, unresolved identifiers) carry no
// location.
func ReduceExpression(e ast.Expression, scope *symtab.Scope, report *diag.Report, embed EmbedReader) ast.Expression {
	f := &folder{scope: scope, report: report, embed: embed, letPath: make(map[*symtab.Definition]bool)}
	return f.reduce(e)
}

func (f *folder) reduce(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.IntegerLit, *ast.BooleanLit, *ast.StringLit:
		return e
	case *ast.Identifier:
		return f.reduceIdentifierPath(e.Loc(), n.Path)
	case *ast.ResolvedIdentifier:
		return f.reduceResolved(e.Loc(), n.Def)
	case *ast.UnaryOp:
		return f.reduceUnary(n)
	case *ast.BinaryOp:
		return f.reduceBinary(n)
	case *ast.Cast:
		return f.reduceCast(n)
	case *ast.Embed:
		return f.reduceEmbed(n)
	case *ast.ArrayLiteral:
		els := make([]ast.Expression, len(n.Elements))
		for i, el := range n.Elements {
			els[i] = f.reduce(el)
		}
		return &ast.ArrayLiteral{Elements: els}
	case *ast.TupleLit:
		els := make([]ast.Expression, len(n.Elements))
		for i, el := range n.Elements {
			els[i] = f.reduce(el)
		}
		return &ast.TupleLit{Elements: els}
	case *ast.ArrayPadLiteral:
		return &ast.ArrayPadLiteral{Value: f.reduce(n.Value), Size: f.reduce(n.Size)}
	case *ast.ArrayComprehension:
		return f.reduceComprehension(n)
	case *ast.RangeLit:
		return &ast.RangeLit{Low: f.reduce(n.Low), High: f.reduce(n.High)}
	case *ast.StructLit:
		fields := make([]ast.StructLitField, len(n.Fields))
		for i, fl := range n.Fields {
			fields[i] = ast.StructLitField{Name: fl.Name, Value: f.reduce(fl.Value)}
		}
		return &ast.StructLit{Type: n.Type, Fields: fields}
	case *ast.SideEffect:
		// The statement must survive to emission (it runs under its own
		// inline site there); only the result expression folds.
		return &ast.SideEffect{Stmt: n.Stmt, Result: f.reduce(n.Result)}
	case *ast.Call:
		args := make([]ast.Expression, len(n.Args))
		for i, a := range n.Args {
			args[i] = f.reduce(a)
		}
		return &ast.Call{Callee: n.Callee, Args: args, IsInlined: n.IsInlined}
	case *ast.FieldAccess:
		return &ast.FieldAccess{Base: f.reduce(n.Base), Field: n.Field}
	case *ast.TypeQuery:
		return f.reduceTypeQuery(n)
	case *ast.TypeOf:
		return n
	case *ast.OffsetOf:
		return f.reduceOffsetOf(n)
	default:
		return e
	}
}

func (f *folder) reduceIdentifierPath(loc ast.Location, path []string) ast.Expression {
	if len(path) == 0 {
		return ast.NewBooleanLit(loc, false)
	}
	defs := f.scope.FindUnqualifiedDefinitions(path[0])
	if len(defs) != 1 {
		return &ast.Identifier{Path: path}
	}
	return f.reduceResolved(loc, defs[0])
}

func (f *folder) reduceResolved(loc ast.Location, handle ast.DefHandle) ast.Expression {
	def, ok := handle.(*symtab.Definition)
	if !ok {
		return &ast.ResolvedIdentifier{Def: handle}
	}
	switch def.Kind {
	case symtab.KindLet:
		return f.reduceLet(loc, def)
	case symtab.KindEnumMember:
		return ast.NewIntegerLit(loc, def.EnumValue, 10)
	default:
		return &ast.ResolvedIdentifier{Def: handle}
	}
}

// FoldLetDefinition evaluates def's initializer to FoldedConstant in
// place if it has not been folded already, used by pass 2 to catch
// errors in let constants that nothing else happens to reference.
func FoldLetDefinition(def *symtab.Definition, scope *symtab.Scope, report *diag.Report, embed EmbedReader) {
	f := &folder{scope: scope, report: report, embed: embed, letPath: make(map[*symtab.Definition]bool)}
	f.reduceLet(def.Loc, def)
}

// FoldEnumMembers assigns EnumValue to every member of an enum
// definition, folding explicit value expressions and defaulting
// unspecified ones to the previous member's value plus one (zero for
// the first member).
func FoldEnumMembers(def *symtab.Definition, scope *symtab.Scope, report *diag.Report, embed EmbedReader) {
	f := &folder{scope: scope, report: report, embed: embed, letPath: make(map[*symtab.Definition]bool)}
	next := numeric.Zero
	for _, member := range def.Members {
		if member.Initializer != nil {
			folded := f.reduce(member.Initializer)
			lit, ok := folded.(*ast.IntegerLit)
			if !ok {
				report.Errorf(member.Loc, "enum member '%s' must have a constant integer value", member.Name)
				member.EnumValue = next
			} else {
				member.EnumValue = lit.Value
			}
		} else {
			member.EnumValue = next
		}
		v, status := member.EnumValue.Add(numeric.One)
		if status != numeric.Success {
			report.Errorf(member.Loc, "enum member '%s' has no valid successor value: %s", member.Name, status)
			v = member.EnumValue
		}
		next = v
	}
}

func (f *folder) reduceLet(loc ast.Location, def *symtab.Definition) ast.Expression {
	if def.FoldedConstant != nil {
		return def.FoldedConstant.Clone()
	}
	if f.letPath[def] {
		f.report.Fatalf(loc, "recursive definition of '%s'", def.Name)
		return ast.NewIntegerLit(loc, numeric.Zero, 10)
	}
	if len(f.letPath) >= foldRecursionLimit {
		f.report.Fatalf(loc, "constant-evaluation recursion limit exceeded resolving '%s'", def.Name)
		return ast.NewIntegerLit(loc, numeric.Zero, 10)
	}
	f.letPath[def] = true
	folded := f.reduce(def.Initializer)
	delete(f.letPath, def)
	def.FoldedConstant = folded
	return folded.Clone()
}

// maxComprehensionLength bounds the number of elements a comprehension
// expands to; a range beyond it is treated as non-constant.
const maxComprehensionLength = 65536

// reduceComprehension expands `[expr for v in seq (if cond)?]` into an
// ArrayLiteral when seq folds to a constant range or array: each
// element value is bound to v in a child scope while the element (and
// condition, if any) folds against it. A sequence that does not fold
// leaves the comprehension for the caller to diagnose.
func (f *folder) reduceComprehension(n *ast.ArrayComprehension) ast.Expression {
	values, ok := sequenceValues(f.reduce(n.Seq))
	if !ok {
		return n
	}
	out := make([]ast.Expression, 0, len(values))
	saved := f.scope
	for _, v := range values {
		scope := symtab.NewScope("", saved)
		scope.AddDefinition(&symtab.Definition{Name: n.Var, Kind: symtab.KindLet, Loc: n.Loc(), Initializer: v})
		f.scope = scope
		if n.Condition != nil {
			cond := f.reduce(n.Condition)
			lit, isBool := cond.(*ast.BooleanLit)
			if !isBool {
				f.report.Errorf(n.Condition.Loc(), "comprehension condition must fold to a constant boolean")
				f.scope = saved
				return n
			}
			if !lit.Value {
				continue
			}
		}
		out = append(out, f.reduce(n.Element))
	}
	f.scope = saved
	return &ast.ArrayLiteral{Elements: out}
}

// sequenceValues enumerates the elements a comprehension iterates: an
// already-folded array's elements, or an inclusive integer range's
// values.
func sequenceValues(seq ast.Expression) ([]ast.Expression, bool) {
	switch s := seq.(type) {
	case *ast.ArrayLiteral:
		return s.Elements, true
	case *ast.RangeLit:
		lo, lok := s.Low.(*ast.IntegerLit)
		hi, hok := s.High.(*ast.IntegerLit)
		if !lok || !hok {
			return nil, false
		}
		low, high := lo.Value.Int64(), hi.Value.Int64()
		if low > high {
			return nil, true
		}
		if high-low+1 > maxComprehensionLength {
			return nil, false
		}
		out := make([]ast.Expression, 0, high-low+1)
		for v := low; v <= high; v++ {
			out = append(out, ast.NewIntegerLit(seq.Loc(), numeric.FromInt64(v), lo.Base))
		}
		return out, true
	default:
		return nil, false
	}
}

// resolveTypeDefinition chases a type expression to the struct/enum/
// alias definition it names, or nil when it names none.
func (f *folder) resolveTypeDefinition(t ast.TypeExpression) *symtab.Definition {
	switch n := t.(type) {
	case *ast.ResolvedIdentifierType:
		if def, ok := n.Def.(*symtab.Definition); ok {
			return def
		}
	case *ast.IdentifierType:
		if len(n.Path) != 1 {
			return nil
		}
		defs := f.scope.FindUnqualifiedDefinitions(n.Path[0])
		if len(defs) == 1 {
			return defs[0]
		}
	}
	return nil
}

// scalarTypeSize sizes the storage of a builtin scalar, an enum (its base
// type, or 1 byte without one), a type alias of these, or a fixed-size
// array of them; anything else reports ok == false.
func (f *folder) scalarTypeSize(t ast.TypeExpression) (int64, bool) {
	switch n := t.(type) {
	case *ast.IdentifierType:
		if name, ok := identifierTypeName(n); ok {
			if bits, _, known := builtinIntWidth(name); known {
				return int64((bits + 7) / 8), true
			}
		}
		if def := f.resolveTypeDefinition(n); def != nil && def.Kind == symtab.KindTypeAlias {
			return f.scalarTypeSize(def.ResolvedType)
		}
		return 0, false
	case *ast.ResolvedIdentifierType:
		def, ok := n.Def.(*symtab.Definition)
		if !ok {
			return 0, false
		}
		switch def.Kind {
		case symtab.KindTypeAlias:
			return f.scalarTypeSize(def.ResolvedType)
		case symtab.KindEnum:
			if def.BaseType != nil {
				return f.scalarTypeSize(def.BaseType)
			}
			return 1, true
		}
		return 0, false
	case *ast.ArrayType:
		elem, ok := f.scalarTypeSize(n.Element)
		if !ok || n.Size == nil {
			return 0, false
		}
		size := f.reduce(n.Size)
		lit, isLit := size.(*ast.IntegerLit)
		if !isLit {
			return 0, false
		}
		return elem * lit.Value.Int64(), true
	default:
		return 0, false
	}
}

// reduceOffsetOf folds offsetof(Struct, field) to the field's byte
// offset: the sum of preceding field sizes, or zero inside a union.
func (f *folder) reduceOffsetOf(n *ast.OffsetOf) ast.Expression {
	def := f.resolveTypeDefinition(n.Type)
	if def == nil || def.Kind != symtab.KindStruct {
		f.report.Errorf(n.Loc(), "offsetof requires a struct or union type")
		return n
	}
	offset := int64(0)
	for _, field := range def.Fields {
		if field.Name == n.Field {
			return ast.NewIntegerLit(n.Loc(), numeric.FromInt64(offset), 10)
		}
		if !def.IsUnion {
			size, ok := f.scalarTypeSize(field.Type)
			if !ok {
				f.report.Errorf(n.Loc(), "offsetof cannot size field '%s'", field.Name)
				return n
			}
			offset += size
		}
	}
	f.report.Errorf(n.Loc(), "'%s' has no field named '%s'", def.Name, n.Field)
	return n
}

// reduceTypeQuery folds the `is_*` type predicates to boolean literals
// once the queried type expression is resolvable.
func (f *folder) reduceTypeQuery(n *ast.TypeQuery) ast.Expression {
	def := f.resolveTypeDefinition(n.Type)
	answer := false
	switch n.Query {
	case ast.QueryIsStruct:
		answer = def != nil && def.Kind == symtab.KindStruct && !def.IsUnion
	case ast.QueryIsUnion:
		answer = def != nil && def.Kind == symtab.KindStruct && def.IsUnion
	case ast.QueryIsEnum:
		answer = def != nil && def.Kind == symtab.KindEnum
	case ast.QueryIsArray:
		_, answer = n.Type.(*ast.ArrayType)
	case ast.QueryIsPointer:
		_, answer = n.Type.(*ast.PointerType)
	case ast.QueryIsFunc:
		_, answer = n.Type.(*ast.FunctionType)
	case ast.QueryIsType:
		switch n.Type.(type) {
		case *ast.ArrayType, *ast.PointerType, *ast.FunctionType, *ast.TupleType, *ast.ResolvedIdentifierType:
			answer = true
		case *ast.IdentifierType:
			name, ok := identifierTypeName(n.Type)
			if ok {
				_, _, builtin := builtinIntWidth(name)
				answer = builtin || def != nil
			} else {
				answer = def != nil
			}
		}
	}
	return ast.NewBooleanLit(n.Loc(), answer)
}

func (f *folder) reduceUnary(n *ast.UnaryOp) ast.Expression {
	operand := f.reduce(n.Operand)
	switch n.Op {
	case ast.UnaryNot:
		if b, ok := operand.(*ast.BooleanLit); ok {
			return ast.NewBooleanLit(n.Loc(), !b.Value)
		}
	case ast.UnaryNeg:
		if i, ok := operand.(*ast.IntegerLit); ok {
			v, status := i.Value.Neg()
			if status != numeric.Success {
				f.report.Errorf(n.Loc(), "negation overflows: %s", status)
				return operand
			}
			return ast.NewIntegerLit(n.Loc(), v, i.Base)
		}
	case ast.UnaryBitNot:
		if i, ok := operand.(*ast.IntegerLit); ok {
			return ast.NewIntegerLit(n.Loc(), i.Value.Not(), i.Base)
		}
	case ast.UnaryLowByte:
		if i, ok := operand.(*ast.IntegerLit); ok {
			return ast.NewIntegerLit(n.Loc(), i.Value.And(numeric.FromInt64(0xFF)), 16)
		}
	case ast.UnaryHighByte:
		if i, ok := operand.(*ast.IntegerLit); ok {
			shifted := i.Value.LogicalShr(numeric.FromInt64(8))
			return ast.NewIntegerLit(n.Loc(), shifted.And(numeric.FromInt64(0xFF)), 16)
		}
	}
	return &ast.UnaryOp{Op: n.Op, Operand: operand}
}

func (f *folder) reduceBinary(n *ast.BinaryOp) ast.Expression {
	if n.Op == ast.BinLogicalAnd || n.Op == ast.BinLogicalOr {
		return f.reduceLogical(n)
	}
	left := f.reduce(n.Left)
	right := f.reduce(n.Right)

	li, lok := left.(*ast.IntegerLit)
	ri, rok := right.(*ast.IntegerLit)
	if lok && rok {
		if op, ok := n.Op.ToNumericOp(); ok {
			if numeric.IsArithmetic(op) {
				v, status := numeric.ApplyArithmetic(op, li.Value, ri.Value)
				if status != numeric.Success {
					f.report.Errorf(n.Loc(), "constant expression overflows: %s", status)
					return ast.NewIntegerLit(n.Loc(), numeric.Zero, 10)
				}
				return ast.NewIntegerLit(n.Loc(), v, li.Base)
			}
			if numeric.IsCompare(op) {
				return ast.NewBooleanLit(n.Loc(), numeric.ApplyCompare(op, li.Value, ri.Value))
			}
		}
	}
	if n.Op == ast.BinConcat {
		ls, lsok := left.(*ast.StringLit)
		rs, rsok := right.(*ast.StringLit)
		if lsok && rsok {
			return &ast.StringLit{Value: ls.Value + rs.Value}
		}
	}
	return &ast.BinaryOp{Op: n.Op, Left: left, Right: right}
}

func (f *folder) reduceLogical(n *ast.BinaryOp) ast.Expression {
	left := f.reduce(n.Left)
	if lb, ok := left.(*ast.BooleanLit); ok {
		if n.Op == ast.BinLogicalAnd && !lb.Value {
			return ast.NewBooleanLit(n.Loc(), false)
		}
		if n.Op == ast.BinLogicalOr && lb.Value {
			return ast.NewBooleanLit(n.Loc(), true)
		}
		right := f.reduce(n.Right)
		if rb, ok := right.(*ast.BooleanLit); ok {
			if n.Op == ast.BinLogicalAnd {
				return ast.NewBooleanLit(n.Loc(), lb.Value && rb.Value)
			}
			return ast.NewBooleanLit(n.Loc(), lb.Value || rb.Value)
		}
		return &ast.BinaryOp{Op: n.Op, Left: left, Right: right}
	}
	right := f.reduce(n.Right)
	return &ast.BinaryOp{Op: n.Op, Left: left, Right: right}
}

func (f *folder) reduceCast(n *ast.Cast) ast.Expression {
	operand := f.reduce(n.Operand)
	i, ok := operand.(*ast.IntegerLit)
	if !ok {
		return &ast.Cast{Target: n.Target, Operand: operand}
	}
	name, ok := identifierTypeName(n.Target)
	if !ok {
		return &ast.Cast{Target: n.Target, Operand: operand}
	}
	bits, signed, ok := builtinIntWidth(name)
	if !ok {
		return &ast.Cast{Target: n.Target, Operand: operand}
	}
	fits := i.Value.FitsSigned(bits)
	if !signed {
		fits = i.Value.FitsUnsigned(bits)
	}
	if !fits {
		f.report.Errorf(n.Loc(), "value %s does not fit in '%s' without truncation", i.Value, name)
	}
	return ast.NewIntegerLit(n.Loc(), i.Value, i.Base)
}

func (f *folder) reduceEmbed(n *ast.Embed) ast.Expression {
	if f.embed == nil {
		f.report.Errorf(n.Loc(), "embed \"%s\" requires a resource manager, none is attached to this compilation", n.Path)
		return n
	}
	data, err := f.embed.ReadEmbed(n.Path)
	if err != nil {
		f.report.Errorf(n.Loc(), "embed \"%s\": %s", n.Path, err)
		return n
	}
	elements := make([]ast.Expression, len(data))
	for i, b := range data {
		elements[i] = ast.NewIntegerLit(n.Loc(), numeric.FromInt64(int64(b)), 16)
	}
	return &ast.ArrayLiteral{Elements: elements}
}
