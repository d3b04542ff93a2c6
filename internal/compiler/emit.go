package compiler

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/bank"
	"github.com/wiz-lang/wiz/internal/instr"
	"github.com/wiz-lang/wiz/internal/numeric"
	"github.com/wiz-lang/wiz/internal/platform"
	"github.com/wiz-lang/wiz/internal/symtab"
)

// accumulatorIntrinsic is the register name every platform in this
// compilation's target set registers its load/store forms under.
const accumulatorIntrinsic = "a"

// maxInlineDepth bounds inline call splicing so mutually-inlining
// functions are diagnosed instead of expanding forever.
const maxInlineDepth = 16

// stmtAttrs is the per-statement attribute state the emitter consults:
// which return intrinsic a function should use and whether its body is
// allowed to fall off the end without one.
type stmtAttrs struct {
	fallThrough bool
	interrupt   bool
}

// EmitIR walks program a second time, now generating the IR stream:
// one Label per function and per `label` statement, one Code per
// lowered instruction, and a PushRelocation/PopRelocation bracket per
// `in` block. Reachable here only after pass 1-3 have populated every
// definition this pass looks up by name.
func (c *Compiler) EmitIR(program []ast.Statement) {
	c.ir = nil
	c.bankStack = nil
	c.loopStack = nil
	c.inlineReturn = nil
	c.inlineDepth = 0
	c.retIntrinsic = "return"
	c.mode = c.Platform.DefaultModeFlags()
	c.emitDecls(program, c.root)
}

func (c *Compiler) emitDecls(stmts []ast.Statement, scope *symtab.Scope) {
	for _, stmt := range stmts {
		c.emitDecl(stmt, scope)
	}
}

func (c *Compiler) emitDecl(stmt ast.Statement, scope *symtab.Scope) {
	switch s := stmt.(type) {
	case *ast.Attributed:
		c.withAttributes(s, scope, func(inner ast.Statement, attrs stmtAttrs) {
			if f, ok := inner.(*ast.FuncDecl); ok {
				c.emitFunc(f, scope, attrs)
				return
			}
			c.emitDecl(inner, scope)
		})
	case *ast.NamespaceDecl:
		if def := scope.FindLocalMemberDefinition(s.Name); def != nil && def.Namespace != nil {
			c.emitDecls(s.Body.Stmts, def.Namespace)
		}
	case *ast.InBank:
		c.pushRelocation(s, scope)
		c.emitDecls(s.Body.Stmts, scope)
		c.popRelocation(s)
	case *ast.Relocate:
		c.emitSeek(s, scope)
	case *ast.FuncDecl:
		c.emitFunc(s, scope, stmtAttrs{})
	case *ast.Import, *ast.VarDecl, *ast.LetDecl, *ast.StructDecl, *ast.EnumDecl, *ast.TypeAliasDecl, *ast.BankDecl, *ast.ConfigDecl:
		// Fully handled by earlier passes.
	default:
		c.emitStmt(stmt, scope)
	}
}

// withAttributes evaluates s's attribute list, then runs emit with the
// resulting per-statement state. `#[if cond]` suppresses the statement
// when cond folds false; platform mode attributes adjust the current
// mode bitset for the statement's duration; the rest select the
// function's return behavior.
func (c *Compiler) withAttributes(s *ast.Attributed, scope *symtab.Scope, emit func(inner ast.Statement, attrs stmtAttrs)) {
	var attrs stmtAttrs
	savedMode := c.mode
	defer func() { c.mode = savedMode }()
	for _, a := range s.Attrs {
		switch a.Name {
		case "if":
			if len(a.Args) != 1 {
				c.Report.Errorf(a.Loc, "attribute 'if' takes exactly one argument")
				return
			}
			folded := ReduceExpression(a.Args[0], scope, c.Report, c.embed)
			lit, ok := folded.(*ast.BooleanLit)
			if !ok {
				c.Report.Errorf(a.Args[0].Loc(), "conditional-compilation condition must fold to a constant boolean")
				return
			}
			if !lit.Value {
				return
			}
		case "fallthrough":
			attrs.fallThrough = true
		case "irq", "nmi":
			attrs.interrupt = true
		default:
			set, clear, ok := c.Platform.ModeAttribute(a.Name)
			if !ok {
				c.Report.Errorf(a.Loc, "unknown attribute '%s'", a.Name)
				continue
			}
			c.mode = (c.mode &^ clear) | set
		}
	}
	emit(s.Inner, attrs)
}

func (c *Compiler) pushRelocation(s *ast.InBank, scope *symtab.Scope) {
	b := c.Banks.Lookup(s.BankName)
	if b == nil {
		c.Report.Errorf(s.Loc(), "undeclared bank '%s'", s.BankName)
		c.bankStack = append(c.bankStack, nil)
		return
	}
	var addr *int64
	if s.Address != nil {
		v := c.foldToInt64(s.Address, scope, "relocation address")
		addr = &v
	}
	c.ir = append(c.ir, &PushRelocation{irBase: irBase{loc: s.Loc()}, Bank: b, Address: addr})
	c.bankStack = append(c.bankStack, b)
}

func (c *Compiler) popRelocation(s *ast.InBank) {
	c.ir = append(c.ir, &PopRelocation{irBase: irBase{loc: s.Loc()}})
	if len(c.bankStack) > 0 {
		c.bankStack = c.bankStack[:len(c.bankStack)-1]
	}
}

func (c *Compiler) emitSeek(s *ast.Relocate, scope *symtab.Scope) {
	addr := c.foldToInt64(s.Address, scope, "relocation address")
	c.ir = append(c.ir, &Seek{irBase: irBase{loc: s.Loc()}, Address: addr})
}

func (c *Compiler) emitFunc(s *ast.FuncDecl, scope *symtab.Scope, attrs stmtAttrs) {
	// Inline functions exist only as splices at their call sites; an
	// extern declaration has no body to emit at all.
	if s.Body == nil || s.Inline {
		return
	}
	name := s.Name
	if def := scope.FindLocalMemberDefinition(s.Name); def != nil {
		name = def.QualifiedName()
	}
	savedRet := c.retIntrinsic
	c.retIntrinsic = "return"
	if s.Far {
		c.retIntrinsic = "return_far"
	}
	if attrs.interrupt {
		c.retIntrinsic = "return_interrupt"
	}
	c.ir = append(c.ir, NewLabel(s.Loc(), name))
	c.emitBody(s.Body.Stmts, scope)
	if !attrs.fallThrough && !endsWithTransfer(s.Body.Stmts) {
		c.emitVoid(s.Loc(), c.retIntrinsic)
	}
	c.retIntrinsic = savedRet
}

// endsWithTransfer reports whether the statement list's last statement
// unconditionally leaves the function, making the implicit trailing
// return dead.
func endsWithTransfer(stmts []ast.Statement) bool {
	if len(stmts) == 0 {
		return false
	}
	last := stmts[len(stmts)-1]
	if a, ok := last.(*ast.Attributed); ok {
		last = a.Inner
	}
	switch last.(type) {
	case *ast.Return, *ast.Goto:
		return true
	default:
		return false
	}
}

func (c *Compiler) emitBody(stmts []ast.Statement, scope *symtab.Scope) {
	for _, stmt := range stmts {
		c.emitStmt(stmt, scope)
	}
}

func (c *Compiler) emitStmt(stmt ast.Statement, scope *symtab.Scope) {
	switch s := stmt.(type) {
	case *ast.Attributed:
		c.withAttributes(s, scope, func(inner ast.Statement, attrs stmtAttrs) {
			c.emitStmt(inner, scope)
		})
	case *ast.Block:
		c.emitBody(s.Stmts, scope)
	case *ast.InBank:
		c.pushRelocation(s, scope)
		c.emitBody(s.Body.Stmts, scope)
		c.popRelocation(s)
	case *ast.Relocate:
		c.emitSeek(s, scope)
	case *ast.Assign:
		c.emitAssign(s, scope)
	case *ast.ExprStmt:
		c.emitExprStmt(s, scope)
	case *ast.If:
		c.emitIf(s, scope)
	case *ast.While:
		c.emitWhile(s, scope)
	case *ast.DoWhile:
		c.emitDoWhile(s, scope)
	case *ast.For:
		c.emitFor(s, scope)
	case *ast.Goto:
		c.emitGoto(s)
	case *ast.LabelStmt:
		c.ir = append(c.ir, NewLabel(s.Loc(), s.Name))
	case *ast.Break:
		c.emitBreak(s)
	case *ast.Continue:
		c.emitContinue(s)
	case *ast.Return:
		c.emitReturn(s, scope)
	default:
		c.Report.Errorf(stmt.Loc(), "this statement is not valid inside a function body")
	}
}

// --- assignment ---

func (c *Compiler) emitAssign(s *ast.Assign, scope *symtab.Scope) {
	if fa, ok := s.LHS.(*ast.FieldAccess); ok {
		c.emitAssignField(s, fa, scope)
		return
	}
	target := c.resolveVarRef(s.LHS, scope)
	if target == nil {
		c.Report.Errorf(s.Loc(), "assignment target must be a register, a variable name, or a struct field")
		return
	}
	switch target.Kind {
	case symtab.KindRegister:
		c.emitAssignRegister(s, target, scope)
	case symtab.KindVar:
		c.emitAssignVar(s, target, scope)
	default:
		c.Report.Errorf(s.Loc(), "'%s' is not assignable", target.Name)
	}
}

func (c *Compiler) emitAssignRegister(s *ast.Assign, target *symtab.Definition, scope *symtab.Scope) {
	if s.Op == ast.AssignPlain {
		if target.Name == accumulatorIntrinsic {
			c.emitExprToA(s.RHS, scope)
			return
		}
		folded := ReduceExpression(s.RHS, scope, c.Report, c.embed)
		value, ok := c.operandFor(folded, scope)
		if !ok {
			c.Report.Errorf(s.RHS.Loc(), "this value cannot be loaded into '%s' directly", target.Name)
			return
		}
		c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: target.Name}, []instr.Operand{value}, ast.DistanceDefault)
		return
	}
	op, ok := binaryOpForAssign(s.Op)
	if !ok {
		c.Report.Errorf(s.Loc(), "unsupported compound assignment operator")
		return
	}
	folded := ReduceExpression(s.RHS, scope, c.Report, c.embed)
	value, vok := c.operandFor(folded, scope)
	if !vok {
		c.Report.Errorf(s.RHS.Loc(), "expression is too complex; precompute it into a variable first")
		return
	}
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBinaryOp, BinaryOp: op},
		[]instr.Operand{instr.Register{Def: target}, value}, ast.DistanceDefault)
}

func (c *Compiler) emitAssignVar(s *ast.Assign, target *symtab.Definition, scope *symtab.Scope) {
	addrOperand, ok := c.addressOperand(target)
	if !ok {
		c.Report.Errorf(s.Loc(), "variable '%s' has no fixed address; declare its bank with an explicit origin", target.Name)
		return
	}
	if s.Op == ast.AssignPlain {
		if !c.emitExprToA(s.RHS, scope) {
			return
		}
		c.emitVoidWith(s.Loc(), "store_a", addrOperand)
		return
	}
	op, ok := binaryOpForAssign(s.Op)
	if !ok {
		c.Report.Errorf(s.Loc(), "unsupported compound assignment operator")
		return
	}
	// Fetch-modify-write through the accumulator.
	if !c.emitExprToA(s.LHS, scope) {
		return
	}
	folded := ReduceExpression(s.RHS, scope, c.Report, c.embed)
	value, vok := c.operandFor(folded, scope)
	if !vok {
		c.Report.Errorf(s.RHS.Loc(), "expression is too complex; precompute it into a variable first")
		return
	}
	aDef := c.registerDef(accumulatorIntrinsic)
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBinaryOp, BinaryOp: op},
		[]instr.Operand{instr.Register{Def: aDef}, value}, ast.DistanceDefault)
	c.emitVoidWith(s.Loc(), "store_a", addrOperand)
}

// emitAssignField lowers `base.field = value` (and its compound forms)
// against the field's absolute address within the base variable's
// storage.
func (c *Compiler) emitAssignField(s *ast.Assign, fa *ast.FieldAccess, scope *symtab.Scope) {
	deref, ok := c.fieldAccessOperand(fa, scope)
	if !ok {
		c.Report.Errorf(s.Loc(), "assignment target must be a field of a struct variable with a fixed address")
		return
	}
	addrOperand := deref.Addr
	if s.Op == ast.AssignPlain {
		if !c.emitExprToA(s.RHS, scope) {
			return
		}
		c.emitVoidWith(s.Loc(), "store_a", addrOperand)
		return
	}
	op, ok := binaryOpForAssign(s.Op)
	if !ok {
		c.Report.Errorf(s.Loc(), "unsupported compound assignment operator")
		return
	}
	c.emitLoadA(s.Loc(), deref)
	folded := ReduceExpression(s.RHS, scope, c.Report, c.embed)
	value, vok := c.operandFor(folded, scope)
	if !vok {
		c.Report.Errorf(s.RHS.Loc(), "expression is too complex; precompute it into a variable first")
		return
	}
	aDef := c.registerDef(accumulatorIntrinsic)
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBinaryOp, BinaryOp: op},
		[]instr.Operand{instr.Register{Def: aDef}, value}, ast.DistanceDefault)
	c.emitVoidWith(s.Loc(), "store_a", addrOperand)
}

// fieldAccessOperand resolves base.field to a memory dereference of
// the field's absolute address, when base names a struct-typed
// variable whose bank fixed an origin.
func (c *Compiler) fieldAccessOperand(fa *ast.FieldAccess, scope *symtab.Scope) (instr.Dereference, bool) {
	base := c.resolveVarRef(fa.Base, scope)
	if base == nil || base.Kind != symtab.KindVar || base.Address == nil {
		return instr.Dereference{}, false
	}
	abs, ok := base.Address.Absolute()
	if !ok {
		return instr.Dereference{}, false
	}
	st := c.structDefOf(base.ResolvedType, scope)
	if st == nil {
		return instr.Dereference{}, false
	}
	offset, size, ok := c.structFieldLayout(st, fa.Field)
	if !ok {
		return instr.Dereference{}, false
	}
	return instr.Dereference{
		Addr: instr.Integer{Value: numeric.FromInt64(abs + offset)},
		Size: int(size),
	}, true
}

func binaryOpForAssign(op ast.AssignOpKind) (ast.BinaryOpKind, bool) {
	switch op {
	case ast.AssignAdd:
		return ast.BinAdd, true
	case ast.AssignSub:
		return ast.BinSub, true
	case ast.AssignMul:
		return ast.BinMul, true
	case ast.AssignDiv:
		return ast.BinDiv, true
	case ast.AssignMod:
		return ast.BinMod, true
	case ast.AssignShl:
		return ast.BinShl, true
	case ast.AssignShr:
		return ast.BinShr, true
	case ast.AssignAnd:
		return ast.BinBitAnd, true
	case ast.AssignOr:
		return ast.BinBitOr, true
	case ast.AssignXor:
		return ast.BinBitXor, true
	default:
		return 0, false
	}
}

// --- calls ---

func (c *Compiler) emitExprStmt(s *ast.ExprStmt, scope *symtab.Scope) {
	call, ok := s.Expr.(*ast.Call)
	if !ok {
		c.Report.Errorf(s.Loc(), "this expression has no effect as a statement")
		return
	}
	c.emitCall(s.Loc(), call, scope)
}

func (c *Compiler) emitCall(loc ast.Location, call *ast.Call, scope *symtab.Scope) {
	def := c.resolveVarRef(call.Callee, scope)
	if def == nil || def.Kind != symtab.KindFunc {
		c.Report.Errorf(loc, "call target must be a declared function")
		return
	}
	if len(call.Args) != len(def.Params) {
		c.Report.Errorf(loc, "function '%s' takes %d argument(s), got %d", def.Name, len(def.Params), len(call.Args))
		return
	}
	if len(def.Params) > 0 {
		c.Report.Errorf(loc, "function '%s' declares parameters; pass values through registers or globals instead", def.Name)
		return
	}
	if def.Inline || call.IsInlined {
		c.spliceInline(loc, def, scope)
		return
	}
	kind := instr.BranchCall
	if def.Far {
		kind = instr.BranchCallFar
	}
	c.emitCode(loc, instr.InstructionType{Kind: instr.TypeBranch, Branch: kind},
		[]instr.Operand{LabelOperand{Target: def.QualifiedName()}}, ast.DistanceDefault)
}

// spliceInline expands an inline function call in place: the callee's
// cloned body is emitted under a fresh inline site, and every return
// inside it becomes a jump to a synthetic label placed after the
// spliced body.
func (c *Compiler) spliceInline(loc ast.Location, def *symtab.Definition, scope *symtab.Scope) {
	if def.Body == nil {
		c.Report.Errorf(loc, "inline function '%s' has no body to expand", def.Name)
		return
	}
	if c.inlineDepth >= maxInlineDepth {
		c.Report.Fatalf(loc, "inline expansion of '%s' nested too deeply", def.Name)
		return
	}
	bodyScope := scope
	if def.ParentScope != nil {
		bodyScope = def.ParentScope
	}
	ret := c.names.Next()
	c.inlineDepth++
	c.inlineReturn = append(c.inlineReturn, ret)
	body := def.Body.Clone().(*ast.Block)
	c.emitBody(body.Stmts, bodyScope)
	c.inlineReturn = c.inlineReturn[:len(c.inlineReturn)-1]
	c.inlineDepth--
	c.ir = append(c.ir, NewLabel(loc, ret))
}

func (c *Compiler) emitReturn(s *ast.Return, scope *symtab.Scope) {
	if s.Value != nil {
		if !c.emitExprToA(s.Value, scope) {
			return
		}
	}
	if n := len(c.inlineReturn); n > 0 {
		c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
			[]instr.Operand{LabelOperand{Target: c.inlineReturn[n-1]}}, ast.DistanceDefault)
		return
	}
	c.emitVoid(s.Loc(), c.retIntrinsic)
}

// --- control flow ---

func (c *Compiler) emitGoto(s *ast.Goto) {
	kind := instr.BranchAlways
	relative := false
	if s.Distance == ast.DistanceShort {
		kind = instr.BranchAlwaysRelative
		relative = true
	}
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: kind},
		[]instr.Operand{LabelOperand{Target: s.Label, Relative: relative}}, s.Distance)
}

func (c *Compiler) emitIf(s *ast.If, scope *symtab.Scope) {
	folded := ReduceExpression(s.Cond, scope, c.Report, c.embed)
	if lit, ok := folded.(*ast.BooleanLit); ok {
		if lit.Value {
			c.emitBody(s.Then.Stmts, scope)
		} else if s.Else != nil {
			c.emitStmt(s.Else, scope)
		}
		return
	}
	end := c.names.Next()
	if s.Else == nil {
		c.emitBranchOnCondition(s.Cond, scope, end, false)
		c.emitBody(s.Then.Stmts, scope)
		c.ir = append(c.ir, NewLabel(s.Loc(), end))
		return
	}
	elseLabel := c.names.Next()
	c.emitBranchOnCondition(s.Cond, scope, elseLabel, false)
	c.emitBody(s.Then.Stmts, scope)
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
		[]instr.Operand{LabelOperand{Target: end}}, ast.DistanceDefault)
	c.ir = append(c.ir, NewLabel(s.Loc(), elseLabel))
	c.emitStmt(s.Else, scope)
	c.ir = append(c.ir, NewLabel(s.Loc(), end))
}

func (c *Compiler) emitWhile(s *ast.While, scope *symtab.Scope) {
	folded := ReduceExpression(s.Cond, scope, c.Report, c.embed)
	if lit, ok := folded.(*ast.BooleanLit); ok && !lit.Value {
		return
	}
	start, end := c.names.Next(), c.names.Next()
	c.ir = append(c.ir, NewLabel(s.Loc(), start))
	c.emitBranchOnCondition(s.Cond, scope, end, false)
	c.loopStack = append(c.loopStack, loopContext{label: s.Label, continueLabel: start, endLabel: end})
	c.emitBody(s.Body.Stmts, scope)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
		[]instr.Operand{LabelOperand{Target: start}}, ast.DistanceDefault)
	c.ir = append(c.ir, NewLabel(s.Loc(), end))
}

func (c *Compiler) emitDoWhile(s *ast.DoWhile, scope *symtab.Scope) {
	start, end := c.names.Next(), c.names.Next()
	c.ir = append(c.ir, NewLabel(s.Loc(), start))
	c.loopStack = append(c.loopStack, loopContext{label: s.Label, continueLabel: start, endLabel: end})
	c.emitBody(s.Body.Stmts, scope)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	c.emitBranchOnCondition(s.Cond, scope, start, true)
	c.ir = append(c.ir, NewLabel(s.Loc(), end))
}

// emitFor lowers `for v in lo..hi [by step]` to init + body + step +
// test: the counter starts at lo and the loop re-enters until the
// counter steps past hi. The counter must be a register; an 8-bit
// wraparound stop value keeps the final `hi == 255` iteration correct.
func (c *Compiler) emitFor(s *ast.For, scope *symtab.Scope) {
	counter := c.lookupSingle(s.Var, scope)
	if counter == nil || counter.Kind != symtab.KindRegister {
		c.Report.Errorf(s.Loc(), "for counter '%s' must be a register on this target", s.Var)
		return
	}
	seq := ReduceExpression(s.Seq, scope, c.Report, c.embed)
	rng, ok := seq.(*ast.RangeLit)
	if !ok {
		c.Report.Errorf(s.Seq.Loc(), "for sequence must be a constant integer range")
		return
	}
	low, lok := rng.Low.(*ast.IntegerLit)
	high, hok := rng.High.(*ast.IntegerLit)
	if !lok || !hok {
		c.Report.Errorf(s.Seq.Loc(), "for range bounds must be constant integers")
		return
	}
	step := int64(1)
	if s.Step != nil {
		folded := ReduceExpression(s.Step, scope, c.Report, c.embed)
		lit, sok := folded.(*ast.IntegerLit)
		if !sok || lit.Value.Int64() == 0 {
			c.Report.Errorf(s.Step.Loc(), "for step must be a non-zero constant integer")
			return
		}
		step = lit.Value.Int64()
	}

	counterOp := instr.Operand(instr.Register{Def: counter})
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: counter.Name},
		[]instr.Operand{instr.Integer{Value: low.Value}}, ast.DistanceDefault)

	start, stepLabel, end := c.names.Next(), c.names.Next(), c.names.Next()
	c.ir = append(c.ir, NewLabel(s.Loc(), start))
	c.loopStack = append(c.loopStack, loopContext{label: s.Label, continueLabel: stepLabel, endLabel: end})
	c.emitBody(s.Body.Stmts, scope)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	c.ir = append(c.ir, NewLabel(s.Loc(), stepLabel))

	stepOp, stepMag := ast.BinAdd, step
	if step < 0 {
		stepOp, stepMag = ast.BinSub, -step
	}
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBinaryOp, BinaryOp: stepOp},
		[]instr.Operand{counterOp, instr.Integer{Value: numeric.FromInt64(stepMag)}}, ast.DistanceDefault)

	stop := (high.Value.Int64() + step) & 0xFF
	tb, tok := c.Platform.GetTestAndBranch(ast.BinNe, counterOp, instr.Integer{Value: numeric.FromInt64(stop)}, ast.DistanceDefault)
	if !tok {
		c.Report.Errorf(s.Loc(), "this platform cannot compare the '%s' register against the loop bound", counter.Name)
		return
	}
	c.emitCode(s.Loc(), tb.TestType, tb.TestOperands, ast.DistanceDefault)
	c.emitBranchCases(s.Loc(), tb.Branches, start, true)
	c.ir = append(c.ir, NewLabel(s.Loc(), end))
}

func (c *Compiler) emitBreak(s *ast.Break) {
	target, ok := c.findLoop(s.Label)
	if !ok {
		c.Report.Errorf(s.Loc(), "break outside of a loop")
		return
	}
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
		[]instr.Operand{LabelOperand{Target: target.endLabel}}, ast.DistanceDefault)
}

func (c *Compiler) emitContinue(s *ast.Continue) {
	target, ok := c.findLoop(s.Label)
	if !ok {
		c.Report.Errorf(s.Loc(), "continue outside of a loop")
		return
	}
	c.emitCode(s.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
		[]instr.Operand{LabelOperand{Target: target.continueLabel}}, ast.DistanceDefault)
}

func (c *Compiler) findLoop(label string) (loopContext, bool) {
	if label == "" {
		if len(c.loopStack) == 0 {
			return loopContext{}, false
		}
		return c.loopStack[len(c.loopStack)-1], true
	}
	for i := len(c.loopStack) - 1; i >= 0; i-- {
		if c.loopStack[i].label == label {
			return c.loopStack[i], true
		}
	}
	return loopContext{}, false
}

// --- conditions ---

// emitBranchOnCondition emits instructions that transfer control to
// target exactly when cond evaluates to want. Comparisons lower through
// the platform's test-and-branch table; any other runtime expression
// falls back to the generic evaluate-then-test-zero-flag pattern.
func (c *Compiler) emitBranchOnCondition(cond ast.Expression, scope *symtab.Scope, target string, want bool) {
	folded := ReduceExpression(cond, scope, c.Report, c.embed)
	switch n := folded.(type) {
	case *ast.BooleanLit:
		if n.Value == want {
			c.emitCode(cond.Loc(), instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
				[]instr.Operand{LabelOperand{Target: target}}, ast.DistanceDefault)
		}
		return
	case *ast.UnaryOp:
		if n.Op == ast.UnaryNot {
			c.emitBranchOnCondition(n.Operand, scope, target, !want)
			return
		}
	case *ast.BinaryOp:
		switch n.Op {
		case ast.BinLogicalAnd:
			if want {
				fail := c.names.Next()
				c.emitBranchOnCondition(n.Left, scope, fail, false)
				c.emitBranchOnCondition(n.Right, scope, target, true)
				c.ir = append(c.ir, NewLabel(cond.Loc(), fail))
			} else {
				c.emitBranchOnCondition(n.Left, scope, target, false)
				c.emitBranchOnCondition(n.Right, scope, target, false)
			}
			return
		case ast.BinLogicalOr:
			if want {
				c.emitBranchOnCondition(n.Left, scope, target, true)
				c.emitBranchOnCondition(n.Right, scope, target, true)
			} else {
				done := c.names.Next()
				c.emitBranchOnCondition(n.Left, scope, done, true)
				c.emitBranchOnCondition(n.Right, scope, target, false)
				c.ir = append(c.ir, NewLabel(cond.Loc(), done))
			}
			return
		}
		if isCompareOp(n.Op) {
			c.emitComparisonBranch(cond.Loc(), n, scope, target, want)
			return
		}
	}
	// Generic fallback: evaluate to the accumulator, test it, branch on
	// the platform's zero flag. A non-zero value is true.
	if !c.emitExprToA(folded, scope) {
		return
	}
	aDef := c.registerDef(accumulatorIntrinsic)
	c.emitVoidWith(cond.Loc(), "test", instr.Register{Def: aDef})
	c.emitCondBranch(cond.Loc(), c.Platform.ZeroFlag(), !want, target)
}

func isCompareOp(op ast.BinaryOpKind) bool {
	switch op {
	case ast.BinEq, ast.BinNe, ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		return true
	default:
		return false
	}
}

func (c *Compiler) emitComparisonBranch(loc ast.Location, n *ast.BinaryOp, scope *symtab.Scope, target string, want bool) {
	var left instr.Operand
	if reg := c.resolveRegister(n.Left, scope); reg != nil {
		left = instr.Register{Def: reg}
	} else {
		if !c.emitExprToA(n.Left, scope) {
			return
		}
		left = instr.Register{Def: c.registerDef(accumulatorIntrinsic)}
	}
	right, ok := c.operandFor(n.Right, scope)
	if !ok {
		c.Report.Errorf(n.Right.Loc(), "expression is too complex; precompute it into a variable first")
		return
	}
	tb, ok := c.Platform.GetTestAndBranch(n.Op, left, right, ast.DistanceDefault)
	if !ok {
		c.Report.Errorf(loc, "this comparison has no lowering on platform '%s'", c.Platform.Name())
		return
	}
	if len(tb.TestOperands) > 0 {
		c.emitCode(loc, tb.TestType, tb.TestOperands, ast.DistanceDefault)
	}
	c.emitBranchCases(loc, tb.Branches, target, want)
}

// emitBranchCases emits the conditional-branch tail of a test-and-
// branch lowering: jump to target exactly when the cases' outcome
// equals want. A state matching no case is a failure outcome.
func (c *Compiler) emitBranchCases(loc ast.Location, cases []platform.TestAndBranchCase, target string, want bool) {
	if len(cases) == 1 {
		cs := cases[0]
		value := cs.Value
		if cs.Success != want {
			value = !value
		}
		c.emitCondBranch(loc, cs.Flag, value, target)
		return
	}
	done := c.names.Next()
	jumped := false
	for _, cs := range cases {
		if cs.Success == want {
			c.emitCondBranch(loc, cs.Flag, cs.Value, target)
		} else {
			c.emitCondBranch(loc, cs.Flag, cs.Value, done)
			jumped = true
		}
	}
	if !want {
		c.emitCode(loc, instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.BranchAlways},
			[]instr.Operand{LabelOperand{Target: target}}, ast.DistanceDefault)
	}
	if jumped {
		c.ir = append(c.ir, NewLabel(loc, done))
	}
}

// emitCondBranch emits one flag-conditional branch. Conditional
// branches always carry a displacement operand; the platform's paired
// short/long encodings absorb out-of-range targets during layout.
func (c *Compiler) emitCondBranch(loc ast.Location, flag string, value bool, target string) {
	c.emitCode(loc, instr.InstructionType{Kind: instr.TypeBranch, Branch: instr.FlagBranch(flag, value)},
		[]instr.Operand{LabelOperand{Target: target, Relative: true}}, ast.DistanceDefault)
}

// --- expression lowering ---

// emitExprToA lowers e into the accumulator, reporting false (with a
// diagnostic already recorded) when e is not expressible on this
// instruction set. Binary chains evaluate left-to-right with the
// running value held in the accumulator; right operands must be leaf
// values.
func (c *Compiler) emitExprToA(e ast.Expression, scope *symtab.Scope) bool {
	folded := ReduceExpression(e, scope, c.Report, c.embed)
	switch n := folded.(type) {
	case *ast.IntegerLit, *ast.BooleanLit:
		op, _ := c.operandFor(folded, scope)
		c.emitLoadA(e.Loc(), op)
		return true
	case *ast.Identifier, *ast.ResolvedIdentifier, *ast.FieldAccess:
		op, ok := c.operandFor(folded, scope)
		if !ok {
			c.Report.Errorf(e.Loc(), "'%s' cannot be loaded into the accumulator", exprName(folded))
			return false
		}
		if reg, isReg := op.(instr.Register); isReg && reg.Def.DefName() == accumulatorIntrinsic {
			return true
		}
		c.emitLoadA(e.Loc(), op)
		return true
	case *ast.BinaryOp:
		if isCompareOp(n.Op) || n.Op == ast.BinLogicalAnd || n.Op == ast.BinLogicalOr {
			c.Report.Errorf(e.Loc(), "a boolean expression cannot be materialized into the accumulator; branch on it instead")
			return false
		}
		if !c.emitExprToA(n.Left, scope) {
			return false
		}
		right, ok := c.operandFor(n.Right, scope)
		if !ok {
			c.Report.Errorf(n.Right.Loc(), "expression is too complex; precompute it into a variable first")
			return false
		}
		aDef := c.registerDef(accumulatorIntrinsic)
		c.emitCode(e.Loc(), instr.InstructionType{Kind: instr.TypeBinaryOp, BinaryOp: n.Op},
			[]instr.Operand{instr.Register{Def: aDef}, right}, ast.DistanceDefault)
		return true
	case *ast.UnaryOp:
		if !c.emitExprToA(n.Operand, scope) {
			return false
		}
		aDef := c.registerDef(accumulatorIntrinsic)
		c.emitCode(e.Loc(), instr.InstructionType{Kind: instr.TypeUnaryOp, UnaryOp: n.Op},
			[]instr.Operand{instr.Register{Def: aDef}}, ast.DistanceDefault)
		return true
	case *ast.Call:
		def := c.resolveVarRef(n.Callee, scope)
		if def == nil || def.Kind != symtab.KindFunc {
			c.Report.Errorf(e.Loc(), "call target must be a declared function")
			return false
		}
		if def.ReturnType == nil {
			c.Report.Errorf(e.Loc(), "function '%s' returns nothing and cannot be used as a value", def.Name)
			return false
		}
		c.emitCall(e.Loc(), n, scope)
		return !c.Report.HasFatalError()
	default:
		c.Report.Errorf(e.Loc(), "this value must be a compile-time constant, register, or variable")
		return false
	}
}

func exprName(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Identifier:
		if len(n.Path) > 0 {
			return n.Path[len(n.Path)-1]
		}
	case *ast.ResolvedIdentifier:
		return n.Def.DefName()
	case *ast.FieldAccess:
		return exprName(n.Base) + "." + n.Field
	}
	return "this expression"
}

// operandFor converts a folded leaf expression into a selection
// operand: an immediate, a register reference, or a memory dereference
// of a storage-bearing variable.
func (c *Compiler) operandFor(e ast.Expression, scope *symtab.Scope) (instr.Operand, bool) {
	switch n := e.(type) {
	case *ast.IntegerLit:
		return instr.Integer{Value: n.Value}, true
	case *ast.BooleanLit:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return instr.Integer{Value: numeric.FromInt64(v)}, true
	case *ast.Identifier:
		if len(n.Path) != 1 {
			return nil, false
		}
		def := c.lookupSingle(n.Path[0], scope)
		if def == nil {
			return nil, false
		}
		return c.definitionOperand(def)
	case *ast.ResolvedIdentifier:
		def, ok := n.Def.(*symtab.Definition)
		if !ok {
			return nil, false
		}
		return c.definitionOperand(def)
	case *ast.FieldAccess:
		deref, ok := c.fieldAccessOperand(n, scope)
		if !ok {
			return nil, false
		}
		return deref, true
	default:
		return nil, false
	}
}

func (c *Compiler) definitionOperand(def *symtab.Definition) (instr.Operand, bool) {
	switch def.Kind {
	case symtab.KindRegister:
		return instr.Register{Def: def}, true
	case symtab.KindVar:
		addr, ok := c.addressOperand(def)
		if !ok {
			return nil, false
		}
		size := int(c.sizeOfType(def.ResolvedType))
		if size < 1 {
			size = 1
		}
		return instr.Dereference{Addr: addr, Size: size}, true
	default:
		return nil, false
	}
}

// resolveVarRef resolves e to the register, variable, or function
// definition it names, or nil.
func (c *Compiler) resolveVarRef(e ast.Expression, scope *symtab.Scope) *symtab.Definition {
	switch n := e.(type) {
	case *ast.Identifier:
		if len(n.Path) != 1 {
			return nil
		}
		return c.lookupSingle(n.Path[0], scope)
	case *ast.ResolvedIdentifier:
		if def, ok := n.Def.(*symtab.Definition); ok {
			return def
		}
	}
	return nil
}

// resolveRegister returns the register definition e names, or nil.
func (c *Compiler) resolveRegister(e ast.Expression, scope *symtab.Scope) *symtab.Definition {
	def := c.resolveVarRef(e, scope)
	if def != nil && def.Kind == symtab.KindRegister {
		return def
	}
	return nil
}

func (c *Compiler) lookupSingle(name string, scope *symtab.Scope) *symtab.Definition {
	defs := scope.FindUnqualifiedDefinitions(name)
	if len(defs) != 1 {
		return nil
	}
	return defs[0]
}

// registerDef resolves a platform register installed in the builtin
// (root) scope; selection against a table that never registered the
// name fails with its own candidate-list diagnostic later.
func (c *Compiler) registerDef(name string) *symtab.Definition {
	if def := c.root.FindLocalMemberDefinition(name); def != nil {
		return def
	}
	return &symtab.Definition{Name: name, Kind: symtab.KindRegister, Loc: ast.Builtin}
}

func (c *Compiler) addressOperand(def *symtab.Definition) (instr.Operand, bool) {
	if def.Address == nil {
		return nil, false
	}
	abs, ok := def.Address.Absolute()
	if !ok {
		return nil, false
	}
	return instr.Integer{Value: numeric.FromInt64(abs)}, true
}

func (c *Compiler) emitLoadA(loc ast.Location, value instr.Operand) {
	c.emitCode(loc, instr.InstructionType{Kind: instr.TypeLoadIntrinsic, IntrinsicName: accumulatorIntrinsic}, []instr.Operand{value}, ast.DistanceDefault)
}

func (c *Compiler) emitVoid(loc ast.Location, name string) {
	c.emitCode(loc, instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: name}, nil, ast.DistanceDefault)
}

func (c *Compiler) emitVoidWith(loc ast.Location, name string, operands ...instr.Operand) {
	c.emitCode(loc, instr.InstructionType{Kind: instr.TypeVoidIntrinsic, IntrinsicName: name}, operands, ast.DistanceDefault)
}

func (c *Compiler) emitCode(loc ast.Location, typ instr.InstructionType, operands []instr.Operand, hint ast.DistanceHint) {
	code := NewCode(loc, typ, c.mode, operands, hint)
	code.Bank = c.currentBank()
	c.ir = append(c.ir, code)
}

func (c *Compiler) currentBank() *bank.Bank {
	if len(c.bankStack) == 0 {
		return nil
	}
	return c.bankStack[len(c.bankStack)-1]
}
