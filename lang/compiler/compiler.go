// Package compiler lowers an *ast.Chunk directly into bytecode in a single
// pass, resolving lexical scopes and upvalues as it walks (C6), using the
// assembler (C3), scope stack (C4) and compiler stack (C5) to do so. There
// is no separate resolver pass: a name is classified local, upvalue or
// global at the point it is used.
package compiler

import (
	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/token"
	"github.com/mna/dicelang/lang/value"
)

// Protocol symbol names the compiler desugars certain operators to, per
// §6's "Protocol symbols" contract. The runtime's prelude must bind these.
const (
	protoRangeExclusive = "range_exclusive"
	protoRangeInclusive = "range_inclusive"
	protoDiceRoll       = "dice_roll"
	protoDieRoll        = "die_roll"
	protoLength         = "length"
)

type compiler struct {
	stack *compilerStack
}

// CompileScript compiles chunk as a top-level script: its trailing
// expression value is returned by the produced bytecode's execution.
func CompileScript(chunk *ast.Chunk) (*value.Bytecode, *Error) {
	c := &compiler{stack: newCompilerStack()}
	ctx := c.stack.push(kindScript)
	ctx.scopes.pushScope(scopeBlock, 0)
	ctx.scopes.addLocal("", stateLocal, false) // dummy receiver slot, calling-convention parity with methods
	if err := c.lowerBlockBody(ctx, scopeBlock, chunk.Exprs); err != nil {
		return nil, err
	}
	span := chunk.Span()
	sc := ctx.scopes.popScope()
	closeCaptured(ctx, sc, span)
	ctx.asm.ret(span)
	bc := ctx.finish()
	c.stack.pop()
	return bc, nil
}

// CompileModule compiles chunk as an importable module: slot 0 holds the
// module's export object (populated by ExportDecl) and is the bytecode's
// final value, per §4.9's module loading contract.
func CompileModule(chunk *ast.Chunk) (*value.Bytecode, *Error) {
	c := &compiler{stack: newCompilerStack()}
	ctx := c.stack.push(kindModule)
	ctx.scopes.pushScope(scopeBlock, 0)
	ctx.scopes.addLocal("", stateLocal, false) // slot 0: the module export object
	if err := c.lowerBlockBody(ctx, scopeBlock, chunk.Exprs); err != nil {
		return nil, err
	}
	span := chunk.Span()
	ctx.asm.loadLocal(span, 0)
	sc := ctx.scopes.popScope()
	closeCaptured(ctx, sc, span)
	ctx.asm.ret(span)
	bc := ctx.finish()
	c.stack.pop()
	return bc, nil
}

func closeCaptured(ctx *compilerContext, sc *scopeContext, span token.Span) {
	for _, v := range sc.variables {
		if v.isCaptured {
			ctx.asm.closeUpvalue(span, uint8(v.slot))
		}
	}
}

// --- blocks ---

// isDecl reports whether n is a declaration with zero net stack effect
// when used as a block item (VarDecl/FnDecl/ImportDecl/ExportDecl). A
// ClassDecl is deliberately excluded: per §4.6 its final emitted
// instruction is a LOAD_LOCAL of its own slot, so it behaves like any
// other value-producing expression.
func isDecl(n ast.Node) bool {
	switch n.(type) {
	case *ast.VarDecl, *ast.FnDecl, *ast.ImportDecl, *ast.ExportDecl:
		return true
	default:
		return false
	}
}

// preScanItems predeclares every FnDecl/ClassDecl directly nested in exprs,
// so forward references and recursion resolve to the right slot, per
// §4.6's "pre-scan of item decls at block entry".
func (c *compiler) preScanItems(ctx *compilerContext, exprs []ast.Node) *Error {
	top := ctx.scopes.top()
	declared := func(name string) bool {
		for _, v := range top.variables {
			if v.name == name {
				return true
			}
		}
		return false
	}
	for _, e := range exprs {
		switch n := e.(type) {
		case *ast.FnDecl:
			if declared(n.Name) {
				return newError(ItemAlreadyDeclared, n.Span(), "function %q already declared in this scope", n.Name)
			}
			ctx.scopes.addLocal(n.Name, stateFunction, false)
		case *ast.ClassDecl:
			if declared(n.Name) {
				return newError(ItemAlreadyDeclared, n.Span(), "class %q already declared in this scope", n.Name)
			}
			ctx.scopes.addLocal(n.Name, stateClass, false)
		}
	}
	return nil
}

// lowerBlockBody lowers exprs as the body of an already-pushed scope of the
// given kind. It does not push or pop the scope itself, so callers that
// need extra locals alongside the body (function parameters, for-loop
// bookkeeping) can declare them first in the same scope.
func (c *compiler) lowerBlockBody(ctx *compilerContext, kind scopeKind, exprs []ast.Node) *Error {
	if err := c.preScanItems(ctx, exprs); err != nil {
		return err
	}
	for i, e := range exprs {
		last := i == len(exprs)-1
		if isDecl(e) {
			if err := c.lowerDecl(ctx, e); err != nil {
				return err
			}
			if last {
				ctx.asm.pushUnit(e.Span())
			}
			continue
		}
		if err := c.lowerExpr(ctx, e); err != nil {
			return err
		}
		if !last {
			ctx.asm.pop(e.Span())
		}
	}
	if len(exprs) == 0 {
		ctx.asm.pushUnit(token.Span{})
	}
	if kind == scopeLoop {
		var span token.Span
		if len(exprs) > 0 {
			span = exprs[len(exprs)-1].Span()
		}
		ctx.asm.pop(span)
	}
	return nil
}

// lowerBlock pushes a fresh scope, lowers blk's expressions into it, closes
// any locals it captured, and pops it.
func (c *compiler) lowerBlock(ctx *compilerContext, kind scopeKind, entryPoint int, blk *ast.Block) (*scopeContext, *Error) {
	ctx.scopes.pushScope(kind, entryPoint)
	if err := c.lowerBlockBody(ctx, kind, blk.Exprs); err != nil {
		return nil, err
	}
	sc := ctx.scopes.popScope()
	closeCaptured(ctx, sc, blk.Span())
	return sc, nil
}

// --- declarations (zero net stack effect) ---

func (c *compiler) lowerDecl(ctx *compilerContext, n ast.Node) *Error {
	switch n := n.(type) {
	case *ast.VarDecl:
		return c.lowerVarDecl(ctx, n)
	case *ast.FnDecl:
		return c.lowerFnDecl(ctx, n)
	case *ast.ImportDecl:
		return c.lowerImportDecl(ctx, n)
	case *ast.ExportDecl:
		return c.lowerExportDecl(ctx, n)
	default:
		return newError(InternalCompilerError, n.Span(), "unexpected declaration node %T", n)
	}
}

func (c *compiler) lowerVarDecl(ctx *compilerContext, n *ast.VarDecl) *Error {
	if err := c.lowerExpr(ctx, n.Value); err != nil {
		return err
	}
	slot := ctx.scopes.addLocal(n.Name, stateLocal, n.Mutable)
	ctx.asm.storeLocal(n.Span(), uint8(slot))
	return nil
}

func (c *compiler) lowerFnDecl(ctx *compilerContext, n *ast.FnDecl) *Error {
	v := ctx.scopes.local(n.Name)
	if v == nil {
		// A function expression-statement not caught by the block pre-scan
		// (e.g. nested deeper than the immediate block); declare it here.
		ctx.scopes.addLocal(n.Name, stateFunction, false)
		v = ctx.scopes.local(n.Name)
	}
	fctx, err := c.compileFunctionBody(kindFunction, n.Params, false, returnTypeOf(n), n.Body)
	if err != nil {
		return err
	}
	bc := fctx.finish()
	if err := c.emitFunctionValue(ctx, n.Span(), n.Name, len(n.Params), bc, fctx.upvalues); err != nil {
		return err
	}
	v.initialized = true
	ctx.asm.storeLocal(n.Span(), uint8(v.slot))
	return nil
}

func (c *compiler) lowerImportDecl(ctx *compilerContext, n *ast.ImportDecl) *Error {
	if err := ctx.asm.loadModule(n.Span(), n.Path); err != nil {
		return err
	}
	name := n.Alias
	if name == "" {
		name = n.Path
	}
	slot := ctx.scopes.addLocal(name, stateLocal, false)
	ctx.asm.storeLocal(n.Span(), uint8(slot))
	return nil
}

func (c *compiler) lowerExportDecl(ctx *compilerContext, n *ast.ExportDecl) *Error {
	if ctx.kind != kindModule {
		return newError(InternalCompilerError, n.Span(), "export declaration outside a module")
	}
	for _, name := range n.Names {
		v := ctx.scopes.local(name)
		if v == nil {
			return newError(UndeclaredVariable, n.Span(), "export of undeclared name %q", name)
		}
		ctx.asm.loadLocal(n.Span(), 0)
		ctx.asm.loadLocal(n.Span(), uint8(v.slot))
		if err := ctx.asm.storeField(n.Span(), name); err != nil {
			return err
		}
		ctx.asm.pop(n.Span())
	}
	return nil
}

// --- function/method/constructor body compilation ---

// returnType captures an optional `-> Type['?']` annotation trailing a
// function declaration's parameter list, per §4.6's return-handling rule:
// when has is true, every return path (explicit or the implicit
// fallthrough at the end of the body) substitutes the type-asserting
// RETURN variant for the plain one.
type returnType struct {
	has    bool
	name   string
	orNull bool
}

func returnTypeOf(n *ast.FnDecl) returnType {
	return returnType{has: n.HasReturnType, name: n.ReturnTypeName, orNull: n.ReturnOrNullType}
}

// arityOf is the calling-convention arity of params: every declared
// parameter except a bound `self` receiver, which callers never pass
// explicitly (§4.9's calling convention).
func arityOf(params []ast.Param, selfBound bool) int {
	n := len(params)
	if selfBound {
		n--
	}
	return n
}

// compileFunctionBody compiles params+body in a fresh nested compiler
// context, pushed onto c.stack and popped before returning. selfBound, if
// true, means params[0] is the caller-validated `self` receiver parameter:
// it is bound at slot 0 under that name and excluded from the parameters
// subsequently bound; otherwise slot 0 is an unnamed dummy, so the calling
// convention matches methods either way (§4.6), and params binds from slot
// 1. For a constructor (kindConstructor), the body's trailing value is
// discarded and the receiver is returned instead, per §4.6's
// return-handling rule for `new`. ret is threaded onto the new context so
// every return path can select the asserting RETURN variant it names.
func (c *compiler) compileFunctionBody(kind compilerKind, params []ast.Param, selfBound bool, ret returnType, body *ast.Block) (*compilerContext, *Error) {
	ctx := c.stack.push(kind)
	ctx.hasReturnType = ret.has
	ctx.returnTypeName = ret.name
	ctx.returnOrNullType = ret.orNull
	ctx.scopes.pushScope(scopeBlock, 0)

	bound := params
	if selfBound {
		ctx.scopes.addLocal(params[0].Name, stateLocal, false)
		bound = params[1:]
	} else {
		ctx.scopes.addLocal("", stateLocal, false)
	}
	for _, p := range bound {
		slot := ctx.scopes.addLocal(p.Name, stateLocal, false)
		if p.HasType {
			if err := c.emitParamTypeAssert(ctx, body.Span(), p, slot); err != nil {
				c.stack.pop()
				return nil, err
			}
		}
	}
	if err := c.lowerBlockBody(ctx, scopeBlock, body.Exprs); err != nil {
		c.stack.pop()
		return nil, err
	}
	span := body.Span()
	if kind == kindConstructor {
		ctx.asm.pop(span)
		ctx.asm.loadLocal(span, 0)
	}
	sc := ctx.scopes.popScope()
	closeCaptured(ctx, sc, span)
	if err := c.emitReturn(ctx, span); err != nil {
		c.stack.pop()
		return nil, err
	}
	c.stack.pop()
	return ctx, nil
}

// pushTypeClass pushes the Class value that a type annotation's name
// resolves to, using the same local/upvalue/global resolution as any other
// identifier (a user class and a built-in kind class, e.g. "Int", are both
// just bound names).
func (c *compiler) pushTypeClass(ctx *compilerContext, span token.Span, name string) *Error {
	return c.lowerIdent(ctx, ast.NewLitIdent(name, span))
}

// emitParamTypeAssert emits the ASSERT_TYPE_FOR_LOCAL (or …_OR_NULL_…)
// instruction checking that the value just bound at slot conforms to p's
// declared type, per §4.2's opcode table.
func (c *compiler) emitParamTypeAssert(ctx *compilerContext, span token.Span, p ast.Param, slot int) *Error {
	if err := c.pushTypeClass(ctx, span, p.TypeName); err != nil {
		return err
	}
	ctx.asm.assertTypeForLocal(span, uint8(slot), p.OrNullType)
	return nil
}

// emitReturn emits the RETURN family instruction for ctx's current
// function context, after unwinding any pending call-protocol temporaries:
// the type-asserting variant if ctx declares a return-type annotation,
// plain RETURN otherwise (§4.6).
func (c *compiler) emitReturn(ctx *compilerContext, span token.Span) *Error {
	emitReturnCleanup(ctx, span)
	if !ctx.hasReturnType {
		ctx.asm.ret(span)
		return nil
	}
	if err := c.pushTypeClass(ctx, span, ctx.returnTypeName); err != nil {
		return err
	}
	ctx.asm.assertTypeAndReturn(span, ctx.returnOrNullType)
	return nil
}

// emitFunctionValue interns bc as a FnScript constant in ctx's pool and
// emits either PUSH_CONST (no captures) or CREATE_CLOSURE (captures),
// leaving exactly one value on the stack.
func (c *compiler) emitFunctionValue(ctx *compilerContext, span token.Span, name string, arity int, bc *value.Bytecode, upvalues []upvalueDescriptor) *Error {
	fn := value.NewFnScript(name, arity, bc)
	constIdx, err := ctx.asm.makeConstant(fn)
	if err != nil {
		return err
	}
	if len(upvalues) == 0 {
		ctx.asm.emitU8(span, value.PUSH_CONST, constIdx)
		return nil
	}
	refs := make([]upvalueRef, len(upvalues))
	for i, u := range upvalues {
		refs[i] = upvalueRef{ParentLocal: u.parentLocal, Index: uint8(u.index)}
	}
	ctx.asm.createClosure(span, constIdx, refs)
	return nil
}

// --- classes ---

func (c *compiler) lowerClassDecl(ctx *compilerContext, n *ast.ClassDecl) *Error {
	v := ctx.scopes.local(n.Name)
	if v == nil {
		ctx.scopes.addLocal(n.Name, stateClass, false)
		v = ctx.scopes.local(n.Name)
	}
	nameIdx, err := ctx.asm.makeConstant(value.Symbol(n.Name))
	if err != nil {
		return err
	}
	if n.Base != nil {
		if err := c.lowerExpr(ctx, n.Base); err != nil {
			return err
		}
		ctx.asm.inheritClass(n.Span(), nameIdx)
	} else {
		ctx.asm.createClass(n.Span(), nameIdx)
	}
	ctx.asm.storeLocal(n.Span(), uint8(v.slot))

	for _, m := range n.Methods {
		if err := c.lowerClassMethod(ctx, v.slot, m); err != nil {
			return err
		}
	}
	for _, o := range n.Operators {
		if err := c.lowerClassOperator(ctx, v.slot, o); err != nil {
			return err
		}
	}
	if n.Constructor != nil {
		if err := c.lowerConstructor(ctx, v.slot, n.Constructor, n.Base != nil); err != nil {
			return err
		}
	}

	v.initialized = true
	ctx.asm.loadLocal(n.Span(), uint8(v.slot))
	return nil
}

// selfReceiver reports whether params declares a `self` receiver as its
// first parameter (a method, operator or constructor) rather than none (a
// static function), and rejects a typed `self` either way: dice's own
// FnKind classification (decl_class.rs's visit_fn/visit_op) runs this same
// check before deciding the function's kind.
func selfReceiver(params []ast.Param) (bound bool, err *Error) {
	if len(params) == 0 || params[0].Name != "self" {
		return false, nil
	}
	if params[0].HasType {
		return true, newError(SelfParameterHasType, tokenZeroSpan(), "self parameter must not have a type annotation")
	}
	return true, nil
}

// lowerClassMethod compiles one `fn` member of a class body. Whether it
// ends up a method (STORE_METHOD, dispatched on an instance) or a static
// function (STORE_FIELD, a plain field of the class) is decided here by
// whether its first parameter is the literal `self`, matching dice's
// visit_fn.
func (c *compiler) lowerClassMethod(ctx *compilerContext, classSlot int, fn *ast.FnDecl) *Error {
	selfBound, serr := selfReceiver(fn.Params)
	if serr != nil {
		return newError(serr.Kind, fn.Span(), "%s", serr.Message)
	}
	isStatic := !selfBound

	fctx, err := c.compileFunctionBody(kindMethod, fn.Params, selfBound, returnTypeOf(fn), fn.Body)
	if err != nil {
		return err
	}
	bc := fctx.finish()
	ctx.asm.loadLocal(fn.Span(), uint8(classSlot))
	if err := c.emitFunctionValue(ctx, fn.Span(), fn.Name, arityOf(fn.Params, selfBound), bc, fctx.upvalues); err != nil {
		return err
	}
	if isStatic {
		if err := ctx.asm.storeField(fn.Span(), fn.Name); err != nil {
			return err
		}
		ctx.asm.pop(fn.Span())
		ctx.asm.loadLocal(fn.Span(), uint8(classSlot))
	} else {
		if err := ctx.asm.storeMethod(fn.Span(), fn.Name); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) lowerClassOperator(ctx *compilerContext, classSlot int, op *ast.OpDecl) *Error {
	selfBound, serr := selfReceiver(op.Params)
	if serr != nil {
		return newError(serr.Kind, op.Span(), "%s", serr.Message)
	}
	if !selfBound {
		return newError(OperatorMethodHasNoSelf, op.Span(), "operator %q must declare self as its first parameter", op.Name)
	}

	fctx, err := c.compileFunctionBody(kindMethod, op.Params, true, returnType{}, op.Body)
	if err != nil {
		return err
	}
	bc := fctx.finish()
	ctx.asm.loadLocal(op.Span(), uint8(classSlot))
	if err := c.emitFunctionValue(ctx, op.Span(), op.Name, arityOf(op.Params, true), bc, fctx.upvalues); err != nil {
		return err
	}
	if err := ctx.asm.storeMethod(op.Span(), op.Name); err != nil {
		return err
	}
	return nil
}

func (c *compiler) lowerConstructor(ctx *compilerContext, classSlot int, ctor *ast.FnDecl, hasBase bool) *Error {
	selfBound, serr := selfReceiver(ctor.Params)
	if serr != nil {
		return newError(serr.Kind, ctor.Span(), "%s", serr.Message)
	}
	if !selfBound {
		return newError(NewMustHaveSelfReceiver, ctor.Span(), "constructor must declare self as its first parameter")
	}
	if hasBase {
		if len(ctor.Body.Exprs) == 0 {
			return newError(NewMustCallSuperFromSubclass, ctor.Span(), "constructor of a derived class must begin with a super call")
		}
		if _, ok := ctor.Body.Exprs[0].(*ast.SuperCall); !ok {
			return newError(NewMustCallSuperFromSubclass, ctor.Span(), "constructor of a derived class must begin with a super call")
		}
	}
	fctx, err := c.compileFunctionBody(kindConstructor, ctor.Params, true, returnType{}, ctor.Body)
	if err != nil {
		return err
	}
	bc := fctx.finish()
	ctx.asm.loadLocal(ctor.Span(), uint8(classSlot))
	if err := c.emitFunctionValue(ctx, ctor.Span(), "new", arityOf(ctor.Params, true), bc, fctx.upvalues); err != nil {
		return err
	}
	if err := ctx.asm.storeMethod(ctor.Span(), "new"); err != nil {
		return err
	}
	return nil
}

// --- expressions ---

func (c *compiler) lowerExpr(ctx *compilerContext, n ast.Node) *Error {
	span := n.Span()
	switch n := n.(type) {
	case *ast.LitNull:
		ctx.asm.pushNull(span)
	case *ast.LitUnit:
		ctx.asm.pushUnit(span)
	case *ast.LitBool:
		ctx.asm.pushBool(span, n.Value)
	case *ast.LitInt:
		return c.lowerLitInt(ctx, n)
	case *ast.LitFloat:
		return c.lowerLitFloat(ctx, n)
	case *ast.LitString:
		return ctx.asm.pushConst(span, value.String(n.Value))
	case *ast.LitIdent:
		return c.lowerIdent(ctx, n)
	case *ast.LitArray:
		return c.lowerLitArray(ctx, n)
	case *ast.LitObject:
		return c.lowerLitObject(ctx, n)
	case *ast.LitAnonymousFn:
		return c.lowerAnonymousFn(ctx, n)
	case *ast.Block:
		_, err := c.lowerBlock(ctx, scopeBlock, 0, n)
		return err
	case *ast.FieldAccess:
		if err := c.lowerExpr(ctx, n.Target); err != nil {
			return err
		}
		return ctx.asm.loadField(span, n.Name)
	case *ast.SuperAccess:
		// Simplification: super.name dispatches on self, just as self.name
		// would. True base-class-first method resolution would need either a
		// dedicated opcode or a compile-time-resolved class constant, both
		// beyond this bytecode format.
		ctx.asm.loadLocal(span, 0)
		return ctx.asm.loadField(span, n.Name)
	case *ast.Index:
		return c.lowerIndex(ctx, n)
	case *ast.Prefix:
		return c.lowerPrefix(ctx, n)
	case *ast.Binary:
		return c.lowerBinary(ctx, n)
	case *ast.Is:
		if err := c.lowerExpr(ctx, n.Left); err != nil {
			return err
		}
		if err := c.lowerExpr(ctx, n.Class); err != nil {
			return err
		}
		ctx.asm.is(span)
	case *ast.NullPropagate:
		return c.lowerNullPropagate(ctx, n)
	case *ast.ErrorPropagate:
		return c.lowerErrorPropagate(ctx, n)
	case *ast.Assignment:
		return c.lowerAssignment(ctx, n)
	case *ast.FnCall:
		return c.lowerFnCall(ctx, n)
	case *ast.SuperCall:
		return c.lowerSuperCall(ctx, n)
	case *ast.ClassDecl:
		return c.lowerClassDecl(ctx, n)
	case *ast.IfExpression:
		return c.lowerIf(ctx, n)
	case *ast.Loop:
		return c.lowerLoop(ctx, n)
	case *ast.WhileLoop:
		return c.lowerWhile(ctx, n)
	case *ast.ForLoop:
		return c.lowerFor(ctx, n)
	case *ast.Break:
		return c.lowerBreak(ctx, n)
	case *ast.Continue:
		return c.lowerContinue(ctx, n)
	case *ast.Return:
		return c.lowerReturn(ctx, n)
	default:
		return newError(InternalCompilerError, span, "unhandled expression node %T", n)
	}
	return nil
}

func (c *compiler) lowerLitInt(ctx *compilerContext, n *ast.LitInt) *Error {
	span := n.Span()
	switch n.Value {
	case 0:
		ctx.asm.pushI0(span)
	case 1:
		ctx.asm.pushI1(span)
	default:
		return ctx.asm.pushConst(span, value.Int(n.Value))
	}
	return nil
}

func (c *compiler) lowerLitFloat(ctx *compilerContext, n *ast.LitFloat) *Error {
	span := n.Span()
	switch n.Value {
	case 0:
		ctx.asm.pushF0(span)
	case 1:
		ctx.asm.pushF1(span)
	default:
		return ctx.asm.pushConst(span, value.Float(n.Value))
	}
	return nil
}

func (c *compiler) lowerIdent(ctx *compilerContext, n *ast.LitIdent) *Error {
	span := n.Span()
	if v := ctx.scopes.local(n.Name); v != nil {
		if !v.initialized {
			return newError(UninitializedVariable, span, "variable %q used before initialization", n.Name)
		}
		ctx.asm.loadLocal(span, uint8(v.slot))
		return nil
	}
	idx, found, err := c.stack.resolveUpvalue(n.Name, 0)
	if err != nil {
		return err
	}
	if found {
		ctx.asm.loadUpvalue(span, uint8(idx))
		return nil
	}
	return ctx.asm.loadGlobal(span, n.Name)
}

func (c *compiler) lowerLitArray(ctx *compilerContext, n *ast.LitArray) *Error {
	if len(n.Elems) > 255 {
		return newError(InternalCompilerError, n.Span(), "array literal exceeds 255 elements")
	}
	for _, e := range n.Elems {
		if err := c.lowerExpr(ctx, e); err != nil {
			return err
		}
	}
	ctx.asm.createArray(n.Span(), uint8(len(n.Elems)))
	return nil
}

func (c *compiler) lowerLitObject(ctx *compilerContext, n *ast.LitObject) *Error {
	ctx.asm.createObject(n.Span())
	for _, f := range n.Fields {
		ctx.asm.dup(n.Span(), 0)
		if err := c.lowerExpr(ctx, f.Value); err != nil {
			return err
		}
		if err := ctx.asm.storeField(n.Span(), f.Key); err != nil {
			return err
		}
		ctx.asm.pop(n.Span())
	}
	return nil
}

func (c *compiler) lowerAnonymousFn(ctx *compilerContext, n *ast.LitAnonymousFn) *Error {
	fctx, err := c.compileFunctionBody(kindFunction, n.Params, false, returnType{}, n.Body)
	if err != nil {
		return err
	}
	bc := fctx.finish()
	return c.emitFunctionValue(ctx, n.Span(), "<anonymous>", len(n.Params), bc, fctx.upvalues)
}

func (c *compiler) lowerIndex(ctx *compilerContext, n *ast.Index) *Error {
	if err := c.lowerExpr(ctx, n.Target); err != nil {
		return err
	}
	ctx.temporaryCount++
	err := c.lowerExpr(ctx, n.Index)
	ctx.temporaryCount--
	if err != nil {
		return err
	}
	ctx.asm.loadIndex(n.Span())
	return nil
}

func (c *compiler) lowerPrefix(ctx *compilerContext, n *ast.Prefix) *Error {
	span := n.Span()
	switch n.Op {
	case token.MINUS:
		if err := c.lowerExpr(ctx, n.Right); err != nil {
			return err
		}
		ctx.asm.neg(span)
	case token.NOT:
		if err := c.lowerExpr(ctx, n.Right); err != nil {
			return err
		}
		ctx.asm.not(span)
	case token.DICE_ROLL:
		if err := ctx.asm.loadGlobal(span, protoDieRoll); err != nil {
			return err
		}
		if err := c.lowerExpr(ctx, n.Right); err != nil {
			return err
		}
		ctx.asm.call(span, 1)
	default:
		return newError(InternalCompilerError, span, "unhandled prefix operator %s", n.Op)
	}
	return nil
}

func (c *compiler) lowerBinary(ctx *compilerContext, n *ast.Binary) *Error {
	span := n.Span()
	switch n.Op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.GT, token.GE, token.LT, token.LE, token.EQL, token.NEQ:
		if err := c.lowerExpr(ctx, n.Left); err != nil {
			return err
		}
		if err := c.lowerExpr(ctx, n.Right); err != nil {
			return err
		}
		switch n.Op {
		case token.PLUS:
			ctx.asm.add(span)
		case token.MINUS:
			ctx.asm.sub(span)
		case token.STAR:
			ctx.asm.mul(span)
		case token.SLASH:
			ctx.asm.div(span)
		case token.PERCENT:
			ctx.asm.rem(span)
		case token.GT:
			ctx.asm.gt(span)
		case token.GE:
			ctx.asm.gte(span)
		case token.LT:
			ctx.asm.lt(span)
		case token.LE:
			ctx.asm.lte(span)
		case token.EQL:
			ctx.asm.eq(span)
		case token.NEQ:
			ctx.asm.neq(span)
		}
		return nil
	case token.LAZY_AND:
		return c.lowerLazyAnd(ctx, n)
	case token.LAZY_OR:
		return c.lowerLazyOr(ctx, n)
	case token.PIPELINE:
		if err := c.lowerExpr(ctx, n.Right); err != nil {
			return err
		}
		if err := c.lowerExpr(ctx, n.Left); err != nil {
			return err
		}
		ctx.asm.call(span, 1)
		return nil
	case token.RANGE_EXCL, token.RANGE_INCL, token.DICE_ROLL:
		name := protoRangeExclusive
		switch n.Op {
		case token.RANGE_INCL:
			name = protoRangeInclusive
		case token.DICE_ROLL:
			name = protoDiceRoll
		}
		if err := ctx.asm.loadGlobal(span, name); err != nil {
			return err
		}
		if err := c.lowerExpr(ctx, n.Left); err != nil {
			return err
		}
		if err := c.lowerExpr(ctx, n.Right); err != nil {
			return err
		}
		ctx.asm.call(span, 2)
		return nil
	default:
		return newError(InternalCompilerError, span, "unhandled binary operator %s", n.Op)
	}
}

func (c *compiler) lowerLazyAnd(ctx *compilerContext, n *ast.Binary) *Error {
	span := n.Span()
	if err := c.lowerExpr(ctx, n.Left); err != nil {
		return err
	}
	ctx.asm.dup(span, 0)
	ctx.asm.assertBool(span)
	patch := ctx.asm.jump(span, value.JUMP_IF_FALSE)
	ctx.asm.pop(span)
	if err := c.lowerExpr(ctx, n.Right); err != nil {
		return err
	}
	ctx.asm.assertBool(span)
	ctx.asm.patchJump(patch)
	return nil
}

func (c *compiler) lowerLazyOr(ctx *compilerContext, n *ast.Binary) *Error {
	span := n.Span()
	if err := c.lowerExpr(ctx, n.Left); err != nil {
		return err
	}
	ctx.asm.dup(span, 0)
	ctx.asm.assertBool(span)
	patch := ctx.asm.jump(span, value.JUMP_IF_TRUE)
	ctx.asm.pop(span)
	if err := c.lowerExpr(ctx, n.Right); err != nil {
		return err
	}
	ctx.asm.assertBool(span)
	ctx.asm.patchJump(patch)
	return nil
}

func (c *compiler) lowerNullPropagate(ctx *compilerContext, n *ast.NullPropagate) *Error {
	span := n.Span()
	if err := c.lowerExpr(ctx, n.Left); err != nil {
		return err
	}
	ctx.asm.dup(span, 0)
	ctx.asm.pushNull(span)
	ctx.asm.eq(span)
	patch := ctx.asm.jump(span, value.JUMP_IF_FALSE)
	ctx.asm.pop(span)
	if err := c.lowerExpr(ctx, n.Right); err != nil {
		return err
	}
	ctx.asm.patchJump(patch)
	return nil
}

func (c *compiler) lowerErrorPropagate(ctx *compilerContext, n *ast.ErrorPropagate) *Error {
	if !ctx.kind.isCallable() {
		return newError(InvalidErrorPropagateUsage, n.Span(), "error-propagate (!!) is only valid inside a function, method or constructor")
	}
	span := n.Span()
	if err := c.lowerExpr(ctx, n.Target); err != nil {
		return err
	}
	ctx.asm.dup(span, 0)
	if err := ctx.asm.loadField(span, "is_ok"); err != nil {
		return err
	}
	patchOk := ctx.asm.jump(span, value.JUMP_IF_TRUE)
	emitReturnCleanup(ctx, span)
	ctx.asm.ret(span)
	ctx.asm.patchJump(patchOk)
	return ctx.asm.loadField(span, "result")
}

func emitReturnCleanup(ctx *compilerContext, span token.Span) {
	for i := 0; i < ctx.temporaryCount; i++ {
		ctx.asm.swap(span)
		ctx.asm.pop(span)
	}
}

func (c *compiler) lowerAssignment(ctx *compilerContext, n *ast.Assignment) *Error {
	span := n.Span()
	switch target := n.Target.(type) {
	case *ast.LitIdent:
		return c.lowerAssignIdent(ctx, target, n.Op, n.Value, span)
	case *ast.FieldAccess:
		return c.lowerAssignField(ctx, target, n.Op, n.Value, span)
	case *ast.Index:
		return c.lowerAssignIndex(ctx, target, n.Op, n.Value, span)
	default:
		return newError(InvalidAssignmentTarget, span, "invalid assignment target %T", n.Target)
	}
}

func (c *compiler) lowerAssignIdent(ctx *compilerContext, target *ast.LitIdent, op token.Token, value_ ast.Node, span token.Span) *Error {
	if v := ctx.scopes.local(target.Name); v != nil {
		if !v.mutable {
			return newError(ImmutableVariable, span, "variable %q is not mutable", target.Name)
		}
		if op != token.ASSIGN {
			ctx.asm.loadLocal(span, uint8(v.slot))
		}
		if err := c.lowerExpr(ctx, value_); err != nil {
			return err
		}
		if op != token.ASSIGN {
			emitBinaryFor(ctx, span, op.BinaryOp())
		}
		ctx.asm.assignLocal(span, uint8(v.slot))
		return nil
	}
	idx, found, err := c.stack.resolveUpvalue(target.Name, 0)
	if err != nil {
		return err
	}
	if !found {
		return newError(UndeclaredVariable, span, "undeclared variable %q", target.Name)
	}
	if op != token.ASSIGN {
		ctx.asm.loadUpvalue(span, uint8(idx))
	}
	if err := c.lowerExpr(ctx, value_); err != nil {
		return err
	}
	if op != token.ASSIGN {
		emitBinaryFor(ctx, span, op.BinaryOp())
	}
	ctx.asm.assignUpvalue(span, uint8(idx))
	return nil
}

func (c *compiler) lowerAssignField(ctx *compilerContext, target *ast.FieldAccess, op token.Token, value_ ast.Node, span token.Span) *Error {
	if err := c.lowerExpr(ctx, target.Target); err != nil {
		return err
	}
	if op != token.ASSIGN {
		ctx.asm.dup(span, 0)
		if err := ctx.asm.loadField(span, target.Name); err != nil {
			return err
		}
	}
	if err := c.lowerExpr(ctx, value_); err != nil {
		return err
	}
	if op != token.ASSIGN {
		emitBinaryFor(ctx, span, op.BinaryOp())
	}
	return ctx.asm.assignField(span, target.Name)
}

func (c *compiler) lowerAssignIndex(ctx *compilerContext, target *ast.Index, op token.Token, value_ ast.Node, span token.Span) *Error {
	if err := c.lowerExpr(ctx, target.Target); err != nil {
		return err
	}
	if err := c.lowerExpr(ctx, target.Index); err != nil {
		return err
	}
	if op != token.ASSIGN {
		ctx.asm.dup(span, 1)
		ctx.asm.dup(span, 1)
		ctx.asm.loadIndex(span)
	}
	if err := c.lowerExpr(ctx, value_); err != nil {
		return err
	}
	if op != token.ASSIGN {
		emitBinaryFor(ctx, span, op.BinaryOp())
	}
	ctx.asm.assignIndex(span)
	return nil
}

func emitBinaryFor(ctx *compilerContext, span token.Span, op token.Token) {
	switch op {
	case token.PLUS:
		ctx.asm.add(span)
	case token.MINUS:
		ctx.asm.sub(span)
	case token.STAR:
		ctx.asm.mul(span)
	case token.SLASH:
		ctx.asm.div(span)
	}
}

func (c *compiler) lowerFnCall(ctx *compilerContext, n *ast.FnCall) *Error {
	if len(n.Args) > 255 {
		return newError(InternalCompilerError, n.Span(), "call exceeds 255 arguments")
	}
	if err := c.lowerExpr(ctx, n.Callee); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.lowerExpr(ctx, a); err != nil {
			return err
		}
	}
	ctx.asm.call(n.Span(), uint8(len(n.Args)))
	return nil
}

func (c *compiler) lowerSuperCall(ctx *compilerContext, n *ast.SuperCall) *Error {
	span := n.Span()
	// Simplification mirrored from SuperAccess: dispatches `new` on self
	// rather than skipping to the lexical base class.
	ctx.asm.loadLocal(span, 0)
	if err := ctx.asm.loadField(span, "new"); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.lowerExpr(ctx, a); err != nil {
			return err
		}
	}
	ctx.asm.call(span, uint8(len(n.Args)))
	return nil
}

func (c *compiler) lowerIf(ctx *compilerContext, n *ast.IfExpression) *Error {
	span := n.Span()
	if err := c.lowerExpr(ctx, n.Cond); err != nil {
		return err
	}
	patchElse := ctx.asm.jump(span, value.JUMP_IF_FALSE)
	if _, err := c.lowerBlock(ctx, scopeBlock, 0, n.Then); err != nil {
		return err
	}
	patchEnd := ctx.asm.jump(span, value.JUMP)
	ctx.asm.patchJump(patchElse)
	switch e := n.Else.(type) {
	case nil:
		ctx.asm.pushUnit(span)
	case *ast.Block:
		if _, err := c.lowerBlock(ctx, scopeBlock, 0, e); err != nil {
			return err
		}
	case *ast.IfExpression:
		if err := c.lowerIf(ctx, e); err != nil {
			return err
		}
	default:
		return newError(InternalCompilerError, span, "unexpected else node %T", n.Else)
	}
	ctx.asm.patchJump(patchEnd)
	return nil
}

func (c *compiler) lowerLoop(ctx *compilerContext, n *ast.Loop) *Error {
	span := n.Span()
	loopStart := ctx.asm.currentPosition()
	sc, err := c.lowerBlock(ctx, scopeLoop, loopStart, n.Body)
	if err != nil {
		return err
	}
	ctx.asm.jumpBack(span, loopStart)
	for _, p := range sc.loopExitPoints {
		ctx.asm.patchJump(p)
	}
	ctx.asm.pushUnit(span)
	return nil
}

func (c *compiler) lowerWhile(ctx *compilerContext, n *ast.WhileLoop) *Error {
	span := n.Span()
	start := ctx.asm.currentPosition()
	if err := c.lowerExpr(ctx, n.Cond); err != nil {
		return err
	}
	patchEnd := ctx.asm.jump(span, value.JUMP_IF_FALSE)
	sc, err := c.lowerBlock(ctx, scopeLoop, start, n.Body)
	if err != nil {
		return err
	}
	ctx.asm.jumpBack(span, start)
	ctx.asm.patchJump(patchEnd)
	for _, p := range sc.loopExitPoints {
		ctx.asm.patchJump(p)
	}
	ctx.asm.pushUnit(span)
	return nil
}

// lowerFor desugars `for v in iterable { body }` into an index-counted
// loop over iterable, using the "length" protocol symbol and LOAD_INDEX.
// This covers array-like iterables; a richer iterator protocol (iterate/
// next methods) is not supported.
func (c *compiler) lowerFor(ctx *compilerContext, n *ast.ForLoop) *Error {
	span := n.Span()
	if err := c.lowerExpr(ctx, n.Iterable); err != nil {
		return err
	}
	iterSlot := ctx.scopes.addLocal("#iter", stateLocal, false)
	ctx.asm.storeLocal(span, uint8(iterSlot))

	ctx.asm.pushI0(span)
	idxSlot := ctx.scopes.addLocal("#idx", stateLocal, true)
	ctx.asm.storeLocal(span, uint8(idxSlot))

	if err := ctx.asm.loadGlobal(span, protoLength); err != nil {
		return err
	}
	ctx.asm.loadLocal(span, uint8(iterSlot))
	ctx.asm.call(span, 1)
	lenSlot := ctx.scopes.addLocal("#len", stateLocal, false)
	ctx.asm.storeLocal(span, uint8(lenSlot))

	loopStart := ctx.asm.currentPosition()
	ctx.scopes.pushScope(scopeLoop, loopStart)
	ctx.asm.loadLocal(span, uint8(idxSlot))
	ctx.asm.loadLocal(span, uint8(lenSlot))
	ctx.asm.lt(span)
	patchEnd := ctx.asm.jump(span, value.JUMP_IF_FALSE)

	ctx.asm.loadLocal(span, uint8(iterSlot))
	ctx.asm.loadLocal(span, uint8(idxSlot))
	ctx.asm.loadIndex(span)
	varSlot := ctx.scopes.addLocal(n.Var, stateLocal, false)
	ctx.asm.storeLocal(span, uint8(varSlot))

	if err := c.lowerBlockBody(ctx, scopeLoop, n.Body.Exprs); err != nil {
		return err
	}

	ctx.asm.loadLocal(span, uint8(idxSlot))
	ctx.asm.pushI1(span)
	ctx.asm.add(span)
	ctx.asm.assignLocal(span, uint8(idxSlot))
	ctx.asm.pop(span)
	ctx.asm.jumpBack(span, loopStart)
	ctx.asm.patchJump(patchEnd)

	sc := ctx.scopes.popScope()
	closeCaptured(ctx, sc, span)
	for _, p := range sc.loopExitPoints {
		ctx.asm.patchJump(p)
	}
	ctx.asm.pushUnit(span)
	return nil
}

func (c *compiler) lowerBreak(ctx *compilerContext, n *ast.Break) *Error {
	span := n.Span()
	if !ctx.scopes.inLoop() {
		return newError(InvalidBreak, span, "break outside a loop")
	}
	if n.Value != nil {
		// Simplification: a break value is evaluated for side effects but
		// discarded; the loop as a whole always yields Unit, per §4.6.
		if err := c.lowerExpr(ctx, n.Value); err != nil {
			return err
		}
		ctx.asm.pop(span)
	}
	pos := ctx.asm.jump(span, value.JUMP)
	ctx.scopes.addLoopExitPoint(pos)
	return nil
}

func (c *compiler) lowerContinue(ctx *compilerContext, n *ast.Continue) *Error {
	span := n.Span()
	entry, ok := ctx.scopes.entryPointOf(scopeLoop)
	if !ok {
		return newError(InvalidContinue, span, "continue outside a loop")
	}
	ctx.asm.jumpBack(span, entry)
	return nil
}

func (c *compiler) lowerReturn(ctx *compilerContext, n *ast.Return) *Error {
	span := n.Span()
	if !ctx.kind.isCallable() {
		return newError(InvalidReturn, span, "return outside a function, method or constructor")
	}
	if ctx.kind == kindConstructor {
		if n.Value != nil {
			if _, ok := n.Value.(*ast.LitNull); !ok {
				return newError(NewReturnCannotHaveExpression, span, "constructor return cannot carry an expression")
			}
		}
		ctx.asm.loadLocal(span, 0)
	} else if n.Value != nil {
		if err := c.lowerExpr(ctx, n.Value); err != nil {
			return err
		}
	} else {
		ctx.asm.pushUnit(span)
	}
	return c.emitReturn(ctx, span)
}
