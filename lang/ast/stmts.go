package ast

import "github.com/mna/dicelang/lang/token"

// VarDecl is `let [mut] name = value`.
type VarDecl struct {
	Name    string
	Mutable bool
	Value   Node
	span    token.Span
}

// FnDecl is a named function, method, static-function or constructor
// declaration: `fn name(params...) { body }`. Whether it is a method, a
// static function or a constructor is not recorded here: the compiler
// derives it from whether Params[0] is literally named "self" (methods,
// operators, constructors) or not (static functions), mirroring dice's own
// FnKind classification (see decl_class.rs's visit_fn). HasReturnType and
// friends describe an optional `-> Type['?']` annotation after the
// parameter list.
type FnDecl struct {
	Name             string
	Params           []Param
	Body             *Block
	HasReturnType    bool
	ReturnTypeName   string
	ReturnOrNullType bool
	span             token.Span
}

// OpDecl is an operator-overload declaration inside a class body, e.g.
// `op +(self, other) { ... }`. Name is the protocol operator name derived
// from Op (see §4.6's operator-declaration protocol).
type OpDecl struct {
	Op     token.Token
	Name   string
	Params []Param
	Body   *Block
	span   token.Span
}

// ClassDecl is a class declaration: `class Name [: Base] { ... }`. Methods
// holds every `fn` member regardless of whether it turns out to be an
// instance method or a static function; that classification happens in the
// compiler (see FnDecl's doc comment).
type ClassDecl struct {
	Name        string
	Base        Node // nil, or an expression evaluating to the base class
	Methods     []*FnDecl
	Operators   []*OpDecl
	Constructor *FnDecl // nil if the class declares no `new`
	span        token.Span
}

// ImportDecl is `import path [as alias]`.
type ImportDecl struct {
	Path  string
	Alias string
	span  token.Span
}

// ExportDecl is `export name1, name2, ...`.
type ExportDecl struct {
	Names []string
	span  token.Span
}

// IfExpression is `if cond { then } [else ...]`. Else is nil, a *Block (a
// plain `else { ... }`) or an *IfExpression (an `else if`).
type IfExpression struct {
	Cond Node
	Then *Block
	Else Node
	span token.Span
}

// Loop is `loop { body }`, an unconditional loop exited only via break.
type Loop struct {
	Body *Block
	span token.Span
}

// WhileLoop is `while cond { body }`.
type WhileLoop struct {
	Cond Node
	Body *Block
	span token.Span
}

// ForLoop is `for name in iterable { body }`.
type ForLoop struct {
	Var      string
	Iterable Node
	Body     *Block
	span     token.Span
}

// Break is `break [value]`, valid only inside a Loop/WhileLoop/ForLoop.
type Break struct {
	Value Node // may be nil
	span  token.Span
}

// Continue is `continue`, valid only inside a Loop/WhileLoop/ForLoop.
type Continue struct {
	span token.Span
}

// Return is `return [value]`, valid only inside a function/method/
// constructor context.
type Return struct {
	Value Node // may be nil
	span  token.Span
}

func (n *VarDecl) Span() token.Span      { return n.span }
func (n *FnDecl) Span() token.Span       { return n.span }
func (n *OpDecl) Span() token.Span       { return n.span }
func (n *ClassDecl) Span() token.Span    { return n.span }
func (n *ImportDecl) Span() token.Span   { return n.span }
func (n *ExportDecl) Span() token.Span   { return n.span }
func (n *IfExpression) Span() token.Span { return n.span }
func (n *Loop) Span() token.Span         { return n.span }
func (n *WhileLoop) Span() token.Span    { return n.span }
func (n *ForLoop) Span() token.Span      { return n.span }
func (n *Break) Span() token.Span        { return n.span }
func (n *Continue) Span() token.Span     { return n.span }
func (n *Return) Span() token.Span       { return n.span }

func NewVarDecl(name string, mutable bool, value Node, s token.Span) *VarDecl {
	return &VarDecl{Name: name, Mutable: mutable, Value: value, span: s}
}
func NewFnDecl(name string, params []Param, body *Block, s token.Span) *FnDecl {
	return &FnDecl{Name: name, Params: params, Body: body, span: s}
}
func NewOpDecl(op token.Token, name string, params []Param, body *Block, s token.Span) *OpDecl {
	return &OpDecl{Op: op, Name: name, Params: params, Body: body, span: s}
}
func NewClassDecl(name string, base Node, methods []*FnDecl, ops []*OpDecl, ctor *FnDecl, s token.Span) *ClassDecl {
	return &ClassDecl{Name: name, Base: base, Methods: methods, Operators: ops, Constructor: ctor, span: s}
}
func NewImportDecl(path, alias string, s token.Span) *ImportDecl {
	return &ImportDecl{Path: path, Alias: alias, span: s}
}
func NewExportDecl(names []string, s token.Span) *ExportDecl {
	return &ExportDecl{Names: names, span: s}
}
func NewIfExpression(cond Node, then *Block, els Node, s token.Span) *IfExpression {
	return &IfExpression{Cond: cond, Then: then, Else: els, span: s}
}
func NewLoop(body *Block, s token.Span) *Loop { return &Loop{Body: body, span: s} }
func NewWhileLoop(cond Node, body *Block, s token.Span) *WhileLoop {
	return &WhileLoop{Cond: cond, Body: body, span: s}
}
func NewForLoop(v string, iterable Node, body *Block, s token.Span) *ForLoop {
	return &ForLoop{Var: v, Iterable: iterable, Body: body, span: s}
}
func NewBreak(value Node, s token.Span) *Break       { return &Break{Value: value, span: s} }
func NewContinue(s token.Span) *Continue             { return &Continue{span: s} }
func NewReturn(value Node, s token.Span) *Return      { return &Return{Value: value, span: s} }
