package ast

import (
	"github.com/mna/dicelang/lang/token"
)

// FieldAccess is `target.name`.
type FieldAccess struct {
	Target Node
	Name   string
	span   token.Span
}

// SuperAccess is `super.name`, valid only inside a method/constructor body
// of a class with a base.
type SuperAccess struct {
	Name string
	span token.Span
}

// Index is `target[index]`.
type Index struct {
	Target Node
	Index  Node
	span   token.Span
}

// Prefix is a unary operator expression: `-x`, `!x` or `dx` (die roll).
type Prefix struct {
	Op    token.Token // MINUS, NOT or DICE_ROLL
	Right Node
	span  token.Span
}

// Binary is a binary operator expression. Op also covers the protocol
// operators lowered via a global call per §4.6 (RANGE_EXCL, RANGE_INCL,
// DICE_ROLL, PIPELINE) and the short-circuiting ones (LAZY_AND, LAZY_OR,
// COALESCE).
type Binary struct {
	Left  Node
	Op    token.Token
	Right Node
	span  token.Span
}

// Is is a class-conformance test: `value is ClassExpr`.
type Is struct {
	Left  Node
	Class Node
	span  token.Span
}

// NullPropagate is a use of `??`: evaluate Left, yield it unless it is null,
// in which case yield Right instead.
type NullPropagate struct {
	Left  Node
	Right Node
	span  token.Span
}

// ErrorPropagate is a use of the `!!` suffix operator, valid only inside a
// function/method/constructor body, per §4.6.
type ErrorPropagate struct {
	Target Node
	span   token.Span
}

// Assignment covers plain `=` and the compound forms (`+=`, `-=`, `*=`,
// `/=`). Target must be an LitIdent, FieldAccess or Index node; anything
// else is rejected by the compiler as InvalidAssignmentTarget.
type Assignment struct {
	Target Node
	Op     token.Token // ASSIGN, ADD_ASSIGN, SUB_ASSIGN, MUL_ASSIGN or DIV_ASSIGN
	Value  Node
	span   token.Span
}

// FnCall is a function/method call: `callee(args...)`.
type FnCall struct {
	Callee Node
	Args   []Node
	span   token.Span
}

// SuperCall is `super(args...)`, required as the first expression of a
// derived class's constructor.
type SuperCall struct {
	Args []Node
	span token.Span
}

func (n *FieldAccess) Span() token.Span    { return n.span }
func (n *SuperAccess) Span() token.Span    { return n.span }
func (n *Index) Span() token.Span          { return n.span }
func (n *Prefix) Span() token.Span         { return n.span }
func (n *Binary) Span() token.Span         { return n.span }
func (n *Is) Span() token.Span             { return n.span }
func (n *NullPropagate) Span() token.Span  { return n.span }
func (n *ErrorPropagate) Span() token.Span { return n.span }
func (n *Assignment) Span() token.Span     { return n.span }
func (n *FnCall) Span() token.Span         { return n.span }
func (n *SuperCall) Span() token.Span      { return n.span }

func NewFieldAccess(target Node, name string, s token.Span) *FieldAccess {
	return &FieldAccess{Target: target, Name: name, span: s}
}
func NewSuperAccess(name string, s token.Span) *SuperAccess {
	return &SuperAccess{Name: name, span: s}
}
func NewIndex(target, index Node, s token.Span) *Index {
	return &Index{Target: target, Index: index, span: s}
}
func NewPrefix(op token.Token, right Node, s token.Span) *Prefix {
	return &Prefix{Op: op, Right: right, span: s}
}
func NewBinary(left Node, op token.Token, right Node, s token.Span) *Binary {
	return &Binary{Left: left, Op: op, Right: right, span: s}
}
func NewIs(left, class Node, s token.Span) *Is { return &Is{Left: left, Class: class, span: s} }
func NewNullPropagate(left, right Node, s token.Span) *NullPropagate {
	return &NullPropagate{Left: left, Right: right, span: s}
}
func NewErrorPropagate(target Node, s token.Span) *ErrorPropagate {
	return &ErrorPropagate{Target: target, span: s}
}
func NewAssignment(target Node, op token.Token, value Node, s token.Span) *Assignment {
	return &Assignment{Target: target, Op: op, Value: value, span: s}
}
func NewFnCall(callee Node, args []Node, s token.Span) *FnCall {
	return &FnCall{Callee: callee, Args: args, span: s}
}
func NewSuperCall(args []Node, s token.Span) *SuperCall {
	return &SuperCall{Args: args, span: s}
}
