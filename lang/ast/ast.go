// Package ast defines the syntax tree consumed by the compiler. The lexer
// and parser that produce it are out of the compiler/VM core's scope (see
// §1); this package only fixes the node shapes the core's AST visitor (C6)
// walks, modeled on dice's SyntaxNode enum (dice-syntax/src/ast/mod.rs).
package ast

import "github.com/mna/dicelang/lang/token"

// Node is implemented by every syntax tree node.
type Node interface {
	Span() token.Span
}

// Chunk is the root of one compiled file or module body: a sequence of
// top-level expressions/declarations, evaluated like a Block.
type Chunk struct {
	File  *token.File
	Exprs []Node
	span  token.Span
}

func (c *Chunk) Span() token.Span { return c.span }

// --- Literals ---

type LitNull struct{ span token.Span }
type LitUnit struct{ span token.Span }
type LitBool struct {
	Value bool
	span  token.Span
}
type LitInt struct {
	Value int64
	span  token.Span
}
type LitFloat struct {
	Value float64
	span  token.Span
}
type LitString struct {
	Value string
	span  token.Span
}
type LitIdent struct {
	Name string
	span token.Span
}

// LitArray is an array literal: [e1, e2, ...].
type LitArray struct {
	Elems []Node
	span  token.Span
}

// ObjectField is one `key: value` pair of an object literal.
type ObjectField struct {
	Key   string
	Value Node
}

// LitObject is an object literal: #{ k1: v1, k2: v2 }.
type LitObject struct {
	Fields []ObjectField
	span   token.Span
}

// Param is one formal parameter of a function/method/constructor/operator
// declaration or anonymous function.
type Param struct {
	Name       string
	HasType    bool
	TypeName   string
	OrNullType bool
}

// LitAnonymousFn is an anonymous function literal: |a, b| { ... }.
type LitAnonymousFn struct {
	Params []Param
	Body   *Block
	span   token.Span
}

func (n *LitNull) Span() token.Span        { return n.span }
func (n *LitUnit) Span() token.Span        { return n.span }
func (n *LitBool) Span() token.Span        { return n.span }
func (n *LitInt) Span() token.Span         { return n.span }
func (n *LitFloat) Span() token.Span       { return n.span }
func (n *LitString) Span() token.Span      { return n.span }
func (n *LitIdent) Span() token.Span       { return n.span }
func (n *LitArray) Span() token.Span       { return n.span }
func (n *LitObject) Span() token.Span      { return n.span }
func (n *LitAnonymousFn) Span() token.Span { return n.span }

// NewLitNull, etc. are constructors used by the parser; they exist mainly so
// the unexported span field can be set from outside the package.
func NewLitNull(s token.Span) *LitNull         { return &LitNull{span: s} }
func NewLitUnit(s token.Span) *LitUnit         { return &LitUnit{span: s} }
func NewLitBool(v bool, s token.Span) *LitBool { return &LitBool{Value: v, span: s} }
func NewLitInt(v int64, s token.Span) *LitInt  { return &LitInt{Value: v, span: s} }
func NewLitFloat(v float64, s token.Span) *LitFloat {
	return &LitFloat{Value: v, span: s}
}
func NewLitString(v string, s token.Span) *LitString  { return &LitString{Value: v, span: s} }
func NewLitIdent(name string, s token.Span) *LitIdent { return &LitIdent{Name: name, span: s} }
func NewLitArray(elems []Node, s token.Span) *LitArray {
	return &LitArray{Elems: elems, span: s}
}
func NewLitObject(fields []ObjectField, s token.Span) *LitObject {
	return &LitObject{Fields: fields, span: s}
}
func NewLitAnonymousFn(params []Param, body *Block, s token.Span) *LitAnonymousFn {
	return &LitAnonymousFn{Params: params, Body: body, span: s}
}

func NewChunk(file *token.File, exprs []Node, s token.Span) *Chunk {
	return &Chunk{File: file, Exprs: exprs, span: s}
}
