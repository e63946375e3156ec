package ast

import "github.com/mna/dicelang/lang/token"

// Block is a brace-delimited sequence of expressions, used as the body of
// functions, methods, if/else branches and loops. Per §4.6, a non-loop block
// evaluates each expression but the last for its side effects, discarding
// the result, then yields the trailing expression's value (or Unit if
// empty); a loop block additionally discards the trailing value.
type Block struct {
	Exprs []Node
	span  token.Span
}

func (n *Block) Span() token.Span { return n.span }

func NewBlock(exprs []Node, s token.Span) *Block { return &Block{Exprs: exprs, span: s} }
