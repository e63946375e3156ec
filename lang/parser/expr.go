package parser

import (
	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/token"
)

// parseExpr parses a full expression, the lowest-precedence level being
// assignment. Precedence climbs, lowest to highest:
// assignment < pipeline < coalesce < range < lazy-or < lazy-and <
// comparison/is < additive < multiplicative < dice-roll < unary < postfix.
// This chain is grounded on dice's own recursive-descent parser
// (src/syntax/parser/expression.rs), extended with the tokens that parser
// predates (pipeline, is, compound assignment, error-propagation).
func (p *parser) parseExpr() ast.Node {
	return p.parseAssignment()
}

func isAssignOp(tok token.Token) bool {
	switch tok {
	case token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.DIV_ASSIGN:
		return true
	default:
		return false
	}
}

func (p *parser) parseAssignment() ast.Node {
	start := p.val.Pos
	left := p.parsePipeline()
	if isAssignOp(p.tok) {
		op := p.tok
		p.advance()
		right := p.parseAssignment()
		return ast.NewAssignment(left, op, right, p.span(start))
	}
	return left
}

func (p *parser) parsePipeline() ast.Node {
	start := p.val.Pos
	left := p.parseCoalesce()
	for p.tok == token.PIPELINE {
		p.advance()
		right := p.parseCoalesce()
		left = ast.NewBinary(left, token.PIPELINE, right, p.span(start))
	}
	return left
}

func (p *parser) parseCoalesce() ast.Node {
	start := p.val.Pos
	left := p.parseRange()
	for p.tok == token.COALESCE {
		p.advance()
		right := p.parseRange()
		left = ast.NewNullPropagate(left, right, p.span(start))
	}
	return left
}

func (p *parser) parseRange() ast.Node {
	start := p.val.Pos
	left := p.parseLazyOr()
	for p.tok == token.RANGE_EXCL || p.tok == token.RANGE_INCL {
		op := p.tok
		p.advance()
		right := p.parseLazyOr()
		left = ast.NewBinary(left, op, right, p.span(start))
	}
	return left
}

func (p *parser) parseLazyOr() ast.Node {
	start := p.val.Pos
	left := p.parseLazyAnd()
	for p.tok == token.LAZY_OR {
		p.advance()
		right := p.parseLazyAnd()
		left = ast.NewBinary(left, token.LAZY_OR, right, p.span(start))
	}
	return left
}

func (p *parser) parseLazyAnd() ast.Node {
	start := p.val.Pos
	left := p.parseComparison()
	for p.tok == token.LAZY_AND {
		p.advance()
		right := p.parseComparison()
		left = ast.NewBinary(left, token.LAZY_AND, right, p.span(start))
	}
	return left
}

func isComparisonOp(tok token.Token) bool {
	switch tok {
	case token.EQL, token.NEQ, token.GT, token.GE, token.LT, token.LE:
		return true
	default:
		return false
	}
}

func (p *parser) parseComparison() ast.Node {
	start := p.val.Pos
	left := p.parseAdditive()
	for isComparisonOp(p.tok) || p.tok == token.IS {
		if p.tok == token.IS {
			p.advance()
			class := p.parseAdditive()
			left = ast.NewIs(left, class, p.span(start))
			continue
		}
		op := p.tok
		p.advance()
		right := p.parseAdditive()
		left = ast.NewBinary(left, op, right, p.span(start))
	}
	return left
}

func (p *parser) parseAdditive() ast.Node {
	start := p.val.Pos
	left := p.parseMultiplicative()
	for p.tok == token.PLUS || p.tok == token.MINUS {
		op := p.tok
		p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinary(left, op, right, p.span(start))
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Node {
	start := p.val.Pos
	left := p.parseDiceRoll()
	for p.tok == token.STAR || p.tok == token.SLASH || p.tok == token.PERCENT {
		op := p.tok
		p.advance()
		right := p.parseDiceRoll()
		left = ast.NewBinary(left, op, right, p.span(start))
	}
	return left
}

func (p *parser) parseDiceRoll() ast.Node {
	start := p.val.Pos
	left := p.parseUnary()
	for p.tok == token.DICE_ROLL {
		p.advance()
		right := p.parseUnary()
		left = ast.NewBinary(left, token.DICE_ROLL, right, p.span(start))
	}
	return left
}

func (p *parser) parseUnary() ast.Node {
	start := p.val.Pos
	switch p.tok {
	case token.NOT, token.MINUS, token.DICE_ROLL:
		op := p.tok
		p.advance()
		right := p.parseUnary()
		return ast.NewPrefix(op, right, p.span(start))
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() ast.Node {
	start := p.val.Pos
	expr := p.parsePrimary()
	for {
		switch p.tok {
		case token.DOT:
			p.advance()
			name := p.parseIdentName()
			expr = ast.NewFieldAccess(expr, name, p.span(start))
		case token.LSQUARE:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RSQUARE)
			expr = ast.NewIndex(expr, idx, p.span(start))
		case token.LPAREN:
			args := p.parseArgs()
			expr = ast.NewFnCall(expr, args, p.span(start))
		case token.ERROR_PROP:
			p.advance()
			expr = ast.NewErrorPropagate(expr, p.span(start))
		default:
			return expr
		}
	}
}

// parseArgs parses a parenthesized, comma-separated argument list.
func (p *parser) parseArgs() []ast.Node {
	p.expect(token.LPAREN)
	var args []ast.Node
	for p.tok != token.RPAREN && p.tok != token.EOF {
		if len(args) > 0 {
			p.expect(token.COMMA)
		}
		args = append(args, p.parseExpr())
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parsePrimary() ast.Node {
	start := p.val.Pos
	switch p.tok {
	case token.NULL:
		p.advance()
		return ast.NewLitNull(p.span(start))
	case token.UNIT_LIT:
		p.advance()
		return ast.NewLitUnit(p.span(start))
	case token.TRUE:
		p.advance()
		return ast.NewLitBool(true, p.span(start))
	case token.FALSE:
		p.advance()
		return ast.NewLitBool(false, p.span(start))
	case token.INT:
		v := p.val.Int
		p.advance()
		return ast.NewLitInt(v, p.span(start))
	case token.FLOAT:
		v := p.val.Float
		p.advance()
		return ast.NewLitFloat(v, p.span(start))
	case token.STRING:
		v := p.val.Str
		p.advance()
		return ast.NewLitString(v, p.span(start))
	case token.SELF:
		p.advance()
		return ast.NewLitIdent("self", p.span(start))
	case token.IDENT:
		name := p.val.Raw
		p.advance()
		return ast.NewLitIdent(name, p.span(start))
	case token.SUPER:
		return p.parseSuper()
	case token.PIPE:
		return p.parseAnonymousFn()
	case token.LSQUARE:
		return p.parseArrayLit()
	case token.HASH:
		return p.parseObjectLit()
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	case token.LCURLY:
		return p.parseBlock()
	case token.IF:
		return p.parseIfExpression()
	case token.LOOP:
		return p.parseLoop()
	case token.WHILE:
		return p.parseWhileLoop()
	case token.FOR:
		return p.parseForLoop()
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.RETURN:
		return p.parseReturn()
	default:
		p.errorExpected("expression")
		panic(errPanicMode)
	}
}

// parseSuper parses `super(args...)` or `super.name`.
func (p *parser) parseSuper() ast.Node {
	start := p.expect(token.SUPER)
	if p.tok == token.LPAREN {
		args := p.parseArgs()
		return ast.NewSuperCall(args, p.span(start))
	}
	p.expect(token.DOT)
	name := p.parseIdentName()
	return ast.NewSuperAccess(name, p.span(start))
}

// parseAnonymousFn parses `|params| { body }`.
func (p *parser) parseAnonymousFn() ast.Node {
	start := p.expect(token.PIPE)
	var params []ast.Param
	for p.tok != token.PIPE && p.tok != token.EOF {
		if len(params) > 0 {
			p.expect(token.COMMA)
		}
		name := p.parseIdentName()
		param := ast.Param{Name: name}
		if p.tok == token.COLON {
			p.advance()
			param.HasType = true
			param.TypeName = p.parseIdentName()
			if p.tok == token.QUESTION {
				p.advance()
				param.OrNullType = true
			}
		}
		params = append(params, param)
	}
	p.expect(token.PIPE)
	body := p.parseBlock()
	return ast.NewLitAnonymousFn(params, body, p.span(start))
}

// parseArrayLit parses `[e1, e2, ...]`.
func (p *parser) parseArrayLit() ast.Node {
	start := p.expect(token.LSQUARE)
	var elems []ast.Node
	for p.tok != token.RSQUARE && p.tok != token.EOF {
		if len(elems) > 0 {
			p.expect(token.COMMA)
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RSQUARE)
	return ast.NewLitArray(elems, p.span(start))
}

// parseObjectLit parses `#{ k1: v1, k2: v2, ... }`.
func (p *parser) parseObjectLit() ast.Node {
	start := p.expect(token.HASH)
	p.expect(token.LCURLY)
	var fields []ast.ObjectField
	for p.tok != token.RCURLY && p.tok != token.EOF {
		if len(fields) > 0 {
			p.expect(token.COMMA)
		}
		key := p.parseIdentName()
		p.expect(token.COLON)
		value := p.parseExpr()
		fields = append(fields, ast.ObjectField{Key: key, Value: value})
	}
	p.expect(token.RCURLY)
	return ast.NewLitObject(fields, p.span(start))
}
