package parser

import (
	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/token"
)

// parseExprStmt parses a bare expression used as a block item.
func (p *parser) parseExprStmt() ast.Node {
	return p.parseExpr()
}

// parseVarDecl parses `let [mut] name = value`.
func (p *parser) parseVarDecl() ast.Node {
	start := p.expect(token.LET)
	mutable := false
	if p.tok == token.MUT {
		p.advance()
		mutable = true
	}
	name := p.parseIdentName()
	p.expect(token.ASSIGN)
	value := p.parseExpr()
	return ast.NewVarDecl(name, mutable, value, p.span(start))
}

func (p *parser) parseIdentName() string {
	name := p.val.Raw
	p.expect(token.IDENT)
	return name
}

// parseParamName parses one parameter's name: an identifier, or the `self`
// keyword as written by a method/operator/constructor's receiver parameter
// (§4.6 requires it be spelled out, not implicit).
func (p *parser) parseParamName() string {
	if p.tok == token.SELF {
		p.advance()
		return "self"
	}
	return p.parseIdentName()
}

// parseParams parses a parenthesized, comma-separated parameter list:
// `(name [: Type['?']], ...)`. A method/constructor/operator's receiver is
// written out as an ordinary first parameter named `self`; the compiler
// (not the parser) decides whether a `fn` member is a method or a static
// function by checking for it (see ast.FnDecl's doc comment).
func (p *parser) parseParams() []ast.Param {
	p.expect(token.LPAREN)
	var params []ast.Param
	for p.tok != token.RPAREN && p.tok != token.EOF {
		if len(params) > 0 {
			p.expect(token.COMMA)
		}
		name := p.parseParamName()
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
	p.expect(token.RPAREN)
	return params
}

// parseReturnType parses an optional `-> Type['?']` return-type annotation
// trailing a parameter list.
func (p *parser) parseReturnType() (hasType bool, name string, orNull bool) {
	if p.tok != token.ARROW {
		return false, "", false
	}
	p.advance()
	name = p.parseIdentName()
	if p.tok == token.QUESTION {
		p.advance()
		orNull = true
	}
	return true, name, orNull
}

// parseFnDecl parses `fn name(params) [-> Type['?']] { body }`: a free
// function or a class-body `fn` member (method or static function alike;
// see ast.FnDecl's doc comment for how the two are told apart later).
func (p *parser) parseFnDecl() *ast.FnDecl {
	start := p.expect(token.FN)
	name := p.parseIdentName()
	params := p.parseParams()
	hasRet, retName, retOrNull := p.parseReturnType()
	body := p.parseBlock()
	fn := ast.NewFnDecl(name, params, body, p.span(start))
	fn.HasReturnType = hasRet
	fn.ReturnTypeName = retName
	fn.ReturnOrNullType = retOrNull
	return fn
}

// opSymbol maps an operator-declaration token to the protocol method name
// the runtime looks up for that operator (§4.9/§6): mirrors the VM's
// arithSymbol/compareSymbol tables.
func opSymbol(tok token.Token) string {
	switch tok {
	case token.PLUS:
		return "add"
	case token.MINUS:
		return "sub"
	case token.STAR:
		return "mul"
	case token.SLASH:
		return "div"
	case token.PERCENT:
		return "rem"
	case token.GT:
		return "gt"
	case token.GE:
		return "gte"
	case token.LT:
		return "lt"
	case token.LE:
		return "lte"
	case token.EQL:
		return "eq"
	case token.NEQ:
		return "neq"
	default:
		return tok.String()
	}
}

// parseOpDecl parses `op <operator>(params) { body }`, valid only inside a
// class body.
func (p *parser) parseOpDecl() *ast.OpDecl {
	start := p.expect(token.OP)
	op := p.tok
	p.advance()
	name := opSymbol(op)
	params := p.parseParams()
	body := p.parseBlock()
	return ast.NewOpDecl(op, name, params, body, p.span(start))
}

// parseClassDecl parses `class Name [: Base] { members... }`. A `fn`
// member is always parsed the same way whether it ends up a method or a
// static function: the compiler tells them apart by checking whether its
// first parameter is the literal `self` (see ast.FnDecl's doc comment), so
// there is no dedicated `static` keyword in this grammar.
func (p *parser) parseClassDecl() *ast.ClassDecl {
	start := p.expect(token.CLASS)
	name := p.parseIdentName()

	var base ast.Node
	if p.tok == token.COLON {
		p.advance()
		base = p.parseExpr()
	}

	p.expect(token.LCURLY)
	var (
		methods   []*ast.FnDecl
		operators []*ast.OpDecl
		ctor      *ast.FnDecl
	)
	for p.tok != token.RCURLY && p.tok != token.EOF {
		switch {
		case p.tok == token.NEW:
			ctorStart := p.val.Pos
			p.advance()
			params := p.parseParams()
			body := p.parseBlock()
			ctor = ast.NewFnDecl("new", params, body, p.span(ctorStart))
		case p.tok == token.OP:
			operators = append(operators, p.parseOpDecl())
		case p.tok == token.FN:
			methods = append(methods, p.parseFnDecl())
		default:
			p.errorExpected("class member ('new', 'fn' or 'op')")
			panic(errPanicMode)
		}
		for p.tok == token.SEMI {
			p.advance()
		}
	}
	p.expect(token.RCURLY)

	return ast.NewClassDecl(name, base, methods, operators, ctor, p.span(start))
}

// parseImportDecl parses `import "path" [as alias]`.
func (p *parser) parseImportDecl() ast.Node {
	start := p.expect(token.IMPORT)
	path := p.val.Str
	p.expect(token.STRING)
	alias := ""
	if p.tok == token.AS {
		p.advance()
		alias = p.parseIdentName()
	}
	return ast.NewImportDecl(path, alias, p.span(start))
}

// parseExportDecl parses `export name1, name2, ...`.
func (p *parser) parseExportDecl() ast.Node {
	start := p.expect(token.EXPORT)
	names := []string{p.parseIdentName()}
	for p.tok == token.COMMA {
		p.advance()
		names = append(names, p.parseIdentName())
	}
	return ast.NewExportDecl(names, p.span(start))
}

func (p *parser) parseIfExpression() *ast.IfExpression {
	start := p.expect(token.IF)
	cond := p.parseExpr()
	then := p.parseBlock()
	var els ast.Node
	if p.tok == token.ELSE {
		p.advance()
		if p.tok == token.IF {
			els = p.parseIfExpression()
		} else {
			els = p.parseBlock()
		}
	}
	return ast.NewIfExpression(cond, then, els, p.span(start))
}

func (p *parser) parseLoop() *ast.Loop {
	start := p.expect(token.LOOP)
	body := p.parseBlock()
	return ast.NewLoop(body, p.span(start))
}

func (p *parser) parseWhileLoop() *ast.WhileLoop {
	start := p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseBlock()
	return ast.NewWhileLoop(cond, body, p.span(start))
}

func (p *parser) parseForLoop() *ast.ForLoop {
	start := p.expect(token.FOR)
	name := p.parseIdentName()
	p.expect(token.IN)
	iterable := p.parseExpr()
	body := p.parseBlock()
	return ast.NewForLoop(name, iterable, body, p.span(start))
}

// startsExpr reports whether tok can begin an expression, used to decide
// whether break/return carry an optional value.
func startsExpr(tok token.Token) bool {
	switch tok {
	case token.SEMI, token.RCURLY, token.EOF:
		return false
	default:
		return true
	}
}

func (p *parser) parseBreak() *ast.Break {
	start := p.expect(token.BREAK)
	var value ast.Node
	if startsExpr(p.tok) {
		value = p.parseExpr()
	}
	return ast.NewBreak(value, p.span(start))
}

func (p *parser) parseContinue() *ast.Continue {
	start := p.expect(token.CONTINUE)
	return ast.NewContinue(p.span(start))
}

func (p *parser) parseReturn() *ast.Return {
	start := p.expect(token.RETURN)
	var value ast.Node
	if startsExpr(p.tok) {
		value = p.parseExpr()
	}
	return ast.NewReturn(value, p.span(start))
}
