package parser

import (
	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/token"
)

// parseChunk parses the whole token stream as a top-level sequence of
// items, equivalent to a Block but rooted at the file.
func (p *parser) parseChunk() *ast.Chunk {
	start := p.val.Pos
	exprs := p.parseItems(token.EOF)
	return ast.NewChunk(nil, exprs, p.span(start))
}

// parseBlock parses a brace-delimited sequence of items: `{ item (';' item)* ';'? }`.
func (p *parser) parseBlock() *ast.Block {
	start := p.expect(token.LCURLY)
	exprs := p.parseItems(token.RCURLY)
	p.expect(token.RCURLY)
	return ast.NewBlock(exprs, p.span(start))
}

// parseItems parses items until tok is seen (not consumed) or EOF, with
// per-item panic-mode recovery so one malformed item doesn't abort the
// whole block.
func (p *parser) parseItems(tok token.Token) []ast.Node {
	var exprs []ast.Node
	for p.tok != tok && p.tok != token.EOF {
		if n := p.parseItem(); n != nil {
			exprs = append(exprs, n)
		}
		for p.tok == token.SEMI {
			p.advance()
		}
	}
	return exprs
}

// parseItem parses one declaration or expression-statement, recovering
// from a malformed one by skipping to the next statement boundary.
func (p *parser) parseItem() (n ast.Node) {
	defer p.recoverStmt()

	switch p.tok {
	case token.LET:
		return p.parseVarDecl()
	case token.FN:
		return p.parseFnDecl()
	case token.CLASS:
		return p.parseClassDecl()
	case token.IMPORT:
		return p.parseImportDecl()
	case token.EXPORT:
		return p.parseExportDecl()
	default:
		return p.parseExprStmt()
	}
}
