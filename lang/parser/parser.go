// Package parser implements the recursive-descent parser that turns
// dicelang source into the *ast.Chunk the compiler (C6) walks. The lexer
// and parser are external collaborators to the compiler/VM core (see §1);
// this package exists so the core has an end-to-end front end to drive.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/scanner"
	"github.com/mna/dicelang/lang/token"
)

// Error is a single parse error with the source position it was raised at.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// ErrorList collects every Error raised while parsing a chunk, in the
// go/scanner.ErrorList spirit the rest of the toolchain follows.
type ErrorList struct {
	errs []*Error
}

func (l *ErrorList) Add(pos token.Pos, msg string) {
	l.errs = append(l.errs, &Error{Pos: pos, Msg: msg})
}

func (l *ErrorList) Error() string {
	var sb strings.Builder
	for i, e := range l.errs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual errors so errors.Is/As work against them.
func (l *ErrorList) Unwrap() []error {
	errs := make([]error, len(l.errs))
	for i, e := range l.errs {
		errs[i] = e
	}
	return errs
}

// Err returns l as an error, or nil if l has no recorded errors.
func (l *ErrorList) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// ParseChunk parses src into an *ast.Chunk. The filename is not used: error
// positions carry only line and column. The returned error, if non-nil, is
// an *ErrorList.
func ParseChunk(filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.init(src)
	ch := p.parseChunk()
	return ch, p.errors.Err()
}

type parser struct {
	scanner scanner.Scanner
	errors  ErrorList

	tok token.Token
	val token.Value
}

func (p *parser) init(src []byte) {
	p.scanner.Init(src, p.errors.Add)
	p.advance()
}

func (p *parser) advance() {
	p.tok = p.scanner.Scan(&p.val)
}

func (p *parser) span(start token.Pos) token.Span {
	return token.NewSpan(start, p.val.Pos)
}

var errPanicMode = errors.New("parser: panic mode")

// expect reports an error and panics with errPanicMode (recovered at
// statement granularity, see recoverStmt) unless the current token is tok.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.val.Pos
	if p.tok != tok {
		p.errorExpected(tok.GoString())
		panic(errPanicMode)
	}
	p.advance()
	return pos
}

func (p *parser) errorExpected(what string) {
	p.error(p.val.Pos, fmt.Sprintf("expected %s, found %s", what, p.curDescr()))
}

func (p *parser) curDescr() string {
	switch p.tok {
	case token.IDENT, token.INT, token.FLOAT, token.STRING:
		return fmt.Sprintf("%q", p.val.Raw)
	default:
		return p.tok.GoString()
	}
}

func (p *parser) error(pos token.Pos, msg string) {
	p.errors.Add(pos, msg)
}

// recoverStmt is deferred at each top-level/block item; it absorbs an
// errPanicMode panic raised by expect, skips tokens up to the next
// statement boundary, and lets parsing continue with the next item.
func (p *parser) recoverStmt() {
	if r := recover(); r != nil {
		if r != errPanicMode {
			panic(r)
		}
		for p.tok != token.SEMI && p.tok != token.RCURLY && p.tok != token.EOF {
			p.advance()
		}
		if p.tok == token.SEMI {
			p.advance()
		}
	}
}
