package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dicelang/lang/scanner"
	"github.com/mna/dicelang/lang/token"
	"github.com/mna/mainer"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles scans each file and prints its token stream, one token per
// line, as "file:line:col: TOKEN_NAME [literal]".
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var lastErr error
	for _, fname := range files {
		src, err := os.ReadFile(fname)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			lastErr = err
			continue
		}

		var errs parseErrorList
		var sc scanner.Scanner
		sc.Init(src, errs.add)

		var val token.Value
		for {
			tok := sc.Scan(&val)
			if tok == token.EOF {
				break
			}
			line, col := val.Pos.LineCol()
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", fname, line, col, tok)
			if lit := literalOf(tok, val); lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", lit)
			}
			fmt.Fprintln(stdio.Stdout)
		}
		if err := errs.err(); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			lastErr = err
		}
	}
	return lastErr
}

func literalOf(tok token.Token, val token.Value) string {
	switch tok {
	case token.IDENT:
		return val.Raw
	case token.INT:
		return fmt.Sprintf("%d", val.Int)
	case token.FLOAT:
		return fmt.Sprintf("%v", val.Float)
	case token.STRING:
		return fmt.Sprintf("%q", val.Str)
	default:
		return ""
	}
}
