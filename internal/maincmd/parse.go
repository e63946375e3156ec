package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/parser"
	"github.com/mna/mainer"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, args...)
}

// ParseFiles parses each file and dumps the resulting AST to stdout.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var lastErr error
	for _, fname := range files {
		src, err := os.ReadFile(fname)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			lastErr = err
			continue
		}

		chunk, perr := parser.ParseChunk(fname, src)
		if perr != nil {
			fmt.Fprintln(stdio.Stderr, perr)
			lastErr = perr
			continue
		}
		if err := ast.Dump(stdio.Stdout, chunk); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			lastErr = err
		}
	}
	return lastErr
}
