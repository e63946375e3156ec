package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dicelang/lang/compiler"
	"github.com/mna/dicelang/lang/parser"
	"github.com/mna/dicelang/lang/vm"
	"github.com/mna/mainer"
)

// Run compiles each file to bytecode (C6) and executes it against a fresh
// Runtime (C9), printing the resulting value. It supersedes the teacher's
// separate resolve phase: this language resolves names during compilation
// (lang/compiler's scope/upvalue stack) rather than as a distinct AST pass.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFiles(ctx, stdio, args...)
}

func RunFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
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

		bc, cerr := compiler.CompileScript(chunk)
		if cerr != nil {
			fmt.Fprintln(stdio.Stderr, cerr)
			lastErr = cerr
			continue
		}

		rt := vm.NewRuntime(ctx)
		rt.Name = fname
		rt.Stdout = stdio.Stdout
		rt.Stderr = stdio.Stderr

		v, rerr := rt.RunBytecode(bc)
		if rerr != nil {
			fmt.Fprintln(stdio.Stderr, rerr)
			lastErr = rerr
			continue
		}
		fmt.Fprintln(stdio.Stdout, v)
	}
	return lastErr
}
