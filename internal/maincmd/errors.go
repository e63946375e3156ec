package maincmd

import (
	"fmt"
	"strings"

	"github.com/mna/dicelang/lang/token"
)

// parseErrorList accumulates scanner-reported errors so a Scan loop driven
// directly (outside the parser package) can still report every lexical
// error found in a file instead of stopping at the first one.
type parseErrorList struct {
	msgs []string
}

func (l *parseErrorList) add(span token.Span, msg string) {
	line, col := span.Start.LineCol()
	l.msgs = append(l.msgs, fmt.Sprintf("%d:%d: %s", line, col, msg))
}

func (l *parseErrorList) err() error {
	if len(l.msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(l.msgs, "\n"))
}
