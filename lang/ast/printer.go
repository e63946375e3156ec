package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented one-line-per-node dump of the tree rooted at n to
// w, for debugging and test fixtures. It does not attempt to recreate
// source syntax.
func Dump(w io.Writer, n Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat(". ", depth), label(n)); err != nil {
		return err
	}
	var err error
	Walk(n, func(child Node) bool {
		if err != nil {
			return false
		}
		err = dump(w, child, depth+1)
		return false
	})
	return err
}

func label(n Node) string {
	switch n := n.(type) {
	case *Chunk:
		return "chunk"
	case *Block:
		return fmt.Sprintf("block (%d exprs)", len(n.Exprs))
	case *LitNull:
		return "null"
	case *LitUnit:
		return "unit"
	case *LitBool:
		return fmt.Sprintf("bool %v", n.Value)
	case *LitInt:
		return fmt.Sprintf("int %d", n.Value)
	case *LitFloat:
		return fmt.Sprintf("float %v", n.Value)
	case *LitString:
		return fmt.Sprintf("string %q", n.Value)
	case *LitIdent:
		return "ident " + n.Name
	case *LitArray:
		return fmt.Sprintf("array (%d elems)", len(n.Elems))
	case *LitObject:
		return fmt.Sprintf("object (%d fields)", len(n.Fields))
	case *LitAnonymousFn:
		return fmt.Sprintf("anonymous fn (%d params)", len(n.Params))
	case *FieldAccess:
		return "field access ." + n.Name
	case *SuperAccess:
		return "super access ." + n.Name
	case *Index:
		return "index"
	case *Prefix:
		return "prefix " + n.Op.String()
	case *Binary:
		return "binary " + n.Op.String()
	case *Is:
		return "is"
	case *NullPropagate:
		return "null propagate"
	case *ErrorPropagate:
		return "error propagate"
	case *Assignment:
		return "assign " + n.Op.String()
	case *FnCall:
		return fmt.Sprintf("call (%d args)", len(n.Args))
	case *SuperCall:
		return fmt.Sprintf("super call (%d args)", len(n.Args))
	case *VarDecl:
		lbl := "let " + n.Name
		if n.Mutable {
			lbl = "let mut " + n.Name
		}
		return lbl
	case *FnDecl:
		return "fn decl " + n.Name
	case *OpDecl:
		return "op decl " + n.Name
	case *ClassDecl:
		return "class decl " + n.Name
	case *ImportDecl:
		return "import " + n.Path
	case *ExportDecl:
		return fmt.Sprintf("export (%d names)", len(n.Names))
	case *IfExpression:
		return "if"
	case *Loop:
		return "loop"
	case *WhileLoop:
		return "while"
	case *ForLoop:
		return "for " + n.Var
	case *Break:
		return "break"
	case *Continue:
		return "continue"
	case *Return:
		return "return"
	default:
		return fmt.Sprintf("%T", n)
	}
}
