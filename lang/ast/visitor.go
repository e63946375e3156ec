package ast

// Visitor is called once per node by Walk; if it returns true, Walk
// recurses into the node's children.
type Visitor func(n Node) bool

// Walk traverses n's children (but not n itself) depth-first, calling v for
// each node visited. It is used by the printer and by diagnostics that need
// to scan a subtree without duplicating the node shapes above.
func Walk(n Node, v Visitor) {
	switch n := n.(type) {
	case *Chunk:
		for _, e := range n.Exprs {
			walkChild(e, v)
		}
	case *Block:
		for _, e := range n.Exprs {
			walkChild(e, v)
		}
	case *LitArray:
		for _, e := range n.Elems {
			walkChild(e, v)
		}
	case *LitObject:
		for _, f := range n.Fields {
			walkChild(f.Value, v)
		}
	case *LitAnonymousFn:
		walkChild(n.Body, v)
	case *FieldAccess:
		walkChild(n.Target, v)
	case *Index:
		walkChild(n.Target, v)
		walkChild(n.Index, v)
	case *Prefix:
		walkChild(n.Right, v)
	case *Binary:
		walkChild(n.Left, v)
		walkChild(n.Right, v)
	case *Is:
		walkChild(n.Left, v)
		walkChild(n.Class, v)
	case *NullPropagate:
		walkChild(n.Left, v)
		walkChild(n.Right, v)
	case *ErrorPropagate:
		walkChild(n.Target, v)
	case *Assignment:
		walkChild(n.Target, v)
		walkChild(n.Value, v)
	case *FnCall:
		walkChild(n.Callee, v)
		for _, a := range n.Args {
			walkChild(a, v)
		}
	case *SuperCall:
		for _, a := range n.Args {
			walkChild(a, v)
		}
	case *VarDecl:
		walkChild(n.Value, v)
	case *FnDecl:
		walkChild(n.Body, v)
	case *OpDecl:
		walkChild(n.Body, v)
	case *ClassDecl:
		if n.Base != nil {
			walkChild(n.Base, v)
		}
		for _, m := range n.Methods {
			walkChild(m, v)
		}
		for _, o := range n.Operators {
			walkChild(o, v)
		}
		if n.Constructor != nil {
			walkChild(n.Constructor, v)
		}
	case *IfExpression:
		walkChild(n.Cond, v)
		walkChild(n.Then, v)
		if n.Else != nil {
			walkChild(n.Else, v)
		}
	case *Loop:
		walkChild(n.Body, v)
	case *WhileLoop:
		walkChild(n.Cond, v)
		walkChild(n.Body, v)
	case *ForLoop:
		walkChild(n.Iterable, v)
		walkChild(n.Body, v)
	case *Break:
		if n.Value != nil {
			walkChild(n.Value, v)
		}
	case *Return:
		if n.Value != nil {
			walkChild(n.Value, v)
		}
	}
}

func walkChild(n Node, v Visitor) {
	if v(n) {
		Walk(n, v)
	}
}
