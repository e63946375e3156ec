package parser_test

import (
	"testing"

	"github.com/mna/dicelang/lang/ast"
	"github.com/mna/dicelang/lang/parser"
	"github.com/mna/dicelang/lang/token"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	ch, err := parser.ParseChunk(t.Name(), []byte(src))
	require.NoError(t, err)
	require.NotNil(t, ch)
	return ch
}

func TestParseLiterals(t *testing.T) {
	ch := parse(t, `null; unit; true; false; 42; 3.5; "hi";`)
	require.Len(t, ch.Exprs, 7)
	require.IsType(t, &ast.LitNull{}, ch.Exprs[0])
	require.IsType(t, &ast.LitUnit{}, ch.Exprs[1])
	require.IsType(t, &ast.LitBool{}, ch.Exprs[2])
	require.True(t, ch.Exprs[2].(*ast.LitBool).Value)
	require.False(t, ch.Exprs[3].(*ast.LitBool).Value)
	require.Equal(t, int64(42), ch.Exprs[4].(*ast.LitInt).Value)
	require.InDelta(t, 3.5, ch.Exprs[5].(*ast.LitFloat).Value, 0)
	require.Equal(t, "hi", ch.Exprs[6].(*ast.LitString).Value)
}

func TestParseVarDeclAndAssignment(t *testing.T) {
	ch := parse(t, `let mut x = 1; x = x + 1;`)
	require.Len(t, ch.Exprs, 2)
	decl := ch.Exprs[0].(*ast.VarDecl)
	require.Equal(t, "x", decl.Name)
	require.True(t, decl.Mutable)
	asg := ch.Exprs[1].(*ast.Assignment)
	require.Equal(t, token.ASSIGN, asg.Op)
	require.Equal(t, "x", asg.Target.(*ast.LitIdent).Name)
	bin := asg.Value.(*ast.Binary)
	require.Equal(t, token.PLUS, bin.Op)
}

func TestParseDiceRollPrefixAndInfix(t *testing.T) {
	ch := parse(t, `d20; 3d6;`)
	require.Len(t, ch.Exprs, 2)

	prefix := ch.Exprs[0].(*ast.Prefix)
	require.Equal(t, token.DICE_ROLL, prefix.Op)
	require.Equal(t, int64(20), prefix.Right.(*ast.LitInt).Value)

	infix := ch.Exprs[1].(*ast.Binary)
	require.Equal(t, token.DICE_ROLL, infix.Op)
	require.Equal(t, int64(3), infix.Left.(*ast.LitInt).Value)
	require.Equal(t, int64(6), infix.Right.(*ast.LitInt).Value)
}

func TestParseBinaryPrecedence(t *testing.T) {
	ch := parse(t, `1 + 2 * 3;`)
	require.Len(t, ch.Exprs, 1)
	top := ch.Exprs[0].(*ast.Binary)
	require.Equal(t, token.PLUS, top.Op)
	require.Equal(t, int64(1), top.Left.(*ast.LitInt).Value)
	mul := top.Right.(*ast.Binary)
	require.Equal(t, token.STAR, mul.Op)
}

func TestParseExclusiveRange(t *testing.T) {
	ch := parse(t, `1 .. 10;`)
	rng := ch.Exprs[0].(*ast.Binary)
	require.Equal(t, token.RANGE_EXCL, rng.Op)
}

func TestParseIfElseIf(t *testing.T) {
	ch := parse(t, `if x > 0 { 1 } else if x < 0 { -1 } else { 0 };`)
	ifExpr := ch.Exprs[0].(*ast.IfExpression)
	require.IsType(t, &ast.Binary{}, ifExpr.Cond)
	elseIf, ok := ifExpr.Else.(*ast.IfExpression)
	require.True(t, ok)
	require.IsType(t, &ast.Block{}, elseIf.Else)
}

func TestParseFnDeclAndCall(t *testing.T) {
	ch := parse(t, `fn add(a, b) { a + b } add(1, 2);`)
	require.Len(t, ch.Exprs, 2)
	fn := ch.Exprs[0].(*ast.FnDecl)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)

	call := ch.Exprs[1].(*ast.FnCall)
	require.Equal(t, "add", call.Callee.(*ast.LitIdent).Name)
	require.Len(t, call.Args, 2)
}

func TestParseClassDecl(t *testing.T) {
	src := `
class Animal {
	new(self, name) {
		self.name = name
	}
	fn speak(self) { self.name }
	fn kind() { "animal" }
	op +(self, other) { self }
}
`
	ch := parse(t, src)
	cls := ch.Exprs[0].(*ast.ClassDecl)
	require.Equal(t, "Animal", cls.Name)
	require.NotNil(t, cls.Constructor)
	require.Equal(t, "self", cls.Constructor.Params[0].Name)
	require.Len(t, cls.Methods, 2)
	require.Equal(t, "speak", cls.Methods[0].Name)
	require.Equal(t, "self", cls.Methods[0].Params[0].Name)
	require.Equal(t, "kind", cls.Methods[1].Name)
	require.Len(t, cls.Operators, 1)
	require.Equal(t, "add", cls.Operators[0].Name)
	require.Equal(t, "self", cls.Operators[0].Params[0].Name)
}

func TestParseAnonymousFnAndPipeline(t *testing.T) {
	ch := parse(t, `let f = |x| { x * 2 }; 5 |> f;`)
	decl := ch.Exprs[0].(*ast.VarDecl)
	fn := decl.Value.(*ast.LitAnonymousFn)
	require.Len(t, fn.Params, 1)

	pipe := ch.Exprs[1].(*ast.Binary)
	require.Equal(t, token.PIPELINE, pipe.Op)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	ch := parse(t, `[1, 2, 3]; #{ a: 1, b: 2 };`)
	arr := ch.Exprs[0].(*ast.LitArray)
	require.Len(t, arr.Elems, 3)

	obj := ch.Exprs[1].(*ast.LitObject)
	require.Len(t, obj.Fields, 2)
	require.Equal(t, "a", obj.Fields[0].Key)
}

func TestParseForLoopAndBreak(t *testing.T) {
	ch := parse(t, `for x in 0..10 { if x == 5 { break x } }`)
	loop := ch.Exprs[0].(*ast.ForLoop)
	require.Equal(t, "x", loop.Var)
}

func TestParseErrorRecovery(t *testing.T) {
	_, err := parser.ParseChunk("bad", []byte(`let = ;`))
	require.Error(t, err)
	var el *parser.ErrorList
	require.ErrorAs(t, err, &el)
}
