package compiler_test

import (
	"context"
	"testing"

	"github.com/mna/dicelang/lang/compiler"
	"github.com/mna/dicelang/lang/parser"
	"github.com/mna/dicelang/lang/value"
	"github.com/mna/dicelang/lang/vm"
	"github.com/stretchr/testify/require"
)

// run parses, compiles and executes src end-to-end, the shape of every
// scenario in spec §8.
func run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	chunk, perr := parser.ParseChunk(t.Name(), []byte(src))
	require.NoError(t, perr)

	bc, cerr := compiler.CompileScript(chunk)
	if cerr != nil {
		return nil, cerr
	}

	rt := vm.NewRuntime(context.Background())
	return rt.RunBytecode(bc)
}

func TestWhileLoopCounts(t *testing.T) {
	v, err := run(t, `let mut x = 0; while x < 3 { x = x + 1; } x`)
	require.NoError(t, err)
	require.Equal(t, value.Int(3), v)
}

func TestFunctionArityCheckedOnCall(t *testing.T) {
	v, err := run(t, `fn id(v) { v } id(42)`)
	require.NoError(t, err)
	require.Equal(t, value.Int(42), v)

	_, err = run(t, `fn id(v) { v } id(1, 2)`)
	require.Error(t, err)
}

func TestClosureCaptureSurvivesEnclosingFrame(t *testing.T) {
	v, err := run(t, `
fn mk() {
	let mut n = 0
	fn step() { n = n + 1; n }
	step
}
let s = mk()
s()
s()
s()
`)
	require.NoError(t, err)
	require.Equal(t, value.Int(3), v)
}

func TestMethodDispatchChaining(t *testing.T) {
	v, err := run(t, `
class C {
	new(self) { self.v = 0 }
	fn inc(self) { self.v = self.v + 1; self }
}
let c = C()
c.inc().inc().v
`)
	require.NoError(t, err)
	require.Equal(t, value.Int(2), v)
}

func TestParamTypeAssertionRejectsWrongClass(t *testing.T) {
	_, err := run(t, `
class Dog {
	new(self) {}
}
fn greet(d: Dog) { d }
greet(42)
`)
	require.Error(t, err)
}

func TestParamTypeAssertionAcceptsMatchingClass(t *testing.T) {
	v, err := run(t, `
class Dog {
	new(self) {}
}
fn greet(d: Dog) { d }
greet(Dog())
`)
	require.NoError(t, err)
	require.Equal(t, value.KindObject, v.Kind())
}

func TestReturnTypeAssertionRejectsWrongClass(t *testing.T) {
	_, err := run(t, `
class Dog {
	new(self) {}
}
fn mk() -> Dog { 42 }
mk()
`)
	require.Error(t, err)
}

func TestReturnTypeAssertionAcceptsMatchingClass(t *testing.T) {
	v, err := run(t, `
class Dog {
	new(self) {}
}
fn mk() -> Dog { Dog() }
mk()
`)
	require.NoError(t, err)
	require.Equal(t, value.KindObject, v.Kind())
}

func TestPrimitiveTypeAnnotationAcceptsMatchingKind(t *testing.T) {
	v, err := run(t, `fn inc(x: Int) -> Int { x + 1 } inc(41)`)
	require.NoError(t, err)
	require.Equal(t, value.Int(42), v)
}

func TestPrimitiveTypeAnnotationRejectsMismatchedKind(t *testing.T) {
	_, err := run(t, `fn inc(x: Int) { x + 1 } inc("nope")`)
	require.Error(t, err)
}

func TestOrNullTypeAnnotationAcceptsNull(t *testing.T) {
	v, err := run(t, `fn f(x: Int?) -> Int? { x } f(null)`)
	require.NoError(t, err)
	require.Equal(t, value.Null{}, v)
}

func TestNullCoalesce(t *testing.T) {
	v, err := run(t, `null ?? 7`)
	require.NoError(t, err)
	require.Equal(t, value.Int(7), v)

	v, err = run(t, `3 ?? 7`)
	require.NoError(t, err)
	require.Equal(t, value.Int(3), v)
}

func TestDuplicateFunctionDeclarationIsCompileError(t *testing.T) {
	chunk, perr := parser.ParseChunk(t.Name(), []byte(`fn f() {} fn f() {}`))
	require.NoError(t, perr)
	_, cerr := compiler.CompileScript(chunk)
	require.Error(t, cerr)
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `1 / 0`)
	require.Error(t, err)
}

func TestPipelineMatchesDirectCall(t *testing.T) {
	a, err := run(t, `fn double(x) { x * 2 } 5 |> double`)
	require.NoError(t, err)
	b, err := run(t, `fn double(x) { x * 2 } double(5)`)
	require.NoError(t, err)
	require.Equal(t, b, a)
}
