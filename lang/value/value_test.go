package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualPrimitives(t *testing.T) {
	require.True(t, Equal(Int(1), Int(1)))
	require.False(t, Equal(Int(1), Int(2)))
	require.False(t, Equal(Int(1), Float(1)))
	require.True(t, Equal(Null{}, Null{}))
	require.True(t, Equal(String("a"), String("a")))
	require.True(t, Equal(Symbol("a"), Symbol("a")))
}

func TestEqualShared(t *testing.T) {
	a := NewArray([]Value{Int(1)})
	b := NewArray([]Value{Int(1)})
	require.True(t, Equal(a, a))
	require.False(t, Equal(a, b), "arrays compare by identity, not content")
}

func TestEqualFnScript(t *testing.T) {
	fs1 := NewFnScript("f", 1, NewBytecode(nil, nil, 0, 0, nil))
	fs2 := NewFnScript("f", 1, NewBytecode(nil, nil, 0, 0, nil))
	require.False(t, Equal(fs1, fs2), "distinct ids never compare equal")
	require.True(t, Equal(fs1, fs1))
}

func TestConversions(t *testing.T) {
	i, err := AsInt(Int(3))
	require.NoError(t, err)
	require.Equal(t, int64(3), i)

	_, err = AsInt(Bool(true))
	require.Error(t, err)
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, KindInt, convErr.Want)
	require.Equal(t, KindBool, convErr.Got)

	sym, err := AsSymbol(String("foo"))
	require.NoError(t, err)
	require.Equal(t, Symbol("foo"), sym)
}

func TestClassIsClass(t *testing.T) {
	any := NewClass("Any", nil)
	base := NewClass("Base", any)
	derived := NewClass("Derived", base)

	require.True(t, derived.IsClass(derived))
	require.True(t, derived.IsClass(base))
	require.True(t, derived.IsClass(any))
	require.False(t, base.IsClass(derived))
}

func TestClassMethodInheritance(t *testing.T) {
	base := NewClass("Base", nil)
	base.SetMethod("greet", String("hi"))
	derived := NewClass("Derived", base)

	v, ok := derived.Method("greet")
	require.True(t, ok)
	require.Equal(t, String("hi"), v)

	derived.SetMethod("greet", String("hello"))
	v, ok = derived.Method("greet")
	require.True(t, ok)
	require.Equal(t, String("hello"), v)
}

func TestObjectFields(t *testing.T) {
	c := NewClass("C", nil)
	o := NewObject(c)
	_, ok := o.Field("x")
	require.False(t, ok)

	o.SetField("x", Int(5))
	v, ok := o.Field("x")
	require.True(t, ok)
	require.Equal(t, Int(5), v)
}

func TestUpvalueOpenClose(t *testing.T) {
	u := NewOpenUpvalue(3)
	require.True(t, u.IsOpen())
	require.Equal(t, 3, u.Slot())

	u.Close(Int(42))
	require.False(t, u.IsOpen())
	require.Equal(t, Int(42), u.Value())
}
