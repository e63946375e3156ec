// Package value implements the tagged-sum value model shared by the
// compiler and the virtual machine, together with the bytecode container and
// upvalue cell that reference it. The three concerns are kept in one package
// because they are mutually recursive: a Bytecode's constant pool holds
// Values, a FnScript Value embeds a Bytecode, and a FnClosure Value embeds a
// slice of Upvalue cells.
package value

import "fmt"

// Kind is the stable discriminant of a Value, used to index the runtime's
// primitive-kind-to-class mapping (see vm.Runtime).
type Kind uint8

const (
	KindNull Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindArray
	KindObject
	KindClass
	KindFunction
)

var kindNames = [...]string{
	KindNull:     "null",
	KindUnit:     "unit",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindSymbol:   "symbol",
	KindArray:    "array",
	KindObject:   "object",
	KindClass:    "class",
	KindFunction: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is implemented by every value the virtual machine manipulates.
type Value interface {
	// String returns the value's display representation.
	String() string
	// Kind returns the value's stable kind discriminant.
	Kind() Kind
	// Truth returns the value's boolean interpretation, used by conditions.
	Truth() bool
}

// ConversionError is returned by the As* helpers when a Value does not hold
// the requested payload.
type ConversionError struct {
	Want, Got Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid conversion: want %s, got %s", e.Want, e.Got)
}

// Equal implements the value-equality relation of §3: primitive kinds
// compare by value, Array/Object/Class/FnScript/FnClosure compare by the
// rules described on each type, and values of differing kinds are never
// equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Unit:
		return true
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		return av == b.(Float)
	case String:
		return av == b.(String)
	case Symbol:
		return av == b.(Symbol)
	case *Array:
		return av == b.(*Array)
	case *Object:
		return av == b.(*Object)
	case *Class:
		return av == b.(*Class)
	case *FnScript:
		bv := b.(*FnScript)
		return av.Arity == bv.Arity && av.ID == bv.ID
	case *FnClosure:
		bv := b.(*FnClosure)
		return Equal(av.Script, bv.Script) && sameUpvalueSlice(av.Upvalues, bv.Upvalues)
	case *FnNative:
		return av == b.(*FnNative)
	case *FnBound:
		return av == b.(*FnBound)
	default:
		return false
	}
}

func sameUpvalueSlice(a, b []*Upvalue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AsInt returns v's payload if v is an Int.
func AsInt(v Value) (int64, error) {
	if i, ok := v.(Int); ok {
		return int64(i), nil
	}
	return 0, &ConversionError{Want: KindInt, Got: v.Kind()}
}

// AsFloat returns v's payload if v is a Float.
func AsFloat(v Value) (float64, error) {
	if f, ok := v.(Float); ok {
		return float64(f), nil
	}
	return 0, &ConversionError{Want: KindFloat, Got: v.Kind()}
}

// AsBool returns v's payload if v is a Bool.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	return false, &ConversionError{Want: KindBool, Got: v.Kind()}
}

// AsString returns v's payload if v is a String.
func AsString(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	return "", &ConversionError{Want: KindString, Got: v.Kind()}
}

// AsSymbol returns v's payload if v is a Symbol, or converts a String.
func AsSymbol(v Value) (Symbol, error) {
	switch vv := v.(type) {
	case Symbol:
		return vv, nil
	case String:
		return Symbol(vv), nil
	default:
		return "", &ConversionError{Want: KindSymbol, Got: v.Kind()}
	}
}

// AsArray returns v's payload if v is an *Array.
func AsArray(v Value) (*Array, error) {
	if a, ok := v.(*Array); ok {
		return a, nil
	}
	return nil, &ConversionError{Want: KindArray, Got: v.Kind()}
}

// AsObject returns the underlying object-like value: an *Object directly, or
// the object embedded in a Class. Any other kind, arrays included, is a
// conversion error.
func AsObject(v Value) (*Object, error) {
	switch vv := v.(type) {
	case *Object:
		return vv, nil
	case *Class:
		return vv.Self, nil
	default:
		return nil, &ConversionError{Want: KindObject, Got: v.Kind()}
	}
}

// AsClass returns v's payload if v is a *Class.
func AsClass(v Value) (*Class, error) {
	if c, ok := v.(*Class); ok {
		return c, nil
	}
	return nil, &ConversionError{Want: KindClass, Got: v.Kind()}
}
