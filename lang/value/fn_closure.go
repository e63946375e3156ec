package value

import "fmt"

// FnClosure pairs a FnScript with the array of Upvalue cells it captured at
// creation time. Each call to CREATE_CLOSURE over the same FnScript produces
// a distinct FnClosure with its own upvalue array, so independently created
// closures never share captured state unless they were created from the same
// enclosing invocation.
type FnClosure struct {
	Script   *FnScript
	Upvalues []*Upvalue
}

var _ Value = (*FnClosure)(nil)

// NewFnClosure returns a new closure over script, capturing the given
// upvalue cells.
func NewFnClosure(script *FnScript, upvalues []*Upvalue) *FnClosure {
	return &FnClosure{Script: script, Upvalues: upvalues}
}

func (f *FnClosure) String() string { return fmt.Sprintf("closure{%s}", f.Script) }
func (f *FnClosure) Kind() Kind     { return KindFunction }
func (f *FnClosure) Truth() bool    { return true }
