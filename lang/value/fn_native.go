package value

// Runtime is the minimal facade a NativeFn needs to call back into the
// virtual machine. It is declared here, rather than in the vm package, so
// that native function values do not create an import cycle between value
// and vm; vm.Runtime implements this interface structurally.
type Runtime interface {
	// CallFunction invokes target with args and returns its result.
	CallFunction(target Value, args []Value) (Value, error)
}

// NativeFn is the signature of a function implemented in Go and exposed to
// scripts, e.g. a built-in class method.
type NativeFn func(rt Runtime, args []Value) (Value, error)

// FnNative wraps a NativeFn as a Value.
type FnNative struct {
	Name string
	Fn   NativeFn
}

var _ Value = (*FnNative)(nil)

// NewFnNative returns a Value wrapping fn.
func NewFnNative(name string, fn NativeFn) *FnNative { return &FnNative{Name: name, Fn: fn} }

func (f *FnNative) String() string { return "native_fn" }
func (f *FnNative) Kind() Kind     { return KindFunction }
func (f *FnNative) Truth() bool    { return true }

// Call invokes the wrapped function.
func (f *FnNative) Call(rt Runtime, args []Value) (Value, error) { return f.Fn(rt, args) }

// FnBound pairs a receiver with any callable Value, implementing bound
// method values produced by field access on an Object (obj.method).
type FnBound struct {
	Receiver Value
	Callable Value
}

var _ Value = (*FnBound)(nil)

// NewFnBound returns a bound method value.
func NewFnBound(receiver, callable Value) *FnBound {
	return &FnBound{Receiver: receiver, Callable: callable}
}

func (f *FnBound) String() string { return "bound_fn" }
func (f *FnBound) Kind() Kind     { return KindFunction }
func (f *FnBound) Truth() bool    { return true }
