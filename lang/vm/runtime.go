// Package vm implements the stack-based bytecode interpreter (C7-C9): a
// fixed-capacity value stack with call frames, the open-upvalue list, and
// the opcode dispatch loop, fronted by a Runtime façade that scripts and
// native Go code use to run bytecode and call back into each other.
package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dolthub/swiss"
	"github.com/mna/dicelang/lang/value"
)

// ModuleLoader resolves a module name to its compiled bytecode; this is the
// module-loader external collaborator of §6, deliberately out of the
// core's scope (no filesystem I/O here).
type ModuleLoader interface {
	LoadModule(name string) (*value.Bytecode, error)
}

// Runtime is the bytecode virtual machine's façade (§6): it owns the value
// stack, the global/class tables and the module cache, and exposes the
// operations native functions and host code use to drive execution.
// It is grounded on the teacher's machine.Thread: a per-run resource-limit
// and I/O surface around one interpretation.
type Runtime struct {
	// Name optionally identifies the runtime, for diagnostics.
	Name string

	Stdout io.Writer
	Stderr io.Writer

	// MaxSteps bounds the number of opcodes dispatched before execution is
	// aborted; zero means unlimited.
	MaxSteps uint64

	Loader ModuleLoader

	stack         *valueStack
	globals       *swiss.Map[string, value.Value]
	classesByKind [int(value.KindFunction) + 1]*value.Class
	anyClass      *value.Class
	modules       *swiss.Map[string, *value.Object]

	ctx       context.Context
	ctxCancel context.CancelFunc
	cancelled atomic.Bool
	steps     uint64

	stdout io.Writer
	stderr io.Writer
}

var _ value.Runtime = (*Runtime)(nil)

// NewRuntime returns a Runtime with the built-in class hierarchy registered
// (an "Any" root and one class per primitive Kind, per §4.9's design note on
// the kind-to-class mapping) and the protocol-symbol globals of §6 bound.
func NewRuntime(ctx context.Context) *Runtime {
	ctx, cancel := context.WithCancel(ctx)
	rt := &Runtime{
		stack:     newValueStack(),
		globals:   swiss.NewMap[string, value.Value](16),
		modules:   swiss.NewMap[string, *value.Object](4),
		ctx:       ctx,
		ctxCancel: cancel,
	}
	rt.stdout, rt.stderr = os.Stdout, os.Stderr
	rt.registerBuiltinClasses()
	registerPrelude(rt)
	return rt
}

// registerBuiltinClasses also binds each built-in class as a global under
// its name (including "Any"), so a type annotation written against a
// primitive kind (e.g. `x: Int`) resolves the same way a user class name
// does: through the compiler's ordinary identifier lowering down to
// LOAD_GLOBAL, per §4.6.
func (rt *Runtime) registerBuiltinClasses() {
	rt.anyClass = value.NewClass("Any", nil)
	rt.globals.Put("Any", rt.anyClass)
	names := [...]string{
		value.KindNull:     "Null",
		value.KindUnit:     "Unit",
		value.KindBool:     "Bool",
		value.KindInt:      "Int",
		value.KindFloat:    "Float",
		value.KindString:   "String",
		value.KindSymbol:   "Symbol",
		value.KindArray:    "Array",
		value.KindObject:   "Object",
		value.KindClass:    "Class",
		value.KindFunction: "Function",
	}
	for k, name := range names {
		cls := value.NewClass(name, rt.anyClass)
		rt.classesByKind[k] = cls
		rt.globals.Put(name, cls)
	}
}

// classOf returns the class governing v's method lookup and is-conformance:
// an Object's own class, or the kind-to-class mapping for everything else.
func (rt *Runtime) classOf(v value.Value) *value.Class {
	if o, ok := v.(*value.Object); ok {
		return o.Class
	}
	k := v.Kind()
	if int(k) < len(rt.classesByKind) {
		return rt.classesByKind[k]
	}
	return rt.anyClass
}

func (rt *Runtime) out() io.Writer {
	if rt.Stdout != nil {
		return rt.Stdout
	}
	return rt.stdout
}

func (rt *Runtime) err() io.Writer {
	if rt.Stderr != nil {
		return rt.Stderr
	}
	return rt.stderr
}

// RunBytecode executes bc as a fresh top-level unit (a script or module body)
// with no caller arguments, per §6's run_bytecode operation.
func (rt *Runtime) RunBytecode(bc *value.Bytecode) (value.Value, error) {
	entry := rt.stack.depth()
	fr := rt.stack.reserveSlots(bc.SlotCount)
	for i := range rt.stack.slice(fr) {
		rt.stack.slice(fr)[i] = value.Unit{}
	}
	v, err := rt.execBytecode(bc, fr, nil)
	rt.stack.releaseSlots(callFrame{Start: entry, End: rt.stack.depth()})
	return v, err
}

// CallFunction invokes target with args, implementing value.Runtime so
// native functions can call back into the interpreter, and also serving as
// the façade's call_function operation.
func (rt *Runtime) CallFunction(target value.Value, args []value.Value) (value.Value, error) {
	entry := rt.stack.depth()
	rt.stack.push(target)
	for _, a := range args {
		rt.stack.push(a)
	}
	v, err := rt.call(len(args))
	rt.stack.releaseSlots(callFrame{Start: entry, End: rt.stack.depth()})
	return v, err
}

// NewClass returns a fresh class named name, deriving from base (or the
// built-in Any root if base is nil), per §6's new_class operation.
func (rt *Runtime) NewClass(name string, base *value.Class) *value.Class {
	if base == nil {
		base = rt.anyClass
	}
	return value.NewClass(name, base)
}

// NewModule returns a fresh, empty export object for a module named name,
// per §6's new_module operation.
func (rt *Runtime) NewModule(name string) *value.Object {
	return value.NewObject(rt.classesByKind[value.KindObject])
}

// AddGlobal binds name to v, failing if name is already bound, per §6's
// add_global operation.
func (rt *Runtime) AddGlobal(name string, v value.Value) error {
	if _, ok := rt.globals.Get(name); ok {
		return fmt.Errorf("global %q already bound", name)
	}
	rt.globals.Put(name, v)
	return nil
}

// RegisterNativeFunction binds name to a FnNative wrapping fn, per §6's
// register_native_function operation.
func (rt *Runtime) RegisterNativeFunction(name string, fn value.NativeFn) error {
	return rt.AddGlobal(name, value.NewFnNative(name, fn))
}

// LoadPrelude runs the module named name and injects each of its exported
// fields as a global, without overwriting a name that is already bound
// (last-insert-wins only for unset names, per §6's load_prelude operation).
func (rt *Runtime) LoadPrelude(name string) error {
	mod, err := rt.loadModule(name)
	if err != nil {
		return err
	}
	var loadErr error
	mod.Fields.Iter(func(k value.Symbol, v value.Value) bool {
		if _, ok := rt.globals.Get(string(k)); !ok {
			rt.globals.Put(string(k), v)
		}
		return false
	})
	return loadErr
}

func (rt *Runtime) loadModule(name string) (*value.Object, error) {
	if mod, ok := rt.modules.Get(name); ok {
		return mod, nil
	}
	if rt.Loader == nil {
		return nil, newError(ModuleLoad, noSpan, "no module loader configured, cannot load %q", name)
	}
	bc, err := rt.Loader.LoadModule(name)
	if err != nil {
		return nil, newError(ModuleLoad, noSpan, "%s", err)
	}
	mod := value.NewObject(rt.classesByKind[value.KindObject])
	rt.modules.Put(name, mod) // cached before running: circular imports see the partial object
	entry := rt.stack.depth()
	fr := rt.stack.reserveSlots(bc.SlotCount)
	rt.stack.slice(fr)[0] = mod
	for i := 1; i < len(rt.stack.slice(fr)); i++ {
		rt.stack.slice(fr)[i] = value.Unit{}
	}
	_, err = rt.execBytecode(bc, fr, nil)
	rt.stack.releaseSlots(callFrame{Start: entry, End: rt.stack.depth()})
	if err != nil {
		return nil, err
	}
	return mod, nil
}
