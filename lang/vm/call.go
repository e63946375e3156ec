package vm

import "github.com/mna/dicelang/lang/value"

// call implements the CALL opcode's convention (§4.9): the callee and argc
// arguments sit at the top of the stack (callee lowest); call collapses
// them down to the callee's former position and returns the result, for the
// caller (the opcode handler, or CallFunction) to push.
func (rt *Runtime) call(argc int) (value.Value, error) {
	base := rt.stack.depth() - argc - 1
	callee := rt.stack.data[base]
	args := make([]value.Value, argc)
	copy(args, rt.stack.data[base+1:base+1+argc])

	result, err := rt.invoke(callee, nil, args)

	for i := base; i < rt.stack.top; i++ {
		rt.stack.data[i] = nil
	}
	rt.stack.top = base
	return result, err
}

// invoke dispatches a call to callee with the given receiver (nil for an
// unbound call) and args, covering every callable kind of §4.9: native
// functions, script functions (plain or closed-over), already-bound
// methods, and class instantiation.
func (rt *Runtime) invoke(callee value.Value, receiver value.Value, args []value.Value) (value.Value, error) {
	switch fn := callee.(type) {
	case *value.FnNative:
		if receiver != nil {
			args = append([]value.Value{receiver}, args...)
		}
		return fn.Call(rt, args)
	case *value.FnScript:
		return rt.callScript(fn, nil, receiver, args)
	case *value.FnClosure:
		return rt.callScript(fn.Script, fn.Upvalues, receiver, args)
	case *value.FnBound:
		return rt.invoke(fn.Callable, fn.Receiver, args)
	case *value.Class:
		return rt.instantiate(fn, args)
	default:
		return nil, newError(NotAFunction, noSpan, "value of kind %s is not callable", callee.Kind())
	}
}

// callScript runs fs's bytecode in a freshly reserved call frame: slot 0
// holds receiver (Unit if this is not a method call), the next Arity slots
// hold args, and the rest are initialized to Unit, per the calling
// convention compileFunctionBody compiles against.
func (rt *Runtime) callScript(fs *value.FnScript, upvalues []*value.Upvalue, receiver value.Value, args []value.Value) (value.Value, error) {
	if len(args) != fs.Arity {
		return nil, newInvalidFunctionArgsError(noSpan, fs.Arity, len(args))
	}
	fr := rt.stack.reserveSlots(fs.Bytecode.SlotCount)
	slots := rt.stack.slice(fr)
	if receiver != nil {
		slots[0] = receiver
	} else {
		slots[0] = value.Unit{}
	}
	copy(slots[1:], args)
	for i := 1 + len(args); i < len(slots); i++ {
		slots[i] = value.Unit{}
	}
	v, err := rt.execBytecode(fs.Bytecode, fr, upvalues)
	rt.stack.releaseSlots(fr)
	return v, err
}

// instantiate constructs a new instance of cls by allocating its Object and
// running its "new" method bound to it; a well-formed constructor always
// returns the self it was given (see compileFunctionBody's kindConstructor
// handling), so the constructor's own result is the instantiation's result.
func (rt *Runtime) instantiate(cls *value.Class, args []value.Value) (value.Value, error) {
	ctor, ok := cls.Method("new")
	if !ok {
		return nil, newError(NotAFunction, noSpan, "class %s has no constructor", cls.Name())
	}
	obj := value.NewObject(cls)
	return rt.invoke(ctor, obj, args)
}
