package vm

import (
	"math"

	"github.com/mna/dicelang/lang/token"
	"github.com/mna/dicelang/lang/value"
)

// execBytecode runs bc's instructions over the slots of fr, with upvalues
// available to LOAD_UPVALUE/STORE_UPVALUE/ASSIGN_UPVALUE and as the source
// for CREATE_CLOSURE's non-parent-local captures. It is the single dispatch
// loop of §4.9, shared by top-level script/module execution and every
// script-function call.
func (rt *Runtime) execBytecode(bc *value.Bytecode, fr callFrame, upvalues []*value.Upvalue) (value.Value, error) {
	var ups openUpvalues
	cur := bc.NewCursor()

	for !cur.Done() {
		rt.steps++
		if rt.MaxSteps > 0 && rt.steps > rt.MaxSteps {
			return nil, newError(Aborted, bc.SpanAt(cur.Position()), "step limit exceeded")
		}
		if rt.cancelled.Load() {
			return nil, newError(Aborted, bc.SpanAt(cur.Position()), "execution cancelled")
		}

		pos := cur.Position()
		span := bc.SpanAt(pos)
		op := cur.ReadOp()

		switch op {
		case value.PUSH_NULL:
			rt.stack.push(value.Null{})
		case value.PUSH_UNIT:
			rt.stack.push(value.Unit{})
		case value.PUSH_TRUE:
			rt.stack.push(value.Bool(true))
		case value.PUSH_FALSE:
			rt.stack.push(value.Bool(false))
		case value.PUSH_I0:
			rt.stack.push(value.Int(0))
		case value.PUSH_I1:
			rt.stack.push(value.Int(1))
		case value.PUSH_F0:
			rt.stack.push(value.Float(0))
		case value.PUSH_F1:
			rt.stack.push(value.Float(1))
		case value.PUSH_CONST:
			rt.stack.push(bc.Constants[cur.ReadU8()])

		case value.POP:
			rt.stack.pop()
		case value.SWAP:
			a := rt.stack.pop()
			b := rt.stack.pop()
			rt.stack.push(a)
			rt.stack.push(b)
		case value.DUP:
			offset := cur.ReadU8()
			rt.stack.push(rt.stack.peek(int(offset)))

		case value.CREATE_ARRAY:
			n := cur.ReadU8()
			rt.stack.push(value.NewArray(rt.stack.popCount(int(n))))
		case value.CREATE_OBJECT:
			rt.stack.push(value.NewObject(rt.classesByKind[value.KindObject]))
		case value.CREATE_CLASS:
			name := string(bc.Constants[cur.ReadU8()].(value.Symbol))
			rt.stack.push(rt.NewClass(name, nil))
		case value.INHERIT_CLASS:
			name := string(bc.Constants[cur.ReadU8()].(value.Symbol))
			base, err := value.AsClass(rt.stack.pop())
			if err != nil {
				return nil, newConversionError(span, err)
			}
			rt.stack.push(rt.NewClass(name, base))
		case value.CREATE_CLOSURE:
			v, err := rt.execCreateClosure(bc, cur, fr, upvalues, &ups)
			if err != nil {
				return nil, err
			}
			rt.stack.push(v)

		case value.NEG:
			v, err := negate(rt.stack.pop(), span)
			if err != nil {
				return nil, err
			}
			rt.stack.push(v)
		case value.NOT:
			rt.stack.push(value.Bool(!rt.stack.pop().Truth()))

		case value.MUL, value.DIV, value.REM, value.ADD, value.SUB:
			v, err := rt.execBinaryArith(op, span)
			if err != nil {
				return nil, err
			}
			rt.stack.push(v)

		case value.GT, value.GTE, value.LT, value.LTE, value.EQ, value.NEQ:
			v, err := rt.execCompare(op, span)
			if err != nil {
				return nil, err
			}
			rt.stack.push(v)
		case value.IS:
			rhs, err := value.AsClass(rt.stack.pop())
			if err != nil {
				return nil, newConversionError(span, err)
			}
			lhs := rt.stack.pop()
			rt.stack.push(value.Bool(rt.classOf(lhs).IsClass(rhs)))

		case value.JUMP:
			offset := cur.ReadOffset()
			cur.Seek(cur.Position() + int(offset))
		case value.JUMP_IF_FALSE:
			offset := cur.ReadOffset()
			if !rt.stack.pop().Truth() {
				cur.Seek(cur.Position() + int(offset))
			}
		case value.JUMP_IF_TRUE:
			offset := cur.ReadOffset()
			if rt.stack.pop().Truth() {
				cur.Seek(cur.Position() + int(offset))
			}

		case value.LOAD_LOCAL:
			slot := int(cur.ReadU8())
			rt.stack.push(rt.stack.data[fr.Start+slot])
		case value.STORE_LOCAL:
			slot := int(cur.ReadU8())
			rt.stack.data[fr.Start+slot] = rt.stack.peek(0)
		case value.ASSIGN_LOCAL:
			slot := int(cur.ReadU8())
			rt.stack.data[fr.Start+slot] = rt.stack.pop()
			rt.stack.push(value.Unit{})

		case value.LOAD_UPVALUE:
			idx := cur.ReadU8()
			rt.stack.push(rt.readUpvalue(upvalues[idx]))
		case value.STORE_UPVALUE:
			idx := cur.ReadU8()
			rt.writeUpvalue(upvalues[idx], rt.stack.peek(0))
		case value.ASSIGN_UPVALUE:
			idx := cur.ReadU8()
			rt.writeUpvalue(upvalues[idx], rt.stack.pop())
			rt.stack.push(value.Unit{})

		case value.CLOSE_UPVALUE:
			slot := fr.Start + int(cur.ReadU8())
			ups.close(slot, rt.stack.data[slot])

		case value.LOAD_GLOBAL:
			name := string(bc.Constants[cur.ReadU8()].(value.Symbol))
			v, ok := rt.globals.Get(name)
			if !ok {
				return nil, newError(VariableNotFound, span, "global %q is not bound", name)
			}
			rt.stack.push(v)
		case value.STORE_GLOBAL:
			name := string(bc.Constants[cur.ReadU8()].(value.Symbol))
			if err := rt.AddGlobal(name, rt.stack.pop()); err != nil {
				return nil, newError(InvalidGlobalNameType, span, "%s", err)
			}

		case value.LOAD_FIELD:
			key := bc.Constants[cur.ReadU8()].(value.Symbol)
			obj := rt.stack.pop()
			v, err := rt.loadField(obj, key, span)
			if err != nil {
				return nil, err
			}
			rt.stack.push(v)
		case value.STORE_FIELD:
			key := bc.Constants[cur.ReadU8()].(value.Symbol)
			v := rt.stack.pop()
			obj := rt.stack.pop()
			if err := rt.storeField(obj, key, v, span); err != nil {
				return nil, err
			}
			rt.stack.push(v)
		case value.ASSIGN_FIELD:
			key := bc.Constants[cur.ReadU8()].(value.Symbol)
			v := rt.stack.pop()
			obj := rt.stack.pop()
			if err := rt.storeField(obj, key, v, span); err != nil {
				return nil, err
			}
			rt.stack.push(value.Unit{})

		case value.LOAD_INDEX:
			idx := rt.stack.pop()
			obj := rt.stack.pop()
			v, err := rt.loadIndex(obj, idx, span)
			if err != nil {
				return nil, err
			}
			rt.stack.push(v)
		case value.STORE_INDEX:
			v := rt.stack.pop()
			idx := rt.stack.pop()
			obj := rt.stack.pop()
			if err := rt.storeIndex(obj, idx, v, span); err != nil {
				return nil, err
			}
			rt.stack.push(v)
		case value.ASSIGN_INDEX:
			v := rt.stack.pop()
			idx := rt.stack.pop()
			obj := rt.stack.pop()
			if err := rt.storeIndex(obj, idx, v, span); err != nil {
				return nil, err
			}
			rt.stack.push(value.Unit{})

		case value.STORE_METHOD:
			key := bc.Constants[cur.ReadU8()].(value.Symbol)
			fn := rt.stack.pop()
			cls, err := value.AsClass(rt.stack.pop())
			if err != nil {
				return nil, newConversionError(span, err)
			}
			cls.SetMethod(key, fn)
			rt.stack.push(cls)

		case value.CALL:
			argc := int(cur.ReadU8())
			v, err := rt.call(argc)
			if err != nil {
				if rerr, ok := err.(*Error); ok && rerr.Span == (token.Span{}) {
					rerr.Span = span
				}
				return nil, err
			}
			rt.stack.push(v)

		case value.RETURN:
			return rt.stack.pop(), nil

		case value.ASSERT_BOOL:
			if _, ok := rt.stack.peek(0).(value.Bool); !ok {
				return nil, newError(InvalidConversion, span, "condition must be a bool, got %s", rt.stack.peek(0).Kind())
			}

		case value.ASSERT_TYPE_FOR_LOCAL, value.ASSERT_TYPE_OR_NULL_FOR_LOCAL:
			slot := int(cur.ReadU8())
			cls, err := value.AsClass(rt.stack.pop())
			if err != nil {
				return nil, newConversionError(span, err)
			}
			orNull := op == value.ASSERT_TYPE_OR_NULL_FOR_LOCAL
			if err := rt.assertConforms(rt.stack.data[fr.Start+slot], cls, orNull, span); err != nil {
				return nil, err
			}

		case value.ASSERT_TYPE_AND_RETURN, value.ASSERT_TYPE_OR_NULL_AND_RETURN:
			cls, err := value.AsClass(rt.stack.pop())
			if err != nil {
				return nil, newConversionError(span, err)
			}
			v := rt.stack.pop()
			orNull := op == value.ASSERT_TYPE_OR_NULL_AND_RETURN
			if err := rt.assertConforms(v, cls, orNull, span); err != nil {
				return nil, err
			}
			return v, nil

		case value.LOAD_MODULE:
			name := string(bc.Constants[cur.ReadU8()].(value.Symbol))
			mod, err := rt.loadModule(name)
			if err != nil {
				return nil, err
			}
			rt.stack.push(mod)

		default:
			return nil, newError(UnknownInstruction, span, "unknown opcode %s", op)
		}
	}

	// A well-formed unit always ends in RETURN; falling off the end (a
	// top-level script/module body with no explicit return) yields Unit.
	return value.Unit{}, nil
}

func (rt *Runtime) execCreateClosure(bc *value.Bytecode, cur *value.Cursor, fr callFrame, upvalues []*value.Upvalue, ups *openUpvalues) (value.Value, error) {
	constIdx := cur.ReadU8()
	fs, ok := bc.Constants[constIdx].(*value.FnScript)
	if !ok {
		return nil, newError(UnknownInstruction, token.Span{}, "CREATE_CLOSURE constant is not a function")
	}
	captured := make([]*value.Upvalue, fs.Bytecode.UpvalCount)
	for i := range captured {
		isParentLocal := cur.ReadU8() == 1
		idx := int(cur.ReadU8())
		if isParentLocal {
			captured[i] = ups.find(fr.Start + idx)
		} else {
			captured[i] = upvalues[idx]
		}
	}
	return value.NewFnClosure(fs, captured), nil
}

func (rt *Runtime) readUpvalue(u *value.Upvalue) value.Value {
	if u.IsOpen() {
		return rt.stack.data[u.Slot()]
	}
	return u.Value()
}

func (rt *Runtime) writeUpvalue(u *value.Upvalue, v value.Value) {
	if u.IsOpen() {
		rt.stack.data[u.Slot()] = v
		return
	}
	u.SetValue(v)
}

func negate(v value.Value, span token.Span) (value.Value, *Error) {
	switch n := v.(type) {
	case value.Int:
		return -n, nil
	case value.Float:
		return -n, nil
	default:
		return nil, newError(InvalidConversion, span, "cannot negate a %s", v.Kind())
	}
}

func arithSymbol(op value.Opcode) value.Symbol {
	switch op {
	case value.ADD:
		return "add"
	case value.SUB:
		return "sub"
	case value.MUL:
		return "mul"
	case value.DIV:
		return "div"
	case value.REM:
		return "rem"
	default:
		return ""
	}
}

func compareSymbol(op value.Opcode) value.Symbol {
	switch op {
	case value.GT:
		return "gt"
	case value.GTE:
		return "gte"
	case value.LT:
		return "lt"
	case value.LTE:
		return "lte"
	case value.EQ:
		return "eq"
	case value.NEQ:
		return "neq"
	default:
		return ""
	}
}

// execBinaryArith implements the fast-path/protocol-fallback split of §4.9
// for MUL/DIV/REM/ADD/SUB.
func (rt *Runtime) execBinaryArith(op value.Opcode, span token.Span) (value.Value, error) {
	b := rt.stack.pop()
	a := rt.stack.pop()

	if ai, ok := a.(value.Int); ok {
		if bi, ok := b.(value.Int); ok {
			switch op {
			case value.ADD:
				return ai + bi, nil
			case value.SUB:
				return ai - bi, nil
			case value.MUL:
				return ai * bi, nil
			case value.DIV:
				if bi == 0 {
					return nil, newError(DivideByZero, span, "integer division by zero")
				}
				return ai / bi, nil
			case value.REM:
				if bi == 0 {
					return nil, newError(DivideByZero, span, "integer modulo by zero")
				}
				return ai % bi, nil
			}
		}
	}
	if af, ok := a.(value.Float); ok {
		if bf, ok := b.(value.Float); ok {
			switch op {
			case value.ADD:
				return af + bf, nil
			case value.SUB:
				return af - bf, nil
			case value.MUL:
				return af * bf, nil
			case value.DIV:
				return af / bf, nil
			case value.REM:
				return value.Float(math.Mod(float64(af), float64(bf))), nil
			}
		}
	}
	return rt.dispatchProtocol(arithSymbol(op), a, b, span, false)
}

// execCompare implements the fast-path/protocol-fallback split for
// GT/GTE/LT/LTE/EQ/NEQ. EQ/NEQ additionally fall back to structural
// Value equality when neither class defines the protocol method, since
// every value should be comparable for equality even without a
// host-supplied prelude.
func (rt *Runtime) execCompare(op value.Opcode, span token.Span) (value.Value, error) {
	b := rt.stack.pop()
	a := rt.stack.pop()

	if ai, ok := a.(value.Int); ok {
		if bi, ok := b.(value.Int); ok {
			return compareOrdered(op, int64(ai) < int64(bi), int64(ai) == int64(bi)), nil
		}
	}
	if af, ok := a.(value.Float); ok {
		if bf, ok := b.(value.Float); ok {
			return compareOrdered(op, float64(af) < float64(bf), float64(af) == float64(bf)), nil
		}
	}

	isDefault := op == value.EQ || op == value.NEQ
	v, err := rt.dispatchProtocol(compareSymbol(op), a, b, span, isDefault)
	if err == nil {
		return v, nil
	}
	if !isDefault || err != error(errProtocolMissing) {
		return nil, err
	}
	eq := value.Equal(a, b)
	if op == value.NEQ {
		eq = !eq
	}
	return value.Bool(eq), nil
}

func compareOrdered(op value.Opcode, less, equal bool) value.Value {
	switch op {
	case value.GT:
		return value.Bool(!less && !equal)
	case value.GTE:
		return value.Bool(!less)
	case value.LT:
		return value.Bool(less)
	case value.LTE:
		return value.Bool(less || equal)
	case value.EQ:
		return value.Bool(equal)
	case value.NEQ:
		return value.Bool(!equal)
	default:
		return value.Bool(false)
	}
}

// dispatchProtocol looks up sym as a method on a's class and invokes it as
// {method, a, b}, per §4.9's operator-protocol fallback. When
// allowMissing is true and no method is found, it returns a sentinel error
// the caller recognizes to fall back to a default.
func (rt *Runtime) dispatchProtocol(sym value.Symbol, a, b value.Value, span token.Span, allowMissing bool) (value.Value, error) {
	method, ok := rt.classOf(a).Method(sym)
	if !ok {
		if allowMissing {
			return nil, errProtocolMissing
		}
		return nil, newError(VariableNotFound, span, "no %q operator method on %s", sym, a.Kind())
	}
	return rt.CallFunction(value.NewFnBound(a, method), []value.Value{b})
}

var errProtocolMissing = newError(VariableNotFound, token.Span{}, "protocol method missing")

func (rt *Runtime) loadField(v value.Value, key value.Symbol, span token.Span) (value.Value, error) {
	switch vv := v.(type) {
	case *value.Object:
		if fv, ok := vv.Field(key); ok {
			return fv, nil
		}
		if m, ok := vv.Class.Method(key); ok {
			return value.NewFnBound(v, m), nil
		}
	case *value.Class:
		if fv, ok := vv.StaticField(key); ok {
			return fv, nil
		}
	default:
		if m, ok := rt.classOf(v).Method(key); ok {
			return value.NewFnBound(v, m), nil
		}
	}
	return nil, newError(VariableNotFound, span, "no field or method %q on %s", key, v.Kind())
}

func (rt *Runtime) storeField(v value.Value, key value.Symbol, fv value.Value, span token.Span) error {
	switch vv := v.(type) {
	case *value.Object:
		vv.SetField(key, fv)
		return nil
	case *value.Class:
		vv.SetStaticField(key, fv)
		return nil
	default:
		return newError(InvalidConversion, span, "cannot set field %q on %s", key, v.Kind())
	}
}

func (rt *Runtime) loadIndex(obj, idx value.Value, span token.Span) (value.Value, error) {
	arr, err := value.AsArray(obj)
	if err != nil {
		return nil, newConversionError(span, err)
	}
	i, err := value.AsInt(idx)
	if err != nil {
		return nil, newConversionError(span, err)
	}
	if i < 0 || i >= int64(arr.Len()) {
		return nil, newError(InvalidConversion, span, "index %d out of range (len %d)", i, arr.Len())
	}
	return arr.Index(int(i)), nil
}

func (rt *Runtime) storeIndex(obj, idx, v value.Value, span token.Span) error {
	arr, err := value.AsArray(obj)
	if err != nil {
		return newConversionError(span, err)
	}
	i, err := value.AsInt(idx)
	if err != nil {
		return newConversionError(span, err)
	}
	if i < 0 || i >= int64(arr.Len()) {
		return newError(InvalidConversion, span, "index %d out of range (len %d)", i, arr.Len())
	}
	arr.SetIndex(int(i), v)
	return nil
}

func (rt *Runtime) assertConforms(v value.Value, cls *value.Class, orNull bool, span token.Span) error {
	if orNull {
		if _, ok := v.(value.Null); ok {
			return nil
		}
	}
	if !rt.classOf(v).IsClass(cls) {
		return newError(InvalidConversion, span, "value of kind %s does not conform to class %s", v.Kind(), cls.Name())
	}
	return nil
}
