package compiler

import (
	"github.com/mna/dicelang/lang/token"
	"github.com/mna/dicelang/lang/value"
)

// assembler accumulates the instruction bytes, constant pool and source map
// of a single bytecode unit. It exposes one emitter method per opcode and is
// grounded on dice's Assembler (dice-compiler/src/assembler.rs): every
// emitter records the source span for the opcode's first byte, and
// makeConstant deduplicates by value equality.
type assembler struct {
	data      []byte
	constants []value.Value
	sourceMap map[int]token.Span
}

func newAssembler() *assembler {
	return &assembler{sourceMap: make(map[int]token.Span)}
}

func (a *assembler) currentPosition() int { return len(a.data) }

func (a *assembler) emit(span token.Span, op value.Opcode) {
	a.sourceMap[len(a.data)] = span
	a.data = append(a.data, byte(op))
}

func (a *assembler) emitU8(span token.Span, op value.Opcode, arg uint8) {
	a.sourceMap[len(a.data)] = span
	a.data = append(a.data, byte(op), arg)
}

// makeConstant returns the index of v in the constant pool, interning it if
// not already present (by value equality). It fails with TooManyConstants if
// the pool would exceed 256 entries.
func (a *assembler) makeConstant(v value.Value) (uint8, *Error) {
	for i, c := range a.constants {
		if value.Equal(c, v) {
			return uint8(i), nil
		}
	}
	if len(a.constants) >= 256 {
		return 0, newError(TooManyConstants, token.Span{}, "constant pool exceeds 256 entries")
	}
	a.constants = append(a.constants, v)
	return uint8(len(a.constants) - 1), nil
}

// --- constant-shortcut and stack-shape emitters ---

func (a *assembler) pushNull(span token.Span)  { a.emit(span, value.PUSH_NULL) }
func (a *assembler) pushUnit(span token.Span)  { a.emit(span, value.PUSH_UNIT) }
func (a *assembler) pushBool(span token.Span, b bool) {
	if b {
		a.emit(span, value.PUSH_TRUE)
	} else {
		a.emit(span, value.PUSH_FALSE)
	}
}
func (a *assembler) pushI0(span token.Span) { a.emit(span, value.PUSH_I0) }
func (a *assembler) pushI1(span token.Span) { a.emit(span, value.PUSH_I1) }
func (a *assembler) pushF0(span token.Span) { a.emit(span, value.PUSH_F0) }
func (a *assembler) pushF1(span token.Span) { a.emit(span, value.PUSH_F1) }

func (a *assembler) pushConst(span token.Span, v value.Value) *Error {
	idx, err := a.makeConstant(v)
	if err != nil {
		return err
	}
	a.emitU8(span, value.PUSH_CONST, idx)
	return nil
}

func (a *assembler) pop(span token.Span)  { a.emit(span, value.POP) }
func (a *assembler) swap(span token.Span) { a.emit(span, value.SWAP) }
func (a *assembler) dup(span token.Span, offset uint8) {
	a.emitU8(span, value.DUP, offset)
}

func (a *assembler) createArray(span token.Span, length uint8) {
	a.emitU8(span, value.CREATE_ARRAY, length)
}
func (a *assembler) createObject(span token.Span) { a.emit(span, value.CREATE_OBJECT) }

func (a *assembler) createClass(span token.Span, nameConst uint8) {
	a.emitU8(span, value.CREATE_CLASS, nameConst)
}
func (a *assembler) inheritClass(span token.Span, nameConst uint8) {
	a.emitU8(span, value.INHERIT_CLASS, nameConst)
}

// upvalueRef is one (is_parent_local, index) pair trailing CREATE_CLOSURE.
type upvalueRef struct {
	ParentLocal bool
	Index       uint8
}

func (a *assembler) createClosure(span token.Span, constIdx uint8, refs []upvalueRef) {
	a.sourceMap[len(a.data)] = span
	a.data = append(a.data, byte(value.CREATE_CLOSURE), constIdx)
	for _, r := range refs {
		b := uint8(0)
		if r.ParentLocal {
			b = 1
		}
		a.data = append(a.data, b, r.Index)
	}
}

func (a *assembler) neg(span token.Span) { a.emit(span, value.NEG) }
func (a *assembler) not(span token.Span) { a.emit(span, value.NOT) }

func (a *assembler) mul(span token.Span) { a.emit(span, value.MUL) }
func (a *assembler) div(span token.Span) { a.emit(span, value.DIV) }
func (a *assembler) rem(span token.Span) { a.emit(span, value.REM) }
func (a *assembler) add(span token.Span) { a.emit(span, value.ADD) }
func (a *assembler) sub(span token.Span) { a.emit(span, value.SUB) }

func (a *assembler) gt(span token.Span)  { a.emit(span, value.GT) }
func (a *assembler) gte(span token.Span) { a.emit(span, value.GTE) }
func (a *assembler) lt(span token.Span)  { a.emit(span, value.LT) }
func (a *assembler) lte(span token.Span) { a.emit(span, value.LTE) }
func (a *assembler) eq(span token.Span)  { a.emit(span, value.EQ) }
func (a *assembler) neq(span token.Span) { a.emit(span, value.NEQ) }
func (a *assembler) is(span token.Span)  { a.emit(span, value.IS) }

// jump emits op with a zero placeholder offset and returns the byte position
// of the placeholder, to be passed to patchJump once the target is known.
func (a *assembler) jump(span token.Span, op value.Opcode) int {
	a.sourceMap[len(a.data)] = span
	a.data = append(a.data, byte(op), 0, 0)
	return len(a.data) - 2
}

// patchJump writes the forward relative offset from patchPos (the position
// returned by jump) to the current position.
func (a *assembler) patchJump(patchPos int) {
	offset := int16(a.currentPosition() - patchPos - 2)
	a.data[patchPos] = byte(uint16(offset))
	a.data[patchPos+1] = byte(uint16(offset) >> 8)
}

// jumpBack emits an unconditional backward jump to target.
func (a *assembler) jumpBack(span token.Span, target int) {
	offset := int16(-(a.currentPosition() - target + 2))
	a.sourceMap[len(a.data)] = span
	a.data = append(a.data, byte(value.JUMP), byte(uint16(offset)), byte(uint16(offset)>>8))
}

func (a *assembler) loadLocal(span token.Span, slot uint8)   { a.emitU8(span, value.LOAD_LOCAL, slot) }
func (a *assembler) storeLocal(span token.Span, slot uint8)  { a.emitU8(span, value.STORE_LOCAL, slot) }
func (a *assembler) assignLocal(span token.Span, slot uint8) { a.emitU8(span, value.ASSIGN_LOCAL, slot) }

func (a *assembler) loadUpvalue(span token.Span, idx uint8)   { a.emitU8(span, value.LOAD_UPVALUE, idx) }
func (a *assembler) storeUpvalue(span token.Span, idx uint8)  { a.emitU8(span, value.STORE_UPVALUE, idx) }
func (a *assembler) assignUpvalue(span token.Span, idx uint8) { a.emitU8(span, value.ASSIGN_UPVALUE, idx) }

func (a *assembler) closeUpvalue(span token.Span, slot uint8) {
	a.emitU8(span, value.CLOSE_UPVALUE, slot)
}

func (a *assembler) loadGlobal(span token.Span, name string) *Error {
	idx, err := a.makeConstant(value.Symbol(name))
	if err != nil {
		return err
	}
	a.emitU8(span, value.LOAD_GLOBAL, idx)
	return nil
}

func (a *assembler) storeGlobal(span token.Span, name string) *Error {
	idx, err := a.makeConstant(value.Symbol(name))
	if err != nil {
		return err
	}
	a.emitU8(span, value.STORE_GLOBAL, idx)
	return nil
}

func (a *assembler) loadField(span token.Span, key string) *Error {
	idx, err := a.makeConstant(value.Symbol(key))
	if err != nil {
		return err
	}
	a.emitU8(span, value.LOAD_FIELD, idx)
	return nil
}

func (a *assembler) storeField(span token.Span, key string) *Error {
	idx, err := a.makeConstant(value.Symbol(key))
	if err != nil {
		return err
	}
	a.emitU8(span, value.STORE_FIELD, idx)
	return nil
}

func (a *assembler) assignField(span token.Span, key string) *Error {
	idx, err := a.makeConstant(value.Symbol(key))
	if err != nil {
		return err
	}
	a.emitU8(span, value.ASSIGN_FIELD, idx)
	return nil
}

func (a *assembler) loadIndex(span token.Span)   { a.emit(span, value.LOAD_INDEX) }
func (a *assembler) storeIndex(span token.Span)  { a.emit(span, value.STORE_INDEX) }
func (a *assembler) assignIndex(span token.Span) { a.emit(span, value.ASSIGN_INDEX) }

func (a *assembler) storeMethod(span token.Span, key string) *Error {
	idx, err := a.makeConstant(value.Symbol(key))
	if err != nil {
		return err
	}
	a.emitU8(span, value.STORE_METHOD, idx)
	return nil
}

func (a *assembler) call(span token.Span, argc uint8) { a.emitU8(span, value.CALL, argc) }
func (a *assembler) ret(span token.Span)               { a.emit(span, value.RETURN) }

func (a *assembler) assertBool(span token.Span) { a.emit(span, value.ASSERT_BOOL) }

func (a *assembler) assertTypeForLocal(span token.Span, slot uint8, orNull bool) {
	if orNull {
		a.emitU8(span, value.ASSERT_TYPE_OR_NULL_FOR_LOCAL, slot)
	} else {
		a.emitU8(span, value.ASSERT_TYPE_FOR_LOCAL, slot)
	}
}

func (a *assembler) assertTypeAndReturn(span token.Span, orNull bool) {
	if orNull {
		a.emit(span, value.ASSERT_TYPE_OR_NULL_AND_RETURN)
	} else {
		a.emit(span, value.ASSERT_TYPE_AND_RETURN)
	}
}

func (a *assembler) loadModule(span token.Span, name string) *Error {
	idx, err := a.makeConstant(value.Symbol(name))
	if err != nil {
		return err
	}
	a.emitU8(span, value.LOAD_MODULE, idx)
	return nil
}

// finish packages the assembler's accumulated state into a Bytecode.
func (a *assembler) finish(slotCount, upvalCount int) *value.Bytecode {
	return value.NewBytecode(a.data, a.constants, slotCount, upvalCount, a.sourceMap)
}
