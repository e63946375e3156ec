package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorReadsInstructions(t *testing.T) {
	data := []byte{byte(PUSH_I0), byte(PUSH_I1), byte(ADD), byte(RETURN)}
	bc := NewBytecode(data, nil, 1, 0, nil)
	cur := bc.NewCursor()

	require.Equal(t, PUSH_I0, cur.ReadOp())
	require.Equal(t, PUSH_I1, cur.ReadOp())
	require.Equal(t, ADD, cur.ReadOp())
	require.Equal(t, RETURN, cur.ReadOp())
	require.True(t, cur.Done())
}

func TestCursorReadsU8Operand(t *testing.T) {
	data := []byte{byte(PUSH_CONST), 7}
	bc := NewBytecode(data, nil, 1, 0, nil)
	cur := bc.NewCursor()
	require.Equal(t, PUSH_CONST, cur.ReadOp())
	require.Equal(t, uint8(7), cur.ReadU8())
}

func TestCursorReadsSignedOffset(t *testing.T) {
	data := []byte{byte(JUMP), 0xfe, 0xff} // -2 as little-endian i16
	bc := NewBytecode(data, nil, 0, 0, nil)
	cur := bc.NewCursor()
	require.Equal(t, JUMP, cur.ReadOp())
	require.Equal(t, int16(-2), cur.ReadOffset())
}

func TestDisassembleRecursesIntoFunctions(t *testing.T) {
	inner := NewBytecode([]byte{byte(PUSH_I1), byte(RETURN)}, nil, 1, 0, nil)
	fs := NewFnScript("add1", 1, inner)
	outer := NewBytecode([]byte{byte(PUSH_CONST), 0, byte(RETURN)}, []Value{fs}, 1, 0, nil)

	out := outer.Disassemble()
	require.Contains(t, out, "PUSH_CONST")
	require.Contains(t, out, "Function: add1")
	require.Contains(t, out, "PUSH_I1")
}

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "ADD", ADD.String())
	require.True(t, ADD.Valid())
	require.False(t, Opcode(250).Valid())
}
