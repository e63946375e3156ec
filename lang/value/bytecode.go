package value

import (
	"fmt"
	"strings"

	"github.com/mna/dicelang/lang/token"
)

// Bytecode is the immutable compiled form of one function, method, script or
// module body: its instruction bytes, deduplicated constant pool, the
// maximum local slot count any frame of this unit needs, the number of
// upvalues its enclosing closure carries, and a source map from byte offset
// to source span used only for diagnostics.
type Bytecode struct {
	Data        []byte
	Constants   []Value
	SlotCount   int
	UpvalCount  int
	SourceMap   map[int]token.Span
}

// NewBytecode builds a Bytecode from its parts. It is called by the
// compiler's assembler once a unit has finished compiling.
func NewBytecode(data []byte, constants []Value, slotCount, upvalCount int, sourceMap map[int]token.Span) *Bytecode {
	return &Bytecode{
		Data:       data,
		Constants:  constants,
		SlotCount:  slotCount,
		UpvalCount: upvalCount,
		SourceMap:  sourceMap,
	}
}

func (bc *Bytecode) String() string { return fmt.Sprintf("bytecode(%p)", bc) }
func (bc *Bytecode) Kind() Kind     { return KindFunction }
func (bc *Bytecode) Truth() bool    { return true }

// SpanAt returns the source span recorded for the instruction starting at
// byte offset pos, or the zero Span if none was recorded.
func (bc *Bytecode) SpanAt(pos int) token.Span { return bc.SourceMap[pos] }

// Cursor reads instructions sequentially out of a Bytecode's data.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a Cursor positioned at the start of bc's instructions.
func (bc *Bytecode) NewCursor() *Cursor { return &Cursor{data: bc.Data} }

// Position returns the cursor's current byte offset.
func (c *Cursor) Position() int { return c.pos }

// Seek repositions the cursor to an absolute byte offset, used by the
// interpreter to follow JUMP/JUMP_IF_FALSE/JUMP_IF_TRUE targets.
func (c *Cursor) Seek(pos int) { c.pos = pos }

// Done reports whether the cursor has consumed all instruction bytes.
func (c *Cursor) Done() bool { return c.pos >= len(c.data) }

// ReadOp reads the next opcode byte.
func (c *Cursor) ReadOp() Opcode {
	op := Opcode(c.data[c.pos])
	c.pos++
	return op
}

// ReadU8 reads a single-byte immediate operand.
func (c *Cursor) ReadU8() uint8 {
	v := c.data[c.pos]
	c.pos++
	return v
}

// ReadOffset reads a 16-bit signed relative jump offset.
func (c *Cursor) ReadOffset() int16 {
	v := int16(uint16(c.data[c.pos]) | uint16(c.data[c.pos+1])<<8)
	c.pos += 2
	return v
}

// Disassemble renders bc as human-readable text, recursing into any
// FnScript constants.
func (bc *Bytecode) Disassemble() string {
	var sb strings.Builder
	bc.disassemble(&sb, "")
	return sb.String()
}

func (bc *Bytecode) disassemble(sb *strings.Builder, indent string) {
	fmt.Fprintf(sb, "%sCode (slots=%d, upvalues=%d)\n", indent, bc.SlotCount, bc.UpvalCount)
	cur := bc.NewCursor()
	for !cur.Done() {
		pos := cur.Position()
		op := cur.ReadOp()
		fmt.Fprintf(sb, "%s%6d | %-24s", indent, pos, op)
		switch {
		case op.IsJump():
			fmt.Fprintf(sb, "| offset=%d", cur.ReadOffset())
		case op == CREATE_CLOSURE:
			constIdx := cur.ReadU8()
			fmt.Fprintf(sb, "| const=%d", constIdx)
			if int(constIdx) < len(bc.Constants) {
				if fs, ok := bc.Constants[constIdx].(*FnScript); ok {
					for i := 0; i < fs.Bytecode.UpvalCount; i++ {
						kind := "upvalue"
						if cur.ReadU8() == 1 {
							kind = "parent_local"
						}
						idx := cur.ReadU8()
						fmt.Fprintf(sb, " (%s=%d)", kind, idx)
					}
				}
			}
		case op == CREATE_CLASS || op == INHERIT_CLASS:
			fmt.Fprintf(sb, "| name_const=%d", cur.ReadU8())
		case op.HasU8Arg():
			fmt.Fprintf(sb, "| const=%d", cur.ReadU8())
		}
		sb.WriteByte('\n')
	}
	for _, c := range bc.Constants {
		if fs, ok := c.(*FnScript); ok {
			fmt.Fprintf(sb, "%sFunction: %s\n", indent, fs.Name)
			fs.Bytecode.disassemble(sb, indent+"  ")
		}
	}
}
