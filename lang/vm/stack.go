package vm

import "github.com/mna/dicelang/lang/value"

// stackCapacity is the fixed capacity of the value stack, in Values (roughly
// 1 MiB of 8-byte interface words, per §4.7).
const stackCapacity = 1 << 17

// callFrame is a contiguous range [Start, End) of the value stack owned by
// one invocation. Start holds the callee (or a dummy slot for free
// functions); the rest of the range holds arguments then locals.
type callFrame struct {
	Start int
	End   int
}

// valueStack is the fixed-capacity value buffer with call frames described
// in §4.7. It never reallocates: exceeding stackCapacity is a fatal
// interpreter bug, surfaced as a panic, since it indicates runaway
// recursion rather than a recoverable script error.
type valueStack struct {
	data []value.Value
	top  int
}

func newValueStack() *valueStack {
	return &valueStack{data: make([]value.Value, stackCapacity)}
}

func (s *valueStack) push(v value.Value) {
	if s.top >= len(s.data) {
		panic("value stack overflow")
	}
	s.data[s.top] = v
	s.top++
}

func (s *valueStack) pop() value.Value {
	s.top--
	v := s.data[s.top]
	s.data[s.top] = nil
	return v
}

// popCount pops and returns the top n values in push order (oldest first).
func (s *valueStack) popCount(n int) []value.Value {
	out := make([]value.Value, n)
	copy(out, s.data[s.top-n:s.top])
	for i := s.top - n; i < s.top; i++ {
		s.data[i] = nil
	}
	s.top -= n
	return out
}

// peek returns the value offset slots below the top (0 is the top itself).
func (s *valueStack) peek(offset int) value.Value {
	return s.data[s.top-1-offset]
}

func (s *valueStack) set(offset int, v value.Value) {
	s.data[s.top-1-offset] = v
}

// depth returns the current stack height.
func (s *valueStack) depth() int { return s.top }

// reserveSlots grows the stack by n slots (beyond the current top) and
// returns a frame spanning from the current top to the new top.
func (s *valueStack) reserveSlots(n int) callFrame {
	fr := callFrame{Start: s.top, End: s.top + n}
	if fr.End > len(s.data) {
		panic("value stack overflow")
	}
	s.top = fr.End
	return fr
}

// releaseSlots truncates the stack back down to fr.Start, nulling out the
// released region so it holds no dangling references.
func (s *valueStack) releaseSlots(fr callFrame) {
	for i := fr.Start; i < s.top; i++ {
		s.data[i] = nil
	}
	s.top = fr.Start
}

// slice returns the mutable slice of slots belonging to fr.
func (s *valueStack) slice(fr callFrame) []value.Value {
	return s.data[fr.Start:fr.End]
}
