package value

// Upvalue is a shared cell enabling a nested closure to see and mutate a
// local of an enclosing function after that function may have returned. It
// starts Open, referencing a live stack slot by absolute index, and is
// Closed exactly once, when its originating local goes out of scope, at
// which point it owns a copy of the value directly.
type Upvalue struct {
	open  bool
	slot  int
	value Value
}

// NewOpenUpvalue returns an Upvalue open over the given absolute stack
// index.
func NewOpenUpvalue(slot int) *Upvalue {
	return &Upvalue{open: true, slot: slot}
}

// IsOpen reports whether the upvalue still references a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.open }

// Slot returns the stack index this upvalue is open over. Only valid while
// IsOpen is true.
func (u *Upvalue) Slot() int { return u.slot }

// Close transitions the upvalue from Open to Closed, capturing value as its
// permanent payload.
func (u *Upvalue) Close(v Value) {
	u.open = false
	u.value = v
	u.slot = 0
}

// Value returns the closed payload. Only valid while IsOpen is false.
func (u *Upvalue) Value() Value { return u.value }

// SetValue overwrites the closed payload. Only valid while IsOpen is false.
func (u *Upvalue) SetValue(v Value) { u.value = v }
