package vm

import "github.com/mna/dicelang/lang/value"

// openUpvalues is the runtime's ordered list of upvalues still referencing
// a live stack slot, per §4.8. It is scoped to one interpreter invocation of
// execBytecode (not shared globally), since upvalues only ever reference
// slots within the frame chain currently executing.
type openUpvalues struct {
	list []*value.Upvalue
}

// find returns the existing open upvalue over slot, or creates, records and
// returns a new one.
func (o *openUpvalues) find(slot int) *value.Upvalue {
	for _, u := range o.list {
		if u.IsOpen() && u.Slot() == slot {
			return u
		}
	}
	u := value.NewOpenUpvalue(slot)
	o.list = append(o.list, u)
	return u
}

// close closes the open upvalue (if any) referencing slot, capturing v as
// its permanent payload, and removes it from the open list.
func (o *openUpvalues) close(slot int, v value.Value) {
	for i, u := range o.list {
		if u.IsOpen() && u.Slot() == slot {
			u.Close(v)
			o.list = append(o.list[:i], o.list[i+1:]...)
			return
		}
	}
}
