package value

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Object is a shared record: a reference to its Class plus a mutable field
// map keyed by interned Symbol. Multiple references to an Object see the
// same fields.
type Object struct {
	Class  *Class
	Fields *swiss.Map[Symbol, Value]
}

var _ Value = (*Object)(nil)

// NewObject returns an empty object of the given class.
func NewObject(class *Class) *Object {
	return &Object{Class: class, Fields: swiss.NewMap[Symbol, Value](4)}
}

func (o *Object) String() string { return fmt.Sprintf("object(%p)", o) }
func (o *Object) Kind() Kind     { return KindObject }
func (o *Object) Truth() bool    { return true }

// Field returns the value stored at name, or (nil, false) if unset.
func (o *Object) Field(name Symbol) (Value, bool) {
	return o.Fields.Get(name)
}

// SetField stores value at name, creating or overwriting the entry.
func (o *Object) SetField(name Symbol, v Value) {
	o.Fields.Put(name, v)
}
