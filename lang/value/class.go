package value

import "github.com/dolthub/swiss"

// Class is a shared class descriptor: a name, an optional base class, a
// method table and a static-field map. Classes form a single-inheritance
// chain rooted at the runtime's built-in "Any" class.
type Class struct {
	ClassName string
	Base      *Class
	Methods   *swiss.Map[Symbol, Value]

	// Self exposes the class's static fields through the same Object shape
	// used for instances, so generic field-access code (LOAD_FIELD/
	// STORE_FIELD on a Class value) does not need a separate code path.
	Self *Object
}

var _ Value = (*Class)(nil)

// NewClass returns a new class deriving from base (nil for the root class).
func NewClass(name string, base *Class) *Class {
	c := &Class{
		ClassName: name,
		Base:      base,
		Methods:   swiss.NewMap[Symbol, Value](4),
	}
	c.Self = &Object{Class: c, Fields: swiss.NewMap[Symbol, Value](4)}
	return c
}

func (c *Class) String() string { return "class " + c.ClassName }
func (c *Class) Kind() Kind     { return KindClass }
func (c *Class) Truth() bool    { return true }

// Name returns the class's declared name.
func (c *Class) Name() string { return c.ClassName }

// Method looks up name in this class's method table, then its base chain.
func (c *Class) Method(name Symbol) (Value, bool) {
	for cur := c; cur != nil; cur = cur.Base {
		if v, ok := cur.Methods.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// SetMethod installs a method under name, shadowing any inherited one.
func (c *Class) SetMethod(name Symbol, fn Value) { c.Methods.Put(name, fn) }

// StaticField returns a static field's value.
func (c *Class) StaticField(name Symbol) (Value, bool) { return c.Self.Field(name) }

// SetStaticField assigns a static field's value.
func (c *Class) SetStaticField(name Symbol, v Value) { c.Self.SetField(name, v) }

// IsClass reports whether c is other, or other is a transitive base of c.
func (c *Class) IsClass(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Base {
		if cur == other {
			return true
		}
	}
	return false
}
