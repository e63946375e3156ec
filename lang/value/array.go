package value

import "strings"

// Array is a shared, mutable, growable sequence of Values. Multiple
// references to an Array see the same underlying storage.
type Array struct {
	Elems []Value
}

var _ Value = (*Array)(nil)

// NewArray returns an Array initialized with the given elements; the slice
// is taken by reference, not copied.
func NewArray(elems []Value) *Array { return &Array{Elems: elems} }

func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range a.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) Kind() Kind  { return KindArray }
func (a *Array) Truth() bool { return len(a.Elems) > 0 }
func (a *Array) Len() int    { return len(a.Elems) }

// Index returns the element at i, which must satisfy 0 <= i < Len().
func (a *Array) Index(i int) Value { return a.Elems[i] }

// SetIndex assigns the element at i, which must satisfy 0 <= i < Len().
func (a *Array) SetIndex(i int, v Value) { a.Elems[i] = v }
