package value

// String is the type of string values. Strings compare and hash by content;
// pointer identity is not part of the value's equality.
type String string

var _ Value = String("")

func (s String) String() string { return string(s) }
func (s String) Kind() Kind     { return KindString }
func (s String) Truth() bool    { return len(s) > 0 }

// Symbol is an interned name used for field keys, global names and protocol
// operator names. Symbols of equal text are equal.
type Symbol string

var _ Value = Symbol("")

func (s Symbol) String() string { return string(s) }
func (s Symbol) Kind() Kind     { return KindSymbol }
func (s Symbol) Truth() bool    { return len(s) > 0 }
