package value

// Null is the absence of a value.
type Null struct{}

var _ Value = Null{}

func (Null) String() string { return "null" }
func (Null) Kind() Kind     { return KindNull }
func (Null) Truth() bool    { return false }
