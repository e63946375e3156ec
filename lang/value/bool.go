package value

// Bool is the type of boolean values.
type Bool bool

var _ Value = Bool(false)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b Bool) Kind() Kind  { return KindBool }
func (b Bool) Truth() bool { return bool(b) }
