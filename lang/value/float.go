package value

import "strconv"

// Float is the type of floating-point values.
type Float float64

var _ Value = Float(0)

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Kind() Kind     { return KindFloat }
func (f Float) Truth() bool    { return f != 0 }
