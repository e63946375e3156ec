package value

import "strconv"

// Int is the type of integer values.
type Int int64

var _ Value = Int(0)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Kind() Kind     { return KindInt }
func (i Int) Truth() bool    { return i != 0 }
