package token

// Value carries the scanned payload that accompanies a Token: its raw
// source text, the position it starts at, and (for literals) the decoded
// value. Only the field matching the token kind is meaningful: Int for
// INT, Float for FLOAT, Str for STRING.
type Value struct {
	Raw   string
	Pos   Pos
	Int   int64
	Float float64
	Str   string
}
