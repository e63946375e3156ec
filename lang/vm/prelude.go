package vm

import (
	"math/rand"

	"github.com/mna/dicelang/lang/value"
)

// registerPrelude binds the default implementations of the protocol symbols
// the compiler desugars operators to (§4.6, §6): range/dice-roll operators
// and the "length" symbol used by for-loop desugaring. Full standard-library
// richness (proper Int/Float class methods, seedable RNG, weighted dice
// expressions) is explicitly out of scope per §1; this is the minimal
// baseline so a script can run without a host-supplied prelude.
func registerPrelude(rt *Runtime) {
	_ = rt.RegisterNativeFunction(protoDieRoll, nativeDieRoll)
	_ = rt.RegisterNativeFunction(protoDiceRoll, nativeDiceRoll)
	_ = rt.RegisterNativeFunction(protoRangeExclusive, nativeRangeExclusive)
	_ = rt.RegisterNativeFunction(protoRangeInclusive, nativeRangeInclusive)
	_ = rt.RegisterNativeFunction(protoLength, nativeLength)
}

// Protocol symbol names, mirrored from lang/compiler's unexported constants
// of the same name (the compiler and the runtime are independently
// grounded on the same contract, per §6).
const (
	protoRangeExclusive = "range_exclusive"
	protoRangeInclusive = "range_inclusive"
	protoDiceRoll       = "dice_roll"
	protoDieRoll        = "die_roll"
	protoLength         = "length"
)

func nativeDieRoll(rt value.Runtime, args []value.Value) (value.Value, error) {
	sides, err := value.AsInt(args[0])
	if err != nil {
		return nil, newConversionError(noSpan, err)
	}
	if sides <= 0 {
		return nil, newError(Aborted, noSpan, "die roll requires a positive side count, got %d", sides)
	}
	return value.Int(rand.Int63n(sides) + 1), nil
}

func nativeDiceRoll(rt value.Runtime, args []value.Value) (value.Value, error) {
	count, err := value.AsInt(args[0])
	if err != nil {
		return nil, newConversionError(noSpan, err)
	}
	sides, err := value.AsInt(args[1])
	if err != nil {
		return nil, newConversionError(noSpan, err)
	}
	if sides <= 0 {
		return nil, newError(Aborted, noSpan, "dice roll requires a positive side count, got %d", sides)
	}
	var total int64
	for i := int64(0); i < count; i++ {
		total += rand.Int63n(sides) + 1
	}
	return value.Int(total), nil
}

func nativeRangeExclusive(rt value.Runtime, args []value.Value) (value.Value, error) {
	lo, hi, err := rangeBounds(args)
	if err != nil {
		return nil, err
	}
	return buildRange(lo, hi), nil
}

func nativeRangeInclusive(rt value.Runtime, args []value.Value) (value.Value, error) {
	lo, hi, err := rangeBounds(args)
	if err != nil {
		return nil, err
	}
	return buildRange(lo, hi+1), nil
}

func rangeBounds(args []value.Value) (int64, int64, error) {
	lo, err := value.AsInt(args[0])
	if err != nil {
		return 0, 0, newConversionError(noSpan, err)
	}
	hi, err := value.AsInt(args[1])
	if err != nil {
		return 0, 0, newConversionError(noSpan, err)
	}
	return lo, hi, nil
}

func buildRange(lo, hi int64) *value.Array {
	if hi < lo {
		return value.NewArray(nil)
	}
	elems := make([]value.Value, 0, hi-lo)
	for i := lo; i < hi; i++ {
		elems = append(elems, value.Int(i))
	}
	return value.NewArray(elems)
}

func nativeLength(rt value.Runtime, args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case *value.Array:
		return value.Int(v.Len()), nil
	case value.String:
		return value.Int(len(string(v))), nil
	default:
		return nil, newError(Aborted, noSpan, "length is not defined for %s", v.Kind())
	}
}
