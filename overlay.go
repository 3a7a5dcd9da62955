package formula

import "math/big"

// Overlay applies a multiplier to a tag and returns the result. Overlays are
// not cumulative: applying 3 and then 5 gives five times the original value.
//
// A Number tag's value is always its text's reading times m. Function and
// Variable tags remember their value as Base the first time an overlay is
// applied and multiply that from then on. Other tags are returned unchanged.
func Overlay(t Tag, m int64) Tag {
	switch {
	case t.Kind == Number:
		t.Value = scale(Reading(t.Text), m)
	case t.Kind.Valued():
		if t.Base == nil {
			t.Base = t.Value
		}
		t.Value = scale(t.Base, m)
	}
	return t
}

// scale returns a new value x*m, or nil if x is nil or the product is
// undefined.
func scale(x *big.Float, m int64) (r *big.Float) {
	if x == nil {
		return nil
	}
	defer undefinedOnNaN(&r)
	r = new(big.Float).SetPrec(x.Prec())
	return r.Mul(x, new(big.Float).SetInt64(m))
}
