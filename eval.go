package formula

import (
	"math/big"
)

// DefaultPrec is the precision in bits used when evaluating without a Prec
// option.
const DefaultPrec = 64

// EvalOption is an option for evaluation.
type EvalOption interface {
	evalOption()
}

type precopt uint

func (precopt) evalOption() {}

// Prec sets the precision of calculations.
func Prec(prec uint) EvalOption {
	return precopt(prec)
}

// evaluator holds the stacks of a single reduction. The value stack may hold
// nil, which is an undefined value.
type evaluator struct {
	vals []*big.Float
	ops  []string
	op   string
	prec uint
}

// Evaluate reduces a tag sequence to a number. Operators have equal strength
// and apply left to right, so [2 + 3 * 4] is 20. A trailing operator is
// ignored, and a sequence with no value-bearing tags evaluates to 0.
//
// If a tag that contributes to the result has an undefined value, the result
// is nil.
func Evaluate(seq []Tag, opts ...EvalOption) *big.Float {
	e := evaluator{prec: DefaultPrec}
	for _, opt := range opts {
		switch opt := opt.(type) {
		case precopt:
			e.prec = uint(opt)
		case nil: // do nothing
		default:
			panic("formula: unknown option type")
		}
	}
	if !hasValued(seq) {
		return e.zero()
	}
	if seq[len(seq)-1].isOperand() {
		seq = seq[:len(seq)-1]
	}
	e.vals = append(make([]*big.Float, 0, 4), e.zero())
	e.ops = append(make([]string, 0, 4), "+")
	e.op = "+"
	for _, t := range seq {
		e.step(t)
	}
	if len(e.vals) == 0 {
		return e.zero()
	}
	return e.vals[0]
}

// step applies one tag to the stacks.
func (e *evaluator) step(t Tag) {
	switch {
	case t.isOperand():
		e.op = t.Text
	case t.isOpen():
		e.push(e.zero())
		e.ops = append(e.ops, e.op)
		e.op = "+"
	case t.isClose():
		if len(e.vals) < 2 || len(e.ops) < 2 {
			// Unmatched close bracket. Nothing to fold.
			return
		}
		inner := e.pop()
		op := e.ops[len(e.ops)-1]
		e.ops = e.ops[:len(e.ops)-1]
		outer := e.pop()
		e.push(e.combine(outer, inner, op))
	case t.Kind.Valued():
		top := e.pop()
		e.push(e.combine(top, t.Value, e.op))
	default:
		// Brackets other than ( and ), and tags with no kind, contribute
		// nothing.
	}
}

func (e *evaluator) zero() *big.Float {
	return new(big.Float).SetPrec(e.prec)
}

func (e *evaluator) push(v *big.Float) {
	e.vals = append(e.vals, v)
}

func (e *evaluator) pop() *big.Float {
	r := e.vals[len(e.vals)-1]
	e.vals = e.vals[:len(e.vals)-1]
	return r
}

// combine computes a op b into a new value. A nil operand makes the result
// nil, except that an unknown operator yields b regardless of a. Operations
// with no defined result, like inf-inf or 0*inf, are also nil.
func (e *evaluator) combine(a, b *big.Float, op string) (r *big.Float) {
	switch op {
	case "+", "-", "*", "/": // handled below
	default:
		if b == nil {
			return nil
		}
		return e.zero().Set(b)
	}
	if a == nil || b == nil {
		return nil
	}
	defer undefinedOnNaN(&r)
	r = e.zero()
	switch op {
	case "+":
		r.Add(a, b)
	case "-":
		r.Sub(a, b)
	case "*":
		r.Mul(a, b)
	case "/":
		// Division by zero leaves the dividend alone.
		if b.Sign() == 0 {
			return r.Set(a)
		}
		r.Quo(a, b)
	}
	return r
}

// undefinedOnNaN recovers a big.ErrNaN panic and sets *r to nil. Other
// panics continue.
func undefinedOnNaN(r **big.Float) {
	x := recover()
	if x == nil {
		return
	}
	if _, ok := x.(big.ErrNaN); !ok {
		panic(x)
	}
	*r = nil
}

// Combine applies a single operator: a+b, a-b, a*b, or a/b. Dividing by zero
// returns a. Any other operator returns b. For the four arithmetic operators,
// a nil operand gives a nil result, as does an operation with no defined
// result such as inf-inf.
func Combine(a, b *big.Float, op string) *big.Float {
	e := evaluator{prec: DefaultPrec}
	return e.combine(a, b, op)
}
