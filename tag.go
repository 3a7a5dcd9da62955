package formula

import (
	"math/big"
	"strconv"
	"strings"
)

// Kind is the type of a tag.
type Kind int8

const (
	KindNone Kind = iota
	// Operand is one of the operators + - * /.
	Operand
	// Number is a literal typed by the user.
	Number
	// Function is an accepted suggestion in the function category.
	Function
	// Variable is an accepted suggestion in any other category.
	Variable
	// Parenthesis is ( or ).
	Parenthesis
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case Operand:
		return "Operand"
	case Number:
		return "Number"
	case Function:
		return "Function"
	case Variable:
		return "Variable"
	case Parenthesis:
		return "Parenthesis"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Valued returns whether tags of the kind contribute a value to a formula.
func (k Kind) Valued() bool {
	return k == Number || k == Function || k == Variable
}

// Operators contains the operators a tag may hold.
const Operators = "+-*/"

const (
	openParen  = "("
	closeParen = ")"
)

// Tag is a single token of a formula. Tags are values; the Store never hands
// out a tag that it will modify later, and Value and Base must not be
// modified in place.
type Tag struct {
	// ID identifies the tag within its store. It is never reused.
	ID string
	// Text is the display text of the tag.
	Text string
	// Kind is the type of the tag.
	Kind Kind
	// Value is the contribution of the tag to the formula. It is nil for
	// operands and parentheses, and for suggestions whose value could not be
	// understood.
	Value *big.Float
	// Base is the value a multiplier applies to. Number tags never carry a
	// base; theirs is always read from Text.
	Base *big.Float
}

// NewOperand creates an operator tag. op should be one of Operators.
func NewOperand(op string) Tag {
	return Tag{Text: op, Kind: Operand}
}

// NewParen creates a parenthesis tag.
func NewParen(p string) Tag {
	return Tag{Text: p, Kind: Parenthesis}
}

// NewNumber creates a number tag from its literal text. The value is the
// reading of the text; see Reading.
func NewNumber(text string) Tag {
	return Tag{Text: text, Kind: Number, Value: Reading(text)}
}

// NewSuggested creates a tag for an accepted suggestion.
func NewSuggested(s Suggestion) Tag {
	kind := Variable
	if s.Category == CategoryFunction {
		kind = Function
	}
	v := ValueOf(string(s.Value))
	return Tag{Text: s.Name, Kind: kind, Value: v, Base: v}
}

func (t Tag) isOperand() bool {
	return t.Kind == Operand
}

func (t Tag) isOpen() bool {
	return t.Kind == Parenthesis && t.Text == openParen
}

func (t Tag) isClose() bool {
	return t.Kind == Parenthesis && t.Text == closeParen
}

func (t Tag) String() string {
	if t.Value == nil || t.Kind == Number {
		return t.Kind.String() + ":" + t.Text
	}
	return t.Kind.String() + ":" + t.Text + "=" + t.Value.Text('g', 10)
}

// hasValued returns whether any tag in seq is value-bearing.
func hasValued(seq []Tag) bool {
	for _, t := range seq {
		if t.Kind.Valued() {
			return true
		}
	}
	return false
}

// loneMinus reports whether seq is exactly the pending leading minus.
func loneMinus(seq []Tag) bool {
	return len(seq) == 1 && seq[0].isOperand() && seq[0].Text == "-"
}

// canOpen reports whether ( may follow seq.
func canOpen(seq []Tag) bool {
	return len(seq) == 0 || seq[len(seq)-1].isOperand()
}

// canClose reports whether ) may follow seq.
func canClose(seq []Tag) bool {
	return len(seq) > 0 && !seq[len(seq)-1].isOperand()
}

// canOperate reports whether the operator op may follow seq.
func canOperate(seq []Tag, op string) bool {
	if len(seq) == 0 {
		return op == "-"
	}
	return hasValued(seq)
}

// Format renders a sequence as space-separated text.
func Format(seq []Tag) string {
	var b strings.Builder
	for i, t := range seq {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// FormatValue renders a result. Undefined results render as "undefined".
func FormatValue(v *big.Float) string {
	if v == nil {
		return "undefined"
	}
	return v.Text('g', 10)
}
