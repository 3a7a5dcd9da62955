package formula

import (
	"bytes"
	"encoding/json"
	"math/big"
	"regexp"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// CategoryFunction is the suggestion category that produces Function tags.
const CategoryFunction = "function"

// Suggestion is an entry offered by a suggestion lookup.
type Suggestion struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Value    Literal `json:"value"`
}

// Literal is the value of a suggestion. In JSON it may be a number or a
// string.
type Literal string

// UnmarshalJSON accepts a JSON number or string. null leaves the literal
// empty.
func (l *Literal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*l = Literal(n)
		return nil
	}
}

// Querier receives the live search text of an editor. Query must not block;
// results are the querier's own concern.
type Querier interface {
	Query(term string)
}

var (
	digitsRE = regexp.MustCompile(`^[0-9]+$`)
	powerRE  = regexp.MustCompile(`^([0-9]+)\^([0-9]+)$`)
	// arithRE matches text the restricted interpreter handles.
	arithRE = regexp.MustCompile(`^[0-9.\s+\-*/()]*[0-9][0-9.\s+\-*/()]*$`)
)

var altops = strings.NewReplacer("×", "*", "x", "*", "X", "*", "÷", "/")

// ValueOf computes the numeric contribution of a suggestion value. Text made
// only of digits, points, spaces, operators, and brackets is evaluated as a
// formula with the same left-to-right rules as Evaluate; ×, x, and ÷ are
// read as * and /. Other text is read as a plain number. If neither works,
// the result is nil.
func ValueOf(text string) *big.Float {
	if s := altops.Replace(text); arithRE.MatchString(s) {
		seq, err := tokens(s)
		if err == nil {
			return Evaluate(seq)
		}
	}
	return plain(text)
}

// Reading is the numeric reading of a Number tag's text: a decimal number, or
// base^exponent with both parts digits. The result is nil if the text is
// neither or if the value overflows.
func Reading(text string) *big.Float {
	if m := powerRE.FindStringSubmatch(text); m != nil {
		return power(m[1], m[2])
	}
	return plain(text)
}

func plain(text string) *big.Float {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	r, _, err := new(big.Float).SetPrec(DefaultPrec).Parse(s, 10)
	if err != nil || r.IsInf() {
		// Parse reads "inf" and friends, which are not numbers here.
		return nil
	}
	return r
}

func power(base, exp string) *big.Float {
	b := plain(base)
	e := plain(exp)
	if b == nil || e == nil {
		return nil
	}
	if b.Sign() == 0 {
		if e.Sign() == 0 {
			return new(big.Float).SetPrec(DefaultPrec).SetInt64(1)
		}
		return new(big.Float).SetPrec(DefaultPrec)
	}
	r := bigfloat.Pow(new(big.Float).SetPrec(DefaultPrec), b, e)
	if r.IsInf() {
		return nil
	}
	return r
}

// tokens converts restricted arithmetic text to a tag sequence.
func tokens(s string) ([]Tag, error) {
	scan := lex(strings.NewReader(s))
	var seq []Tag
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenEOF:
			return seq, nil
		case tokenNum:
			seq = append(seq, Tag{Text: tok.text, Kind: Number, Value: plain(tok.text)})
		case tokenOp:
			seq = append(seq, NewOperand(tok.text))
		case tokenOpen, tokenClose:
			seq = append(seq, NewParen(tok.text))
		default:
			panic("formula: unknown token: " + tok.String())
		}
	}
}

// isDigits reports whether s is one or more ASCII digits.
func isDigits(s string) bool {
	return digitsRE.MatchString(s)
}

// isPower reports whether s is digits^digits.
func isPower(s string) bool {
	return powerRE.MatchString(s)
}
