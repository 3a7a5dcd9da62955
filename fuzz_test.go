package formula_test

import (
	"strings"
	"testing"

	"github.com/denysmiand/formula"
)

func FuzzValueOf(f *testing.F) {
	f.Add("1")
	f.Add("2 × (3 + 4)")
	f.Add("1.2.3")
	f.Add("((")
	f.Fuzz(func(t *testing.T, s string) {
		formula.ValueOf(s)
	})
}

// FuzzEditor types the input one rune at a time. Newline commits the buffer
// and DEL deletes backward.
func FuzzEditor(f *testing.F) {
	f.Add("-5\n+(2*3\n)")
	f.Add("**2\n/0\n-")
	f.Add("(()\n)\x7f\x7f1\n")
	f.Add("pi\n2^8\n")
	f.Add("10^9999999999\n*0\n")
	f.Fuzz(func(t *testing.T, s string) {
		ed := formula.NewEditor(nil)
		for _, r := range s {
			switch r {
			case '\n':
				ed.Accept()
			case '\x7f':
				ed.Backspace()
			default:
				ed.Change(ed.Snapshot().Buffer + string(r))
			}
		}
		tags := ed.Snapshot().Tags
		for i, tag := range tags {
			if !tag.Kind.Valued() && tag.Kind != formula.Operand && tag.Kind != formula.Parenthesis {
				t.Fatalf("tag %d has kind %v", i, tag.Kind)
			}
			if tag.Kind != formula.Operand {
				continue
			}
			if i > 0 && tags[i-1].Kind == formula.Operand {
				t.Fatalf("adjacent operators in %q", formula.Format(tags))
			}
			if i == 0 && tag.Text != "-" {
				t.Fatalf("formula %q starts with %s", formula.Format(tags), tag.Text)
			}
			if !strings.Contains(formula.Operators, tag.Text) {
				t.Fatalf("operator tag %q", tag.Text)
			}
		}
		formula.Evaluate(tags)
	})
}
