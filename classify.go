package formula

import (
	"strings"
)

// Event is something the user did to the input.
type Event interface {
	event()
}

type (
	// Change is an edit of the raw input. Text is the whole new buffer.
	Change struct{ Text string }
	// Accept is the key that commits the buffer.
	Accept struct{}
	// Backspace is the delete-backward key.
	Backspace struct{}
	// Pick is the acceptance of a suggestion.
	Pick struct{ Suggestion Suggestion }
)

func (Change) event()    {}
func (Accept) event()    {}
func (Backspace) event() {}
func (Pick) event()      {}

// Decision is the outcome of classifying an event.
type Decision struct {
	// Rule names the rule that matched.
	Rule string
	// Command is the store mutation to perform. It is nil if there is none.
	Command Command
	// Forward indicates that Query should be sent to the suggestion lookup.
	// An empty query clears any pending suggestions.
	Forward bool
	Query   string
}

// rule is a row in a decision table. The first row whose match returns true
// decides the event.
type rule struct {
	name  string
	match func(seq []Tag, text string) bool
	act   func(seq []Tag, text string) Decision
}

// changeRules decides raw input edits.
var changeRules = []rule{
	{"collapse-minus", isCollapse, collapse},
	{"operand", isOperator, operand},
	{"paren", isParen, paren},
	{"query", always, query},
}

// acceptRules decides commits of the buffer.
var acceptRules = []rule{
	{"empty", isEmpty, nothing},
	{"collapse-minus", isCollapse, collapse},
	{"power", func(_ []Tag, text string) bool { return isPower(text) }, number},
	{"number", func(_ []Tag, text string) bool { return isDigits(text) }, number},
	{"free-text", always, nothing},
}

// Classify decides what an event means for a formula in the state snap.
// Classify does not modify anything; apply the decision's command to the
// store and forward its query to do that.
func Classify(snap Snapshot, ev Event) Decision {
	switch ev := ev.(type) {
	case Change:
		return decide(changeRules, snap.Tags, ev.Text)
	case Accept:
		return decide(acceptRules, snap.Tags, snap.Buffer)
	case Backspace:
		if snap.Buffer != "" || len(snap.Tags) == 0 {
			// Deleting typed text is the input's business.
			return Decision{Rule: "backspace-text"}
		}
		return Decision{Rule: "backspace-tag", Command: RemoveLast{}}
	case Pick:
		return Decision{
			Rule:    "suggestion",
			Command: Batch{Append{NewSuggested(ev.Suggestion)}, SetBuffer{}},
			Forward: true,
		}
	default:
		panic("formula: unknown event type")
	}
}

func decide(rules []rule, seq []Tag, text string) Decision {
	for _, r := range rules {
		if r.match(seq, text) {
			d := r.act(seq, text)
			d.Rule = r.name
			return d
		}
	}
	panic("formula: no rule matched " + text)
}

func always(seq []Tag, text string) bool { return true }

func isEmpty(seq []Tag, text string) bool { return text == "" }

func isCollapse(seq []Tag, text string) bool {
	return loneMinus(seq) && isDigits(text)
}

func isOperator(seq []Tag, text string) bool {
	return len(text) == 1 && strings.Contains(Operators, text)
}

func isParen(seq []Tag, text string) bool {
	return text == openParen || text == closeParen
}

func nothing(seq []Tag, text string) Decision {
	return Decision{}
}

// collapse turns the pending leading minus and the digits after it into one
// negative number.
func collapse(seq []Tag, text string) Decision {
	return Decision{Command: Batch{
		Remove{seq[0].ID},
		Append{NewNumber("-" + text)},
		SetBuffer{},
	}}
}

func operand(seq []Tag, text string) Decision {
	if !canOperate(seq, text) {
		// Discard the keystroke entirely.
		return Decision{Command: SetBuffer{}}
	}
	return Decision{Command: Batch{Append{NewOperand(text)}, SetBuffer{}}}
}

func paren(seq []Tag, text string) Decision {
	ok := canClose(seq)
	if text == openParen {
		ok = canOpen(seq)
	}
	if !ok {
		return Decision{Command: SetBuffer{}}
	}
	return Decision{Command: Batch{Append{NewParen(text)}, SetBuffer{}}}
}

func query(seq []Tag, text string) Decision {
	return Decision{Command: SetBuffer{text}, Forward: true, Query: text}
}

func number(seq []Tag, text string) Decision {
	return Decision{Command: Batch{Append{NewNumber(text)}, SetBuffer{}}}
}
