package formula

import (
	"math/big"
	"sync"

	"go.uber.org/zap"
)

// Editor connects user input to a Store. It classifies each event, applies
// the resulting command, and forwards live search text to a Querier.
type Editor struct {
	mu    sync.Mutex
	store *Store
	q     Querier
	log   *zap.Logger
	eval  []EvalOption
}

// EditorOption is an option used when creating an editor.
type EditorOption interface {
	editorOption()
}

type (
	querieropt struct{ q Querier }
	loggeropt  struct{ log *zap.Logger }
	evalopt    []EvalOption
)

func (querieropt) editorOption() {}
func (loggeropt) editorOption()  {}
func (evalopt) editorOption()    {}

// WithQuerier sets the destination of live search text.
func WithQuerier(q Querier) EditorOption {
	return querieropt{q}
}

// WithLogger sets the logger for classification decisions.
func WithLogger(log *zap.Logger) EditorOption {
	return loggeropt{log}
}

// WithEval sets the options the editor evaluates its formula with.
func WithEval(opts ...EvalOption) EditorOption {
	return evalopt(opts)
}

// NewEditor creates an editor over a store. If store is nil, the editor uses
// a new empty store.
func NewEditor(store *Store, opts ...EditorOption) *Editor {
	if store == nil {
		store = NewStore()
	}
	e := Editor{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		switch opt := opt.(type) {
		case querieropt:
			e.q = opt.q
		case loggeropt:
			if opt.log != nil {
				e.log = opt.log
			}
		case evalopt:
			e.eval = append(e.eval, opt...)
		case nil: // do nothing
		default:
			panic("formula: unknown option type")
		}
	}
	return &e
}

// Store returns the editor's store.
func (e *Editor) Store() *Store {
	return e.store
}

// Handle classifies an event and applies the decision.
func (e *Editor) Handle(ev Event) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := Classify(e.store.Snapshot(), ev)
	if d.Forward && e.q != nil {
		e.q.Query(d.Query)
	}
	snap := e.store.Mutate(d.Command)
	e.log.Debug("classified input",
		zap.String("rule", d.Rule),
		zap.Bool("forward", d.Forward),
		zap.Int("tags", len(snap.Tags)),
		zap.Uint64("version", snap.Version),
	)
	return snap
}

// Change handles an edit of the raw input.
func (e *Editor) Change(text string) Snapshot {
	return e.Handle(Change{Text: text})
}

// Accept handles the commit key.
func (e *Editor) Accept() Snapshot {
	return e.Handle(Accept{})
}

// Backspace handles the delete-backward key.
func (e *Editor) Backspace() Snapshot {
	return e.Handle(Backspace{})
}

// AcceptSuggestion adds a suggestion to the formula.
func (e *Editor) AcceptSuggestion(s Suggestion) Snapshot {
	return e.Handle(Pick{Suggestion: s})
}

// Multiply applies a multiplier overlay to a tag.
func (e *Editor) Multiply(id string, m int64) Snapshot {
	return e.mutate(Multiply{ID: id, Factor: m})
}

// Remove deletes a tag.
func (e *Editor) Remove(id string) Snapshot {
	return e.mutate(Remove{ID: id})
}

// Clear deletes the whole formula and any pending input.
func (e *Editor) Clear() Snapshot {
	if e.q != nil {
		e.q.Query("")
	}
	return e.mutate(Clear{})
}

func (e *Editor) mutate(cmd Command) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Mutate(cmd)
}

// Snapshot returns the current state of the formula.
func (e *Editor) Snapshot() Snapshot {
	return e.store.Snapshot()
}

// Result evaluates the current formula.
func (e *Editor) Result() *big.Float {
	return Evaluate(e.store.Snapshot().Tags, e.eval...)
}
