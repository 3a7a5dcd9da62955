package suggest

import (
	"context"
	"sync"

	"github.com/denysmiand/formula"
)

// Tracker runs lookups for an editor's live search text. Queries are looked
// up in the background, and non-empty results are cached by term for display.
// Only the newest query's results are current, so a slow answer to an old
// query never replaces a newer one.
//
// Tracker implements formula.Querier.
type Tracker struct {
	l      Lookuper
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	notify func(term string)

	mu      sync.Mutex
	latest  string
	cache   map[string][]formula.Suggestion
	pending map[string]bool
}

var _ formula.Querier = (*Tracker)(nil)

// NewTracker creates a tracker that looks up with l. If notify is not nil,
// it is called from the lookup's goroutine whenever results for the newest
// query arrive.
func NewTracker(l Lookuper, notify func(term string)) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		l:       l,
		ctx:     ctx,
		cancel:  cancel,
		notify:  notify,
		cache:   make(map[string][]formula.Suggestion),
		pending: make(map[string]bool),
	}
}

// Query makes term the current query and looks it up if it is not already
// known. An empty term clears the current suggestions. Query does not block.
func (t *Tracker) Query(term string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = term
	if term == "" || t.pending[term] || t.ctx.Err() != nil {
		return
	}
	if _, ok := t.cache[term]; ok {
		return
	}
	t.pending[term] = true
	t.wg.Add(1)
	go t.lookup(term)
}

func (t *Tracker) lookup(term string) {
	defer t.wg.Done()
	r := t.l.Lookup(t.ctx, term)
	t.mu.Lock()
	delete(t.pending, term)
	if len(r) > 0 {
		// Empty answers are not remembered so that the term is retried.
		t.cache[term] = r
	}
	current := term == t.latest
	t.mu.Unlock()
	if current && t.notify != nil {
		t.notify(term)
	}
}

// Current returns the current query and whatever results are known for it.
func (t *Tracker) Current() (string, []formula.Suggestion) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.cache[t.latest]
}

// Pending returns whether the current query is still being looked up.
func (t *Tracker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[t.latest]
}

// Close cancels outstanding lookups and waits for them to finish. Queries
// after Close are remembered but never looked up.
func (t *Tracker) Close() {
	// Query checks the context and adds to wg under mu.
	t.mu.Lock()
	t.cancel()
	t.mu.Unlock()
	t.wg.Wait()
}
