package formula

import (
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is an immutable view of a store. Callers must not modify Tags.
type Snapshot struct {
	// Tags is the formula in order.
	Tags []Tag
	// Buffer is the raw text that has not yet become a tag.
	Buffer string
	// Version increases with every mutation that changes the store.
	Version uint64
}

// Result evaluates the snapshot's tags.
func (s Snapshot) Result(opts ...EvalOption) *big.Float {
	return Evaluate(s.Tags, opts...)
}

// Last returns the last tag of the snapshot, or false if there are none.
func (s Snapshot) Last() (Tag, bool) {
	if len(s.Tags) == 0 {
		return Tag{}, false
	}
	return s.Tags[len(s.Tags)-1], true
}

// Command is a store mutation.
type Command interface {
	// apply computes the next state from the current one. ok is false if the
	// command does not change anything.
	apply(s *state) (ok bool)
}

// state is the mutable scratch space a command works in. Commands build a
// new tag slice rather than writing through the current one.
type state struct {
	tags   []Tag
	buffer string
}

type (
	// Append adds a tag to the end of the formula. If the tag has no ID, the
	// store assigns one. Appending an operator after an operator replaces
	// the last tag. Appends that break the formula's grammar, or that reuse
	// an ID already in the store, do nothing.
	Append struct{ Tag Tag }
	// Remove deletes the tag with the given ID.
	Remove struct{ ID string }
	// RemoveLast deletes the last tag.
	RemoveLast struct{}
	// Clear deletes every tag and empties the buffer.
	Clear struct{}
	// Multiply applies a multiplier overlay to the tag with the given ID.
	Multiply struct {
		ID     string
		Factor int64
	}
	// SetBuffer replaces the raw input buffer.
	SetBuffer struct{ Text string }
	// Batch applies commands in order as a single mutation.
	Batch []Command
)

func (c Append) apply(s *state) bool {
	t := c.Tag
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if index(s.tags, t.ID) >= 0 {
		return false
	}
	switch {
	case t.Kind == KindNone:
		return false
	case t.isOperand():
		if len(s.tags) > 0 && s.tags[len(s.tags)-1].isOperand() {
			// Adjacent operators collapse to the newest.
			if !canOperate(s.tags[:len(s.tags)-1], t.Text) {
				return false
			}
			s.tags = append(clone(s.tags[:len(s.tags)-1]), t)
			return true
		}
		if !canOperate(s.tags, t.Text) {
			return false
		}
	case t.isOpen():
		if !canOpen(s.tags) {
			return false
		}
	case t.isClose():
		if !canClose(s.tags) {
			return false
		}
	case t.Kind == Parenthesis:
		return false
	}
	s.tags = append(clone(s.tags), t)
	return true
}

func (c Remove) apply(s *state) bool {
	k := index(s.tags, c.ID)
	if k < 0 {
		return false
	}
	tags := make([]Tag, 0, len(s.tags)-1)
	tags = append(tags, s.tags[:k]...)
	s.tags = append(tags, s.tags[k+1:]...)
	return true
}

func (RemoveLast) apply(s *state) bool {
	if len(s.tags) == 0 {
		return false
	}
	s.tags = clone(s.tags[:len(s.tags)-1])
	return true
}

func (Clear) apply(s *state) bool {
	if len(s.tags) == 0 && s.buffer == "" {
		return false
	}
	s.tags = nil
	s.buffer = ""
	return true
}

func (c Multiply) apply(s *state) bool {
	k := index(s.tags, c.ID)
	if k < 0 || !s.tags[k].Kind.Valued() {
		return false
	}
	s.tags = clone(s.tags)
	s.tags[k] = Overlay(s.tags[k], c.Factor)
	return true
}

func (c SetBuffer) apply(s *state) bool {
	if s.buffer == c.Text {
		return false
	}
	s.buffer = c.Text
	return true
}

func (c Batch) apply(s *state) bool {
	changed := false
	for _, cmd := range c {
		if cmd == nil {
			continue
		}
		if cmd.apply(s) {
			changed = true
		}
	}
	return changed
}

func index(tags []Tag, id string) int {
	for i, t := range tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func clone(tags []Tag) []Tag {
	r := make([]Tag, len(tags), len(tags)+1)
	copy(r, tags)
	return r
}

// Store holds the formula of one editing session. Every mutation produces a
// new Snapshot, and listeners are told about it synchronously. A Store is
// safe for concurrent use, but listeners must not mutate the store that
// calls them. The zero value is an empty store.
type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	subs   map[uint64]func(Snapshot)
	nextID uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[uint64]func(Snapshot))}
}

// Snapshot returns the current state of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Mutate applies a command and returns the resulting snapshot. Commands that
// change nothing leave the version alone and notify no one.
func (s *Store) Mutate(cmd Command) Snapshot {
	s.mu.Lock()
	st := state{tags: s.snap.Tags, buffer: s.snap.Buffer}
	if cmd == nil || !cmd.apply(&st) {
		snap := s.snap
		s.mu.Unlock()
		return snap
	}
	s.snap = Snapshot{Tags: st.tags, Buffer: st.buffer, Version: s.snap.Version + 1}
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()
	for _, f := range subs {
		f(snap)
	}
	return snap
}

// Subscribe registers a listener for new snapshots. The returned function
// removes the listener.
func (s *Store) Subscribe(f func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[uint64]func(Snapshot))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = f
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
