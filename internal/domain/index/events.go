package index

import (
	"sync"
	"time"

	"github.com/corey/gbsearch/internal/ports"
)

// Event actions published by the search engine.
const (
	// ActionSearchResults fires after every search, carrying the full result
	// list (possibly empty).
	ActionSearchResults = "search-results"

	// ActionMultipleResults fires after ActionSearchResults when a search found
	// more than one feature, so a UI can offer disambiguation instead of
	// navigating straight to the single hit.
	ActionMultipleResults = "multiple-results"

	// ActionNewDataset is the upstream notification that triggers re-indexing.
	ActionNewDataset = "new-dataset"
)

// Event is a notification with a source, an action name and optional data.
type Event struct {
	Source    any
	Action    string
	Features  []ports.Feature
	Dataset   *ports.Dataset
	Timestamp time.Time
}

// Listener receives events.
type Listener interface {
	ReceiveEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// ReceiveEvent calls f(e).
func (f ListenerFunc) ReceiveEvent(e Event) { f(e) }

type subscription struct {
	id uint64
	l  Listener
}

// EventSupport is a subscriber list with snapshot-on-iterate delivery:
// Fire walks the slice that was current when it started, so a listener may
// subscribe or unsubscribe (itself included) while being notified.
type EventSupport struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription // replaced, never mutated in place
}

// Subscribe registers l and returns a function that removes it. The returned
// function is idempotent.
func (s *EventSupport) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	next := make([]subscription, len(s.subs), len(s.subs)+1)
	copy(next, s.subs)
	s.subs = append(next, subscription{id: id, l: l})
	s.mu.Unlock()

	return func() { s.remove(id) }
}

func (s *EventSupport) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.id != id {
			next = append(next, sub)
		}
	}
	s.subs = next
}

// Len is the number of current subscribers.
func (s *EventSupport) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Fire delivers e to every subscriber, synchronously and in subscription order.
func (s *EventSupport) Fire(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.mu.Lock()
	snapshot := s.subs
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.l.ReceiveEvent(e)
	}
}
