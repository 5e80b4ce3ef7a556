// Package aggregate provides the shared sink that collects translated titles
// from concurrently running sessions.
//
// Every mutation goes through Insert, which is internally synchronized.
// Close marks the end of all writers: once Close has returned, a Snapshot
// observes every Insert that returned before Close was called.
package aggregate

import (
	"errors"
	"sync"

	"github.com/entrhq/headlines/pkg/types"
)

var (
	// ErrClosed is returned by Insert after Close.
	ErrClosed = errors.New("aggregator closed")

	// ErrOpen is returned by Snapshot while writers may still be running.
	// The returned titles are then an incomplete view.
	ErrOpen = errors.New("aggregator still open")
)

// Aggregator is a mutex-guarded sequence of translated titles.
// The zero value is ready to use.
type Aggregator struct {
	mu      sync.Mutex
	entries []types.TranslatedTitle
	closed  bool
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Insert appends a title. Safe for concurrent use.
func (a *Aggregator) Insert(title types.TranslatedTitle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	a.entries = append(a.entries, title)
	return nil
}

// Close rejects further inserts. Safe to call multiple times.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Closed reports whether Close has been called.
func (a *Aggregator) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Len returns the number of titles inserted so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Snapshot returns a copy of the collected titles in insertion order.
// Insertion order reflects completion timing, not configuration order.
// Before Close it returns the partial copy and ErrOpen.
func (a *Aggregator) Snapshot() ([]types.TranslatedTitle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]types.TranslatedTitle, len(a.entries))
	copy(out, a.entries)
	if !a.closed {
		return out, ErrOpen
	}
	return out, nil
}

// BySession groups a snapshot by session name, keeping insertion order
// within each session.
func BySession(titles []types.TranslatedTitle) map[string][]types.TranslatedTitle {
	grouped := make(map[string][]types.TranslatedTitle)
	for _, t := range titles {
		grouped[t.Session] = append(grouped[t.Session], t)
	}
	return grouped
}
