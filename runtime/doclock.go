package runtime

import "sync"

// docMutex serializes operations per document. Two concurrent acquires
// for the same field, or two concurrent proposals against the same
// version, must not both observe the pre-mutation state; operations on
// different documents proceed in parallel.
//
// Entries are reference counted and removed once idle, so the map does
// not grow with every document ever touched.
type docMutex struct {
	mu      sync.Mutex
	entries map[string]*docMutexEntry
}

type docMutexEntry struct {
	mu   sync.Mutex
	refs int
}

func newDocMutex() *docMutex {
	return &docMutex{entries: make(map[string]*docMutexEntry)}
}

// Lock acquires the document's mutex and returns its unlock function.
func (d *docMutex) Lock(documentID string) (unlock func()) {
	d.mu.Lock()
	entry, ok := d.entries[documentID]
	if !ok {
		entry = &docMutexEntry{}
		d.entries[documentID] = entry
	}
	entry.refs++
	d.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		d.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(d.entries, documentID)
		}
		d.mu.Unlock()
	}
}
