package runtime

import (
	"sync"
	"time"

	"collab-hub/domain"
	"collab-hub/errors"
)

// LockTable is the Field Lock Manager: at most one holder per
// (document, field) pair at any instant.
//
// Locks are advisory. Holding one does not gate document mutations; it
// only tells other clients' UIs to keep their hands off the field. There
// is no expiry either: a lock lives until its holder releases it or
// disconnects, and the connection read deadline bounds how long a hung
// holder can linger.
type LockTable struct {
	mu    sync.RWMutex
	locks map[string]map[string]domain.FieldLock // docID -> fieldID -> lock
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]map[string]domain.FieldLock)}
}

// Acquire claims the field for p. On success the new lock is returned.
// If any holder already exists (including p itself), the claim is denied
// with a *errors.LockConflictError naming the current holder.
func (t *LockTable) Acquire(documentID, fieldID string, p domain.Participant) (domain.FieldLock, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.locks[documentID]; !ok {
		t.locks[documentID] = make(map[string]domain.FieldLock)
	}
	if current, held := t.locks[documentID][fieldID]; held {
		return domain.FieldLock{}, &errors.LockConflictError{FieldID: fieldID, Holder: current.Holder}
	}
	lock := domain.FieldLock{
		DocumentID: documentID,
		FieldID:    fieldID,
		Holder:     p,
		AcquiredAt: time.Now().UTC(),
	}
	t.locks[documentID][fieldID] = lock
	return lock, nil
}

// Release removes the lock only if connID is the current holder.
// Releasing a lock held by someone else (or no one) is a no-op, never an
// error; the return value reports whether an entry was actually removed.
func (t *LockTable) Release(documentID, fieldID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields, ok := t.locks[documentID]
	if !ok {
		return false
	}
	lock, held := fields[fieldID]
	if !held || lock.Holder.ConnID != connID {
		return false
	}
	delete(fields, fieldID)
	if len(fields) == 0 {
		delete(t.locks, documentID)
	}
	return true
}

// ReleaseAllFor removes every lock the connection holds on the document
// and returns the released field ids. Used by disconnect cleanup.
func (t *LockTable) ReleaseAllFor(documentID, connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields, ok := t.locks[documentID]
	if !ok {
		return nil
	}
	var released []string
	for fieldID, lock := range fields {
		if lock.Holder.ConnID == connID {
			delete(fields, fieldID)
			released = append(released, fieldID)
		}
	}
	if len(fields) == 0 {
		delete(t.locks, documentID)
	}
	return released
}

// DocumentsHeldBy returns the documents on which the connection still
// holds at least one lock. Locks outlive session membership (an explicit
// leave keeps them), so disconnect cleanup sweeps this set as well as
// the joined documents.
func (t *LockTable) DocumentsHeldBy(connID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []string
	for documentID, fields := range t.locks {
		for _, lock := range fields {
			if lock.Holder.ConnID == connID {
				out = append(out, documentID)
				break
			}
		}
	}
	return out
}

// LocksFor snapshots the document's current locks, for join snapshots.
func (t *LockTable) LocksFor(documentID string) []domain.FieldLock {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fields := t.locks[documentID]
	out := make([]domain.FieldLock, 0, len(fields))
	for _, lock := range fields {
		out = append(out, lock)
	}
	return out
}

// Count reports the total number of held locks, for telemetry.
func (t *LockTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, fields := range t.locks {
		n += len(fields)
	}
	return n
}
