// Package runtime coordinates live collaboration state: who is connected
// to which document, who holds which field lock, and how mutations and
// events are serialized and fanned out. It contains no transport logic.
package runtime

import (
	"sync"

	"collab-hub/contract"
	"collab-hub/domain"
)

type Set map[string]struct{}

// Registry is the source of truth for presence. It tracks each
// connection's sink, the member set of every live session, and the
// reverse index of documents a connection has joined (used by cleanup).
//
// A session entry exists only while its member set is non-empty.
type Registry struct {
	mu       sync.RWMutex
	sinks    map[string]contract.EventSink            // connID -> sink
	members  map[string]map[string]domain.Participant // docID -> connID -> participant
	connDocs map[string]Set                           // connID -> joined docIDs
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:    make(map[string]contract.EventSink),
		members:  make(map[string]map[string]domain.Participant),
		connDocs: make(map[string]Set),
	}
}

// Register attaches a connection's sink. Must happen before the first
// Join so a joiner can receive its snapshot.
func (r *Registry) Register(connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[connID] = sink
}

// Unregister drops the sink and the reverse index entry. Safe to call
// twice: the second call finds nothing.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, connID)
	delete(r.connDocs, connID)
}

// Join inserts the participant into the document's session. Repeat joins
// from the same connection are idempotent; the return value reports
// whether the participant was already a member.
func (r *Registry) Join(documentID string, p domain.Participant) (already bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[documentID]; !ok {
		r.members[documentID] = make(map[string]domain.Participant)
	}
	_, already = r.members[documentID][p.ConnID]
	r.members[documentID][p.ConnID] = p

	if _, ok := r.connDocs[p.ConnID]; !ok {
		r.connDocs[p.ConnID] = make(Set)
	}
	r.connDocs[p.ConnID][documentID] = struct{}{}
	return already
}

// Leave removes the connection from the session and deletes the session
// entry when the member set becomes empty.
func (r *Registry) Leave(documentID, connID string) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.members[documentID]
	if !ok {
		return domain.Participant{}, false
	}
	p, wasMember := session[connID]
	if !wasMember {
		return domain.Participant{}, false
	}
	delete(session, connID)
	if len(session) == 0 {
		delete(r.members, documentID)
	}
	if docs, ok := r.connDocs[connID]; ok {
		delete(docs, documentID)
	}
	return p, true
}

// ParticipantsExcept returns the current member set minus one connection.
// With exclude == "" it returns the whole session.
func (r *Registry) ParticipantsExcept(documentID, exclude string) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session := r.members[documentID]
	out := make([]domain.Participant, 0, len(session))
	for connID, p := range session {
		if connID == exclude {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SinksExcept resolves the session's member set into live sinks,
// skipping one connection (usually the originator).
func (r *Registry) SinksExcept(documentID, exclude string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.members[documentID]
	if !ok {
		return nil
	}
	var out []contract.EventSink
	for connID := range session {
		if connID == exclude {
			continue
		}
		if sink, live := r.sinks[connID]; live {
			out = append(out, sink)
		}
	}
	return out
}

// SinkOf returns one connection's sink, if still registered.
func (r *Registry) SinkOf(connID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[connID]
	return sink, ok
}

// DocumentsOf snapshots the documents a connection has joined.
// Cleanup iterates over this copy while mutating the registry.
func (r *Registry) DocumentsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := r.connDocs[connID]
	out := make([]string, 0, len(docs))
	for id := range docs {
		out = append(out, id)
	}
	return out
}

// Counts reports live sessions and connected participants, for telemetry.
func (r *Registry) Counts() (sessions, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members), len(r.sinks)
}
