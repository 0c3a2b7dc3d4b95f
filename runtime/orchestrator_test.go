package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"collab-hub/domain"
	"collab-hub/domain/event"
	"collab-hub/errors"
	"collab-hub/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every delivered event, in order.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Name())
	}
	return out
}

func (s *recordingSink) byName(name string) []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.DomainEvent
	for _, e := range s.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeDocumentStore struct {
	mu   sync.Mutex
	docs map[string]domain.Document
}

func newFakeDocumentStore(docs ...domain.Document) *fakeDocumentStore {
	store := &fakeDocumentStore{docs: make(map[string]domain.Document)}
	for _, doc := range docs {
		store.docs[doc.ID] = doc
	}
	return store
}

func (s *fakeDocumentStore) Load(_ context.Context, documentID string) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok {
		return domain.Document{}, errors.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *fakeDocumentStore) Save(_ context.Context, documentID string, updates domain.Updates,
	expectedVersion int64, modifiedBy string) (domain.Document, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok {
		return domain.Document{}, errors.ErrDocumentNotFound
	}
	if doc.Version != expectedVersion {
		return domain.Document{}, &errors.VersionConflictError{Authoritative: doc.Version, Document: doc}
	}
	doc.Apply(updates)
	doc.Version++
	doc.LastModified = time.Now().UTC()
	doc.LastModifiedBy = modifiedBy
	s.docs[documentID] = doc
	return doc, nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[string]domain.Comment // docID:commentID -> comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]domain.Comment)}
}

func (s *fakeCommentStore) Append(comment domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.DocumentID+":"+comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) Get(documentID, commentID string) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[documentID+":"+commentID]
	if !ok {
		return domain.Comment{}, errors.ErrCommentNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) Resolve(documentID, commentID, resolverID string) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[documentID+":"+commentID]
	if !ok {
		return domain.Comment{}, errors.ErrCommentNotFound
	}
	comment.Resolved = true
	comment.ResolvedBy = resolverID
	comment.ResolvedAt = time.Now().UTC()
	s.comments[documentID+":"+commentID] = comment
	return comment, nil
}

func (s *fakeCommentStore) ListForField(documentID, fieldID string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Comment
	for _, c := range s.comments {
		if c.DocumentID == documentID && c.FieldID == fieldID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCommentIndex struct {
	mu      sync.Mutex
	indexed []domain.Comment
}

func (i *fakeCommentIndex) Index(comment domain.Comment) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexed = append(i.indexed, comment)
	return nil
}

func (i *fakeCommentIndex) Search(_ context.Context, documentID, terms, fieldID string, limit int) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var ids []string
	for _, c := range i.indexed {
		if c.DocumentID != documentID {
			continue
		}
		if fieldID != "" && c.FieldID != fieldID {
			continue
		}
		ids = append(ids, c.ID)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

type allowAll struct{}

func (allowAll) CanAccess(context.Context, domain.Participant, string) (bool, error) {
	return true, nil
}

type denyAll struct{}

func (denyAll) CanAccess(context.Context, domain.Participant, string) (bool, error) {
	return false, nil
}

type harness struct {
	orchestrator *Orchestrator
	registry     *Registry
	locks        *LockTable
	documents    *fakeDocumentStore
	comments     *fakeCommentStore
	index        *fakeCommentIndex
}

func newHarness(t *testing.T, docs ...domain.Document) *harness {
	t.Helper()
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	require.NoError(t, err)

	registry := NewRegistry()
	locks := NewLockTable()
	documents := newFakeDocumentStore(docs...)
	comments := newFakeCommentStore()
	index := &fakeCommentIndex{}
	broadcaster := NewBroadcaster(slog.Default(), registry, time.Second)
	orchestrator := NewOrchestrator(slog.Default(), registry, locks, broadcaster,
		documents, comments, index, allowAll{}, moderator, 2000)

	return &harness{
		orchestrator: orchestrator,
		registry:     registry,
		locks:        locks,
		documents:    documents,
		comments:     comments,
		index:        index,
	}
}

func participant(userID string) domain.Participant {
	return domain.Participant{UserID: userID, Name: userID, Role: domain.RoleEditor, ConnID: uuid.NewString()}
}

func (h *harness) connectAndJoin(t *testing.T, documentID string, p domain.Participant) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	h.orchestrator.Connect(p, sink)
	require.NoError(t, h.orchestrator.Join(context.Background(), documentID, p))
	return sink
}

func TestOrchestrator_First_Joiner_Gets_Empty_Snapshot(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")

	// When Alice joins an idle document
	sink := h.connectAndJoin(t, doc.ID, alice)

	// Then the snapshot arrives first and is empty, with no echo of her own join
	req.Equal([]string{"active-participants", "field-locks"}, sink.names())
	snapshot := sink.events[0].(event.ActiveParticipants)
	req.Empty(snapshot.Participants)
	locks := sink.events[1].(event.FieldLocks)
	req.Empty(locks.Locks)
}

func TestOrchestrator_Snapshot_Reflects_Existing_State(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	// Given Alice is in the session holding a lock
	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", alice)

	// When Bob joins
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	// Then his snapshot names Alice and her lock
	snapshot := bobSink.events[0].(event.ActiveParticipants)
	req.Equal([]domain.Participant{alice}, snapshot.Participants)
	locks := bobSink.events[1].(event.FieldLocks)
	req.Len(locks.Locks, 1)
	req.Equal("company_name", locks.Locks[0].FieldID)
	req.Equal(alice, locks.Locks[0].Holder)

	// And Alice sees Bob arrive
	joined := aliceSink.byName("user-joined")
	req.Len(joined, 1)
	req.Equal(bob, joined[0].(event.UserJoined).Participant)
}

func TestOrchestrator_Rejoin_Is_Not_Rebroadcast(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	h.connectAndJoin(t, doc.ID, bob)

	// When Bob joins again on the same connection
	req.NoError(h.orchestrator.Join(context.Background(), doc.ID, bob))

	// Then Alice hears about him exactly once
	req.Len(aliceSink.byName("user-joined"), 1)
}

func TestOrchestrator_Join_Denied_Without_Access(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	h.orchestrator.access = denyAll{}
	mallory := participant("mallory")

	sink := &recordingSink{}
	h.orchestrator.Connect(mallory, sink)

	// When a participant without access tries to join
	err := h.orchestrator.Join(context.Background(), doc.ID, mallory)

	// Then no session state is created and nothing is delivered
	req.ErrorIs(err, errors.ErrPermissionDenied)
	req.Empty(sink.names())
	req.Empty(h.registry.ParticipantsExcept(doc.ID, ""))
}

func TestOrchestrator_Lock_Denial_Names_Holder_And_Stays_Private(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	// Given Alice holds the field
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", alice)
	locked := bobSink.byName("field-locked")
	req.Len(locked, 1)
	req.Equal(alice, locked[0].(event.FieldLocked).Holder)

	// When Bob claims the same field
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", bob)

	// Then only Bob learns of the denial, and it names Alice
	denials := bobSink.byName("field-lock-denied")
	req.Len(denials, 1)
	req.Equal(alice, denials[0].(event.FieldLockDenied).Holder)
	req.Empty(aliceSink.byName("field-lock-denied"))

	// And the lock table still has a single holder
	req.Equal(1, h.locks.Count())
}

func TestOrchestrator_Release_By_Non_Holder_Is_Silent(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	h.connectAndJoin(t, doc.ID, bob)
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", alice)

	// When Bob releases a lock he does not hold
	h.orchestrator.ReleaseLock(ctx, doc.ID, "company_name", bob)

	// Then nothing happens: no broadcast, lock intact
	req.Empty(aliceSink.byName("field-unlocked"))
	req.Equal(1, h.locks.Count())

	// When Alice releases it herself
	h.orchestrator.ReleaseLock(ctx, doc.ID, "company_name", alice)
	req.Zero(h.locks.Count())
}

func TestOrchestrator_Leave_Is_Presence_Only(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	h.connectAndJoin(t, doc.ID, bob)
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", bob)

	// When Bob leaves explicitly
	h.orchestrator.Leave(ctx, doc.ID, bob)

	// Then Alice sees him go, but his lock survives until disconnect
	left := aliceSink.byName("user-left")
	req.Len(left, 1)
	req.Equal(bob, left[0].(event.UserLeft).Participant)
	req.Equal(1, h.locks.Count())
	req.Equal([]domain.Participant{alice}, h.registry.ParticipantsExcept(doc.ID, ""))

	// And a repeat leave broadcasts nothing
	h.orchestrator.Leave(ctx, doc.ID, bob)
	req.Len(aliceSink.byName("user-left"), 1)
}

func TestOrchestrator_Disconnect_Releases_Locks_And_Presence(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", alice)
	h.orchestrator.AcquireLock(ctx, doc.ID, "invoice_total", alice)

	// When Alice's connection drops
	h.orchestrator.Disconnect(ctx, alice.ConnID)

	// Then Bob sees both fields unlock and Alice leave
	req.Len(bobSink.byName("field-unlocked"), 2)
	left := bobSink.byName("user-left")
	req.Len(left, 1)
	req.Equal(alice, left[0].(event.UserLeft).Participant)

	// And shared state carries no trace of her
	req.Zero(h.locks.Count())
	req.Equal([]domain.Participant{bob}, h.registry.ParticipantsExcept(doc.ID, ""))

	// And a duplicate disconnect signal changes nothing
	before := len(bobSink.names())
	h.orchestrator.Disconnect(ctx, alice.ConnID)
	req.Len(bobSink.names(), before)
}

func TestOrchestrator_Disconnect_Releases_Locks_Held_After_Leave(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	h.connectAndJoin(t, doc.ID, bob)

	// Given Bob locks a field and then leaves the document explicitly
	h.orchestrator.AcquireLock(ctx, doc.ID, "company_name", bob)
	h.orchestrator.Leave(ctx, doc.ID, bob)
	req.Equal(1, h.locks.Count())

	// When his connection finally drops
	h.orchestrator.Disconnect(ctx, bob.ConnID)

	// Then the lock he kept across the leave is released and broadcast
	req.Zero(h.locks.Count())
	unlocked := aliceSink.byName("field-unlocked")
	req.Len(unlocked, 1)
	req.Equal("company_name", unlocked[0].(event.FieldUnlocked).FieldID)

	// And the leave was announced exactly once, with no disconnect echo
	req.Len(aliceSink.byName("user-left"), 1)

	// A fresh joiner's snapshot shows no phantom holder
	carol := participant("carol")
	carolSink := h.connectAndJoin(t, doc.ID, carol)
	req.Empty(carolSink.events[1].(event.FieldLocks).Locks)
}

func TestOrchestrator_Propose_Happy_Path(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 3}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	// When Alice proposes at the current version
	updates := domain.Updates{"company_name": "ACME"}
	req.NoError(h.orchestrator.Propose(ctx, doc.ID, updates, 3, alice))

	// Then Bob receives the delta at version 4
	updated := bobSink.byName("document-updated")
	req.Len(updated, 1)
	evt := updated[0].(event.DocumentUpdated)
	req.Equal(updates, evt.Updates)
	req.Equal(int64(4), evt.Version)
	req.Equal(alice, evt.ModifiedBy)

	// And Alice gets an acknowledgment instead of an echo
	req.Empty(aliceSink.byName("document-updated"))
	acks := aliceSink.byName("update-ack")
	req.Len(acks, 1)
	req.Equal(int64(4), acks[0].(event.UpdateAck).Version)

	saved, err := h.documents.Load(ctx, doc.ID)
	req.NoError(err)
	req.Equal(int64(4), saved.Version)
	req.Equal("ACME", saved.Fields["company_name"])
	req.Equal("alice", saved.LastModifiedBy)
}

func TestOrchestrator_Stale_Propose_Rejected_Without_Side_Effects(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 5, Fields: domain.Updates{"company_name": "ACME"}}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	// When Alice proposes with a stale version
	req.NoError(h.orchestrator.Propose(ctx, doc.ID, domain.Updates{"company_name": "Globex"}, 4, alice))

	// Then she alone receives the conflict, with the authoritative state attached
	conflicts := aliceSink.byName("version-conflict")
	req.Len(conflicts, 1)
	evt := conflicts[0].(event.VersionConflict)
	req.Equal(int64(5), evt.Version)
	req.Equal("ACME", evt.Document.Fields["company_name"])

	// And no peer ever hears about the rejected mutation
	req.Empty(bobSink.byName("document-updated"))
	req.Empty(bobSink.byName("version-conflict"))

	saved, err := h.documents.Load(ctx, doc.ID)
	req.NoError(err)
	req.Equal(int64(5), saved.Version)
	req.Equal("ACME", saved.Fields["company_name"])
}

func TestOrchestrator_Concurrent_Proposals_Exactly_One_Wins(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	ctx := context.Background()

	const writers = 8
	sinks := make([]*recordingSink, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		p := participant(uuid.NewString())
		sinks[i] = h.connectAndJoin(t, doc.ID, p)
		wg.Add(1)
		go func(i int, p domain.Participant) {
			defer wg.Done()
			// Everyone proposes against version 1 at the same time
			errs[i] = h.orchestrator.Propose(ctx, doc.ID, domain.Updates{"f": p.UserID}, 1, p)
		}(i, p)
	}
	wg.Wait()
	for _, err := range errs {
		req.NoError(err)
	}

	// Exactly one proposal was accepted, the rest got conflicts
	acks, conflicts := 0, 0
	for _, sink := range sinks {
		acks += len(sink.byName("update-ack"))
		conflicts += len(sink.byName("version-conflict"))
	}
	req.Equal(1, acks)
	req.Equal(writers-1, conflicts)

	saved, err := h.documents.Load(ctx, doc.ID)
	req.NoError(err)
	req.Equal(int64(2), saved.Version)
}

func TestOrchestrator_AddComment_Reaches_Everyone_Including_Author(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	// When Alice comments on a field
	req.NoError(h.orchestrator.AddComment(ctx, doc.ID, "company_name", "is this the badger branch?", "", alice))

	// Then both sessions receive the comment, censored
	for _, sink := range []*recordingSink{aliceSink, bobSink} {
		added := sink.byName("comment-added")
		req.Len(added, 1)
		comment := added[0].(event.CommentAdded).Comment
		req.Equal("is this the ****** branch?", comment.Text)
		req.Equal("alice", comment.AuthorID)
		req.Equal("company_name", comment.FieldID)
		req.NotEmpty(comment.ID)
	}

	// And the comment was persisted and indexed
	req.Len(h.index.indexed, 1)
	thread, err := h.comments.ListForField(doc.ID, "company_name")
	req.NoError(err)
	req.Len(thread, 1)
}

func TestOrchestrator_AddComment_Validation(t *testing.T) {
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	ctx := context.Background()
	h.connectAndJoin(t, doc.ID, alice)

	req := require.New(t)
	req.NoError(h.orchestrator.AddComment(ctx, doc.ID, "company_name", "root comment", "", alice))
	thread, err := h.comments.ListForField(doc.ID, "company_name")
	req.NoError(err)
	root := thread[0]

	tests := []struct {
		name     string
		fieldID  string
		text     string
		parentID string
	}{
		{name: "missing field id", fieldID: "", text: "hello"},
		{name: "empty text", fieldID: "company_name", text: "   "},
		{name: "oversized text", fieldID: "company_name", text: strings.Repeat("a", 2001)},
		{name: "dangling parent", fieldID: "company_name", text: "reply", parentID: uuid.NewString()},
		{name: "parent on another field", fieldID: "invoice_total", text: "reply", parentID: root.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.orchestrator.AddComment(ctx, doc.ID, tt.fieldID, tt.text, tt.parentID, alice)
			var validationErr *errors.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	// A reply to the root on the same field is fine
	req.NoError(h.orchestrator.AddComment(ctx, doc.ID, "company_name", "reply", root.ID, alice))
}

func TestOrchestrator_ResolveComment_Broadcasts_Updated_State(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	req.NoError(h.orchestrator.AddComment(ctx, doc.ID, "company_name", "looks wrong", "", alice))
	thread, err := h.comments.ListForField(doc.ID, "company_name")
	req.NoError(err)

	// When Bob resolves Alice's comment
	req.NoError(h.orchestrator.ResolveComment(ctx, doc.ID, thread[0].ID, bob))

	// Then everyone sees the resolved comment, attributed to Bob
	resolved := bobSink.byName("comment-resolved")
	req.Len(resolved, 1)
	comment := resolved[0].(event.CommentResolved).Comment
	req.True(comment.Resolved)
	req.Equal("bob", comment.ResolvedBy)
	req.False(comment.ResolvedAt.IsZero())

	// Resolving a comment that does not exist surfaces as not-found
	err = h.orchestrator.ResolveComment(ctx, doc.ID, uuid.NewString(), bob)
	req.ErrorIs(err, errors.ErrCommentNotFound)
}

func TestOrchestrator_SearchComments_Answers_Requester_Only(t *testing.T) {
	req := require.New(t)
	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1}
	h := newHarness(t, doc)
	alice := participant("alice")
	bob := participant("bob")
	ctx := context.Background()

	aliceSink := h.connectAndJoin(t, doc.ID, alice)
	bobSink := h.connectAndJoin(t, doc.ID, bob)

	req.NoError(h.orchestrator.AddComment(ctx, doc.ID, "company_name", "wrong name", "", alice))
	req.NoError(h.orchestrator.AddComment(ctx, doc.ID, "invoice_total", "total is off", "", bob))

	// When Bob searches with a field filter
	req.NoError(h.orchestrator.SearchComments(ctx, doc.ID, "off --field invoice_total", bob))

	// Then only Bob receives results, scoped to his filter
	results := bobSink.byName("comment-search-results")
	req.Len(results, 1)
	evt := results[0].(event.CommentSearchResults)
	req.Len(evt.Results, 1)
	req.Equal("invoice_total", evt.Results[0].FieldID)
	req.Empty(aliceSink.byName("comment-search-results"))
}
