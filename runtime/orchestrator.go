package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"collab-hub/contract"
	"collab-hub/domain"
	"collab-hub/domain/event"
	"collab-hub/errors"
	"collab-hub/moderation"
	"collab-hub/search"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Orchestrator executes the collaboration operations. Every mutation of
// shared per-document state (membership, locks, document version) runs
// inside that document's serialization mutex, so concurrent connections
// can never both observe the pre-mutation state. Operations on different
// documents proceed in parallel.
//
// Event ordering follows from that serialization: snapshots are delivered
// to the joiner inside the same critical section that admits it to the
// session, so no later broadcast can overtake the snapshot and no change
// covered by the snapshot is re-broadcast to the joiner.
type Orchestrator struct {
	log         *slog.Logger
	registry    *Registry
	locks       *LockTable
	broadcaster *Broadcaster
	documents   contract.DocumentStore
	comments    contract.CommentStore
	index       contract.CommentIndex
	access      contract.AccessChecker
	moderator   *moderation.Moderator
	perDoc      *docMutex

	maxCommentLength int
}

func NewOrchestrator(
	log *slog.Logger,
	registry *Registry,
	locks *LockTable,
	broadcaster *Broadcaster,
	documents contract.DocumentStore,
	comments contract.CommentStore,
	index contract.CommentIndex,
	access contract.AccessChecker,
	moderator *moderation.Moderator,
	maxCommentLength int,
) *Orchestrator {
	return &Orchestrator{
		log:              log,
		registry:         registry,
		locks:            locks,
		broadcaster:      broadcaster,
		documents:        documents,
		comments:         comments,
		index:            index,
		access:           access,
		moderator:        moderator,
		perDoc:           newDocMutex(),
		maxCommentLength: maxCommentLength,
	}
}

// Connect attaches an authenticated connection's sink. No session state
// exists until the first Join.
func (o *Orchestrator) Connect(p domain.Participant, sink contract.EventSink) {
	o.registry.Register(p.ConnID, sink)
}

// Join admits the participant to the document's session and delivers the
// presence snapshot (current members, current locks) to the joiner before
// any live event. The access check and document load happen before the
// serialization lock is taken; only the membership mutation and snapshot
// computation sit inside the critical section.
func (o *Orchestrator) Join(ctx context.Context, documentID string, p domain.Participant) error {
	allowed, err := o.access.CanAccess(ctx, p, documentID)
	if err != nil {
		return err
	}
	if !allowed {
		return errors.ErrPermissionDenied
	}

	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	already := o.registry.Join(documentID, p)

	o.broadcaster.Direct(ctx, p.ConnID, event.ActiveParticipants{
		DocID:        documentID,
		Participants: o.registry.ParticipantsExcept(documentID, p.ConnID),
	})
	o.broadcaster.Direct(ctx, p.ConnID, event.FieldLocks{
		DocID: documentID,
		Locks: o.locks.LocksFor(documentID),
	})

	if !already {
		o.broadcaster.Broadcast(ctx, event.UserJoined{DocID: documentID, Participant: p}, p.ConnID)
		o.log.Info("participant joined", "doc_id", documentID, "user_id", p.UserID, "conn_id", p.ConnID)
	}
	return nil
}

// Leave removes the participant from the session. Lock release is the
// cleanup path's job; an explicit leave keeps any locks the connection
// still holds.
func (o *Orchestrator) Leave(ctx context.Context, documentID string, p domain.Participant) {
	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	if left, was := o.registry.Leave(documentID, p.ConnID); was {
		o.broadcaster.Broadcast(ctx, event.UserLeft{DocID: documentID, Participant: left}, p.ConnID)
	}
}

// AcquireLock claims a field for the requester. Success is broadcast to
// the rest of the session; denial goes to the requester alone, naming
// the current holder. A re-acquire by the holder itself is denied too.
func (o *Orchestrator) AcquireLock(ctx context.Context, documentID, fieldID string, p domain.Participant) {
	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	lock, err := o.locks.Acquire(documentID, fieldID, p)
	if err != nil {
		var conflict *errors.LockConflictError
		if errors.As(err, &conflict) {
			o.broadcaster.Direct(ctx, p.ConnID, event.FieldLockDenied{
				DocID:   documentID,
				FieldID: fieldID,
				Holder:  conflict.Holder,
			})
		}
		return
	}
	o.broadcaster.Broadcast(ctx, event.FieldLocked{
		DocID:      documentID,
		FieldID:    fieldID,
		Holder:     p,
		AcquiredAt: lock.AcquiredAt,
	}, p.ConnID)
}

// ReleaseLock is a no-op unless the requester is the current holder.
// Only an actual removal is broadcast.
func (o *Orchestrator) ReleaseLock(ctx context.Context, documentID, fieldID string, p domain.Participant) {
	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	if o.locks.Release(documentID, fieldID, p.ConnID) {
		o.broadcaster.Broadcast(ctx, event.FieldUnlocked{DocID: documentID, FieldID: fieldID}, p.ConnID)
	}
}

// Propose applies an optimistic-concurrency-controlled partial update.
// The store performs the version comparison and the write as one atomic
// step; a stale proposal is answered with the authoritative version and
// the full document so the client can reconcile. Persistence strictly
// precedes any broadcast: peers never observe a mutation that failed to
// persist.
func (o *Orchestrator) Propose(ctx context.Context, documentID string, updates domain.Updates,
	clientVersion int64, p domain.Participant) error {

	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	doc, err := o.documents.Save(ctx, documentID, updates, clientVersion, p.UserID)
	if err != nil {
		var conflict *errors.VersionConflictError
		if errors.As(err, &conflict) {
			o.broadcaster.Direct(ctx, p.ConnID, event.VersionConflict{
				DocID:    documentID,
				Version:  conflict.Authoritative,
				Document: conflict.Document,
			})
			o.log.Debug("stale proposal rejected",
				"doc_id", documentID, "user_id", p.UserID,
				"client_version", clientVersion, "authoritative", conflict.Authoritative)
			return nil
		}
		return err
	}

	o.broadcaster.Broadcast(ctx, event.DocumentUpdated{
		DocID:      documentID,
		Updates:    updates,
		Version:    doc.Version,
		ModifiedBy: p,
		ModifiedAt: doc.LastModified,
	}, p.ConnID)
	o.broadcaster.Direct(ctx, p.ConnID, event.UpdateAck{DocID: documentID, Version: doc.Version})
	return nil
}

// AddComment validates, moderates, persists and broadcasts a comment.
// The author receives the comment through the broadcast channel like
// everyone else; there is no local echo.
func (o *Orchestrator) AddComment(ctx context.Context, documentID, fieldID, text, parentID string,
	p domain.Participant) error {

	text = strings.TrimSpace(text)
	switch {
	case fieldID == "":
		return &errors.ValidationError{Reason: "fieldId is required"}
	case text == "":
		return &errors.ValidationError{Reason: "comment text is empty"}
	case len(text) > o.maxCommentLength:
		return &errors.ValidationError{Reason: "comment text exceeds maximum length"}
	}

	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	if parentID != "" {
		parent, err := o.comments.Get(documentID, parentID)
		if err != nil {
			return &errors.ValidationError{Reason: "parent comment does not exist"}
		}
		if parent.FieldID != fieldID {
			return &errors.ValidationError{Reason: "parent comment belongs to another field"}
		}
	}

	censored := o.moderator.Censor(text)
	comment := domain.Comment{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		FieldID:    fieldID,
		ParentID:   parentID,
		AuthorID:   p.UserID,
		AuthorName: p.Name,
		Text:       censored,
		Lang:       moderation.DetectLanguage(censored),
		CreatedAt:  time.Now().UTC(),
	}
	if err := o.comments.Append(comment); err != nil {
		return err
	}
	if err := o.index.Index(comment); err != nil {
		// Search lags behind; the thread itself is intact.
		o.log.Warn("comment indexing failed", "doc_id", documentID, "comment_id", comment.ID, "error", err)
	}

	o.broadcaster.Broadcast(ctx, event.CommentAdded{DocID: documentID, Comment: comment}, "")
	return nil
}

// ResolveComment flips the resolved flag, records the resolver, and
// broadcasts the updated comment to the whole session.
func (o *Orchestrator) ResolveComment(ctx context.Context, documentID, commentID string,
	p domain.Participant) error {

	unlock := o.perDoc.Lock(documentID)
	defer unlock()

	comment, err := o.comments.Resolve(documentID, commentID, p.UserID)
	if err != nil {
		return err
	}
	if err := o.index.Index(comment); err != nil {
		o.log.Warn("comment re-indexing failed", "doc_id", documentID, "comment_id", commentID, "error", err)
	}

	o.broadcaster.Broadcast(ctx, event.CommentResolved{DocID: documentID, Comment: comment}, "")
	return nil
}

// SearchComments runs a full-text query over the document's comments and
// answers the requester only.
func (o *Orchestrator) SearchComments(ctx context.Context, documentID, query string,
	p domain.Participant) error {

	q := search.Parse(query)
	ids, err := o.index.Search(ctx, documentID, q.Terms, q.FieldID, q.Limit)
	if err != nil {
		return err
	}

	results := lo.FilterMap(ids, func(id string, _ int) (domain.Comment, bool) {
		comment, err := o.comments.Get(documentID, id)
		return comment, err == nil
	})

	o.broadcaster.Direct(ctx, p.ConnID, event.CommentSearchResults{
		DocID:   documentID,
		Query:   query,
		Results: results,
	})
	return nil
}

// Disconnect reverses every effect the connection had on shared state:
// all field locks released (one field-unlocked broadcast each), every
// session membership removed (one user-left broadcast each), sink
// dropped. Locks can outlive membership (an explicit leave keeps them),
// so the sweep covers held-lock documents as well as joined ones.
// Idempotent: a duplicate disconnect signal finds neither and changes
// nothing.
func (o *Orchestrator) Disconnect(ctx context.Context, connID string) {
	docs := append(o.registry.DocumentsOf(connID), o.locks.DocumentsHeldBy(connID)...)
	for _, documentID := range lo.Uniq(docs) {
		unlock := o.perDoc.Lock(documentID)

		for _, fieldID := range o.locks.ReleaseAllFor(documentID, connID) {
			o.broadcaster.Broadcast(ctx, event.FieldUnlocked{DocID: documentID, FieldID: fieldID}, connID)
		}
		if p, was := o.registry.Leave(documentID, connID); was {
			o.broadcaster.Broadcast(ctx, event.UserLeft{DocID: documentID, Participant: p}, connID)
			o.log.Info("participant disconnected", "doc_id", documentID, "user_id", p.UserID, "conn_id", connID)
		}

		unlock()
	}
	o.registry.Unregister(connID)
}
