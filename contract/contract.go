//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"collab-hub/domain"
	"collab-hub/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one participant's delivery channel. Consume must not
// block: delivery is best-effort per connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IdentityVerifier is the external identity capability consumed by the
// Connection Gateway: credential in, verified Participant out.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.Participant, error)
}

// AccessChecker answers whether a participant may open a document
// (ownership or elevated role).
type AccessChecker interface {
	CanAccess(ctx context.Context, p domain.Participant, documentID string) (bool, error)
}

// DocumentStore is the external persistence capability for documents.
// Save must perform the expected-version comparison and the write as one
// atomic step and return a *errors.VersionConflictError on mismatch.
type DocumentStore interface {
	Load(ctx context.Context, documentID string) (domain.Document, error)
	Save(ctx context.Context, documentID string, updates domain.Updates,
		expectedVersion int64, modifiedBy string) (domain.Document, error)
}

// CommentStore persists field-scoped comment threads.
type CommentStore interface {
	Append(comment domain.Comment) error
	Get(documentID, commentID string) (domain.Comment, error)
	Resolve(documentID, commentID, resolverID string) (domain.Comment, error)
	ListForField(documentID, fieldID string) ([]domain.Comment, error)
}

// CommentIndex is the full-text search surface over comments.
type CommentIndex interface {
	Index(comment domain.Comment) error
	Search(ctx context.Context, documentID, terms, fieldID string, limit int) ([]string, error)
}

// ICollabService is the operation surface exposed to connections.
// One call per inbound wire event; resulting events flow through sinks.
type ICollabService interface {
	Connect(p domain.Participant, sink EventSink)
	Join(ctx context.Context, documentID string, p domain.Participant) error
	Leave(ctx context.Context, documentID string, p domain.Participant)
	AcquireLock(ctx context.Context, documentID, fieldID string, p domain.Participant)
	ReleaseLock(ctx context.Context, documentID, fieldID string, p domain.Participant)
	Propose(ctx context.Context, documentID string, updates domain.Updates,
		clientVersion int64, p domain.Participant) error
	AddComment(ctx context.Context, documentID, fieldID, text, parentID string,
		p domain.Participant) error
	ResolveComment(ctx context.Context, documentID, commentID string,
		p domain.Participant) error
	SearchComments(ctx context.Context, documentID, query string,
		p domain.Participant) error
	Disconnect(ctx context.Context, connID string)
}
