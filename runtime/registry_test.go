package runtime

import (
	"context"
	"testing"

	"collab-hub/domain"
	"collab-hub/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Join_One_Document_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	documentID := uuid.NewString()
	p := domain.Participant{UserID: "alice", Name: "Alice", ConnID: uuid.NewString()}
	sink := Sink{}

	// Given no connection exists
	sessions, connections := registry.Counts()
	req.Zero(sessions)
	req.Zero(connections)

	// When a participant registers and joins a document
	registry.Register(p.ConnID, sink)
	already := registry.Join(documentID, p)

	// Then
	req.False(already)
	sessions, connections = registry.Counts()
	req.Equal(1, sessions)
	req.Equal(1, connections)
	req.Equal([]string{documentID}, registry.DocumentsOf(p.ConnID))

	got, ok := registry.SinkOf(p.ConnID)
	req.True(ok)
	req.Equal(sink, got)
}

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	documentID := uuid.NewString()
	p := domain.Participant{UserID: "alice", ConnID: uuid.NewString()}

	registry.Register(p.ConnID, Sink{})

	// When the same connection joins twice
	first := registry.Join(documentID, p)
	second := registry.Join(documentID, p)

	// Then only the repeat is reported as already a member
	req.False(first)
	req.True(second)
	req.Len(registry.ParticipantsExcept(documentID, ""), 1)
}

func TestRegistry_ParticipantsExcept_Skips_The_Excluded_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	documentID := uuid.NewString()
	alice := domain.Participant{UserID: "alice", ConnID: uuid.NewString()}
	bob := domain.Participant{UserID: "bob", ConnID: uuid.NewString()}

	registry.Register(alice.ConnID, Sink{})
	registry.Register(bob.ConnID, Sink{})
	registry.Join(documentID, alice)
	registry.Join(documentID, bob)

	// When listing the session from Alice's point of view
	others := registry.ParticipantsExcept(documentID, alice.ConnID)

	// Then only Bob remains
	req.Len(others, 1)
	req.Equal(bob, others[0])

	// And the sinks fan-out skips Alice too
	req.Len(registry.SinksExcept(documentID, alice.ConnID), 1)
	req.Len(registry.SinksExcept(documentID, ""), 2)
}

func TestRegistry_Leave_Removes_Empty_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	documentID := uuid.NewString()
	p := domain.Participant{UserID: "alice", ConnID: uuid.NewString()}

	registry.Register(p.ConnID, Sink{})
	registry.Join(documentID, p)

	// When the last member leaves
	left, was := registry.Leave(documentID, p.ConnID)

	// Then the session no longer exists
	req.True(was)
	req.Equal(p, left)
	sessions, _ := registry.Counts()
	req.Zero(sessions)
	req.Empty(registry.DocumentsOf(p.ConnID))

	// And a second leave finds nothing
	_, was = registry.Leave(documentID, p.ConnID)
	req.False(was)
}

func TestRegistry_Unregister_Drops_Sink_And_Reverse_Index(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	documentID := uuid.NewString()
	p := domain.Participant{UserID: "alice", ConnID: uuid.NewString()}

	registry.Register(p.ConnID, Sink{})
	registry.Join(documentID, p)

	registry.Unregister(p.ConnID)

	_, ok := registry.SinkOf(p.ConnID)
	req.False(ok)
	req.Empty(registry.DocumentsOf(p.ConnID))

	// The member entry survives until Leave; its sink is simply gone
	req.Len(registry.ParticipantsExcept(documentID, ""), 1)
	req.Empty(registry.SinksExcept(documentID, ""))
}
