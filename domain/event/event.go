// Package event defines the wire events exchanged with connected clients.
// Every event belongs to exactly one document; fan-out scope is always
// the live session of that document.
package event

import (
	"collab-hub/domain"
	"time"
)

type DomainEvent interface {
	// Name is the wire-level event type ("field-locked", "user-joined", ...).
	Name() string
	// DocumentID scopes the event to one document's session.
	DocumentID() string
}

// ActiveParticipants is the presence half of the join snapshot.
// Delivered to the joiner only, before any live event.
type ActiveParticipants struct {
	DocID        string               `json:"documentId"`
	Participants []domain.Participant `json:"participants"`
}

func (e ActiveParticipants) Name() string       { return "active-participants" }
func (e ActiveParticipants) DocumentID() string { return e.DocID }

// FieldLocks is the lock half of the join snapshot.
type FieldLocks struct {
	DocID string             `json:"documentId"`
	Locks []domain.FieldLock `json:"locks"`
}

func (e FieldLocks) Name() string       { return "field-locks" }
func (e FieldLocks) DocumentID() string { return e.DocID }

type UserJoined struct {
	DocID       string             `json:"documentId"`
	Participant domain.Participant `json:"participant"`
}

func (e UserJoined) Name() string       { return "user-joined" }
func (e UserJoined) DocumentID() string { return e.DocID }

type UserLeft struct {
	DocID       string             `json:"documentId"`
	Participant domain.Participant `json:"participant"`
}

func (e UserLeft) Name() string       { return "user-left" }
func (e UserLeft) DocumentID() string { return e.DocID }

type FieldLocked struct {
	DocID      string             `json:"documentId"`
	FieldID    string             `json:"fieldId"`
	Holder     domain.Participant `json:"holder"`
	AcquiredAt time.Time          `json:"acquiredAt"`
}

func (e FieldLocked) Name() string       { return "field-locked" }
func (e FieldLocked) DocumentID() string { return e.DocID }

type FieldUnlocked struct {
	DocID   string `json:"documentId"`
	FieldID string `json:"fieldId"`
}

func (e FieldUnlocked) Name() string       { return "field-unlocked" }
func (e FieldUnlocked) DocumentID() string { return e.DocID }

// FieldLockDenied goes to the requester only, never broadcast.
type FieldLockDenied struct {
	DocID   string             `json:"documentId"`
	FieldID string             `json:"fieldId"`
	Holder  domain.Participant `json:"holder"`
}

func (e FieldLockDenied) Name() string       { return "field-lock-denied" }
func (e FieldLockDenied) DocumentID() string { return e.DocID }

// DocumentUpdated carries the applied delta, not the whole document.
// Peers already hold version-1 and reconstruct state locally.
type DocumentUpdated struct {
	DocID      string             `json:"documentId"`
	Updates    domain.Updates     `json:"updates"`
	Version    int64              `json:"version"`
	ModifiedBy domain.Participant `json:"modifiedBy"`
	ModifiedAt time.Time          `json:"modifiedAt"`
}

func (e DocumentUpdated) Name() string       { return "document-updated" }
func (e DocumentUpdated) DocumentID() string { return e.DocID }

// UpdateAck confirms an accepted proposal to its proposer.
type UpdateAck struct {
	DocID   string `json:"documentId"`
	Version int64  `json:"version"`
}

func (e UpdateAck) Name() string       { return "update-ack" }
func (e UpdateAck) DocumentID() string { return e.DocID }

// VersionConflict carries everything the client needs to reconcile:
// the authoritative version and the full current document.
type VersionConflict struct {
	DocID    string          `json:"documentId"`
	Version  int64           `json:"version"`
	Document domain.Document `json:"document"`
}

func (e VersionConflict) Name() string       { return "version-conflict" }
func (e VersionConflict) DocumentID() string { return e.DocID }

type CommentAdded struct {
	DocID   string         `json:"documentId"`
	Comment domain.Comment `json:"comment"`
}

func (e CommentAdded) Name() string       { return "comment-added" }
func (e CommentAdded) DocumentID() string { return e.DocID }

type CommentResolved struct {
	DocID   string         `json:"documentId"`
	Comment domain.Comment `json:"comment"`
}

func (e CommentResolved) Name() string       { return "comment-resolved" }
func (e CommentResolved) DocumentID() string { return e.DocID }

// CommentSearchResults answers a search-comments request, requester only.
type CommentSearchResults struct {
	DocID   string           `json:"documentId"`
	Query   string           `json:"query"`
	Results []domain.Comment `json:"results"`
}

func (e CommentSearchResults) Name() string       { return "comment-search-results" }
func (e CommentSearchResults) DocumentID() string { return e.DocID }

// Error reports an operation-scoped failure back to its originator.
type Error struct {
	DocID   string `json:"documentId,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e Error) Name() string       { return "error" }
func (e Error) DocumentID() string { return e.DocID }
