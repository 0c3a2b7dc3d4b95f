// Package ws carries the coordination protocol over WebSocket
// connections: one long-lived bidirectional connection per participant,
// JSON envelopes both ways.
package ws

import (
	"encoding/json"

	"collab-hub/domain"
	"collab-hub/domain/event"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client->server event names.
const (
	TypeJoinDocument   = "join-document"
	TypeLeaveDocument  = "leave-document"
	TypeLockField      = "lock-field"
	TypeUnlockField    = "unlock-field"
	TypeProposeUpdate  = "propose-update"
	TypeAddComment     = "add-comment"
	TypeResolveComment = "resolve-comment"
	TypeSearchComments = "search-comments"
)

type joinDocumentPayload struct {
	DocumentID string `json:"documentId"`
}

type lockFieldPayload struct {
	DocumentID string `json:"documentId"`
	FieldID    string `json:"fieldId"`
}

type proposeUpdatePayload struct {
	DocumentID    string         `json:"documentId"`
	Updates       domain.Updates `json:"updates"`
	ClientVersion int64          `json:"clientVersion"`
}

type addCommentPayload struct {
	DocumentID string `json:"documentId"`
	FieldID    string `json:"fieldId"`
	Text       string `json:"text"`
	ParentID   string `json:"parentId,omitempty"`
}

type resolveCommentPayload struct {
	DocumentID string `json:"documentId"`
	CommentID  string `json:"commentId"`
}

type searchCommentsPayload struct {
	DocumentID string `json:"documentId"`
	Query      string `json:"query"`
}

// encode wraps a server event in its outbound envelope.
func encode(e event.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Name(), Payload: payload})
}
