package domain

import "time"

// Comment is a field-scoped discussion entry. ParentID, when set, must
// reference an existing comment on the same document and field.
// Comments are append-only except for the resolved-state transition.
type Comment struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	FieldID    string    `json:"fieldId"`
	ParentID   string    `json:"parentId,omitempty"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	Lang       string    `json:"lang,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Resolved   bool      `json:"resolved"`
	ResolvedBy string    `json:"resolvedBy,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt,omitzero"`
}
