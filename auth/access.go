package auth

import (
	"context"

	"collab-hub/contract"
	"collab-hub/domain"
)

// DocumentAccess answers whether a participant may open a document:
// the owner always may, elevated roles (admin, editor) may open any.
// Loading the document doubles as the existence check, so a join against
// an unknown document surfaces as not-found rather than a silent session.
type DocumentAccess struct {
	documents contract.DocumentStore
}

func NewDocumentAccess(documents contract.DocumentStore) *DocumentAccess {
	return &DocumentAccess{documents: documents}
}

func (a *DocumentAccess) CanAccess(ctx context.Context, p domain.Participant, documentID string) (bool, error) {
	doc, err := a.documents.Load(ctx, documentID)
	if err != nil {
		return false, err
	}
	if doc.OwnerID == p.UserID {
		return true, nil
	}
	return p.Role == domain.RoleAdmin || p.Role == domain.RoleEditor, nil
}
