// Package services exposes the collaboration operations to the
// transport layer.
package services

import (
	"context"

	"collab-hub/contract"
	"collab-hub/domain"
	"collab-hub/runtime"
)

// CollabService is a thin facade over the orchestrator. Transport
// handlers depend on contract.ICollabService, never on runtime types.
type CollabService struct {
	orchestrator *runtime.Orchestrator
}

func NewCollabService(o *runtime.Orchestrator) *CollabService {
	return &CollabService{orchestrator: o}
}

func (s *CollabService) Connect(p domain.Participant, sink contract.EventSink) {
	s.orchestrator.Connect(p, sink)
}

func (s *CollabService) Join(ctx context.Context, documentID string, p domain.Participant) error {
	return s.orchestrator.Join(ctx, documentID, p)
}

func (s *CollabService) Leave(ctx context.Context, documentID string, p domain.Participant) {
	s.orchestrator.Leave(ctx, documentID, p)
}

func (s *CollabService) AcquireLock(ctx context.Context, documentID, fieldID string, p domain.Participant) {
	s.orchestrator.AcquireLock(ctx, documentID, fieldID, p)
}

func (s *CollabService) ReleaseLock(ctx context.Context, documentID, fieldID string, p domain.Participant) {
	s.orchestrator.ReleaseLock(ctx, documentID, fieldID, p)
}

func (s *CollabService) Propose(ctx context.Context, documentID string, updates domain.Updates,
	clientVersion int64, p domain.Participant) error {
	return s.orchestrator.Propose(ctx, documentID, updates, clientVersion, p)
}

func (s *CollabService) AddComment(ctx context.Context, documentID, fieldID, text, parentID string,
	p domain.Participant) error {
	return s.orchestrator.AddComment(ctx, documentID, fieldID, text, parentID, p)
}

func (s *CollabService) ResolveComment(ctx context.Context, documentID, commentID string,
	p domain.Participant) error {
	return s.orchestrator.ResolveComment(ctx, documentID, commentID, p)
}

func (s *CollabService) SearchComments(ctx context.Context, documentID, query string,
	p domain.Participant) error {
	return s.orchestrator.SearchComments(ctx, documentID, query, p)
}

func (s *CollabService) Disconnect(ctx context.Context, connID string) {
	s.orchestrator.Disconnect(ctx, connID)
}
