//go:generate go run go.uber.org/mock/mockgen -source=document.go -destination=../mocks/mock_document_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"collab-hub/domain"
	"collab-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// DocumentRepository is the document store behind the mutation
// coordinator. Keys are "doc:{id}"; values are the JSON document.
//
// Save runs the expected-version comparison and the write inside one
// Badger transaction, so the check-and-increment is atomic even without
// the coordinator's per-document serialization on top.
type DocumentRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewDocumentRepository(db *badger.DB, log *slog.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, log: log}
}

func documentKey(id string) []byte {
	return []byte("doc:" + id)
}

// Put stores a document as-is. Used by seeding and by the surrounding
// CRUD surface; the coordinator itself only ever goes through Save.
func (r *DocumentRepository) Put(doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(doc.ID), data)
	})
}

func (r *DocumentRepository) Load(_ context.Context, documentID string) (domain.Document, error) {
	var doc domain.Document
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(documentID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Document{}, errors.ErrDocumentNotFound
	}
	return doc, err
}

// Save applies a partial update if and only if the stored version equals
// expectedVersion, then bumps the version by exactly one and stamps the
// modification metadata. A mismatch returns *errors.VersionConflictError
// carrying the authoritative version and the full current document; the
// stored document is left untouched.
func (r *DocumentRepository) Save(_ context.Context, documentID string, updates domain.Updates,
	expectedVersion int64, modifiedBy string) (domain.Document, error) {

	var saved domain.Document
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(documentID))
		if err != nil {
			return err
		}
		var doc domain.Document
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			return err
		}

		if doc.Version != expectedVersion {
			return &errors.VersionConflictError{Authoritative: doc.Version, Document: doc}
		}

		doc.Apply(updates)
		doc.Version++
		doc.LastModified = time.Now().UTC()
		doc.LastModifiedBy = modifiedBy

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := txn.Set(documentKey(documentID), data); err != nil {
			return err
		}
		saved = doc
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Document{}, errors.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, err
	}
	r.log.Debug("document saved", "doc_id", documentID, "version", saved.Version)
	return saved, nil
}
