//go:generate go run go.uber.org/mock/mockgen -source=comment.go -destination=../mocks/mock_comment_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"collab-hub/domain"
	"collab-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// CommentRepository persists field-scoped comment threads.
//
// Two key families per comment:
//
//	cmt:{doc}:{field}:{timestamp_padded}:{id}  -> JSON comment
//	cmtid:{doc}:{id}                           -> thread key above
//
// The thread key uses 19-digit zero padding so a prefix scan over
// "cmt:{doc}:{field}:" yields the thread in chronological order; the id
// pointer key makes resolve-by-id a two-hop lookup instead of a scan.
type CommentRepository struct {
	db *badger.DB
}

func NewCommentRepository(db *badger.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func threadKey(c domain.Comment) []byte {
	return []byte(fmt.Sprintf("cmt:%s:%s:%019d:%s", c.DocumentID, c.FieldID, c.CreatedAt.UnixNano(), c.ID))
}

func pointerKey(documentID, commentID string) []byte {
	return []byte(fmt.Sprintf("cmtid:%s:%s", documentID, commentID))
}

func (r *CommentRepository) Append(comment domain.Comment) error {
	data, err := json.Marshal(comment)
	if err != nil {
		return err
	}
	key := threadKey(comment)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(pointerKey(comment.DocumentID, comment.ID), key)
	})
}

func (r *CommentRepository) Get(documentID, commentID string) (domain.Comment, error) {
	var comment domain.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pointerKey(documentID, commentID))
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		entry, err := txn.Get(key)
		if err != nil {
			return err
		}
		return entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &comment)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Comment{}, errors.ErrCommentNotFound
	}
	return comment, err
}

// Resolve sets the resolved flag and records resolver and timestamp.
// The only in-place mutation a comment ever sees.
func (r *CommentRepository) Resolve(documentID, commentID, resolverID string) (domain.Comment, error) {
	var comment domain.Comment
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pointerKey(documentID, commentID))
		if err != nil {
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		entry, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &comment)
		}); err != nil {
			return err
		}

		comment.Resolved = true
		comment.ResolvedBy = resolverID
		comment.ResolvedAt = time.Now().UTC()

		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Comment{}, errors.ErrCommentNotFound
	}
	return comment, err
}

// ListForField returns the field's thread in chronological order.
func (r *CommentRepository) ListForField(documentID, fieldID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("cmt:%s:%s:", documentID, fieldID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var comment domain.Comment
				if err := json.Unmarshal(val, &comment); err != nil {
					return err
				}
				comments = append(comments, comment)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return comments, err
}
