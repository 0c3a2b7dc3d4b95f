package search

import (
	"context"
	"sync"

	"collab-hub/domain"

	"github.com/blugelabs/bluge"
)

// CommentIndex maintains a Bluge index over comment text. Adds and
// resolution updates re-index the whole comment (Update is an upsert on
// the comment id), so resolved state is searchable too.
//
// The index is derived data: a failed index write degrades search, never
// the thread itself.
type CommentIndex struct {
	mu     sync.Mutex
	writer *bluge.Writer
}

// NewCommentIndex opens an on-disk index at path, or a transient
// in-memory index when path is empty (tests, ephemeral deployments).
func NewCommentIndex(path string) (*CommentIndex, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, err
	}
	return &CommentIndex{writer: writer}, nil
}

func (i *CommentIndex) Close() error {
	return i.writer.Close()
}

// Index upserts one comment.
func (i *CommentIndex) Index(comment domain.Comment) error {
	doc := bluge.NewDocument(comment.ID).
		AddField(bluge.NewTextField("text", comment.Text)).
		AddField(bluge.NewKeywordField("doc_id", comment.DocumentID)).
		AddField(bluge.NewKeywordField("field_id", comment.FieldID)).
		AddField(bluge.NewKeywordField("author", comment.AuthorName))

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer.Update(doc.ID(), doc)
}

// Search returns the ids of the best-matching comments on one document,
// optionally restricted to a single field.
func (i *CommentIndex) Search(ctx context.Context, documentID, terms, fieldID string, limit int) ([]string, error) {
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(documentID).SetField("doc_id"))
	if terms != "" {
		query.AddMust(bluge.NewMatchQuery(terms).SetField("text"))
	}
	if fieldID != "" {
		query.AddMust(bluge.NewTermQuery(fieldID).SetField("field_id"))
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := iter.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = iter.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
