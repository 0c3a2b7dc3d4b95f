package repositories

import (
	"context"
	"log/slog"
	"testing"

	"collab-hub/domain"
	"collab-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Document_Put_And_Load(t *testing.T) {
	req := require.New(t)
	repository := NewDocumentRepository(openTestDB(t), slog.Default())

	doc := domain.Document{
		ID:      uuid.NewString(),
		OwnerID: "alice",
		Title:   "Q3 invoice",
		Fields:  domain.Updates{"company_name": "ACME"},
		Version: 1,
	}
	req.NoError(repository.Put(doc))

	loaded, err := repository.Load(context.Background(), doc.ID)
	req.NoError(err)
	req.Equal(doc.Title, loaded.Title)
	req.Equal(int64(1), loaded.Version)
	req.Equal("ACME", loaded.Fields["company_name"])
}

func Test_Document_Load_Unknown_Is_NotFound(t *testing.T) {
	req := require.New(t)
	repository := NewDocumentRepository(openTestDB(t), slog.Default())

	_, err := repository.Load(context.Background(), uuid.NewString())
	req.ErrorIs(err, errors.ErrDocumentNotFound)
}

func Test_Document_Save_Increments_Version_By_One(t *testing.T) {
	req := require.New(t)
	repository := NewDocumentRepository(openTestDB(t), slog.Default())
	ctx := context.Background()

	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 1,
		Fields: domain.Updates{"company_name": "ACME", "due_date": "2026-09-30"}}
	req.NoError(repository.Put(doc))

	// When saving a partial update at the expected version
	saved, err := repository.Save(ctx, doc.ID, domain.Updates{"company_name": "Globex"}, 1, "alice")
	req.NoError(err)

	// Then the version grew by exactly one and untouched fields survive
	req.Equal(int64(2), saved.Version)
	req.Equal("Globex", saved.Fields["company_name"])
	req.Equal("2026-09-30", saved.Fields["due_date"])
	req.Equal("alice", saved.LastModifiedBy)
	req.False(saved.LastModified.IsZero())

	loaded, err := repository.Load(ctx, doc.ID)
	req.NoError(err)
	req.Equal(saved.Version, loaded.Version)
}

func Test_Document_Save_Stale_Version_Is_Rejected(t *testing.T) {
	req := require.New(t)
	repository := NewDocumentRepository(openTestDB(t), slog.Default())
	ctx := context.Background()

	doc := domain.Document{ID: uuid.NewString(), OwnerID: "alice", Version: 7,
		Fields: domain.Updates{"company_name": "ACME"}}
	req.NoError(repository.Put(doc))

	// When saving against an outdated version
	_, err := repository.Save(ctx, doc.ID, domain.Updates{"company_name": "Globex"}, 6, "bob")

	// Then the conflict carries the authoritative state
	var conflict *errors.VersionConflictError
	req.ErrorAs(err, &conflict)
	req.Equal(int64(7), conflict.Authoritative)
	req.Equal("ACME", conflict.Document.Fields["company_name"])

	// And the stored document is untouched
	loaded, err := repository.Load(ctx, doc.ID)
	req.NoError(err)
	req.Equal(int64(7), loaded.Version)
	req.Equal("ACME", loaded.Fields["company_name"])
}

func Test_Document_Save_Unknown_Is_NotFound(t *testing.T) {
	req := require.New(t)
	repository := NewDocumentRepository(openTestDB(t), slog.Default())

	_, err := repository.Save(context.Background(), uuid.NewString(), domain.Updates{"a": 1}, 0, "alice")
	req.ErrorIs(err, errors.ErrDocumentNotFound)
}
