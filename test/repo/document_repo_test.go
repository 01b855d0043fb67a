package repo_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuvault/docuvault/internal/model"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/timeutil"
	"github.com/docuvault/docuvault/internal/repo"
	"github.com/docuvault/docuvault/test/testutil"
)

func seedDocument(t *testing.T, db *sql.DB, docs *repo.DocumentRepo, ownerID string) *model.Document {
	t.Helper()
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:       testutil.NewID(),
		Title:    "title",
		FilePath: ownerID + "/x/v1",
		MimeType: "text/plain",
		OwnerID:  ownerID,
		Version:  1,
		Ctime:    now,
		Mtime:    now,
	}
	require.NoError(t, docs.Create(context.Background(), db, doc))
	return doc
}

func TestDocumentRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	owner := testutil.SeedUser(t, db)
	doc := seedDocument(t, db, docs, owner.ID)

	fetched, err := docs.GetByID(context.Background(), nil, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "title", fetched.Title)

	now := timeutil.NowUnix()
	err = docs.UpdateMeta(context.Background(), db, doc.ID, map[string]interface{}{"title": "updated"}, now)
	require.NoError(t, err)
	fetched, err = docs.GetByID(context.Background(), nil, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", fetched.Title)

	err = docs.UpdateMeta(context.Background(), db, "missing", map[string]interface{}{"title": "x"}, now)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, docs.Delete(context.Background(), db, doc.ID))
	_, err = docs.GetByID(context.Background(), nil, doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentRepoBumpVersion(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	owner := testutil.SeedUser(t, db)
	doc := seedDocument(t, db, docs, owner.ID)

	v, err := docs.BumpVersion(context.Background(), db, doc.ID, timeutil.NowUnix())
	require.NoError(t, err)
	require.Equal(t, 2, v)

	v, err = docs.BumpVersion(context.Background(), db, doc.ID, timeutil.NowUnix())
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = docs.BumpVersion(context.Background(), db, "missing", timeutil.NowUnix())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
