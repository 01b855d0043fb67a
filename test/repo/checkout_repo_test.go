package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuvault/docuvault/internal/model"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/timeutil"
	"github.com/docuvault/docuvault/internal/repo"
	"github.com/docuvault/docuvault/test/testutil"
)

func TestCheckoutRepoTryInsertExclusive(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	checkouts := repo.NewCheckoutRepo(db)
	alice := testutil.SeedUser(t, db)
	bob := testutil.SeedUser(t, db)
	doc := seedDocument(t, db, docs, alice.ID)

	inserted, err := checkouts.TryInsert(context.Background(), db, &model.DocumentCheckout{
		ID:           testutil.NewID(),
		DocumentID:   doc.ID,
		UserID:       alice.ID,
		CheckoutTime: timeutil.NowUnix(),
	})
	require.NoError(t, err)
	require.True(t, inserted)

	// Second insert loses silently, regardless of user.
	inserted, err = checkouts.TryInsert(context.Background(), db, &model.DocumentCheckout{
		ID:           testutil.NewID(),
		DocumentID:   doc.ID,
		UserID:       bob.ID,
		CheckoutTime: timeutil.NowUnix(),
	})
	require.NoError(t, err)
	require.False(t, inserted)

	holder, err := checkouts.GetByDoc(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, holder.UserID)

	require.NoError(t, checkouts.DeleteByDoc(context.Background(), db, doc.ID))
	_, err = checkouts.GetByDoc(context.Background(), doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// Releasing an already released lock is not an error.
	require.NoError(t, checkouts.DeleteByDoc(context.Background(), db, doc.ID))
}

func TestCheckoutRepoListOlderThan(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	checkouts := repo.NewCheckoutRepo(db)
	owner := testutil.SeedUser(t, db)
	oldDoc := seedDocument(t, db, docs, owner.ID)
	newDoc := seedDocument(t, db, docs, owner.ID)

	now := timeutil.NowUnix()
	_, err := checkouts.TryInsert(context.Background(), db, &model.DocumentCheckout{
		ID:           testutil.NewID(),
		DocumentID:   oldDoc.ID,
		UserID:       owner.ID,
		CheckoutTime: now - 3600,
	})
	require.NoError(t, err)
	_, err = checkouts.TryInsert(context.Background(), db, &model.DocumentCheckout{
		ID:           testutil.NewID(),
		DocumentID:   newDoc.ID,
		UserID:       owner.ID,
		CheckoutTime: now,
	})
	require.NoError(t, err)

	stale, err := checkouts.ListOlderThan(context.Background(), now-60)
	require.NoError(t, err)
	ids := make([]string, 0, len(stale))
	for _, co := range stale {
		ids = append(ids, co.DocumentID)
	}
	require.Contains(t, ids, oldDoc.ID)
	require.NotContains(t, ids, newDoc.ID)
}
