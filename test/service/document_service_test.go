package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuvault/docuvault/internal/filestore"
	"github.com/docuvault/docuvault/internal/model"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/repo"
	"github.com/docuvault/docuvault/internal/service"
	"github.com/docuvault/docuvault/test/testutil"
)

// flakyStore delegates to a real local store but can be switched to reject
// writes, standing in for an unreachable blob backend.
type flakyStore struct {
	filestore.Store
	failSave bool
}

func (s *flakyStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	if s.failSave {
		return errors.New("backend unavailable")
	}
	return s.Store.Save(ctx, key, r, size)
}

func newDocumentService(t *testing.T, conn *sql.DB) *service.DocumentService {
	t.Helper()
	return newDocumentServiceWithStore(conn, testutil.NewLocalStore(t))
}

func newDocumentServiceWithStore(conn *sql.DB, store filestore.Store) *service.DocumentService {
	return service.NewDocumentService(
		repo.NewDocumentRepo(conn),
		repo.NewVersionRepo(conn),
		repo.NewTagRepo(conn),
		repo.NewDocumentTagRepo(conn),
		repo.NewCheckoutRepo(conn),
		repo.NewActivityRepo(conn),
		store,
	)
}

func createDoc(t *testing.T, docs *service.DocumentService, ownerID, title string, tags []string) *model.Document {
	t.Helper()
	doc, err := docs.Create(context.Background(), ownerID, service.DocumentCreateInput{
		Title:    title,
		TagNames: tags,
		File: service.FileInput{
			Content:  testutil.NewMemFile([]byte("v1 content")),
			Size:     10,
			MimeType: "text/plain",
		},
	})
	require.NoError(t, err)
	return doc
}

func TestDocumentLifecycle(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := newDocumentService(t, conn)
	owner := testutil.SeedUser(t, conn)

	doc := createDoc(t, docs, owner.ID, "report", []string{"finance", "q3"})
	require.Equal(t, 1, doc.Version)
	require.ElementsMatch(t, []string{"finance", "q3"}, doc.Tags)

	versions, err := docs.ListVersions(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, 1, versions[0].VersionNumber)

	// Metadata-only update: no version bump.
	title := "report v2"
	updated, err := docs.Update(context.Background(), doc.ID, service.DocumentUpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "report v2", updated.Title)
	require.Equal(t, 1, updated.Version)

	// Content update mints version 2.
	updated, err = docs.Update(context.Background(), doc.ID, service.DocumentUpdateInput{
		File: &service.FileInput{
			Content:  testutil.NewMemFile([]byte("v2 content")),
			Size:     10,
			MimeType: "text/plain",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Version)

	versions, err = docs.ListVersions(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, 2, versions[0].VersionNumber)

	// Old version content stays reachable.
	reader, _, err := docs.Download(context.Background(), doc.ID, intPtr(1))
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	require.Equal(t, "v1 content", string(data))

	require.NoError(t, docs.Delete(context.Background(), doc.ID))
	_, err = docs.Get(context.Background(), doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = docs.GetVersion(context.Background(), doc.ID, 1)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentTagReplacement(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := newDocumentService(t, conn)
	owner := testutil.SeedUser(t, conn)

	doc := createDoc(t, docs, owner.ID, "tagged", []string{"a", "b"})

	// Full replacement, including dedupe and whitespace trimming.
	tags := []string{" b ", "c", "c"}
	updated, err := docs.Update(context.Background(), doc.ID, service.DocumentUpdateInput{TagNames: &tags})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b", "c"}, updated.Tags)
	require.Equal(t, 1, updated.Version)

	// Empty non-nil slice clears the set.
	empty := []string{}
	updated, err = docs.Update(context.Background(), doc.ID, service.DocumentUpdateInput{TagNames: &empty})
	require.NoError(t, err)
	require.Empty(t, updated.Tags)

	// Nil leaves tags untouched.
	title := "still tagged"
	tags = []string{"keep"}
	_, err = docs.Update(context.Background(), doc.ID, service.DocumentUpdateInput{TagNames: &tags})
	require.NoError(t, err)
	updated, err = docs.Update(context.Background(), doc.ID, service.DocumentUpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, updated.Tags)
}

func TestCheckoutStateMachine(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := newDocumentService(t, conn)
	alice := testutil.SeedUser(t, conn)
	bob := testutil.SeedUser(t, conn)

	doc := createDoc(t, docs, alice.ID, "contested", nil)

	// Checkin without checkout is rejected.
	_, err := docs.Checkin(context.Background(), doc.ID, alice.ID, "", nil)
	require.ErrorIs(t, err, appErr.ErrConflict)
	require.EqualError(t, err, "Document is not checked out")

	_, err = docs.Checkout(context.Background(), doc.ID, alice.ID, "editing")
	require.NoError(t, err)

	// Same-user re-checkout is an idempotent no-op: no error, no extra
	// activity, original checkout_time preserved.
	co, err := docs.CurrentCheckout(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, co)
	firstTime := co.CheckoutTime
	_, err = docs.Checkout(context.Background(), doc.ID, alice.ID, "again")
	require.NoError(t, err)
	co, err = docs.CurrentCheckout(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, firstTime, co.CheckoutTime)

	// Another user can neither checkout nor checkin.
	_, err = docs.Checkout(context.Background(), doc.ID, bob.ID, "")
	require.ErrorIs(t, err, appErr.ErrConflict)
	require.EqualError(t, err, "Document is already checked out by another user")
	_, err = docs.Checkin(context.Background(), doc.ID, bob.ID, "", nil)
	require.ErrorIs(t, err, appErr.ErrConflict)
	require.EqualError(t, err, "Document is checked out by another user")

	// Holder checks in without content: lock released, no version change.
	released, err := docs.Checkin(context.Background(), doc.ID, alice.ID, "done", nil)
	require.NoError(t, err)
	require.Equal(t, 1, released.Version)
	co, err = docs.CurrentCheckout(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Nil(t, co)

	// Bob can lock now.
	_, err = docs.Checkout(context.Background(), doc.ID, bob.ID, "")
	require.NoError(t, err)

	activities, err := docs.Activities(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	// Newest first; re-checkout left no trace.
	require.Equal(t, model.ActivityCheckout, activities[0].ActivityType)
	require.Equal(t, bob.ID, activities[0].User.ID)
	require.Equal(t, model.ActivityCheckin, activities[1].ActivityType)
	require.Equal(t, alice.ID, activities[1].User.ID)
	require.Equal(t, model.ActivityCheckout, activities[2].ActivityType)
	require.Equal(t, alice.ID, activities[2].User.ID)
	require.Equal(t, "editing", activities[2].Details)
}

func TestCheckinWithNewContent(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := newDocumentService(t, conn)
	owner := testutil.SeedUser(t, conn)

	doc := createDoc(t, docs, owner.ID, "versioned", nil)

	_, err := docs.Checkout(context.Background(), doc.ID, owner.ID, "")
	require.NoError(t, err)

	updated, err := docs.Checkin(context.Background(), doc.ID, owner.ID, "second draft", &service.FileInput{
		Content:  testutil.NewMemFile([]byte("draft 2")),
		Size:     7,
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Version)

	version, err := docs.GetVersion(context.Background(), doc.ID, 2)
	require.NoError(t, err)
	require.Equal(t, "second draft", version.Changes)

	co, err := docs.CurrentCheckout(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Nil(t, co)
}

func TestCreateCommitsNothingOnBlobFailure(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	store := &flakyStore{Store: testutil.NewLocalStore(t), failSave: true}
	docs := newDocumentServiceWithStore(conn, store)
	owner := testutil.SeedUser(t, conn)

	_, err := docs.Create(context.Background(), owner.ID, service.DocumentCreateInput{
		Title: "doomed",
		File: service.FileInput{
			Content:  testutil.NewMemFile([]byte("content")),
			Size:     7,
			MimeType: "text/plain",
		},
	})
	require.Error(t, err)
	require.True(t, appErr.IsStorage(err))

	// The blob write happens before any transaction opens, so nothing lands.
	list, err := docs.List(context.Background(), &owner.ID, 100, 0)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCheckinKeepsLockOnBlobFailure(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	store := &flakyStore{Store: testutil.NewLocalStore(t)}
	docs := newDocumentServiceWithStore(conn, store)
	owner := testutil.SeedUser(t, conn)

	doc, err := docs.Create(context.Background(), owner.ID, service.DocumentCreateInput{
		Title: "locked",
		File: service.FileInput{
			Content:  testutil.NewMemFile([]byte("v1 content")),
			Size:     10,
			MimeType: "text/plain",
		},
	})
	require.NoError(t, err)

	_, err = docs.Checkout(context.Background(), doc.ID, owner.ID, "")
	require.NoError(t, err)

	store.failSave = true
	_, err = docs.Checkin(context.Background(), doc.ID, owner.ID, "bad draft", &service.FileInput{
		Content:  testutil.NewMemFile([]byte("draft 2")),
		Size:     7,
		MimeType: "text/plain",
	})
	require.Error(t, err)
	require.True(t, appErr.IsStorage(err))

	// The whole checkin rolled back: lock retained, no version minted.
	co, err := docs.CurrentCheckout(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, co)
	require.Equal(t, owner.ID, co.UserID)

	current, err := docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, current.Version)
	versions, err := docs.ListVersions(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	// Once the backend recovers the held lock is still usable.
	store.failSave = false
	updated, err := docs.Checkin(context.Background(), doc.ID, owner.ID, "good draft", &service.FileInput{
		Content:  testutil.NewMemFile([]byte("draft 2")),
		Size:     7,
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Version)
}

func TestConcurrentCheckoutSingleWinner(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := newDocumentService(t, conn)
	owner := testutil.SeedUser(t, conn)

	doc := createDoc(t, docs, owner.ID, "contested", nil)

	const contenders = 8
	users := make([]*model.User, contenders)
	for i := range users {
		users[i] = testutil.SeedUser(t, conn)
	}

	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = docs.Checkout(context.Background(), doc.ID, users[i].ID, "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, appErr.ErrConflict)
		require.EqualError(t, err, "Document is already checked out by another user")
	}
	require.Equal(t, 1, winners)

	co, err := docs.CurrentCheckout(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, co)
}

func TestListFiltersByOwner(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	docs := newDocumentService(t, conn)
	alice := testutil.SeedUser(t, conn)
	bob := testutil.SeedUser(t, conn)

	createDoc(t, docs, alice.ID, "alice doc", nil)
	createDoc(t, docs, bob.ID, "bob doc", nil)

	mine, err := docs.List(context.Background(), &alice.ID, 100, 0)
	require.NoError(t, err)
	for _, doc := range mine {
		require.Equal(t, alice.ID, doc.OwnerID)
	}
	require.NotEmpty(t, mine)
}

func intPtr(v int) *int {
	return &v
}
