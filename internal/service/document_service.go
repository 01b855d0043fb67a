package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuvault/docuvault/internal/filestore"
	"github.com/docuvault/docuvault/internal/model"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/timeutil"
	"github.com/docuvault/docuvault/internal/repo"
)

// DocumentService is the versioning and checkout engine. Every public method
// is one atomic unit against the database: all row mutations of an operation
// become visible together or not at all. The service trusts the caller's
// identity and permission decision; it applies no authorization itself.
type DocumentService struct {
	docs       *repo.DocumentRepo
	versions   *repo.VersionRepo
	tags       *repo.TagRepo
	docTags    *repo.DocumentTagRepo
	checkouts  *repo.CheckoutRepo
	activities *repo.ActivityRepo
	store      filestore.Store
}

func NewDocumentService(docs *repo.DocumentRepo, versions *repo.VersionRepo, tags *repo.TagRepo, docTags *repo.DocumentTagRepo, checkouts *repo.CheckoutRepo, activities *repo.ActivityRepo, store filestore.Store) *DocumentService {
	return &DocumentService{docs: docs, versions: versions, tags: tags, docTags: docTags, checkouts: checkouts, activities: activities, store: store}
}

type FileInput struct {
	Content  filestore.ReadSeekCloser
	Size     int64
	MimeType string
}

type DocumentCreateInput struct {
	Title       string
	Description string
	TagNames    []string
	File        FileInput
}

// DocumentUpdateInput has partial-update semantics: nil fields are left
// untouched. A non-nil empty TagNames clears the tag set.
type DocumentUpdateInput struct {
	Title       *string
	Description *string
	TagNames    *[]string
	File        *FileInput
}

func blobKey(ownerID, docID string, version int) string {
	return fmt.Sprintf("%s/%s/v%d", ownerID, docID, version)
}

func normalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (s *DocumentService) Create(ctx context.Context, ownerID string, input DocumentCreateInput) (*model.Document, error) {
	if input.Title == "" {
		return nil, appErr.ErrInvalid
	}
	if input.File.Content == nil {
		return nil, appErr.ErrInvalid
	}
	docID := newID()
	now := timeutil.NowUnix()
	key := blobKey(ownerID, docID, 1)

	// Blob first, rows second: a failed write must never leave a committed
	// document pointing at missing content.
	if err := s.store.Save(ctx, key, input.File.Content, input.File.Size); err != nil {
		return nil, appErr.Storage("write", err)
	}

	tx, err := s.docs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	doc := &model.Document{
		ID:          docID,
		Title:       input.Title,
		Description: input.Description,
		FilePath:    key,
		MimeType:    input.File.MimeType,
		OwnerID:     ownerID,
		Version:     1,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.docs.Create(ctx, tx, doc); err != nil {
		return nil, err
	}
	version := &model.DocumentVersion{
		ID:            newID(),
		DocumentID:    docID,
		VersionNumber: 1,
		FilePath:      key,
		Ctime:         now,
	}
	if err := s.versions.Create(ctx, tx, version); err != nil {
		return nil, err
	}
	tagNames := normalizeTagNames(input.TagNames)
	if err := s.replaceTags(ctx, tx, docID, tagNames); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	doc.Tags = tagNames
	logutil.GetLogger(ctx).Info("document created",
		zap.String("doc_id", docID),
		zap.String("owner_id", ownerID),
		zap.Int("version", 1),
	)
	return doc, nil
}

func (s *DocumentService) Update(ctx context.Context, docID string, input DocumentUpdateInput) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, docID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil && *input.Title == "" {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()

	tx, err := s.docs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	fields := map[string]interface{}{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}

	if input.File != nil {
		// The bump row-locks the document, serializing concurrent content
		// updates; the new number is only visible after commit.
		newVersion, err := s.docs.BumpVersion(ctx, tx, docID, now)
		if err != nil {
			return nil, err
		}
		key := blobKey(doc.OwnerID, docID, newVersion)
		if err := s.store.Save(ctx, key, input.File.Content, input.File.Size); err != nil {
			return nil, appErr.Storage("write", err)
		}
		fields["file_path"] = key
		fields["mime_type"] = input.File.MimeType
		version := &model.DocumentVersion{
			ID:            newID(),
			DocumentID:    docID,
			VersionNumber: newVersion,
			FilePath:      key,
			Ctime:         now,
		}
		if err := s.versions.Create(ctx, tx, version); err != nil {
			return nil, err
		}
	}

	if len(fields) > 0 {
		if err := s.docs.UpdateMeta(ctx, tx, docID, fields, now); err != nil {
			return nil, err
		}
	} else {
		if err := s.docs.TouchMtime(ctx, tx, docID, now); err != nil {
			return nil, err
		}
	}

	if input.TagNames != nil {
		if err := s.replaceTags(ctx, tx, docID, normalizeTagNames(*input.TagNames)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.Get(ctx, docID)
}

func (s *DocumentService) Delete(ctx context.Context, docID string) error {
	if _, err := s.docs.GetByID(ctx, nil, docID); err != nil {
		return err
	}
	tx, err := s.docs.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Child rows go first; the cascade is the engine's job, not the
	// store's. Blobs are deliberately left behind.
	if err := s.activities.DeleteByDoc(ctx, tx, docID); err != nil {
		return err
	}
	if err := s.checkouts.DeleteByDoc(ctx, tx, docID); err != nil {
		return err
	}
	if err := s.docTags.DeleteByDoc(ctx, tx, docID); err != nil {
		return err
	}
	if err := s.versions.DeleteByDoc(ctx, tx, docID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, tx, docID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("document deleted", zap.String("doc_id", docID))
	return nil
}

func (s *DocumentService) Get(ctx context.Context, docID string) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, docID)
	if err != nil {
		return nil, err
	}
	names, err := s.docTags.ListNamesByDoc(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Tags = names
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID *string, limit, offset uint) ([]model.Document, error) {
	docs, err := s.docs.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	namesByDoc, err := s.docTags.ListNamesByDocIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Tags = namesByDoc[docs[i].ID]
	}
	return docs, nil
}

// GetVersion is a point lookup; an absent document and an absent version
// number both come back as ErrNotFound.
func (s *DocumentService) GetVersion(ctx context.Context, docID string, versionNumber int) (*model.DocumentVersion, error) {
	return s.versions.GetByVersion(ctx, docID, versionNumber)
}

func (s *DocumentService) ListVersions(ctx context.Context, docID string) ([]model.DocumentVersion, error) {
	if _, err := s.docs.GetByID(ctx, nil, docID); err != nil {
		return nil, err
	}
	return s.versions.List(ctx, docID)
}

// Checkout drives FREE -> LOCKED(actor). The insert rides on the unique
// constraint over document_id, so of two racing callers exactly one wins;
// the loser observes the existing holder and either no-ops (same user) or
// gets a conflict.
func (s *DocumentService) Checkout(ctx context.Context, docID, actorID, comments string) (*model.Document, error) {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()

	tx, err := s.docs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	co := &model.DocumentCheckout{
		ID:           newID(),
		DocumentID:   docID,
		UserID:       actorID,
		CheckoutTime: now,
		Comments:     comments,
	}
	inserted, err := s.checkouts.TryInsert(ctx, tx, co)
	if err != nil {
		return nil, err
	}
	if !inserted {
		_ = tx.Rollback()
		holder, err := s.checkouts.GetByDoc(ctx, docID)
		if err != nil {
			if appErr.IsNotFound(err) {
				// Lost the insert race and the winner already checked in.
				return nil, appErr.Conflict("Document is already checked out by another user")
			}
			return nil, err
		}
		if holder.UserID == actorID {
			// Re-checkout by the holder: keep the original lock timestamp,
			// log nothing.
			return doc, nil
		}
		return nil, appErr.Conflict("Document is already checked out by another user")
	}
	activity := &model.DocumentActivity{
		DocumentID:   docID,
		UserID:       actorID,
		ActivityType: model.ActivityCheckout,
		ActivityTime: now,
		Details:      comments,
	}
	if err := s.activities.Insert(ctx, tx, activity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document checked out",
		zap.String("doc_id", docID),
		zap.String("user_id", actorID),
	)
	return doc, nil
}

// Checkin drives LOCKED(actor) -> FREE, optionally minting a new content
// version first. A failed blob write aborts the whole operation with the
// lock still held.
func (s *DocumentService) Checkin(ctx context.Context, docID, actorID, comments string, file *FileInput) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, docID)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()

	tx, err := s.docs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	co, err := s.checkouts.GetByDocForUpdate(ctx, tx, docID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.Conflict("Document is not checked out")
		}
		return nil, err
	}
	if co.UserID != actorID {
		return nil, appErr.Conflict("Document is checked out by another user")
	}

	if file != nil {
		newVersion, err := s.docs.BumpVersion(ctx, tx, docID, now)
		if err != nil {
			return nil, err
		}
		key := blobKey(doc.OwnerID, docID, newVersion)
		if err := s.store.Save(ctx, key, file.Content, file.Size); err != nil {
			return nil, appErr.Storage("write", err)
		}
		fields := map[string]interface{}{
			"file_path": key,
			"mime_type": file.MimeType,
		}
		if err := s.docs.UpdateMeta(ctx, tx, docID, fields, now); err != nil {
			return nil, err
		}
		version := &model.DocumentVersion{
			ID:            newID(),
			DocumentID:    docID,
			VersionNumber: newVersion,
			FilePath:      key,
			Changes:       comments,
			Ctime:         now,
		}
		if err := s.versions.Create(ctx, tx, version); err != nil {
			return nil, err
		}
	}

	if err := s.checkouts.DeleteByDoc(ctx, tx, docID); err != nil {
		return nil, err
	}
	activity := &model.DocumentActivity{
		DocumentID:   docID,
		UserID:       actorID,
		ActivityType: model.ActivityCheckin,
		ActivityTime: now,
		Details:      comments,
	}
	if err := s.activities.Insert(ctx, tx, activity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document checked in",
		zap.String("doc_id", docID),
		zap.String("user_id", actorID),
		zap.Bool("new_version", file != nil),
	)
	return s.Get(ctx, docID)
}

func (s *DocumentService) Activities(ctx context.Context, docID string) ([]model.ActivityView, error) {
	if _, err := s.docs.GetByID(ctx, nil, docID); err != nil {
		return nil, err
	}
	return s.activities.ListViews(ctx, docID)
}

func (s *DocumentService) CurrentCheckout(ctx context.Context, docID string) (*model.DocumentCheckout, error) {
	co, err := s.checkouts.GetByDoc(ctx, docID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return co, nil
}

// Download streams the current content, or a historical version's content
// when versionNumber is non-nil.
func (s *DocumentService) Download(ctx context.Context, docID string, versionNumber *int) (io.ReadCloser, *model.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, docID)
	if err != nil {
		return nil, nil, err
	}
	path := doc.FilePath
	if versionNumber != nil {
		version, err := s.versions.GetByVersion(ctx, docID, *versionNumber)
		if err != nil {
			return nil, nil, err
		}
		path = version.FilePath
	}
	reader, err := s.store.Open(ctx, path)
	if err != nil {
		return nil, nil, appErr.Storage("read", err)
	}
	return reader, doc, nil
}

// replaceTags swaps the document's tag set wholesale. Tag rows themselves are
// created on demand and never garbage-collected.
func (s *DocumentService) replaceTags(ctx context.Context, tx *sql.Tx, docID string, names []string) error {
	if err := s.docTags.DeleteByDoc(ctx, tx, docID); err != nil {
		return err
	}
	for _, name := range names {
		tagID, err := s.tags.Upsert(ctx, tx, newID(), name)
		if err != nil {
			return err
		}
		link := &model.DocumentTag{
			DocumentID: docID,
			TagID:      tagID,
		}
		if err := s.docTags.Add(ctx, tx, link); err != nil {
			return err
		}
	}
	return nil
}
