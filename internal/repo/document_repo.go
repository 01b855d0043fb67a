package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/dbutil"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

var documentColumns = []string{"id", "title", "description", "file_path", "mime_type", "owner_id", "version", "ctime", "mtime"}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.FilePath, &doc.MimeType, &doc.OwnerID, &doc.Version, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) Create(ctx context.Context, q dbutil.Queryer, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"title":       doc.Title,
		"description": doc.Description,
		"file_path":   doc.FilePath,
		"mime_type":   doc.MimeType,
		"owner_id":    doc.OwnerID,
		"version":     doc.Version,
		"ctime":       doc.Ctime,
		"mtime":       doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, q dbutil.Queryer, docID string) (*model.Document, error) {
	if q == nil {
		q = r.db
	}
	where := map[string]interface{}{"id": docID}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanDocument(rows)
}

func (r *DocumentRepo) List(ctx context.Context, ownerID *string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{"_orderby": "ctime desc"}
	if ownerID != nil {
		where["owner_id"] = *ownerID
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateMeta replaces title/description; only keys present in fields change.
func (r *DocumentRepo) UpdateMeta(ctx context.Context, q dbutil.Queryer, docID string, fields map[string]interface{}, mtime int64) error {
	if len(fields) == 0 {
		return nil
	}
	update := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	update["mtime"] = mtime
	sqlStr, args, err := builder.BuildUpdate("documents", map[string]interface{}{"id": docID}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// BumpVersion atomically increments the current version pointer and returns
// the new number. The increment is done in SQL so concurrent bumps can never
// both observe the same value.
func (r *DocumentRepo) BumpVersion(ctx context.Context, q dbutil.Queryer, docID string, mtime int64) (int, error) {
	sqlStr := `
		UPDATE documents
		SET version = version + 1, mtime = $1
		WHERE id = $2
		RETURNING version
	`
	var version int
	err := q.QueryRowContext(ctx, sqlStr, mtime, docID).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, appErr.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (r *DocumentRepo) TouchMtime(ctx context.Context, q dbutil.Queryer, docID string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate("documents", map[string]interface{}{"id": docID}, map[string]interface{}{"mtime": mtime})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) Delete(ctx context.Context, q dbutil.Queryer, docID string) error {
	sqlStr, args, err := builder.BuildDelete("documents", map[string]interface{}{"id": docID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
