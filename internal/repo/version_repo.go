package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/dbutil"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
)

type VersionRepo struct {
	db *sql.DB
}

func NewVersionRepo(db *sql.DB) *VersionRepo {
	return &VersionRepo{db: db}
}

var versionColumns = []string{"id", "document_id", "version_number", "file_path", "changes", "ctime"}

func scanVersion(rows *sql.Rows) (*model.DocumentVersion, error) {
	var v model.DocumentVersion
	if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.FilePath, &v.Changes, &v.Ctime); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VersionRepo) Create(ctx context.Context, q dbutil.Queryer, version *model.DocumentVersion) error {
	data := map[string]interface{}{
		"id":             version.ID,
		"document_id":    version.DocumentID,
		"version_number": version.VersionNumber,
		"file_path":      version.FilePath,
		"changes":        version.Changes,
		"ctime":          version.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("document_versions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *VersionRepo) GetByVersion(ctx context.Context, docID string, versionNumber int) (*model.DocumentVersion, error) {
	where := map[string]interface{}{
		"document_id":    docID,
		"version_number": versionNumber,
	}
	sqlStr, args, err := builder.BuildSelect("document_versions", where, versionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanVersion(rows)
}

func (r *VersionRepo) List(ctx context.Context, docID string) ([]model.DocumentVersion, error) {
	where := map[string]interface{}{
		"document_id": docID,
		"_orderby":    "version_number desc",
	}
	sqlStr, args, err := builder.BuildSelect("document_versions", where, versionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	versions := make([]model.DocumentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

func (r *VersionRepo) DeleteByDoc(ctx context.Context, q dbutil.Queryer, docID string) error {
	sqlStr, args, err := builder.BuildDelete("document_versions", map[string]interface{}{"document_id": docID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}
