package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/dbutil"
)

type DocumentTagRepo struct {
	db *sql.DB
}

func NewDocumentTagRepo(db *sql.DB) *DocumentTagRepo {
	return &DocumentTagRepo{db: db}
}

func (r *DocumentTagRepo) Add(ctx context.Context, q dbutil.Queryer, docTag *model.DocumentTag) error {
	data := map[string]interface{}{
		"document_id": docTag.DocumentID,
		"tag_id":      docTag.TagID,
	}
	sqlStr, args, err := builder.BuildInsert("document_tags", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentTagRepo) DeleteByDoc(ctx context.Context, q dbutil.Queryer, docID string) error {
	sqlStr, args, err := builder.BuildDelete("document_tags", map[string]interface{}{"document_id": docID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentTagRepo) ListNamesByDoc(ctx context.Context, docID string) ([]string, error) {
	sqlStr := `
		SELECT t.name
		FROM document_tags dt
		JOIN tags t ON t.id = dt.tag_id
		WHERE dt.document_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, docID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *DocumentTagRepo) ListNamesByDocIDs(ctx context.Context, docIDs []string) (map[string][]string, error) {
	if len(docIDs) == 0 {
		return map[string][]string{}, nil
	}
	sqlStr := `
		SELECT dt.document_id, t.name
		FROM document_tags dt
		JOIN tags t ON t.id = dt.tag_id
		WHERE dt.document_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, pq.Array(docIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	result := make(map[string][]string)
	for rows.Next() {
		var docID, name string
		if err := rows.Scan(&docID, &name); err != nil {
			return nil, err
		}
		result[docID] = append(result[docID], name)
	}
	return result, rows.Err()
}
