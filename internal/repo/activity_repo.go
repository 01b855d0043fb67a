package repo

import (
	"context"
	"database/sql"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/dbutil"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Insert(ctx context.Context, q dbutil.Queryer, a *model.DocumentActivity) error {
	sqlStr := `
		INSERT INTO document_activities (document_id, user_id, activity_type, activity_time, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return q.QueryRowContext(ctx, sqlStr, a.DocumentID, a.UserID, a.ActivityType, a.ActivityTime, a.Details).Scan(&a.ID)
}

// ListViews returns the activity log newest first, each entry joined with the
// acting user's current display identity. Identity is resolved at read time
// on purpose: a renamed user renames their history.
func (r *ActivityRepo) ListViews(ctx context.Context, docID string) ([]model.ActivityView, error) {
	sqlStr := `
		SELECT a.id, a.activity_type, a.activity_time, a.details,
		       u.id, u.username, u.full_name
		FROM document_activities a
		JOIN users u ON u.id = a.user_id
		WHERE a.document_id = $1
		ORDER BY a.activity_time DESC, a.id DESC
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, docID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	views := make([]model.ActivityView, 0)
	for rows.Next() {
		var v model.ActivityView
		if err := rows.Scan(&v.ID, &v.ActivityType, &v.ActivityTime, &v.Details, &v.User.ID, &v.User.Username, &v.User.FullName); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *ActivityRepo) CountByDoc(ctx context.Context, docID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM document_activities WHERE document_id = $1", docID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ActivityRepo) DeleteByDoc(ctx context.Context, q dbutil.Queryer, docID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM document_activities WHERE document_id = $1", docID)
	return err
}
