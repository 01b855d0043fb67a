package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/dbutil"
)

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// Upsert resolves a tag name to its id, inserting the tag when absent. The
// no-op DO UPDATE makes RETURNING yield the id on both paths, so concurrent
// resolutions of the same new name cannot create duplicates.
func (r *TagRepo) Upsert(ctx context.Context, q dbutil.Queryer, id, name string) (string, error) {
	sqlStr := `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	var tagID string
	if err := q.QueryRowContext(ctx, sqlStr, id, name).Scan(&tagID); err != nil {
		return "", err
	}
	return tagID, nil
}

func (r *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	where := map[string]interface{}{"_orderby": "name asc"}
	sqlStr, args, err := builder.BuildSelect("tags", where, []string{"id", "name"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tags := make([]model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
