package repo

import (
	"context"
	"database/sql"

	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/dbutil"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
)

type CheckoutRepo struct {
	db *sql.DB
}

func NewCheckoutRepo(db *sql.DB) *CheckoutRepo {
	return &CheckoutRepo{db: db}
}

// TryInsert attempts to take the exclusive lock with a single atomic
// statement. ON CONFLICT DO NOTHING rides on the unique constraint over
// document_id: when two callers race, exactly one insert lands and the other
// reports inserted=false without aborting the enclosing transaction.
func (r *CheckoutRepo) TryInsert(ctx context.Context, q dbutil.Queryer, co *model.DocumentCheckout) (bool, error) {
	sqlStr := `
		INSERT INTO document_checkouts (id, document_id, user_id, checkout_time, comments)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id) DO NOTHING
		RETURNING id
	`
	var id string
	err := q.QueryRowContext(ctx, sqlStr, co.ID, co.DocumentID, co.UserID, co.CheckoutTime, co.Comments).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *CheckoutRepo) GetByDoc(ctx context.Context, docID string) (*model.DocumentCheckout, error) {
	return r.getByDoc(ctx, r.db, docID, false)
}

// GetByDocForUpdate reads the lock row with FOR UPDATE so a concurrent
// checkin on the same document serializes behind this transaction.
func (r *CheckoutRepo) GetByDocForUpdate(ctx context.Context, q dbutil.Queryer, docID string) (*model.DocumentCheckout, error) {
	return r.getByDoc(ctx, q, docID, true)
}

func (r *CheckoutRepo) getByDoc(ctx context.Context, q dbutil.Queryer, docID string, forUpdate bool) (*model.DocumentCheckout, error) {
	sqlStr := `
		SELECT id, document_id, user_id, checkout_time, comments
		FROM document_checkouts
		WHERE document_id = $1
	`
	if forUpdate {
		sqlStr += " FOR UPDATE"
	}
	var co model.DocumentCheckout
	err := q.QueryRowContext(ctx, sqlStr, docID).Scan(&co.ID, &co.DocumentID, &co.UserID, &co.CheckoutTime, &co.Comments)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &co, nil
}

// DeleteByDoc releases the lock. Zero affected rows is not an error: callers
// either verified the row under FOR UPDATE (checkin) or are cascading a
// document delete where no lock may exist.
func (r *CheckoutRepo) DeleteByDoc(ctx context.Context, q dbutil.Queryer, docID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM document_checkouts WHERE document_id = $1", docID)
	return err
}

// ListOlderThan returns locks taken before the cutoff, oldest first. Used by
// the stale-checkout report job; never mutates anything.
func (r *CheckoutRepo) ListOlderThan(ctx context.Context, cutoff int64) ([]model.DocumentCheckout, error) {
	sqlStr := `
		SELECT id, document_id, user_id, checkout_time, comments
		FROM document_checkouts
		WHERE checkout_time < $1
		ORDER BY checkout_time ASC
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, cutoff)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.DocumentCheckout, 0)
	for rows.Next() {
		var co model.DocumentCheckout
		if err := rows.Scan(&co.ID, &co.DocumentID, &co.UserID, &co.CheckoutTime, &co.Comments); err != nil {
			return nil, err
		}
		items = append(items, co)
	}
	return items, rows.Err()
}
