package cartrepo

import (
	"context"
	"database/sql"

	"booknest/model"
)

// Repo persists the per-user cart. The cart is a staging cache, not a record
// of truth: callers may treat Save failures as non-fatal.
type Repo interface {
	Load(ctx context.Context, userID int64) (*model.Cart, error)
	Save(ctx context.Context, userID int64, c *model.Cart) error
	Clear(ctx context.Context, userID int64) error
	ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Load(ctx context.Context, userID int64) (*model.Cart, error) {
	const q = `
	SELECT book_id, pickup_date, borrowing_duration
	FROM cart_items
	WHERE user_id = $1
	ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c := &model.Cart{}
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.BookID, &it.PickupDate, &it.BorrowingDuration); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

// Save rewrites the user's cart rows to match the aggregate.
func (r *repo) Save(ctx context.Context, userID int64, c *model.Cart) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return err
	}
	const ins = `
	INSERT INTO cart_items (user_id, book_id, pickup_date, borrowing_duration, position)
	VALUES ($1,$2,$3,$4,$5)`
	for i, it := range c.Items {
		if _, err = tx.ExecContext(ctx, ins, userID, it.BookID, it.PickupDate, it.BorrowingDuration, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *repo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func (r *repo) ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
