package wishlistrepo

import (
	"context"
	"database/sql"
	"errors"

	"booknest/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate maps the (user_id, book_id) unique constraint.
var ErrDuplicate = errors.New("book already in wishlist")

type Repo interface {
	Add(ctx context.Context, item *model.WishlistItem) error
	RemoveByBook(ctx context.Context, userID, bookID int64) (bool, error)
	RemoveByID(ctx context.Context, userID int64, id uuid.UUID) (bool, error)
	Update(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error)
	List(ctx context.Context, userID int64) ([]model.WishlistItem, error)
	BookIDs(ctx context.Context, userID int64) ([]int64, error)
	Clear(ctx context.Context, userID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Add(ctx context.Context, item *model.WishlistItem) error {
	const q = `
	INSERT INTO wishlist_items (id, user_id, book_id, priority, notes)
	VALUES ($1,$2,$3,$4,$5)
	RETURNING created_at`
	err := r.db.QueryRowContext(ctx, q,
		item.ID, item.UserID, item.BookID, item.Priority, item.Notes,
	).Scan(&item.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *repo) RemoveByBook(ctx context.Context, userID, bookID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) RemoveByID(ctx context.Context, userID int64, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Update(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error) {
	const q = `
	UPDATE wishlist_items
	SET priority = COALESCE($3, priority),
	    notes    = COALESCE($4, notes)
	WHERE user_id = $1 AND id = $2
	RETURNING id, user_id, book_id, priority, notes, created_at`
	it := &model.WishlistItem{}
	err := r.db.QueryRowContext(ctx, q, userID, id, priority, notes).Scan(
		&it.ID, &it.UserID, &it.BookID, &it.Priority, &it.Notes, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repo) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	const q = `
	SELECT id, user_id, book_id, priority, notes, created_at
	FROM wishlist_items
	WHERE user_id = $1
	ORDER BY priority DESC, created_at`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WishlistItem
	for rows.Next() {
		var it model.WishlistItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.BookID, &it.Priority, &it.Notes, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) BookIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT book_id FROM wishlist_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = $1`, userID)
	return err
}
