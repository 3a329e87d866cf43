package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"booknest/model"

	"github.com/lib/pq"
)

type Repo interface {
	CreateBook(ctx context.Context, b *model.Book) (int64, error)
	AddCopies(ctx context.Context, bookID int64, n int) (int64, error)
	SetCopyStatus(ctx context.Context, copyID int64, status model.CopyStatus) error
	List(ctx context.Context, genre, search string) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) CreateBook(ctx context.Context, b *model.Book) (int64, error) {
	const q = `
INSERT INTO books (title, author, genres, cover_url)
VALUES ($1,$2,$3,$4)
RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, b.Title, b.Author, pq.Array(b.Genres), b.CoverURL).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) AddCopies(ctx context.Context, bookID int64, n int) (int64, error) {
	if n <= 0 {
		return 0, errors.New("n must be > 0")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	const ins = `INSERT INTO book_copies (book_id, status) VALUES ($1,'AVAILABLE')`
	for i := 0; i < n; i++ {
		if _, err = tx.ExecContext(ctx, ins, bookID); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return int64(n), nil
}

func (r *repo) SetCopyStatus(ctx context.Context, copyID int64, status model.CopyStatus) error {
	const q = `UPDATE book_copies SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, copyID, status)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) List(ctx context.Context, genre, search string) ([]model.Book, error) {
	const q = `
	SELECT b.id, b.title, b.author, b.genres, COALESCE(b.cover_url,''),
		COUNT(bc.*)::BIGINT AS copies_total,
		COALESCE(COUNT(bc.*) FILTER (WHERE bc.status='AVAILABLE'),0)::BIGINT AS copies_on_shelf
	FROM books b
	LEFT JOIN book_copies bc ON bc.book_id=b.id
	WHERE ($1 = '' OR $1 = ANY(b.genres))
	  AND ($2 = '' OR b.title ILIKE '%'||$2||'%' OR b.author ILIKE '%'||$2||'%')
	GROUP BY b.id
	ORDER BY b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, genre, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, pq.Array(&b.Genres), &b.CoverURL,
			&b.CopiesTotal, &b.CopiesOnShelf); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
SELECT b.id, b.title, b.author, b.genres, COALESCE(b.cover_url,''),
       COUNT(bc.*)::BIGINT AS copies_total,
       COALESCE(COUNT(bc.*) FILTER (WHERE bc.status='AVAILABLE'),0)::BIGINT AS copies_on_shelf
FROM books b
LEFT JOIN book_copies bc ON bc.book_id=b.id
WHERE b.id=$1
GROUP BY b.id`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, pq.Array(&b.Genres),
		&b.CoverURL, &b.CopiesTotal, &b.CopiesOnShelf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
