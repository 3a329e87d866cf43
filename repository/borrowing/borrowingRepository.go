package borrowingrepo

import (
	"context"
	"database/sql"
	"time"

	"booknest/model"

	"github.com/google/uuid"
)

type Repo interface {
	InsertTx(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error

	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Borrowing, error)
	SetDueDate(ctx context.Context, tx *sql.Tx, id uuid.UUID, due time.Time, extended bool) error
	MarkReturned(ctx context.Context, tx *sql.Tx, id uuid.UUID, returnedAt time.Time, fine float64) error
	SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error
	SetFineInvoice(ctx context.Context, tx *sql.Tx, id uuid.UUID, invoiceID string) error
	MarkFinePaid(ctx context.Context, tx *sql.Tx, id uuid.UUID) error

	ByID(ctx context.Context, id uuid.UUID) (*model.Borrowing, error)
	ByFineInvoiceID(ctx context.Context, invoiceID string) (*model.Borrowing, error)
	ListByUser(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error)
	ListAll(ctx context.Context, active *bool) ([]model.Borrowing, error)
	Stats(ctx context.Context, userID int64, now time.Time, finePerDay float64) (*model.DashboardStats, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error {
	const q = `
	INSERT INTO borrowings (id, reservation_id, user_id, book_id, copy_id, borrowed_at, due_date, extended)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := tx.ExecContext(ctx, q,
		b.ID, b.ReservationID, b.UserID, b.BookID, b.CopyID, b.BorrowedAt, b.DueDate, b.Extended)
	return err
}

const selectBorrowing = `
	SELECT id, reservation_id, user_id, book_id, copy_id, borrowed_at, due_date,
	       extended, returned_at, fine_amount, fine_paid, fine_invoice_id
	FROM borrowings`

func scanBorrowing(row *sql.Row) (*model.Borrowing, error) {
	b := &model.Borrowing{}
	err := row.Scan(&b.ID, &b.ReservationID, &b.UserID, &b.BookID, &b.CopyID,
		&b.BorrowedAt, &b.DueDate, &b.Extended, &b.ReturnedAt,
		&b.FineAmount, &b.FinePaid, &b.FineInvoiceID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Borrowing, error) {
	return scanBorrowing(tx.QueryRowContext(ctx, selectBorrowing+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) SetDueDate(ctx context.Context, tx *sql.Tx, id uuid.UUID, due time.Time, extended bool) error {
	const q = `UPDATE borrowings SET due_date = $2, extended = $3 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, due, extended)
	return err
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id uuid.UUID, returnedAt time.Time, fine float64) error {
	const q = `
	UPDATE borrowings
	SET returned_at = $2,
	    fine_amount = $3,
	    fine_paid   = (CASE WHEN $3 = 0 THEN TRUE ELSE fine_paid END)
	WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, returnedAt, fine)
	return err
}

func (r *repo) SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error {
	const q = `UPDATE book_copies SET status = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, copyID, status)
	return err
}

func (r *repo) SetFineInvoice(ctx context.Context, tx *sql.Tx, id uuid.UUID, invoiceID string) error {
	const q = `UPDATE borrowings SET fine_invoice_id = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, invoiceID)
	return err
}

func (r *repo) MarkFinePaid(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	const q = `UPDATE borrowings SET fine_paid = TRUE WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	return scanBorrowing(r.db.QueryRowContext(ctx, selectBorrowing+` WHERE id = $1`, id))
}

func (r *repo) ByFineInvoiceID(ctx context.Context, invoiceID string) (*model.Borrowing, error) {
	return scanBorrowing(r.db.QueryRowContext(ctx, selectBorrowing+` WHERE fine_invoice_id = $1`, invoiceID))
}

func (r *repo) ListByUser(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
	q := selectBorrowing + ` WHERE user_id = $1`
	q += activeClause(active)
	q += ` ORDER BY borrowed_at DESC`
	return r.list(ctx, q, userID)
}

func (r *repo) ListAll(ctx context.Context, active *bool) ([]model.Borrowing, error) {
	q := selectBorrowing + ` WHERE TRUE`
	q += activeClause(active)
	q += ` ORDER BY borrowed_at DESC`
	return r.list(ctx, q)
}

func activeClause(active *bool) string {
	if active == nil {
		return ""
	}
	if *active {
		return ` AND returned_at IS NULL`
	}
	return ` AND returned_at IS NOT NULL`
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Borrowing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrowing
	for rows.Next() {
		var b model.Borrowing
		if err := rows.Scan(&b.ID, &b.ReservationID, &b.UserID, &b.BookID, &b.CopyID,
			&b.BorrowedAt, &b.DueDate, &b.Extended, &b.ReturnedAt,
			&b.FineAmount, &b.FinePaid, &b.FineInvoiceID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Stats mirrors the schedule package's day-granular rules: a borrowing is
// overdue once a whole day has passed since its due date, and active overdue
// rows carry a live fine of finePerDay per whole day late. Frozen fines only
// count once the borrowing is back.
func (r *repo) Stats(ctx context.Context, userID int64, now time.Time, finePerDay float64) (*model.DashboardStats, error) {
	const q = `
	SELECT
		COUNT(*) FILTER (WHERE returned_at IS NULL),
		COUNT(*) FILTER (WHERE returned_at IS NULL AND due_date <= $2 - interval '1 day'),
		COUNT(*) FILTER (WHERE returned_at IS NOT NULL),
		COALESCE(SUM(fine_amount) FILTER (WHERE returned_at IS NOT NULL AND NOT fine_paid), 0)
		+ COALESCE(SUM(floor(extract(epoch FROM ($2 - due_date)) / 86400) * $3)
			FILTER (WHERE returned_at IS NULL AND due_date <= $2 - interval '1 day'), 0)
	FROM borrowings
	WHERE user_id = $1`
	s := &model.DashboardStats{}
	err := r.db.QueryRowContext(ctx, q, userID, now, finePerDay).Scan(
		&s.ActiveBorrowings, &s.OverdueBorrowings, &s.ReturnedTotal, &s.OutstandingFines)
	if err != nil {
		return nil, err
	}
	return s, nil
}
