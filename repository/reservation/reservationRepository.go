package reservationrepo

import (
	"context"
	"database/sql"
	"time"

	"booknest/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repo persists reservations. Methods taking a *sql.Tx participate in a
// transaction owned by the service layer; status changes always happen
// behind GetForUpdate so two transitions cannot race on one row.
type Repo interface {
	NextNumberSeq(ctx context.Context, tx *sql.Tx) (int64, error)
	PickAvailableCopyForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error)
	SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error
	Insert(ctx context.Context, tx *sql.Tx, rsv *model.Reservation) error

	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.ReservationStatus, qr *string) error

	ByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ByNumber(ctx context.Context, number string) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID int64, statuses []model.ReservationStatus) ([]model.Reservation, error)
	ListAll(ctx context.Context, statuses []model.ReservationStatus) ([]model.Reservation, error)
	ListExpirable(ctx context.Context, deadline time.Time, limit int) ([]uuid.UUID, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) NextNumberSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `SELECT nextval('reservation_number_seq')`).Scan(&n)
	return n, err
}

func (r *repo) PickAvailableCopyForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error) {
	// SKIP LOCKED so two checkouts never fight over the same copy
	const q = `
	SELECT id
	FROM book_copies
	WHERE book_id = $1
	  AND status = 'AVAILABLE'
	ORDER BY id
	FOR UPDATE SKIP LOCKED
	LIMIT 1`
	var copyID int64
	err := tx.QueryRowContext(ctx, q, bookID).Scan(&copyID)
	return copyID, err
}

func (r *repo) SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error {
	const q = `UPDATE book_copies SET status = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, copyID, status)
	return err
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rsv *model.Reservation) error {
	const q = `
	INSERT INTO reservations (id, reservation_number, user_id, pickup_date, status, notes)
	VALUES ($1,$2,$3,$4,$5,$6)
	RETURNING created_at`
	if err := tx.QueryRowContext(ctx, q,
		rsv.ID, rsv.ReservationNumber, rsv.UserID, rsv.PickupDate, rsv.Status, rsv.Notes,
	).Scan(&rsv.CreatedAt); err != nil {
		return err
	}

	const qi = `
	INSERT INTO reservation_items (reservation_id, book_id, copy_id, borrowing_duration, due_date)
	VALUES ($1,$2,$3,$4,$5)`
	for _, it := range rsv.Items {
		if _, err := tx.ExecContext(ctx, qi, rsv.ID, it.BookID, it.CopyID, it.BorrowingDuration, it.DueDate); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Reservation, error) {
	const q = `
	SELECT id, reservation_number, user_id, pickup_date, status, qr_code, notes, created_at
	FROM reservations
	WHERE id = $1
	FOR UPDATE`
	rsv := &model.Reservation{}
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&rsv.ID, &rsv.ReservationNumber, &rsv.UserID, &rsv.PickupDate,
		&rsv.Status, &rsv.QRCode, &rsv.Notes, &rsv.CreatedAt)
	if err != nil {
		return nil, err
	}
	rsv.Items, err = r.itemsTx(ctx, tx, id)
	return rsv, err
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.ReservationStatus, qr *string) error {
	const q = `
	UPDATE reservations
	SET status = $2,
	    qr_code = COALESCE($3, qr_code)
	WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, qr)
	return err
}

const selectReservation = `
	SELECT id, reservation_number, user_id, pickup_date, status, qr_code, notes, created_at
	FROM reservations`

func (r *repo) ByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return r.one(ctx, selectReservation+` WHERE id = $1`, id)
}

func (r *repo) ByNumber(ctx context.Context, number string) (*model.Reservation, error) {
	return r.one(ctx, selectReservation+` WHERE reservation_number = $1`, number)
}

func (r *repo) one(ctx context.Context, q string, arg any) (*model.Reservation, error) {
	rsv := &model.Reservation{}
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&rsv.ID, &rsv.ReservationNumber, &rsv.UserID, &rsv.PickupDate,
		&rsv.Status, &rsv.QRCode, &rsv.Notes, &rsv.CreatedAt)
	if err != nil {
		return nil, err
	}
	rsv.Items, err = r.items(ctx, rsv.ID)
	return rsv, err
}

func (r *repo) ListByUser(ctx context.Context, userID int64, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	const q = selectReservation + `
	WHERE user_id = $1
	  AND (cardinality($2::text[]) = 0 OR status = ANY($2))
	ORDER BY created_at DESC`
	return r.list(ctx, q, userID, pq.Array(statusArray(statuses)))
}

func (r *repo) ListAll(ctx context.Context, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	const q = selectReservation + `
	WHERE (cardinality($1::text[]) = 0 OR status = ANY($1))
	ORDER BY created_at DESC`
	return r.list(ctx, q, pq.Array(statusArray(statuses)))
}

// ListExpirable returns pending/confirmed reservations whose pickup window
// closed before deadline. The cleaner transitions them one by one so each
// gets the normal FOR UPDATE treatment.
func (r *repo) ListExpirable(ctx context.Context, deadline time.Time, limit int) ([]uuid.UUID, error) {
	const q = `
	SELECT id
	FROM reservations
	WHERE status IN ('PENDING','CONFIRMED')
	  AND pickup_date < $1
	ORDER BY pickup_date
	LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, deadline, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var rsv model.Reservation
		if err := rows.Scan(&rsv.ID, &rsv.ReservationNumber, &rsv.UserID, &rsv.PickupDate,
			&rsv.Status, &rsv.QRCode, &rsv.Notes, &rsv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rsv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const selectItems = `
	SELECT book_id, copy_id, borrowing_duration, due_date
	FROM reservation_items
	WHERE reservation_id = $1
	ORDER BY copy_id`

func (r *repo) items(ctx context.Context, id uuid.UUID) ([]model.ReservationItem, error) {
	rows, err := r.db.QueryContext(ctx, selectItems, id)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *repo) itemsTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) ([]model.ReservationItem, error) {
	rows, err := tx.QueryContext(ctx, selectItems, id)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.ReservationItem, error) {
	defer rows.Close()
	var items []model.ReservationItem
	for rows.Next() {
		var it model.ReservationItem
		if err := rows.Scan(&it.BookID, &it.CopyID, &it.BorrowingDuration, &it.DueDate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func statusArray(statuses []model.ReservationStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
