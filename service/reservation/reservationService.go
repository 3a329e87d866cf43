package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"booknest/model"
	cartrepo "booknest/repository/cart"
	"booknest/util/schedule"
	jwtutil "booknest/util/jwt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrNotOwner          ErrCode = "NOT_OWNER"
	ErrNoStock           ErrCode = "NO_STOCK"
	ErrInvalidTransition ErrCode = "INVALID_TRANSITION"
	ErrBadToken          ErrCode = "BAD_TOKEN"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// ValidationError carries field-scoped messages for expected user-input
// problems. Submit returns one of these, never a coded error, when the
// request itself is bad; nothing has touched the database in that case.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// dto

type SubmitItem struct {
	BookID            int64
	BorrowingDuration int
}

type SubmitReq struct {
	PickupDate time.Time
	Items      []SubmitItem
	Notes      *string
}

// withDefaults fills omitted item durations, same rule as Cart.Add.
func (r SubmitReq) withDefaults() SubmitReq {
	for i := range r.Items {
		if r.Items[i].BorrowingDuration == 0 {
			r.Items[i].BorrowingDuration = model.DefaultBorrowingDays
		}
	}
	return r
}

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

type BorrowingWriter interface {
	InsertTx(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error
}

type Service interface {
	// Submit turns a validated cart snapshot into a PENDING reservation and
	// clears the submitter's stored cart in the same transaction.
	Submit(ctx context.Context, userID int64, req SubmitReq) (*model.Reservation, error)

	// Confirm moves PENDING -> CONFIRMED and attaches the pickup QR token.
	Confirm(ctx context.Context, userID int64, id uuid.UUID) (*model.Reservation, error)

	// Cancel closes a PENDING/CONFIRMED reservation and frees its copies.
	Cancel(ctx context.Context, userID int64, staff bool, id uuid.UUID) (*model.Reservation, error)

	// MarkPickedUp (staff) closes the reservation and spawns one borrowing
	// per item.
	MarkPickedUp(ctx context.Context, id uuid.UUID) (*model.Reservation, error)

	// Expire is the time-driven transition used by the cleaner.
	Expire(ctx context.Context, id uuid.UUID) error

	VerifyPickupToken(ctx context.Context, token string) (*model.Reservation, error)

	ByID(ctx context.Context, userID int64, staff bool, id uuid.UUID) (*model.Reservation, error)
	ByNumber(ctx context.Context, number string) (*model.Reservation, error)
	Mine(ctx context.Context, userID int64) ([]model.Reservation, error)
	Active(ctx context.Context, userID int64) ([]model.Reservation, error)
	History(ctx context.Context, userID int64) ([]model.Reservation, error)
	All(ctx context.Context, status string) ([]model.Reservation, error)
}

type service struct {
	db     *sql.DB
	r      Repo
	br     BorrowingWriter
	cr     cartrepo.Repo
	secret string

	// collapses concurrent duplicates of the same transition on the same
	// reservation, so a double-clicked confirm runs once
	flight singleflight.Group
}

func New(db *sql.DB, r Repo, br BorrowingWriter, cr cartrepo.Repo, secret string) Service {
	return &service{db: db, r: r, br: br, cr: cr, secret: secret}
}

func validateSubmit(req SubmitReq, now time.Time) *ValidationError {
	fields := map[string]string{}

	if len(req.Items) == 0 {
		fields["items"] = "cart is empty"
	}
	if len(req.Items) > model.MaxBooksPerReservation {
		fields["items"] = fmt.Sprintf("at most %d books per reservation", model.MaxBooksPerReservation)
	}
	if !schedule.ValidPickupDate(req.PickupDate, now) {
		fields["pickup_date"] = fmt.Sprintf("pickup must be at least %d hours from now", model.MinPickupHours)
	}

	seen := map[int64]bool{}
	for i, it := range req.Items {
		if it.BookID <= 0 {
			fields[fmt.Sprintf("items[%d].book_id", i)] = "required"
		}
		if seen[it.BookID] {
			fields[fmt.Sprintf("items[%d].book_id", i)] = "duplicate book"
		}
		seen[it.BookID] = true
		if !model.ValidDuration(it.BorrowingDuration) {
			fields[fmt.Sprintf("items[%d].borrowing_duration", i)] = "must be 7, 14 or 21 days"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *service) Submit(ctx context.Context, userID int64, req SubmitReq) (*model.Reservation, error) {
	now := time.Now().UTC()
	req = req.withDefaults()
	if ve := validateSubmit(req, now); ve != nil {
		return nil, ve
	}

	rsv := &model.Reservation{
		ID:         uuid.New(),
		UserID:     userID,
		PickupDate: req.PickupDate,
		Status:     model.ReservationPending,
		Notes:      req.Notes,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seq, err := s.r.NextNumberSeq(ctx, tx)
	if err != nil {
		return nil, err
	}
	rsv.ReservationNumber = fmt.Sprintf("RES-%d-%06d", now.Year(), seq)

	for _, it := range req.Items {
		copyID, cerr := s.r.PickAvailableCopyForUpdate(ctx, tx, it.BookID)
		if cerr != nil {
			if errors.Is(cerr, sql.ErrNoRows) {
				err = makeErr(ErrNoStock)
				return nil, err
			}
			err = cerr
			return nil, err
		}
		if err = s.r.SetCopyStatus(ctx, tx, copyID, model.CopyReserved); err != nil {
			return nil, err
		}
		rsv.Items = append(rsv.Items, model.ReservationItem{
			BookID:            it.BookID,
			CopyID:            copyID,
			BorrowingDuration: it.BorrowingDuration,
			DueDate:           schedule.DueDate(req.PickupDate, it.BorrowingDuration),
		})
	}

	if err = s.r.Insert(ctx, tx, rsv); err != nil {
		return nil, err
	}
	if err = s.cr.ClearTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return rsv, nil
}

func (s *service) Confirm(ctx context.Context, userID int64, id uuid.UUID) (*model.Reservation, error) {
	return s.transition(ctx, "confirm", id, func(tx *sql.Tx, rsv *model.Reservation) error {
		if rsv.UserID != userID {
			return makeErr(ErrNotOwner)
		}
		if !rsv.Status.CanTransitionTo(model.ReservationConfirmed) {
			return makeErr(ErrInvalidTransition)
		}
		qr, err := jwtutil.IssuePickup(s.secret, rsv.ID, rsv.ReservationNumber,
			time.Until(rsv.PickupDate)+7*24*time.Hour)
		if err != nil {
			return err
		}
		rsv.Status = model.ReservationConfirmed
		rsv.QRCode = &qr
		return s.r.UpdateStatus(ctx, tx, rsv.ID, rsv.Status, &qr)
	})
}

func (s *service) Cancel(ctx context.Context, userID int64, staff bool, id uuid.UUID) (*model.Reservation, error) {
	return s.transition(ctx, "cancel", id, func(tx *sql.Tx, rsv *model.Reservation) error {
		if !staff && rsv.UserID != userID {
			return makeErr(ErrNotOwner)
		}
		if !rsv.Status.CanTransitionTo(model.ReservationCancelled) {
			return makeErr(ErrInvalidTransition)
		}
		if err := s.freeCopies(ctx, tx, rsv); err != nil {
			return err
		}
		rsv.Status = model.ReservationCancelled
		return s.r.UpdateStatus(ctx, tx, rsv.ID, rsv.Status, nil)
	})
}

func (s *service) MarkPickedUp(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return s.transition(ctx, "pickup", id, func(tx *sql.Tx, rsv *model.Reservation) error {
		if !rsv.Status.CanTransitionTo(model.ReservationPickedUp) {
			return makeErr(ErrInvalidTransition)
		}
		now := time.Now().UTC()
		for _, it := range rsv.Items {
			b := &model.Borrowing{
				ID:            uuid.New(),
				ReservationID: rsv.ID,
				UserID:        rsv.UserID,
				BookID:        it.BookID,
				CopyID:        it.CopyID,
				BorrowedAt:    now,
				DueDate:       it.DueDate,
				Extended:      false,
			}
			if err := s.br.InsertTx(ctx, tx, b); err != nil {
				return err
			}
			if err := s.r.SetCopyStatus(ctx, tx, it.CopyID, model.CopyBorrowed); err != nil {
				return err
			}
		}
		rsv.Status = model.ReservationPickedUp
		return s.r.UpdateStatus(ctx, tx, rsv.ID, rsv.Status, nil)
	})
}

func (s *service) Expire(ctx context.Context, id uuid.UUID) error {
	_, err := s.transition(ctx, "expire", id, func(tx *sql.Tx, rsv *model.Reservation) error {
		if !rsv.Status.CanTransitionTo(model.ReservationExpired) {
			return makeErr(ErrInvalidTransition)
		}
		if err := s.freeCopies(ctx, tx, rsv); err != nil {
			return err
		}
		rsv.Status = model.ReservationExpired
		return s.r.UpdateStatus(ctx, tx, rsv.ID, rsv.Status, nil)
	})
	return err
}

// transition runs mutate under FOR UPDATE inside one transaction, with
// concurrent duplicates of the same operation collapsed per reservation id.
func (s *service) transition(ctx context.Context, op string, id uuid.UUID,
	mutate func(tx *sql.Tx, rsv *model.Reservation) error) (*model.Reservation, error) {

	v, err, _ := s.flight.Do(op+":"+id.String(), func() (any, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		rsv, err := s.r.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = makeErr(ErrNotFound)
			}
			return nil, err
		}
		if err = mutate(tx, rsv); err != nil {
			return nil, err
		}
		if err = tx.Commit(); err != nil {
			return nil, err
		}
		return rsv, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Reservation), nil
}

func (s *service) freeCopies(ctx context.Context, tx *sql.Tx, rsv *model.Reservation) error {
	for _, it := range rsv.Items {
		if err := s.r.SetCopyStatus(ctx, tx, it.CopyID, model.CopyAvailable); err != nil {
			return err
		}
	}
	return nil
}

// VerifyPickupToken distinguishes a token that does not verify from a valid
// token whose reservation is gone.
func (s *service) VerifyPickupToken(ctx context.Context, token string) (*model.Reservation, error) {
	id, _, err := jwtutil.ParsePickup(s.secret, token)
	if err != nil {
		return nil, makeErr(ErrBadToken)
	}
	return s.lookup(ctx, id)
}

func (s *service) ByID(ctx context.Context, userID int64, staff bool, id uuid.UUID) (*model.Reservation, error) {
	rsv, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && rsv.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	return rsv, nil
}

func (s *service) lookup(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	rsv, err := s.r.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return rsv, err
}

func (s *service) ByNumber(ctx context.Context, number string) (*model.Reservation, error) {
	rsv, err := s.r.ByNumber(ctx, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return rsv, err
}

func (s *service) Mine(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return s.r.ListByUser(ctx, userID, nil)
}

func (s *service) Active(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return s.r.ListByUser(ctx, userID, []model.ReservationStatus{
		model.ReservationPending, model.ReservationConfirmed,
	})
}

func (s *service) History(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return s.r.ListByUser(ctx, userID, []model.ReservationStatus{
		model.ReservationPickedUp, model.ReservationCancelled, model.ReservationExpired,
	})
}

func (s *service) All(ctx context.Context, status string) ([]model.Reservation, error) {
	var statuses []model.ReservationStatus
	if status != "" {
		statuses = append(statuses, model.ReservationStatus(status))
	}
	return s.r.ListAll(ctx, statuses)
}
