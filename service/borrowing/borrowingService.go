package borrowing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booknest/model"
	xenditrepo "booknest/repository/xendit"
	"booknest/util/schedule"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrNotOwner            ErrCode = "NOT_OWNER"
	ErrNotActive           ErrCode = "NOT_ACTIVE"
	ErrExtensionNotAllowed ErrCode = "EXTENSION_NOT_ALLOWED"
	ErrNoFineDue           ErrCode = "NO_FINE_DUE"
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

type Repo interface {
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

type FinePayment struct {
	Borrowing   *model.Borrowing `json:"borrowing"`
	PaymentLink string           `json:"payment_link,omitempty"`
}

type Service interface {
	// Extend applies the one-time 7-day extension. Allowed exactly once per
	// borrowing and never while overdue.
	Extend(ctx context.Context, userID int64, id uuid.UUID) (*model.Borrowing, error)

	// Return (staff) closes the borrowing, frees the copy and freezes the
	// accrued fine.
	Return(ctx context.Context, id uuid.UUID) (*model.Borrowing, error)

	// PayFine settles the frozen fine: CASH immediately at the desk, ONLINE
	// through a gateway invoice whose webhook completes the payment.
	PayFine(ctx context.Context, userID int64, staff bool, id uuid.UUID, method, payerEmail string) (*FinePayment, error)

	ByID(ctx context.Context, userID int64, staff bool, id uuid.UUID) (*model.Borrowing, error)
	Mine(ctx context.Context, userID int64) ([]model.Borrowing, error)
	Active(ctx context.Context, userID int64) ([]model.Borrowing, error)
	History(ctx context.Context, userID int64) ([]model.Borrowing, error)
	All(ctx context.Context) ([]model.Borrowing, error)
	Dashboard(ctx context.Context, userID int64) (*model.DashboardStats, error)
}

type service struct {
	db         *sql.DB
	r          Repo
	x          xenditrepo.Repo
	finePerDay float64

	flight singleflight.Group
}

func New(db *sql.DB, r Repo, x xenditrepo.Repo, finePerDay float64) Service {
	return &service{db: db, r: r, x: x, finePerDay: finePerDay}
}

// canExtend is the extension precondition: one shot, and an overdue book
// must come back first.
func canExtend(b *model.Borrowing, now time.Time) error {
	if b.Extended || schedule.IsOverdue(b.DueDate, now) {
		return makeErr(ErrExtensionNotAllowed)
	}
	return nil
}

func (s *service) Extend(ctx context.Context, userID int64, id uuid.UUID) (*model.Borrowing, error) {
	return s.locked(ctx, "extend", id, func(tx *sql.Tx, b *model.Borrowing) error {
		if b.UserID != userID {
			return makeErr(ErrNotOwner)
		}
		if !b.Active() {
			return makeErr(ErrNotActive)
		}
		if err := canExtend(b, time.Now().UTC()); err != nil {
			return err
		}
		b.DueDate = schedule.ExtendedDue(b.DueDate)
		b.Extended = true
		return s.r.SetDueDate(ctx, tx, b.ID, b.DueDate, true)
	})
}

func (s *service) Return(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	return s.locked(ctx, "return", id, func(tx *sql.Tx, b *model.Borrowing) error {
		if !b.Active() {
			return makeErr(ErrNotActive)
		}
		now := time.Now().UTC()
		fine := schedule.LateFine(b.DueDate, now, s.finePerDay)

		if err := s.r.MarkReturned(ctx, tx, b.ID, now, fine); err != nil {
			return err
		}
		if err := s.r.SetCopyStatus(ctx, tx, b.CopyID, model.CopyAvailable); err != nil {
			return err
		}
		b.ReturnedAt = &now
		b.FineAmount = fine
		b.FinePaid = fine == 0
		return nil
	})
}

// canPayFine checks who may settle which fine: the borrowing must be closed
// with an unpaid fine, and CASH is taken at the desk only.
func canPayFine(b *model.Borrowing, userID int64, staff bool, method string) error {
	if !staff && b.UserID != userID {
		return makeErr(ErrNotOwner)
	}
	if b.Active() || b.FineAmount <= 0 || b.FinePaid {
		return makeErr(ErrNoFineDue)
	}
	if method == "CASH" && !staff {
		return makeErr(ErrNotOwner)
	}
	return nil
}

func (s *service) PayFine(ctx context.Context, userID int64, staff bool, id uuid.UUID, method, payerEmail string) (*FinePayment, error) {
	// the payment link must live inside the collapsed result, so a duplicate
	// request sees the same link as the one that did the work
	v, err, _ := s.flight.Do("pay-fine:"+id.String(), func() (any, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		b, err := s.r.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = makeErr(ErrNotFound)
			}
			return nil, err
		}
		if err = canPayFine(b, userID, staff, method); err != nil {
			return nil, err
		}

		out := &FinePayment{Borrowing: b}
		if method == "CASH" {
			b.FinePaid = true
			if err = s.r.MarkFinePaid(ctx, tx, b.ID); err != nil {
				return nil, err
			}
		} else {
			inv, ierr := s.x.CreateInvoice(xenditrepo.CreateInvoiceReq{
				ExternalID:  fmt.Sprintf("fine:%s", b.ID),
				Amount:      b.FineAmount,
				PayerEmail:  payerEmail,
				Description: "Late return fine",
				ExpirySec:   int((24 * time.Hour).Seconds()),
			})
			if ierr != nil {
				err = ierr
				return nil, err
			}
			invID := inv.InvoiceID
			b.FineInvoiceID = &invID
			out.PaymentLink = inv.InvoiceURL
			if err = s.r.SetFineInvoice(ctx, tx, b.ID, invID); err != nil {
				return nil, err
			}
		}

		if err = tx.Commit(); err != nil {
			return nil, err
		}
		s.decorate(b, time.Now().UTC())
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FinePayment), nil
}

// locked runs mutate under FOR UPDATE, collapsing concurrent duplicates of
// the same operation per borrowing id.
func (s *service) locked(ctx context.Context, op string, id uuid.UUID,
	mutate func(tx *sql.Tx, b *model.Borrowing) error) (*model.Borrowing, error) {

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

		b, err := s.r.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = makeErr(ErrNotFound)
			}
			return nil, err
		}
		if err = mutate(tx, b); err != nil {
			return nil, err
		}
		if err = tx.Commit(); err != nil {
			return nil, err
		}
		s.decorate(b, time.Now().UTC())
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Borrowing), nil
}

// decorate fills the derived, never-stored fields. An active borrowing
// accrues its fine live; a returned one keeps the frozen amount.
func (s *service) decorate(b *model.Borrowing, now time.Time) {
	b.RemainingDays = schedule.RemainingDays(b.DueDate, now)
	if b.Active() {
		b.IsOverdue = schedule.IsOverdue(b.DueDate, now)
		b.FineAmount = schedule.LateFine(b.DueDate, now, s.finePerDay)
	} else {
		b.IsOverdue = false
	}
}

func (s *service) ByID(ctx context.Context, userID int64, staff bool, id uuid.UUID) (*model.Borrowing, error) {
	b, err := s.r.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !staff && b.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	s.decorate(b, time.Now().UTC())
	return b, nil
}

func (s *service) Mine(ctx context.Context, userID int64) ([]model.Borrowing, error) {
	return s.listByUser(ctx, userID, nil)
}

func (s *service) Active(ctx context.Context, userID int64) ([]model.Borrowing, error) {
	active := true
	return s.listByUser(ctx, userID, &active)
}

func (s *service) History(ctx context.Context, userID int64) ([]model.Borrowing, error) {
	active := false
	return s.listByUser(ctx, userID, &active)
}

func (s *service) listByUser(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
	rows, err := s.r.ListByUser(ctx, userID, active)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range rows {
		s.decorate(&rows[i], now)
	}
	return rows, nil
}

func (s *service) All(ctx context.Context) ([]model.Borrowing, error) {
	rows, err := s.r.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range rows {
		s.decorate(&rows[i], now)
	}
	return rows, nil
}

func (s *service) Dashboard(ctx context.Context, userID int64) (*model.DashboardStats, error) {
	return s.r.Stats(ctx, userID, time.Now().UTC(), s.finePerDay)
}
