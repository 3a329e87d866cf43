package paymentsvc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	borrowingrepo "booknest/repository/borrowing"
	xenditrepo "booknest/repository/xendit"
)

// Service consumes the payment-gateway webhook that settles fine invoices.
type Service interface {
	HandleXendit(ctx context.Context, callbackToken string, raw []byte) error
}

type service struct {
	db *sql.DB
	xv xenditrepo.Repo
	br borrowingrepo.Repo
}

func New(db *sql.DB, xv xenditrepo.Repo, br borrowingrepo.Repo) Service {
	return &service{db: db, xv: xv, br: br}
}

type xInvoiceEvent struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ExternalID string `json:"external_id"`
}

func (s *service) HandleXendit(ctx context.Context, callbackToken string, raw []byte) error {
	if err := s.xv.VerifyCallbackToken(callbackToken); err != nil {
		return err
	}

	var ev xInvoiceEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("bad webhook json: %w", err)
	}
	if ev.ID == "" || ev.Status == "" {
		return errors.New("missing invoice fields")
	}
	switch ev.Status {
	case "PAID":
		return s.onPaid(ctx, ev)
	case "EXPIRED":
		// an expired fine invoice just means the fine is still owed
		return nil
	default:
		return nil
	}
}

func (s *service) onPaid(ctx context.Context, ev xInvoiceEvent) (err error) {
	b, err := s.br.ByFineInvoiceID(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("invoice not mapped to a fine: %w", err)
	}
	if b.FinePaid {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.br.MarkFinePaid(ctx, tx, b.ID); err != nil {
		return err
	}
	return tx.Commit()
}
