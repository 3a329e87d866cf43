package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"booknest/model"
	xenditrepo "booknest/repository/xendit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct{ err error }

func (m *mockVerifier) CreateInvoice(req xenditrepo.CreateInvoiceReq) (*xenditrepo.CreateInvoiceResp, error) {
	return nil, errors.New("not used")
}
func (m *mockVerifier) VerifyCallbackToken(token string) error { return m.err }

type mockBorrowings struct {
	byFineInvoiceIDFn func(ctx context.Context, invoiceID string) (*model.Borrowing, error)
}

func (m *mockBorrowings) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error {
	return nil
}
func (m *mockBorrowings) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Borrowing, error) {
	return nil, sql.ErrNoRows
}
func (m *mockBorrowings) SetDueDate(ctx context.Context, tx *sql.Tx, id uuid.UUID, due time.Time, extended bool) error {
	return nil
}
func (m *mockBorrowings) MarkReturned(ctx context.Context, tx *sql.Tx, id uuid.UUID, returnedAt time.Time, fine float64) error {
	return nil
}
func (m *mockBorrowings) SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error {
	return nil
}
func (m *mockBorrowings) SetFineInvoice(ctx context.Context, tx *sql.Tx, id uuid.UUID, invoiceID string) error {
	return nil
}
func (m *mockBorrowings) MarkFinePaid(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	return nil
}
func (m *mockBorrowings) ByID(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	return nil, sql.ErrNoRows
}
func (m *mockBorrowings) ByFineInvoiceID(ctx context.Context, invoiceID string) (*model.Borrowing, error) {
	return m.byFineInvoiceIDFn(ctx, invoiceID)
}
func (m *mockBorrowings) ListByUser(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
	return nil, nil
}
func (m *mockBorrowings) ListAll(ctx context.Context, active *bool) ([]model.Borrowing, error) {
	return nil, nil
}
func (m *mockBorrowings) Stats(ctx context.Context, userID int64, now time.Time, finePerDay float64) (*model.DashboardStats, error) {
	return nil, nil
}

func TestHandleXendit_BadToken(t *testing.T) {
	svc := New(nil, &mockVerifier{err: errors.New("invalid callback token")}, &mockBorrowings{})
	err := svc.HandleXendit(context.Background(), "wrong", []byte(`{"id":"inv_1","status":"PAID"}`))
	require.Error(t, err)
}

func TestHandleXendit_BadJSON(t *testing.T) {
	svc := New(nil, &mockVerifier{}, &mockBorrowings{})
	require.Error(t, svc.HandleXendit(context.Background(), "ok", []byte("{not json")))
}

func TestHandleXendit_MissingFields(t *testing.T) {
	svc := New(nil, &mockVerifier{}, &mockBorrowings{})
	require.Error(t, svc.HandleXendit(context.Background(), "ok", []byte(`{"id":"inv_1"}`)))
}

func TestHandleXendit_ExpiredIsNoop(t *testing.T) {
	svc := New(nil, &mockVerifier{}, &mockBorrowings{})
	err := svc.HandleXendit(context.Background(), "ok", []byte(`{"id":"inv_1","status":"EXPIRED","external_id":"fine:x"}`))
	require.NoError(t, err)
}

func TestHandleXendit_PaidIdempotent(t *testing.T) {
	m := &mockBorrowings{
		byFineInvoiceIDFn: func(ctx context.Context, invoiceID string) (*model.Borrowing, error) {
			require.Equal(t, "inv_1", invoiceID)
			return &model.Borrowing{ID: uuid.New(), FinePaid: true}, nil
		},
	}
	// FinePaid already true: the handler must return before opening a tx
	svc := New(nil, &mockVerifier{}, m)
	err := svc.HandleXendit(context.Background(), "ok", []byte(`{"id":"inv_1","status":"PAID","external_id":"fine:x"}`))
	require.NoError(t, err)
}

func TestHandleXendit_UnknownInvoice(t *testing.T) {
	m := &mockBorrowings{
		byFineInvoiceIDFn: func(ctx context.Context, invoiceID string) (*model.Borrowing, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := New(nil, &mockVerifier{}, m)
	err := svc.HandleXendit(context.Background(), "ok", []byte(`{"id":"inv_9","status":"PAID","external_id":"fine:x"}`))
	require.Error(t, err)
}
