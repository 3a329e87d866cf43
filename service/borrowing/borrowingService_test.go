package borrowing

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"booknest/model"
	"booknest/util/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byIDFn       func(ctx context.Context, id uuid.UUID) (*model.Borrowing, error)
	listByUserFn func(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error)
	statsFn      func(ctx context.Context, userID int64, now time.Time, finePerDay float64) (*model.DashboardStats, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Borrowing, error) {
	return nil, sql.ErrNoRows
}
func (m *mockRepo) SetDueDate(ctx context.Context, tx *sql.Tx, id uuid.UUID, due time.Time, extended bool) error {
	return nil
}
func (m *mockRepo) MarkReturned(ctx context.Context, tx *sql.Tx, id uuid.UUID, returnedAt time.Time, fine float64) error {
	return nil
}
func (m *mockRepo) SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error {
	return nil
}
func (m *mockRepo) SetFineInvoice(ctx context.Context, tx *sql.Tx, id uuid.UUID, invoiceID string) error {
	return nil
}
func (m *mockRepo) MarkFinePaid(ctx context.Context, tx *sql.Tx, id uuid.UUID) error { return nil }
func (m *mockRepo) ByID(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockRepo) ByFineInvoiceID(ctx context.Context, invoiceID string) (*model.Borrowing, error) {
	return nil, sql.ErrNoRows
}
func (m *mockRepo) ListByUser(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
	return m.listByUserFn(ctx, userID, active)
}
func (m *mockRepo) ListAll(ctx context.Context, active *bool) ([]model.Borrowing, error) {
	return nil, nil
}
func (m *mockRepo) Stats(ctx context.Context, userID int64, now time.Time, finePerDay float64) (*model.DashboardStats, error) {
	return m.statsFn(ctx, userID, now, finePerDay)
}

func TestByID_OwnerAndStaff(t *testing.T) {
	id := uuid.New()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, got uuid.UUID) (*model.Borrowing, error) {
			return &model.Borrowing{ID: got, UserID: 10, DueDate: time.Now().Add(72 * time.Hour)}, nil
		},
	}
	svc := New(nil, m, nil, 2)

	_, err := svc.ByID(context.Background(), 99, false, id)
	require.Equal(t, ErrNotOwner, Code(err))

	b, err := svc.ByID(context.Background(), 10, false, id)
	require.NoError(t, err)
	require.Equal(t, id, b.ID)

	_, err = svc.ByID(context.Background(), 99, true, id)
	require.NoError(t, err)
}

func TestByID_NotFound(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id uuid.UUID) (*model.Borrowing, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := New(nil, m, nil, 2)

	_, err := svc.ByID(context.Background(), 1, false, uuid.New())
	require.Equal(t, ErrNotFound, Code(err))
}

func TestMine_DecoratesLiveFine(t *testing.T) {
	now := time.Now().UTC()
	m := &mockRepo{
		listByUserFn: func(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
			return []model.Borrowing{
				{ID: uuid.New(), UserID: 1, DueDate: now.Add(-72 * time.Hour)}, // 3 days late
				{ID: uuid.New(), UserID: 1, DueDate: now.Add(72 * time.Hour)},  // on time
			}, nil
		},
	}
	svc := New(nil, m, nil, 2)

	rows, err := svc.Mine(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.True(t, rows[0].IsOverdue)
	require.Equal(t, 6.0, rows[0].FineAmount) // 3 days * 2 per day

	require.False(t, rows[1].IsOverdue)
	require.Equal(t, 0.0, rows[1].FineAmount)
	require.Equal(t, 3, rows[1].RemainingDays)
}

func TestMine_ReturnedKeepsFrozenFine(t *testing.T) {
	now := time.Now().UTC()
	returned := now.Add(-24 * time.Hour)
	m := &mockRepo{
		listByUserFn: func(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
			return []model.Borrowing{
				// returned late: the stored fine must not keep growing
				{ID: uuid.New(), UserID: 1, DueDate: now.Add(-240 * time.Hour), ReturnedAt: &returned, FineAmount: 8},
			}, nil
		},
	}
	svc := New(nil, m, nil, 2)

	rows, err := svc.Mine(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].IsOverdue)
	require.Equal(t, 8.0, rows[0].FineAmount)
}

func TestActiveHistory_Filters(t *testing.T) {
	var got *bool
	m := &mockRepo{
		listByUserFn: func(ctx context.Context, userID int64, active *bool) ([]model.Borrowing, error) {
			got = active
			return nil, nil
		},
	}
	svc := New(nil, m, nil, 2)

	_, err := svc.Active(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, *got)

	_, err = svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.False(t, *got)

	_, err = svc.Mine(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCanExtend(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name    string
		b       model.Borrowing
		allowed bool
	}{
		{"on time, never extended", model.Borrowing{DueDate: now.Add(72 * time.Hour)}, true},
		{"already extended", model.Borrowing{DueDate: now.Add(72 * time.Hour), Extended: true}, false},
		{"overdue", model.Borrowing{DueDate: now.Add(-48 * time.Hour)}, false},
		{"extended and overdue", model.Borrowing{DueDate: now.Add(-48 * time.Hour), Extended: true}, false},
		{"due within the hour, still on time", model.Borrowing{DueDate: now.Add(time.Hour)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := canExtend(&tc.b, now)
			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.Equal(t, ErrExtensionNotAllowed, Code(err))
			}
		})
	}
}

func TestCanExtend_OneShot(t *testing.T) {
	now := time.Now().UTC()
	b := &model.Borrowing{DueDate: now.Add(24 * time.Hour)}

	require.NoError(t, canExtend(b, now))
	b.DueDate = schedule.ExtendedDue(b.DueDate)
	b.Extended = true

	// the second attempt fails even though the new due date is comfortably
	// in the future
	require.Equal(t, ErrExtensionNotAllowed, Code(canExtend(b, now)))
}

func TestCanPayFine(t *testing.T) {
	now := time.Now().UTC()
	returned := now.Add(-time.Hour)
	owed := model.Borrowing{UserID: 10, ReturnedAt: &returned, FineAmount: 6}

	// owner may settle online, a stranger may not
	require.NoError(t, canPayFine(&owed, 10, false, "ONLINE"))
	require.Equal(t, ErrNotOwner, Code(canPayFine(&owed, 99, false, "ONLINE")))

	// CASH is desk-only
	require.Equal(t, ErrNotOwner, Code(canPayFine(&owed, 10, false, "CASH")))
	require.NoError(t, canPayFine(&owed, 99, true, "CASH"))

	active := model.Borrowing{UserID: 10, DueDate: now.Add(-72 * time.Hour)}
	require.Equal(t, ErrNoFineDue, Code(canPayFine(&active, 10, false, "ONLINE")))

	clean := model.Borrowing{UserID: 10, ReturnedAt: &returned}
	require.Equal(t, ErrNoFineDue, Code(canPayFine(&clean, 10, false, "ONLINE")))

	paid := model.Borrowing{UserID: 10, ReturnedAt: &returned, FineAmount: 6, FinePaid: true}
	require.Equal(t, ErrNoFineDue, Code(canPayFine(&paid, 10, false, "ONLINE")))
}

func TestDashboard_Passthrough(t *testing.T) {
	m := &mockRepo{
		statsFn: func(ctx context.Context, userID int64, now time.Time, finePerDay float64) (*model.DashboardStats, error) {
			require.Equal(t, int64(5), userID)
			require.Equal(t, 2.0, finePerDay)
			return &model.DashboardStats{ActiveBorrowings: 2, OverdueBorrowings: 1}, nil
		},
	}
	svc := New(nil, m, nil, 2)

	stats, err := svc.Dashboard(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.ActiveBorrowings)
	require.Equal(t, int64(1), stats.OverdueBorrowings)
}
