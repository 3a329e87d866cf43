package reservation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"booknest/model"
	jwtutil "booknest/util/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byIDFn       func(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	byNumberFn   func(ctx context.Context, number string) (*model.Reservation, error)
	listByUserFn func(ctx context.Context, userID int64, statuses []model.ReservationStatus) ([]model.Reservation, error)
	listAllFn    func(ctx context.Context, statuses []model.ReservationStatus) ([]model.Reservation, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) NextNumberSeq(ctx context.Context, tx *sql.Tx) (int64, error) { return 0, nil }
func (m *mockRepo) PickAvailableCopyForUpdate(ctx context.Context, tx *sql.Tx, bookID int64) (int64, error) {
	return 0, sql.ErrNoRows
}
func (m *mockRepo) SetCopyStatus(ctx context.Context, tx *sql.Tx, copyID int64, status model.CopyStatus) error {
	return nil
}
func (m *mockRepo) Insert(ctx context.Context, tx *sql.Tx, rsv *model.Reservation) error { return nil }
func (m *mockRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Reservation, error) {
	return nil, sql.ErrNoRows
}
func (m *mockRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.ReservationStatus, qr *string) error {
	return nil
}
func (m *mockRepo) ByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockRepo) ByNumber(ctx context.Context, number string) (*model.Reservation, error) {
	return m.byNumberFn(ctx, number)
}
func (m *mockRepo) ListByUser(ctx context.Context, userID int64, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	return m.listByUserFn(ctx, userID, statuses)
}
func (m *mockRepo) ListAll(ctx context.Context, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	return m.listAllFn(ctx, statuses)
}
func (m *mockRepo) ListExpirable(ctx context.Context, deadline time.Time, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func validItems(n int) []SubmitItem {
	items := make([]SubmitItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, SubmitItem{BookID: int64(i + 1), BorrowingDuration: 14})
	}
	return items
}

// --- validation ---

func TestValidateSubmit_OK(t *testing.T) {
	now := time.Now().UTC()
	ve := validateSubmit(SubmitReq{
		PickupDate: now.Add(25 * time.Hour),
		Items:      validItems(3),
	}, now)
	require.Nil(t, ve)
}

func TestValidateSubmit_EmptyCart(t *testing.T) {
	now := time.Now().UTC()
	ve := validateSubmit(SubmitReq{PickupDate: now.Add(48 * time.Hour)}, now)
	require.NotNil(t, ve)
	require.Contains(t, ve.Fields, "items")
}

func TestValidateSubmit_TooManyBooks(t *testing.T) {
	now := time.Now().UTC()
	ve := validateSubmit(SubmitReq{
		PickupDate: now.Add(48 * time.Hour),
		Items:      validItems(model.MaxBooksPerReservation + 1),
	}, now)
	require.NotNil(t, ve)
	require.Contains(t, ve.Fields, "items")
}

func TestValidateSubmit_PickupTooSoon(t *testing.T) {
	now := time.Now().UTC()
	ve := validateSubmit(SubmitReq{
		PickupDate: now.Add(23 * time.Hour),
		Items:      validItems(1),
	}, now)
	require.NotNil(t, ve)
	require.Contains(t, ve.Fields, "pickup_date")
}

func TestValidateSubmit_DuplicateBook(t *testing.T) {
	now := time.Now().UTC()
	ve := validateSubmit(SubmitReq{
		PickupDate: now.Add(48 * time.Hour),
		Items: []SubmitItem{
			{BookID: 7, BorrowingDuration: 7},
			{BookID: 7, BorrowingDuration: 14},
		},
	}, now)
	require.NotNil(t, ve)
	require.Contains(t, ve.Fields, "items[1].book_id")
}

func TestSubmitReq_DefaultDuration(t *testing.T) {
	// an omitted duration gets the 14-day default, same as the cart
	now := time.Now().UTC()
	req := SubmitReq{
		PickupDate: now.Add(48 * time.Hour),
		Items: []SubmitItem{
			{BookID: 1},
			{BookID: 2, BorrowingDuration: 7},
		},
	}.withDefaults()

	require.Equal(t, model.DefaultBorrowingDays, req.Items[0].BorrowingDuration)
	require.Equal(t, 7, req.Items[1].BorrowingDuration)
	require.Nil(t, validateSubmit(req, now))
}

func TestValidateSubmit_BadDuration(t *testing.T) {
	now := time.Now().UTC()
	ve := validateSubmit(SubmitReq{
		PickupDate: now.Add(48 * time.Hour),
		Items:      []SubmitItem{{BookID: 1, BorrowingDuration: 10}},
	}, now)
	require.NotNil(t, ve)
	require.Contains(t, ve.Fields, "items[0].borrowing_duration")
}

func TestSubmit_ValidationShortCircuits(t *testing.T) {
	// an invalid request must never reach the database
	svc := New(nil, &mockRepo{}, nil, nil, "secret")
	_, err := svc.Submit(context.Background(), 1, SubmitReq{})
	require.Error(t, err)
	require.NotNil(t, AsValidation(err))
}

// --- lookups ---

func TestByID_OwnerCheck(t *testing.T) {
	id := uuid.New()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, got uuid.UUID) (*model.Reservation, error) {
			return &model.Reservation{ID: got, UserID: 10, Status: model.ReservationPending}, nil
		},
	}
	svc := New(nil, m, nil, nil, "secret")

	_, err := svc.ByID(context.Background(), 99, false, id)
	require.Equal(t, ErrNotOwner, Code(err))

	rsv, err := svc.ByID(context.Background(), 10, false, id)
	require.NoError(t, err)
	require.Equal(t, id, rsv.ID)

	// staff can read anyone's
	_, err = svc.ByID(context.Background(), 99, true, id)
	require.NoError(t, err)
}

func TestByID_NotFound(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := New(nil, m, nil, nil, "secret")

	_, err := svc.ByID(context.Background(), 10, false, uuid.New())
	require.Equal(t, ErrNotFound, Code(err))
}

func TestActiveAndHistory_StatusFilters(t *testing.T) {
	var got []model.ReservationStatus
	m := &mockRepo{
		listByUserFn: func(ctx context.Context, userID int64, statuses []model.ReservationStatus) ([]model.Reservation, error) {
			got = statuses
			return nil, nil
		},
	}
	svc := New(nil, m, nil, nil, "secret")

	_, err := svc.Active(context.Background(), 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []model.ReservationStatus{model.ReservationPending, model.ReservationConfirmed}, got)

	_, err = svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []model.ReservationStatus{
		model.ReservationPickedUp, model.ReservationCancelled, model.ReservationExpired,
	}, got)
}

// --- pickup tokens ---

func TestVerifyPickupToken_RoundTrip(t *testing.T) {
	id := uuid.New()
	tok, err := jwtutil.IssuePickup("secret", id, "RES-2026-000042", time.Hour)
	require.NoError(t, err)

	m := &mockRepo{
		byIDFn: func(ctx context.Context, got uuid.UUID) (*model.Reservation, error) {
			require.Equal(t, id, got)
			return &model.Reservation{ID: got, ReservationNumber: "RES-2026-000042"}, nil
		},
	}
	svc := New(nil, m, nil, nil, "secret")

	rsv, err := svc.VerifyPickupToken(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, "RES-2026-000042", rsv.ReservationNumber)
}

func TestVerifyPickupToken_WrongSecret(t *testing.T) {
	tok, err := jwtutil.IssuePickup("other-secret", uuid.New(), "RES-2026-000001", time.Hour)
	require.NoError(t, err)

	svc := New(nil, &mockRepo{}, nil, nil, "secret")
	_, err = svc.VerifyPickupToken(context.Background(), tok)
	require.Equal(t, ErrBadToken, Code(err))
}

func TestVerifyPickupToken_SessionTokenRejected(t *testing.T) {
	// a plain session JWT must not open the pickup desk
	tok, err := jwtutil.Issue("secret", 42, model.RoleMember, 1)
	require.NoError(t, err)

	svc := New(nil, &mockRepo{}, nil, nil, "secret")
	_, err = svc.VerifyPickupToken(context.Background(), tok)
	require.Equal(t, ErrBadToken, Code(err))
}

func TestVerifyPickupToken_GoneReservation(t *testing.T) {
	// the token verifies, the reservation it points at no longer exists
	tok, err := jwtutil.IssuePickup("secret", uuid.New(), "RES-2026-000001", time.Hour)
	require.NoError(t, err)

	m := &mockRepo{
		byIDFn: func(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := New(nil, m, nil, nil, "secret")
	_, err = svc.VerifyPickupToken(context.Background(), tok)
	require.Equal(t, ErrNotFound, Code(err))
}
