package wishlist

import (
	"context"
	"errors"
	"testing"

	"booknest/model"
	wishlistrepo "booknest/repository/wishlist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	addFn          func(ctx context.Context, item *model.WishlistItem) error
	removeByBookFn func(ctx context.Context, userID, bookID int64) (bool, error)
	removeByIDFn   func(ctx context.Context, userID int64, id uuid.UUID) (bool, error)
	updateFn       func(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error)
	bookIDsFn      func(ctx context.Context, userID int64) ([]int64, error)
	clearFn        func(ctx context.Context, userID int64) error
}

var _ wishlistrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Add(ctx context.Context, item *model.WishlistItem) error {
	if m.addFn == nil {
		return nil
	}
	return m.addFn(ctx, item)
}

func (m *mockRepo) RemoveByBook(ctx context.Context, userID, bookID int64) (bool, error) {
	if m.removeByBookFn == nil {
		return true, nil
	}
	return m.removeByBookFn(ctx, userID, bookID)
}

func (m *mockRepo) RemoveByID(ctx context.Context, userID int64, id uuid.UUID) (bool, error) {
	if m.removeByIDFn == nil {
		return true, nil
	}
	return m.removeByIDFn(ctx, userID, id)
}

func (m *mockRepo) Update(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error) {
	return m.updateFn(ctx, userID, id, priority, notes)
}

func (m *mockRepo) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	return nil, nil
}

func (m *mockRepo) BookIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.bookIDsFn == nil {
		return nil, nil
	}
	return m.bookIDsFn(ctx, userID)
}

func (m *mockRepo) Clear(ctx context.Context, userID int64) error {
	if m.clearFn == nil {
		return nil
	}
	return m.clearFn(ctx, userID)
}

func TestAdd_DefaultPriority(t *testing.T) {
	var saved *model.WishlistItem
	m := &mockRepo{
		addFn: func(ctx context.Context, item *model.WishlistItem) error {
			saved = item
			return nil
		},
	}
	svc := New(m)

	item, err := svc.Add(context.Background(), 1, 10, 0, "")
	require.NoError(t, err)
	require.Equal(t, 3, item.Priority)
	require.Equal(t, saved, item)
	require.NotEqual(t, uuid.Nil, item.ID)
}

func TestAdd_UpdatesLocalSet(t *testing.T) {
	svc := New(&mockRepo{})

	in, err := svc.Contains(context.Background(), 1, 10)
	require.NoError(t, err)
	require.False(t, in)

	_, err = svc.Add(context.Background(), 1, 10, 2, "birthday gift idea")
	require.NoError(t, err)

	in, err = svc.Contains(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, in)
}

func TestAdd_RollsBackOnStoreError(t *testing.T) {
	m := &mockRepo{
		addFn: func(ctx context.Context, item *model.WishlistItem) error {
			return wishlistrepo.ErrDuplicate
		},
	}
	svc := New(m)

	_, err := svc.Add(context.Background(), 1, 10, 1, "")
	require.ErrorIs(t, err, ErrDuplicate)

	// the optimistic cache entry must be rolled back
	in, err := svc.Contains(context.Background(), 1, 10)
	require.NoError(t, err)
	require.False(t, in)
}

func TestRemoveByBook_NotFound(t *testing.T) {
	m := &mockRepo{
		removeByBookFn: func(ctx context.Context, userID, bookID int64) (bool, error) {
			return false, nil
		},
	}
	svc := New(m)

	err := svc.RemoveByBook(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveByBook_RollsBackOnStoreError(t *testing.T) {
	boom := errors.New("db down")
	m := &mockRepo{
		bookIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{10}, nil
		},
		removeByBookFn: func(ctx context.Context, userID, bookID int64) (bool, error) {
			return false, boom
		},
	}
	svc := New(m)

	err := svc.RemoveByBook(context.Background(), 1, 10)
	require.ErrorIs(t, err, boom)

	// removal was undone locally, the book is still wishlisted
	in, err := svc.Contains(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, in)
}

func TestRemoveByID_RefreshesCache(t *testing.T) {
	ids := []int64{10, 20}
	m := &mockRepo{
		bookIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return ids, nil
		},
	}
	svc := New(m)

	in, err := svc.Contains(context.Background(), 1, 20)
	require.NoError(t, err)
	require.True(t, in)

	ids = []int64{10}
	require.NoError(t, svc.RemoveByID(context.Background(), 1, uuid.New()))

	in, err = svc.Contains(context.Background(), 1, 20)
	require.NoError(t, err)
	require.False(t, in)
}

func TestUpdate_NotFound(t *testing.T) {
	m := &mockRepo{
		updateFn: func(ctx context.Context, userID int64, id uuid.UUID, priority *int, notes *string) (*model.WishlistItem, error) {
			return nil, nil
		},
	}
	svc := New(m)

	_, err := svc.Update(context.Background(), 1, uuid.New(), nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClear_EmptiesLocalSet(t *testing.T) {
	m := &mockRepo{
		bookIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{10, 20}, nil
		},
	}
	svc := New(m)

	in, err := svc.Contains(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, in)

	require.NoError(t, svc.Clear(context.Background(), 1))

	in, err = svc.Contains(context.Background(), 1, 10)
	require.NoError(t, err)
	require.False(t, in)
}
