package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCartAdd_DefaultDuration(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, nil, 0))
	require.Equal(t, 14, c.Items[0].BorrowingDuration)
}

func TestCartAdd_BadDuration(t *testing.T) {
	c := &Cart{}
	require.ErrorIs(t, c.Add(1, nil, 10), ErrBadDuration)
	require.Equal(t, 0, c.Size())
}

func TestCartAdd_Duplicate(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, nil, 7))
	require.ErrorIs(t, c.Add(1, nil, 21), ErrDuplicateItem)
	require.Equal(t, 1, c.Size())
}

func TestCartAdd_Full(t *testing.T) {
	c := &Cart{}
	for i := int64(1); i <= MaxBooksPerReservation; i++ {
		require.NoError(t, c.Add(i, nil, 7))
	}
	require.True(t, c.IsFull())
	require.ErrorIs(t, c.Add(99, nil, 7), ErrCartFull)
	require.Equal(t, MaxBooksPerReservation, c.Size())
}

func TestCartRemove(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, nil, 7))
	require.NoError(t, c.Add(2, nil, 7))

	require.True(t, c.Remove(1))
	require.False(t, c.Contains(1))
	require.True(t, c.Contains(2))

	// absent book is a no-op
	require.False(t, c.Remove(1))
	require.Equal(t, 1, c.Size())
}

func TestCartUpdate(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, nil, 7))

	pickup := time.Now().Add(48 * time.Hour)
	dur := 21
	changed, err := c.Update(1, CartPatch{PickupDate: &pickup, BorrowingDuration: &dur})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 21, c.Items[0].BorrowingDuration)
	require.NotNil(t, c.Items[0].PickupDate)

	bad := 9
	_, err = c.Update(1, CartPatch{BorrowingDuration: &bad})
	require.ErrorIs(t, err, ErrBadDuration)
	require.Equal(t, 21, c.Items[0].BorrowingDuration)

	changed, err = c.Update(404, CartPatch{BorrowingDuration: &dur})
	require.NoError(t, err)
	require.False(t, changed)
}

func TestCartClear(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.Add(1, nil, 7))
	c.Clear()
	require.Equal(t, 0, c.Size())
	require.False(t, c.IsFull())
}
