package model

import (
	"errors"
	"time"
)

// Cart add rejections. The legacy front-end swallowed these silently; here
// the caller always learns why nothing was added.
var (
	ErrCartFull      = errors.New("cart is full")
	ErrDuplicateItem = errors.New("book already in cart")
	ErrBadDuration   = errors.New("invalid borrowing duration")
)

type CartItem struct {
	BookID            int64      `json:"book_id"`
	PickupDate        *time.Time `json:"pickup_date,omitempty"`
	BorrowingDuration int        `json:"borrowing_duration"`
}

// Cart is an ordered staging area for one user's selections, capped at
// MaxBooksPerReservation with at most one item per book.
type Cart struct {
	Items []CartItem `json:"items"`
}

func (c *Cart) Add(bookID int64, pickup *time.Time, durationDays int) error {
	if durationDays == 0 {
		durationDays = DefaultBorrowingDays
	}
	if !ValidDuration(durationDays) {
		return ErrBadDuration
	}
	if c.Contains(bookID) {
		return ErrDuplicateItem
	}
	if c.IsFull() {
		return ErrCartFull
	}
	c.Items = append(c.Items, CartItem{
		BookID:            bookID,
		PickupDate:        pickup,
		BorrowingDuration: durationDays,
	})
	return nil
}

// Remove drops the item for bookID; removing an absent book is a no-op.
func (c *Cart) Remove(bookID int64) bool {
	for i, it := range c.Items {
		if it.BookID == bookID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

type CartPatch struct {
	PickupDate        *time.Time
	BorrowingDuration *int
}

// Update merges the patch into the matching item; absent book is a no-op.
func (c *Cart) Update(bookID int64, patch CartPatch) (bool, error) {
	for i := range c.Items {
		if c.Items[i].BookID != bookID {
			continue
		}
		if patch.BorrowingDuration != nil {
			if !ValidDuration(*patch.BorrowingDuration) {
				return false, ErrBadDuration
			}
			c.Items[i].BorrowingDuration = *patch.BorrowingDuration
		}
		if patch.PickupDate != nil {
			c.Items[i].PickupDate = patch.PickupDate
		}
		return true, nil
	}
	return false, nil
}

func (c *Cart) Clear() { c.Items = nil }

func (c *Cart) IsFull() bool { return len(c.Items) >= MaxBooksPerReservation }

func (c *Cart) Contains(bookID int64) bool {
	for _, it := range c.Items {
		if it.BookID == bookID {
			return true
		}
	}
	return false
}

func (c *Cart) Size() int { return len(c.Items) }
