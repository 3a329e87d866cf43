// model/borrowing.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Borrowing struct {
	ID            uuid.UUID  `json:"id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	UserID        int64      `json:"user_id"`
	BookID        int64      `json:"book_id"`
	CopyID        int64      `json:"copy_id"`
	BorrowedAt    time.Time  `json:"borrowed_at"`
	DueDate       time.Time  `json:"due_date"`
	Extended      bool       `json:"has_been_extended"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`

	// FineAmount accrues while overdue and is frozen at return time.
	FineAmount    float64 `json:"fine_amount"`
	FinePaid      bool    `json:"fine_paid"`
	FineInvoiceID *string `json:"fine_invoice_id,omitempty"`

	// Derived against "now" on read, never stored.
	IsOverdue     bool `json:"is_overdue"`
	RemainingDays int  `json:"remaining_days"`
}

func (b *Borrowing) Active() bool { return b.ReturnedAt == nil }

type DashboardStats struct {
	ActiveBorrowings  int64   `json:"active_borrowings"`
	OverdueBorrowings int64   `json:"overdue_borrowings"`
	ReturnedTotal     int64   `json:"returned_total"`
	OutstandingFines  float64 `json:"outstanding_fines"`
}
