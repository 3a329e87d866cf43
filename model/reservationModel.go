// model/reservation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationPickedUp  ReservationStatus = "PICKED_UP"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationPickedUp, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// CanTransitionTo encodes the lifecycle:
// PENDING -> CONFIRMED -> PICKED_UP | CANCELLED | EXPIRED.
// PICKED_UP and CANCELLED may come straight from PENDING; EXPIRED is
// reached only by the expiry worker.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case ReservationConfirmed:
		return s == ReservationPending
	case ReservationPickedUp, ReservationCancelled, ReservationExpired:
		return s == ReservationPending || s == ReservationConfirmed
	}
	return false
}

type ReservationItem struct {
	BookID            int64     `json:"book_id"`
	CopyID            int64     `json:"copy_id"`
	BorrowingDuration int       `json:"borrowing_duration"`
	DueDate           time.Time `json:"due_date"`
}

type Reservation struct {
	ID                uuid.UUID         `json:"id"`
	ReservationNumber string            `json:"reservation_number"`
	UserID            int64             `json:"user_id"`
	Items             []ReservationItem `json:"items"`
	PickupDate        time.Time         `json:"pickup_date"`
	Status            ReservationStatus `json:"status"`
	QRCode            *string           `json:"qr_code,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}
