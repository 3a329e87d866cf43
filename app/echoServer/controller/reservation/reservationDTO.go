package reservation

import "time"

type SubmitItemReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
	// omitted duration falls back to the 14-day default
	BorrowingDuration int `json:"borrowing_duration" validate:"omitempty,oneof=7 14 21"`
}

type SubmitReq struct {
	PickupDate time.Time       `json:"pickup_date" validate:"required"`
	Items      []SubmitItemReq `json:"items" validate:"required,dive"`
	Notes      *string         `json:"notes"`
}
