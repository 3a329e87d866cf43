package cart

import "time"

type AddItemReq struct {
	BookID            int64      `json:"book_id" validate:"required,gt=0"`
	PickupDate        *time.Time `json:"pickup_date"`
	BorrowingDuration int        `json:"borrowing_duration" validate:"omitempty,oneof=7 14 21"`
}

type UpdateItemReq struct {
	PickupDate        *time.Time `json:"pickup_date"`
	BorrowingDuration *int       `json:"borrowing_duration" validate:"omitempty,oneof=7 14 21"`
}
