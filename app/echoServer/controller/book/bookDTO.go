package book

type AddCopiesReq struct {
	Count int `json:"count" validate:"required,gt=0"`
}

type SetCopyStatusReq struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE MAINTENANCE"`
}
