package wishlist

type AddReq struct {
	BookID   int64  `json:"book_id" validate:"required,gt=0"`
	Priority int    `json:"priority" validate:"omitempty,min=1,max=5"`
	Notes    string `json:"notes"`
}

type UpdateReq struct {
	Priority *int    `json:"priority" validate:"omitempty,min=1,max=5"`
	Notes    *string `json:"notes"`
}
