package borrowing

type PayFineReq struct {
	Method     string `json:"method" validate:"required,oneof=CASH ONLINE"`
	PayerEmail string `json:"payer_email" validate:"omitempty,email"`
}
