package request

type TopUpCreditRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}
