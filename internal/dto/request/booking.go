package request

type PassengerRequest struct {
	Type           string `json:"type" validate:"required,oneof=adult child infant"`
	FullName       string `json:"full_name" validate:"required,min=2,max=120"`
	PassportNumber string `json:"passport_number,omitempty" validate:"omitempty,max=20"`
	DateOfBirth    string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PricingRequest carries decimal amounts with at most two decimals.
type PricingRequest struct {
	AdultTotal  float64 `json:"adult_total" validate:"gte=0"`
	ChildTotal  float64 `json:"child_total" validate:"gte=0"`
	InfantTotal float64 `json:"infant_total" validate:"gte=0"`
	GrandTotal  float64 `json:"grand_total" validate:"gte=0"`
}

type CreateBookingRequest struct {
	GroupID       string             `json:"group_id" validate:"required,uuid4"`
	AdultsCount   int                `json:"adults_count" validate:"gte=1"`
	ChildrenCount int                `json:"children_count" validate:"gte=0"`
	InfantsCount  int                `json:"infants_count" validate:"gte=0"`
	Passengers    []PassengerRequest `json:"passengers" validate:"required,dive"`
	Pricing       PricingRequest     `json:"pricing"`
}

// EditBookingRequest replaces the passenger breakdown and pricing of a hold.
type EditBookingRequest struct {
	AdultsCount   int                `json:"adults_count" validate:"gte=1"`
	ChildrenCount int                `json:"children_count" validate:"gte=0"`
	InfantsCount  int                `json:"infants_count" validate:"gte=0"`
	Passengers    []PassengerRequest `json:"passengers" validate:"required,dive"`
	Pricing       PricingRequest     `json:"pricing"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=on_hold pending confirmed cancelled"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	UserID  string `json:"user_id" validate:"omitempty,uuid"`
	GroupID string `json:"group_id" validate:"omitempty,uuid"`
	Status  string `json:"status" validate:"omitempty,oneof=on_hold pending confirmed cancelled"`
}
