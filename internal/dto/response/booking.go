package response

import (
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/utils"
)

type PassengerResponse struct {
	Type           entity.PassengerType `json:"type"`
	FullName       string               `json:"full_name"`
	PassportNumber string               `json:"passport_number,omitempty"`
	DateOfBirth    string               `json:"date_of_birth,omitempty"`
}

// PricingResponse renders the stored cents as decimal amounts.
type PricingResponse struct {
	AdultTotal  float64 `json:"adult_total"`
	ChildTotal  float64 `json:"child_total"`
	InfantTotal float64 `json:"infant_total"`
	GrandTotal  float64 `json:"grand_total"`
}

type BookingResponse struct {
	ID            string               `json:"id"`
	Reference     string               `json:"reference"`
	GroupID       string               `json:"group_id"`
	UserID        string               `json:"user_id"`
	AdultsCount   int                  `json:"adults_count"`
	ChildrenCount int                  `json:"children_count"`
	InfantsCount  int                  `json:"infants_count"`
	Passengers    []PassengerResponse  `json:"passengers"`
	Pricing       PricingResponse      `json:"pricing"`
	Status        entity.BookingStatus `json:"status"`
	ExpiresAt     *time.Time           `json:"expires_at"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	passengers := make([]PassengerResponse, len(b.Passengers))
	for i, p := range b.Passengers {
		passengers[i] = PassengerResponse{
			Type:           p.Type,
			FullName:       p.FullName,
			PassportNumber: p.PassportNumber,
			DateOfBirth:    p.DateOfBirth,
		}
	}

	return BookingResponse{
		ID:            b.ID.String(),
		Reference:     b.Reference,
		GroupID:       b.GroupID.String(),
		UserID:        b.UserID.String(),
		AdultsCount:   b.AdultsCount,
		ChildrenCount: b.ChildrenCount,
		InfantsCount:  b.InfantsCount,
		Passengers:    passengers,
		Pricing: PricingResponse{
			AdultTotal:  utils.FromCents(b.Pricing.AdultTotalCents),
			ChildTotal:  utils.FromCents(b.Pricing.ChildTotalCents),
			InfantTotal: utils.FromCents(b.Pricing.InfantTotalCents),
			GrandTotal:  utils.FromCents(b.Pricing.GrandTotalCents),
		},
		Status:    b.Status,
		ExpiresAt: b.ExpiresAt,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
