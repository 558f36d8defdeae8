package response

import (
	"time"

	"travel-booking/internal/data/entity"
)

type CreditResponse struct {
	UserID       string  `json:"user_id"`
	CreditAmount float64 `json:"credit_amount"`
}

type GroupResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Sector         string    `json:"sector"`
	DepartureDate  time.Time `json:"departure_date"`
	AvailableSeats int       `json:"available_seats"`
}

func GroupToResponse(g *entity.Group) GroupResponse {
	return GroupResponse{
		ID:             g.ID.String(),
		Title:          g.Title,
		Sector:         g.Sector,
		DepartureDate:  g.DepartureDate,
		AvailableSeats: g.TotalSeats,
	}
}
