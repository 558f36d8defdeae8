package entity

import "time"

// Group is a group ticket offer. TotalSeats is the number of seats still for sale.
type Group struct {
	BaseNoDelete
	Title         string    `db:"title"`
	Sector        string    `db:"sector"`
	DepartureDate time.Time `db:"departure_date"`
	TotalSeats    int       `db:"total_seats"`
}
