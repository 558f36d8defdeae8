package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusOnHold    BookingStatus = "on_hold"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// HoldStatuses are the statuses that carry an expiry deadline.
var HoldStatuses = []BookingStatus{BookingStatusOnHold, BookingStatusPending}

// ActiveStatuses are the statuses that keep seats and credit checked out.
var ActiveStatuses = []BookingStatus{BookingStatusOnHold, BookingStatusPending, BookingStatusConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusOnHold, BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// IsHold reports whether a booking in this status expires.
func (s BookingStatus) IsHold() bool {
	return s == BookingStatusOnHold || s == BookingStatusPending
}

// IsActive reports whether a booking in this status consumes seats and credit.
func (s BookingStatus) IsActive() bool {
	return s != BookingStatusCancelled
}

type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

type Passenger struct {
	Type           PassengerType `json:"type"`
	FullName       string        `json:"full_name"`
	PassportNumber string        `json:"passport_number,omitempty"`
	DateOfBirth    string        `json:"date_of_birth,omitempty"`
}

// Pricing is kept in integer cents. GrandTotalCents is what the hold charges against credit.
type Pricing struct {
	AdultTotalCents  int64 `db:"adult_total_cents"`
	ChildTotalCents  int64 `db:"child_total_cents"`
	InfantTotalCents int64 `db:"infant_total_cents"`
	GrandTotalCents  int64 `db:"grand_total_cents"`
}

type Booking struct {
	BaseNoDelete
	Reference     string        `db:"reference"`
	GroupID       uuid.UUID     `db:"group_id"`
	UserID        uuid.UUID     `db:"user_id"`
	AdultsCount   int           `db:"adults_count"`
	ChildrenCount int           `db:"children_count"`
	InfantsCount  int           `db:"infants_count"`
	Passengers    []Passenger   `db:"passengers"`
	Pricing       Pricing       `db:"pricing"`
	Status        BookingStatus `db:"status"`
	ExpiresAt     *time.Time    `db:"expires_at"`
}

// Seats is the number of inventory seats the booking occupies. Infants travel on a lap.
func (b *Booking) Seats() int {
	return b.AdultsCount + b.ChildrenCount
}

// Deadline is the instant the hold lapses.
func (b *Booking) Deadline(holdDuration time.Duration) time.Time {
	if b.ExpiresAt != nil {
		return *b.ExpiresAt
	}
	return b.UpdatedAt.Add(holdDuration)
}

// Clone returns a deep copy safe to hand out of a store.
func (b *Booking) Clone() *Booking {
	c := *b
	if b.Passengers != nil {
		c.Passengers = append([]Passenger(nil), b.Passengers...)
	}
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}
