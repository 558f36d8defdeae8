// Package notify delivers booking lifecycle events to customers' notification pipeline.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingUpdated       = "booking.updated"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingExpired       = "booking.expired"
	EventBookingStatusChanged = "booking.status_changed"
	EventBookingDeleted       = "booking.deleted"
)

type Event struct {
	Name        string     `json:"event"`
	BookingID   uuid.UUID  `json:"booking_id"`
	Reference   string     `json:"reference"`
	UserID      uuid.UUID  `json:"user_id"`
	GroupID     uuid.UUID  `json:"group_id"`
	Status      string     `json:"status"`
	PrevStatus  string     `json:"previous_status,omitempty"`
	Seats       int        `json:"seats"`
	AmountCents int64      `json:"amount_cents"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
