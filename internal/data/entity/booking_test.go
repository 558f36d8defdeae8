package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus(t *testing.T) {
	tests := []struct {
		status BookingStatus
		hold   bool
		active bool
	}{
		{BookingStatusOnHold, true, true},
		{BookingStatusPending, true, true},
		{BookingStatusConfirmed, false, true},
		{BookingStatusCancelled, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.hold, tt.status.IsHold())
			assert.Equal(t, tt.active, tt.status.IsActive())
		})
	}

	assert.False(t, BookingStatus("expired").Valid())
}

func TestBooking_Deadline(t *testing.T) {
	updated := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{BaseNoDelete: BaseNoDelete{UpdatedAt: updated}}

	assert.Equal(t, updated.Add(2*time.Hour), b.Deadline(2*time.Hour))

	expires := updated.Add(30 * time.Minute)
	b.ExpiresAt = &expires
	assert.Equal(t, expires, b.Deadline(2*time.Hour))
}

func TestBooking_CloneIsDeep(t *testing.T) {
	expires := time.Now()
	b := &Booking{
		AdultsCount: 2,
		Passengers:  []Passenger{{Type: PassengerAdult, FullName: "A"}},
		ExpiresAt:   &expires,
	}

	c := b.Clone()
	c.Passengers[0].FullName = "B"
	*c.ExpiresAt = expires.Add(time.Hour)

	assert.Equal(t, "A", b.Passengers[0].FullName)
	assert.Equal(t, expires, *b.ExpiresAt)
	assert.Equal(t, 2, c.Seats())
}
