package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/metrics"
	"travel-booking/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultExpireTimeout = 10 * time.Second

// arm (re)starts the expiry timer of a hold. The timer only caches the persisted
// deadline; the sweeper finds the hold again if the timer is lost.
//
// arm runs after the mutation committed, so a cancel, confirm or edit may have
// committed in between. The persisted row is read back once the timer is
// registered and the entry is dropped or moved to match it.
func (s *bookingService) arm(ctx context.Context, b *entity.Booking) {
	deadline := s.schedule(b)

	current, err := s.repo.Booking.FindByID(ctx, b.ID)
	switch {
	case err != nil:
		// keep the timer, Expire re-checks the row when it fires
		s.log.Warn("Failed to re-check armed booking",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	case current == nil || !current.Status.IsHold():
		s.disarm(b.ID)
	case !current.Deadline(s.config.HoldDuration).Equal(deadline):
		s.schedule(current)
	}
}

func (s *bookingService) schedule(b *entity.Booking) time.Time {
	id := b.ID
	deadline := b.Deadline(s.config.HoldDuration)

	s.timers.After(id, deadline.Sub(s.clock.Now()), func() {
		s.onTimer(id)
	})
	metrics.ArmedTimers.Set(float64(s.timers.Len()))
	return deadline
}

func (s *bookingService) disarm(id uuid.UUID) {
	s.timers.Cancel(id)
	metrics.ArmedTimers.Set(float64(s.timers.Len()))
}

func (s *bookingService) onTimer(id uuid.UUID) {
	timeout := s.config.ExpireTimeout
	if timeout <= 0 {
		timeout = defaultExpireTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	expired, err := s.Expire(ctx, id)
	metrics.ArmedTimers.Set(float64(s.timers.Len()))
	switch {
	case err == nil:
		if expired {
			metrics.HoldsExpired.WithLabelValues(metrics.TriggerTimer).Inc()
		}
	case errors.Is(err, ErrNotFound):
		// deleted while the timer was pending
	default:
		// the sweeper retries from the persisted deadline
		s.log.Error("Failed to expire booking on timer",
			zap.String("booking_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *bookingService) Expire(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	now := s.clock.Now()
	var expired *entity.Booking
	var prev entity.BookingStatus

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		// resolved by a racing cancel, confirm or edit
		if !current.Status.IsHold() || current.Deadline(s.config.HoldDuration).After(now) {
			return nil
		}

		ok, err := s.repo.Booking.Transition(ctx, repository.StatusTransition{
			ID:    current.ID,
			From:  entity.HoldStatuses,
			To:    entity.BookingStatusCancelled,
			DueBy: &now,
			At:    now,
		})
		if err != nil {
			return fmt.Errorf("expire booking: %w", err)
		}
		if !ok {
			return nil
		}

		if err := s.adjust(ctx, current, current.Seats(), current.Pricing.GrandTotalCents); err != nil {
			return err
		}

		prev = current.Status
		expired = current
		expired.Status = entity.BookingStatusCancelled
		expired.ExpiresAt = nil
		expired.UpdatedAt = now
		return nil
	})
	if err != nil {
		return false, err
	}
	if expired == nil {
		return false, nil
	}

	s.disarm(bookingID)
	s.publish(ctx, notify.EventBookingExpired, expired, prev, nil)

	s.log.Info("Booking expired",
		zap.String("booking_id", bookingID.String()),
		zap.String("reference", expired.Reference),
		zap.Int("seats_released", expired.Seats()),
		zap.Int64("credit_released_cents", expired.Pricing.GrandTotalCents),
	)

	return true, nil
}

func (s *bookingService) RestoreTimers(ctx context.Context) (int, error) {
	holds, err := s.repo.Booking.FindActiveHolds(ctx)
	if err != nil {
		s.log.Error("Failed to load active holds", zap.Error(err))
		return 0, fmt.Errorf("find active holds: %w", err)
	}

	now := s.clock.Now()
	armed, expired := 0, 0
	for _, b := range holds {
		if b.Deadline(s.config.HoldDuration).After(now) {
			s.arm(ctx, b)
			armed++
			continue
		}

		// already overdue: expire now instead of scheduling
		ok, err := s.Expire(ctx, b.ID)
		if err != nil {
			s.log.Error("Failed to expire overdue hold",
				zap.String("booking_id", b.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			expired++
			metrics.HoldsExpired.WithLabelValues(metrics.TriggerRestore).Inc()
		}
	}

	s.log.Info("Hold timers restored",
		zap.Int("armed", armed),
		zap.Int("expired", expired),
	)
	return armed, nil
}

func (s *bookingService) Shutdown() {
	s.timers.Stop()
	metrics.ArmedTimers.Set(0)
	s.log.Info("Hold timers stopped")
}
