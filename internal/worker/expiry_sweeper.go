// Package worker holds the background jobs of the booking service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-booking/internal/clock"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/metrics"
	"travel-booking/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Expirer releases one overdue hold.
type Expirer interface {
	Expire(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

const defaultBatchSize = 100

type SweepResult struct {
	Found   int
	Expired int
	Failed  int
}

// ExpirySweeper periodically expires holds whose persisted deadline has passed.
// It is the backstop for timers lost to a restart.
type ExpirySweeper struct {
	bookings  repository.BookingRepository
	expirer   Expirer
	clock     clock.Clock
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewExpirySweeper(
	bookings repository.BookingRepository,
	expirer Expirer,
	clk clock.Clock,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		bookings:  bookings,
		expirer:   expirer,
		clock:     clk,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With(zap.String("worker", "expiry_sweeper")),
	}
}

// Run sweeps once right away and then on every interval until ctx is done.
func (w *ExpirySweeper) Run(ctx context.Context) error {
	w.log.Info("Expiry sweeper started",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("Expiry sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.log.Info("Expiry sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce expires every overdue hold, one batch at a time. A failed booking is
// logged and skipped so the rest of the pass still runs.
func (w *ExpirySweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	metrics.SweepRuns.Inc()

	batch := w.batchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	var result SweepResult
	// holds this pass could not expire stay in the result set, skip them
	skipped := make(map[uuid.UUID]struct{})

	for {
		limit := batch + len(skipped)
		holds, err := w.bookings.FindExpiredHolds(ctx, w.clock.Now(), limit)
		if err != nil {
			return result, fmt.Errorf("find expired holds: %w", err)
		}

		progressed := false
		for _, b := range holds {
			if _, ok := skipped[b.ID]; ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}

			result.Found++
			progressed = true

			expired, err := w.expirer.Expire(ctx, b.ID)
			switch {
			case err == nil && expired:
				result.Expired++
				metrics.HoldsExpired.WithLabelValues(metrics.TriggerSweeper).Inc()
				continue
			case err == nil, errors.Is(err, usecase.ErrNotFound), errors.Is(err, usecase.ErrInvalidState):
				// resolved by a racing operation
			default:
				result.Failed++
				metrics.SweepFailures.Inc()
				w.log.Error("Failed to expire booking",
					zap.String("booking_id", b.ID.String()),
					zap.String("reference", b.Reference),
					zap.Error(err),
				)
			}
			skipped[b.ID] = struct{}{}
		}

		if !progressed || len(holds) < limit {
			break
		}
	}

	if result.Found > 0 {
		w.log.Info("Expiry sweep finished",
			zap.Int("found", result.Found),
			zap.Int("expired", result.Expired),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}
