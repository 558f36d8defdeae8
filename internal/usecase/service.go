package usecase

import (
	"travel-booking/internal/clock"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/notify"
	"travel-booking/internal/scheduler"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
	Account AccountService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	clk clock.Clock,
	timers scheduler.Scheduler,
	notifier notify.Notifier,
	log *zap.Logger,
) *Service {
	return &Service{
		Booking: NewBookingService(repo, config.Reservation, clk, timers, notifier, log),
		Account: NewAccountService(repo, log),
	}
}
