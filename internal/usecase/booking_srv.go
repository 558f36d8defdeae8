package usecase

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/clock"
	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/internal/metrics"
	"travel-booking/internal/notify"
	"travel-booking/internal/scheduler"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// priceToleranceCents absorbs rounding between the fare totals and the grand total
const priceToleranceCents = 1

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

func (a Actor) owns(b *entity.Booking) bool {
	return a.Admin || a.UserID == b.UserID
}

type BookingService interface {
	// Customer operations
	Create(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	Edit(ctx context.Context, actor Actor, bookingID string, req *request.EditBookingRequest) (*response.BookingResponse, error)
	Cancel(ctx context.Context, actor Actor, bookingID string) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, actor Actor, bookingID string) (*response.BookingResponse, error)
	ListUserBookings(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Admin operations
	AdminSetStatus(ctx context.Context, actor Actor, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
	Delete(ctx context.Context, actor Actor, bookingID string) error
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Expire cancels a hold whose deadline has passed and releases its seats and
	// credit. It reports false, without error, when there was nothing to expire.
	Expire(ctx context.Context, bookingID uuid.UUID) (bool, error)
	// RestoreTimers re-arms a timer for every persisted hold and expires the overdue ones.
	RestoreTimers(ctx context.Context) (int, error)
	Shutdown()
}

type bookingService struct {
	repo     *repository.Repository
	config   utils.ReservationConfig
	clock    clock.Clock
	timers   scheduler.Scheduler
	notifier notify.Notifier
	log      *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	config utils.ReservationConfig,
	clk clock.Clock,
	timers scheduler.Scheduler,
	notifier notify.Notifier,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:     repo,
		config:   config,
		clock:    clk,
		timers:   timers,
		notifier: notifier,
		log:      log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) Create(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (_ *response.BookingResponse, err error) {
	defer observe("create", &err)

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}
	pricing, err := validateBreakdown(req.AdultsCount, req.ChildrenCount, req.InfantsCount, req.Passengers, req.Pricing)
	if err != nil {
		s.log.Warn("Create booking rejected", zap.Error(err))
		return nil, err
	}

	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		return nil, newValidationError(map[string]string{"group_id": "Must be a valid UUID"})
	}

	group, err := s.repo.Group.FindByID(ctx, groupID)
	if err != nil {
		s.log.Error("Failed to find group", zap.Error(err), zap.String("group_id", req.GroupID))
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("group %s: %w", req.GroupID, ErrNotFound)
	}

	// fail fast before touching any counter, the debit below is still conditional
	balance, err := s.repo.User.GetBalance(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(fmt.Errorf("get balance: %w", err))
	}
	if balance < pricing.GrandTotalCents {
		return nil, fmt.Errorf("balance %s below total %s: %w",
			utils.FormatCents(balance), utils.FormatCents(pricing.GrandTotalCents), ErrInsufficientFunds)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.config.HoldDuration)
	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:     utils.GenerateBookingReference(now),
		GroupID:       groupID,
		UserID:        actor.UserID,
		AdultsCount:   req.AdultsCount,
		ChildrenCount: req.ChildrenCount,
		InfantsCount:  req.InfantsCount,
		Passengers:    toPassengers(req.Passengers),
		Pricing:       pricing,
		Status:        entity.BookingStatusOnHold,
		ExpiresAt:     &expiresAt,
	}

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.adjust(ctx, booking, -booking.Seats(), -booking.Pricing.GrandTotalCents); err != nil {
			return err
		}
		if err := s.repo.Booking.Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("create booking", err, zap.String("group_id", req.GroupID), zap.String("user_id", actor.UserID.String()))
		return nil, err
	}

	s.arm(ctx, booking)
	s.publish(ctx, notify.EventBookingCreated, booking, "", &actor)

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("user_id", actor.UserID.String()),
		zap.Int("seats", booking.Seats()),
		zap.Int64("grand_total_cents", booking.Pricing.GrandTotalCents),
		zap.Time("expires_at", expiresAt),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) Edit(ctx context.Context, actor Actor, bookingID string, req *request.EditBookingRequest) (_ *response.BookingResponse, err error) {
	defer observe("edit", &err)

	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Edit booking validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}
	pricing, err := validateBreakdown(req.AdultsCount, req.ChildrenCount, req.InfantsCount, req.Passengers, req.Pricing)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var updated *entity.Booking

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(current) {
			return fmt.Errorf("edit booking %s: %w", current.Reference, ErrForbidden)
		}
		if !current.Status.IsHold() {
			return fmt.Errorf("edit booking %s in status %s: %w", current.Reference, current.Status, ErrInvalidState)
		}

		next := current.Clone()
		next.AdultsCount = req.AdultsCount
		next.ChildrenCount = req.ChildrenCount
		next.InfantsCount = req.InfantsCount
		next.Passengers = toPassengers(req.Passengers)
		next.Pricing = pricing
		expiresAt := now.Add(s.config.HoldDuration)
		next.ExpiresAt = &expiresAt
		next.UpdatedAt = now

		seatDelta := current.Seats() - next.Seats()
		creditDelta := current.Pricing.GrandTotalCents - next.Pricing.GrandTotalCents
		if err := s.adjust(ctx, current, seatDelta, creditDelta); err != nil {
			return err
		}

		ok, err := s.repo.Booking.UpdateHold(ctx, next, current.Status)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if !ok {
			return fmt.Errorf("booking %s changed concurrently: %w", current.Reference, ErrInvalidState)
		}

		updated = next
		return nil
	})
	if err != nil {
		s.logFailure("edit booking", err, zap.String("booking_id", bookingID))
		return nil, err
	}

	s.arm(ctx, updated)
	s.publish(ctx, notify.EventBookingUpdated, updated, "", &actor)

	s.log.Info("Booking updated",
		zap.String("booking_id", bookingID),
		zap.String("reference", updated.Reference),
		zap.Int("seats", updated.Seats()),
		zap.Int64("grand_total_cents", updated.Pricing.GrandTotalCents),
	)

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor Actor, bookingID string) (_ *response.BookingResponse, err error) {
	defer observe("cancel", &err)

	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var cancelled *entity.Booking
	var prev entity.BookingStatus

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(current) {
			return fmt.Errorf("cancel booking %s: %w", current.Reference, ErrForbidden)
		}
		if current.Status == entity.BookingStatusCancelled {
			return fmt.Errorf("cancel booking %s: %w", current.Reference, ErrAlreadyCancelled)
		}

		if err := s.transition(ctx, current, entity.BookingStatusCancelled, nil, now); err != nil {
			return err
		}
		if err := s.adjust(ctx, current, current.Seats(), current.Pricing.GrandTotalCents); err != nil {
			return err
		}

		prev = current.Status
		cancelled = current
		cancelled.Status = entity.BookingStatusCancelled
		cancelled.ExpiresAt = nil
		cancelled.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.logFailure("cancel booking", err, zap.String("booking_id", bookingID))
		return nil, err
	}

	s.disarm(id)
	s.publish(ctx, notify.EventBookingCancelled, cancelled, prev, &actor)

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("reference", cancelled.Reference),
		zap.String("actor_id", actor.UserID.String()),
		zap.Int("seats_released", cancelled.Seats()),
		zap.Int64("credit_released_cents", cancelled.Pricing.GrandTotalCents),
	)

	resp := response.BookingToResponse(cancelled)
	return &resp, nil
}

func (s *bookingService) AdminSetStatus(ctx context.Context, actor Actor, bookingID string, req *request.UpdateBookingStatusRequest) (_ *response.BookingResponse, err error) {
	defer observe("set_status", &err)

	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	target := entity.BookingStatus(req.Status)

	now := s.clock.Now()
	var updated *entity.Booking
	var prev entity.BookingStatus

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}
		prev = current.Status
		if current.Status == target {
			updated = current
			return nil
		}

		var expiresAt *time.Time
		if target.IsHold() {
			t := now.Add(s.config.HoldDuration)
			expiresAt = &t
		}
		if err := s.transition(ctx, current, target, expiresAt, now); err != nil {
			return err
		}

		// compensation follows the cancelled boundary, not the absolute status
		switch {
		case current.Status.IsActive() && !target.IsActive():
			err = s.adjust(ctx, current, current.Seats(), current.Pricing.GrandTotalCents)
		case !current.Status.IsActive() && target.IsActive():
			err = s.adjust(ctx, current, -current.Seats(), -current.Pricing.GrandTotalCents)
		}
		if err != nil {
			return err
		}

		updated = current
		updated.Status = target
		updated.ExpiresAt = expiresAt
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.logFailure("set booking status", err, zap.String("booking_id", bookingID), zap.String("status", req.Status))
		return nil, err
	}

	if prev != target {
		if target.IsHold() {
			s.arm(ctx, updated)
		} else {
			s.disarm(id)
		}
		s.publish(ctx, notify.EventBookingStatusChanged, updated, prev, &actor)

		s.log.Info("Booking status changed",
			zap.String("booking_id", bookingID),
			zap.String("reference", updated.Reference),
			zap.String("from", string(prev)),
			zap.String("to", string(target)),
			zap.String("actor_id", actor.UserID.String()),
		)
	}

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

func (s *bookingService) Delete(ctx context.Context, actor Actor, bookingID string) (err error) {
	defer observe("delete", &err)

	id, err := parseBookingID(bookingID)
	if err != nil {
		return err
	}

	var deleted *entity.Booking

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}

		if current.Status.IsActive() {
			if err := s.adjust(ctx, current, current.Seats(), current.Pricing.GrandTotalCents); err != nil {
				return err
			}
		}

		ok, err := s.repo.Booking.Delete(ctx, id, current.Status)
		if err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		if !ok {
			return fmt.Errorf("booking %s changed concurrently: %w", current.Reference, ErrInvalidState)
		}

		deleted = current
		return nil
	})
	if err != nil {
		s.logFailure("delete booking", err, zap.String("booking_id", bookingID))
		return err
	}

	s.disarm(id)
	s.publish(ctx, notify.EventBookingDeleted, deleted, deleted.Status, &actor)

	s.log.Info("Booking deleted",
		zap.String("booking_id", bookingID),
		zap.String("reference", deleted.Reference),
		zap.String("status", string(deleted.Status)),
		zap.String("actor_id", actor.UserID.String()),
	)

	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor Actor, bookingID string) (*response.BookingResponse, error) {
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get booking", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if !actor.owns(booking) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrForbidden)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByUserID(ctx, actor.UserID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", actor.UserID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, actor.UserID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	return response.NewPaginatedResponse(toResponses(bookings), req.CurrentPage(), limit, total), nil
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	filter := repository.BookingFilter{
		Limit:  req.Limit(),
		Offset: req.Offset(),
	}
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, newValidationError(map[string]string{"user_id": "Must be a valid UUID"})
		}
		filter.UserID = &id
	}
	if req.GroupID != "" {
		id, err := uuid.Parse(req.GroupID)
		if err != nil {
			return nil, newValidationError(map[string]string{"group_id": "Must be a valid UUID"})
		}
		filter.GroupID = &id
	}
	if req.Status != "" {
		status := entity.BookingStatus(req.Status)
		filter.Status = &status
	}

	bookings, total, err := s.repo.Booking.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return response.NewPaginatedResponse(toResponses(bookings), req.CurrentPage(), filter.Limit, total), nil
}

// lockBooking loads the booking row for the rest of the transaction
func (s *bookingService) lockBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", id.String(), ErrNotFound)
	}
	return booking, nil
}

// transition writes the new status conditioned on the status read under lock
func (s *bookingService) transition(ctx context.Context, current *entity.Booking, to entity.BookingStatus, expiresAt *time.Time, now time.Time) error {
	ok, err := s.repo.Booking.Transition(ctx, repository.StatusTransition{
		ID:        current.ID,
		From:      []entity.BookingStatus{current.Status},
		To:        to,
		ExpiresAt: expiresAt,
		At:        now,
	})
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if !ok {
		return fmt.Errorf("booking %s changed concurrently: %w", current.Reference, ErrInvalidState)
	}
	return nil
}

// adjust moves seats and credit between the booking and its pools. Positive values
// return resources to the group and the owner, negative values take them.
func (s *bookingService) adjust(ctx context.Context, b *entity.Booking, seats int, credit int64) error {
	if seats != 0 {
		if _, err := s.repo.Group.AdjustSeats(ctx, b.GroupID, seats); err != nil {
			return storeErr(fmt.Errorf("adjust seats by %d: %w", seats, err))
		}
	}
	if credit != 0 {
		if _, err := s.repo.User.AdjustCredit(ctx, b.UserID, credit); err != nil {
			return storeErr(fmt.Errorf("adjust credit by %s: %w", utils.FormatCents(credit), err))
		}
	}
	return nil
}

func (s *bookingService) publish(ctx context.Context, name string, b *entity.Booking, prev entity.BookingStatus, actor *Actor) {
	event := notify.Event{
		Name:        name,
		BookingID:   b.ID,
		Reference:   b.Reference,
		UserID:      b.UserID,
		GroupID:     b.GroupID,
		Status:      string(b.Status),
		PrevStatus:  string(prev),
		Seats:       b.Seats(),
		AmountCents: b.Pricing.GrandTotalCents,
		ExpiresAt:   b.ExpiresAt,
		OccurredAt:  s.clock.Now(),
	}

	if actor != nil {
		id := actor.UserID
		event.ActorID = &id
	}

	if err := s.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn("Failed to publish booking event",
			zap.String("event", name),
			zap.String("reference", b.Reference),
			zap.Error(err),
		)
	}
}

func (s *bookingService) logFailure(operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if isRejection(err) {
		s.log.Warn(operation+" rejected", fields...)
		return
	}
	s.log.Error("Failed to "+operation, fields...)
}

func observe(operation string, err *error) {
	outcome := "ok"
	switch {
	case *err == nil:
	case isRejection(*err):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	metrics.BookingOperations.WithLabelValues(operation, outcome).Inc()
}

func parseBookingID(bookingID string) (uuid.UUID, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return uuid.Nil, newValidationError(map[string]string{"id": "Must be a valid UUID"})
	}
	return id, nil
}

// validateBreakdown checks what the field tags cannot: the passengers match the
// head count of every type, amounts are whole cents and the fare totals add up to
// the grand total. It returns the pricing in cents.
func validateBreakdown(adults, children, infants int, passengers []request.PassengerRequest, pricing request.PricingRequest) (entity.Pricing, error) {
	errs := make(map[string]string)

	if want := adults + children + infants; len(passengers) != want {
		errs["passengers"] = fmt.Sprintf("Expected %d passengers, got %d", want, len(passengers))
	} else {
		got := make(map[entity.PassengerType]int, 3)
		for _, p := range passengers {
			got[entity.PassengerType(p.Type)]++
		}
		for _, c := range []struct {
			typ  entity.PassengerType
			want int
		}{
			{entity.PassengerAdult, adults},
			{entity.PassengerChild, children},
			{entity.PassengerInfant, infants},
		} {
			if got[c.typ] != c.want {
				errs["passengers"] = fmt.Sprintf("Expected %d %s passengers, got %d", c.want, c.typ, got[c.typ])
				break
			}
		}
	}

	var cents entity.Pricing
	for _, f := range []struct {
		field  string
		amount float64
		dst    *int64
	}{
		{"adult_total", pricing.AdultTotal, &cents.AdultTotalCents},
		{"child_total", pricing.ChildTotal, &cents.ChildTotalCents},
		{"infant_total", pricing.InfantTotal, &cents.InfantTotalCents},
		{"grand_total", pricing.GrandTotal, &cents.GrandTotalCents},
	} {
		v, err := utils.ToCents(f.amount)
		if err != nil {
			errs[f.field] = "Must be an amount with at most two decimals"
			continue
		}
		*f.dst = v
	}

	if _, bad := errs["grand_total"]; !bad {
		sum := cents.AdultTotalCents + cents.ChildTotalCents + cents.InfantTotalCents
		if diff := sum - cents.GrandTotalCents; diff > priceToleranceCents || diff < -priceToleranceCents {
			errs["grand_total"] = fmt.Sprintf("Must equal the sum of fare totals (%s)", utils.FormatCents(sum))
		}
	}

	if len(errs) > 0 {
		return entity.Pricing{}, newValidationError(errs)
	}
	return cents, nil
}

func toPassengers(in []request.PassengerRequest) []entity.Passenger {
	out := make([]entity.Passenger, len(in))
	for i, p := range in {
		out[i] = entity.Passenger{
			Type:           entity.PassengerType(p.Type),
			FullName:       p.FullName,
			PassportNumber: p.PassportNumber,
			DateOfBirth:    p.DateOfBirth,
		}
	}
	return out
}

func toResponses(bookings []*entity.Booking) []response.BookingResponse {
	out := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = response.BookingToResponse(b)
	}
	return out
}
