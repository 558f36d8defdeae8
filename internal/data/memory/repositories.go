package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"

	"github.com/google/uuid"
)

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Booking.Create"); err != nil {
		return err
	}

	if _, ok := r.s.bookings[booking.ID]; ok {
		return fmt.Errorf("create booking %s: duplicate id", booking.Reference)
	}
	for _, b := range r.s.bookings {
		if b.Reference == booking.Reference {
			return fmt.Errorf("create booking %s: duplicate reference", booking.Reference)
		}
	}

	r.s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Booking.FindByID"); err != nil {
		return nil, err
	}

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

// FindByIDForUpdate needs no row lock: transactions already hold the store mutex.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	defer r.s.lock(ctx)()

	for _, b := range r.s.bookings {
		if b.Reference == reference {
			return b.Clone(), nil
		}
	}
	return nil, nil
}

func (r *bookingRepository) match(pred func(*entity.Booking) bool) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if pred(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func newestFirst(bookings []*entity.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}

func page(bookings []*entity.Booking, limit, offset int) []*entity.Booking {
	if offset >= len(bookings) {
		return nil
	}
	end := len(bookings)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return bookings[offset:end]
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	defer r.s.lock(ctx)()

	out := r.match(func(b *entity.Booking) bool { return b.UserID == userID })
	newestFirst(out)
	return page(out, limit, offset), nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()

	return int64(len(r.match(func(b *entity.Booking) bool { return b.UserID == userID }))), nil
}

func (r *bookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, int64, error) {
	defer r.s.lock(ctx)()

	out := r.match(func(b *entity.Booking) bool {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			return false
		}
		if filter.GroupID != nil && b.GroupID != *filter.GroupID {
			return false
		}
		if filter.Status != nil && b.Status != *filter.Status {
			return false
		}
		return true
	})
	newestFirst(out)
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func byDeadline(bookings []*entity.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].ExpiresAt.Before(*bookings[j].ExpiresAt)
	})
}

func (r *bookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Booking.FindExpiredHolds"); err != nil {
		return nil, err
	}

	out := r.match(func(b *entity.Booking) bool {
		return b.Status.IsHold() && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
	})
	byDeadline(out)
	return page(out, limit, 0), nil
}

func (r *bookingRepository) FindActiveHolds(ctx context.Context) ([]*entity.Booking, error) {
	defer r.s.lock(ctx)()

	out := r.match(func(b *entity.Booking) bool {
		return b.Status.IsHold() && b.ExpiresAt != nil
	})
	byDeadline(out)
	return out, nil
}

func (r *bookingRepository) UpdateHold(ctx context.Context, booking *entity.Booking, expected entity.BookingStatus) (bool, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Booking.UpdateHold"); err != nil {
		return false, err
	}

	cur, ok := r.s.bookings[booking.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}

	next := booking.Clone()
	next.Reference = cur.Reference
	next.GroupID = cur.GroupID
	next.UserID = cur.UserID
	next.Status = cur.Status
	next.CreatedAt = cur.CreatedAt
	r.s.bookings[booking.ID] = next
	return true, nil
}

func (r *bookingRepository) Transition(ctx context.Context, t repository.StatusTransition) (bool, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Booking.Transition"); err != nil {
		return false, err
	}

	cur, ok := r.s.bookings[t.ID]
	if !ok || !slices.Contains(t.From, cur.Status) {
		return false, nil
	}
	if t.DueBy != nil && (cur.ExpiresAt == nil || cur.ExpiresAt.After(*t.DueBy)) {
		return false, nil
	}

	cur.Status = t.To
	cur.ExpiresAt = nil
	if t.ExpiresAt != nil {
		e := *t.ExpiresAt
		cur.ExpiresAt = &e
	}
	cur.UpdatedAt = t.At
	return true, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID, expected entity.BookingStatus) (bool, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Booking.Delete"); err != nil {
		return false, err
	}

	cur, ok := r.s.bookings[id]
	if !ok || cur.Status != expected {
		return false, nil
	}
	delete(r.s.bookings, id)
	return true, nil
}

type groupRepository struct {
	s *Store
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	defer r.s.lock(ctx)()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (r *groupRepository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("Group.AdjustSeats"); err != nil {
		return 0, err
	}

	g, ok := r.s.groups[id]
	if !ok {
		return 0, fmt.Errorf("group %s: %w", id.String(), repository.ErrNotFound)
	}
	if g.TotalSeats+delta < 0 {
		return 0, fmt.Errorf("group %s: %w", id.String(), repository.ErrInsufficientSeats)
	}
	g.TotalSeats += delta
	g.UpdatedAt = time.Now()
	return g.TotalSeats, nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepository) GetBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return 0, fmt.Errorf("user %s: %w", id.String(), repository.ErrNotFound)
	}
	return u.CreditCents, nil
}

func (r *userRepository) AdjustCredit(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("User.AdjustCredit"); err != nil {
		return 0, err
	}

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return 0, fmt.Errorf("user %s: %w", id.String(), repository.ErrNotFound)
	}
	if u.CreditCents+delta < 0 {
		return 0, fmt.Errorf("user %s: %w", id.String(), repository.ErrInsufficientCredit)
	}
	u.CreditCents += delta
	u.UpdatedAt = time.Now()
	return u.CreditCents, nil
}

type sessionRepository struct {
	s *Store
}

func (r *sessionRepository) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	defer r.s.lock(ctx)()

	sess, ok := r.s.sessions[token]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	c := *sess
	return &c, nil
}
