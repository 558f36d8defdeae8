package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, filter BookingFilter) ([]*entity.Booking, int64, error)

	// Hold lifecycle queries
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	FindActiveHolds(ctx context.Context) ([]*entity.Booking, error)

	// Conditional writes. Each returns false when the row is missing or its status
	// no longer matches the expected one.
	UpdateHold(ctx context.Context, booking *entity.Booking, expected entity.BookingStatus) (bool, error)
	Transition(ctx context.Context, t StatusTransition) (bool, error)
	Delete(ctx context.Context, id uuid.UUID, expected entity.BookingStatus) (bool, error)
}

// BookingFilter narrows the admin booking listing. Nil fields are ignored.
type BookingFilter struct {
	UserID  *uuid.UUID
	GroupID *uuid.UUID
	Status  *entity.BookingStatus
	Limit   int
	Offset  int
}

// StatusTransition moves a booking to To, provided its current status is one of From
// and, when DueBy is set, its hold deadline is not after DueBy.
type StatusTransition struct {
	ID        uuid.UUID
	From      []entity.BookingStatus
	To        entity.BookingStatus
	ExpiresAt *time.Time
	DueBy     *time.Time
	At        time.Time
}

const bookingColumns = `id, reference, group_id, user_id, adults_count, children_count, infants_count,
		passengers, adult_total_cents, child_total_cents, infant_total_cents, grand_total_cents, status, expires_at,
		created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.GroupID,
		&booking.UserID,
		&booking.AdultsCount,
		&booking.ChildrenCount,
		&booking.InfantsCount,
		&booking.Passengers,
		&booking.Pricing.AdultTotalCents,
		&booking.Pricing.ChildTotalCents,
		&booking.Pricing.InfantTotalCents,
		&booking.Pricing.GrandTotalCents,
		&booking.Status,
		&booking.ExpiresAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.GroupID,
		booking.UserID,
		booking.AdultsCount,
		booking.ChildrenCount,
		booking.InfantsCount,
		booking.Passengers,
		booking.Pricing.AdultTotalCents,
		booking.Pricing.ChildTotalCents,
		booking.Pricing.InfantTotalCents,
		booking.Pricing.GrandTotalCents,
		booking.Status,
		booking.ExpiresAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

func (r *bookingRepository) findOne(ctx context.Context, query string, arg any) (*entity.Booking, error) {
	booking, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return booking, err
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := r.findOne(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := r.findOne(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to lock booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("lock booking %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	booking, err := r.findOne(ctx, query, reference)
	if err != nil {
		r.log.Error("Failed to find booking by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find booking by reference %s: %w", reference, err)
	}

	return booking, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := conn(ctx, r.db).QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (f BookingFilter) where() sq.And {
	cond := sq.And{}
	if f.UserID != nil {
		cond = append(cond, sq.Eq{"user_id": *f.UserID})
	}
	if f.GroupID != nil {
		cond = append(cond, sq.Eq{"group_id": *f.GroupID})
	}
	if f.Status != nil {
		cond = append(cond, sq.Eq{"status": *f.Status})
	}
	return cond
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]*entity.Booking, int64, error) {
	where := filter.where()

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("bookings").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build booking count query: %w", err)
	}

	var total int64
	if err := conn(ctx, r.db).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	listSQL, listArgs, err := psql.Select(bookingColumns).
		From("bookings").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build booking list query: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, listSQL, listArgs...)
	if err != nil {
		r.log.Error("Failed to list bookings", zap.Error(err))
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	bookings, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *bookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ('on_hold', 'pending') AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired holds", zap.Error(err), zap.Time("now", now))
		return nil, fmt.Errorf("find expired holds: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) FindActiveHolds(ctx context.Context) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ('on_hold', 'pending')
		ORDER BY expires_at
	`

	rows, err := conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active holds", zap.Error(err))
		return nil, fmt.Errorf("find active holds: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) UpdateHold(ctx context.Context, booking *entity.Booking, expected entity.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET adults_count = $3, children_count = $4, infants_count = $5, passengers = $6,
		    adult_total_cents = $7, child_total_cents = $8, infant_total_cents = $9, grand_total_cents = $10,
		    expires_at = $11, updated_at = $12
		WHERE id = $1 AND status = $2
	`

	result, err := conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		expected,
		booking.AdultsCount,
		booking.ChildrenCount,
		booking.InfantsCount,
		booking.Passengers,
		booking.Pricing.AdultTotalCents,
		booking.Pricing.ChildTotalCents,
		booking.Pricing.InfantTotalCents,
		booking.Pricing.GrandTotalCents,
		booking.ExpiresAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update hold",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return false, fmt.Errorf("update hold %s: %w", booking.ID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *bookingRepository) Transition(ctx context.Context, t StatusTransition) (bool, error) {
	q := psql.Update("bookings").
		Set("status", t.To).
		Set("expires_at", t.ExpiresAt).
		Set("updated_at", t.At).
		Where(sq.Eq{"id": t.ID, "status": t.From})
	if t.DueBy != nil {
		q = q.Where(sq.LtOrEq{"expires_at": *t.DueBy})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build transition query: %w", err)
	}

	result, err := conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to transition booking",
			zap.Error(err),
			zap.String("booking_id", t.ID.String()),
			zap.String("status", string(t.To)),
		)
		return false, fmt.Errorf("transition booking %s to %s: %w", t.ID.String(), t.To, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID, expected entity.BookingStatus) (bool, error) {
	query := `DELETE FROM bookings WHERE id = $1 AND status = $2`

	result, err := conn(ctx, r.db).Exec(ctx, query, id, expected)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("delete booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}
