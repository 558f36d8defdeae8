package repository

import (
	"context"
	"errors"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// GroupRepository is the seat inventory of group ticket offers.
type GroupRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error)
	// AdjustSeats atomically adds delta (possibly negative) to total_seats and
	// returns the new value. The counter never goes below zero.
	AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

type groupRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewGroupRepository(db database.PgxIface, log *zap.Logger) GroupRepository {
	return &groupRepository{
		db:  db,
		log: log.With(zap.String("repository", "group")),
	}
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	query := `
		SELECT id, title, sector, departure_date, total_seats, created_at, updated_at
		FROM groups
		WHERE id = $1
	`

	var group entity.Group
	err := conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Title,
		&group.Sector,
		&group.DepartureDate,
		&group.TotalSeats,
		&group.CreatedAt,
		&group.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find group by ID",
			zap.Error(err),
			zap.String("group_id", id.String()),
		)
		return nil, fmt.Errorf("find group by ID %s: %w", id.String(), err)
	}

	return &group, nil
}

func (r *groupRepository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE groups
		SET total_seats = total_seats + $2, updated_at = NOW()
		WHERE id = $1 AND total_seats + $2 >= 0
		RETURNING total_seats
	`

	var seats int
	err := conn(ctx, r.db).QueryRow(ctx, query, id, delta).Scan(&seats)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.missOrShort(ctx, id, ErrInsufficientSeats)
	}
	if err != nil {
		r.log.Error("Failed to adjust seats",
			zap.Error(err),
			zap.String("group_id", id.String()),
			zap.Int("delta", delta),
		)
		return 0, fmt.Errorf("adjust seats of group %s by %d: %w", id.String(), delta, err)
	}

	return seats, nil
}

// missOrShort tells a missing group apart from a guarded update that matched nothing
func (r *groupRepository) missOrShort(ctx context.Context, id uuid.UUID, short error) error {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check group %s: %w", id.String(), err)
	}
	if !exists {
		return fmt.Errorf("group %s: %w", id.String(), ErrNotFound)
	}
	return fmt.Errorf("group %s: %w", id.String(), short)
}
