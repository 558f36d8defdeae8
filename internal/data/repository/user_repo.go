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

// UserRepository also acts as the credit ledger of prepaid customer balances.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetBalance(ctx context.Context, id uuid.UUID) (int64, error)
	// AdjustCredit atomically adds delta (possibly negative) to credit_cents and
	// returns the new balance. The balance never goes below zero.
	AdjustCredit(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, username, email, role, is_active, credit_cents,
		       created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	var user entity.User
	err := conn(ctx, ur.db).QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreditCents,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return &user, nil
}

func (ur *userRepository) GetBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `SELECT credit_cents FROM users WHERE id = $1 AND deleted_at IS NULL`

	var balance int64
	err := conn(ctx, ur.db).QueryRow(ctx, query, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", id.String(), ErrNotFound)
	}
	if err != nil {
		ur.log.Error("Failed to get credit balance",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return 0, fmt.Errorf("get balance of user %s: %w", id.String(), err)
	}

	return balance, nil
}

func (ur *userRepository) AdjustCredit(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE users
		SET credit_cents = credit_cents + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND credit_cents + $2 >= 0
		RETURNING credit_cents
	`

	var balance int64
	err := conn(ctx, ur.db).QueryRow(ctx, query, id, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, balErr := ur.GetBalance(ctx, id); balErr != nil {
			return 0, balErr
		}
		return 0, fmt.Errorf("user %s: %w", id.String(), ErrInsufficientCredit)
	}
	if err != nil {
		ur.log.Error("Failed to adjust credit",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.Int64("delta_cents", delta),
		)
		return 0, fmt.Errorf("adjust credit of user %s by %d cents: %w", id.String(), delta, err)
	}

	return balance, nil
}
