package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestBookingRepository_TransitionIsConditionedOnStatusAndDeadline(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock, zap.NewNop())

	id := uuid.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`^UPDATE bookings SET status = \$1, expires_at = \$2, updated_at = \$3 WHERE id = \$4 AND status IN \(\$5,\$6\) AND expires_at <= \$7`).
		WithArgs(entity.BookingStatusCancelled, pgxmock.AnyArg(), pgxmock.AnyArg(), id,
			entity.BookingStatusOnHold, entity.BookingStatusPending, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.Transition(context.Background(), StatusTransition{
		ID:    id,
		From:  entity.HoldStatuses,
		To:    entity.BookingStatusCancelled,
		DueBy: &now,
		At:    now,
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_TransitionReportsLostRace(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock, zap.NewNop())

	id := uuid.New()

	mock.ExpectExec(`^UPDATE bookings SET status = \$1, expires_at = \$2, updated_at = \$3 WHERE id = \$4 AND status IN \(\$5\)$`).
		WithArgs(entity.BookingStatusConfirmed, pgxmock.AnyArg(), pgxmock.AnyArg(), id, entity.BookingStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Transition(context.Background(), StatusTransition{
		ID:   id,
		From: []entity.BookingStatus{entity.BookingStatusPending},
		To:   entity.BookingStatusConfirmed,
		At:   time.Now(),
	})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListAppliesFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock, zap.NewNop())

	userID := uuid.New()
	status := entity.BookingStatusOnHold

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM bookings WHERE \(user_id = \$1 AND status = \$2\)$`).
		WithArgs(userID, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`FROM bookings WHERE \(user_id = \$1 AND status = \$2\) ORDER BY created_at DESC LIMIT 20 OFFSET 40$`).
		WithArgs(userID, status).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	bookings, total, err := repo.List(context.Background(), BookingFilter{
		UserID: &userID,
		Status: &status,
		Limit:  20,
		Offset: 40,
	})

	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, int64(0), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_DeleteIsConditionedOnStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewBookingRepository(mock, zap.NewNop())

	id := uuid.New()

	mock.ExpectExec(`^DELETE FROM bookings WHERE id = \$1 AND status = \$2$`).
		WithArgs(id, entity.BookingStatusCancelled).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	ok, err := repo.Delete(context.Background(), id, entity.BookingStatusCancelled)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepository_AdjustSeats(t *testing.T) {
	id := uuid.New()

	t.Run("applies delta", func(t *testing.T) {
		mock := newMock(t)
		repo := NewGroupRepository(mock, zap.NewNop())

		mock.ExpectQuery(`UPDATE groups`).
			WithArgs(id, -2).
			WillReturnRows(pgxmock.NewRows([]string{"total_seats"}).AddRow(8))

		seats, err := repo.AdjustSeats(context.Background(), id, -2)

		require.NoError(t, err)
		assert.Equal(t, 8, seats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses to go below zero", func(t *testing.T) {
		mock := newMock(t)
		repo := NewGroupRepository(mock, zap.NewNop())

		mock.ExpectQuery(`UPDATE groups`).
			WithArgs(id, -20).
			WillReturnRows(pgxmock.NewRows([]string{"total_seats"}))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.AdjustSeats(context.Background(), id, -20)

		assert.ErrorIs(t, err, ErrInsufficientSeats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown group", func(t *testing.T) {
		mock := newMock(t)
		repo := NewGroupRepository(mock, zap.NewNop())

		mock.ExpectQuery(`UPDATE groups`).
			WithArgs(id, 3).
			WillReturnRows(pgxmock.NewRows([]string{"total_seats"}))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.AdjustSeats(context.Background(), id, 3)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserRepository_AdjustCreditRefusesOverdraft(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())

	id := uuid.New()

	mock.ExpectQuery(`UPDATE users`).
		WithArgs(id, int64(-75000)).
		WillReturnRows(pgxmock.NewRows([]string{"credit_cents"}))
	mock.ExpectQuery(`SELECT credit_cents FROM users`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"credit_cents"}).AddRow(int64(50000)))

	_, err := repo.AdjustCredit(context.Background(), id, -75000)

	assert.ErrorIs(t, err, ErrInsufficientCredit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CommitsAndRollsBack(t *testing.T) {
	id := uuid.New()

	t.Run("commit", func(t *testing.T) {
		mock := newMock(t)
		tx := NewTxManager(mock, zap.NewNop())
		repo := NewBookingRepository(mock, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM bookings`).
			WithArgs(id, entity.BookingStatusCancelled).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
			_, err := repo.Delete(ctx, id, entity.BookingStatusCancelled)
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		mock := newMock(t)
		tx := NewTxManager(mock, zap.NewNop())
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
