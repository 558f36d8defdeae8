package usecase

import (
	"context"
	"testing"

	"travel-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAccountService(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.repo, zap.NewNop())
	ctx := context.Background()

	t.Run("balance", func(t *testing.T) {
		resp, err := svc.GetBalance(ctx, f.owner.UserID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, resp.CreditAmount)

		_, err = svc.GetBalance(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("top up", func(t *testing.T) {
		resp, err := svc.TopUp(ctx, f.owner.UserID.String(), &request.TopUpCreditRequest{Amount: 250})
		require.NoError(t, err)
		assert.Equal(t, 1250.0, resp.CreditAmount)

		_, err = svc.TopUp(ctx, f.owner.UserID.String(), &request.TopUpCreditRequest{Amount: -5})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.TopUp(ctx, f.owner.UserID.String(), &request.TopUpCreditRequest{Amount: 0.015})
		assert.ErrorIs(t, err, ErrValidation)

		resp, err = svc.TopUp(ctx, f.owner.UserID.String(), &request.TopUpCreditRequest{Amount: 0.1})
		require.NoError(t, err)
		assert.Equal(t, 1250.1, resp.CreditAmount)

		balance, err := f.repo.User.GetBalance(ctx, f.owner.UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(125010), balance)

		_, err = svc.TopUp(ctx, uuid.NewString(), &request.TopUpCreditRequest{Amount: 5})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("group availability follows holds", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.owner, adults(f.group.ID, 3, 300))
		require.NoError(t, err)

		resp, err := svc.GetGroup(ctx, f.group.ID.String())
		require.NoError(t, err)
		assert.Equal(t, 7, resp.AvailableSeats)
		assert.Equal(t, "CGK-JED", resp.Sector)

		_, err = svc.GetGroup(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
