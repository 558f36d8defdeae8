package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travel-booking/internal/clock"
	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/memory"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/notify"
	"travel-booking/internal/scheduler"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 2, 14, 6, 0, 0, 0, time.UTC)

// stubExpirer cancels holds straight in the store unless told otherwise
type stubExpirer struct {
	mu    sync.Mutex
	repo  *repository.Repository
	errs  map[uuid.UUID]error
	calls []uuid.UUID
}

func (s *stubExpirer) Expire(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	s.calls = append(s.calls, id)
	err := s.errs[id]
	s.mu.Unlock()

	if err != nil {
		return false, err
	}
	return s.repo.Booking.Transition(ctx, repository.StatusTransition{
		ID:   id,
		From: entity.HoldStatuses,
		To:   entity.BookingStatusCancelled,
		At:   epoch,
	})
}

func seedHold(t *testing.T, repo *repository.Repository, expiresAt time.Time) uuid.UUID {
	t.Helper()
	b := &entity.Booking{
		Reference:   "UMR-" + uuid.NewString()[:8],
		GroupID:     uuid.New(),
		UserID:      uuid.New(),
		AdultsCount: 1,
		Status:      entity.BookingStatusOnHold,
		ExpiresAt:   &expiresAt,
	}
	b.ID = uuid.New()
	b.CreatedAt = expiresAt.Add(-2 * time.Hour)
	b.UpdatedAt = b.CreatedAt
	require.NoError(t, repo.Booking.Create(context.Background(), b))
	return b.ID
}

func TestRunOnce_ContinuesPastFailures(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	clk := clock.NewFake(epoch)

	broken := seedHold(t, repo, epoch.Add(-3*time.Minute))
	gone := seedHold(t, repo, epoch.Add(-2*time.Minute))
	ok := seedHold(t, repo, epoch.Add(-time.Minute))
	future := seedHold(t, repo, epoch.Add(time.Minute))

	expirer := &stubExpirer{repo: repo, errs: map[uuid.UUID]error{
		broken: errors.New("connection reset"),
		gone:   usecase.ErrNotFound,
	}}
	sweeper := NewExpirySweeper(repo.Booking, expirer, clk, time.Minute, 10, zap.NewNop())

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Found: 3, Expired: 1, Failed: 1}, result)
	assert.ElementsMatch(t, []uuid.UUID{broken, gone, ok}, expirer.calls)
	assert.NotContains(t, expirer.calls, future)
}

func TestRunOnce_WorksThroughBatches(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	clk := clock.NewFake(epoch)

	for i := range 5 {
		seedHold(t, repo, epoch.Add(-time.Duration(i+1)*time.Minute))
	}

	sweeper := NewExpirySweeper(repo.Booking, &stubExpirer{repo: repo}, clk, time.Minute, 2, zap.NewNop())

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Expired)

	left, err := repo.Booking.FindExpiredHolds(context.Background(), epoch, 10)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRunOnce_ReportsQueryFailure(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	boom := errors.New("database is shutting down")
	store.FailNext("Booking.FindExpiredHolds", boom)

	sweeper := NewExpirySweeper(repo.Booking, &stubExpirer{repo: repo}, clock.NewFake(epoch), time.Minute, 10, zap.NewNop())

	_, err := sweeper.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
}

// A hold whose timer died with the process is still released by the next sweep.
func TestRunOnce_ExpiresHoldsAfterRestart(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	clk := clock.NewFake(epoch)
	cfg := utils.ReservationConfig{HoldDuration: 2 * time.Hour}

	group := &entity.Group{Title: "Hajj Plus 2026", TotalSeats: 10}
	group.ID = uuid.New()
	store.PutGroup(group)
	user := &entity.User{Username: "salma", Role: entity.RoleCustomer, IsActive: true, CreditCents: 100000}
	user.ID = uuid.New()
	store.PutUser(user)

	before := usecase.NewBookingService(repo, cfg, clk, scheduler.NewManual(clk), notify.Nop{}, zap.NewNop())
	resp, err := before.Create(context.Background(), usecase.Actor{UserID: user.ID}, &request.CreateBookingRequest{
		GroupID:     group.ID.String(),
		AdultsCount: 2,
		Passengers: []request.PassengerRequest{
			{Type: "adult", FullName: "Salma Rahman"},
			{Type: "adult", FullName: "Yusuf Rahman"},
		},
		Pricing: request.PricingRequest{AdultTotal: 500, GrandTotal: 500},
	})
	require.NoError(t, err)

	// the process dies with its timers
	before.Shutdown()
	clk.Advance(2*time.Hour + 30*time.Second)

	after := usecase.NewBookingService(repo, cfg, clk, scheduler.NewManual(clk), notify.Nop{}, zap.NewNop())
	defer after.Shutdown()
	sweeper := NewExpirySweeper(repo.Booking, after, clk, time.Minute, 100, zap.NewNop())

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)

	b, err := repo.Booking.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, b.Status)

	g, err := repo.Group.FindByID(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, g.TotalSeats)

	balance, err := repo.User.GetBalance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), balance)

	// a second pass finds nothing left
	result, err = sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Found)
}

func TestRun_SweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	store := memory.NewStore(zap.NewNop())
	repo := store.Repository()
	id := seedHold(t, repo, epoch.Add(-time.Minute))

	expirer := &stubExpirer{repo: repo}
	sweeper := NewExpirySweeper(repo.Booking, expirer, clock.NewFake(epoch), time.Hour, 10, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool {
		b, err := repo.Booking.FindByID(context.Background(), id)
		return err == nil && b.Status == entity.BookingStatusCancelled
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
