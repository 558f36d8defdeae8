// Package memory keeps every store of the booking service in process memory.
// It backs STORAGE_DRIVER=memory and the reservation tests. Transactions are
// serialized behind a single mutex and undone from a snapshot on error.
package memory

import (
	"context"
	"sync"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	groups   map[uuid.UUID]*entity.Group
	users    map[uuid.UUID]*entity.User
	sessions map[string]*entity.Session

	faults map[string]error
	log    *zap.Logger
}

type txKey struct{}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		bookings: make(map[uuid.UUID]*entity.Booking),
		groups:   make(map[uuid.UUID]*entity.Group),
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[string]*entity.Session),
		faults:   make(map[string]error),
		log:      log.With(zap.String("repository", "memory")),
	}
}

// Repository exposes the store through the repository contracts.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Tx:      &txManager{s: s},
		User:    &userRepository{s: s},
		Session: &sessionRepository{s: s},
		Group:   &groupRepository{s: s},
		Booking: &bookingRepository{s: s},
	}
}

// lock takes the store mutex unless ctx already runs inside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// FailNext makes the next call of op return err. op is "<Repo>.<Method>", e.g. "Group.AdjustSeats".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault must be called with the mutex held
func (s *Store) fault(op string) error {
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

func (s *Store) PutGroup(g *entity.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *g
	s.groups[g.ID] = &c
}

func (s *Store) PutUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

func (s *Store) PutSession(sess *entity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sess
	s.sessions[sess.Token.String()] = &c
}

type snapshot struct {
	bookings map[uuid.UUID]*entity.Booking
	groups   map[uuid.UUID]*entity.Group
	users    map[uuid.UUID]*entity.User
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		bookings: make(map[uuid.UUID]*entity.Booking, len(s.bookings)),
		groups:   make(map[uuid.UUID]*entity.Group, len(s.groups)),
		users:    make(map[uuid.UUID]*entity.User, len(s.users)),
	}
	for id, b := range s.bookings {
		snap.bookings[id] = b.Clone()
	}
	for id, g := range s.groups {
		c := *g
		snap.groups[id] = &c
	}
	for id, u := range s.users {
		c := *u
		snap.users[id] = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.bookings = snap.bookings
	s.groups = snap.groups
	s.users = snap.users
}

type txManager struct {
	s *Store
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) == m.s {
		return fn(ctx)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	snap := m.s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.s.restore(snap)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, m.s)); err != nil {
		m.s.restore(snap)
		return err
	}

	return nil
}
