package repository

import (
	"travel-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Tx      TxManager
	User    UserRepository
	Session SessionRepository
	Group   GroupRepository
	Booking BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:      NewTxManager(db, log),
		User:    NewUserRepository(db, log),
		Session: NewSessionRepository(db, log),
		Group:   NewGroupRepository(db, log),
		Booking: NewBookingRepository(db, log),
	}
}
