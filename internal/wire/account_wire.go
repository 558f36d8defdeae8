package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAccount(
	r chi.Router,
	accountHandler *adaptor.AccountHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// GET /api/groups/{id} - seat availability (public)
	r.Get("/api/groups/{id}", accountHandler.GetGroup)

	r.With(middleware.AuthSession(repo.Session, log)).Get("/api/user/credit", accountHandler.GetCredit)

	r.Route("/api/admin/users", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		r.Post("/{id}/credit", accountHandler.TopUpCredit)
	})
}
