package adaptor

import (
	"encoding/json"
	"net/http"

	"travel-booking/internal/dto/request"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountHandler struct {
	service usecase.AccountService
	log     *zap.Logger
}

func NewAccountHandler(service usecase.AccountService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		log:     log.With(zap.String("handler", "account")),
	}
}

// GetCredit handles GET /api/user/credit (protected)
func (h *AccountHandler) GetCredit(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	credit, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "get credit")
		return
	}

	utils.ResponseSuccess(w, "success", credit)
}

// GetGroup handles GET /api/groups/{id} (public)
func (h *AccountHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get group")
		return
	}

	utils.ResponseSuccess(w, "success", group)
}

// TopUpCredit handles POST /api/admin/users/{id}/credit (admin only)
func (h *AccountHandler) TopUpCredit(w http.ResponseWriter, r *http.Request) {
	var req request.TopUpCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	credit, err := h.service.TopUp(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "top up credit")
		return
	}

	utils.ResponseSuccess(w, "Credit topped up", credit)
}
