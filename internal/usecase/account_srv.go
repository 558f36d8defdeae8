package usecase

import (
	"context"
	"fmt"

	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/dto/response"
	"travel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*response.CreditResponse, error)
	TopUp(ctx context.Context, userID string, req *request.TopUpCreditRequest) (*response.CreditResponse, error)
	GetGroup(ctx context.Context, groupID string) (*response.GroupResponse, error)
}

type accountService struct {
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
	log       *zap.Logger
}

func NewAccountService(repo *repository.Repository, log *zap.Logger) AccountService {
	return &accountService{
		userRepo:  repo.User,
		groupRepo: repo.Group,
		log:       log.With(zap.String("service", "account")),
	}
}

func (as *accountService) GetBalance(ctx context.Context, userID uuid.UUID) (*response.CreditResponse, error) {
	balance, err := as.userRepo.GetBalance(ctx, userID)
	if err != nil {
		err = storeErr(err)
		if !isRejection(err) {
			as.log.Error("Failed to get balance", zap.Error(err), zap.String("user_id", userID.String()))
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}

	return &response.CreditResponse{
		UserID:       userID.String(),
		CreditAmount: utils.FromCents(balance),
	}, nil
}

// TopUp credits a customer's prepaid balance
func (as *accountService) TopUp(ctx context.Context, userID string, req *request.TopUpCreditRequest) (*response.CreditResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, newValidationError(map[string]string{"id": "Must be a valid UUID"})
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	amount, err := utils.ToCents(req.Amount)
	if err != nil {
		return nil, newValidationError(map[string]string{"amount": "Must be an amount with at most two decimals"})
	}

	balance, err := as.userRepo.AdjustCredit(ctx, id, amount)
	if err != nil {
		err = storeErr(err)
		if !isRejection(err) {
			as.log.Error("Failed to top up credit", zap.Error(err), zap.String("user_id", userID))
		}
		return nil, fmt.Errorf("top up credit: %w", err)
	}

	as.log.Info("Credit topped up",
		zap.String("user_id", userID),
		zap.Int64("amount_cents", amount),
		zap.Int64("balance_cents", balance),
	)

	return &response.CreditResponse{
		UserID:       userID,
		CreditAmount: utils.FromCents(balance),
	}, nil
}

func (as *accountService) GetGroup(ctx context.Context, groupID string) (*response.GroupResponse, error) {
	id, err := uuid.Parse(groupID)
	if err != nil {
		return nil, newValidationError(map[string]string{"id": "Must be a valid UUID"})
	}

	group, err := as.groupRepo.FindByID(ctx, id)
	if err != nil {
		as.log.Error("Failed to find group", zap.Error(err), zap.String("group_id", groupID))
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}

	resp := response.GroupToResponse(group)
	return &resp, nil
}
