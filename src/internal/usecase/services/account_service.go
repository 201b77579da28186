package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	accountRepo repo_interfaces.AccountRepository
	policies    map[string]domain.InstitutionPolicy
}

func NewAccountService(
	accountRepo repo_interfaces.AccountRepository,
	policies map[string]domain.InstitutionPolicy,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		policies:    policies,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	institutionID := strings.TrimSpace(req.InstitutionID)
	currency := domain.NormalizeCurrency(req.Currency)

	if policy, ok := s.policies[institutionID]; ok {
		if err := policy.AccountCustomFields.Validate(req.CustomFields); err != nil {
			logger.Error("account service create account custom fields invalid", err, logger.Fields{
				"institutionId": institutionID,
			})
			return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
		}
	}

	deposit := domain.RoundMinor(req.InitialDeposit, currency)
	account := domain.Account{
		ID:               uuid.New().String(),
		InstitutionID:    institutionID,
		CustomerID:       strings.TrimSpace(req.CustomerID),
		AccountNumber:    strings.TrimSpace(req.AccountNumber),
		Currency:         currency,
		CurrentBalance:   deposit,
		HoldBalance:      decimal.Zero,
		LedgerBalance:    deposit,
		OverdraftLimit:   req.OverdraftLimit,
		OverdraftAllowed: req.OverdraftAllowed,
		Status:           domain.AccountStatusActive,
		CustomFields:     req.CustomFields,
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		logger.Error("account service create account repository failed", err, logger.Fields{
			"accountNumber": account.AccountNumber,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	response := models.AccountResponse{
		ID:               created.ID,
		CustomerID:       created.CustomerID,
		AccountNumber:    created.AccountNumber,
		Currency:         created.Currency,
		CurrentBalance:   created.CurrentBalance,
		AvailableBalance: created.AvailableBalance(),
		HoldBalance:      created.HoldBalance,
		LedgerBalance:    created.LedgerBalance,
		Status:           string(created.Status),
	}

	logger.Info("account service create account success", logger.Fields{
		"accountId":     response.ID,
		"accountNumber": response.AccountNumber,
	})

	return commons.SuccessResponse("account created successfully", response), nil
}

func (s *AccountService) GetAccountBalance(ctx context.Context, institutionID string, accountNumber string) (commons.Response[domain.Balances], error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		err := errors.New("accountNumber is required")
		return commons.ErrorResponse[domain.Balances]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetByAccountNumber(ctx, institutionID, accountNumber)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[domain.Balances]("Account not found"), err
		}
		logger.Error("account service get balance failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return commons.ErrorResponse[domain.Balances]("failed to fetch balance", "Unable to fetch balance right now"), err
	}

	return commons.SuccessResponse("balance fetched successfully", account.Balances()), nil
}

func (s *AccountService) Debit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	if !domain.IsPositiveAmount(amount) {
		return errors.New("amount must be greater than zero")
	}
	return withContentionRetry(ctx, func() error {
		return s.accountRepo.Debit(ctx, institutionID, accountNumber, amount)
	})
}

func (s *AccountService) Credit(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	if !domain.IsPositiveAmount(amount) {
		return errors.New("amount must be greater than zero")
	}
	return withContentionRetry(ctx, func() error {
		return s.accountRepo.Credit(ctx, institutionID, accountNumber, amount)
	})
}

func (s *AccountService) PlaceHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	if !domain.IsPositiveAmount(amount) {
		return errors.New("amount must be greater than zero")
	}
	return withContentionRetry(ctx, func() error {
		return s.accountRepo.PlaceHold(ctx, institutionID, accountNumber, amount)
	})
}

func (s *AccountService) ReleaseHold(ctx context.Context, institutionID string, accountNumber string, amount decimal.Decimal) error {
	if !domain.IsPositiveAmount(amount) {
		return errors.New("amount must be greater than zero")
	}
	return withContentionRetry(ctx, func() error {
		return s.accountRepo.ReleaseHold(ctx, institutionID, accountNumber, amount)
	})
}

func (s *AccountService) UpdateStatus(ctx context.Context, institutionID string, accountNumber string, to domain.AccountStatus) error {
	account, err := s.accountRepo.GetByAccountNumber(ctx, institutionID, accountNumber)
	if err != nil {
		return err
	}

	if !account.Status.CanTransitionTo(to) {
		logger.Error("account service illegal status transition", commons.ErrInvalidStateTransition, logger.Fields{
			"accountNumber": accountNumber,
			"from":          account.Status,
			"to":            to,
		})
		return commons.ErrInvalidStateTransition
	}

	return s.accountRepo.UpdateStatus(ctx, institutionID, accountNumber, account.Status, to)
}

var _ service_interfaces.AccountService = (*AccountService)(nil)
