package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type TransactionService struct {
	transactionRepo repo_interfaces.TransactionRepository
	accountRepo     repo_interfaces.AccountRepository
	accountService  service_interfaces.AccountService
	postingService  service_interfaces.PostingService
	rateService     service_interfaces.RateService
	publisher       service_interfaces.EventsPublisher
	policies        map[string]domain.InstitutionPolicy
}

func NewTransactionService(
	transactionRepo repo_interfaces.TransactionRepository,
	accountRepo repo_interfaces.AccountRepository,
	accountService service_interfaces.AccountService,
	postingService service_interfaces.PostingService,
	rateService service_interfaces.RateService,
	publisher service_interfaces.EventsPublisher,
	policies map[string]domain.InstitutionPolicy,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		accountService:  accountService,
		postingService:  postingService,
		rateService:     rateService,
		publisher:       publisher,
		policies:        policies,
	}
}

func (s *TransactionService) SubmitTransaction(ctx context.Context, req models.SubmitTransactionRequest) (commons.Response[models.TransactionResult], error) {
	logger.Info("transaction service submit request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransactionResult]("validation failed", err.Error()), err
	}

	institutionID := strings.TrimSpace(req.InstitutionID)
	policy, ok := s.policies[institutionID]
	if !ok {
		err := fmt.Errorf("institution %s is not configured", institutionID)
		return commons.ErrorResponse[models.TransactionResult]("validation failed", err.Error()), err
	}

	if err := policy.TransactionCustomFields.Validate(req.CustomFields); err != nil {
		return commons.ErrorResponse[models.TransactionResult]("validation failed", err.Error()), err
	}

	candidate := s.buildTransaction(req, policy)

	// Idempotency pre-check. A repeat submission with the same payload gets
	// the winner's result; a payload mismatch under the same reference is a
	// hard conflict.
	if existing, err := s.transactionRepo.GetByReference(ctx, institutionID, candidate.Reference); err == nil {
		return s.respondExisting(ctx, existing, candidate)
	} else if !errors.Is(err, commons.ErrRecordNotFound) {
		return commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), err
	}

	debitAccount, creditAccount, response, err := s.checkAccounts(ctx, candidate, policy)
	if err != nil {
		return response, err
	}
	candidate.CreditCurrency = creditAccount.Currency

	created, err := s.transactionRepo.Create(ctx, candidate)
	if err != nil {
		if errors.Is(err, commons.ErrDuplicateReference) || isUniqueViolation(err) {
			winner, getErr := s.transactionRepo.GetByReference(ctx, institutionID, candidate.Reference)
			if getErr != nil {
				return commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), getErr
			}
			return s.respondExisting(ctx, winner, candidate)
		}
		logger.Error("transaction service create failed", err, logger.Fields{
			"reference": candidate.Reference,
		})
		return commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), err
	}

	total := created.Amount.Add(created.Fee)
	if err := s.accountService.PlaceHold(ctx, institutionID, debitAccount.AccountNumber, total); err != nil {
		return s.failTransaction(ctx, created, err.Error(), err)
	}

	postings, holdReleased, err := s.applyPostings(ctx, created, debitAccount, creditAccount, policy)
	if err != nil {
		if !holdReleased {
			_ = s.accountService.ReleaseHold(ctx, institutionID, debitAccount.AccountNumber, total)
		}
		return s.failTransaction(ctx, created, err.Error(), err)
	}

	if err := s.transactionRepo.UpdateStatus(ctx, institutionID, created.ID, domain.TransactionStatusPending, domain.TransactionStatusCompleted, nil); err != nil {
		logger.Error("transaction service complete transition failed", err, logger.Fields{
			"transactionId": created.ID,
		})
		return commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), err
	}
	created.Status = domain.TransactionStatusCompleted

	s.publishTransactionEvent(ctx, domain.TopicTransactionCompleted, created)

	result := models.TransactionResult{
		TransactionID: created.ID,
		Reference:     created.Reference,
		Status:        string(created.Status),
		Amount:        created.Amount,
		Fee:           created.Fee,
		Currency:      created.Currency,
		PostingIDs:    postingIDs(postings),
	}

	logger.Info("transaction service completed", logger.Fields{
		"transactionId": created.ID,
		"reference":     created.Reference,
		"postings":      len(postings),
	})

	return commons.SuccessResponse("transaction completed successfully", result), nil
}

func (s *TransactionService) buildTransaction(req models.SubmitTransactionRequest, policy domain.InstitutionPolicy) domain.Transaction {
	currency := domain.NormalizeCurrency(req.Currency)
	amount := domain.RoundMinor(req.Amount, currency)

	category := domain.TransactionCategory(strings.ToUpper(strings.TrimSpace(req.Category)))
	if category == "" {
		category = domain.TransactionCategoryTransfer
	}

	fee := decimal.Zero
	if category == domain.TransactionCategoryTransfer {
		fee = policy.Fee.FeeFor(amount, currency)
	}

	valueDate := req.ValueDate
	if valueDate.IsZero() {
		valueDate = time.Now().UTC()
	}

	return domain.Transaction{
		ID:                  uuid.New().String(),
		InstitutionID:       strings.TrimSpace(req.InstitutionID),
		Reference:           strings.TrimSpace(req.Reference),
		DebitAccountNumber:  strings.TrimSpace(req.DebitAccountNumber),
		CreditAccountNumber: strings.TrimSpace(req.CreditAccountNumber),
		Amount:              amount,
		Fee:                 fee,
		Currency:            currency,
		CreditCurrency:      currency,
		Type:                domain.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Category:            category,
		Status:              domain.TransactionStatusPending,
		Narration:           strings.TrimSpace(req.Narration),
		ValueDate:           valueDate,
		CustomFields:        req.CustomFields,
	}
}

func (s *TransactionService) checkAccounts(ctx context.Context, candidate domain.Transaction, policy domain.InstitutionPolicy) (domain.Account, domain.Account, commons.Response[models.TransactionResult], error) {
	institutionID := candidate.InstitutionID

	debitAccount, err := s.accountRepo.GetByAccountNumber(ctx, institutionID, candidate.DebitAccountNumber)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("Debit account not found"), err
		}
		return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), err
	}
	creditAccount, err := s.accountRepo.GetByAccountNumber(ctx, institutionID, candidate.CreditAccountNumber)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("Credit account not found"), err
		}
		return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), err
	}

	if !debitAccount.Status.CanDebit() {
		err := statusError(debitAccount.Status)
		return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("validation failed", err.Error()), err
	}
	if !creditAccount.Status.CanCredit() {
		err := statusError(creditAccount.Status)
		return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("validation failed", err.Error()), err
	}

	if domain.NormalizeCurrency(debitAccount.Currency) != candidate.Currency {
		err := commons.ErrCurrencyMismatch
		return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("validation failed", "currency does not match debit account currency"), err
	}

	if policy.MaxTransactionAmount.GreaterThan(decimal.Zero) && candidate.Amount.GreaterThan(policy.MaxTransactionAmount) {
		err := commons.ErrLimitExceeded
		return domain.Account{}, domain.Account{}, commons.ErrorResponse[models.TransactionResult]("Transaction limit exceeded", err.Error()), err
	}

	return debitAccount, creditAccount, commons.Response[models.TransactionResult]{}, nil
}

// applyPostings writes the balanced posting set for a transaction: a
// single posting for same-currency moves, a pair through the FX position
// accounts for cross-currency moves, plus a fee posting when a fee
// applies. Holds placed during validation are released just before the
// corresponding debit lands so the available-balance guard sees the real
// headroom. The returned flag tells the caller whether that release
// happened, so the hold is released exactly once on every path and a
// failure here never touches holds owned by other in-flight
// transactions.
func (s *TransactionService) applyPostings(ctx context.Context, transaction domain.Transaction, debitAccount domain.Account, creditAccount domain.Account, policy domain.InstitutionPolicy) ([]domain.GLPosting, bool, error) {
	institutionID := transaction.InstitutionID
	total := transaction.Amount.Add(transaction.Fee)

	if err := s.accountService.ReleaseHold(ctx, institutionID, debitAccount.AccountNumber, total); err != nil {
		return nil, false, err
	}

	var applied []domain.GLPosting

	compensate := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			p := applied[i]
			_, compErr := s.postingService.Post(ctx, service_interfaces.PostRequest{
				InstitutionID:       institutionID,
				TransactionID:       transaction.ID,
				DebitAccountNumber:  p.CreditAccountNumber,
				CreditAccountNumber: p.DebitAccountNumber,
				Amount:              p.DebitAmount,
				Currency:            p.Currency,
				Narration:           "auto-compensation: " + p.Narration,
				ValueDate:           p.ValueDate,
			})
			if compErr != nil {
				logger.Critical("transaction service compensation posting failed, manual reconciliation required", compErr, logger.Fields{
					"transactionId": transaction.ID,
					"postingId":     p.ID,
				})
			}
		}
	}

	sameCurrency := domain.NormalizeCurrency(creditAccount.Currency) == transaction.Currency

	if sameCurrency {
		posting, err := s.postingService.Post(ctx, service_interfaces.PostRequest{
			InstitutionID:       institutionID,
			TransactionID:       transaction.ID,
			DebitAccountNumber:  debitAccount.AccountNumber,
			CreditAccountNumber: creditAccount.AccountNumber,
			Amount:              transaction.Amount,
			Currency:            transaction.Currency,
			Narration:           transaction.Narration,
			ValueDate:           transaction.ValueDate,
		})
		if err != nil {
			return nil, true, err
		}
		applied = append(applied, posting)
	} else {
		outPosition, ok := policy.FXPositionAccounts[transaction.Currency]
		if !ok {
			return nil, true, fmt.Errorf("no FX position account configured for %s", transaction.Currency)
		}
		inPosition, ok := policy.FXPositionAccounts[domain.NormalizeCurrency(creditAccount.Currency)]
		if !ok {
			return nil, true, fmt.Errorf("no FX position account configured for %s", creditAccount.Currency)
		}

		converted, rateUsed, err := s.rateService.Convert(ctx, transaction.Amount, transaction.Currency, creditAccount.Currency)
		if err != nil {
			return nil, true, err
		}

		legOut, err := s.postingService.Post(ctx, service_interfaces.PostRequest{
			InstitutionID:       institutionID,
			TransactionID:       transaction.ID,
			DebitAccountNumber:  debitAccount.AccountNumber,
			CreditAccountNumber: outPosition,
			Amount:              transaction.Amount,
			Currency:            transaction.Currency,
			Narration:           fmt.Sprintf("%s (FX %s->%s @ %s)", transaction.Narration, transaction.Currency, domain.NormalizeCurrency(creditAccount.Currency), rateUsed),
			ValueDate:           transaction.ValueDate,
		})
		if err != nil {
			return nil, true, err
		}
		applied = append(applied, legOut)

		legIn, err := s.postingService.Post(ctx, service_interfaces.PostRequest{
			InstitutionID:       institutionID,
			TransactionID:       transaction.ID,
			DebitAccountNumber:  inPosition,
			CreditAccountNumber: creditAccount.AccountNumber,
			Amount:              converted,
			Currency:            creditAccount.Currency,
			Narration:           fmt.Sprintf("%s (FX settlement)", transaction.Narration),
			ValueDate:           transaction.ValueDate,
		})
		if err != nil {
			compensate()
			return nil, true, err
		}
		applied = append(applied, legIn)
	}

	if transaction.Fee.GreaterThan(decimal.Zero) && policy.FeeIncomeAccountNumber != "" {
		feePosting, err := s.postingService.Post(ctx, service_interfaces.PostRequest{
			InstitutionID:       institutionID,
			TransactionID:       transaction.ID,
			DebitAccountNumber:  debitAccount.AccountNumber,
			CreditAccountNumber: policy.FeeIncomeAccountNumber,
			Amount:              transaction.Fee,
			Currency:            transaction.Currency,
			Narration:           "transaction fee",
			ValueDate:           transaction.ValueDate,
		})
		if err != nil {
			compensate()
			return nil, true, err
		}
		applied = append(applied, feePosting)
	}

	return applied, true, nil
}

func (s *TransactionService) respondExisting(ctx context.Context, existing domain.Transaction, candidate domain.Transaction) (commons.Response[models.TransactionResult], error) {
	if !existing.SamePayload(candidate) {
		err := commons.ErrReferenceConflict
		logger.Error("transaction service reference conflict", err, logger.Fields{
			"reference":             candidate.Reference,
			"existingTransactionId": existing.ID,
		})
		return commons.ErrorResponse[models.TransactionResult]("reference conflict", "Reference was already used with a different payload"), err
	}

	postings, err := s.postingService.ListByTransaction(ctx, existing.InstitutionID, existing.ID)
	if err != nil {
		return commons.ErrorResponse[models.TransactionResult]("failed to process transaction", "Unable to process transaction right now"), err
	}

	result := models.TransactionResult{
		TransactionID: existing.ID,
		Reference:     existing.Reference,
		Status:        string(existing.Status),
		Amount:        existing.Amount,
		Fee:           existing.Fee,
		Currency:      existing.Currency,
		PostingIDs:    postingIDs(postings),
	}
	if existing.FailureReason != nil {
		result.FailureReason = *existing.FailureReason
	}

	logger.Info("transaction service idempotent replay", logger.Fields{
		"transactionId": existing.ID,
		"reference":     existing.Reference,
	})

	return commons.SuccessResponse("duplicate reference, returning original result", result), nil
}

func (s *TransactionService) failTransaction(ctx context.Context, transaction domain.Transaction, reason string, cause error) (commons.Response[models.TransactionResult], error) {
	if err := s.transactionRepo.UpdateStatus(ctx, transaction.InstitutionID, transaction.ID, domain.TransactionStatusPending, domain.TransactionStatusFailed, &reason); err != nil {
		logger.Error("transaction service fail transition failed", err, logger.Fields{
			"transactionId": transaction.ID,
		})
	}
	transaction.Status = domain.TransactionStatusFailed
	transaction.FailureReason = &reason

	s.publishTransactionEvent(ctx, domain.TopicTransactionFailed, transaction)

	logger.Error("transaction service failed", cause, logger.Fields{
		"transactionId": transaction.ID,
		"reference":     transaction.Reference,
		"reason":        reason,
	})

	return commons.ErrorResponse[models.TransactionResult]("transaction failed", reason), cause
}

func (s *TransactionService) CancelTransaction(ctx context.Context, req models.CancelTransactionRequest) (commons.Response[models.TransactionResult], error) {
	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransactionResult]("validation failed", err.Error()), err
	}

	transaction, err := s.transactionRepo.GetByID(ctx, req.InstitutionID, req.TransactionID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResult]("Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResult]("failed to cancel transaction", "Unable to cancel transaction right now"), err
	}

	if transaction.Status != domain.TransactionStatusPending {
		err := commons.ErrNotCancellable
		return commons.ErrorResponse[models.TransactionResult]("cannot cancel", "Only pending transactions can be cancelled; completed transactions must be reversed"), err
	}

	postings, err := s.postingService.ListByTransaction(ctx, req.InstitutionID, transaction.ID)
	if err != nil {
		return commons.ErrorResponse[models.TransactionResult]("failed to cancel transaction", "Unable to cancel transaction right now"), err
	}
	if len(postings) > 0 {
		err := commons.ErrNotCancellable
		return commons.ErrorResponse[models.TransactionResult]("cannot cancel", "Transaction has posted; it can only be reversed"), err
	}

	total := transaction.Amount.Add(transaction.Fee)
	_ = s.accountService.ReleaseHold(ctx, req.InstitutionID, transaction.DebitAccountNumber, total)

	if err := s.transactionRepo.UpdateStatus(ctx, req.InstitutionID, transaction.ID, domain.TransactionStatusPending, domain.TransactionStatusCancelled, nil); err != nil {
		return commons.ErrorResponse[models.TransactionResult]("failed to cancel transaction", "Unable to cancel transaction right now"), err
	}

	logger.Info("transaction service cancelled", logger.Fields{
		"transactionId": transaction.ID,
		"reason":        req.Reason,
	})

	result := models.TransactionResult{
		TransactionID: transaction.ID,
		Reference:     transaction.Reference,
		Status:        string(domain.TransactionStatusCancelled),
		Amount:        transaction.Amount,
		Fee:           transaction.Fee,
		Currency:      transaction.Currency,
	}
	return commons.SuccessResponse("transaction cancelled", result), nil
}

// ExpirePending fails transactions stuck PENDING beyond the horizon and
// releases their holds. Intended to run from a background sweep.
func (s *TransactionService) ExpirePending(ctx context.Context, horizon time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-horizon)
	stale, err := s.transactionRepo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	reason := "expired: pending beyond processing horizon"
	expired := 0
	for _, transaction := range stale {
		total := transaction.Amount.Add(transaction.Fee)
		_ = s.accountService.ReleaseHold(ctx, transaction.InstitutionID, transaction.DebitAccountNumber, total)

		if err := s.transactionRepo.UpdateStatus(ctx, transaction.InstitutionID, transaction.ID, domain.TransactionStatusPending, domain.TransactionStatusFailed, &reason); err != nil {
			logger.Error("transaction service expire transition failed", err, logger.Fields{
				"transactionId": transaction.ID,
			})
			continue
		}

		transaction.Status = domain.TransactionStatusFailed
		transaction.FailureReason = &reason
		s.publishTransactionEvent(ctx, domain.TopicTransactionFailed, transaction)
		expired++
	}

	if expired > 0 {
		logger.Info("transaction service expired stale pending transactions", logger.Fields{
			"count": expired,
		})
	}
	return expired, nil
}

func (s *TransactionService) publishTransactionEvent(ctx context.Context, topic string, transaction domain.Transaction) {
	event := domain.TransactionEvent{
		EventID:             uuid.New().String(),
		InstitutionID:       transaction.InstitutionID,
		TransactionID:       transaction.ID,
		Reference:           transaction.Reference,
		DebitAccountNumber:  transaction.DebitAccountNumber,
		CreditAccountNumber: transaction.CreditAccountNumber,
		Amount:              transaction.Amount,
		Currency:            transaction.Currency,
		Status:              transaction.Status,
		OccurredAt:          time.Now().UTC(),
	}
	if transaction.FailureReason != nil {
		event.FailureReason = *transaction.FailureReason
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		logger.Error("transaction service publish event failed", err, logger.Fields{
			"topic":         topic,
			"transactionId": transaction.ID,
		})
	}
}

func postingIDs(postings []domain.GLPosting) []string {
	ids := make([]string, 0, len(postings))
	for _, posting := range postings {
		ids = append(ids, posting.ID)
	}
	return ids
}

func statusError(status domain.AccountStatus) error {
	switch status {
	case domain.AccountStatusClosed:
		return commons.ErrAccountClosed
	case domain.AccountStatusFrozen:
		return commons.ErrAccountFrozen
	default:
		return commons.ErrAccountNotActive
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}

var _ service_interfaces.TransactionService = (*TransactionService)(nil)
