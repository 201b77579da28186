package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
)

type PostingService struct {
	postingRepo    repo_interfaces.PostingRepository
	lockPeriodRepo repo_interfaces.LockPeriodRepository
	approvalRepo   repo_interfaces.ApprovalRepository
	publisher      service_interfaces.EventsPublisher
}

func NewPostingService(
	postingRepo repo_interfaces.PostingRepository,
	lockPeriodRepo repo_interfaces.LockPeriodRepository,
	approvalRepo repo_interfaces.ApprovalRepository,
	publisher service_interfaces.EventsPublisher,
) *PostingService {
	return &PostingService{
		postingRepo:    postingRepo,
		lockPeriodRepo: lockPeriodRepo,
		approvalRepo:   approvalRepo,
		publisher:      publisher,
	}
}

// Post writes one balanced double-entry posting. The posting row and both
// balance movements land atomically or not at all.
func (s *PostingService) Post(ctx context.Context, req service_interfaces.PostRequest) (domain.GLPosting, error) {
	if !domain.IsPositiveAmount(req.Amount) {
		return domain.GLPosting{}, errors.New("amount must be greater than zero")
	}
	if req.DebitAccountNumber == req.CreditAccountNumber {
		return domain.GLPosting{}, errors.New("debit and credit accounts cannot be the same")
	}

	currency := domain.NormalizeCurrency(req.Currency)
	amount := domain.RoundMinor(req.Amount, currency)
	valueDate := req.ValueDate
	if valueDate.IsZero() {
		valueDate = time.Now().UTC()
	}

	if err := s.checkPeriodLock(ctx, req.InstitutionID, valueDate, req.UnlockGrantApprovalID); err != nil {
		return domain.GLPosting{}, err
	}

	posting := domain.GLPosting{
		ID:                  uuid.New().String(),
		InstitutionID:       req.InstitutionID,
		TransactionID:       req.TransactionID,
		DebitAccountNumber:  req.DebitAccountNumber,
		DebitAmount:         amount,
		CreditAccountNumber: req.CreditAccountNumber,
		CreditAmount:        amount,
		Currency:            currency,
		Narration:           strings.TrimSpace(req.Narration),
		ValueDate:           valueDate,
		Status:              domain.PostingStatusPending,
	}

	// Balanced by construction; a mismatch here means memory corruption or
	// a bug in this function, and the posting must not proceed.
	if !posting.Balanced() {
		logger.Critical("posting imbalance detected, aborting with no partial write", commons.ErrPostingImbalance, logger.Fields{
			"transactionId": req.TransactionID,
			"debitAmount":   posting.DebitAmount,
			"creditAmount":  posting.CreditAmount,
		})
		return domain.GLPosting{}, commons.ErrPostingImbalance
	}

	var applied domain.GLPosting
	err := withContentionRetry(ctx, func() error {
		var applyErr error
		applied, applyErr = s.postingRepo.ApplyPosting(ctx, posting)
		return applyErr
	})
	if err != nil {
		logger.Error("posting service apply failed", err, logger.Fields{
			"transactionId":       req.TransactionID,
			"debitAccountNumber":  req.DebitAccountNumber,
			"creditAccountNumber": req.CreditAccountNumber,
		})
		return domain.GLPosting{}, err
	}

	s.publishPostingCreated(ctx, applied)

	logger.Info("posting service posted", logger.Fields{
		"postingId":     applied.ID,
		"transactionId": applied.TransactionID,
		"amount":        applied.DebitAmount,
		"currency":      applied.Currency,
	})

	return applied, nil
}

func (s *PostingService) checkPeriodLock(ctx context.Context, institutionID string, valueDate time.Time, unlockGrantApprovalID string) error {
	period, err := s.lockPeriodRepo.FindLockedCovering(ctx, institutionID, valueDate)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	grantID := strings.TrimSpace(unlockGrantApprovalID)
	if grantID == "" {
		return commons.ErrPeriodLocked
	}

	approval, err := s.approvalRepo.GetByID(ctx, institutionID, grantID)
	if err != nil {
		return commons.ErrPeriodLocked
	}
	if approval.ReferenceType != domain.ApprovalReferencePeriodUnlock ||
		approval.ReferenceID != period.ID ||
		(approval.Status != domain.ApprovalStatusApproved && approval.Status != domain.ApprovalStatusImplemented) {
		return commons.ErrPeriodLocked
	}

	logger.Info("posting service period lock bypassed by unlock grant", logger.Fields{
		"institutionId": institutionID,
		"periodId":      period.ID,
		"approvalId":    approval.ID,
	})
	return nil
}

func (s *PostingService) ListByTransaction(ctx context.Context, institutionID string, transactionID string) ([]domain.GLPosting, error) {
	return s.postingRepo.ListByTransaction(ctx, institutionID, transactionID)
}

func (s *PostingService) MarkReversed(ctx context.Context, institutionID string, postingID string, reversalPostingID string) error {
	return s.postingRepo.MarkReversed(ctx, institutionID, postingID, reversalPostingID)
}

// RecoverIncomplete rolls back postings left PENDING by a crash between
// the two write phases. Balances only move in the same atomic unit that
// marks a row POSTED, so a PENDING row is guaranteed to have moved nothing.
func (s *PostingService) RecoverIncomplete(ctx context.Context) (int, error) {
	incomplete, err := s.postingRepo.ListIncomplete(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, posting := range incomplete {
		if err := s.postingRepo.RollBack(ctx, posting.ID); err != nil {
			logger.Error("posting service recovery rollback failed", err, logger.Fields{
				"postingId": posting.ID,
			})
			continue
		}
		logger.Info("posting service rolled back incomplete posting", logger.Fields{
			"postingId":     posting.ID,
			"transactionId": posting.TransactionID,
		})
		recovered++
	}
	return recovered, nil
}

func (s *PostingService) publishPostingCreated(ctx context.Context, posting domain.GLPosting) {
	event := domain.PostingEvent{
		EventID:             uuid.New().String(),
		InstitutionID:       posting.InstitutionID,
		PostingID:           posting.ID,
		TransactionID:       posting.TransactionID,
		DebitAccountNumber:  posting.DebitAccountNumber,
		CreditAccountNumber: posting.CreditAccountNumber,
		Amount:              posting.DebitAmount,
		Currency:            posting.Currency,
		ValueDate:           posting.ValueDate,
		OccurredAt:          time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.TopicPostingCreated, event); err != nil {
		logger.Error("posting service publish posting.created failed", err, logger.Fields{
			"postingId": posting.ID,
		})
	}
}

var _ service_interfaces.PostingService = (*PostingService)(nil)
