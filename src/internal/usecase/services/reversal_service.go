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
	"github.com/shopspring/decimal"
)

type ReversalService struct {
	transactionRepo    repo_interfaces.TransactionRepository
	disputeRepo        repo_interfaces.DisputeRepository
	postingService     service_interfaces.PostingService
	approvalService    service_interfaces.ApprovalService
	transactionService service_interfaces.TransactionService
	publisher          service_interfaces.EventsPublisher
	policies           map[string]domain.InstitutionPolicy
}

func NewReversalService(
	transactionRepo repo_interfaces.TransactionRepository,
	disputeRepo repo_interfaces.DisputeRepository,
	postingService service_interfaces.PostingService,
	approvalService service_interfaces.ApprovalService,
	transactionService service_interfaces.TransactionService,
	publisher service_interfaces.EventsPublisher,
	policies map[string]domain.InstitutionPolicy,
) *ReversalService {
	return &ReversalService{
		transactionRepo:    transactionRepo,
		disputeRepo:        disputeRepo,
		postingService:     postingService,
		approvalService:    approvalService,
		transactionService: transactionService,
		publisher:          publisher,
		policies:           policies,
	}
}

func (s *ReversalService) Reverse(ctx context.Context, req models.ReverseTransactionRequest) (commons.Response[models.ReversalResult], error) {
	logger.Info("reversal service reverse request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.ReversalResult]("validation failed", err.Error()), err
	}

	original, err := s.transactionRepo.GetByID(ctx, req.InstitutionID, req.TransactionID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[models.ReversalResult]("Transaction not found"), err
		}
		return commons.ErrorResponse[models.ReversalResult]("failed to reverse transaction", "Unable to reverse transaction right now"), err
	}

	reversal, err := s.reverseTransaction(ctx, original, req.Reason, req.MakerStaffID, true)
	if err != nil {
		return commons.ErrorResponse[models.ReversalResult]("failed to reverse transaction", err.Error()), err
	}

	result := models.ReversalResult{
		ReversalTransactionID: reversal.ID,
		OriginalTransactionID: original.ID,
		Status:                string(reversal.Status),
	}
	return commons.SuccessResponse("transaction reversed successfully", result), nil
}

// reverseTransaction creates the compensating transaction and postings.
// withMakerChecker enables the approval-threshold gate; dispute-driven
// reversals skip it because the dispute resolution is itself the audited
// decision.
func (s *ReversalService) reverseTransaction(ctx context.Context, original domain.Transaction, reason string, makerStaffID string, withMakerChecker bool) (domain.Transaction, error) {
	if original.IsReversed {
		return domain.Transaction{}, commons.ErrAlreadyReversed
	}
	if original.Status != domain.TransactionStatusCompleted && original.Status != domain.TransactionStatusDisputed {
		return domain.Transaction{}, commons.ErrNotCompleted
	}

	institutionID := original.InstitutionID
	policy := s.policies[institutionID]

	var grant *domain.Approval
	if withMakerChecker && policy.ReversalApprovalThreshold.GreaterThan(decimal.Zero) && original.Amount.GreaterThan(policy.ReversalApprovalThreshold) {
		approval, err := s.approvalService.ApprovedFor(ctx, institutionID, domain.ApprovalReferenceReversal, original.ID)
		if err != nil {
			return domain.Transaction{}, err
		}
		grant = &approval
	}

	reversal := domain.Transaction{
		ID:                  uuid.New().String(),
		InstitutionID:       institutionID,
		Reference:           "RV-" + original.Reference,
		DebitAccountNumber:  original.CreditAccountNumber,
		CreditAccountNumber: original.DebitAccountNumber,
		Amount:              original.Amount,
		Fee:                 decimal.Zero,
		Currency:            original.CreditCurrency,
		CreditCurrency:      original.Currency,
		Type:                original.Type,
		Category:            domain.TransactionCategoryReversal,
		Status:              domain.TransactionStatusPending,
		Narration:           strings.TrimSpace("reversal: " + reason),
		ValueDate:           time.Now().UTC(),
		ParentTransactionID: &original.ID,
	}

	created, err := s.transactionRepo.Create(ctx, reversal)
	if err != nil {
		if errors.Is(err, commons.ErrDuplicateReference) || isUniqueViolation(err) {
			return domain.Transaction{}, commons.ErrAlreadyReversed
		}
		return domain.Transaction{}, err
	}

	originals, err := s.postingService.ListByTransaction(ctx, institutionID, original.ID)
	if err != nil {
		return domain.Transaction{}, err
	}

	for _, posting := range originals {
		if posting.Status != domain.PostingStatusPosted || posting.IsReversed {
			continue
		}

		compensating, err := s.postingService.Post(ctx, service_interfaces.PostRequest{
			InstitutionID:       institutionID,
			TransactionID:       created.ID,
			DebitAccountNumber:  posting.CreditAccountNumber,
			CreditAccountNumber: posting.DebitAccountNumber,
			Amount:              posting.DebitAmount,
			Currency:            posting.Currency,
			Narration:           "reversal: " + posting.Narration,
			ValueDate:           created.ValueDate,
		})
		if err != nil {
			failReason := fmt.Sprintf("reversal posting failed: %v", err)
			_ = s.transactionRepo.UpdateStatus(ctx, institutionID, created.ID, domain.TransactionStatusPending, domain.TransactionStatusFailed, &failReason)
			return domain.Transaction{}, err
		}

		if err := s.postingService.MarkReversed(ctx, institutionID, posting.ID, compensating.ID); err != nil {
			logger.Error("reversal service mark posting reversed failed", err, logger.Fields{
				"postingId": posting.ID,
			})
		}
	}

	if err := s.transactionRepo.UpdateStatus(ctx, institutionID, created.ID, domain.TransactionStatusPending, domain.TransactionStatusCompleted, nil); err != nil {
		return domain.Transaction{}, err
	}
	created.Status = domain.TransactionStatusCompleted

	if err := s.transactionRepo.MarkReversed(ctx, institutionID, original.ID, created.ID); err != nil {
		return domain.Transaction{}, err
	}

	if grant != nil {
		if err := s.approvalService.MarkImplemented(ctx, institutionID, grant.ID); err != nil {
			logger.Error("reversal service mark approval implemented failed", err, logger.Fields{
				"approvalId": grant.ID,
			})
		}
	}

	s.publishReversed(ctx, original, created)

	logger.Info("reversal service reversed", logger.Fields{
		"originalTransactionId": original.ID,
		"reversalTransactionId": created.ID,
		"makerStaffId":          makerStaffID,
	})

	return created, nil
}

func (s *ReversalService) OpenDispute(ctx context.Context, req models.OpenDisputeRequest) (commons.Response[domain.Dispute], error) {
	logger.Info("reversal service open dispute request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[domain.Dispute]("validation failed", err.Error()), err
	}

	transaction, err := s.transactionRepo.GetByID(ctx, req.InstitutionID, req.TransactionID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[domain.Dispute]("Transaction not found"), err
		}
		return commons.ErrorResponse[domain.Dispute]("failed to open dispute", "Unable to open dispute right now"), err
	}

	if transaction.Status != domain.TransactionStatusCompleted {
		err := commons.ErrNotCompleted
		return commons.ErrorResponse[domain.Dispute]("validation failed", "Only completed transactions can be disputed"), err
	}

	if _, err := s.disputeRepo.GetOpenByTransaction(ctx, req.InstitutionID, transaction.ID); err == nil {
		err := errors.New("transaction already has an open dispute")
		return commons.ErrorResponse[domain.Dispute]("validation failed", err.Error()), err
	} else if !errors.Is(err, commons.ErrRecordNotFound) {
		return commons.ErrorResponse[domain.Dispute]("failed to open dispute", "Unable to open dispute right now"), err
	}

	if err := s.transactionRepo.UpdateStatus(ctx, req.InstitutionID, transaction.ID, domain.TransactionStatusCompleted, domain.TransactionStatusDisputed, nil); err != nil {
		return commons.ErrorResponse[domain.Dispute]("failed to open dispute", "Unable to open dispute right now"), err
	}

	dispute := domain.Dispute{
		ID:            uuid.New().String(),
		InstitutionID: req.InstitutionID,
		TransactionID: transaction.ID,
		Reason:        strings.TrimSpace(req.Reason),
		Status:        domain.DisputeStatusOpen,
		OpenedBy:      strings.TrimSpace(req.OpenedBy),
	}

	created, err := s.disputeRepo.Create(ctx, dispute)
	if err != nil {
		// Put the transaction back so it is not stranded DISPUTED with no
		// dispute record behind it.
		if revertErr := s.transactionRepo.UpdateStatus(ctx, req.InstitutionID, transaction.ID, domain.TransactionStatusDisputed, domain.TransactionStatusCompleted, nil); revertErr != nil {
			logger.Critical("reversal service dispute create failed and transaction status revert failed, manual reconciliation required", revertErr, logger.Fields{
				"transactionId": transaction.ID,
			})
		}
		return commons.ErrorResponse[domain.Dispute]("failed to open dispute", "Unable to open dispute right now"), err
	}

	if req.ProvisionalCredit {
		provisionalID, err := s.issueProvisionalCredit(ctx, transaction, created.ID)
		if err != nil {
			logger.Error("reversal service provisional credit failed", err, logger.Fields{
				"transactionId": transaction.ID,
			})
		} else {
			created.ProvisionalCreditTransactionID = &provisionalID
			if updated, updateErr := s.disputeRepo.Update(ctx, created); updateErr != nil {
				logger.Error("reversal service provisional credit link failed", updateErr, logger.Fields{
					"disputeId": created.ID,
				})
			} else {
				created = updated
			}
		}
	}

	logger.Info("reversal service dispute opened", logger.Fields{
		"disputeId":     created.ID,
		"transactionId": created.TransactionID,
	})

	return commons.SuccessResponse("dispute opened successfully", created), nil
}

// issueProvisionalCredit advances the disputed amount from the dispute
// suspense account to the paying customer while the investigation runs.
func (s *ReversalService) issueProvisionalCredit(ctx context.Context, transaction domain.Transaction, disputeID string) (string, error) {
	policy := s.policies[transaction.InstitutionID]
	if policy.DisputeSuspenseAccountNumber == "" {
		return "", errors.New("no dispute suspense account configured")
	}

	resp, err := s.transactionService.SubmitTransaction(ctx, models.SubmitTransactionRequest{
		InstitutionID:       transaction.InstitutionID,
		Reference:           "PC-" + disputeID,
		DebitAccountNumber:  policy.DisputeSuspenseAccountNumber,
		CreditAccountNumber: transaction.DebitAccountNumber,
		Amount:              transaction.Amount,
		Currency:            transaction.Currency,
		Type:                string(domain.TransactionTypeCredit),
		Category:            string(domain.TransactionCategoryProvisionalCredit),
		Narration:           "provisional credit for dispute " + disputeID,
	})
	if err != nil {
		return "", err
	}
	if resp.Data == nil {
		return "", errors.New("provisional credit returned no result")
	}
	return resp.Data.TransactionID, nil
}

func (s *ReversalService) StartInvestigation(ctx context.Context, institutionID string, disputeID string) error {
	dispute, err := s.disputeRepo.GetByID(ctx, institutionID, disputeID)
	if err != nil {
		return err
	}
	if !dispute.Status.CanTransitionTo(domain.DisputeStatusUnderInvestigation) {
		return commons.ErrInvalidStateTransition
	}

	dispute.Status = domain.DisputeStatusUnderInvestigation
	_, err = s.disputeRepo.Update(ctx, dispute)
	return err
}

func (s *ReversalService) ResolveDispute(ctx context.Context, req models.ResolveDisputeRequest) (commons.Response[domain.Dispute], error) {
	logger.Info("reversal service resolve dispute request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[domain.Dispute]("validation failed", err.Error()), err
	}

	dispute, err := s.disputeRepo.GetByID(ctx, req.InstitutionID, req.DisputeID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[domain.Dispute]("Dispute not found"), err
		}
		return commons.ErrorResponse[domain.Dispute]("failed to resolve dispute", "Unable to resolve dispute right now"), err
	}

	target := domain.DisputeStatusResolved
	if !req.CustomerWins {
		target = domain.DisputeStatusRejected
	}
	if !dispute.Status.CanTransitionTo(target) {
		err := commons.ErrInvalidStateTransition
		return commons.ErrorResponse[domain.Dispute]("validation failed", "Dispute is not under investigation"), err
	}

	original, err := s.transactionRepo.GetByID(ctx, req.InstitutionID, dispute.TransactionID)
	if err != nil {
		return commons.ErrorResponse[domain.Dispute]("failed to resolve dispute", "Unable to resolve dispute right now"), err
	}

	if req.CustomerWins {
		// The definitive reversal replaces the provisional remedy, so any
		// provisional credit is unwound alongside it.
		if _, err := s.reverseTransaction(ctx, original, "dispute "+dispute.ID+" resolved in customer favour", req.ResolvedBy, false); err != nil {
			return commons.ErrorResponse[domain.Dispute]("failed to resolve dispute", err.Error()), err
		}
		if err := s.unwindProvisionalCredit(ctx, dispute, req.ResolvedBy); err != nil {
			return commons.ErrorResponse[domain.Dispute]("failed to resolve dispute", err.Error()), err
		}
	} else {
		if err := s.unwindProvisionalCredit(ctx, dispute, req.ResolvedBy); err != nil {
			return commons.ErrorResponse[domain.Dispute]("failed to resolve dispute", err.Error()), err
		}
	}

	now := time.Now().UTC()
	resolvedBy := strings.TrimSpace(req.ResolvedBy)
	note := strings.TrimSpace(req.Note)
	dispute.Status = target
	dispute.ResolvedBy = &resolvedBy
	dispute.ResolutionNote = &note
	dispute.ResolvedAt = &now

	updated, err := s.disputeRepo.Update(ctx, dispute)
	if err != nil {
		return commons.ErrorResponse[domain.Dispute]("failed to resolve dispute", "Unable to resolve dispute right now"), err
	}

	logger.Info("reversal service dispute resolved", logger.Fields{
		"disputeId":    updated.ID,
		"status":       updated.Status,
		"customerWins": req.CustomerWins,
	})

	return commons.SuccessResponse("dispute resolved", updated), nil
}

func (s *ReversalService) unwindProvisionalCredit(ctx context.Context, dispute domain.Dispute, staffID string) error {
	if dispute.ProvisionalCreditTransactionID == nil {
		return nil
	}

	provisional, err := s.transactionRepo.GetByID(ctx, dispute.InstitutionID, *dispute.ProvisionalCreditTransactionID)
	if err != nil {
		return err
	}
	if provisional.IsReversed {
		return nil
	}

	_, err = s.reverseTransaction(ctx, provisional, "provisional credit unwound for dispute "+dispute.ID, staffID, false)
	return err
}

func (s *ReversalService) publishReversed(ctx context.Context, original domain.Transaction, reversal domain.Transaction) {
	event := domain.TransactionEvent{
		EventID:             uuid.New().String(),
		InstitutionID:       original.InstitutionID,
		TransactionID:       original.ID,
		Reference:           original.Reference,
		DebitAccountNumber:  original.DebitAccountNumber,
		CreditAccountNumber: original.CreditAccountNumber,
		Amount:              original.Amount,
		Currency:            original.Currency,
		Status:              domain.TransactionStatusReversed,
		OccurredAt:          time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.TopicTransactionReversed, event); err != nil {
		logger.Error("reversal service publish transaction.reversed failed", err, logger.Fields{
			"transactionId": original.ID,
			"reversalId":    reversal.ID,
		})
	}
}

var _ service_interfaces.ReversalService = (*ReversalService)(nil)
