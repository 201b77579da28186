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
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
)

type PeriodLockService struct {
	lockPeriodRepo  repo_interfaces.LockPeriodRepository
	staffRepo       repo_interfaces.StaffRepository
	approvalService service_interfaces.ApprovalService
}

func NewPeriodLockService(
	lockPeriodRepo repo_interfaces.LockPeriodRepository,
	staffRepo repo_interfaces.StaffRepository,
	approvalService service_interfaces.ApprovalService,
) *PeriodLockService {
	return &PeriodLockService{
		lockPeriodRepo:  lockPeriodRepo,
		staffRepo:       staffRepo,
		approvalService: approvalService,
	}
}

func (s *PeriodLockService) IsLocked(ctx context.Context, institutionID string, date time.Time) (bool, error) {
	_, err := s.lockPeriodRepo.FindLockedCovering(ctx, institutionID, date)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *PeriodLockService) Lock(ctx context.Context, req models.LockPeriodRequest) (commons.Response[domain.LedgerLockPeriod], error) {
	logger.Info("period lock service lock request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[domain.LedgerLockPeriod]("validation failed", err.Error()), err
	}

	staff, err := s.staffRepo.GetByStaffID(ctx, req.InstitutionID, strings.TrimSpace(req.StaffID))
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[domain.LedgerLockPeriod]("Staff not found"), err
		}
		return commons.ErrorResponse[domain.LedgerLockPeriod]("failed to lock period", "Unable to lock period right now"), err
	}
	if !staff.Role.Elevated() {
		err := errors.New("staff role is not authorized to lock periods")
		return commons.ErrorResponse[domain.LedgerLockPeriod]("validation failed", err.Error()), err
	}

	period := domain.LedgerLockPeriod{
		ID:            uuid.New().String(),
		InstitutionID: req.InstitutionID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Locked:        true,
		LockedBy:      staff.StaffID,
	}

	created, err := s.lockPeriodRepo.Create(ctx, period)
	if err != nil {
		logger.Error("period lock service create failed", err, logger.Fields{
			"institutionId": req.InstitutionID,
		})
		return commons.ErrorResponse[domain.LedgerLockPeriod]("failed to lock period", "Unable to lock period right now"), err
	}

	logger.Info("period lock service locked", logger.Fields{
		"periodId":      created.ID,
		"institutionId": created.InstitutionID,
		"startDate":     created.StartDate,
		"endDate":       created.EndDate,
		"lockedBy":      created.LockedBy,
	})

	return commons.SuccessResponse("period locked successfully", created), nil
}

// Unlock reopens a locked period. It is maker-checker gated: the approval
// named in the request must be an APPROVED PERIOD_UNLOCK referencing this
// period, and is marked IMPLEMENTED once the unlock lands.
func (s *PeriodLockService) Unlock(ctx context.Context, req models.UnlockPeriodRequest) (commons.Response[domain.LedgerLockPeriod], error) {
	logger.Info("period lock service unlock request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[domain.LedgerLockPeriod]("validation failed", err.Error()), err
	}

	period, err := s.lockPeriodRepo.GetByID(ctx, req.InstitutionID, req.PeriodID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[domain.LedgerLockPeriod]("Lock period not found"), err
		}
		return commons.ErrorResponse[domain.LedgerLockPeriod]("failed to unlock period", "Unable to unlock period right now"), err
	}

	approval, err := s.approvalService.ApprovedFor(ctx, req.InstitutionID, domain.ApprovalReferencePeriodUnlock, period.ID)
	if err != nil {
		return commons.ErrorResponse[domain.LedgerLockPeriod]("approval required", "An approved unlock request is required"), err
	}
	if approval.ID != strings.TrimSpace(req.ApprovalID) {
		err := commons.ErrApprovalRequired
		return commons.ErrorResponse[domain.LedgerLockPeriod]("approval required", "Approval does not match this unlock request"), err
	}

	if err := s.lockPeriodRepo.Unlock(ctx, req.InstitutionID, period.ID, strings.TrimSpace(req.StaffID), strings.TrimSpace(req.Reason)); err != nil {
		logger.Error("period lock service unlock failed", err, logger.Fields{
			"periodId": period.ID,
		})
		return commons.ErrorResponse[domain.LedgerLockPeriod]("failed to unlock period", "Unable to unlock period right now"), err
	}

	if err := s.approvalService.MarkImplemented(ctx, req.InstitutionID, approval.ID); err != nil {
		logger.Error("period lock service mark approval implemented failed", err, logger.Fields{
			"approvalId": approval.ID,
		})
	}

	logger.Info("period lock service unlocked", logger.Fields{
		"periodId":   period.ID,
		"unlockedBy": req.StaffID,
		"reason":     req.Reason,
		"approvalId": approval.ID,
	})

	unlocked, err := s.lockPeriodRepo.GetByID(ctx, req.InstitutionID, period.ID)
	if err != nil {
		return commons.ErrorResponse[domain.LedgerLockPeriod]("failed to unlock period", "Unable to unlock period right now"), err
	}
	return commons.SuccessResponse("period unlocked successfully", unlocked), nil
}

var _ service_interfaces.PeriodLockService = (*PeriodLockService)(nil)
