package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ApprovalService struct {
	approvalRepo repo_interfaces.ApprovalRepository
	staffRepo    repo_interfaces.StaffRepository
}

func NewApprovalService(
	approvalRepo repo_interfaces.ApprovalRepository,
	staffRepo repo_interfaces.StaffRepository,
) *ApprovalService {
	return &ApprovalService{
		approvalRepo: approvalRepo,
		staffRepo:    staffRepo,
	}
}

func (s *ApprovalService) Request(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string, makerStaffID string, reason string) (domain.Approval, error) {
	makerStaffID = strings.TrimSpace(makerStaffID)
	if makerStaffID == "" {
		return domain.Approval{}, errors.New("makerStaffId is required")
	}
	if strings.TrimSpace(referenceID) == "" {
		return domain.Approval{}, errors.New("referenceId is required")
	}

	if _, err := s.staffRepo.GetByStaffID(ctx, institutionID, makerStaffID); err != nil {
		return domain.Approval{}, err
	}

	approval := domain.Approval{
		ID:            uuid.New().String(),
		InstitutionID: institutionID,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		MakerID:       makerStaffID,
		Status:        domain.ApprovalStatusRequested,
		Reason:        strings.TrimSpace(reason),
	}

	created, err := s.approvalRepo.Create(ctx, approval)
	if err != nil {
		logger.Error("approval service create failed", err, logger.Fields{
			"referenceType": referenceType,
			"referenceId":   referenceID,
		})
		return domain.Approval{}, err
	}

	logger.Info("approval service requested", logger.Fields{
		"approvalId":    created.ID,
		"referenceType": created.ReferenceType,
		"referenceId":   created.ReferenceID,
		"makerId":       created.MakerID,
	})
	return created, nil
}

func (s *ApprovalService) Decide(ctx context.Context, institutionID string, approvalID string, checkerStaffID string, checkerPIN string, approve bool, note string) (domain.Approval, error) {
	approval, err := s.approvalRepo.GetByID(ctx, institutionID, approvalID)
	if err != nil {
		return domain.Approval{}, err
	}

	checkerStaffID = strings.TrimSpace(checkerStaffID)
	if checkerStaffID == approval.MakerID {
		return domain.Approval{}, commons.ErrSelfApproval
	}

	checker, err := s.staffRepo.GetByStaffID(ctx, institutionID, checkerStaffID)
	if err != nil {
		return domain.Approval{}, err
	}
	if !checker.Role.Elevated() {
		return domain.Approval{}, errors.New("checker role is not authorized to approve")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(checker.ApprovalPINHash), []byte(checkerPIN)); err != nil {
		return domain.Approval{}, errors.New("approval PIN is incorrect")
	}

	target := domain.ApprovalStatusApproved
	if !approve {
		target = domain.ApprovalStatusRejected
	}
	if !approval.Status.CanTransitionTo(target) {
		return domain.Approval{}, commons.ErrInvalidStateTransition
	}

	trimmedNote := strings.TrimSpace(note)
	if err := s.approvalRepo.UpdateStatus(ctx, institutionID, approvalID, approval.Status, target, &checkerStaffID, &trimmedNote); err != nil {
		return domain.Approval{}, err
	}

	logger.Info("approval service decided", logger.Fields{
		"approvalId": approvalID,
		"checkerId":  checkerStaffID,
		"status":     target,
	})

	return s.approvalRepo.GetByID(ctx, institutionID, approvalID)
}

func (s *ApprovalService) MarkImplemented(ctx context.Context, institutionID string, approvalID string) error {
	return s.approvalRepo.UpdateStatus(ctx, institutionID, approvalID, domain.ApprovalStatusApproved, domain.ApprovalStatusImplemented, nil, nil)
}

func (s *ApprovalService) ApprovedFor(ctx context.Context, institutionID string, referenceType domain.ApprovalReferenceType, referenceID string) (domain.Approval, error) {
	approval, err := s.approvalRepo.GetLatestByReference(ctx, institutionID, referenceType, referenceID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.Approval{}, commons.ErrApprovalRequired
		}
		return domain.Approval{}, err
	}
	if approval.Status != domain.ApprovalStatusApproved {
		return domain.Approval{}, commons.ErrApprovalRequired
	}
	return approval, nil
}

var _ service_interfaces.ApprovalService = (*ApprovalService)(nil)
