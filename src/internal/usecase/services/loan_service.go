package services

import (
	"context"
	"errors"
	"sort"
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

var monthsPerYear = decimal.NewFromInt(12)

type LoanService struct {
	loanRepo     repo_interfaces.LoanRepository
	scheduleRepo repo_interfaces.ScheduleRepository
}

func NewLoanService(
	loanRepo repo_interfaces.LoanRepository,
	scheduleRepo repo_interfaces.ScheduleRepository,
) *LoanService {
	return &LoanService{
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
	}
}

func (s *LoanService) CreateLoan(ctx context.Context, req models.CreateLoanRequest) (commons.Response[models.ScheduleResponse], error) {
	logger.Info("loan service create request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.ScheduleResponse]("validation failed", err.Error()), err
	}

	disbursedAt := req.DisbursedAt
	if disbursedAt.IsZero() {
		disbursedAt = time.Now().UTC()
	}

	loan := domain.Loan{
		ID:                      uuid.New().String(),
		InstitutionID:           strings.TrimSpace(req.InstitutionID),
		AccountNumber:           strings.TrimSpace(req.AccountNumber),
		ProductCode:             strings.TrimSpace(req.ProductCode),
		Currency:                domain.NormalizeCurrency(req.Currency),
		Principal:               domain.RoundMinor(req.Principal, req.Currency),
		AnnualRate:              req.AnnualRate,
		PenaltyRate:             req.PenaltyRate,
		TenureMonths:            req.TenureMonths,
		RepaymentIntervalMonths: req.RepaymentIntervalMonths,
		Method:                  domain.InterestMethod(strings.ToUpper(strings.TrimSpace(req.Method))),
		InterestBeforePenalty:   req.InterestBeforePenalty,
		Status:                  domain.LoanStatusActive,
		DisbursedAt:             disbursedAt,
		FirstDueDate:            req.FirstDueDate,
	}

	entries := generateSchedule(loan)

	created, err := s.loanRepo.Create(ctx, loan)
	if err != nil {
		logger.Error("loan service create failed", err, logger.Fields{
			"institutionId": loan.InstitutionID,
			"accountNumber": loan.AccountNumber,
		})
		return commons.ErrorResponse[models.ScheduleResponse]("failed to create loan", "Unable to create loan right now"), err
	}

	for i := range entries {
		entries[i].LoanID = created.ID
	}
	saved, err := s.scheduleRepo.CreateEntries(ctx, entries)
	if err != nil {
		logger.Error("loan service create schedule failed", err, logger.Fields{
			"loanId": created.ID,
		})
		return commons.ErrorResponse[models.ScheduleResponse]("failed to create loan", "Unable to create loan right now"), err
	}

	logger.Info("loan service created", logger.Fields{
		"loanId":       created.ID,
		"method":       created.Method,
		"installments": len(saved),
	})

	return commons.SuccessResponse("loan created successfully", scheduleResponse(created.ID, saved)), nil
}

func (s *LoanService) GetSchedule(ctx context.Context, institutionID string, loanID string) (commons.Response[models.ScheduleResponse], error) {
	loan, err := s.loanRepo.GetByID(ctx, institutionID, loanID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[models.ScheduleResponse]("Loan not found"), err
		}
		return commons.ErrorResponse[models.ScheduleResponse]("failed to fetch schedule", "Unable to fetch schedule right now"), err
	}

	entries, err := s.scheduleRepo.ListByLoan(ctx, loan.ID)
	if err != nil {
		return commons.ErrorResponse[models.ScheduleResponse]("failed to fetch schedule", "Unable to fetch schedule right now"), err
	}

	return commons.SuccessResponse("schedule fetched successfully", scheduleResponse(loan.ID, entries)), nil
}

func (s *LoanService) ApplyRepayment(ctx context.Context, req models.ApplyRepaymentRequest) (commons.Response[models.RepaymentResult], error) {
	logger.Info("loan service repayment request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.RepaymentResult]("validation failed", err.Error()), err
	}

	loan, err := s.loanRepo.GetByID(ctx, req.InstitutionID, req.LoanID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[models.RepaymentResult]("Loan not found"), err
		}
		return commons.ErrorResponse[models.RepaymentResult]("failed to apply repayment", "Unable to apply repayment right now"), err
	}
	if loan.Status != domain.LoanStatusActive && loan.Status != domain.LoanStatusDefault {
		err := errors.New("loan is not open for repayment")
		return commons.ErrorResponse[models.RepaymentResult]("validation failed", err.Error()), err
	}

	entries, err := s.scheduleRepo.ListByLoan(ctx, loan.ID)
	if err != nil {
		return commons.ErrorResponse[models.RepaymentResult]("failed to apply repayment", "Unable to apply repayment right now"), err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].InstallmentNumber < entries[j].InstallmentNumber
	})

	valueDate := req.ValueDate
	if valueDate.IsZero() {
		valueDate = time.Now().UTC()
	}

	if err := s.markOverdue(ctx, loan, entries, valueDate); err != nil {
		return commons.ErrorResponse[models.RepaymentResult]("failed to apply repayment", "Unable to apply repayment right now"), err
	}

	remaining := domain.RoundMinor(req.Amount, loan.Currency)
	result := models.RepaymentResult{LoanID: loan.ID, Allocations: []models.RepaymentAllocation{}}

	for i := range entries {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		entry := &entries[i]
		if entry.Settled() {
			continue
		}

		allocation := s.allocate(entry, &remaining, loan.InterestBeforePenalty)
		if allocation.Penalty.Add(allocation.Interest).Add(allocation.Principal).IsZero() {
			continue
		}

		if entry.Settled() {
			entry.Status = domain.InstallmentStatusPaid
		} else {
			entry.Status = domain.InstallmentStatusPartial
		}
		if err := s.scheduleRepo.UpdateEntry(ctx, *entry); err != nil {
			return commons.ErrorResponse[models.RepaymentResult]("failed to apply repayment", "Unable to apply repayment right now"), err
		}

		result.Allocations = append(result.Allocations, allocation)
	}

	result.Applied = domain.RoundMinor(req.Amount, loan.Currency).Sub(remaining)
	result.Unallocated = remaining

	if allSettled(entries) {
		if err := s.loanRepo.UpdateStatus(ctx, loan.InstitutionID, loan.ID, domain.LoanStatusClosed); err != nil {
			logger.Error("loan service close failed", err, logger.Fields{
				"loanId": loan.ID,
			})
		}
	}

	logger.Info("loan service repayment applied", logger.Fields{
		"loanId":      loan.ID,
		"applied":     result.Applied,
		"unallocated": result.Unallocated,
	})

	return commons.SuccessResponse("repayment applied successfully", result), nil
}

// markOverdue flags unsettled installments past their due date and accrues
// the penalty once, on the unpaid portion at the time the installment
// becomes overdue. The accrual is keyed on PenaltyAccruedAt because later
// partial payments rewrite the entry status.
func (s *LoanService) markOverdue(ctx context.Context, loan domain.Loan, entries []domain.RepaymentScheduleEntry, asOf time.Time) error {
	anyOverdue := false
	for i := range entries {
		entry := &entries[i]
		if entry.Settled() || !entry.DueDate.Before(asOf) {
			continue
		}
		anyOverdue = true
		if entry.PenaltyAccruedAt != nil {
			continue
		}

		entry.Status = domain.InstallmentStatusOverdue
		if loan.PenaltyRate.GreaterThan(decimal.Zero) {
			penalty := domain.RoundMinor(entry.Outstanding().Mul(loan.PenaltyRate), loan.Currency)
			entry.PenaltyDue = entry.PenaltyDue.Add(penalty)
		}
		accruedAt := asOf
		entry.PenaltyAccruedAt = &accruedAt
		if err := s.scheduleRepo.UpdateEntry(ctx, *entry); err != nil {
			return err
		}
	}

	if anyOverdue && loan.Status == domain.LoanStatusActive {
		if err := s.loanRepo.UpdateStatus(ctx, loan.InstitutionID, loan.ID, domain.LoanStatusDefault); err != nil {
			return err
		}
	}
	return nil
}

// allocate pays down one installment from remaining, penalty first then
// interest then principal unless the product collects interest first.
func (s *LoanService) allocate(entry *domain.RepaymentScheduleEntry, remaining *decimal.Decimal, interestFirst bool) models.RepaymentAllocation {
	allocation := models.RepaymentAllocation{InstallmentNumber: entry.InstallmentNumber}

	payPenalty := func() {
		paid := payComponent(remaining, entry.PenaltyDue, &entry.PenaltyPaid)
		allocation.Penalty = allocation.Penalty.Add(paid)
	}
	payInterest := func() {
		paid := payComponent(remaining, entry.InterestDue, &entry.InterestPaid)
		allocation.Interest = allocation.Interest.Add(paid)
	}

	if interestFirst {
		payInterest()
		payPenalty()
	} else {
		payPenalty()
		payInterest()
	}
	allocation.Principal = payComponent(remaining, entry.PrincipalDue, &entry.PrincipalPaid)

	return allocation
}

func payComponent(remaining *decimal.Decimal, due decimal.Decimal, paid *decimal.Decimal) decimal.Decimal {
	outstanding := due.Sub(*paid)
	if outstanding.LessThanOrEqual(decimal.Zero) || remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	amount := decimal.Min(outstanding, *remaining)
	*paid = paid.Add(amount)
	*remaining = remaining.Sub(amount)
	return amount
}

func allSettled(entries []domain.RepaymentScheduleEntry) bool {
	for _, entry := range entries {
		if !entry.Settled() {
			return false
		}
	}
	return len(entries) > 0
}

// generateSchedule amortizes the loan into per-installment principal and
// interest portions. Each portion is rounded to the currency's minor unit,
// with the final installment absorbing the rounding residue so the rounded
// series sums exactly to the rounded total.
func generateSchedule(loan domain.Loan) []domain.RepaymentScheduleEntry {
	n := loan.InstallmentCount()
	if n <= 0 {
		return nil
	}

	periodRate := loan.AnnualRate.
		Mul(decimal.NewFromInt(int64(loan.RepaymentIntervalMonths))).
		Div(monthsPerYear)

	var principals, interests []decimal.Decimal
	switch loan.Method {
	case domain.InterestMethodFlat:
		principals, interests = flatSeries(loan.Principal, periodRate, n)
	case domain.InterestMethodReducingBalance:
		principals, interests = reducingBalanceSeries(loan.Principal, periodRate, n)
	case domain.InterestMethodDecliningBalance:
		principals, interests = decliningBalanceSeries(loan.Principal, periodRate, n)
	}

	principals = roundSeries(principals, loan.Currency)
	interests = roundSeries(interests, loan.Currency)

	entries := make([]domain.RepaymentScheduleEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = domain.RepaymentScheduleEntry{
			ID:                uuid.New().String(),
			LoanID:            loan.ID,
			InstallmentNumber: i + 1,
			DueDate:           loan.FirstDueDate.AddDate(0, loan.RepaymentIntervalMonths*i, 0),
			PrincipalDue:      principals[i],
			InterestDue:       interests[i],
			PenaltyDue:        decimal.Zero,
			PrincipalPaid:     decimal.Zero,
			InterestPaid:      decimal.Zero,
			PenaltyPaid:       decimal.Zero,
			Status:            domain.InstallmentStatusPending,
		}
	}
	return entries
}

// flatSeries charges the period rate on the original principal every
// installment, with equal principal portions.
func flatSeries(principal decimal.Decimal, periodRate decimal.Decimal, n int) ([]decimal.Decimal, []decimal.Decimal) {
	count := decimal.NewFromInt(int64(n))
	principalPortion := principal.Div(count)
	interestPortion := principal.Mul(periodRate)

	principals := make([]decimal.Decimal, n)
	interests := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		principals[i] = principalPortion
		interests[i] = interestPortion
	}
	return principals, interests
}

// reducingBalanceSeries charges the period rate on the outstanding
// principal, with equal principal portions.
func reducingBalanceSeries(principal decimal.Decimal, periodRate decimal.Decimal, n int) ([]decimal.Decimal, []decimal.Decimal) {
	count := decimal.NewFromInt(int64(n))
	principalPortion := principal.Div(count)

	principals := make([]decimal.Decimal, n)
	interests := make([]decimal.Decimal, n)
	outstanding := principal
	for i := 0; i < n; i++ {
		principals[i] = principalPortion
		interests[i] = outstanding.Mul(periodRate)
		outstanding = outstanding.Sub(principalPortion)
	}
	return principals, interests
}

// decliningBalanceSeries amortizes with a constant total installment
// (annuity): A = P*r*(1+r)^n / ((1+r)^n - 1). Interest is charged on the
// declining balance and the principal portion is the remainder of A.
func decliningBalanceSeries(principal decimal.Decimal, periodRate decimal.Decimal, n int) ([]decimal.Decimal, []decimal.Decimal) {
	if periodRate.IsZero() {
		return flatSeries(principal, decimal.Zero, n)
	}

	count := decimal.NewFromInt(int64(n))
	factor := decimal.NewFromInt(1).Add(periodRate).Pow(count)
	installment := principal.Mul(periodRate).Mul(factor).
		Div(factor.Sub(decimal.NewFromInt(1)))

	principals := make([]decimal.Decimal, n)
	interests := make([]decimal.Decimal, n)
	outstanding := principal
	for i := 0; i < n; i++ {
		interests[i] = outstanding.Mul(periodRate)
		if i == n-1 {
			principals[i] = outstanding
		} else {
			principals[i] = installment.Sub(interests[i])
		}
		outstanding = outstanding.Sub(principals[i])
	}
	return principals, interests
}

// roundSeries rounds every value to the currency's minor unit and adjusts
// the last entry so the rounded series sums to the rounded exact total.
func roundSeries(values []decimal.Decimal, currency string) []decimal.Decimal {
	if len(values) == 0 {
		return values
	}

	exactTotal := decimal.Zero
	for _, v := range values {
		exactTotal = exactTotal.Add(v)
	}
	target := domain.RoundMinor(exactTotal, currency)

	rounded := make([]decimal.Decimal, len(values))
	runningSum := decimal.Zero
	for i := 0; i < len(values)-1; i++ {
		rounded[i] = domain.RoundMinor(values[i], currency)
		runningSum = runningSum.Add(rounded[i])
	}
	rounded[len(values)-1] = target.Sub(runningSum)
	return rounded
}

func scheduleResponse(loanID string, entries []domain.RepaymentScheduleEntry) models.ScheduleResponse {
	sorted := make([]domain.RepaymentScheduleEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].InstallmentNumber < sorted[j].InstallmentNumber
	})

	resp := models.ScheduleResponse{
		LoanID:         loanID,
		TotalPrincipal: decimal.Zero,
		TotalInterest:  decimal.Zero,
		Entries:        sorted,
	}
	for _, entry := range sorted {
		resp.TotalPrincipal = resp.TotalPrincipal.Add(entry.PrincipalDue)
		resp.TotalInterest = resp.TotalInterest.Add(entry.InterestDue)
	}
	return resp
}

var _ service_interfaces.LoanService = (*LoanService)(nil)
