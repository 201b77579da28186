package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/shopspring/decimal"
)

func createLoan(t *testing.T, f *ledgerFixture, req models.CreateLoanRequest) models.ScheduleResponse {
	t.Helper()

	resp, err := f.loans.CreateLoan(context.Background(), req)
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return *resp.Data
}

func loanRequest(method string, principal string, annualRate string, tenure int) models.CreateLoanRequest {
	return models.CreateLoanRequest{
		InstitutionID:           testInstitution,
		AccountNumber:           "LN-ACC",
		ProductCode:             "PRD-1",
		Currency:                "USD",
		Principal:               dec(principal),
		AnnualRate:              dec(annualRate),
		TenureMonths:            tenure,
		RepaymentIntervalMonths: 1,
		Method:                  method,
		FirstDueDate:            time.Now().UTC().AddDate(0, 1, 0),
	}
}

func scheduleTotals(entries []domain.RepaymentScheduleEntry) (decimal.Decimal, decimal.Decimal) {
	principal := decimal.Zero
	interest := decimal.Zero
	for _, entry := range entries {
		principal = principal.Add(entry.PrincipalDue)
		interest = interest.Add(entry.InterestDue)
	}
	return principal, interest
}

func TestFlatScheduleSumsExactly(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	// 12% per annum, monthly: 1% per period on the original principal.
	schedule := createLoan(t, f, loanRequest("FLAT", "9000", "0.12", 6))

	if len(schedule.Entries) != 6 {
		t.Fatalf("expected 6 installments, got %d", len(schedule.Entries))
	}
	for _, entry := range schedule.Entries {
		assertDecimal(t, "flat principal portion", entry.PrincipalDue, dec("1500"))
		assertDecimal(t, "flat interest portion", entry.InterestDue, dec("90"))
	}

	principal, interest := scheduleTotals(schedule.Entries)
	assertDecimal(t, "total principal", principal, dec("9000"))
	assertDecimal(t, "total interest", interest, dec("540"))
}

func TestScheduleRoundingResidueLandsOnFinalInstallment(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("FLAT", "10000", "0", 3))

	assertDecimal(t, "installment 1 principal", schedule.Entries[0].PrincipalDue, dec("3333.33"))
	assertDecimal(t, "installment 2 principal", schedule.Entries[1].PrincipalDue, dec("3333.33"))
	assertDecimal(t, "installment 3 principal", schedule.Entries[2].PrincipalDue, dec("3333.34"))

	principal, _ := scheduleTotals(schedule.Entries)
	assertDecimal(t, "total principal", principal, dec("10000"))
}

func TestReducingBalanceScheduleInterestDeclines(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("REDUCING_BALANCE", "1200", "0.12", 12))

	if len(schedule.Entries) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(schedule.Entries))
	}
	assertDecimal(t, "first interest", schedule.Entries[0].InterestDue, dec("12.00"))
	assertDecimal(t, "last interest", schedule.Entries[11].InterestDue, dec("1.00"))
	for _, entry := range schedule.Entries {
		assertDecimal(t, "principal portion", entry.PrincipalDue, dec("100"))
	}

	principal, interest := scheduleTotals(schedule.Entries)
	assertDecimal(t, "total principal", principal, dec("1200"))
	assertDecimal(t, "total interest", interest, dec("78.00"))
}

func TestDecliningBalanceScheduleAmortizesFully(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("DECLINING_BALANCE", "1000", "0.12", 12))

	principal, _ := scheduleTotals(schedule.Entries)
	assertDecimal(t, "total principal", principal, dec("1000"))

	// Interest on the declining balance shrinks every period.
	for i := 1; i < len(schedule.Entries); i++ {
		if !schedule.Entries[i].InterestDue.LessThan(schedule.Entries[i-1].InterestDue) {
			t.Fatalf("interest did not decline between installments %d and %d", i, i+1)
		}
	}

	// The annuity keeps total installments level within rounding.
	first := schedule.Entries[0].PrincipalDue.Add(schedule.Entries[0].InterestDue)
	for _, entry := range schedule.Entries {
		total := entry.PrincipalDue.Add(entry.InterestDue)
		if total.Sub(first).Abs().GreaterThan(dec("0.05")) {
			t.Fatalf("installment %d total %s strays from %s", entry.InstallmentNumber, total, first)
		}
	}
}

func TestDecliningBalanceZeroRateEqualsFlat(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("DECLINING_BALANCE", "1200", "0", 4))

	for _, entry := range schedule.Entries {
		assertDecimal(t, "zero-rate principal", entry.PrincipalDue, dec("300"))
		assertDecimal(t, "zero-rate interest", entry.InterestDue, dec("0"))
	}
}

func TestApplyRepaymentAllocationOrder(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	req := loanRequest("FLAT", "1200", "0.12", 3)
	req.PenaltyRate = dec("0.05")
	// First installment is already overdue.
	req.FirstDueDate = time.Now().UTC().AddDate(0, 0, -10)
	schedule := createLoan(t, f, req)

	// Installment 1 due: principal 400, interest 12. Overdue penalty is 5%
	// of the unpaid 412.00 = 20.60.
	resp, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
		InstitutionID: testInstitution,
		LoanID:        schedule.LoanID,
		Amount:        dec("100.00"),
	})
	if err != nil {
		t.Fatalf("apply repayment: %v", err)
	}
	result := *resp.Data

	if len(result.Allocations) != 1 {
		t.Fatalf("expected one allocation, got %d", len(result.Allocations))
	}
	assertDecimal(t, "penalty paid first", result.Allocations[0].Penalty, dec("20.60"))
	assertDecimal(t, "interest paid second", result.Allocations[0].Interest, dec("12"))
	assertDecimal(t, "principal paid last", result.Allocations[0].Principal, dec("67.40"))
	assertDecimal(t, "applied", result.Applied, dec("100.00"))
	assertDecimal(t, "unallocated", result.Unallocated, dec("0"))

	loan, err := f.loanRepo.GetByID(context.Background(), testInstitution, schedule.LoanID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if loan.Status != domain.LoanStatusDefault {
		t.Fatalf("expected DEFAULT after overdue installment, got %s", loan.Status)
	}

	entries, err := f.scheduleRepo.ListByLoan(context.Background(), schedule.LoanID)
	if err != nil {
		t.Fatalf("list schedule: %v", err)
	}
	if entries[0].Status != domain.InstallmentStatusPartial {
		t.Fatalf("expected PARTIAL, got %s", entries[0].Status)
	}
}

func TestApplyRepaymentInterestFirstOverride(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	req := loanRequest("FLAT", "1200", "0.12", 3)
	req.PenaltyRate = dec("0.05")
	req.InterestBeforePenalty = true
	req.FirstDueDate = time.Now().UTC().AddDate(0, 0, -10)
	schedule := createLoan(t, f, req)

	resp, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
		InstitutionID: testInstitution,
		LoanID:        schedule.LoanID,
		Amount:        dec("12.00"),
	})
	if err != nil {
		t.Fatalf("apply repayment: %v", err)
	}
	result := *resp.Data

	assertDecimal(t, "interest collected ahead of penalty", result.Allocations[0].Interest, dec("12"))
	assertDecimal(t, "penalty untouched", result.Allocations[0].Penalty, dec("0"))
}

func TestApplyRepaymentSettlesOldestFirst(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("FLAT", "900", "0", 3))

	// 300 per installment, no interest. 450 settles installment 1 and half
	// of installment 2.
	resp, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
		InstitutionID: testInstitution,
		LoanID:        schedule.LoanID,
		Amount:        dec("450"),
	})
	if err != nil {
		t.Fatalf("apply repayment: %v", err)
	}
	result := *resp.Data

	if len(result.Allocations) != 2 {
		t.Fatalf("expected two allocations, got %d", len(result.Allocations))
	}
	if result.Allocations[0].InstallmentNumber != 1 || result.Allocations[1].InstallmentNumber != 2 {
		t.Fatalf("allocations out of order: %+v", result.Allocations)
	}
	assertDecimal(t, "installment 1 principal", result.Allocations[0].Principal, dec("300"))
	assertDecimal(t, "installment 2 principal", result.Allocations[1].Principal, dec("150"))

	entries, err := f.scheduleRepo.ListByLoan(context.Background(), schedule.LoanID)
	if err != nil {
		t.Fatalf("list schedule: %v", err)
	}
	if entries[0].Status != domain.InstallmentStatusPaid {
		t.Fatalf("expected installment 1 PAID, got %s", entries[0].Status)
	}
	if entries[1].Status != domain.InstallmentStatusPartial {
		t.Fatalf("expected installment 2 PARTIAL, got %s", entries[1].Status)
	}
}

func TestFullRepaymentClosesLoan(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("FLAT", "900", "0.12", 3))

	// 300 principal + 9 interest per installment; 2000 overpays.
	resp, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
		InstitutionID: testInstitution,
		LoanID:        schedule.LoanID,
		Amount:        dec("2000"),
	})
	if err != nil {
		t.Fatalf("apply repayment: %v", err)
	}
	result := *resp.Data

	assertDecimal(t, "applied", result.Applied, dec("927"))
	assertDecimal(t, "unallocated surplus", result.Unallocated, dec("1073"))

	loan, err := f.loanRepo.GetByID(context.Background(), testInstitution, schedule.LoanID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if loan.Status != domain.LoanStatusClosed {
		t.Fatalf("expected CLOSED, got %s", loan.Status)
	}

	entries, err := f.scheduleRepo.ListByLoan(context.Background(), schedule.LoanID)
	if err != nil {
		t.Fatalf("list schedule: %v", err)
	}
	for _, entry := range entries {
		if entry.Status != domain.InstallmentStatusPaid {
			t.Fatalf("installment %d not PAID: %s", entry.InstallmentNumber, entry.Status)
		}
	}
}

func TestApplyRepaymentRejectsClosedLoan(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	schedule := createLoan(t, f, loanRequest("FLAT", "900", "0", 3))
	if _, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
		InstitutionID: testInstitution,
		LoanID:        schedule.LoanID,
		Amount:        dec("900"),
	}); err != nil {
		t.Fatalf("apply repayment: %v", err)
	}

	_, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
		InstitutionID: testInstitution,
		LoanID:        schedule.LoanID,
		Amount:        dec("10"),
	})
	if err == nil {
		t.Fatal("expected error repaying a closed loan")
	}
}

func TestCreateLoanValidation(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	req := loanRequest("FLAT", "900", "0", 5)
	req.RepaymentIntervalMonths = 2
	if _, err := f.loans.CreateLoan(context.Background(), req); err == nil {
		t.Fatal("expected validation error when tenure is not a multiple of the interval")
	}

	req = loanRequest("BALLOON", "900", "0", 3)
	if _, err := f.loans.CreateLoan(context.Background(), req); err == nil {
		t.Fatal("expected validation error for unknown interest method")
	}
}

func TestPenaltyAccruesOnceAcrossRepayments(t *testing.T) {
	f := newLedgerFixture(t, defaultPolicy())

	req := loanRequest("FLAT", "1200", "0.12", 12)
	req.PenaltyRate = dec("0.10")
	req.FirstDueDate = time.Now().UTC().AddDate(0, 0, -10)
	schedule := createLoan(t, f, req)

	// Installment 1 due: principal 100, interest 12. The 10% penalty on
	// the unpaid 112.00 is charged when it first goes overdue and never
	// again, even though partial payments rewrite the entry status.
	for i := 0; i < 2; i++ {
		if _, err := f.loans.ApplyRepayment(context.Background(), models.ApplyRepaymentRequest{
			InstitutionID: testInstitution,
			LoanID:        schedule.LoanID,
			Amount:        dec("1.00"),
		}); err != nil {
			t.Fatalf("apply repayment %d: %v", i+1, err)
		}
	}

	entries, err := f.scheduleRepo.ListByLoan(context.Background(), schedule.LoanID)
	if err != nil {
		t.Fatalf("list schedule: %v", err)
	}
	assertDecimal(t, "penalty charged once", entries[0].PenaltyDue, dec("11.20"))
	assertDecimal(t, "penalty paid across both calls", entries[0].PenaltyPaid, dec("2.00"))
	if entries[0].PenaltyAccruedAt == nil {
		t.Fatal("expected the penalty accrual to be recorded")
	}
}
