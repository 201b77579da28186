package services_test

import (
	"context"
	"testing"

	eventsmem "github.com/api-sage/core-banking-ledger/src/internal/adapter/events/memory"
	repomem "github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/models"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const testInstitution = "INST-1"

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func defaultPolicy() domain.InstitutionPolicy {
	return domain.InstitutionPolicy{
		InstitutionID: testInstitution,
		FXPositionAccounts: map[string]string{
			"USD": "FX-USD",
			"EUR": "FX-EUR",
		},
		FeeIncomeAccountNumber:       "FEE-INCOME",
		DisputeSuspenseAccountNumber: "DISPUTE-SUSPENSE",
		MaxTransactionAmount:         dec("1000000"),
	}
}

type ledgerFixture struct {
	store     *repomem.Store
	publisher *eventsmem.Publisher

	accountRepo     *repomem.AccountRepository
	transactionRepo *repomem.TransactionRepository
	postingRepo     *repomem.PostingRepository
	lockPeriodRepo  *repomem.LockPeriodRepository
	approvalRepo    *repomem.ApprovalRepository
	disputeRepo     *repomem.DisputeRepository
	loanRepo        *repomem.LoanRepository
	scheduleRepo    *repomem.ScheduleRepository
	rateRepo        *repomem.RateRepository
	staffRepo       *repomem.StaffRepository

	accounts     *services.AccountService
	postings     *services.PostingService
	approvals    *services.ApprovalService
	transactions *services.TransactionService
	reversals    *services.ReversalService
	loans        *services.LoanService
	periodLocks  *services.PeriodLockService
}

func newLedgerFixture(t *testing.T, policy domain.InstitutionPolicy) *ledgerFixture {
	t.Helper()

	store := repomem.NewStore()
	publisher := eventsmem.NewPublisher()
	policies := map[string]domain.InstitutionPolicy{policy.InstitutionID: policy}

	f := &ledgerFixture{
		store:           store,
		publisher:       publisher,
		accountRepo:     repomem.NewAccountRepository(store),
		transactionRepo: repomem.NewTransactionRepository(store),
		postingRepo:     repomem.NewPostingRepository(store),
		lockPeriodRepo:  repomem.NewLockPeriodRepository(store),
		approvalRepo:    repomem.NewApprovalRepository(store),
		disputeRepo:     repomem.NewDisputeRepository(store),
		loanRepo:        repomem.NewLoanRepository(store),
		scheduleRepo:    repomem.NewScheduleRepository(store),
		rateRepo:        repomem.NewRateRepository(store),
		staffRepo:       repomem.NewStaffRepository(store),
	}

	f.accounts = services.NewAccountService(f.accountRepo, policies)
	f.postings = services.NewPostingService(f.postingRepo, f.lockPeriodRepo, f.approvalRepo, publisher)
	rates := services.NewRateService(f.rateRepo)
	f.approvals = services.NewApprovalService(f.approvalRepo, f.staffRepo)
	f.transactions = services.NewTransactionService(f.transactionRepo, f.accountRepo, f.accounts, f.postings, rates, publisher, policies)
	f.reversals = services.NewReversalService(f.transactionRepo, f.disputeRepo, f.postings, f.approvals, f.transactions, publisher, policies)
	f.loans = services.NewLoanService(f.loanRepo, f.scheduleRepo)
	f.periodLocks = services.NewPeriodLockService(f.lockPeriodRepo, f.staffRepo, f.approvals)

	return f
}

func (f *ledgerFixture) mustCreateAccount(t *testing.T, accountNumber string, currency string, deposit decimal.Decimal) {
	t.Helper()

	_, err := f.accounts.CreateAccount(context.Background(), models.CreateAccountRequest{
		InstitutionID:  testInstitution,
		CustomerID:     "CUST-" + accountNumber,
		AccountNumber:  accountNumber,
		Currency:       currency,
		InitialDeposit: deposit,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", accountNumber, err)
	}
}

func (f *ledgerFixture) balance(t *testing.T, accountNumber string) domain.Balances {
	t.Helper()

	resp, err := f.accounts.GetAccountBalance(context.Background(), testInstitution, accountNumber)
	if err != nil {
		t.Fatalf("get balance %s: %v", accountNumber, err)
	}
	return *resp.Data
}

func (f *ledgerFixture) mustSubmit(t *testing.T, reference string, debit string, credit string, amount decimal.Decimal, currency string) models.TransactionResult {
	t.Helper()

	resp, err := f.transactions.SubmitTransaction(context.Background(), models.SubmitTransactionRequest{
		InstitutionID:       testInstitution,
		Reference:           reference,
		DebitAccountNumber:  debit,
		CreditAccountNumber: credit,
		Amount:              amount,
		Currency:            currency,
		Type:                string(domain.TransactionTypeDebit),
	})
	if err != nil {
		t.Fatalf("submit transaction %s: %v", reference, err)
	}
	return *resp.Data
}

func (f *ledgerFixture) seedStaff(t *testing.T, staffID string, role domain.StaffRole, pin string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	_, err = f.staffRepo.Create(context.Background(), domain.Staff{
		ID:              "id-" + staffID,
		InstitutionID:   testInstitution,
		StaffID:         staffID,
		FullName:        staffID,
		Role:            role,
		ApprovalPINHash: string(hash),
	})
	if err != nil {
		t.Fatalf("seed staff %s: %v", staffID, err)
	}
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: got %s, want %s", label, got, want)
	}
}
