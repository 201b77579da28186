package memory

import (
	"sync"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

// Store is the shared in-memory state backing the memory repositories. It
// is safe for concurrent use and exists for tests and local wiring; the
// durable store is postgres.
type Store struct {
	mu sync.Mutex

	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	// txByRef indexes transactions by institution-scoped reference for the
	// idempotency unique constraint.
	txByRef     map[string]string
	postings    map[string]domain.GLPosting
	lockPeriods map[string]domain.LedgerLockPeriod
	loans       map[string]domain.Loan
	schedules   map[string][]domain.RepaymentScheduleEntry
	disputes    map[string]domain.Dispute
	approvals   map[string]domain.Approval
	rates       []domain.Rate
	staff       map[string]domain.Staff

	// accountLocks serializes balance mutation per account. Locks are
	// always acquired in ascending key order to avoid deadlock.
	accountLocks map[string]*sync.Mutex
	lockTableMu  sync.Mutex
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		txByRef:      make(map[string]string),
		postings:     make(map[string]domain.GLPosting),
		lockPeriods:  make(map[string]domain.LedgerLockPeriod),
		loans:        make(map[string]domain.Loan),
		schedules:    make(map[string][]domain.RepaymentScheduleEntry),
		disputes:     make(map[string]domain.Dispute),
		approvals:    make(map[string]domain.Approval),
		staff:        make(map[string]domain.Staff),
		accountLocks: make(map[string]*sync.Mutex),
	}
}

func accountKey(institutionID string, accountNumber string) string {
	return institutionID + "/" + accountNumber
}

func referenceKey(institutionID string, reference string) string {
	return institutionID + "/" + reference
}

func (s *Store) accountLock(key string) *sync.Mutex {
	s.lockTableMu.Lock()
	defer s.lockTableMu.Unlock()

	if _, exists := s.accountLocks[key]; !exists {
		s.accountLocks[key] = &sync.Mutex{}
	}
	return s.accountLocks[key]
}

// lockAccounts acquires both account locks in ascending key order and
// returns an unlock function.
func (s *Store) lockAccounts(keyA string, keyB string) func() {
	if keyA == keyB {
		lock := s.accountLock(keyA)
		lock.Lock()
		return lock.Unlock
	}

	first, second := keyA, keyB
	if second < first {
		first, second = second, first
	}

	firstLock := s.accountLock(first)
	secondLock := s.accountLock(second)
	firstLock.Lock()
	secondLock.Lock()
	return func() {
		secondLock.Unlock()
		firstLock.Unlock()
	}
}

// SeedPosting inserts a posting row verbatim, bypassing ApplyPosting. Used
// by recovery-sweep tests to stage rows left PENDING by a simulated crash.
func (s *Store) SeedPosting(posting domain.GLPosting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings[posting.ID] = posting
}
