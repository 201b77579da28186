package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostingStatus string

// Postings are written in two phases: the row is created PENDING, balances
// move, then the row is marked POSTED in the same atomic unit where the
// store supports it. A recovery sweep resolves rows left PENDING by a
// crash between phases.
const (
	PostingStatusPending    PostingStatus = "PENDING"
	PostingStatusPosted     PostingStatus = "POSTED"
	PostingStatusRolledBack PostingStatus = "ROLLED_BACK"
)

// GLPosting is an immutable double-entry row. Corrections are always a new
// posting referencing the original, never an update.
type GLPosting struct {
	ID                  string
	InstitutionID       string
	TransactionID       string
	DebitAccountNumber  string
	DebitAmount         decimal.Decimal
	CreditAccountNumber string
	CreditAmount        decimal.Decimal
	Currency            string
	Narration           string
	ValueDate           time.Time
	Status              PostingStatus
	IsReversed          bool
	ReversalPostingID   *string
	CreatedAt           time.Time
}

func (p GLPosting) Balanced() bool {
	return p.DebitAmount.Equal(p.CreditAmount)
}
