package commons

import "errors"

var ErrRecordNotFound = errors.New("Record not found")

var ErrInsufficientFunds = errors.New("Insufficient funds")
var ErrAccountFrozen = errors.New("Account is frozen")
var ErrAccountClosed = errors.New("Account is closed")
var ErrAccountNotActive = errors.New("Account is not active")
var ErrLimitExceeded = errors.New("Transaction limit exceeded")
var ErrCurrencyMismatch = errors.New("Currency mismatch")

var ErrPeriodLocked = errors.New("Value date falls in a locked ledger period")

var ErrDuplicateReference = errors.New("Transaction reference already used")
var ErrReferenceConflict = errors.New("Transaction reference reused with a different payload")

// ErrPostingImbalance indicates debit != credit on a posting. It is a
// programming error, never user input; the posting aborts with no partial
// write and the occurrence is logged for manual reconciliation.
var ErrPostingImbalance = errors.New("Posting debit and credit amounts are not equal")

var ErrInvalidStateTransition = errors.New("Invalid state transition")
var ErrAlreadyReversed = errors.New("Transaction already reversed")
var ErrNotCompleted = errors.New("Transaction is not completed")
var ErrNotCancellable = errors.New("Transaction can no longer be cancelled")

// ErrContention is returned after bounded retries of an optimistic balance
// update keep losing the version race. Callers may retry the whole request.
var ErrContention = errors.New("Concurrent update contention")

var ErrApprovalRequired = errors.New("Approval is required")
var ErrSelfApproval = errors.New("Checker cannot approve own request")
var ErrUnknownCustomField = errors.New("Custom field not declared for institution")
