package domain

import "time"

// LedgerLockPeriod freezes posting into a closed accounting period. The
// posting engine consults these for every value date; an unlock grant from
// an implemented maker-checker approval is the only bypass.
type LedgerLockPeriod struct {
	ID            string
	InstitutionID string
	StartDate     time.Time
	EndDate       time.Time
	Locked        bool
	LockedBy      string
	UnlockedBy    *string
	UnlockReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p LedgerLockPeriod) Contains(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	start := p.StartDate.Truncate(24 * time.Hour)
	end := p.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}
