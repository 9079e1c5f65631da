package overtime

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusUsed      Status = "used"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Authorization is a supervisor-approved overtime budget. The ledger is
// advisory: usage beyond MaxOvertimeHours is recorded, never refused.
type Authorization struct {
	ID               string
	CompanyID        string
	TechnicianID     string
	AuthorizedDate   time.Time
	MaxOvertimeHours decimal.Decimal
	HoursUsed        decimal.Decimal
	ValidFrom        time.Time
	ValidUntil       time.Time
	Status           Status
	Reason           string
	AuthorizedBy     string
	CancelledBy      *string
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HoursRemaining may be negative once usage exceeds the budget.
func (a Authorization) HoursRemaining() decimal.Decimal {
	return a.MaxOvertimeHours.Sub(a.HoursUsed)
}

// Covers reports whether date falls inside the validity window (inclusive).
func (a Authorization) Covers(date time.Time) bool {
	return !date.Before(a.ValidFrom) && !date.After(a.ValidUntil)
}

// IsOpen reports whether a can still be cancelled or expired.
func (a Authorization) IsOpen() bool {
	return a.Status == StatusActive || a.Status == StatusUsed
}

// AccruesUsage reports whether overtime on a covered date counts against a.
// Expired authorizations keep accruing for dates inside their window.
func (a Authorization) AccruesUsage() bool {
	return a.Status != StatusCancelled
}

// ApplyUsage adds hours and moves an open authorization between active and
// used. Expired authorizations stay expired.
func (a *Authorization) ApplyUsage(hours decimal.Decimal) {
	a.HoursUsed = a.HoursUsed.Add(hours)
	if !a.IsOpen() {
		return
	}
	if a.HoursUsed.GreaterThanOrEqual(a.MaxOvertimeHours) {
		a.Status = StatusUsed
	} else {
		a.Status = StatusActive
	}
}
