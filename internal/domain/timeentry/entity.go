package timeentry

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// TimeEntry is one labor punch. Derived hour and cost fields are computed at
// write time and stored; they are never recomputed on read.
type TimeEntry struct {
	ID              string
	CompanyID       string
	TechnicianID    string
	TimeCodeID      *string
	EntryDate       time.Time
	ClockIn         *time.Time
	ClockOut        *time.Time
	TotalHours      decimal.Decimal
	BreakHours      decimal.Decimal
	NetHours        decimal.Decimal
	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	IsOvertime      bool
	RegularRate     decimal.Decimal
	OvertimeRate    decimal.Decimal
	TotalCost       decimal.Decimal
	WorkOrderID     *string
	VehicleID       *string
	Notes           *string
	Status          Status
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RegularCost is the straight-time share of TotalCost.
func (e TimeEntry) RegularCost() decimal.Decimal {
	return e.RegularHours.Mul(e.RegularRate).Round(2)
}

// OvertimeCost is the premium-time share of TotalCost.
func (e TimeEntry) OvertimeCost() decimal.Decimal {
	return e.OvertimeHours.Mul(e.OvertimeRate).Round(2)
}
