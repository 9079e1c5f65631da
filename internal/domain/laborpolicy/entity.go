package laborpolicy

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LaborPolicy holds per-organization labor rules.
type LaborPolicy struct {
	CompanyID                   string
	DailyOvertimeThresholdHours decimal.Decimal
	IsDefault                   bool
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

var ErrLaborPolicyNotFound = errors.New("labor policy not found")
