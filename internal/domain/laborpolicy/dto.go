package laborpolicy

import (
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type UpdateLaborPolicyRequest struct {
	DailyOvertimeThresholdHours decimal.Decimal `json:"daily_overtime_threshold_hours"`
}

func (r *UpdateLaborPolicyRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.DailyOvertimeThresholdHours.IsPositive() {
		errs.Add("daily_overtime_threshold_hours", "daily_overtime_threshold_hours must be greater than 0")
	} else if r.DailyOvertimeThresholdHours.GreaterThan(decimal.NewFromInt(24)) {
		errs.Add("daily_overtime_threshold_hours", "daily_overtime_threshold_hours must not exceed 24")
	}
	return errs.Err()
}

type LaborPolicyResponse struct {
	CompanyID                   string          `json:"company_id"`
	DailyOvertimeThresholdHours decimal.Decimal `json:"daily_overtime_threshold_hours"`
	IsDefault                   bool            `json:"is_default"`
}
