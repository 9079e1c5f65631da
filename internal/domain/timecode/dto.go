package timecode

import (
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateTimeCodeRequest struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	Category           string           `json:"category"`
	IsBillable         bool             `json:"is_billable"`
	IsProductive       bool             `json:"is_productive"`
	RequiresWorkOrder  bool             `json:"requires_work_order"`
	RequiresVehicle    bool             `json:"requires_vehicle"`
	StandardRate       decimal.Decimal  `json:"standard_rate"`
	OvertimeMultiplier *decimal.Decimal `json:"overtime_multiplier,omitempty"`
}

func (r *CreateTimeCodeRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidCode(r.Code) {
		errs.Add("code", "code must be lowercase snake_case, 2-64 characters")
	}
	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}
	if !Category(r.Category).Valid() {
		errs.Add("category", "category must be one of: direct_labor, indirect_labor, administrative, training")
	}
	if r.StandardRate.IsNegative() {
		errs.Add("standard_rate", "standard_rate must not be negative")
	}
	if r.OvertimeMultiplier != nil && r.OvertimeMultiplier.LessThan(decimal.NewFromInt(1)) {
		errs.Add("overtime_multiplier", "overtime_multiplier must be at least 1")
	}

	return errs.Err()
}

type TimeCodeResponse struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	IsBillable         bool            `json:"is_billable"`
	IsProductive       bool            `json:"is_productive"`
	RequiresWorkOrder  bool            `json:"requires_work_order"`
	RequiresVehicle    bool            `json:"requires_vehicle"`
	StandardRate       decimal.Decimal `json:"standard_rate"`
	OvertimeMultiplier decimal.Decimal `json:"overtime_multiplier"`
	IsActive           bool            `json:"is_active"`
}

func NewTimeCodeResponse(t TimeCode) TimeCodeResponse {
	return TimeCodeResponse{
		ID:                 t.ID,
		Code:               t.Code,
		Name:               t.Name,
		Category:           string(t.Category),
		IsBillable:         t.IsBillable,
		IsProductive:       t.IsProductive,
		RequiresWorkOrder:  t.RequiresWorkOrder,
		RequiresVehicle:    t.RequiresVehicle,
		StandardRate:       t.StandardRate,
		OvertimeMultiplier: t.OvertimeMultiplier,
		IsActive:           t.IsActive,
	}
}
