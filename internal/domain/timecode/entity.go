package timecode

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryDirectLabor    Category = "direct_labor"
	CategoryIndirectLabor  Category = "indirect_labor"
	CategoryAdministrative Category = "administrative"
	CategoryTraining       Category = "training"
)

var Categories = []Category{CategoryDirectLabor, CategoryIndirectLabor, CategoryAdministrative, CategoryTraining}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// TimeCode classifies labor for costing and rollups. Reference data, rarely mutated.
type TimeCode struct {
	ID                 string
	CompanyID          string
	Code               string
	Name               string
	Category           Category
	IsBillable         bool
	IsProductive       bool
	RequiresWorkOrder  bool
	RequiresVehicle    bool
	StandardRate       decimal.Decimal
	OvertimeMultiplier decimal.Decimal
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OvertimeRate is the hourly rate paid for hours over the daily threshold.
func (t TimeCode) OvertimeRate() decimal.Decimal {
	return t.StandardRate.Mul(t.OvertimeMultiplier)
}
