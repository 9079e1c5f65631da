package overtime

import (
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type AuthorizeRequest struct {
	TechnicianID     string          `json:"technician_id"`
	AuthorizedDate   string          `json:"authorized_date"` // YYYY-MM-DD
	MaxOvertimeHours decimal.Decimal `json:"max_overtime_hours"`
	ValidFrom        *string         `json:"valid_from,omitempty"`  // defaults to authorized_date
	ValidUntil       *string         `json:"valid_until,omitempty"` // defaults to valid_from
	Reason           string          `json:"reason"`
}

// Validate checks the request and resolves the authorized date and window.
func (r *AuthorizeRequest) Validate() (authorized, from, until time.Time, err error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.TechnicianID) {
		errs.Add("technician_id", "technician_id is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	if r.MaxOvertimeHours.IsNegative() {
		errs.Add("max_overtime_hours", "max_overtime_hours must not be negative")
	} else if r.MaxOvertimeHours.GreaterThan(decimal.NewFromInt(24)) {
		errs.Add("max_overtime_hours", "max_overtime_hours must not exceed 24")
	}

	authorized, ok := validator.IsValidDate(r.AuthorizedDate)
	if !ok {
		errs.Add("authorized_date", "authorized_date must be in YYYY-MM-DD format")
	}
	from = authorized
	if r.ValidFrom != nil {
		if from, ok = validator.IsValidDate(*r.ValidFrom); !ok {
			errs.Add("valid_from", "valid_from must be in YYYY-MM-DD format")
		}
	}
	until = from
	if r.ValidUntil != nil {
		if until, ok = validator.IsValidDate(*r.ValidUntil); !ok {
			errs.Add("valid_until", "valid_until must be in YYYY-MM-DD format")
		}
	}
	if until.Before(from) {
		errs.Add("valid_until", "valid_until must not be before valid_from")
	}

	return authorized, from, until, errs.Err()
}

type AuthorizationResponse struct {
	ID               string          `json:"id"`
	TechnicianID     string          `json:"technician_id"`
	AuthorizedDate   string          `json:"authorized_date"`
	MaxOvertimeHours decimal.Decimal `json:"max_overtime_hours"`
	HoursUsed        decimal.Decimal `json:"hours_used"`
	HoursRemaining   decimal.Decimal `json:"hours_remaining"`
	ValidFrom        string          `json:"valid_from"`
	ValidUntil       string          `json:"valid_until"`
	Status           string          `json:"status"`
	Reason           string          `json:"reason"`
	AuthorizedBy     string          `json:"authorized_by"`
	CancelledBy      *string         `json:"cancelled_by,omitempty"`
	CancelledAt      *string         `json:"cancelled_at,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

func NewAuthorizationResponse(a Authorization) AuthorizationResponse {
	resp := AuthorizationResponse{
		ID:               a.ID,
		TechnicianID:     a.TechnicianID,
		AuthorizedDate:   a.AuthorizedDate.Format("2006-01-02"),
		MaxOvertimeHours: a.MaxOvertimeHours,
		HoursUsed:        a.HoursUsed,
		HoursRemaining:   a.HoursRemaining(),
		ValidFrom:        a.ValidFrom.Format("2006-01-02"),
		ValidUntil:       a.ValidUntil.Format("2006-01-02"),
		Status:           string(a.Status),
		Reason:           a.Reason,
		AuthorizedBy:     a.AuthorizedBy,
		CancelledBy:      a.CancelledBy,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		s := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	return resp
}

type AuthorizationFilter struct {
	TechnicianID *string `json:"technician_id,omitempty"`
	Status       *string `json:"status,omitempty"`
	Date         *string `json:"date,omitempty"` // YYYY-MM-DD, authorizations covering this date
}

func (f *AuthorizationFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil {
		statuses := []string{string(StatusActive), string(StatusUsed), string(StatusExpired), string(StatusCancelled)}
		if !validator.IsInSlice(*f.Status, statuses) {
			errs.Add("status", "status must be one of: active, used, expired, cancelled")
		}
	}
	if f.Date != nil && *f.Date != "" {
		if _, ok := validator.IsValidDate(*f.Date); !ok {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
	}
	return errs.Err()
}
