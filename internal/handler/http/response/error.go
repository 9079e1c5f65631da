package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/scorecard"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/lock"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrMissingClaims), errors.Is(err, jwt.ErrMissingCompany):
		Unauthorized(w, err.Error())

	// Duplicate keys
	case errors.Is(err, timecode.ErrTimeCodeCodeExists):
		Conflict(w, "Time code already exists")
	case errors.Is(err, kpi.ErrDefinitionExists):
		Conflict(w, "KPI definition code already exists")
	case errors.Is(err, scorecard.ErrScorecardExists):
		Conflict(w, "Scorecard already exists for this name, scope and period")

	case errors.Is(err, kpi.ErrScopeNotSupported):
		BadRequest(w, err.Error(), nil)

	// Recompute lock contention outlived the internal retries
	case errors.Is(err, lock.ErrLockNotAcquired):
		ServiceUnavailable(w, "Rollup is being recomputed, retry shortly")

	case errors.Is(err, report.ErrExportFailed):
		slog.Error("Export failed", "error", err)
		InternalServerError(w, "Failed to generate export")

	// Error kinds
	case errors.Is(err, apperror.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrInvalidState):
		Conflict(w, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		Conflict(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
