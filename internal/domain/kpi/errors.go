package kpi

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var (
	ErrDefinitionNotFound  = fmt.Errorf("kpi definition %w", apperror.ErrNotFound)
	ErrDefinitionExists    = errors.New("kpi definition code already exists")
	ErrMeasurementNotFound = fmt.Errorf("kpi measurement %w", apperror.ErrNotFound)
	ErrMetricNotRegistered = fmt.Errorf("no calculation registered for kpi: %w", apperror.ErrNotFound)
	ErrDefinitionInactive  = fmt.Errorf("kpi definition is inactive: %w", apperror.ErrInvalidState)
	ErrScopeNotSupported   = errors.New("kpi cannot be evaluated for this scope type")
	ErrScopeNotFound       = fmt.Errorf("kpi scope %w", apperror.ErrNotFound)
	ErrCalculationTimeout  = fmt.Errorf("calculation timed out: %w", apperror.ErrCalculation)
)
