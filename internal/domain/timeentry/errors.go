package timeentry

import (
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var (
	ErrTimeEntryNotFound     = fmt.Errorf("time entry %w", apperror.ErrNotFound)
	ErrEntryAlreadyProcessed = fmt.Errorf("time entry has already been approved or rejected: %w", apperror.ErrInvalidState)
)
