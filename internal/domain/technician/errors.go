package technician

import (
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var ErrTechnicianNotFound = fmt.Errorf("technician %w", apperror.ErrNotFound)
