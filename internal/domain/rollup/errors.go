package rollup

import (
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var ErrDailyRollupNotFound = fmt.Errorf("daily rollup %w", apperror.ErrNotFound)
