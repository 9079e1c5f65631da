package overtime

import (
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var (
	ErrAuthorizationNotFound = fmt.Errorf("overtime authorization %w", apperror.ErrNotFound)
	ErrAuthorizationClosed   = fmt.Errorf("overtime authorization is expired or cancelled: %w", apperror.ErrInvalidState)
)
