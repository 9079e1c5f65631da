package scorecard

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var (
	ErrScorecardNotFound  = fmt.Errorf("scorecard %w", apperror.ErrNotFound)
	ErrScorecardPublished = fmt.Errorf("scorecard is published and cannot change: %w", apperror.ErrInvalidState)
	ErrScorecardExists    = errors.New("a scorecard with this name, scope and period already exists")
)
