package timecode

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
)

var (
	ErrTimeCodeNotFound   = fmt.Errorf("time code %w", apperror.ErrNotFound)
	ErrTimeCodeCodeExists = errors.New("time code already exists")
	ErrTimeCodeInactive   = errors.New("time code is inactive")
)
