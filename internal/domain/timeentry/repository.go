package timeentry

import (
	"context"
	"time"
)

// TimeEntryRepository stores time entries. Every method is scoped by companyID.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	GetByID(ctx context.Context, id string, companyID string) (TimeEntry, error)

	// Update overwrites a pending entry; it fails with ErrEntryAlreadyProcessed
	// when the stored row is no longer pending.
	Update(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	// SetStatus moves a pending entry to a terminal status.
	SetStatus(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	List(ctx context.Context, filter TimeEntryFilter, companyID string) ([]TimeEntry, int64, error)

	// ListApprovedForDay returns the approved entries of one technician-day,
	// ordered by clock-in then id so sums are deterministic.
	ListApprovedForDay(ctx context.Context, companyID string, technicianID string, date time.Time) ([]TimeEntry, error)

	// ListApprovedInRange returns approved entries in [from, to] across all technicians.
	ListApprovedInRange(ctx context.Context, companyID string, from, to time.Time) ([]TimeEntry, error)
}
