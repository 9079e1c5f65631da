package timeentry

import "context"

// TimeEntryService owns entry submission and the approval state machine.
type TimeEntryService interface {
	Submit(ctx context.Context, companyID string, createdBy string, req SubmitEntryRequest) (TimeEntryResponse, error)

	// Update edits a pending entry and re-derives its hours and cost
	Update(ctx context.Context, companyID string, id string, req UpdateEntryRequest) (TimeEntryResponse, error)

	// Approve makes the entry visible to rollups and recomputes its technician-day
	Approve(ctx context.Context, companyID string, id string, approverID string) (TimeEntryResponse, error)

	Reject(ctx context.Context, companyID string, id string, approverID string, req RejectEntryRequest) (TimeEntryResponse, error)
	Get(ctx context.Context, companyID string, id string) (TimeEntryResponse, error)
	List(ctx context.Context, companyID string, filter TimeEntryFilter) (ListTimeEntryResponse, error)
}
