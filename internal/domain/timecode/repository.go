package timecode

import "context"

type TimeCodeRepository interface {
	Create(ctx context.Context, tc TimeCode) (TimeCode, error)
	GetByID(ctx context.Context, id string, companyID string) (TimeCode, error)
	// GetByIDs returns the codes found; missing IDs are simply absent from the map
	GetByIDs(ctx context.Context, ids []string, companyID string) (map[string]TimeCode, error)
	List(ctx context.Context, companyID string, activeOnly bool) ([]TimeCode, error)
	SetActive(ctx context.Context, id string, companyID string, active bool) error
}
