package timecode

import "context"

type TimeCodeService interface {
	Create(ctx context.Context, companyID string, req CreateTimeCodeRequest) (TimeCodeResponse, error)
	Get(ctx context.Context, companyID string, id string) (TimeCodeResponse, error)
	List(ctx context.Context, companyID string, activeOnly bool) ([]TimeCodeResponse, error)
	Deactivate(ctx context.Context, companyID string, id string) error
}
