package overtime

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "company-1"

type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	auths map[string]overtime.Authorization
	order []string
}

func newMemRepo() *memRepo {
	return &memRepo{auths: make(map[string]overtime.Authorization)}
}

func (m *memRepo) Create(_ context.Context, a overtime.Authorization) (overtime.Authorization, error) {
	m.auths[a.ID] = a
	m.order = append(m.order, a.ID)
	return a, nil
}

func (m *memRepo) GetByID(_ context.Context, id, company string) (overtime.Authorization, error) {
	a, ok := m.auths[id]
	if !ok || a.CompanyID != company {
		return overtime.Authorization{}, overtime.ErrAuthorizationNotFound
	}
	return a, nil
}

func (m *memRepo) List(_ context.Context, company string, f overtime.AuthorizationFilter) ([]overtime.Authorization, error) {
	var out []overtime.Authorization
	for _, id := range m.order {
		a := m.auths[id]
		if a.CompanyID != company {
			continue
		}
		if f.Date != nil {
			d, _ := validator.IsValidDate(*f.Date)
			if !a.Covers(d) {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memRepo) ListCovering(_ context.Context, company, tech string, date time.Time) ([]overtime.Authorization, error) {
	var out []overtime.Authorization
	for _, id := range m.order {
		a := m.auths[id]
		if a.CompanyID == company && (tech == "" || a.TechnicianID == tech) && a.AccruesUsage() && a.Covers(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, a overtime.Authorization) error {
	m.auths[a.ID] = a
	return nil
}

func (m *memRepo) ExpireBefore(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for id, a := range m.auths {
		if a.IsOpen() && a.ValidUntil.Before(asOf) {
			a.Status = overtime.StatusExpired
			m.auths[id] = a
			n++
		}
	}
	return n, nil
}

type techs struct{}

func (techs) GetByID(_ context.Context, id, company string) (technician.Technician, error) {
	if id == "ghost" {
		return technician.Technician{}, technician.ErrTechnicianNotFound
	}
	return technician.Technician{ID: id, CompanyID: company, IsActive: true}, nil
}
func (techs) ListActive(context.Context, string, string) ([]technician.Technician, error) {
	return nil, nil
}
func (techs) ListDepartments(context.Context, string) ([]string, error) { return nil, nil }
func (techs) ListCompanyIDs(context.Context) ([]string, error)          { return nil, nil }

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	d, _ := validator.IsValidDate(s)
	return d
}

func authorize(t *testing.T, svc overtime.OvertimeService, tech string, hours int64, from, until string) overtime.AuthorizationResponse {
	t.Helper()
	resp, err := svc.Authorize(context.Background(), companyID, "supervisor", overtime.AuthorizeRequest{
		TechnicianID:     tech,
		AuthorizedDate:   from,
		MaxOvertimeHours: decimal.NewFromInt(hours),
		ValidUntil:       &until,
		Reason:           "fleet backlog",
	})
	require.NoError(t, err)
	return resp
}

func TestRecordUsage_OverrunIsRecordedNotRefused(t *testing.T) {
	repo := newMemRepo()
	svc := NewOvertimeService(inlineTx{}, repo, techs{})

	auth := authorize(t, svc, "tech-1", 10, "2024-03-04", "2024-03-08")

	updated, err := svc.RecordUsage(context.Background(), companyID, "tech-1", day("2024-03-05"), decimal.NewFromInt(12))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, overtime.StatusUsed, updated[0].Status)
	assert.True(t, updated[0].HoursRemaining().Equal(decimal.NewFromInt(-2)))

	got, err := svc.Get(context.Background(), companyID, auth.ID)
	require.NoError(t, err)
	assert.True(t, got.HoursUsed.Equal(decimal.NewFromInt(12)))
}

func TestRecordUsage_AppliesToEveryCoveringAuthorization(t *testing.T) {
	repo := newMemRepo()
	svc := NewOvertimeService(inlineTx{}, repo, techs{})

	authorize(t, svc, "tech-1", 4, "2024-03-04", "2024-03-04")
	authorize(t, svc, "tech-1", 4, "2024-03-01", "2024-03-10")
	authorize(t, svc, "tech-2", 4, "2024-03-04", "2024-03-04")

	updated, err := svc.RecordUsage(context.Background(), companyID, "tech-1", day("2024-03-04"), decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	for _, a := range updated {
		assert.Equal(t, overtime.StatusActive, a.Status)
		assert.Equal(t, "tech-1", a.TechnicianID)
	}
}

func TestRecordUsage_NoAuthorizationIsNotAnError(t *testing.T) {
	svc := NewOvertimeService(inlineTx{}, newMemRepo(), techs{})

	updated, err := svc.RecordUsage(context.Background(), companyID, "tech-1", day("2024-03-04"), decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestCancel_ClosedAuthorizationIsInvalidState(t *testing.T) {
	repo := newMemRepo()
	svc := NewOvertimeService(inlineTx{}, repo, techs{})
	auth := authorize(t, svc, "tech-1", 2, "2024-03-04", "2024-03-04")

	cancelled, err := svc.Cancel(context.Background(), companyID, auth.ID, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, string(overtime.StatusCancelled), cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)

	_, err = svc.Cancel(context.Background(), companyID, auth.ID, "supervisor")
	assert.ErrorIs(t, err, overtime.ErrAuthorizationClosed)

	updated, err := svc.RecordUsage(context.Background(), companyID, "tech-1", day("2024-03-04"), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestExpireStale_KeepsHistoricalCaps(t *testing.T) {
	repo := newMemRepo()
	svc := NewOvertimeService(inlineTx{}, repo, techs{})
	authorize(t, svc, "tech-1", 3, "2024-03-04", "2024-03-05")
	authorize(t, svc, "tech-1", 2, "2024-03-04", "2024-03-20")
	cancelled := authorize(t, svc, "tech-2", 5, "2024-03-04", "2024-03-04")
	_, err := svc.Cancel(context.Background(), companyID, cancelled.ID, "supervisor")
	require.NoError(t, err)

	n, err := svc.ExpireStale(context.Background(), day("2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	caps, err := svc.CoveringCaps(context.Background(), companyID, day("2024-03-04"))
	require.NoError(t, err)
	assert.True(t, caps["tech-1"].Equal(decimal.NewFromInt(5)))
	_, hasCancelled := caps["tech-2"]
	assert.False(t, hasCancelled)
}

func TestRecordUsage_AccruesOnExpiredAuthorization(t *testing.T) {
	repo := newMemRepo()
	svc := NewOvertimeService(inlineTx{}, repo, techs{})
	auth := authorize(t, svc, "tech-1", 2, "2024-03-04", "2024-03-05")
	cancelled := authorize(t, svc, "tech-1", 4, "2024-03-05", "2024-03-05")
	_, err := svc.Cancel(context.Background(), companyID, cancelled.ID, "supervisor")
	require.NoError(t, err)

	n, err := svc.ExpireStale(context.Background(), day("2024-03-07"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	updated, err := svc.RecordUsage(context.Background(), companyID, "tech-1", day("2024-03-05"), decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, auth.ID, updated[0].ID)

	got, err := svc.Get(context.Background(), companyID, auth.ID)
	require.NoError(t, err)
	assert.Equal(t, string(overtime.StatusExpired), got.Status)
	assert.True(t, got.HoursUsed.Equal(decimal.NewFromInt(3)))
	assert.True(t, got.HoursRemaining.Equal(decimal.NewFromInt(-1)))

	caps, err := svc.CoveringCaps(context.Background(), companyID, day("2024-03-05"))
	require.NoError(t, err)
	assert.True(t, caps["tech-1"].Equal(decimal.NewFromInt(2)))

	untouched, err := svc.Get(context.Background(), companyID, cancelled.ID)
	require.NoError(t, err)
	assert.True(t, untouched.HoursUsed.IsZero())
}

func TestAuthorize_Validation(t *testing.T) {
	svc := NewOvertimeService(inlineTx{}, newMemRepo(), techs{})

	_, err := svc.Authorize(context.Background(), companyID, "supervisor", overtime.AuthorizeRequest{
		TechnicianID:     "tech-1",
		AuthorizedDate:   "2024-03-04",
		MaxOvertimeHours: decimal.NewFromInt(-1),
		ValidUntil:       ptr("2024-03-01"),
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "max_overtime_hours")
	assert.Contains(t, fields, "valid_until")
	assert.Contains(t, fields, "reason")

	_, err = svc.Authorize(context.Background(), companyID, "supervisor", overtime.AuthorizeRequest{
		TechnicianID:     "ghost",
		AuthorizedDate:   "2024-03-04",
		MaxOvertimeHours: decimal.NewFromInt(2),
		Reason:           "backlog",
	})
	assert.ErrorIs(t, err, technician.ErrTechnicianNotFound)
}
