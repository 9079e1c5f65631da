package timeentry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
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

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]timeentry.TimeEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]timeentry.TimeEntry)}
}

func (f *fakeEntryRepo) Create(_ context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeEntryRepo) GetByID(_ context.Context, id string, company string) (timeentry.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok || e.CompanyID != company {
		return timeentry.TimeEntry{}, timeentry.ErrTimeEntryNotFound
	}
	return e, nil
}

func (f *fakeEntryRepo) Update(_ context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries[e.ID].Status != timeentry.StatusPending {
		return timeentry.TimeEntry{}, timeentry.ErrEntryAlreadyProcessed
	}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeEntryRepo) SetStatus(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	return f.Update(ctx, e)
}

func (f *fakeEntryRepo) List(_ context.Context, _ timeentry.TimeEntryFilter, company string) ([]timeentry.TimeEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []timeentry.TimeEntry
	for _, e := range f.entries {
		if e.CompanyID == company {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeEntryRepo) ListApprovedForDay(context.Context, string, string, time.Time) ([]timeentry.TimeEntry, error) {
	return nil, nil
}

func (f *fakeEntryRepo) ListApprovedInRange(context.Context, string, time.Time, time.Time) ([]timeentry.TimeEntry, error) {
	return nil, nil
}

type fakeTimeCodeRepo struct {
	codes map[string]timecode.TimeCode
}

func (f *fakeTimeCodeRepo) Create(_ context.Context, tc timecode.TimeCode) (timecode.TimeCode, error) {
	f.codes[tc.ID] = tc
	return tc, nil
}

func (f *fakeTimeCodeRepo) GetByID(_ context.Context, id string, _ string) (timecode.TimeCode, error) {
	tc, ok := f.codes[id]
	if !ok {
		return timecode.TimeCode{}, timecode.ErrTimeCodeNotFound
	}
	return tc, nil
}

func (f *fakeTimeCodeRepo) GetByIDs(_ context.Context, ids []string, _ string) (map[string]timecode.TimeCode, error) {
	out := make(map[string]timecode.TimeCode)
	for _, id := range ids {
		if tc, ok := f.codes[id]; ok {
			out[id] = tc
		}
	}
	return out, nil
}

func (f *fakeTimeCodeRepo) List(context.Context, string, bool) ([]timecode.TimeCode, error) {
	return nil, nil
}

func (f *fakeTimeCodeRepo) SetActive(context.Context, string, string, bool) error { return nil }

type fakeTechnicianRepo struct{}

func (fakeTechnicianRepo) GetByID(_ context.Context, id string, company string) (technician.Technician, error) {
	if id != "tech-1" {
		return technician.Technician{}, technician.ErrTechnicianNotFound
	}
	return technician.Technician{ID: id, CompanyID: company, IsActive: true}, nil
}

func (fakeTechnicianRepo) ListActive(context.Context, string, string) ([]technician.Technician, error) {
	return nil, nil
}

func (fakeTechnicianRepo) ListDepartments(context.Context, string) ([]string, error) { return nil, nil }
func (fakeTechnicianRepo) ListCompanyIDs(context.Context) ([]string, error)          { return nil, nil }

type fixedPolicy struct{ threshold decimal.Decimal }

func (p fixedPolicy) Get(_ context.Context, company string) (laborpolicy.LaborPolicy, error) {
	return laborpolicy.LaborPolicy{CompanyID: company, DailyOvertimeThresholdHours: p.threshold}, nil
}

type usageCall struct {
	technicianID string
	hours        decimal.Decimal
}

type fakeOvertime struct {
	calls   []usageCall
	covered bool
}

func (f *fakeOvertime) RecordUsage(_ context.Context, _ string, technicianID string, _ time.Time, hours decimal.Decimal) ([]overtime.Authorization, error) {
	f.calls = append(f.calls, usageCall{technicianID: technicianID, hours: hours})
	if !f.covered {
		return nil, nil
	}
	return []overtime.Authorization{{TechnicianID: technicianID, HoursUsed: hours}}, nil
}

type fakeDirty struct {
	keys []rollup.DirtyKey
	err  error
}

func (f *fakeDirty) HandleDirty(_ context.Context, key rollup.DirtyKey) error {
	f.keys = append(f.keys, key)
	return f.err
}

type fixture struct {
	svc      timeentry.TimeEntryService
	entries  *fakeEntryRepo
	overtime *fakeOvertime
	dirty    *fakeDirty
}

func newFixture() fixture {
	codes := &fakeTimeCodeRepo{codes: map[string]timecode.TimeCode{
		"tc-repair": {
			ID: "tc-repair", CompanyID: companyID, Code: "REPAIR", Category: timecode.CategoryDirectLabor,
			IsBillable: true, IsProductive: true, RequiresWorkOrder: true, IsActive: true,
			StandardRate: decimal.NewFromInt(40), OvertimeMultiplier: decimal.RequireFromString("1.5"),
		},
		"tc-old": {ID: "tc-old", CompanyID: companyID, Code: "OLD", Category: timecode.CategoryTraining, IsActive: false},
	}}
	f := fixture{entries: newFakeEntryRepo(), overtime: &fakeOvertime{}, dirty: &fakeDirty{}}
	f.svc = NewTimeEntryService(inlineTx{}, f.entries, codes, fakeTechnicianRepo{}, fixedPolicy{threshold: decimal.NewFromInt(8)}, f.overtime, f.dirty)
	return f
}

func ptr[T any](v T) *T { return &v }

func repairShift() timeentry.SubmitEntryRequest {
	in := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	out := time.Date(2024, 3, 4, 19, 0, 0, 0, time.UTC)
	return timeentry.SubmitEntryRequest{
		TechnicianID: "tech-1",
		EntryDate:    "2024-03-04",
		TimeCodeID:   ptr("tc-repair"),
		ClockIn:      &in,
		ClockOut:     &out,
		BreakHours:   decimal.NewFromInt(1),
		WorkOrderID:  ptr("WO-100"),
	}
}

func TestSubmit_DerivesHoursAndCost(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Submit(context.Background(), companyID, "clerk", repairShift())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, string(timeentry.StatusPending), resp.Status)
	assert.True(t, resp.TotalHours.Equal(decimal.NewFromInt(11)))
	assert.True(t, resp.NetHours.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.RegularHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, resp.OvertimeHours.Equal(decimal.NewFromInt(2)))
	assert.True(t, resp.IsOvertime)
	assert.True(t, resp.TotalCost.Equal(decimal.NewFromInt(440)), resp.TotalCost.String())
	assert.Empty(t, f.dirty.keys, "pending entries never touch rollups")
}

func TestSubmit_RejectsMissingWorkOrder(t *testing.T) {
	f := newFixture()
	req := repairShift()
	req.WorkOrderID = nil

	_, err := f.svc.Submit(context.Background(), companyID, "clerk", req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "work_order_id")
}

func TestSubmit_RejectsInactiveAndUnknownCodes(t *testing.T) {
	f := newFixture()

	req := repairShift()
	req.TimeCodeID = ptr("tc-old")
	_, err := f.svc.Submit(context.Background(), companyID, "clerk", req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "time_code_id")

	req.TimeCodeID = ptr("tc-missing")
	_, err = f.svc.Submit(context.Background(), companyID, "clerk", req)
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "time_code_id")
}

func TestSubmit_UnknownTechnician(t *testing.T) {
	f := newFixture()
	req := repairShift()
	req.TechnicianID = "ghost"

	_, err := f.svc.Submit(context.Background(), companyID, "clerk", req)
	assert.ErrorIs(t, err, technician.ErrTechnicianNotFound)
}

func TestApprove_RecordsOvertimeAndMarksDayDirty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, companyID, "clerk", repairShift())
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, companyID, submitted.ID, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, string(timeentry.StatusApproved), approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "supervisor", *approved.ApprovedBy)

	require.Len(t, f.overtime.calls, 1)
	assert.True(t, f.overtime.calls[0].hours.Equal(decimal.NewFromInt(2)))

	require.Len(t, f.dirty.keys, 1)
	assert.Equal(t, "tech-1", f.dirty.keys[0].TechnicianID)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), f.dirty.keys[0].Date)
}

func TestApprove_TwiceIsInvalidState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, companyID, "clerk", repairShift())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, companyID, submitted.ID, "supervisor")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, companyID, submitted.ID, "supervisor")
	assert.ErrorIs(t, err, timeentry.ErrEntryAlreadyProcessed)

	_, err = f.svc.Reject(ctx, companyID, submitted.ID, "supervisor", timeentry.RejectEntryRequest{Reason: "late"})
	assert.ErrorIs(t, err, timeentry.ErrEntryAlreadyProcessed)
	assert.Len(t, f.dirty.keys, 1)
}

func TestApprove_RecomputeFailureKeepsApproval(t *testing.T) {
	f := newFixture()
	f.dirty.err = errors.New("lock timeout")
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, companyID, "clerk", repairShift())
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, companyID, submitted.ID, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, string(timeentry.StatusApproved), approved.Status)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, companyID, "clerk", repairShift())
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, companyID, submitted.ID, "supervisor", timeentry.RejectEntryRequest{Reason: "  "})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	rejected, err := f.svc.Reject(ctx, companyID, submitted.ID, "supervisor", timeentry.RejectEntryRequest{Reason: "duplicate punch"})
	require.NoError(t, err)
	assert.Equal(t, string(timeentry.StatusRejected), rejected.Status)
	assert.Empty(t, f.overtime.calls)
	assert.Empty(t, f.dirty.keys)
}

func TestUpdate_RederivesPendingEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, companyID, "clerk", repairShift())
	require.NoError(t, err)

	total := decimal.NewFromInt(6)
	updated, err := f.svc.Update(ctx, companyID, submitted.ID, timeentry.UpdateEntryRequest{TotalHours: &total, BreakHours: ptr(decimal.Zero)})
	require.NoError(t, err)
	assert.True(t, updated.NetHours.Equal(decimal.NewFromInt(6)))
	assert.True(t, updated.OvertimeHours.IsZero())
	assert.True(t, updated.TotalCost.Equal(decimal.NewFromInt(240)))
}
