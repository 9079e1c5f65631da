package timeentry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OvertimeRecorder is the part of the overtime ledger approval writes to.
type OvertimeRecorder interface {
	RecordUsage(ctx context.Context, companyID string, technicianID string, date time.Time, hours decimal.Decimal) ([]overtime.Authorization, error)
}

// PolicyProvider resolves the overtime threshold of a company.
type PolicyProvider interface {
	Get(ctx context.Context, companyID string) (laborpolicy.LaborPolicy, error)
}

type TimeEntryServiceImpl struct {
	tx             database.TxRunner
	entryRepo      timeentry.TimeEntryRepository
	timeCodeRepo   timecode.TimeCodeRepository
	technicianRepo technician.TechnicianRepository
	policies       PolicyProvider
	overtime       OvertimeRecorder
	dirty          rollup.DirtyHandler
	now            func() time.Time
}

func NewTimeEntryService(
	tx database.TxRunner,
	entryRepo timeentry.TimeEntryRepository,
	timeCodeRepo timecode.TimeCodeRepository,
	technicianRepo technician.TechnicianRepository,
	policies PolicyProvider,
	overtimeRecorder OvertimeRecorder,
	dirty rollup.DirtyHandler,
) timeentry.TimeEntryService {
	return &TimeEntryServiceImpl{
		tx:             tx,
		entryRepo:      entryRepo,
		timeCodeRepo:   timeCodeRepo,
		technicianRepo: technicianRepo,
		policies:       policies,
		overtime:       overtimeRecorder,
		dirty:          dirty,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Submit implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Submit(ctx context.Context, companyID string, createdBy string, req timeentry.SubmitEntryRequest) (timeentry.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	if _, err := s.technicianRepo.GetByID(ctx, req.TechnicianID, companyID); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	entryDate, _ := validator.IsValidDate(req.EntryDate)
	entry := timeentry.TimeEntry{
		CompanyID:    companyID,
		TechnicianID: req.TechnicianID,
		TimeCodeID:   req.TimeCodeID,
		EntryDate:    entryDate,
		ClockIn:      req.ClockIn,
		ClockOut:     req.ClockOut,
		TotalHours:   req.ResolveTotalHours(),
		BreakHours:   req.BreakHours,
		WorkOrderID:  req.WorkOrderID,
		VehicleID:    req.VehicleID,
		Notes:        req.Notes,
		Status:       timeentry.StatusPending,
		CreatedBy:    createdBy,
	}

	entry, err := s.derive(ctx, entry)
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return timeentry.TimeEntryResponse{}, fmt.Errorf("failed to generate entry id: %w", err)
	}
	entry.ID = id.String()

	created, err := s.entryRepo.Create(ctx, entry)
	if err != nil {
		return timeentry.TimeEntryResponse{}, fmt.Errorf("failed to create time entry: %w", err)
	}
	return timeentry.NewTimeEntryResponse(created), nil
}

// Update implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Update(ctx context.Context, companyID string, id string, req timeentry.UpdateEntryRequest) (timeentry.TimeEntryResponse, error) {
	var updated timeentry.TimeEntry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.entryRepo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if current.Status != timeentry.StatusPending {
			return timeentry.ErrEntryAlreadyProcessed
		}

		merged, err := req.Apply(current)
		if err != nil {
			return err
		}
		merged, err = s.derive(txCtx, merged)
		if err != nil {
			return err
		}

		updated, err = s.entryRepo.Update(txCtx, merged)
		return err
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	return timeentry.NewTimeEntryResponse(updated), nil
}

// derive checks the time code requirements and fills the derived fields.
func (s *TimeEntryServiceImpl) derive(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	var tc *timecode.TimeCode
	if entry.TimeCodeID != nil {
		code, err := s.timeCodeRepo.GetByID(ctx, *entry.TimeCodeID, entry.CompanyID)
		if err != nil {
			if errors.Is(err, timecode.ErrTimeCodeNotFound) {
				return entry, validator.ValidationErrors{{Field: "time_code_id", Message: "time code does not exist"}}
			}
			return entry, fmt.Errorf("failed to get time code: %w", err)
		}
		if err := checkTimeCodeRequirements(code, entry); err != nil {
			return entry, err
		}
		tc = &code
	}

	policy, err := s.policies.Get(ctx, entry.CompanyID)
	if err != nil {
		return entry, fmt.Errorf("failed to resolve labor policy: %w", err)
	}
	return timeentry.DeriveHoursAndCost(entry, tc, policy.DailyOvertimeThresholdHours), nil
}

func checkTimeCodeRequirements(tc timecode.TimeCode, entry timeentry.TimeEntry) error {
	var errs validator.ValidationErrors
	if !tc.IsActive {
		errs.Add("time_code_id", "time code is inactive")
	}
	if tc.RequiresWorkOrder && (entry.WorkOrderID == nil || validator.IsEmpty(*entry.WorkOrderID)) {
		errs.Add("work_order_id", "work_order_id is required for time code "+tc.Code)
	}
	if tc.RequiresVehicle && (entry.VehicleID == nil || validator.IsEmpty(*entry.VehicleID)) {
		errs.Add("vehicle_id", "vehicle_id is required for time code "+tc.Code)
	}
	return errs.Err()
}

// Approve implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Approve(ctx context.Context, companyID string, id string, approverID string) (timeentry.TimeEntryResponse, error) {
	var approved timeentry.TimeEntry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.entryRepo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if entry.Status != timeentry.StatusPending {
			return timeentry.ErrEntryAlreadyProcessed
		}

		now := s.now()
		entry.Status = timeentry.StatusApproved
		entry.ApprovedBy = &approverID
		entry.ApprovedAt = &now
		approved, err = s.entryRepo.SetStatus(txCtx, entry)
		if err != nil {
			return err
		}

		if approved.OvertimeHours.IsPositive() {
			auths, err := s.overtime.RecordUsage(txCtx, companyID, approved.TechnicianID, approved.EntryDate, approved.OvertimeHours)
			if err != nil {
				return fmt.Errorf("failed to record overtime usage: %w", err)
			}
			if len(auths) == 0 {
				slog.Warn("overtime approved without authorization",
					"company_id", companyID, "technician_id", approved.TechnicianID,
					"entry_id", approved.ID, "overtime_hours", approved.OvertimeHours.String())
			}
		}
		return nil
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	key := rollup.DirtyKey{CompanyID: companyID, TechnicianID: approved.TechnicianID, Date: approved.EntryDate}
	if err := s.dirty.HandleDirty(ctx, key); err != nil {
		// the approval stands; the scheduled recompute repairs the rollup
		slog.Error("daily rollup recompute after approval failed", "key", key.String(), "error", err)
	}

	return timeentry.NewTimeEntryResponse(approved), nil
}

// Reject implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Reject(ctx context.Context, companyID string, id string, approverID string, req timeentry.RejectEntryRequest) (timeentry.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	var rejected timeentry.TimeEntry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.entryRepo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if entry.Status != timeentry.StatusPending {
			return timeentry.ErrEntryAlreadyProcessed
		}

		now := s.now()
		entry.Status = timeentry.StatusRejected
		entry.ApprovedBy = &approverID
		entry.ApprovedAt = &now
		entry.RejectionReason = &req.Reason
		rejected, err = s.entryRepo.SetStatus(txCtx, entry)
		return err
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	return timeentry.NewTimeEntryResponse(rejected), nil
}

// Get implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Get(ctx context.Context, companyID string, id string) (timeentry.TimeEntryResponse, error) {
	entry, err := s.entryRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	return timeentry.NewTimeEntryResponse(entry), nil
}

// List implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) List(ctx context.Context, companyID string, filter timeentry.TimeEntryFilter) (timeentry.ListTimeEntryResponse, error) {
	if err := filter.Validate(); err != nil {
		return timeentry.ListTimeEntryResponse{}, err
	}

	entries, total, err := s.entryRepo.List(ctx, filter, companyID)
	if err != nil {
		return timeentry.ListTimeEntryResponse{}, fmt.Errorf("failed to list time entries: %w", err)
	}

	resp := timeentry.ListTimeEntryResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Entries:    make([]timeentry.TimeEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, timeentry.NewTimeEntryResponse(e))
	}
	return resp, nil
}
