package rollup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/fleet"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/lock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// OvertimeCoverage is the part of the overtime ledger the shop builder reads.
type OvertimeCoverage interface {
	CoveringCaps(ctx context.Context, companyID string, date time.Time) (map[string]decimal.Decimal, error)
}

type Config struct {
	// Concurrency bounds the keys recomputed at once in a batch.
	Concurrency int
	// LockTimeout bounds one attempt to take a key lock.
	LockTimeout time.Duration
	// ConflictRetries is how many times a conflicting recompute is retried.
	ConflictRetries int
	RetryBackoff    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = 5 * time.Second
	}
	if c.ConflictRetries <= 0 {
		c.ConflictRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
	return c
}

type RollupServiceImpl struct {
	cfg            Config
	tx             database.TxRunner
	locker         lock.Locker
	entryRepo      timeentry.TimeEntryRepository
	timeCodeRepo   timecode.TimeCodeRepository
	technicianRepo technician.TechnicianRepository
	workOrders     fleet.WorkOrderCounter
	overtime       OvertimeCoverage
	dailyRepo      rollup.DailyRollupRepository
	weeklyRepo     rollup.WeeklyRollupRepository
	shopRepo       rollup.ShopRollupRepository
}

func NewRollupService(
	cfg Config,
	tx database.TxRunner,
	locker lock.Locker,
	entryRepo timeentry.TimeEntryRepository,
	timeCodeRepo timecode.TimeCodeRepository,
	technicianRepo technician.TechnicianRepository,
	workOrders fleet.WorkOrderCounter,
	overtime OvertimeCoverage,
	dailyRepo rollup.DailyRollupRepository,
	weeklyRepo rollup.WeeklyRollupRepository,
	shopRepo rollup.ShopRollupRepository,
) rollup.RollupService {
	return &RollupServiceImpl{
		cfg:            cfg.withDefaults(),
		tx:             tx,
		locker:         locker,
		entryRepo:      entryRepo,
		timeCodeRepo:   timeCodeRepo,
		technicianRepo: technicianRepo,
		workOrders:     workOrders,
		overtime:       overtime,
		dailyRepo:      dailyRepo,
		weeklyRepo:     weeklyRepo,
		shopRepo:       shopRepo,
	}
}

// withKeyLock runs fn holding the exclusive lock for key. Lock and write
// conflicts are retried with linear backoff before being returned.
func (s *RollupServiceImpl) withKeyLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}

		err = s.lockedOnce(ctx, key, fn)
		if err == nil || !apperror.IsConflict(err) {
			return err
		}
		slog.Debug("rollup key conflict, retrying", "key", key, "attempt", attempt+1, "error", err)
	}
	return err
}

func (s *RollupServiceImpl) lockedOnce(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	release, err := s.locker.Acquire(lockCtx, key)
	cancel()
	if err != nil {
		return err
	}
	defer release()
	return s.tx.RunInTx(ctx, fn)
}

// HandleDirty implements rollup.DirtyHandler.
func (s *RollupServiceImpl) HandleDirty(ctx context.Context, key rollup.DirtyKey) error {
	_, err := s.RecomputeDaily(ctx, key)
	return err
}

// RecomputeDaily implements rollup.RollupService.
func (s *RollupServiceImpl) RecomputeDaily(ctx context.Context, key rollup.DirtyKey) (rollup.DailyRollup, error) {
	key.Date = rollup.TruncateDay(key.Date)
	if _, err := s.technicianRepo.GetByID(ctx, key.TechnicianID, key.CompanyID); err != nil {
		return rollup.DailyRollup{}, err
	}

	var result rollup.DailyRollup
	err := s.withKeyLock(ctx, key.String(), func(txCtx context.Context) error {
		entries, err := s.entryRepo.ListApprovedForDay(txCtx, key.CompanyID, key.TechnicianID, key.Date)
		if err != nil {
			return fmt.Errorf("failed to load approved entries: %w", err)
		}

		codes, err := s.timeCodeRepo.GetByIDs(txCtx, timeCodeIDs(entries), key.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to load time codes: %w", err)
		}

		completed, err := s.workOrders.CountCompleted(txCtx, key.CompanyID, key.TechnicianID, key.Date)
		if err != nil {
			return fmt.Errorf("failed to count completed work orders: %w", err)
		}

		result = rollup.BuildDaily(key, entries, codes, completed)
		return s.dailyRepo.Replace(txCtx, result)
	})
	if err != nil {
		return rollup.DailyRollup{}, err
	}
	return result, nil
}

func timeCodeIDs(entries []timeentry.TimeEntry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.TimeCodeID == nil || seen[*e.TimeCodeID] {
			continue
		}
		seen[*e.TimeCodeID] = true
		ids = append(ids, *e.TimeCodeID)
	}
	return ids
}

// RecomputeWeekly implements rollup.RollupService.
func (s *RollupServiceImpl) RecomputeWeekly(ctx context.Context, key rollup.WeekKey) (rollup.WeeklyRollup, error) {
	key.WeekStart = rollup.WeekStart(key.WeekStart)
	if _, err := s.technicianRepo.GetByID(ctx, key.TechnicianID, key.CompanyID); err != nil {
		return rollup.WeeklyRollup{}, err
	}

	var result rollup.WeeklyRollup
	err := s.withKeyLock(ctx, key.String(), func(txCtx context.Context) error {
		dailies, err := s.dailyRepo.ListForTechnician(txCtx, key.CompanyID, key.TechnicianID, key.WeekStart, key.WeekStart.AddDate(0, 0, 6))
		if err != nil {
			return fmt.Errorf("failed to load daily rollups: %w", err)
		}
		result = rollup.BuildWeekly(key, dailies)
		return s.weeklyRepo.Replace(txCtx, result)
	})
	if err != nil {
		return rollup.WeeklyRollup{}, err
	}
	return result, nil
}

// RecomputeShop implements rollup.RollupService.
func (s *RollupServiceImpl) RecomputeShop(ctx context.Context, key rollup.ShopKey) (rollup.ShopRollup, error) {
	key.Date = rollup.TruncateDay(key.Date)

	var result rollup.ShopRollup
	err := s.withKeyLock(ctx, key.String(), func(txCtx context.Context) error {
		techs, err := s.technicianRepo.ListActive(txCtx, key.CompanyID, key.DepartmentID)
		if err != nil {
			return fmt.Errorf("failed to list technicians: %w", err)
		}

		rows, err := s.dailyRepo.ListForDate(txCtx, key.CompanyID, key.Date)
		if err != nil {
			return fmt.Errorf("failed to load daily rollups: %w", err)
		}
		dailies := make(map[string]rollup.DailyRollup, len(rows))
		for _, r := range rows {
			dailies[r.TechnicianID] = r
		}

		caps, err := s.overtime.CoveringCaps(txCtx, key.CompanyID, key.Date)
		if err != nil {
			return fmt.Errorf("failed to load overtime authorizations: %w", err)
		}

		result = rollup.BuildShop(key, techs, dailies, caps)
		return s.shopRepo.Replace(txCtx, result)
	})
	if err != nil {
		return rollup.ShopRollup{}, err
	}
	return result, nil
}

// runBatch recomputes every key with bounded concurrency. A failing key is
// recorded in the summary and never cancels its siblings.
func (s *RollupServiceImpl) runBatch(ctx context.Context, keys []string, fn func(ctx context.Context, i int) error) *rollup.BatchSummary {
	summary := &rollup.BatchSummary{}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.Failure(keys[i], err)
				return nil
			}
			if err := fn(ctx, i); err != nil {
				slog.Warn("rollup key failed", "key", keys[i], "error", err)
				summary.Failure(keys[i], err)
				return nil
			}
			summary.Success()
			return nil
		})
	}
	_ = g.Wait()
	return summary
}

func (s *RollupServiceImpl) dailyBatch(ctx context.Context, companyID string, techs []technician.Technician, days []time.Time) *rollup.BatchSummary {
	keys := make([]rollup.DirtyKey, 0, len(techs)*len(days))
	for _, day := range days {
		for _, t := range techs {
			keys = append(keys, rollup.DirtyKey{CompanyID: companyID, TechnicianID: t.ID, Date: day})
		}
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return s.runBatch(ctx, names, func(ctx context.Context, i int) error {
		_, err := s.RecomputeDaily(ctx, keys[i])
		return err
	})
}

func (s *RollupServiceImpl) weeklyBatch(ctx context.Context, companyID string, techs []technician.Technician, weeks []time.Time) *rollup.BatchSummary {
	keys := make([]rollup.WeekKey, 0, len(techs)*len(weeks))
	for _, w := range weeks {
		for _, t := range techs {
			keys = append(keys, rollup.WeekKey{CompanyID: companyID, TechnicianID: t.ID, WeekStart: w})
		}
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return s.runBatch(ctx, names, func(ctx context.Context, i int) error {
		_, err := s.RecomputeWeekly(ctx, keys[i])
		return err
	})
}

func (s *RollupServiceImpl) shopBatch(ctx context.Context, companyID string, departments []string, days []time.Time) *rollup.BatchSummary {
	keys := make([]rollup.ShopKey, 0, len(departments)*len(days))
	for _, day := range days {
		for _, dep := range departments {
			keys = append(keys, rollup.ShopKey{CompanyID: companyID, Date: day, DepartmentID: dep})
		}
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return s.runBatch(ctx, names, func(ctx context.Context, i int) error {
		_, err := s.RecomputeShop(ctx, keys[i])
		return err
	})
}

// shopDepartments returns the org-wide row plus one per department.
func (s *RollupServiceImpl) shopDepartments(ctx context.Context, companyID string) ([]string, error) {
	deps, err := s.technicianRepo.ListDepartments(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return append([]string{""}, deps...), nil
}

func failedSummary(key string, err error) *rollup.BatchSummary {
	slog.Error("rollup batch could not start", "key", key, "error", err)
	summary := &rollup.BatchSummary{}
	summary.Failure(key, err)
	return summary
}

// RecomputeDailyForDate implements rollup.RollupService.
func (s *RollupServiceImpl) RecomputeDailyForDate(ctx context.Context, companyID string, date time.Time) *rollup.BatchSummary {
	techs, err := s.technicianRepo.ListActive(ctx, companyID, "")
	if err != nil {
		return failedSummary(fmt.Sprintf("daily:%s:*:%s", companyID, date.Format("2006-01-02")), err)
	}
	return s.dailyBatch(ctx, companyID, techs, []time.Time{rollup.TruncateDay(date)})
}

// RecomputeWeeklyForWeek implements rollup.RollupService.
func (s *RollupServiceImpl) RecomputeWeeklyForWeek(ctx context.Context, companyID string, weekStart time.Time) *rollup.BatchSummary {
	techs, err := s.technicianRepo.ListActive(ctx, companyID, "")
	if err != nil {
		return failedSummary(fmt.Sprintf("weekly:%s:*:%s", companyID, weekStart.Format("2006-01-02")), err)
	}
	return s.weeklyBatch(ctx, companyID, techs, []time.Time{rollup.WeekStart(weekStart)})
}

// RecomputeShopForDate implements rollup.RollupService.
func (s *RollupServiceImpl) RecomputeShopForDate(ctx context.Context, companyID string, date time.Time) *rollup.BatchSummary {
	deps, err := s.shopDepartments(ctx, companyID)
	if err != nil {
		return failedSummary(fmt.Sprintf("shop:%s:%s:*", companyID, date.Format("2006-01-02")), err)
	}
	return s.shopBatch(ctx, companyID, deps, []time.Time{rollup.TruncateDay(date)})
}

// RunPeriod implements rollup.RollupService. Weekly and shop rollups run
// after the daily pass so they observe its output.
func (s *RollupServiceImpl) RunPeriod(ctx context.Context, companyID string, date time.Time) *rollup.BatchSummary {
	summary := &rollup.BatchSummary{}
	summary.Merge(s.RecomputeDailyForDate(ctx, companyID, date))
	summary.Merge(s.RecomputeWeeklyForWeek(ctx, companyID, rollup.WeekStart(date)))
	summary.Merge(s.RecomputeShopForDate(ctx, companyID, date))

	slog.Info("rollup period completed",
		"company_id", companyID, "date", date.Format("2006-01-02"),
		"succeeded", summary.Succeeded, "failed", len(summary.Failed))
	return summary
}

// Recalculate implements rollup.RollupService.
func (s *RollupServiceImpl) Recalculate(ctx context.Context, companyID string, scope rollup.ScopeKey, period rollup.Period) (*rollup.BatchSummary, error) {
	var techs []technician.Technician
	if scope.TechnicianID != "" {
		t, err := s.technicianRepo.GetByID(ctx, scope.TechnicianID, companyID)
		if err != nil {
			return nil, err
		}
		techs = []technician.Technician{t}
	} else {
		var err error
		techs, err = s.technicianRepo.ListActive(ctx, companyID, scope.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list technicians: %w", err)
		}
	}

	var departments []string
	if scope.Level == rollup.LevelShop || scope.Level == rollup.LevelAll {
		if scope.DepartmentID != "" {
			departments = []string{scope.DepartmentID}
		} else {
			var err error
			if departments, err = s.shopDepartments(ctx, companyID); err != nil {
				return nil, err
			}
		}
	}

	summary := &rollup.BatchSummary{}
	switch scope.Level {
	case rollup.LevelDaily:
		summary.Merge(s.dailyBatch(ctx, companyID, techs, period.Days()))
	case rollup.LevelWeekly:
		summary.Merge(s.weeklyBatch(ctx, companyID, techs, period.WeekStarts()))
	case rollup.LevelShop:
		summary.Merge(s.shopBatch(ctx, companyID, departments, period.Days()))
	case rollup.LevelAll:
		summary.Merge(s.dailyBatch(ctx, companyID, techs, period.Days()))
		summary.Merge(s.weeklyBatch(ctx, companyID, techs, period.WeekStarts()))
		summary.Merge(s.shopBatch(ctx, companyID, departments, period.Days()))
	default:
		return nil, errors.New("unknown rollup level " + string(scope.Level))
	}

	slog.Info("rollup recalculation completed",
		"company_id", companyID, "level", scope.Level,
		"start", period.Start.Format("2006-01-02"), "end", period.End.Format("2006-01-02"),
		"succeeded", summary.Succeeded, "failed", len(summary.Failed))
	return summary, nil
}

// ListDaily implements rollup.RollupService.
func (s *RollupServiceImpl) ListDaily(ctx context.Context, companyID string, filter rollup.RollupFilter) ([]rollup.DailyRollup, error) {
	if _, err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.dailyRepo.List(ctx, companyID, filter)
}

// ListWeekly implements rollup.RollupService.
func (s *RollupServiceImpl) ListWeekly(ctx context.Context, companyID string, filter rollup.RollupFilter) ([]rollup.WeeklyRollup, error) {
	if _, err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.weeklyRepo.List(ctx, companyID, filter)
}

// ListShop implements rollup.RollupService.
func (s *RollupServiceImpl) ListShop(ctx context.Context, companyID string, filter rollup.RollupFilter) ([]rollup.ShopRollup, error) {
	if _, err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.shopRepo.List(ctx, companyID, filter)
}
