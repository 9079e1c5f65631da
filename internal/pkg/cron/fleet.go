package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
)

const (
	JobRecomputeLaborRollups        = "recompute_labor_rollups"
	JobEvaluateKPIs                 = "evaluate_kpis"
	JobExpireOvertimeAuthorizations = "expire_overtime_authorizations"
)

type companyLister interface {
	ListCompanyIDs(ctx context.Context) ([]string, error)
}

type periodRunner interface {
	RunPeriod(ctx context.Context, companyID string, date time.Time) *rollup.BatchSummary
}

type kpiEvaluator interface {
	EvaluateAll(ctx context.Context, companyID string, asOf time.Time) (*kpi.EvaluationSummary, error)
}

type overtimeExpirer interface {
	ExpireStale(ctx context.Context, asOf time.Time) (int64, error)
}

// Intervals controls how often each fleet job ticks.
type Intervals struct {
	Rollup         time.Duration
	KPI            time.Duration
	OvertimeExpiry time.Duration
}

type FleetJobs struct {
	companies companyLister
	rollups   periodRunner
	kpis      kpiEvaluator
	overtime  overtimeExpirer
	now       func() time.Time
}

func NewFleetJobs(companies companyLister, rollups periodRunner, kpis kpiEvaluator, overtime overtimeExpirer) *FleetJobs {
	return &FleetJobs{
		companies: companies,
		rollups:   rollups,
		kpis:      kpis,
		overtime:  overtime,
		now:       time.Now,
	}
}

func (j *FleetJobs) RegisterJobs(scheduler *Scheduler, intervals Intervals) {
	scheduler.AddJob(JobRecomputeLaborRollups, intervals.Rollup, j.RecomputeLaborRollups)
	scheduler.AddJob(JobEvaluateKPIs, intervals.KPI, j.EvaluateKPIs)
	scheduler.AddJob(JobExpireOvertimeAuthorizations, intervals.OvertimeExpiry, j.ExpireOvertimeAuthorizations)
}

func (j *FleetJobs) today() time.Time {
	return rollup.TruncateDay(j.now().UTC())
}

// RecomputeLaborRollups rebuilds yesterday's daily, weekly and shop rollups
// for every company. Re-running it produces the same rows.
func (j *FleetJobs) RecomputeLaborRollups(ctx context.Context) error {
	yesterday := j.today().AddDate(0, 0, -1)
	companyIDs, err := j.companies.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	slog.Info("Cron: Starting labor rollup recompute", "date", yesterday.Format("2006-01-02"), "companies", len(companyIDs))

	var errs []error
	for _, companyID := range companyIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary := j.rollups.RunPeriod(ctx, companyID, yesterday)
		for _, f := range summary.Failed {
			slog.Error("Cron: Rollup key failed", "company_id", companyID, "key", f.Key, "error", f.Error)
		}
		if len(summary.Failed) > 0 {
			errs = append(errs, fmt.Errorf("company %s: %d rollup keys failed", companyID, len(summary.Failed)))
		}
	}

	return errors.Join(errs...)
}

// EvaluateKPIs evaluates every active KPI for its previous complete period.
func (j *FleetJobs) EvaluateKPIs(ctx context.Context) error {
	asOf := j.today()
	companyIDs, err := j.companies.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	slog.Info("Cron: Starting KPI evaluation", "as_of", asOf.Format("2006-01-02"), "companies", len(companyIDs))

	var errs []error
	for _, companyID := range companyIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary, err := j.kpis.EvaluateAll(ctx, companyID, asOf)
		if err != nil {
			slog.Error("Cron: KPI evaluation failed", "company_id", companyID, "error", err)
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
			continue
		}
		for _, f := range summary.Failed {
			slog.Warn("Cron: KPI calculation failed", "company_id", companyID, "kpi_code", f.KPICode, "scope", f.Scope, "error", f.Error)
		}
	}

	return errors.Join(errs...)
}

// ExpireOvertimeAuthorizations moves active authorizations whose window
// ended before today to expired.
func (j *FleetJobs) ExpireOvertimeAuthorizations(ctx context.Context) error {
	_, err := j.overtime.ExpireStale(ctx, j.today())
	return err
}
