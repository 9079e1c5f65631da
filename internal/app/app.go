// Package app builds the service graph shared by the API server and fleetctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/config"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/scorecard"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/technician"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timeentry"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/cron"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/lock"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/storage"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/repository/postgresql"
	kpiService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/kpi"
	laborPolicyService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/laborpolicy"
	overtimeService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/overtime"
	reportService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/report"
	rollupService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/rollup"
	scorecardService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/scorecard"
	timeCodeService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/timecode"
	timeEntryService "github.com/cmlabs-hris/fleet-metrics-go/internal/service/timeentry"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config *config.Config
	DB     *database.DB

	TechnicianRepo technician.TechnicianRepository

	TimeCodes   timecode.TimeCodeService
	TimeEntries timeentry.TimeEntryService
	LaborPolicy laborpolicy.LaborPolicyService
	Overtime    overtime.OvertimeService
	Rollups     rollup.RollupService
	KPIs        kpi.KPIService
	Scorecards  scorecard.ScorecardService
	Reports     report.ReportService
	FleetJobs   *cron.FleetJobs
	redisClient *redis.Client
}

// New connects to Postgres (and Redis when configured), opens the file
// storage and wires every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolOptions{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &App{Config: cfg, DB: db}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	fileStorage, err := newStorage(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	tx := postgresql.NewTxRunner(db)
	technicianRepo := postgresql.NewTechnicianRepository(db)
	timeCodeRepo := postgresql.NewTimeCodeRepository(db)
	entryRepo := postgresql.NewTimeEntryRepository(db)
	laborPolicyRepo := postgresql.NewLaborPolicyRepository(db)
	overtimeRepo := postgresql.NewOvertimeRepository(db)
	dailyRepo := postgresql.NewDailyRollupRepository(db)
	weeklyRepo := postgresql.NewWeeklyRollupRepository(db)
	shopRepo := postgresql.NewShopRollupRepository(db)
	definitionRepo := postgresql.NewKPIDefinitionRepository(db)
	measurementRepo := postgresql.NewKPIMeasurementRepository(db)
	scorecardRepo := postgresql.NewScorecardRepository(db)
	reportRepo := postgresql.NewReportRepository(db)
	fleetRepo := postgresql.NewFleetRepository(db)

	a.TechnicianRepo = technicianRepo
	a.LaborPolicy = laborPolicyService.NewLaborPolicyService(laborPolicyRepo, cfg.Labor.OvertimeThresholdHours)
	a.TimeCodes = timeCodeService.NewTimeCodeService(timeCodeRepo)
	a.Overtime = overtimeService.NewOvertimeService(tx, overtimeRepo, technicianRepo)
	a.Rollups = rollupService.NewRollupService(
		rollupService.Config{
			Concurrency:     cfg.Rollup.Concurrency,
			LockTimeout:     cfg.Rollup.LockTimeout,
			ConflictRetries: cfg.Rollup.ConflictRetries,
		},
		tx,
		locker,
		entryRepo,
		timeCodeRepo,
		technicianRepo,
		fleetRepo,
		a.Overtime,
		dailyRepo,
		weeklyRepo,
		shopRepo,
	)
	a.TimeEntries = timeEntryService.NewTimeEntryService(
		tx,
		entryRepo,
		timeCodeRepo,
		technicianRepo,
		a.LaborPolicy,
		a.Overtime,
		a.Rollups,
	)

	a.KPIs = kpiService.NewKPIService(
		kpiService.Config{
			CalculationTimeout: cfg.KPI.CalculationTimeout,
			Concurrency:        cfg.KPI.Concurrency,
		},
		definitionRepo,
		measurementRepo,
		technicianRepo,
		fleetRepo,
	)
	kpiService.RegisterBuiltinMetrics(a.KPIs, fleetRepo)

	a.Scorecards = scorecardService.NewScorecardService(tx, scorecardRepo, measurementRepo, scorecard.StatusPolicy(cfg.KPI.StatusPolicy))
	a.Reports = reportService.NewReportService(reportRepo, dailyRepo, weeklyRepo, shopRepo, technicianRepo, fileStorage, cfg.Storage.URLExpiration)
	a.FleetJobs = cron.NewFleetJobs(technicianRepo, a.Rollups, a.KPIs, a.Overtime)

	return a, nil
}

// Scheduler returns a scheduler with the fleet jobs registered.
func (a *App) Scheduler() *cron.Scheduler {
	scheduler := cron.NewScheduler()
	a.FleetJobs.RegisterJobs(scheduler, cron.Intervals{
		Rollup:         a.Config.Scheduler.RollupInterval,
		KPI:            a.Config.Scheduler.KPIInterval,
		OvertimeExpiry: a.Config.Scheduler.OvertimeExpiryInterval,
	})
	return scheduler
}

func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	a.DB.Close()
}

func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if !a.Config.Redis.Enabled() {
		slog.Info("Using in-process rollup locks")
		return lock.NewKeyedMutex(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr(),
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.Config.Redis.Addr(), err)
	}
	a.redisClient = client
	slog.Info("Using redis rollup locks", "addr", a.Config.Redis.Addr())
	return lock.NewRedisLocker(client, "fleet-metrics:lock:", a.Config.Redis.LockTTL), nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.FileStorage, error) {
	switch cfg.Storage.Driver {
	case "local":
		s, err := storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.LocalBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		return s, nil
	case "minio":
		s, err := storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize minio storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
