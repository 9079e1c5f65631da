package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/app"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/config"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/database"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
)

var rootCmd = &cobra.Command{
	Use:           "fleetctl",
	Short:         "Operate the fleet labor rollup and KPI engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := database.RollbackMigrations(cfg.DatabaseURL(), steps); err != nil {
			return err
		}
		fmt.Printf("Rolled back %d migration(s).\n", steps)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		status, err := database.GetMigrationStatus(cfg.DatabaseURL())
		if err != nil {
			return err
		}
		fmt.Printf("Current version: %d\n", status.CurrentVersion)
		fmt.Printf("Latest version:  %d\n", status.LatestVersion)
		fmt.Printf("Dirty:           %t\n", status.Dirty)
		fmt.Printf("Pending:         %t\n", status.Pending)
		return nil
	},
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute labor rollups for a date range",
	Long: `Recompute labor rollups for one company over a date range.

Examples:
  fleetctl recalc --company <id> --start 2024-03-01 --end 2024-03-31
  fleetctl recalc --company <id> --level daily --technician <id> --start 2024-03-11 --end 2024-03-11`,
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetString("company")
		level, _ := cmd.Flags().GetString("level")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")

		req := rollup.RecalculateRequest{
			Level:        level,
			TechnicianID: flagPtr(cmd, "technician"),
			DepartmentID: flagPtr(cmd, "department"),
			StartDate:    start,
			EndDate:      end,
		}
		scope, period, err := req.Validate()
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			summary, err := a.Rollups.Recalculate(ctx, companyID, scope, period)
			if err != nil {
				return err
			}
			printJSON(summary)
			if summary.HasFailures() {
				return fmt.Errorf("%d rollup keys failed", len(summary.Failed))
			}
			return nil
		})
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate-kpis",
	Short: "Evaluate every active KPI for its previous complete period",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := dateFlag(cmd, "as-of")
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			companyIDs, err := companies(ctx, cmd, a)
			if err != nil {
				return err
			}
			for _, companyID := range companyIDs {
				summary, err := a.KPIs.EvaluateAll(ctx, companyID, asOf)
				if err != nil {
					return fmt.Errorf("company %s: %w", companyID, err)
				}
				fmt.Printf("Company %s:\n", companyID)
				printJSON(summary)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a labor summary spreadsheet to file storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, _ := cmd.Flags().GetString("company")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		req := report.RangeRequest{StartDate: start, EndDate: end, DepartmentID: flagPtr(cmd, "department")}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result, err := a.Reports.ExportLabor(ctx, companyID, req)
			if err != nil {
				return err
			}
			printJSON(result)
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed-kpis",
	Short: "Create the built-in KPI definitions from the catalog file",
	Long: `Create KPI definitions listed in the catalog for one company, or every
company with active technicians when --company is omitted. Existing codes are
left unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			path, _ := cmd.Flags().GetString("catalog")
			if path == "" {
				path = a.Config.KPI.CatalogPath
			}
			catalog, err := config.LoadCatalog(path)
			if err != nil {
				return err
			}

			companyIDs, err := companies(ctx, cmd, a)
			if err != nil {
				return err
			}
			for _, companyID := range companyIDs {
				created, err := a.KPIs.SeedCatalog(ctx, companyID, catalog)
				if err != nil {
					return fmt.Errorf("company %s: %w", companyID, err)
				}
				fmt.Printf("Company %s: %d of %d definitions created\n", companyID, created, len(catalog))
			}
			return nil
		})
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and run scheduled jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			for _, name := range a.Scheduler().Jobs() {
				fmt.Println(name)
			}
			return nil
		})
	},
}

var jobsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run one scheduled job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			return a.Scheduler().RunJob(ctx, args[0])
		})
	},
}

func init() {
	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	recalcCmd.Flags().String("company", "", "Company ID")
	recalcCmd.Flags().String("level", string(rollup.LevelAll), "daily, weekly, shop or all")
	recalcCmd.Flags().String("technician", "", "Limit to one technician")
	recalcCmd.Flags().String("department", "", "Limit to one department")
	recalcCmd.Flags().String("start", "", "First day, YYYY-MM-DD")
	recalcCmd.Flags().String("end", "", "Last day, YYYY-MM-DD")
	_ = recalcCmd.MarkFlagRequired("company")

	evaluateCmd.Flags().String("company", "", "Company ID (default: all companies)")
	evaluateCmd.Flags().String("as-of", "", "Evaluation date, YYYY-MM-DD (default: today)")

	exportCmd.Flags().String("company", "", "Company ID")
	exportCmd.Flags().String("department", "", "Limit to one department")
	exportCmd.Flags().String("start", "", "First day, YYYY-MM-DD")
	exportCmd.Flags().String("end", "", "Last day, YYYY-MM-DD")
	_ = exportCmd.MarkFlagRequired("company")

	seedCmd.Flags().String("company", "", "Company ID (default: all companies)")
	seedCmd.Flags().String("catalog", "", "Catalog TOML file (default: KPI_CATALOG_PATH)")

	jobsCmd.AddCommand(jobsListCmd, jobsRunCmd)

	rootCmd.AddCommand(migrateCmd, recalcCmd, evaluateCmd, exportCmd, seedCmd, jobsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return cfg, nil
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func companies(ctx context.Context, cmd *cobra.Command, a *app.App) ([]string, error) {
	if id, _ := cmd.Flags().GetString("company"); id != "" {
		return []string{id}, nil
	}
	return a.TechnicianRepo.ListCompanyIDs(ctx)
}

func flagPtr(cmd *cobra.Command, name string) *string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return &v
	}
	return nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return rollup.TruncateDay(time.Now().UTC()), nil
	}
	d, ok := validator.IsValidDate(v)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", name, v)
	}
	return d, nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
