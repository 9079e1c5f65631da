package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/app"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/config"
	appHTTP "github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/jwt"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		slog.Error("Failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	handlers := appHTTP.Handlers{
		TimeCode:    appHTTP.NewTimeCodeHandler(a.TimeCodes),
		TimeEntry:   appHTTP.NewTimeEntryHandler(a.TimeEntries),
		LaborPolicy: appHTTP.NewLaborPolicyHandler(a.LaborPolicy),
		Overtime:    appHTTP.NewOvertimeHandler(a.Overtime),
		Rollup:      appHTTP.NewRollupHandler(a.Rollups),
		KPI:         appHTTP.NewKPIHandler(a.KPIs),
		Scorecard:   appHTTP.NewScorecardHandler(a.Scorecards),
		Report:      appHTTP.NewReportHandler(a.Reports),
	}
	routerOpts := appHTTP.RouterOptions{
		CORSOrigins: cfg.App.CORSOrigins,
		Env:         cfg.App.Env,
		Version:     version,
		LogLevel:    cfg.SlogLevel(),
	}
	if cfg.Storage.Driver == "local" {
		routerOpts.FilesDir = cfg.Storage.LocalPath
	}
	router := appHTTP.NewRouter(JWTService, handlers, routerOpts)

	if cfg.Scheduler.Enabled {
		scheduler := a.Scheduler()
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
