package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	TimeCode    TimeCodeHandler
	TimeEntry   TimeEntryHandler
	LaborPolicy LaborPolicyHandler
	Overtime    OvertimeHandler
	Rollup      RollupHandler
	KPI         KPIHandler
	Scorecard   ScorecardHandler
	Report      ReportHandler
}

type RouterOptions struct {
	CORSOrigins []string
	Env         string
	Version     string
	LogLevel    slog.Level
	// FilesDir is served under /files when exports are stored locally
	FilesDir string
}

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "fleet-metrics"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if opts.FilesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(opts.FilesDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication and a tenant
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)

			r.Route("/time-codes", func(r chi.Router) {
				r.Get("/", h.TimeCode.List)
				r.Get("/{id}", h.TimeCode.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", h.TimeCode.Create)
					r.Delete("/{id}", h.TimeCode.Deactivate)
				})
			})

			r.Route("/time-entries", func(r chi.Router) {
				r.Post("/", h.TimeEntry.Submit)
				r.Get("/", h.TimeEntry.List)
				r.Get("/{id}", h.TimeEntry.Get)
				r.Put("/{id}", h.TimeEntry.Update)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.Post("/{id}/approve", h.TimeEntry.Approve)
					r.Post("/{id}/reject", h.TimeEntry.Reject)
				})
			})

			r.Route("/labor-policy", func(r chi.Router) {
				r.Get("/", h.LaborPolicy.Get)
				r.With(middleware.RequireAdmin).Put("/", h.LaborPolicy.Update)
			})

			r.Route("/overtime-authorizations", func(r chi.Router) {
				r.Use(middleware.RequireSupervisor)
				r.Post("/", h.Overtime.Authorize)
				r.Get("/", h.Overtime.List)
				r.Get("/{id}", h.Overtime.Get)
				r.Post("/{id}/cancel", h.Overtime.Cancel)
			})

			r.Route("/rollups", func(r chi.Router) {
				r.Use(middleware.RequireSupervisor)
				r.Get("/daily", h.Rollup.ListDaily)
				r.Get("/weekly", h.Rollup.ListWeekly)
				r.Get("/shop", h.Rollup.ListShop)
				r.With(middleware.RequireAdmin).Post("/recalculate", h.Rollup.Recalculate)
			})

			r.Route("/kpis", func(r chi.Router) {
				r.Get("/definitions", h.KPI.ListDefinitions)
				r.Get("/definitions/{code}", h.KPI.GetDefinition)
				r.Get("/measurements", h.KPI.History)
				r.Get("/{code}/trend", h.KPI.Trend)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.Post("/evaluate", h.KPI.Evaluate)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/definitions", h.KPI.CreateDefinition)
					r.Put("/definitions/{code}", h.KPI.UpdateDefinition)
					r.Post("/evaluate-all", h.KPI.EvaluateAll)
				})
			})

			r.Route("/scorecards", func(r chi.Router) {
				r.Get("/", h.Scorecard.List)
				r.Get("/{id}", h.Scorecard.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.Post("/", h.Scorecard.Build)
					r.Put("/{id}/items", h.Scorecard.Rebuild)
				})
				r.With(middleware.RequireAdmin).Post("/{id}/publish", h.Scorecard.Publish)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireSupervisor)
				r.Get("/labor", h.Report.LaborSummary)
				r.Post("/labor/export", h.Report.ExportLabor)
				r.Get("/shop-trend", h.Report.ShopTrend)
				r.Get("/technicians/{id}/week", h.Report.TechnicianWeek)
			})
		})
	})
	return r
}
