package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/rollup"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
)

type RollupHandler interface {
	ListDaily(w http.ResponseWriter, r *http.Request)
	ListWeekly(w http.ResponseWriter, r *http.Request)
	ListShop(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
}

type rollupHandlerImpl struct {
	rollupService rollup.RollupService
}

func NewRollupHandler(rollupService rollup.RollupService) RollupHandler {
	return &rollupHandlerImpl{rollupService: rollupService}
}

func rollupFilter(r *http.Request) rollup.RollupFilter {
	return rollup.RollupFilter{
		TechnicianID: queryPtr(r, "technician_id"),
		DepartmentID: queryPtr(r, "department_id"),
		StartDate:    r.URL.Query().Get("start_date"),
		EndDate:      r.URL.Query().Get("end_date"),
	}
}

// ListDaily implements RollupHandler.
func (h *rollupHandlerImpl) ListDaily(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	results, err := h.rollupService.ListDaily(r.Context(), claims.CompanyID, rollupFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ListWeekly implements RollupHandler.
func (h *rollupHandlerImpl) ListWeekly(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	results, err := h.rollupService.ListWeekly(r.Context(), claims.CompanyID, rollupFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ListShop implements RollupHandler. Without department_id the
// organization-wide rows are returned.
func (h *rollupHandlerImpl) ListShop(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	results, err := h.rollupService.ListShop(r.Context(), claims.CompanyID, rollupFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Recalculate implements RollupHandler. Runs synchronously and reports
// per-key failures in the summary instead of failing the request.
func (h *rollupHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req rollup.RecalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	scope, period, err := req.Validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	claims := middleware.Claims(r.Context())
	summary, err := h.rollupService.Recalculate(r.Context(), claims.CompanyID, scope, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if len(summary.Failed) > 0 {
		slog.Warn("Recalculation finished with failures",
			"company_id", claims.CompanyID, "level", scope.Level, "failed", len(summary.Failed), "succeeded", summary.Succeeded)
	}

	response.SuccessWithMessage(w, "Recalculation complete", summary)
}
