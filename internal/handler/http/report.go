package http

import (
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/report"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	// Labor summary per technician over a date range
	LaborSummary(w http.ResponseWriter, r *http.Request)

	// Daily breakdown for one technician's week
	TechnicianWeek(w http.ResponseWriter, r *http.Request)

	// Shop utilization trend
	ShopTrend(w http.ResponseWriter, r *http.Request)

	// Spreadsheet export of the labor summary
	ExportLabor(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

func rangeRequest(r *http.Request) report.RangeRequest {
	return report.RangeRequest{
		StartDate:    r.URL.Query().Get("start_date"),
		EndDate:      r.URL.Query().Get("end_date"),
		DepartmentID: queryPtr(r, "department_id"),
	}
}

// LaborSummary handles GET /reports/labor
func (h *reportHandlerImpl) LaborSummary(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.reportService.LaborSummary(r.Context(), claims.CompanyID, rangeRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// TechnicianWeek handles GET /reports/technicians/{id}/week
func (h *reportHandlerImpl) TechnicianWeek(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.reportService.TechnicianWeek(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ShopTrend handles GET /reports/shop-trend
func (h *reportHandlerImpl) ShopTrend(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.reportService.ShopTrend(r.Context(), claims.CompanyID, rangeRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportLabor handles POST /reports/labor/export
func (h *reportHandlerImpl) ExportLabor(w http.ResponseWriter, r *http.Request) {
	var req report.RangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.reportService.ExportLabor(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Labor export generated", result)
}
