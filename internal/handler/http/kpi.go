package http

import (
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type KPIHandler interface {
	CreateDefinition(w http.ResponseWriter, r *http.Request)
	UpdateDefinition(w http.ResponseWriter, r *http.Request)
	GetDefinition(w http.ResponseWriter, r *http.Request)
	ListDefinitions(w http.ResponseWriter, r *http.Request)
	Evaluate(w http.ResponseWriter, r *http.Request)
	EvaluateAll(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Trend(w http.ResponseWriter, r *http.Request)
}

type kpiHandlerImpl struct {
	kpiService kpi.KPIService
}

func NewKPIHandler(kpiService kpi.KPIService) KPIHandler {
	return &kpiHandlerImpl{kpiService: kpiService}
}

// CreateDefinition implements KPIHandler.
func (h *kpiHandlerImpl) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req kpi.CreateDefinitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.kpiService.CreateDefinition(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "KPI definition created", result)
}

// UpdateDefinition implements KPIHandler.
func (h *kpiHandlerImpl) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	var req kpi.UpdateDefinitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.kpiService.UpdateDefinition(r.Context(), claims.CompanyID, chi.URLParam(r, "code"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "KPI definition updated", result)
}

// GetDefinition implements KPIHandler.
func (h *kpiHandlerImpl) GetDefinition(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.kpiService.GetDefinition(r.Context(), claims.CompanyID, chi.URLParam(r, "code"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListDefinitions implements KPIHandler.
func (h *kpiHandlerImpl) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	results, err := h.kpiService.ListDefinitions(r.Context(), claims.CompanyID, queryBool(r, "active_only", false))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Evaluate implements KPIHandler.
func (h *kpiHandlerImpl) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req kpi.EvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	scope, period, err := req.Validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.kpiService.Evaluate(r.Context(), claims.CompanyID, req.Code, scope, period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "KPI evaluated", result)
}

// EvaluateAll implements KPIHandler. as_of defaults to today.
func (h *kpiHandlerImpl) EvaluateAll(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "as_of")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	claims := middleware.Claims(r.Context())
	summary, err := h.kpiService.EvaluateAll(r.Context(), claims.CompanyID, asOf)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "KPI evaluation complete", summary)
}

// History implements KPIHandler.
func (h *kpiHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	filter := kpi.HistoryFilter{
		Code:         queryPtr(r, "code"),
		ScopeType:    queryPtr(r, "scope_type"),
		ScopeID:      queryPtr(r, "scope_id"),
		StartDate:    queryPtr(r, "start_date"),
		EndDate:      queryPtr(r, "end_date"),
		AllRevisions: queryBool(r, "all_revisions", false),
		Limit:        queryInt(r, "limit", 0),
	}

	claims := middleware.Claims(r.Context())
	results, err := h.kpiService.History(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Trend implements KPIHandler.
func (h *kpiHandlerImpl) Trend(w http.ResponseWriter, r *http.Request) {
	scope, err := kpi.ParseScope(r.URL.Query().Get("scope_type"), r.URL.Query().Get("scope_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.kpiService.Trend(r.Context(), claims.CompanyID, chi.URLParam(r, "code"), scope)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
