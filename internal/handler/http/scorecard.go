package http

import (
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/scorecard"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScorecardHandler interface {
	Build(w http.ResponseWriter, r *http.Request)
	Rebuild(w http.ResponseWriter, r *http.Request)
	Publish(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type scorecardHandlerImpl struct {
	scorecardService scorecard.ScorecardService
}

func NewScorecardHandler(scorecardService scorecard.ScorecardService) ScorecardHandler {
	return &scorecardHandlerImpl{scorecardService: scorecardService}
}

// Build implements ScorecardHandler.
func (h *scorecardHandlerImpl) Build(w http.ResponseWriter, r *http.Request) {
	var req scorecard.BuildScorecardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.scorecardService.Build(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Scorecard built", result)
}

// Rebuild implements ScorecardHandler.
func (h *scorecardHandlerImpl) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req scorecard.RebuildScorecardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.scorecardService.Rebuild(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Scorecard rebuilt", result)
}

// Publish implements ScorecardHandler.
func (h *scorecardHandlerImpl) Publish(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.scorecardService.Publish(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Scorecard published", result)
}

// Get implements ScorecardHandler.
func (h *scorecardHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.scorecardService.Get(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements ScorecardHandler.
func (h *scorecardHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := scorecard.ScorecardFilter{
		Name:      queryPtr(r, "name"),
		ScopeType: queryPtr(r, "scope_type"),
		ScopeID:   queryPtr(r, "scope_id"),
		Status:    queryPtr(r, "status"),
		StartDate: queryPtr(r, "start_date"),
		EndDate:   queryPtr(r, "end_date"),
	}

	claims := middleware.Claims(r.Context())
	results, err := h.scorecardService.List(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
