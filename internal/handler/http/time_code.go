package http

import (
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TimeCodeHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
}

type timeCodeHandlerImpl struct {
	timeCodeService timecode.TimeCodeService
}

func NewTimeCodeHandler(timeCodeService timecode.TimeCodeService) TimeCodeHandler {
	return &timeCodeHandlerImpl{timeCodeService: timeCodeService}
}

// Create implements TimeCodeHandler.
func (h *timeCodeHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req timecode.CreateTimeCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.timeCodeService.Create(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Time code created successfully", result)
}

// Get implements TimeCodeHandler.
func (h *timeCodeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.timeCodeService.Get(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements TimeCodeHandler.
func (h *timeCodeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	results, err := h.timeCodeService.List(r.Context(), claims.CompanyID, queryBool(r, "active_only", true))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Deactivate implements TimeCodeHandler.
func (h *timeCodeHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	if err := h.timeCodeService.Deactivate(r.Context(), claims.CompanyID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time code deactivated", nil)
}
