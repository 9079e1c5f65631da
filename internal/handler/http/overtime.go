package http

import (
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/overtime"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type OvertimeHandler interface {
	Authorize(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type overtimeHandlerImpl struct {
	overtimeService overtime.OvertimeService
}

func NewOvertimeHandler(overtimeService overtime.OvertimeService) OvertimeHandler {
	return &overtimeHandlerImpl{overtimeService: overtimeService}
}

// Authorize implements OvertimeHandler.
func (h *overtimeHandlerImpl) Authorize(w http.ResponseWriter, r *http.Request) {
	var req overtime.AuthorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.overtimeService.Authorize(r.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Overtime authorized", result)
}

// Get implements OvertimeHandler.
func (h *overtimeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.overtimeService.Get(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements OvertimeHandler.
func (h *overtimeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := overtime.AuthorizationFilter{
		TechnicianID: queryPtr(r, "technician_id"),
		Status:       queryPtr(r, "status"),
		Date:         queryPtr(r, "date"),
	}

	claims := middleware.Claims(r.Context())
	results, err := h.overtimeService.List(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Cancel implements OvertimeHandler.
func (h *overtimeHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	result, err := h.overtimeService.Cancel(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime authorization cancelled", result)
}
