package http

import (
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/laborpolicy"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
)

type LaborPolicyHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type laborPolicyHandlerImpl struct {
	laborPolicyService laborpolicy.LaborPolicyService
}

func NewLaborPolicyHandler(laborPolicyService laborpolicy.LaborPolicyService) LaborPolicyHandler {
	return &laborPolicyHandlerImpl{laborPolicyService: laborPolicyService}
}

// Get implements LaborPolicyHandler.
func (h *laborPolicyHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	policy, err := h.laborPolicyService.Get(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, laborpolicy.LaborPolicyResponse{
		CompanyID:                   policy.CompanyID,
		DailyOvertimeThresholdHours: policy.DailyOvertimeThresholdHours,
		IsDefault:                   policy.IsDefault,
	})
}

// Update implements LaborPolicyHandler.
func (h *laborPolicyHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req laborpolicy.UpdateLaborPolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.Claims(r.Context())
	result, err := h.laborPolicyService.Update(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Labor policy updated", result)
}
