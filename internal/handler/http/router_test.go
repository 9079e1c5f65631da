package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/timecode"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/lock"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerTestSecret = "test-secret-key-for-jwt"

type fakeTimeCodeService struct {
	err       error
	companyID string
}

func (f *fakeTimeCodeService) Create(ctx context.Context, companyID string, req timecode.CreateTimeCodeRequest) (timecode.TimeCodeResponse, error) {
	f.companyID = companyID
	if f.err != nil {
		return timecode.TimeCodeResponse{}, f.err
	}
	return timecode.TimeCodeResponse{Code: req.Code}, nil
}

func (f *fakeTimeCodeService) Get(ctx context.Context, companyID string, id string) (timecode.TimeCodeResponse, error) {
	f.companyID = companyID
	if f.err != nil {
		return timecode.TimeCodeResponse{}, f.err
	}
	return timecode.TimeCodeResponse{ID: id}, nil
}

func (f *fakeTimeCodeService) List(ctx context.Context, companyID string, activeOnly bool) ([]timecode.TimeCodeResponse, error) {
	f.companyID = companyID
	return []timecode.TimeCodeResponse{}, f.err
}

func (f *fakeTimeCodeService) Deactivate(ctx context.Context, companyID string, id string) error {
	f.companyID = companyID
	return f.err
}

func newTestRouter(t *testing.T, timeCodes timecode.TimeCodeService) (http.Handler, jwt.Service) {
	t.Helper()
	jwtService, err := jwt.NewJWTService(routerTestSecret, "1h")
	require.NoError(t, err)

	handlers := Handlers{
		TimeCode:    NewTimeCodeHandler(timeCodes),
		TimeEntry:   NewTimeEntryHandler(nil),
		LaborPolicy: NewLaborPolicyHandler(nil),
		Overtime:    NewOvertimeHandler(nil),
		Rollup:      NewRollupHandler(nil),
		KPI:         NewKPIHandler(nil),
		Scorecard:   NewScorecardHandler(nil),
		Report:      NewReportHandler(nil),
	}
	return NewRouter(jwtService, handlers, RouterOptions{CORSOrigins: []string{"*"}, Env: "test"}), jwtService
}

func bearer(t *testing.T, svc jwt.Service, claims jwt.Claims) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(claims)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Authentication(t *testing.T) {
	fake := &fakeTimeCodeService{}
	router, jwtService := newTestRouter(t, fake)

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/api/v1/time-codes", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, err := jwt.NewJWTService("another-secret", "1h")
		require.NoError(t, err)
		auth := bearer(t, other, jwt.Claims{UserID: "u1", CompanyID: "c1", Role: jwt.RoleAdmin})

		rec := doRequest(router, http.MethodGet, "/api/v1/time-codes", auth, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without company", func(t *testing.T) {
		auth := bearer(t, jwtService, jwt.Claims{UserID: "u1", Role: jwt.RoleAdmin})

		rec := doRequest(router, http.MethodGet, "/api/v1/time-codes", auth, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tenant is passed to the service", func(t *testing.T) {
		auth := bearer(t, jwtService, jwt.Claims{UserID: "u1", CompanyID: "company-a", Role: jwt.RoleTechnician})

		rec := doRequest(router, http.MethodGet, "/api/v1/time-codes", auth, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "company-a", fake.companyID)
	})
}

func TestRouter_RoleGates(t *testing.T) {
	router, jwtService := newTestRouter(t, &fakeTimeCodeService{})
	body := map[string]interface{}{"code": "DIAG", "name": "Diagnostics", "category": "direct_labor"}

	tests := []struct {
		name string
		role jwt.Role
		want int
	}{
		{"technician", jwt.RoleTechnician, http.StatusForbidden},
		{"supervisor", jwt.RoleSupervisor, http.StatusForbidden},
		{"admin", jwt.RoleAdmin, http.StatusCreated},
		{"service", jwt.RoleService, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := bearer(t, jwtService, jwt.Claims{UserID: "u1", CompanyID: "c1", Role: tt.role})
			rec := doRequest(router, http.MethodPost, "/api/v1/time-codes", auth, body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", timecode.ErrTimeCodeNotFound, http.StatusNotFound},
		{"validation", validator.ValidationErrors{{Field: "code", Message: "code is required"}}, http.StatusUnprocessableEntity},
		{"lock contention", lock.ErrLockNotAcquired, http.StatusServiceUnavailable},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, jwtService := newTestRouter(t, &fakeTimeCodeService{err: tt.err})
			auth := bearer(t, jwtService, jwt.Claims{UserID: "u1", CompanyID: "c1", Role: jwt.RoleTechnician})

			rec := doRequest(router, http.MethodGet, "/api/v1/time-codes/abc", auth, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_ConflictOnDuplicateCode(t *testing.T) {
	router, jwtService := newTestRouter(t, &fakeTimeCodeService{err: timecode.ErrTimeCodeCodeExists})
	auth := bearer(t, jwtService, jwt.Claims{UserID: "u1", CompanyID: "c1", Role: jwt.RoleAdmin})

	rec := doRequest(router, http.MethodPost, "/api/v1/time-codes", auth, map[string]interface{}{"code": "DIAG"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_InvalidJSON(t *testing.T) {
	router, jwtService := newTestRouter(t, &fakeTimeCodeService{})
	auth := bearer(t, jwtService, jwt.Claims{UserID: "u1", CompanyID: "c1", Role: jwt.RoleAdmin})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/time-codes", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
