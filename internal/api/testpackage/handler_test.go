package testpackage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gotestcase/internal/api/testpackage"
	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/pkg/middleware"
)

type MockPackageService struct {
	mock.Mock
}

func (m *MockPackageService) CreatePackage(ctx context.Context, actorID, projectID string, in domain.NewPackage) (domain.TestPackage, error) {
	args := m.Called(ctx, actorID, projectID, in)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageService) GetPackage(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	args := m.Called(ctx, actorID, projectID, packageID)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageService) AddStep(ctx context.Context, actorID, projectID, packageID string, in domain.NewStep) (domain.Step, error) {
	args := m.Called(ctx, actorID, projectID, packageID, in)
	return args.Get(0).(domain.Step), args.Error(1)
}

func (m *MockPackageService) Submit(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	args := m.Called(ctx, actorID, projectID, packageID)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageService) SendToTest(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	args := m.Called(ctx, actorID, projectID, packageID)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageService) Approve(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	args := m.Called(ctx, actorID, projectID, packageID)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageService) Reject(ctx context.Context, actorID, projectID, packageID, reason string) (domain.TestPackage, error) {
	args := m.Called(ctx, actorID, projectID, packageID, reason)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageService) Metrics(ctx context.Context, actorID, projectID, packageID string) (domain.PackageMetrics, error) {
	args := m.Called(ctx, actorID, projectID, packageID)
	return args.Get(0).(domain.PackageMetrics), args.Error(1)
}

// serve monta um mux mínimo para que r.PathValue funcione como no roteador real.
func serve(h *testpackage.Handler, pattern string, fn http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, fn)
	if userID != "" {
		req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRejectHandler(t *testing.T) {
	const pattern = "POST /v1/projects/{projectId}/packages/{packageId}/reject"

	t.Run("Sucesso repassa motivo e IDs do path", func(t *testing.T) {
		svc := new(MockPackageService)
		h := testpackage.NewHandler(svc, logger.NewNop())
		reason := "Falhas na tela de login"
		svc.On("Reject", mock.Anything, "user-1", "p1", "pkg1", reason).
			Return(domain.TestPackage{ID: "pkg1", Status: domain.PackageReprovado, RejectionReason: &reason}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/v1/projects/p1/packages/pkg1/reject", strings.NewReader(`{"reason":"Falhas na tela de login"}`))
		rec := serve(h, pattern, h.RejectHandler, req, "user-1")

		assert.Equal(t, http.StatusOK, rec.Code)
		var got domain.TestPackage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, domain.PackageReprovado, got.Status)
		svc.AssertExpectations(t)
	})

	t.Run("JSON malformado vira 400 sem chamar o serviço", func(t *testing.T) {
		svc := new(MockPackageService)
		h := testpackage.NewHandler(svc, logger.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/v1/projects/p1/packages/pkg1/reject", strings.NewReader(`{"reason":`))
		rec := serve(h, pattern, h.RejectHandler, req, "user-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body domain.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "VALIDATION_ERROR", body.Category)
		svc.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Sem claims devolve 401", func(t *testing.T) {
		svc := new(MockPackageService)
		h := testpackage.NewHandler(svc, logger.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/v1/projects/p1/packages/pkg1/reject", strings.NewReader(`{"reason":"x"}`))
		rec := serve(h, pattern, h.RejectHandler, req, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestApproveHandler_MapsServiceErrors(t *testing.T) {
	const pattern = "POST /v1/projects/{projectId}/packages/{packageId}/approve"

	cases := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"Pré-condição", apperror.NewPreconditionFailedError("Todos os cenários precisam estar aprovados."), http.StatusBadRequest, "PRECONDITION_FAILED"},
		{"Transição inválida", apperror.NewInvalidTransitionError("Pacote não está em teste."), http.StatusBadRequest, "INVALID_TRANSITION"},
		{"Papel sem permissão", apperror.NewForbiddenError("Sem permissão."), http.StatusForbidden, "FORBIDDEN"},
		{"Concorrência", apperror.NewConflictError("Pacote modificado concorrentemente."), http.StatusConflict, "CONFLICT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockPackageService)
			h := testpackage.NewHandler(svc, logger.NewNop())
			svc.On("Approve", mock.Anything, "user-1", "p1", "pkg1").Return(domain.TestPackage{}, tc.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/v1/projects/p1/packages/pkg1/approve", nil)
			rec := serve(h, pattern, h.ApproveHandler, req, "user-1")

			assert.Equal(t, tc.status, rec.Code)
			var body domain.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.category, body.Category)
			assert.Equal(t, tc.status, body.Code)
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	svc := new(MockPackageService)
	h := testpackage.NewHandler(svc, logger.NewNop())
	svc.On("Metrics", mock.Anything, "user-1", "p1", "pkg1").Return(domain.PackageMetrics{
		Package:   domain.PackageInfo{ID: "pkg1", Title: "Release 7"},
		Scenarios: domain.ScenarioMetrics{Total: 3, ExecutionRate: 100, SuccessRate: 33.33},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/v1/projects/p1/packages/pkg1/metrics", nil)
	rec := serve(h, "GET /v1/projects/{projectId}/packages/{packageId}/metrics", h.MetricsHandler, req, "user-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"successRate":33.33`)
	svc.AssertExpectations(t)
}
