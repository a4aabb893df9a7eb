package testpackage

import (
	"context"
	"net/http"

	"gotestcase/internal/api/respond"
	"gotestcase/internal/domain"
	"gotestcase/internal/pkg/logger"
)

// PackageService define o contrato que o Handler espera da camada de Serviço.
type PackageService interface {
	CreatePackage(ctx context.Context, actorID, projectID string, in domain.NewPackage) (domain.TestPackage, error)
	GetPackage(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error)
	AddStep(ctx context.Context, actorID, projectID, packageID string, in domain.NewStep) (domain.Step, error)
	Submit(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error)
	SendToTest(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error)
	Approve(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error)
	Reject(ctx context.Context, actorID, projectID, packageID, reason string) (domain.TestPackage, error)
	Metrics(ctx context.Context, actorID, projectID, packageID string) (domain.PackageMetrics, error)
}

// Handler agrupa os handlers de pacote de teste.
type Handler struct {
	Service PackageService
	respond.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc PackageService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Responder: respond.New(log)}
}

// CreatePackageHandler lida com POST /v1/projects/{projectId}/packages.
// @Summary Cria um pacote de teste
// @Tags packages
// @Accept json
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param package body domain.NewPackage true "Título, descrição e release (YYYY-MM)"
// @Success 201 {object} domain.TestPackage
// @Failure 400 {object} domain.ErrorResponse
// @Router /projects/{projectId}/packages [post]
func (h *Handler) CreatePackageHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewPackage
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	pkg, err := h.Service.CreatePackage(r.Context(), actorID, r.PathValue("projectId"), in)
	h.Write(w, r, pkg, err, http.StatusCreated)
}

// GetPackageHandler lida com GET /v1/projects/{projectId}/packages/{packageId}.
func (h *Handler) GetPackageHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	pkg, err := h.Service.GetPackage(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("packageId"))
	h.Write(w, r, pkg, err, http.StatusOK)
}

// AddStepHandler lida com POST /v1/projects/{projectId}/packages/{packageId}/steps.
func (h *Handler) AddStepHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewStep
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	step, err := h.Service.AddStep(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("packageId"), in)
	h.Write(w, r, step, err, http.StatusCreated)
}

type transitionFunc func(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	pkg, err := fn(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("packageId"))
	h.Write(w, r, pkg, err, http.StatusOK)
}

// SubmitHandler lida com POST .../packages/{packageId}/submit (CREATED -> EM_TESTE).
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Submit)
}

// SendToTestHandler lida com POST .../packages/{packageId}/send-to-test (REPROVADO -> EM_TESTE).
func (h *Handler) SendToTestHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.SendToTest)
}

// ApproveHandler lida com POST .../packages/{packageId}/approve.
// @Summary Aprova um pacote em EM_TESTE
// @Description Exige ao menos um cenário e todos os cenários APPROVED. Apenas OWNER ou MANAGER.
// @Tags packages
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param packageId path string true "ID do pacote"
// @Success 200 {object} domain.TestPackage
// @Failure 400 {object} domain.ErrorResponse "Transição inválida ou pré-condição não atendida"
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Modificado concorrentemente"
// @Router /projects/{projectId}/packages/{packageId}/approve [post]
func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Approve)
}

// RejectHandler lida com POST .../packages/{packageId}/reject.
// @Summary Reprova um pacote em EM_TESTE
// @Tags packages
// @Accept json
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param packageId path string true "ID do pacote"
// @Param body body domain.RejectRequest true "Motivo obrigatório"
// @Success 200 {object} domain.TestPackage
// @Failure 400 {object} domain.ErrorResponse
// @Router /projects/{projectId}/packages/{packageId}/reject [post]
func (h *Handler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.RejectRequest
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	h.transition(w, r, func(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
		return h.Service.Reject(ctx, actorID, projectID, packageID, in.Reason)
	})
}

// MetricsHandler lida com GET .../packages/{packageId}/metrics.
// @Summary Métricas do pacote
// @Tags packages
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param packageId path string true "ID do pacote"
// @Success 200 {object} domain.PackageMetrics
// @Failure 404 {object} domain.ErrorResponse
// @Router /projects/{projectId}/packages/{packageId}/metrics [get]
func (h *Handler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	m, err := h.Service.Metrics(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("packageId"))
	h.Write(w, r, m, err, http.StatusOK)
}
