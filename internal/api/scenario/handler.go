package scenario

import (
	"context"
	"net/http"

	"gotestcase/internal/api/respond"
	"gotestcase/internal/domain"
	"gotestcase/internal/pkg/logger"
)

// ScenarioService define o contrato que o Handler espera da camada de Serviço.
type ScenarioService interface {
	CreateScenario(ctx context.Context, actorID, projectID, packageID string, in domain.NewScenario) (domain.TestScenario, error)
	GetScenario(ctx context.Context, actorID, projectID, scenarioID string) (domain.TestScenario, error)
	AddStep(ctx context.Context, actorID, projectID, scenarioID string, in domain.NewStep) (domain.Step, error)
	UpdateStepStatus(ctx context.Context, actorID, projectID, scenarioID, stepID string, status domain.StepStatus) (domain.TestScenario, error)
	Review(ctx context.Context, actorID, projectID, scenarioID string, target domain.ScenarioStatus, reason string) (domain.TestScenario, error)
	RecordExecution(ctx context.Context, actorID, projectID, scenarioID string, in domain.NewExecution) (domain.Execution, domain.TestScenario, error)
	RecordBug(ctx context.Context, actorID, projectID, scenarioID string, in domain.NewBug) (domain.Bug, domain.TestScenario, error)
	Report(ctx context.Context, actorID, projectID, scenarioID string) (domain.ScenarioReport, error)
}

// ExecutionResponse devolve a execução gravada e o cenário já atualizado.
type ExecutionResponse struct {
	Execution domain.Execution    `json:"execution"`
	Scenario  domain.TestScenario `json:"scenario"`
}

// BugResponse devolve o bug gravado e o cenário já atualizado.
type BugResponse struct {
	Bug      domain.Bug          `json:"bug"`
	Scenario domain.TestScenario `json:"scenario"`
}

// Handler agrupa os handlers de cenário.
type Handler struct {
	Service ScenarioService
	respond.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc ScenarioService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Responder: respond.New(log)}
}

// CreateScenarioHandler lida com POST /v1/projects/{projectId}/packages/{packageId}/scenarios.
// @Summary Cria um cenário em um pacote
// @Tags scenarios
// @Accept json
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param packageId path string true "ID do pacote"
// @Param scenario body domain.NewScenario true "Dados do cenário"
// @Success 201 {object} domain.TestScenario
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /projects/{projectId}/packages/{packageId}/scenarios [post]
func (h *Handler) CreateScenarioHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewScenario
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	sc, err := h.Service.CreateScenario(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("packageId"), in)
	h.Write(w, r, sc, err, http.StatusCreated)
}

// GetScenarioHandler lida com GET /v1/projects/{projectId}/scenarios/{scenarioId}.
func (h *Handler) GetScenarioHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	sc, err := h.Service.GetScenario(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"))
	h.Write(w, r, sc, err, http.StatusOK)
}

// AddStepHandler lida com POST .../scenarios/{scenarioId}/steps.
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
	step, err := h.Service.AddStep(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"), in)
	h.Write(w, r, step, err, http.StatusCreated)
}

// UpdateStepStatusHandler lida com PATCH .../scenarios/{scenarioId}/steps/{stepId}.
func (h *Handler) UpdateStepStatusHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.StepStatusUpdate
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	sc, err := h.Service.UpdateStepStatus(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"), r.PathValue("stepId"), in.Status)
	h.Write(w, r, sc, err, http.StatusOK)
}

// ReviewHandler lida com POST .../scenarios/{scenarioId}/review.
// @Summary Aprova ou reprova um cenário executado
// @Tags scenarios
// @Accept json
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param scenarioId path string true "ID do cenário"
// @Param review body domain.ReviewRequest true "APPROVED ou REJECTED (motivo obrigatório)"
// @Success 200 {object} domain.TestScenario
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /projects/{projectId}/scenarios/{scenarioId}/review [post]
func (h *Handler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.ReviewRequest
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	sc, err := h.Service.Review(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"), in.Status, in.Reason)
	h.Write(w, r, sc, err, http.StatusOK)
}

// RecordExecutionHandler lida com POST .../scenarios/{scenarioId}/executions.
func (h *Handler) RecordExecutionHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewExecution
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	exec, sc, err := h.Service.RecordExecution(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"), in)
	h.Write(w, r, ExecutionResponse{Execution: exec, Scenario: sc}, err, http.StatusCreated)
}

// RecordBugHandler lida com POST .../scenarios/{scenarioId}/bugs.
func (h *Handler) RecordBugHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewBug
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	bug, sc, err := h.Service.RecordBug(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"), in)
	h.Write(w, r, BugResponse{Bug: bug, Scenario: sc}, err, http.StatusCreated)
}

// ReportHandler lida com GET .../scenarios/{scenarioId}/report.
// Devolve os dados do ECT; a geração do PDF fica com quem consome o JSON.
func (h *Handler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	report, err := h.Service.Report(r.Context(), actorID, r.PathValue("projectId"), r.PathValue("scenarioId"))
	h.Write(w, r, report, err, http.StatusOK)
}
