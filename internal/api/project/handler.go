package project

import (
	"context"
	"net/http"

	"gotestcase/internal/api/respond"
	"gotestcase/internal/domain"
	"gotestcase/internal/pkg/logger"
)

// ProjectService define o contrato que o Handler espera da camada de Serviço.
type ProjectService interface {
	CreateProject(ctx context.Context, actorID string, in domain.NewProject) (domain.Project, error)
	GetProject(ctx context.Context, actorID, projectID string) (domain.Project, error)
	AddMember(ctx context.Context, actorID, projectID string, in domain.NewMember) (domain.Membership, error)
}

// Handler agrupa os handlers de projeto.
type Handler struct {
	Service ProjectService
	respond.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc ProjectService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Responder: respond.New(log)}
}

// CreateProjectHandler lida com POST /v1/projects.
// @Summary Cria um projeto
// @Description O usuário autenticado se torna OWNER do projeto.
// @Tags projects
// @Accept json
// @Produce json
// @Param project body domain.NewProject true "Dados do projeto"
// @Success 201 {object} domain.Project
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Nome já usado pelo mesmo dono"
// @Router /projects [post]
func (h *Handler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewProject
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	p, err := h.Service.CreateProject(r.Context(), actorID, in)
	h.Write(w, r, p, err, http.StatusCreated)
}

// GetProjectHandler lida com GET /v1/projects/{projectId}.
// @Summary Busca um projeto
// @Tags projects
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Success 200 {object} domain.Project
// @Failure 404 {object} domain.ErrorResponse
// @Router /projects/{projectId} [get]
func (h *Handler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	p, err := h.Service.GetProject(r.Context(), actorID, r.PathValue("projectId"))
	h.Write(w, r, p, err, http.StatusOK)
}

// AddMemberHandler lida com POST /v1/projects/{projectId}/members.
// @Summary Adiciona ou altera um membro
// @Tags projects
// @Accept json
// @Produce json
// @Param projectId path string true "ID do projeto"
// @Param member body domain.NewMember true "Usuário e papel"
// @Success 201 {object} domain.Membership
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /projects/{projectId}/members [post]
func (h *Handler) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var in domain.NewMember
	if err := respond.Decode(r, &in); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	m, err := h.Service.AddMember(r.Context(), actorID, r.PathValue("projectId"), in)
	h.Write(w, r, m, err, http.StatusCreated)
}
