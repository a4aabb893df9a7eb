package projectservice

import (
	"context"
	"strings"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/lifecycle"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/service/access"
)

// ProjectRepository define o contrato de persistência de projetos.
type ProjectRepository interface {
	Save(ctx context.Context, p domain.Project) (domain.Project, error)
	FindByID(ctx context.Context, id string) (domain.Project, error)
	RoleOf(ctx context.Context, userID, projectID string) (domain.Role, bool, error)
	AddMember(ctx context.Context, m domain.Membership) (domain.Membership, error)
}

// UserFinder confirma que o usuário a ser adicionado existe.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// Service implementa os casos de uso de projetos e membros.
type Service struct {
	repo   ProjectRepository
	users  UserFinder
	policy lifecycle.Policy
	logger logger.Logger
}

// NewService cria o serviço.
func NewService(repo ProjectRepository, users UserFinder, policy lifecycle.Policy, log logger.Logger) *Service {
	return &Service{repo: repo, users: users, policy: policy, logger: log}
}

// CreateProject cria um projeto cujo OWNER é o ator.
func (s *Service) CreateProject(ctx context.Context, actorID string, in domain.NewProject) (domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Project{}, apperror.NewValidationError("O nome do projeto é obrigatório.")
	}

	p, err := s.repo.Save(ctx, domain.Project{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     actorID,
	})
	if err != nil {
		return domain.Project{}, access.Wrap(s.logger, "Falha ao criar projeto", err)
	}
	return p, nil
}

// GetProject devolve o projeto se o ator for membro.
func (s *Service) GetProject(ctx context.Context, actorID, projectID string) (domain.Project, error) {
	if _, err := access.ResolveRole(ctx, s.repo, actorID, projectID); err != nil {
		return domain.Project{}, access.Wrap(s.logger, "Falha ao buscar projeto", err)
	}
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, access.Wrap(s.logger, "Falha ao buscar projeto", err)
	}
	return p, nil
}

// AddMember adiciona (ou muda o papel de) um membro. OWNER não é atribuível:
// ele vem sempre do dono do projeto.
func (s *Service) AddMember(ctx context.Context, actorID, projectID string, in domain.NewMember) (domain.Membership, error) {
	role, err := access.ResolveRole(ctx, s.repo, actorID, projectID)
	if err != nil {
		return domain.Membership{}, access.Wrap(s.logger, "Falha ao adicionar membro", err)
	}
	if !in.Role.Valid() || in.Role == domain.RoleOwner {
		return domain.Membership{}, apperror.NewValidationError("Papel inválido; use MANAGER, TESTER, APPROVER ou VIEWER.")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return domain.Membership{}, apperror.NewValidationError("O usuário é obrigatório.")
	}
	if !s.policy.Allows(role, lifecycle.ActionManageMembers) {
		return domain.Membership{}, apperror.NewForbiddenError("apenas o OWNER ou um MANAGER pode gerenciar membros.")
	}

	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return domain.Membership{}, access.Wrap(s.logger, "Falha ao adicionar membro", err)
	}
	if p.OwnerID == in.UserID {
		return domain.Membership{}, apperror.NewValidationError("O dono do projeto já é OWNER.")
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return domain.Membership{}, access.Wrap(s.logger, "Falha ao adicionar membro", err)
	}

	m, err := s.repo.AddMember(ctx, domain.Membership{ProjectID: projectID, UserID: in.UserID, Role: in.Role})
	if err != nil {
		return domain.Membership{}, access.Wrap(s.logger, "Falha ao adicionar membro", err)
	}
	return m, nil
}
