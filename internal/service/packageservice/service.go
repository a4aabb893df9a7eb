package packageservice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/lifecycle"
	"gotestcase/internal/metrics"
	"gotestcase/internal/pkg/cache"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/service/access"
)

// PackageRepository define o contrato que este serviço espera da persistência.
type PackageRepository interface {
	Save(ctx context.Context, pkg domain.TestPackage) (domain.TestPackage, error)
	FindPackage(ctx context.Context, projectID, packageID string) (domain.TestPackage, error)
	SaveStatus(ctx context.Context, t lifecycle.PackageTransition, expectedVersion int) error
	AddStep(ctx context.Context, packageID string, step domain.Step) (domain.Step, error)
}

// Service implementa os casos de uso de pacotes de teste.
type Service struct {
	repo     PackageRepository
	roles    access.RoleReader
	guard    *lifecycle.PackageGuard
	cache    cache.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewService cria o serviço. cache pode ser nil; nesse caso as métricas são
// sempre recalculadas.
func NewService(repo PackageRepository, roles access.RoleReader, guard *lifecycle.PackageGuard, c cache.Client, cacheTTL time.Duration, log logger.Logger) *Service {
	return &Service{repo: repo, roles: roles, guard: guard, cache: c, cacheTTL: cacheTTL, logger: log}
}

// CreatePackage cria um pacote em CREATED. Release deve estar no formato YYYY-MM.
func (s *Service) CreatePackage(ctx context.Context, actorID, projectID string, in domain.NewPackage) (domain.TestPackage, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestPackage{}, access.Wrap(s.logger, "Falha ao criar pacote", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.TestPackage{}, apperror.NewValidationError("O título do pacote é obrigatório.")
	}
	release := strings.TrimSpace(in.Release)
	if !domain.ValidRelease(release) {
		return domain.TestPackage{}, apperror.NewValidationError("A release deve estar no formato YYYY-MM.")
	}
	if err := s.guard.Authorize(role, lifecycle.ActionManagePackage); err != nil {
		return domain.TestPackage{}, err
	}

	pkg, err := s.repo.Save(ctx, domain.TestPackage{
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Release:     release,
	})
	if err != nil {
		return domain.TestPackage{}, access.Wrap(s.logger, "Falha ao criar pacote", err)
	}
	return pkg, nil
}

// GetPackage devolve o pacote com passos e cenários.
func (s *Service) GetPackage(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestPackage{}, access.Wrap(s.logger, "Falha ao buscar pacote", err)
	}
	if err := s.guard.Authorize(role, lifecycle.ActionViewProject); err != nil {
		return domain.TestPackage{}, err
	}
	pkg, err := s.load(ctx, projectID, packageID)
	if err != nil {
		return domain.TestPackage{}, err
	}
	return pkg, nil
}

// AddStep acrescenta um passo ao pacote.
func (s *Service) AddStep(ctx context.Context, actorID, projectID, packageID string, in domain.NewStep) (domain.Step, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.Step{}, access.Wrap(s.logger, "Falha ao adicionar passo", err)
	}
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return domain.Step{}, apperror.NewValidationError("A ação do passo é obrigatória.")
	}
	if err := s.guard.Authorize(role, lifecycle.ActionManagePackage); err != nil {
		return domain.Step{}, err
	}
	if _, err := s.load(ctx, projectID, packageID); err != nil {
		return domain.Step{}, err
	}

	step, err := s.repo.AddStep(ctx, packageID, domain.Step{
		Action:   action,
		Expected: strings.TrimSpace(in.Expected),
		Status:   domain.StepPending,
	})
	if err != nil {
		return domain.Step{}, access.Wrap(s.logger, "Falha ao adicionar passo", err)
	}
	s.invalidateMetrics(ctx, projectID, packageID)
	return step, nil
}

// Submit envia um pacote recém-criado para teste (CREATED -> EM_TESTE).
func (s *Service) Submit(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	return s.transition(ctx, actorID, projectID, packageID, "Falha ao enviar pacote para teste",
		func(pkg domain.TestPackage, role domain.Role) (lifecycle.PackageTransition, error) {
			return s.guard.Submit(pkg, role)
		})
}

// SendToTest reenvia um pacote reprovado para teste (REPROVADO -> EM_TESTE).
func (s *Service) SendToTest(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	return s.transition(ctx, actorID, projectID, packageID, "Falha ao reenviar pacote para teste",
		func(pkg domain.TestPackage, role domain.Role) (lifecycle.PackageTransition, error) {
			return s.guard.SendToTest(pkg, role)
		})
}

// Approve aprova o pacote. Todos os cenários precisam estar APPROVED.
func (s *Service) Approve(ctx context.Context, actorID, projectID, packageID string) (domain.TestPackage, error) {
	return s.transition(ctx, actorID, projectID, packageID, "Falha ao aprovar pacote",
		func(pkg domain.TestPackage, role domain.Role) (lifecycle.PackageTransition, error) {
			return s.guard.Approve(pkg, actorID, role)
		})
}

// Reject reprova o pacote com um motivo obrigatório.
func (s *Service) Reject(ctx context.Context, actorID, projectID, packageID, reason string) (domain.TestPackage, error) {
	return s.transition(ctx, actorID, projectID, packageID, "Falha ao reprovar pacote",
		func(pkg domain.TestPackage, role domain.Role) (lifecycle.PackageTransition, error) {
			return s.guard.Reject(pkg, reason, role)
		})
}

type decideFunc func(pkg domain.TestPackage, role domain.Role) (lifecycle.PackageTransition, error)

// transition carrega o estado atual, pede a decisão ao guard e grava com OCC
// contra a versão lida. Uma segunda tentativa concorrente recebe Conflict.
func (s *Service) transition(ctx context.Context, actorID, projectID, packageID, failMsg string, decide decideFunc) (domain.TestPackage, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestPackage{}, access.Wrap(s.logger, failMsg, err)
	}
	pkg, err := s.load(ctx, projectID, packageID)
	if err != nil {
		return domain.TestPackage{}, err
	}

	t, err := decide(pkg, role)
	if err != nil {
		s.logger.Debug("Transição de pacote recusada.", map[string]interface{}{
			"package_id": packageID, "status": pkg.Status, "role": role, "error": err.Error(),
		})
		return domain.TestPackage{}, err
	}

	if err := s.repo.SaveStatus(ctx, t, pkg.Version); err != nil {
		return domain.TestPackage{}, access.Wrap(s.logger, failMsg, err)
	}
	s.invalidateMetrics(ctx, projectID, packageID)

	pkg.Status = t.To
	pkg.Version++
	if t.ApprovedByID != nil {
		pkg.ApprovedByID = t.ApprovedByID
		pkg.ApprovedAt = t.ApprovedAt
	}
	if t.RejectionReason != nil {
		pkg.RejectionReason = t.RejectionReason
	}

	s.logger.Info("Transição de pacote aplicada.", map[string]interface{}{
		"package_id": packageID, "from": t.From, "to": t.To, "actor_id": actorID,
	})
	return pkg, nil
}

// Metrics devolve as métricas do pacote, usando o cache quando disponível.
func (s *Service) Metrics(ctx context.Context, actorID, projectID, packageID string) (domain.PackageMetrics, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.PackageMetrics{}, access.Wrap(s.logger, "Falha ao calcular métricas", err)
	}
	if err := s.guard.Authorize(role, lifecycle.ActionViewProject); err != nil {
		return domain.PackageMetrics{}, err
	}

	if cached, ok := s.cachedMetrics(ctx, projectID, packageID); ok {
		return cached, nil
	}

	pkg, err := s.load(ctx, projectID, packageID)
	if err != nil {
		return domain.PackageMetrics{}, err
	}
	if err := lifecycle.AssertScenariosBelong(pkg); err != nil {
		return domain.PackageMetrics{}, err
	}

	m := metrics.Aggregate(domain.SnapshotOf(pkg))
	s.storeMetrics(ctx, projectID, packageID, m)
	return m, nil
}

func (s *Service) load(ctx context.Context, projectID, packageID string) (domain.TestPackage, error) {
	pkg, err := s.repo.FindPackage(ctx, projectID, packageID)
	if err != nil {
		return domain.TestPackage{}, access.Wrap(s.logger, "Falha ao carregar pacote", err)
	}
	return pkg, nil
}

// Falhas de cache nunca quebram a requisição: só são registradas.

func (s *Service) cachedMetrics(ctx context.Context, projectID, packageID string) (domain.PackageMetrics, bool) {
	if s.cache == nil {
		return domain.PackageMetrics{}, false
	}
	raw, err := s.cache.Get(ctx, metrics.CacheKey(projectID, packageID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Falha ao ler métricas do cache.", map[string]interface{}{"package_id": packageID, "error": err.Error()})
		}
		return domain.PackageMetrics{}, false
	}
	var m domain.PackageMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		s.logger.Warn("Métricas em cache corrompidas.", map[string]interface{}{"package_id": packageID})
		return domain.PackageMetrics{}, false
	}
	s.logger.Debug("Métricas servidas do cache.", map[string]interface{}{"package_id": packageID})
	return m, true
}

func (s *Service) storeMetrics(ctx context.Context, projectID, packageID string, m domain.PackageMetrics) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, metrics.CacheKey(projectID, packageID), string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("Falha ao gravar métricas no cache.", map[string]interface{}{"package_id": packageID, "error": err.Error()})
	}
}

func (s *Service) invalidateMetrics(ctx context.Context, projectID, packageID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, metrics.CacheKey(projectID, packageID)); err != nil {
		s.logger.Warn("Falha ao invalidar métricas no cache.", map[string]interface{}{"package_id": packageID, "error": err.Error()})
	}
}
