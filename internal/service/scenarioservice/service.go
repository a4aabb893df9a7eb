package scenarioservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/lifecycle"
	"gotestcase/internal/metrics"
	"gotestcase/internal/pkg/cache"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/service/access"
)

// ScenarioRepository define o contrato de persistência de cenários. Os métodos
// que recebem uma transição gravam o status do cenário na mesma transação, com
// OCC contra expectedVersion.
type ScenarioRepository interface {
	Save(ctx context.Context, sc domain.TestScenario) (domain.TestScenario, error)
	FindByID(ctx context.Context, scenarioID string) (domain.TestScenario, error)
	SaveStatus(ctx context.Context, t lifecycle.ScenarioTransition, expectedVersion int) error
	AddStep(ctx context.Context, step domain.Step, t lifecycle.ScenarioTransition, expectedVersion int) (domain.Step, error)
	UpdateStepStatus(ctx context.Context, scenarioID, stepID string, status domain.StepStatus, t lifecycle.ScenarioTransition, expectedVersion int) error
	RecordExecution(ctx context.Context, exec domain.Execution, t lifecycle.ScenarioTransition, expectedVersion int) (domain.Execution, error)
	RecordBug(ctx context.Context, bug domain.Bug, t lifecycle.ScenarioTransition, expectedVersion int) (domain.Bug, error)
	HasExecutions(ctx context.Context, scenarioID string) (bool, error)
	LatestExecution(ctx context.Context, scenarioID string) (*domain.Execution, error)
}

// PackageReader é usado para validar o pacote pai ao criar cenários.
type PackageReader interface {
	FindPackage(ctx context.Context, projectID, packageID string) (domain.TestPackage, error)
}

// Service implementa os casos de uso de cenários.
type Service struct {
	repo     ScenarioRepository
	packages PackageReader
	roles    access.RoleReader
	guard    *lifecycle.ScenarioGuard
	cache    cache.Client
	logger   logger.Logger
	now      func() time.Time
}

// NewService cria o serviço. cache pode ser nil.
func NewService(repo ScenarioRepository, packages PackageReader, roles access.RoleReader, guard *lifecycle.ScenarioGuard, c cache.Client, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		packages: packages,
		roles:    roles,
		guard:    guard,
		cache:    c,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateScenario cria um cenário em CREATED. O projectId é sempre copiado do
// pacote pai, nunca do payload.
func (s *Service) CreateScenario(ctx context.Context, actorID, projectID, packageID string, in domain.NewScenario) (domain.TestScenario, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao criar cenário", err)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.TestScenario{}, apperror.NewValidationError("O título do cenário é obrigatório.")
	}
	if err := s.guard.Authorize(role, lifecycle.ActionEditScenario); err != nil {
		return domain.TestScenario{}, err
	}

	pkg, err := s.packages.FindPackage(ctx, projectID, packageID)
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao criar cenário", err)
	}
	if err := lifecycle.AssertPackageOpen(pkg.Status); err != nil {
		return domain.TestScenario{}, err
	}

	var env *string
	if in.Environment != nil {
		if e := strings.TrimSpace(*in.Environment); e != "" {
			env = &e
		}
	}
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	sc, err := s.repo.Save(ctx, domain.TestScenario{
		PackageID:   pkg.ID,
		ProjectID:   pkg.ProjectID,
		Title:       title,
		Type:        strings.TrimSpace(in.Type),
		Priority:    strings.TrimSpace(in.Priority),
		Environment: env,
		Tags:        tags,
	})
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao criar cenário", err)
	}
	s.invalidateMetrics(ctx, sc)
	return sc, nil
}

// GetScenario devolve o cenário com seus passos.
func (s *Service) GetScenario(ctx context.Context, actorID, projectID, scenarioID string) (domain.TestScenario, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao buscar cenário", err)
	}
	if err := s.guard.Authorize(role, lifecycle.ActionViewProject); err != nil {
		return domain.TestScenario{}, err
	}
	return s.load(ctx, projectID, scenarioID)
}

// AddStep acrescenta um passo PENDING. Se o cenário estava BLOCKED, o novo
// passo o desbloqueia.
func (s *Service) AddStep(ctx context.Context, actorID, projectID, scenarioID string, in domain.NewStep) (domain.Step, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.Step{}, access.Wrap(s.logger, "Falha ao adicionar passo", err)
	}
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return domain.Step{}, apperror.NewValidationError("A ação do passo é obrigatória.")
	}
	if err := s.guard.Authorize(role, lifecycle.ActionEditScenario); err != nil {
		return domain.Step{}, err
	}
	sc, err := s.load(ctx, projectID, scenarioID)
	if err != nil {
		return domain.Step{}, err
	}

	step := domain.Step{
		ParentID: sc.ID,
		Action:   action,
		Expected: strings.TrimSpace(in.Expected),
		Status:   domain.StepPending,
	}
	next := sc
	next.Steps = append(append([]domain.Step{}, sc.Steps...), step)
	t, err := s.deriveFromSteps(ctx, next)
	if err != nil {
		return domain.Step{}, err
	}

	saved, err := s.repo.AddStep(ctx, step, t, sc.Version)
	if err != nil {
		return domain.Step{}, access.Wrap(s.logger, "Falha ao adicionar passo", err)
	}
	s.invalidateMetrics(ctx, sc)
	return saved, nil
}

// UpdateStepStatus altera o status de um passo e recalcula o status derivado
// do cenário (BLOCKED quando todos os passos estão BLOCKED).
func (s *Service) UpdateStepStatus(ctx context.Context, actorID, projectID, scenarioID, stepID string, status domain.StepStatus) (domain.TestScenario, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao atualizar passo", err)
	}
	if !status.Valid() {
		return domain.TestScenario{}, apperror.NewValidationError("Status de passo inválido.")
	}
	if err := s.guard.Authorize(role, lifecycle.ActionEditScenario); err != nil {
		return domain.TestScenario{}, err
	}
	sc, err := s.load(ctx, projectID, scenarioID)
	if err != nil {
		return domain.TestScenario{}, err
	}

	next := sc
	next.Steps = append([]domain.Step{}, sc.Steps...)
	found := false
	for i := range next.Steps {
		if next.Steps[i].ID == stepID {
			next.Steps[i].Status = status
			found = true
		}
	}
	if !found {
		return domain.TestScenario{}, apperror.NewNotFoundError("Passo não encontrado.")
	}

	t, err := s.deriveFromSteps(ctx, next)
	if err != nil {
		return domain.TestScenario{}, err
	}
	if err := s.repo.UpdateStepStatus(ctx, sc.ID, stepID, status, t, sc.Version); err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao atualizar passo", err)
	}
	s.invalidateMetrics(ctx, sc)
	return s.applied(next, t), nil
}

// Review aprova ou reprova um cenário executado.
func (s *Service) Review(ctx context.Context, actorID, projectID, scenarioID string, target domain.ScenarioStatus, reason string) (domain.TestScenario, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao revisar cenário", err)
	}
	sc, err := s.load(ctx, projectID, scenarioID)
	if err != nil {
		return domain.TestScenario{}, err
	}

	t, err := s.guard.Review(sc, target, role, reason)
	if err != nil {
		return domain.TestScenario{}, err
	}
	if err := s.repo.SaveStatus(ctx, t, sc.Version); err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao revisar cenário", err)
	}
	s.invalidateMetrics(ctx, sc)

	s.logger.Info("Cenário revisado.", map[string]interface{}{
		"scenario_id": sc.ID, "from": t.From, "to": t.To, "actor_id": actorID,
	})
	return s.applied(sc, t), nil
}

// RecordExecution grava uma execução e o novo status decidido pelo guard.
func (s *Service) RecordExecution(ctx context.Context, actorID, projectID, scenarioID string, in domain.NewExecution) (domain.Execution, domain.TestScenario, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.Execution{}, domain.TestScenario{}, access.Wrap(s.logger, "Falha ao registrar execução", err)
	}
	sc, err := s.load(ctx, projectID, scenarioID)
	if err != nil {
		return domain.Execution{}, domain.TestScenario{}, err
	}

	t, err := s.guard.OnExecution(sc, in.Status, role)
	if err != nil {
		return domain.Execution{}, domain.TestScenario{}, err
	}

	exec, err := s.repo.RecordExecution(ctx, domain.Execution{
		ScenarioID: sc.ID,
		Status:     in.Status,
		Notes:      strings.TrimSpace(in.Notes),
		ExecutedBy: actorID,
	}, t, sc.Version)
	if err != nil {
		return domain.Execution{}, domain.TestScenario{}, access.Wrap(s.logger, "Falha ao registrar execução", err)
	}
	s.invalidateMetrics(ctx, sc)
	return exec, s.applied(sc, t), nil
}

// RecordBug grava um bug. O status do cenário é decidido pelo guard a partir
// do evento BugRecorded; o autor do bug não escolhe o status.
func (s *Service) RecordBug(ctx context.Context, actorID, projectID, scenarioID string, in domain.NewBug) (domain.Bug, domain.TestScenario, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.Bug{}, domain.TestScenario{}, access.Wrap(s.logger, "Falha ao registrar bug", err)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Bug{}, domain.TestScenario{}, apperror.NewValidationError("O título do bug é obrigatório.")
	}
	severity := in.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}
	if !severity.Valid() {
		return domain.Bug{}, domain.TestScenario{}, apperror.NewValidationError("Severidade inválida; use LOW, MEDIUM, HIGH ou CRITICAL.")
	}
	if err := s.guard.Authorize(role, lifecycle.ActionRecordBug); err != nil {
		return domain.Bug{}, domain.TestScenario{}, err
	}
	sc, err := s.load(ctx, projectID, scenarioID)
	if err != nil {
		return domain.Bug{}, domain.TestScenario{}, err
	}
	if in.RelatedStepID != nil && !hasStep(sc, *in.RelatedStepID) {
		return domain.Bug{}, domain.TestScenario{}, apperror.NewValidationError("O passo relacionado não pertence a este cenário.")
	}

	bug := domain.Bug{
		ID:            uuid.NewString(),
		ScenarioID:    sc.ID,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		Severity:      severity,
		Status:        domain.BugOpen,
		RelatedStepID: in.RelatedStepID,
		ReportedBy:    actorID,
		CreatedAt:     s.now(),
	}
	t, err := s.guard.OnBugRecorded(sc, domain.BugRecorded{
		BugID:      bug.ID,
		ScenarioID: sc.ID,
		Severity:   bug.Severity,
		RecordedBy: actorID,
		RecordedAt: bug.CreatedAt,
	})
	if err != nil {
		return domain.Bug{}, domain.TestScenario{}, err
	}

	saved, err := s.repo.RecordBug(ctx, bug, t, sc.Version)
	if err != nil {
		return domain.Bug{}, domain.TestScenario{}, access.Wrap(s.logger, "Falha ao registrar bug", err)
	}
	s.invalidateMetrics(ctx, sc)
	return saved, s.applied(sc, t), nil
}

// Report monta os dados do ECT. Cenário sem passos não gera relatório.
func (s *Service) Report(ctx context.Context, actorID, projectID, scenarioID string) (domain.ScenarioReport, error) {
	role, err := access.ResolveRole(ctx, s.roles, actorID, projectID)
	if err != nil {
		return domain.ScenarioReport{}, access.Wrap(s.logger, "Falha ao gerar relatório", err)
	}
	if err := s.guard.Authorize(role, lifecycle.ActionGenerateReport); err != nil {
		return domain.ScenarioReport{}, err
	}
	sc, err := s.load(ctx, projectID, scenarioID)
	if err != nil {
		return domain.ScenarioReport{}, err
	}
	if err := s.guard.CheckReport(sc); err != nil {
		return domain.ScenarioReport{}, err
	}

	latest, err := s.repo.LatestExecution(ctx, sc.ID)
	if err != nil {
		return domain.ScenarioReport{}, access.Wrap(s.logger, "Falha ao gerar relatório", err)
	}
	return domain.ScenarioReport{
		Scenario:        sc,
		Steps:           sc.Steps,
		LatestExecution: latest,
		GeneratedAt:     s.now(),
	}, nil
}

// load busca o cenário e esconde cenários de outros projetos como NotFound.
func (s *Service) load(ctx context.Context, projectID, scenarioID string) (domain.TestScenario, error) {
	sc, err := s.repo.FindByID(ctx, scenarioID)
	if err != nil {
		return domain.TestScenario{}, access.Wrap(s.logger, "Falha ao carregar cenário", err)
	}
	if sc.ProjectID != projectID {
		return domain.TestScenario{}, apperror.NewNotFoundError("Cenário não encontrado.")
	}
	return sc, nil
}

// deriveFromSteps só consulta execuções quando o cenário pode ser desbloqueado.
func (s *Service) deriveFromSteps(ctx context.Context, sc domain.TestScenario) (lifecycle.ScenarioTransition, error) {
	hasExecutions := false
	if sc.Status == domain.ScenarioBlocked {
		var err error
		if hasExecutions, err = s.repo.HasExecutions(ctx, sc.ID); err != nil {
			return lifecycle.ScenarioTransition{}, access.Wrap(s.logger, "Falha ao verificar execuções", err)
		}
	}
	return s.guard.OnStepsChanged(sc, hasExecutions), nil
}

func (s *Service) applied(sc domain.TestScenario, t lifecycle.ScenarioTransition) domain.TestScenario {
	sc.Version++
	if t.Changed() {
		sc.Status = t.To
		sc.RejectionReason = t.RejectionReason
	}
	return sc
}

func (s *Service) invalidateMetrics(ctx context.Context, sc domain.TestScenario) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, metrics.CacheKey(sc.ProjectID, sc.PackageID)); err != nil {
		s.logger.Warn("Falha ao invalidar métricas no cache.", map[string]interface{}{"package_id": sc.PackageID, "error": err.Error()})
	}
}

func hasStep(sc domain.TestScenario, stepID string) bool {
	for _, st := range sc.Steps {
		if st.ID == stepID {
			return true
		}
	}
	return false
}
