package lifecycle

import (
	"fmt"
	"strings"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
)

// Trigger identifica o que originou uma transição de cenário.
type Trigger string

const (
	TriggerReview    Trigger = "review"
	TriggerExecution Trigger = "execution"
	TriggerBug       Trigger = "bug"
	TriggerSteps     Trigger = "steps"
)

// ScenarioTransition é a mudança aprovada pelo guard. Via lista os estados
// intermediários percorridos (ex: CREATED -> EXECUTED -> FAILED).
type ScenarioTransition struct {
	ScenarioID      string
	From            domain.ScenarioStatus
	To              domain.ScenarioStatus
	Via             []domain.ScenarioStatus
	Trigger         Trigger
	RejectionReason *string
}

// Changed informa se a transição altera o status persistido.
func (t ScenarioTransition) Changed() bool {
	return t.From != t.To
}

// ScenarioGuard valida e aplica as transições de status de cenário.
type ScenarioGuard struct {
	policy Policy
}

// NewScenarioGuard cria o guard com a política de papéis informada.
func NewScenarioGuard(policy Policy) *ScenarioGuard {
	return &ScenarioGuard{policy: policy}
}

// reviewable são os estados a partir dos quais um cenário pode ser aprovado ou reprovado.
var reviewable = map[domain.ScenarioStatus]bool{
	domain.ScenarioExecuted: true,
	domain.ScenarioPassed:   true,
	domain.ScenarioFailed:   true,
}

// Review decide uma revisão (APPROVED ou REJECTED) solicitada por um ator.
func (g *ScenarioGuard) Review(sc domain.TestScenario, target domain.ScenarioStatus, role domain.Role, reason string) (ScenarioTransition, error) {
	switch target {
	case domain.ScenarioApproved, domain.ScenarioRejected:
	case domain.ScenarioBlocked:
		return ScenarioTransition{}, apperror.NewInvalidTransitionError("BLOCKED é derivado dos passos e não pode ser solicitado diretamente.")
	default:
		return ScenarioTransition{}, apperror.NewInvalidTransitionError(fmt.Sprintf("o status %s não pode ser solicitado por revisão.", target))
	}

	reason = strings.TrimSpace(reason)
	if target == domain.ScenarioRejected && reason == "" {
		return ScenarioTransition{}, apperror.NewValidationError("O motivo da reprovação é obrigatório.")
	}

	if !reviewable[sc.Status] {
		return ScenarioTransition{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("cenário em %s não pode ir para %s; é preciso passar por EXECUTED.", sc.Status, target))
	}

	if !g.policy.Allows(role, ActionReviewScenario) {
		return ScenarioTransition{}, apperror.NewForbiddenError("apenas APPROVER, MANAGER ou OWNER podem revisar cenários.")
	}

	t := ScenarioTransition{ScenarioID: sc.ID, From: sc.Status, To: target, Trigger: TriggerReview}
	if target == domain.ScenarioRejected {
		t.RejectionReason = &reason
	}
	return t, nil
}

// OnExecution decide o novo status quando uma execução é registrada.
// A primeira execução leva CREATED a EXECUTED (ou a FAILED, passando por
// EXECUTED, quando falha). As seguintes aplicam o veredito.
func (g *ScenarioGuard) OnExecution(sc domain.TestScenario, result domain.ExecutionStatus, role domain.Role) (ScenarioTransition, error) {
	if !g.policy.Allows(role, ActionExecuteScenario) {
		return ScenarioTransition{}, apperror.NewForbiddenError("seu papel não permite registrar execuções.")
	}

	var verdict domain.ScenarioStatus
	switch result {
	case domain.ExecutionPassed:
		verdict = domain.ScenarioPassed
	case domain.ExecutionFailed:
		verdict = domain.ScenarioFailed
	default:
		return ScenarioTransition{}, apperror.NewValidationError("O status da execução deve ser PASSED ou FAILED.")
	}

	t := ScenarioTransition{ScenarioID: sc.ID, From: sc.Status, Trigger: TriggerExecution}
	switch sc.Status {
	case domain.ScenarioBlocked:
		return ScenarioTransition{}, apperror.NewInvalidTransitionError("cenário BLOCKED; desbloqueie os passos antes de executar.")
	case domain.ScenarioCreated:
		// Primeiro registro: CREATED -> EXECUTED. Falha segue direto para FAILED.
		t.To = domain.ScenarioExecuted
		if verdict == domain.ScenarioFailed {
			t.Via = []domain.ScenarioStatus{domain.ScenarioExecuted}
			t.To = domain.ScenarioFailed
		}
	case domain.ScenarioApproved:
		// Execução aprovada que volta a passar não reabre a revisão.
		if verdict == domain.ScenarioPassed {
			t.To = sc.Status
		} else {
			t.To = verdict
		}
	default:
		t.To = verdict
	}
	return t, nil
}

// OnBugRecorded consome o evento BugRecorded: cenário já executado vai para FAILED,
// independentemente do status que o autor do bug pretendia.
func (g *ScenarioGuard) OnBugRecorded(sc domain.TestScenario, evt domain.BugRecorded) (ScenarioTransition, error) {
	if evt.ScenarioID != sc.ID {
		return ScenarioTransition{}, apperror.NewValidationError("O bug não pertence a este cenário.")
	}

	t := ScenarioTransition{ScenarioID: sc.ID, From: sc.Status, To: sc.Status, Trigger: TriggerBug}
	if executed(sc.Status) {
		t.To = domain.ScenarioFailed
	}
	return t, nil
}

// OnStepsChanged deriva BLOCKED quando todos os passos estão BLOCKED e desbloqueia
// o cenário quando algum passo deixa de estar.
func (g *ScenarioGuard) OnStepsChanged(sc domain.TestScenario, hasExecutions bool) ScenarioTransition {
	t := ScenarioTransition{ScenarioID: sc.ID, From: sc.Status, To: sc.Status, Trigger: TriggerSteps}

	blocked := allStepsBlocked(sc.Steps)
	switch {
	case blocked && sc.Status != domain.ScenarioBlocked:
		t.To = domain.ScenarioBlocked
	case !blocked && sc.Status == domain.ScenarioBlocked:
		if hasExecutions {
			t.To = domain.ScenarioExecuted
		} else {
			t.To = domain.ScenarioCreated
		}
	}
	return t
}

// CheckReport valida a pré-condição para gerar o ECT.
func (g *ScenarioGuard) CheckReport(sc domain.TestScenario) error {
	if len(sc.Steps) == 0 {
		return apperror.NewPreconditionFailedError("o cenário não possui passos.")
	}
	return nil
}

// CanGenerateReport responde ao gerador de relatórios antes de ele rodar.
func (g *ScenarioGuard) CanGenerateReport(sc domain.TestScenario) bool {
	return g.CheckReport(sc) == nil
}

// Authorize verifica uma ação de cenário que não muda status (criar, editar passos, bugs).
func (g *ScenarioGuard) Authorize(role domain.Role, action Action) error {
	if !g.policy.Allows(role, action) {
		return apperror.NewForbiddenError("seu papel não permite esta operação.")
	}
	return nil
}

func executed(status domain.ScenarioStatus) bool {
	switch status {
	case domain.ScenarioExecuted, domain.ScenarioPassed, domain.ScenarioFailed,
		domain.ScenarioApproved, domain.ScenarioRejected:
		return true
	}
	return false
}

func allStepsBlocked(steps []domain.Step) bool {
	if len(steps) == 0 {
		return false
	}
	for _, st := range steps {
		if st.Status != domain.StepBlocked {
			return false
		}
	}
	return true
}
