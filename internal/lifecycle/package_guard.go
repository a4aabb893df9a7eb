package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
)

// PackageTransition é a mudança de pacote aprovada pelo guard, com os campos
// extras que devem ser gravados junto com o novo status.
type PackageTransition struct {
	PackageID       string
	From            domain.PackageStatus
	To              domain.PackageStatus
	ApprovedByID    *string
	ApprovedAt      *time.Time
	RejectionReason *string
}

// PackageGuard valida as transições de pacote:
//
//	CREATED   -> EM_TESTE   (Submit, submissão inicial)
//	REPROVADO -> EM_TESTE   (SendToTest, reenvio)
//	EM_TESTE  -> APROVADO   (Approve)
//	EM_TESTE  -> REPROVADO  (Reject, exige motivo)
//
// Nenhuma outra aresta existe. Cada tentativa é avaliada contra o status lido
// no momento da chamada; não há "aprovar de novo".
type PackageGuard struct {
	policy Policy
	now    func() time.Time
}

// NewPackageGuard cria o guard. now pode ser nil (usa time.Now em UTC).
func NewPackageGuard(policy Policy, now func() time.Time) *PackageGuard {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &PackageGuard{policy: policy, now: now}
}

// Approve leva o pacote de EM_TESTE a APROVADO.
func (g *PackageGuard) Approve(pkg domain.TestPackage, actorID string, role domain.Role) (PackageTransition, error) {
	if len(pkg.Scenarios) == 0 {
		return PackageTransition{}, apperror.NewPreconditionFailedError("o pacote não possui cenários.")
	}
	if err := AssertScenariosBelong(pkg); err != nil {
		return PackageTransition{}, err
	}
	if pkg.Status != domain.PackageEmTeste {
		return PackageTransition{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("pacote em %s não pode ser aprovado; apenas pacotes em EM_TESTE.", pkg.Status))
	}
	for _, sc := range pkg.Scenarios {
		if sc.Status != domain.ScenarioApproved {
			return PackageTransition{}, apperror.NewPreconditionFailedError("todos os cenários devem estar aprovados.")
		}
	}
	if !g.policy.Allows(role, ActionApprovePackage) {
		return PackageTransition{}, apperror.NewForbiddenError("apenas o OWNER do projeto ou um MANAGER pode aprovar pacotes.")
	}

	now := g.now()
	approver := actorID
	return PackageTransition{
		PackageID:    pkg.ID,
		From:         pkg.Status,
		To:           domain.PackageAprovado,
		ApprovedByID: &approver,
		ApprovedAt:   &now,
	}, nil
}

// Reject leva o pacote de EM_TESTE a REPROVADO. Motivo em branco é sempre rejeitado.
func (g *PackageGuard) Reject(pkg domain.TestPackage, reason string, role domain.Role) (PackageTransition, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return PackageTransition{}, apperror.NewValidationError("O motivo da reprovação é obrigatório.")
	}
	if pkg.Status != domain.PackageEmTeste {
		return PackageTransition{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("pacote em %s não pode ser reprovado; apenas pacotes em EM_TESTE.", pkg.Status))
	}
	if !g.policy.Allows(role, ActionRejectPackage) {
		return PackageTransition{}, apperror.NewForbiddenError("apenas o OWNER do projeto ou um MANAGER pode reprovar pacotes.")
	}

	return PackageTransition{
		PackageID:       pkg.ID,
		From:            pkg.Status,
		To:              domain.PackageReprovado,
		RejectionReason: &reason,
	}, nil
}

// Submit é a submissão inicial: CREATED -> EM_TESTE.
func (g *PackageGuard) Submit(pkg domain.TestPackage, role domain.Role) (PackageTransition, error) {
	if pkg.Status != domain.PackageCreated {
		return PackageTransition{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("pacote em %s não pode ser submetido; apenas pacotes em CREATED.", pkg.Status))
	}
	if !g.policy.Allows(role, ActionSubmitPackage) {
		return PackageTransition{}, apperror.NewForbiddenError("seu papel não permite enviar pacotes para teste.")
	}
	return PackageTransition{PackageID: pkg.ID, From: pkg.Status, To: domain.PackageEmTeste}, nil
}

// SendToTest reenvia um pacote reprovado: REPROVADO -> EM_TESTE.
func (g *PackageGuard) SendToTest(pkg domain.TestPackage, role domain.Role) (PackageTransition, error) {
	if pkg.Status != domain.PackageReprovado {
		return PackageTransition{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("pacote em %s não pode ser reenviado para EM_TESTE; apenas pacotes em REPROVADO.", pkg.Status))
	}
	if !g.policy.Allows(role, ActionSubmitPackage) {
		return PackageTransition{}, apperror.NewForbiddenError("seu papel não permite enviar pacotes para teste.")
	}
	return PackageTransition{PackageID: pkg.ID, From: pkg.Status, To: domain.PackageEmTeste}, nil
}

// Authorize verifica uma ação de pacote que não muda status.
func (g *PackageGuard) Authorize(role domain.Role, action Action) error {
	if !g.policy.Allows(role, action) {
		return apperror.NewForbiddenError("seu papel não permite esta operação.")
	}
	return nil
}

// AssertPackageOpen recusa alterações de cenário em pacote já aprovado.
// REPROVADO continua aberto: os cenários são corrigidos antes do reenvio.
func AssertPackageOpen(status domain.PackageStatus) error {
	switch status {
	case domain.PackageAprovado, domain.PackageConcluido:
		return apperror.NewInvalidTransitionError(
			fmt.Sprintf("pacote em %s não aceita alterações de cenário.", status))
	}
	return nil
}

// AssertScenariosBelong garante que todo cenário carregado tem o mesmo projectId do pacote.
// Divergência é reportada como NotFound para não vazar dados de outro projeto.
func AssertScenariosBelong(pkg domain.TestPackage) error {
	for _, sc := range pkg.Scenarios {
		if err := AssertSameProject(pkg, sc); err != nil {
			return err
		}
	}
	return nil
}

// AssertSameProject verifica o invariante scenario.projectId == package.projectId.
func AssertSameProject(pkg domain.TestPackage, sc domain.TestScenario) error {
	if sc.ProjectID != pkg.ProjectID || (sc.PackageID != "" && sc.PackageID != pkg.ID) {
		return apperror.NewNotFoundError("cenário não encontrado neste pacote.")
	}
	return nil
}
