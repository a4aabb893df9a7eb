// Package lifecycle contém os guards que decidem se uma transição de estado de
// pacote ou cenário é permitida, dado o estado persistido e o papel do ator.
// Os guards são síncronos e puros: recebem um snapshot já isolado e devolvem a
// transição aprovada ou um erro tipado. A persistência fica com o chamador.
package lifecycle

import (
	"fmt"

	"gotestcase/internal/domain"
)

// Action é uma operação sujeita a autorização por papel.
type Action string

const (
	ActionViewProject     Action = "project.view"
	ActionManageMembers   Action = "project.manage_members"
	ActionManagePackage   Action = "package.manage"
	ActionSubmitPackage   Action = "package.submit"
	ActionApprovePackage  Action = "package.approve"
	ActionRejectPackage   Action = "package.reject"
	ActionEditScenario    Action = "scenario.edit"
	ActionExecuteScenario Action = "scenario.execute"
	ActionRecordBug       Action = "scenario.record_bug"
	ActionReviewScenario  Action = "scenario.review"
	ActionGenerateReport  Action = "scenario.report"
)

// Policy mapeia cada ação para os papéis que podem executá-la.
type Policy map[Action][]domain.Role

// DefaultPolicy é a matriz de permissões padrão.
// TESTER executa, registra bugs e edita cenários, mas não aprova nada.
func DefaultPolicy() Policy {
	all := []domain.Role{domain.RoleOwner, domain.RoleManager, domain.RoleTester, domain.RoleApprover, domain.RoleViewer}
	return Policy{
		ActionViewProject:     all,
		ActionManageMembers:   {domain.RoleOwner, domain.RoleManager},
		ActionManagePackage:   {domain.RoleOwner, domain.RoleManager},
		ActionSubmitPackage:   {domain.RoleOwner, domain.RoleManager, domain.RoleTester},
		ActionApprovePackage:  {domain.RoleOwner, domain.RoleManager},
		ActionRejectPackage:   {domain.RoleOwner, domain.RoleManager},
		ActionEditScenario:    {domain.RoleOwner, domain.RoleManager, domain.RoleTester},
		ActionExecuteScenario: {domain.RoleOwner, domain.RoleManager, domain.RoleTester},
		ActionRecordBug:       {domain.RoleOwner, domain.RoleManager, domain.RoleTester, domain.RoleApprover},
		ActionReviewScenario:  {domain.RoleOwner, domain.RoleManager, domain.RoleApprover},
		ActionGenerateReport:  all,
	}
}

// Allows informa se o papel pode executar a ação. Ações desconhecidas são negadas.
func (p Policy) Allows(role domain.Role, action Action) bool {
	for _, r := range p[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Merge devolve uma cópia da política com as ações de override substituídas.
func (p Policy) Merge(override Policy) Policy {
	out := make(Policy, len(p)+len(override))
	for a, roles := range p {
		out[a] = append([]domain.Role(nil), roles...)
	}
	for a, roles := range override {
		out[a] = append([]domain.Role(nil), roles...)
	}
	return out
}

// restrictedActions só aceitam override que reduza o conjunto padrão:
// aprovação e revisão nunca podem ser estendidas a TESTER ou VIEWER.
var restrictedActions = map[Action]bool{
	ActionApprovePackage: true,
	ActionRejectPackage:  true,
	ActionReviewScenario: true,
}

// CheckOverride valida um override de configuração para a ação. Nas ações
// restritas, a lista não pode ser vazia e todo papel deve constar no padrão.
func CheckOverride(action Action, roles []domain.Role) error {
	if !restrictedActions[action] {
		return nil
	}
	if len(roles) == 0 {
		return fmt.Errorf("ação %q exige ao menos um papel", action)
	}
	defaults := DefaultPolicy()
	for _, r := range roles {
		if !defaults.Allows(r, action) {
			return fmt.Errorf("ação %q não pode ser concedida ao papel %s", action, r)
		}
	}
	return nil
}
