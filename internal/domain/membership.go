package domain

import "time"

// Role é o papel de um usuário dentro de um projeto.
// É a fonte de autorização consultada por todos os guards.
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleManager  Role = "MANAGER"
	RoleTester   Role = "TESTER"
	RoleApprover Role = "APPROVER"
	RoleViewer   Role = "VIEWER"
)

// Valid informa se o papel pertence ao conjunto conhecido.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleTester, RoleApprover, RoleViewer:
		return true
	}
	return false
}

// Membership associa um usuário a um projeto com um papel.
// OWNER não é gravado aqui: é derivado de Project.OwnerID.
type Membership struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
