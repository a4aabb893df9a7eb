package domain

import "time"

// Project é a raiz de tudo: possui (transitivamente) pacotes, cenários, passos, execuções e bugs.
// O nome é único por dono.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProject é o payload de criação de projeto.
type NewProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewMember é o payload para adicionar um membro ao projeto.
type NewMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}
