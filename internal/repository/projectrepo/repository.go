package projectrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/pkg/database"
	"gotestcase/internal/pkg/logger"
)

// ProjectRepository persiste projetos e seus membros.
type ProjectRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProjectRepository cria o repositório.
func NewProjectRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ProjectRepository {
	return &ProjectRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Save insere um projeto. Nome repetido para o mesmo dono vira ConflictError.
func (r *ProjectRepository) Save(ctx context.Context, p domain.Project) (domain.Project, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	_, err := r.DB.ExecContext(ctxTimeout, `
        INSERT INTO projects (id, name, description, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Description, p.OwnerID, p.CreatedAt, p.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return domain.Project{}, apperror.NewConflictError("Você já possui um projeto com este nome.")
	}
	if err != nil {
		r.logger.Error("Falha ao inserir projeto no DB.", err)
		return domain.Project{}, apperror.NewDBError("Falha ao inserir projeto", err)
	}

	r.logger.Info("Projeto criado.", map[string]interface{}{"project_id": p.ID, "owner_id": p.OwnerID})
	return p, nil
}

// FindByID busca um projeto. IDs malformados são tratados como inexistentes.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (domain.Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Project{}, apperror.NewNotFoundError("Projeto não encontrado.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var p domain.Project
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT id, name, description, owner_id, created_at, updated_at
        FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, apperror.NewNotFoundError("Projeto não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar projeto no DB.", err)
		return domain.Project{}, apperror.NewDBError("Falha ao buscar projeto", err)
	}
	return p, nil
}

// RoleOf devolve o papel do usuário no projeto. ok == false quando o usuário
// não é dono nem membro (ou o projeto não existe).
func (r *ProjectRepository) RoleOf(ctx context.Context, userID, projectID string) (domain.Role, bool, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return "", false, nil
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", false, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// OWNER vem de projects.owner_id; os demais papéis de project_members.
	var role string
	err := r.DB.QueryRowContext(ctxTimeout, `
        SELECT CASE WHEN p.owner_id = $1 THEN 'OWNER' ELSE m.role END
        FROM projects p
        LEFT JOIN project_members m ON m.project_id = p.id AND m.user_id = $1
        WHERE p.id = $2 AND (p.owner_id = $1 OR m.user_id IS NOT NULL)`,
		userID, projectID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Falha ao resolver papel do usuário.", err)
		return "", false, apperror.NewDBError("Falha ao resolver papel", err)
	}
	return domain.Role(role), true, nil
}

// AddMember insere ou atualiza o papel de um membro.
func (r *ProjectRepository) AddMember(ctx context.Context, m domain.Membership) (domain.Membership, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	m.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctxTimeout, `
        INSERT INTO project_members (project_id, user_id, role, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		m.ProjectID, m.UserID, string(m.Role), m.CreatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return domain.Membership{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao adicionar membro.", err)
		return domain.Membership{}, apperror.NewDBError("Falha ao adicionar membro", err)
	}

	r.logger.Info("Membro adicionado ao projeto.", map[string]interface{}{
		"project_id": m.ProjectID, "user_id": m.UserID, "role": m.Role,
	})
	return m, nil
}
