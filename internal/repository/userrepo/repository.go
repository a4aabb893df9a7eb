package userrepo

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

const userColumns = `id, name, email, password_hash, avatar, created_at, updated_at`

// UserRepository persiste usuários no PostgreSQL.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo usuário. E-mail duplicado vira ConflictError.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctxTimeout, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Avatar, user.CreatedAt, user.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		r.logger.Warn("E-mail já cadastrado.", map[string]interface{}{"email": user.Email})
		return domain.User{}, apperror.NewConflictError("Este e-mail já está em uso.")
	}
	if err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// FindByEmail busca um usuário pelo e-mail já normalizado.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByID busca um usuário pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var u domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug("Usuário não encontrado.", nil)
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}
	return u, nil
}

// EmailTakenByOther informa se o e-mail pertence a um usuário diferente de excludeID.
func (r *UserRepository) EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, excludeID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar unicidade de e-mail.", err)
		return false, apperror.NewDBError("Falha ao verificar e-mail", err)
	}
	return exists, nil
}

// Update grava os campos mutáveis do usuário.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Atualizando usuário no repositório.", map[string]interface{}{"user_id": user.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE users
        SET name = $1, email = $2, password_hash = $3, avatar = $4, updated_at = $5
        WHERE id = $6`,
		user.Name, user.Email, user.PasswordHash, user.Avatar, user.UpdatedAt, user.ID,
	)
	if database.IsUniqueViolation(err) {
		return domain.User{}, apperror.NewConflictError("Este e-mail já está em uso.")
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao atualizar usuário", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}

	r.logger.Info("Usuário atualizado.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}
