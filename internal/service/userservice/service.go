package userservice

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/service/access"
)

// UserRepository define o contrato de persistência de usuários.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, email string) (string, error)
}

// Options ajusta regras de validação vindas da configuração.
type Options struct {
	// EnforcePasswordComplexity transforma o aviso de complexidade em erro.
	EnforcePasswordComplexity bool
}

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	repo     UserRepository
	tokenSvc TokenService
	opts     Options
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService.
func NewService(repo UserRepository, tokenSvc TokenService, opts Options, log logger.Logger) *UserService {
	return &UserService{repo: repo, tokenSvc: tokenSvc, opts: opts, logger: log}
}

// Register registra um novo usuário. Nome, e-mail e senha seguem as mesmas
// regras de UpdateUser.
func (s *UserService) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	name, err := normalizeName(reg.Name)
	if err != nil {
		return domain.User{}, err
	}
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return domain.User{}, err
	}
	hash, err := s.hashPassword(reg.Password, email)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.Save(ctx, domain.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		return domain.User{}, access.Wrap(s.logger, "Falha ao registrar usuário", err)
	}
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound vira Unauthorized para não revelar quais e-mails existem.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", access.Wrap(s.logger, "Falha ao autenticar", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.tokenSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Falha ao gerar token de autenticação.", err)
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return tokenString, nil
}

// GetUser devolve o próprio usuário autenticado.
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, access.Wrap(s.logger, "Falha ao buscar usuário", err)
	}
	return user, nil
}

// UpdateUser aplica uma atualização parcial. Id inexistente é NotFound; um
// usuário existente só pode ser alterado por ele mesmo.
// Campos ausentes ficam como estão; avatar aceita null para limpar.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id string, upd domain.UserUpdate) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, access.Wrap(s.logger, "Falha ao atualizar usuário", err)
	}
	if actorID != user.ID {
		return domain.User{}, apperror.NewForbiddenError("Você só pode alterar o seu próprio perfil.")
	}

	if upd.Name.Set {
		if upd.Name.Null {
			return domain.User{}, apperror.NewValidationError("O nome não pode ser nulo.")
		}
		if user.Name, err = normalizeName(upd.Name.Value); err != nil {
			return domain.User{}, err
		}
	}

	if upd.Email.Set {
		if upd.Email.Null {
			return domain.User{}, apperror.NewValidationError("O e-mail não pode ser nulo.")
		}
		email, err := normalizeEmail(upd.Email.Value)
		if err != nil {
			return domain.User{}, err
		}
		taken, err := s.repo.EmailTakenByOther(ctx, email, id)
		if err != nil {
			return domain.User{}, access.Wrap(s.logger, "Falha ao atualizar usuário", err)
		}
		if taken {
			s.logger.Warn("E-mail já pertence a outro usuário.", map[string]interface{}{"user_id": id})
			return domain.User{}, apperror.NewConflictError("Este e-mail já está em uso.")
		}
		user.Email = email
	}

	if upd.Password.Set {
		if upd.Password.Null {
			return domain.User{}, apperror.NewValidationError("A senha não pode ser nula.")
		}
		if user.PasswordHash, err = s.hashPassword(upd.Password.Value, user.Email); err != nil {
			return domain.User{}, err
		}
	}

	if upd.Avatar.Set {
		user.Avatar = nil
		if !upd.Avatar.Null {
			if avatar := sanitizeText(upd.Avatar.Value); avatar != "" {
				user.Avatar = &avatar
			}
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.User{}, access.Wrap(s.logger, "Falha ao atualizar usuário", err)
	}
	s.logger.Info("Perfil de usuário atualizado.", map[string]interface{}{"user_id": id})
	return updated, nil
}

func (s *UserService) hashPassword(raw, email string) (string, error) {
	if err := validatePassword(raw); err != nil {
		return "", err
	}
	if missing := missingComplexity(raw); len(missing) > 0 {
		if s.opts.EnforcePasswordComplexity {
			return "", apperror.NewValidationError("A senha deve conter maiúscula, minúscula, dígito e símbolo.")
		}
		s.logger.Warn("Senha fraca aceita.", map[string]interface{}{"email": email, "missing": missing})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	return string(hashed), nil
}
