package user

import (
	"context"
	"net/http"

	"gotestcase/internal/api/respond"
	"gotestcase/internal/domain"
	"gotestcase/internal/pkg/logger"
)

// UserService define o contrato para as operações de usuário.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	UpdateUser(ctx context.Context, actorID, id string, upd domain.UserUpdate) (domain.User, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	respond.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Responder: respond.New(log)}
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Valida nome, e-mail e senha, hasheia a senha e salva no banco de dados.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Nome, e-mail e senha"
// @Success 201 {object} domain.User "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := respond.Decode(r, &reg); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}

	// O PasswordHash não sai na resposta (tag json:"-").
	newUser, err := h.Service.Register(r.Context(), reg)
	h.Write(w, r, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Tags users
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} map[string]string "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq LoginRequest
	if err := respond.Decode(r, &loginReq); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}

	token, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	h.Write(w, r, map[string]string{"token": token}, nil, http.StatusOK)
}

// MeHandler lida com GET /v1/users/me.
// @Summary Dados do usuário autenticado
// @Tags users
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} domain.ErrorResponse
// @Router /users/me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	u, err := h.Service.GetUser(r.Context(), actorID)
	h.Write(w, r, u, err, http.StatusOK)
}

// UpdateUserHandler lida com PATCH /v1/users/{id}.
// Campos ausentes ficam inalterados; null limpa o campo quando permitido.
// @Summary Atualiza parcialmente o próprio usuário
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do usuário"
// @Param update body domain.UserUpdate true "Campos a alterar"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Email já usado por outro usuário"
// @Router /users/{id} [patch]
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := respond.Actor(r)
	if err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	var upd domain.UserUpdate
	if err := respond.Decode(r, &upd); err != nil {
		h.Write(w, r, nil, err, 0)
		return
	}
	u, err := h.Service.UpdateUser(r.Context(), actorID, r.PathValue("id"), upd)
	h.Write(w, r, u, err, http.StatusOK)
}
