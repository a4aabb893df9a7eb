// Package respond concentra a escrita de respostas JSON e a tradução de erros
// de serviço para HTTP, compartilhada por todos os handlers.
package respond

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/pkg/middleware"
)

// maxBodyBytes limita o tamanho dos payloads aceitos.
const maxBodyBytes = 1 << 20

// Responder escreve respostas padronizadas.
type Responder struct {
	Logger logger.Logger
}

// New cria um Responder.
func New(log logger.Logger) Responder {
	return Responder{Logger: log}
}

// Write processa o resultado de um serviço: data com successStatus, ou o erro
// traduzido para {code, category, message}.
func (rs Responder) Write(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		rs.Logger.Debug("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})
		writeJSON(w, successStatus, data, rs.Logger)
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rs.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		rs.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	writeJSON(w, status, domain.ErrorResponse{Code: status, Category: category, Message: message}, rs.Logger)
}

// Decode lê o corpo JSON em v. Corpo vazio ou malformado vira ValidationError.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperror.NewValidationError("Payload JSON inválido.")
	}
	return nil
}

// Actor devolve o ID do usuário autenticado.
func Actor(r *http.Request) (string, error) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		return "", apperror.NewUnauthorizedError("Usuário não autenticado.")
	}
	return claims.UserID, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}
