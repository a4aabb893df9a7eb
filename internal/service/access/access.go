// Package access resolve o papel do ator em um projeto e padroniza o
// tratamento de erros inesperados nos serviços.
package access

import (
	"context"
	"errors"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/pkg/logger"
)

// RoleReader é o contrato mínimo para consultar papéis de projeto.
type RoleReader interface {
	RoleOf(ctx context.Context, userID, projectID string) (domain.Role, bool, error)
}

// ResolveRole devolve o papel do ator. Quem não é membro recebe NotFound,
// para que a existência do projeto não vaze.
func ResolveRole(ctx context.Context, roles RoleReader, actorID, projectID string) (domain.Role, error) {
	role, ok, err := roles.RoleOf(ctx, actorID, projectID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperror.NewNotFoundError("Projeto não encontrado.")
	}
	return role, nil
}

// Wrap devolve AppErrors sem alteração (o repositório já registrou os
// InternalError que criou). Erros não tipados são registrados aqui, uma única
// vez, e encapsulados em um InternalError.
func Wrap(log logger.Logger, msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.Error(msg, err)
	return apperror.NewInternalError(msg, err)
}
