package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/service/access"
)

type stubRoles struct {
	role domain.Role
	ok   bool
	err  error
}

func (s stubRoles) RoleOf(ctx context.Context, userID, projectID string) (domain.Role, bool, error) {
	return s.role, s.ok, s.err
}

func TestResolveRole(t *testing.T) {
	role, err := access.ResolveRole(context.Background(), stubRoles{role: domain.RoleTester, ok: true}, "u", "p")
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleTester, role)

	_, err = access.ResolveRole(context.Background(), stubRoles{}, "u", "p")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestWrap(t *testing.T) {
	log := logger.NewNop()

	assert.Nil(t, access.Wrap(log, "x", nil))

	typed := apperror.NewForbiddenError("não")
	assert.Same(t, typed, access.Wrap(log, "x", typed))

	raw := errors.New("conexão perdida")
	err := access.Wrap(log, "Falha ao aprovar pacote", raw)
	var internal *apperror.InternalError
	assert.ErrorAs(t, err, &internal)
	assert.ErrorIs(t, err, raw)
	assert.NotContains(t, err.Error(), "conexão perdida")

	dbErr := apperror.NewDBError("Falha ao buscar pacote", raw)
	assert.Same(t, dbErr, access.Wrap(log, "outra", dbErr))
}
