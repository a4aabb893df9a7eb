package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperror "gotestcase/internal/errors"
)

func TestMapToHTTPStatus_TypedErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validation", apperror.NewValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"transition", apperror.NewInvalidTransitionError("x"), http.StatusBadRequest, "INVALID_TRANSITION"},
		{"precondition", apperror.NewPreconditionFailedError("x"), http.StatusBadRequest, "PRECONDITION_FAILED"},
		{"unauthorized", apperror.NewUnauthorizedError("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", apperror.NewForbiddenError("x"), http.StatusForbidden, "FORBIDDEN"},
		{"not found", apperror.NewNotFoundError("x"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperror.NewConflictError("x"), http.StatusConflict, "CONFLICT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, category, message := apperror.MapToHTTPStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.category, category)
			assert.Equal(t, tc.err.Error(), message)
		})
	}
}

func TestMapToHTTPStatus_InternalErrorHidesCause(t *testing.T) {
	cause := errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`)
	err := apperror.NewDBError("Falha ao salvar usuário", cause)

	status, category, message := apperror.MapToHTTPStatus(err)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", category)
	assert.NotContains(t, message, "pq:")
	assert.NotContains(t, err.Error(), "pq:")
	assert.ErrorIs(t, err, cause)
}

func TestMapToHTTPStatus_WrappedAndUntyped(t *testing.T) {
	wrapped := fmt.Errorf("camada externa: %w", apperror.NewNotFoundError("pacote"))
	status, category, _ := apperror.MapToHTTPStatus(wrapped)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", category)

	status, category, message := apperror.MapToHTTPStatus(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "UNKNOWN_ERROR", category)
	assert.Equal(t, "Ocorreu um erro inesperado.", message)
}
