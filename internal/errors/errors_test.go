package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
)

func TestMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validação", apperror.NewValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"não autorizado", apperror.NewUnauthorizedError("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"não encontrado", apperror.NewNotFoundError("x"), http.StatusNotFound, "NOT_FOUND"},
		{"conflito", apperror.NewConflictError("x"), http.StatusConflict, "CONFLICT"},
		{"formulário", apperror.NewFormValidationError(domain.ValidationResult{}), http.StatusUnprocessableEntity, "FORM_VALIDATION_ERROR"},
		{"interno", apperror.NewInternalError("x", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"encapsulado", fmt.Errorf("camada: %w", apperror.NewConflictError("x")), http.StatusConflict, "CONFLICT"},
		{"não tipado", fmt.Errorf("qualquer"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, category, _ := apperror.MapToHTTPStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.category, category)
		})
	}
}

func TestNewDBError_Timeout(t *testing.T) {
	err := apperror.NewDBError("Falha ao buscar estoque", context.DeadlineExceeded)

	assert.Contains(t, err.Error(), "tempo limite")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestViolationsOf(t *testing.T) {
	violations := []domain.Violation{{FieldPath: "items", Message: "vazio"}}
	err := fmt.Errorf("envio: %w", apperror.NewFormValidationError(domain.ValidationResult{Violations: violations}))

	assert.Equal(t, violations, apperror.ViolationsOf(err))
	assert.Nil(t, apperror.ViolationsOf(apperror.NewConflictError("x")))
}
