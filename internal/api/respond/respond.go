// Package respond concentra a decodificação de payloads e as respostas JSON dos handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/pkg/logger"
)

// MaxBodyBytes limita o corpo aceito por Bind.
const MaxBodyBytes int64 = 1 << 20

var validate = validator.New()

func init() {
	// decimal.Decimal como número para tags como min=0.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Bind decodifica o corpo JSON (até MaxBodyBytes) em dst e aplica as tags de validação.
func Bind(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.NewValidationError(fmt.Sprintf("Payload excede o limite de %d bytes.", MaxBodyBytes))
		}
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	if err := validate.Struct(dst); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperror.NewValidationError(fmt.Sprintf("Campo '%s' inválido (regra: %s).", fe.Field(), fe.Tag()))
		}
		return apperror.NewValidationError("Payload inválido.")
	}
	return nil
}

// JSON envia data com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz o erro de serviço para a resposta padronizada (com as violações, se houver).
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	JSON(w, log, status, domain.ErrorResponse{
		Code:       status,
		Category:   category,
		Message:    message,
		Violations: apperror.ViolationsOf(err),
	})
}
