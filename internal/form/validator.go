package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"goerp/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// FieldError.Field() passa a usar o nome JSON (location_id, document_number...).
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// headerLabels são os rótulos exibidos por tipo de documento.
var headerLabels = map[domain.FormKind]map[string]string{
	domain.KindDelivery: {
		"location_id":     "Armazém",
		"document_number": "Número da entrega",
		"prepared_date":   "Data de preparo",
		"status":          "Status",
		"notes":           "Observações",
	},
	domain.KindSale: {
		"location_id":     "Filial",
		"document_number": "Número do recibo",
		"prepared_date":   "Data da venda",
		"status":          "Status",
		"notes":           "Observações",
	},
}

// Validate confere o formulário inteiro antes do envio. Todas as violações são
// coletadas; nenhuma regra interrompe as seguintes. snapshots é indexado por
// StockKey.String() e deve vir de consultas feitas no momento do envio.
func Validate(state FormState, snapshots map[string]domain.StockEntry) domain.ValidationResult {
	var violations []domain.Violation
	add := func(path, format string, args ...interface{}) {
		violations = append(violations, domain.Violation{FieldPath: path, Message: fmt.Sprintf(format, args...)})
	}

	// 1. Cabeçalho
	violations = append(violations, validateHeader(state.Kind, state.Header)...)

	// 2. Ao menos uma linha
	if len(state.Items) == 0 {
		add("items", "Adicione ao menos um item.")
	}

	completes := state.Header.Status.Completes()

	for i, item := range state.Items {
		path := fmt.Sprintf("items[%d]", i)
		line := i + 1

		// 3. Produto e local
		if item.Selection.IsZero() {
			add(path+".selection", "Selecione um produto na linha %d.", line)
		} else if err := item.Selection.Validate(); err != nil {
			add(path+".selection", "Produto inválido na linha %d: %v.", line, err)
		}
		if item.LocationID == "" {
			add(path+".location_id", "Selecione o local de estoque na linha %d.", line)
		}

		// 4. Quantidade mínima
		if item.RequestedQuantity < 1 {
			add(path+".requested_quantity", "A quantidade da linha %d deve ser no mínimo 1.", line)
		}

		if state.Kind == domain.KindSale && item.UnitPrice.IsNegative() {
			add(path+".unit_price", "O preço unitário da linha %d não pode ser negativo.", line)
		}

		// 5. Teto de disponibilidade com o snapshot recente
		entry, hasSnapshot := snapshots[item.Key().String()]
		if hasSnapshot && item.Key().Complete() {
			ceiling := EffectiveAvailable(state.Mode, item, entry.Snapshot)
			if item.RequestedQuantity >= 1 && item.RequestedQuantity > ceiling {
				add(path+".requested_quantity", "%s", exceedMessage("Quantidade solicitada", item, item.RequestedQuantity, ceiling, entry.Warning))
			}
			if completes && item.ConfirmedQuantity > ceiling {
				add(path+".confirmed_quantity", "%s", exceedMessage(confirmedLabel(state.Kind), item, item.ConfirmedQuantity, ceiling, entry.Warning))
			}
		}
		if completes && item.ConfirmedQuantity < 1 {
			add(path+".confirmed_quantity", "%s da linha %d deve ser no mínimo 1.", confirmedLabel(state.Kind), line)
		}
	}

	// 6. Pares (produto, variação) repetidos
	firstLine := make(map[domain.SelectionPair]int, len(state.Items))
	for i, item := range state.Items {
		if item.Selection.IsZero() {
			continue
		}
		pair := item.Selection.PairKey()
		if first, seen := firstLine[pair]; seen {
			add(fmt.Sprintf("items[%d].selection", i), "O produto %q da linha %d já foi informado na linha %d.", item.DisplayName(), i+1, first+1)
			continue
		}
		firstLine[pair] = i
	}

	return domain.ValidationResult{Valid: len(violations) == 0, Violations: violations}
}

func validateHeader(kind domain.FormKind, header Header) []domain.Violation {
	var violations []domain.Violation
	labels := headerLabels[kind]

	if err := validate.Struct(header); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				label := labels[fe.Field()]
				if label == "" {
					label = fe.Field()
				}
				msg := fmt.Sprintf("%s é obrigatório.", label)
				if fe.Tag() == "max" {
					msg = fmt.Sprintf("%s deve ter no máximo %s caracteres.", label, fe.Param())
				}
				violations = append(violations, domain.Violation{FieldPath: "header." + fe.Field(), Message: msg})
			}
		}
	}

	if header.Status != "" && !kind.AllowsStatus(header.Status) {
		violations = append(violations, domain.Violation{
			FieldPath: "header.status",
			Message:   fmt.Sprintf("Status %q não é válido para %s.", header.Status, kind),
		})
	}
	return violations
}

func confirmedLabel(kind domain.FormKind) string {
	if kind == domain.KindSale {
		return "Quantidade confirmada"
	}
	return "Quantidade entregue"
}

func exceedMessage(label string, item domain.LineItem, qty, ceiling int, warning string) string {
	msg := fmt.Sprintf("%s de %q em %q (%d) excede o disponível (%d).",
		label, item.DisplayName(), item.DisplayLocation(), qty, ceiling)
	if warning != "" {
		msg += " " + warning
	}
	return msg
}
