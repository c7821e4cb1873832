package form

import (
	"encoding/json"
	"fmt"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
)

// Action é uma alteração discreta do formulário aplicada por Reduce.
type Action interface {
	actionType() string
}

// HeaderField identifica um campo de cabeçalho alterável por SetField.
type HeaderField string

const (
	FieldLocation       HeaderField = "location_id"
	FieldCompany        HeaderField = "company_id"
	FieldDocumentNumber HeaderField = "document_number"
	FieldPreparedDate   HeaderField = "prepared_date"
	FieldStatus         HeaderField = "status"
	FieldNotes          HeaderField = "notes"
)

// ItemField identifica um campo de linha alterável por SetItemField.
type ItemField string

const (
	ItemFieldLocation          ItemField = "location_id"
	ItemFieldRequestedQuantity ItemField = "requested_quantity"
	ItemFieldConfirmedQuantity ItemField = "confirmed_quantity"
	ItemFieldUnitPrice         ItemField = "unit_price"
)

// Ações de edição (vindas do usuário).
type (
	SetField struct {
		Field HeaderField `json:"field"`
		Value string      `json:"value"`
	}
	AddItem struct {
		Item domain.LineItem `json:"item"`
	}
	RemoveItem struct {
		ItemID string `json:"item_id"`
	}
	SetItemField struct {
		ItemID string    `json:"item_id"`
		Field  ItemField `json:"field"`
		Value  string    `json:"value"`
	}
	SelectProduct struct {
		ItemID    string                  `json:"item_id"`
		Selection domain.ProductSelection `json:"selection"`
	}
	RequestConfirmation struct {
		Action ConfirmAction `json:"action"`
		ItemID string        `json:"item_id,omitempty"`
	}
	Confirm            struct{}
	CancelConfirmation struct{}
)

// Ações emitidas pelo serviço (efeitos colaterais já resolvidos).
type (
	// SetLabels grava nomes resolvidos no catálogo. ItemID vazio aplica ao cabeçalho.
	SetLabels struct {
		ItemID       string
		ProductName  string
		LocationName string
	}
	ApplyStockSnapshot struct {
		Entry domain.StockEntry
	}
	BeginValidation  struct{}
	ValidationFailed struct {
		Violations []domain.Violation
	}
	BeginSubmit  struct{}
	SubmitFailed struct {
		Message string
	}
	Submitted struct {
		RecordID string
		Version  int
	}
)

func (SetField) actionType() string            { return "set_field" }
func (AddItem) actionType() string             { return "add_item" }
func (RemoveItem) actionType() string          { return "remove_item" }
func (SetItemField) actionType() string        { return "set_item_field" }
func (SelectProduct) actionType() string       { return "select_product" }
func (RequestConfirmation) actionType() string { return "request_confirmation" }
func (Confirm) actionType() string             { return "confirm" }
func (CancelConfirmation) actionType() string  { return "cancel_confirmation" }
func (SetLabels) actionType() string           { return "set_labels" }
func (ApplyStockSnapshot) actionType() string  { return "apply_stock_snapshot" }
func (BeginValidation) actionType() string     { return "begin_validation" }
func (ValidationFailed) actionType() string    { return "validation_failed" }
func (BeginSubmit) actionType() string         { return "begin_submit" }
func (SubmitFailed) actionType() string        { return "submit_failed" }
func (Submitted) actionType() string           { return "submitted" }

// TypeOf devolve o nome da ação (usado em logs).
func TypeOf(a Action) string {
	return a.actionType()
}

// Envelope é o formato das ações recebidas pela API: {"type": "...", "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeAction converte o envelope numa ação de edição. Ações internas do
// serviço não podem ser enviadas pela API.
func DecodeAction(env Envelope) (Action, error) {
	var target Action
	switch env.Type {
	case "set_field":
		target = &SetField{}
	case "add_item":
		target = &AddItem{}
	case "remove_item":
		// Remoção sempre passa pela confirmação explícita.
		var p RemoveItem
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		return RequestConfirmation{Action: ConfirmRemoveItem, ItemID: p.ItemID}, nil
	case "set_item_field":
		target = &SetItemField{}
	case "select_product":
		target = &SelectProduct{}
	case "request_confirmation":
		target = &RequestConfirmation{}
	case "confirm":
		return Confirm{}, nil
	case "cancel_confirmation":
		return CancelConfirmation{}, nil
	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("Tipo de ação desconhecido: %q.", env.Type))
	}

	if err := decodePayload(env, target); err != nil {
		return nil, err
	}

	// Devolve o valor, não o ponteiro, para manter as ações imutáveis.
	switch a := target.(type) {
	case *SetField:
		return *a, nil
	case *AddItem:
		return *a, nil
	case *SetItemField:
		return *a, nil
	case *SelectProduct:
		return *a, nil
	case *RequestConfirmation:
		return *a, nil
	}
	return target, nil
}

func decodePayload(env Envelope, target interface{}) error {
	if len(env.Payload) == 0 {
		return apperror.NewValidationError(fmt.Sprintf("A ação %q exige payload.", env.Type))
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("Payload inválido para a ação %q.", env.Type))
	}
	return nil
}
