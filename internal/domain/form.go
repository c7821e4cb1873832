package domain

import (
	"github.com/shopspring/decimal"
)

// FormKind identifica o tipo de documento editado no formulário.
type FormKind string

const (
	KindDelivery FormKind = "delivery"
	KindSale     FormKind = "sale"
)

// Valid informa se o tipo é conhecido.
func (k FormKind) Valid() bool {
	return k == KindDelivery || k == KindSale
}

// LocationKind retorna o tipo de local usado pelo documento (armazém ou filial).
func (k FormKind) LocationKind() LocationKind {
	if k == KindSale {
		return LocationBranch
	}
	return LocationWarehouse
}

// FormMode diferencia criação de edição de um registro existente.
type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
)

// RecordStatus é o status de uma entrega ou venda.
type RecordStatus string

const (
	// Entregas
	StatusPending   RecordStatus = "PENDING"
	StatusPrepared  RecordStatus = "PREPARED"
	StatusInTransit RecordStatus = "IN_TRANSIT"
	StatusDelivered RecordStatus = "DELIVERED"

	// Vendas
	StatusDraft     RecordStatus = "DRAFT"
	StatusConfirmed RecordStatus = "CONFIRMED"

	// Ambos
	StatusCancelled RecordStatus = "CANCELLED"
)

var statusesByKind = map[FormKind][]RecordStatus{
	KindDelivery: {StatusPending, StatusPrepared, StatusInTransit, StatusDelivered, StatusCancelled},
	KindSale:     {StatusDraft, StatusConfirmed, StatusCancelled},
}

// DefaultStatus é o status inicial de um novo documento.
func (k FormKind) DefaultStatus() RecordStatus {
	if k == KindSale {
		return StatusDraft
	}
	return StatusPending
}

// AllowsStatus informa se o status pertence ao tipo de documento.
func (k FormKind) AllowsStatus(s RecordStatus) bool {
	for _, allowed := range statusesByKind[k] {
		if allowed == s {
			return true
		}
	}
	return false
}

// Completes é verdadeiro para transições que representam uma ação física concluída.
func (s RecordStatus) Completes() bool {
	return s == StatusDelivered || s == StatusConfirmed
}

// Reserves indica se o status mantém reserva de estoque aberta.
func (s RecordStatus) Reserves() bool {
	return s != StatusCancelled && !s.Completes()
}

// LineItem é uma linha de produto/variação com quantidade dentro do formulário.
type LineItem struct {
	ID                       string           `json:"id"`
	Selection                ProductSelection `json:"selection"`
	ProductName              string           `json:"product_name,omitempty"`
	LocationID               string           `json:"location_id"`
	LocationName             string           `json:"location_name,omitempty"`
	RequestedQuantity        int              `json:"requested_quantity"`
	OriginalReservedQuantity int              `json:"original_reserved_quantity"`
	OriginalKey              *StockKey        `json:"original_key,omitempty"` // chave da reserva original (modo edição)
	ConfirmedQuantity        int              `json:"confirmed_quantity"`
	UnitPrice                decimal.Decimal  `json:"unit_price"`
}

// Key deriva a chave de estoque da linha.
func (i LineItem) Key() StockKey {
	return StockKey{
		LocationID:  i.LocationID,
		ProductID:   i.Selection.ProductID,
		VariationID: i.Selection.VariationID,
	}
}

// HoldsOriginalReservation informa se a reserva original ainda se aplica à chave atual da linha.
func (i LineItem) HoldsOriginalReservation() bool {
	return i.OriginalKey != nil && *i.OriginalKey == i.Key() && i.OriginalReservedQuantity > 0
}

// DisplayName é o nome usado nas mensagens ao usuário.
func (i LineItem) DisplayName() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	return i.Selection.ProductID
}

// DisplayLocation é o nome do local usado nas mensagens ao usuário.
func (i LineItem) DisplayLocation() string {
	if i.LocationName != "" {
		return i.LocationName
	}
	return i.LocationID
}

// Violation descreve um problema de validação de um campo do formulário.
type Violation struct {
	FieldPath string `json:"field_path"`
	Message   string `json:"message"`
}

// ValidationResult agrega todas as violações encontradas, na ordem em que foram detectadas.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}
