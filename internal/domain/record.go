package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record é uma entrega ou venda persistida.
// Inclui uma coluna 'version' para controle de concorrência otimista.
type Record struct {
	ID             string       `json:"id"`
	Kind           FormKind     `json:"kind"`
	LocationID     string       `json:"location_id"`
	CompanyID      string       `json:"company_id,omitempty"`
	DocumentNumber string       `json:"document_number"`
	PreparedDate   time.Time    `json:"prepared_date"`
	Status         RecordStatus `json:"status"`
	Notes          string       `json:"notes,omitempty"`
	Items          []RecordItem `json:"items"`
	Version        int          `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RecordItem é uma linha persistida. ReservedQuantity é o que a linha mantém
// reservado no estoque enquanto o registro está aberto.
type RecordItem struct {
	ID                string          `json:"id"`
	RecordID          string          `json:"record_id"`
	LocationID        string          `json:"location_id"`
	ProductID         string          `json:"product_id"`
	VariationID       string          `json:"variation_id,omitempty"`
	Quantity          int             `json:"quantity"`
	ReservedQuantity  int             `json:"reserved_quantity"`
	ConfirmedQuantity int             `json:"confirmed_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

// Key deriva a chave de estoque do item persistido.
func (i RecordItem) Key() StockKey {
	return StockKey{LocationID: i.LocationID, ProductID: i.ProductID, VariationID: i.VariationID}
}
