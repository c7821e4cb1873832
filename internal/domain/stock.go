package domain

import (
	"strconv"
	"time"
)

// StockKey identifica o estoque de um produto (ou variação) em um local.
// O local é um armazém para entregas e uma filial para vendas.
// VariationID vazio significa o produto base, sem variação.
type StockKey struct {
	LocationID  string `json:"location_id"`
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
}

// String gera a chave estável usada nos mapas de cache (e no JSON de FormState.Snapshots).
// Cada parte é citada, então IDs contendo ':' não colidem com outra chave.
func (k StockKey) String() string {
	return strconv.Quote(k.LocationID) + ":" + strconv.Quote(k.ProductID) + ":" + strconv.Quote(k.VariationID)
}

// Complete informa se a chave tem local e produto definidos.
func (k StockKey) Complete() bool {
	return k.LocationID != "" && k.ProductID != ""
}

// StockSnapshot é a última leitura conhecida do estoque para uma chave.
// AvailableQuantity vem da fonte de estoque e não é recalculado aqui.
type StockSnapshot struct {
	Key               StockKey  `json:"key"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	FetchedAt         time.Time `json:"fetched_at"`
}

// NewStockSnapshot monta um snapshot para fontes que não enviam o disponível.
func NewStockSnapshot(key StockKey, quantity, reserved int) StockSnapshot {
	available := quantity - reserved
	if available < 0 {
		available = 0
	}
	return StockSnapshot{
		Key:               key,
		Quantity:          quantity,
		ReservedQuantity:  reserved,
		AvailableQuantity: available,
		FetchedAt:         time.Now().UTC(),
	}
}

// ZeroSnapshot é o snapshot registrado quando a consulta de estoque falha.
func ZeroSnapshot(key StockKey) StockSnapshot {
	return StockSnapshot{Key: key, FetchedAt: time.Now().UTC()}
}

// StockEntry é o conteúdo do cache de estoque de uma sessão de formulário.
// Warning guarda a mensagem de falha da consulta (snapshot zerado).
type StockEntry struct {
	Snapshot StockSnapshot `json:"snapshot"`
	Warning  string        `json:"warning,omitempty"`
	Stale    bool          `json:"-"` // resposta descartada por uma consulta mais nova
}
