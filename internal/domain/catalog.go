package domain

import "time"

// LocationKind diferencia armazéns (entregas) de filiais (vendas).
type LocationKind string

const (
	LocationWarehouse LocationKind = "warehouse"
	LocationBranch    LocationKind = "branch"
)

// Location representa um armazém ou filial.
type Location struct {
	ID        string       `json:"id"`
	Kind      LocationKind `json:"kind"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Product representa o item principal do catálogo.
type Product struct {
	ID         string      `json:"id"`
	SKU        string      `json:"sku"` // Stock Keeping Unit
	Name       string      `json:"name"`
	IsActive   bool        `json:"is_active"`
	Variations []Variation `json:"variations"`
}

// Variation representa as variações de um Produto (e.g., cor, tamanho).
type Variation struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Attribute string `json:"attribute"` // Ex: "Cor"
	Value     string `json:"value"`     // Ex: "Vermelho"
}

// LabelFor monta o nome exibido de uma seleção ("Camiseta (Cor: Azul)").
func (p Product) LabelFor(sel ProductSelection) string {
	if sel.Kind != SelectionVariation {
		return p.Name
	}
	for _, v := range p.Variations {
		if v.ID == sel.VariationID {
			return p.Name + " (" + v.Attribute + ": " + v.Value + ")"
		}
	}
	return p.Name
}
