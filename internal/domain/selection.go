package domain

import "fmt"

// SelectionKind diferencia produto base de variação.
type SelectionKind string

const (
	SelectionBase      SelectionKind = "base"
	SelectionVariation SelectionKind = "variation"
)

// ProductSelection é a escolha de produto de uma linha, resolvida uma única vez
// no momento da seleção.
type ProductSelection struct {
	Kind        SelectionKind `json:"kind"`
	ProductID   string        `json:"product_id"`
	VariationID string        `json:"variation_id,omitempty"`
}

// BaseProduct seleciona o produto sem variação.
func BaseProduct(productID string) ProductSelection {
	return ProductSelection{Kind: SelectionBase, ProductID: productID}
}

// ProductVariation seleciona uma variação específica do produto.
func ProductVariation(productID, variationID string) ProductSelection {
	return ProductSelection{Kind: SelectionVariation, ProductID: productID, VariationID: variationID}
}

// IsZero indica que nenhum produto foi escolhido.
func (s ProductSelection) IsZero() bool {
	return s.ProductID == ""
}

// Validate rejeita combinações inconsistentes de Kind e IDs.
func (s ProductSelection) Validate() error {
	switch s.Kind {
	case SelectionBase:
		if s.ProductID == "" {
			return fmt.Errorf("seleção base sem produto")
		}
		if s.VariationID != "" {
			return fmt.Errorf("seleção base não pode ter variação")
		}
	case SelectionVariation:
		if s.ProductID == "" || s.VariationID == "" {
			return fmt.Errorf("seleção de variação exige produto e variação")
		}
	default:
		return fmt.Errorf("tipo de seleção desconhecido: %q", s.Kind)
	}
	return nil
}

// SelectionPair identifica o par (produto, variação); é comparável e serve de chave de mapa.
type SelectionPair struct {
	ProductID   string
	VariationID string
}

// PairKey identifica o par (produto, variação) para detectar linhas duplicadas.
func (s ProductSelection) PairKey() SelectionPair {
	return SelectionPair{ProductID: s.ProductID, VariationID: s.VariationID}
}
