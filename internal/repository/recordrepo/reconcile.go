package recordrepo

import (
	"fmt"

	"goerp/internal/domain"
	"goerp/internal/errors"
	"goerp/internal/repository/stockrepo"
)

// ReconcileStock troca, no estoque travado, as linhas antigas do registro pelas novas.
// A reserva das linhas antigas é devolvida primeiro; depois cada linha nova reserva sua
// quantidade ou, em status de conclusão, consome a quantidade confirmada.
// Preenche ReservedQuantity das linhas de rec. levels deve conter todas as chaves envolvidas.
func ReconcileStock(levels map[string]*stockrepo.Level, previous []domain.RecordItem, rec *domain.Record) error {
	for _, it := range previous {
		if lvl, ok := levels[it.Key().String()]; ok {
			lvl.Release(it.ReservedQuantity)
		}
	}

	for i := range rec.Items {
		it := &rec.Items[i]
		it.ReservedQuantity = 0
		if rec.Status == domain.StatusCancelled {
			continue
		}

		lvl, ok := levels[it.Key().String()]
		if !ok {
			return errors.NewInternalError(fmt.Sprintf("Estoque da chave %s não foi bloqueado.", it.Key()), nil)
		}

		need := it.Quantity
		if rec.Status.Completes() {
			need = it.ConfirmedQuantity
		}
		if need > lvl.Available() {
			return errors.NewConflictError(fmt.Sprintf(
				"Estoque insuficiente para o produto %s no local %s (linha %d): disponível %d, solicitado %d.",
				productLabel(*it), it.LocationID, i+1, lvl.Available(), need,
			))
		}

		if rec.Status.Completes() {
			if err := lvl.Consume(need); err != nil {
				return err
			}
			continue
		}
		if err := lvl.Reserve(need); err != nil {
			return err
		}
		it.ReservedQuantity = need
	}
	return nil
}

func productLabel(it domain.RecordItem) string {
	if it.VariationID == "" {
		return it.ProductID
	}
	return it.ProductID + "/" + it.VariationID
}
