package form

import "goerp/internal/domain"

// EffectiveAvailable é o teto de quantidade de uma linha.
//
// Em criação é o disponível do snapshot. Em edição soma-se a reserva que o próprio
// registro já fazia para a mesma chave, para que o usuário não seja bloqueado pela
// sua própria reserva. A regra vale igualmente para entregas e vendas.
func EffectiveAvailable(mode domain.FormMode, item domain.LineItem, snapshot domain.StockSnapshot) int {
	ceiling := snapshot.AvailableQuantity
	if mode == domain.ModeEdit && item.HoldsOriginalReservation() {
		ceiling += item.OriginalReservedQuantity
	}
	return ceiling
}
