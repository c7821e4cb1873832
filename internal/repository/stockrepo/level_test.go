package stockrepo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/repository/stockrepo"
)

func level(qty, reserved int) *stockrepo.Level {
	return &stockrepo.Level{
		ID:       "sl-1",
		Key:      domain.StockKey{LocationID: "wh-1", ProductID: "p-1"},
		Quantity: qty,
		Reserved: reserved,
		Version:  1,
	}
}

func TestLevel_Available(t *testing.T) {
	assert.Equal(t, 7, level(10, 3).Available())
	assert.Equal(t, 0, level(2, 5).Available(), "reserva maior que o físico não gera saldo negativo")
}

func TestLevel_ReserveWithinAvailable(t *testing.T) {
	l := level(10, 3)

	assert.NoError(t, l.Reserve(7))
	assert.Equal(t, 10, l.Reserved)
	assert.Equal(t, 0, l.Available())

	err := l.Reserve(1)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "disponível 0")
}

func TestLevel_ReleaseThenReserve(t *testing.T) {
	// Edição de um registro que já reservava 2: a reserva antiga volta antes da nova.
	l := level(10, 5)
	l.Release(2)

	assert.Equal(t, 7, l.Available())
	assert.NoError(t, l.Reserve(7))
	assert.Equal(t, 10, l.Reserved)
}

func TestLevel_ReleaseNeverNegative(t *testing.T) {
	l := level(10, 1)
	l.Release(4)
	assert.Equal(t, 0, l.Reserved)
}

func TestLevel_Consume(t *testing.T) {
	l := level(10, 3)

	assert.NoError(t, l.Consume(7))
	assert.Equal(t, 3, l.Quantity)
	assert.Equal(t, 3, l.Reserved)

	assert.IsType(t, &apperror.ConflictError{}, l.Consume(1))
}
