package recordrepo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/repository/recordrepo"
	"goerp/internal/repository/stockrepo"
)

var keyA = domain.StockKey{LocationID: "wh-1", ProductID: "p-1"}

func levels(qty, reserved int) map[string]*stockrepo.Level {
	return map[string]*stockrepo.Level{
		keyA.String(): {ID: "sl-1", Key: keyA, Quantity: qty, Reserved: reserved, Version: 1},
	}
}

func record(status domain.RecordStatus, qty, confirmed int) domain.Record {
	return domain.Record{
		ID:     "rec-1",
		Kind:   domain.KindDelivery,
		Status: status,
		Items: []domain.RecordItem{
			{ID: "it-1", LocationID: "wh-1", ProductID: "p-1", Quantity: qty, ConfirmedQuantity: confirmed},
		},
	}
}

func TestReconcileStock_CreateReserves(t *testing.T) {
	lv := levels(10, 3)
	rec := record(domain.StatusPending, 7, 0)

	require.NoError(t, recordrepo.ReconcileStock(lv, nil, &rec))

	assert.Equal(t, 7, rec.Items[0].ReservedQuantity)
	assert.Equal(t, 10, lv[keyA.String()].Reserved)
}

func TestReconcileStock_CreateRejectsAboveAvailable(t *testing.T) {
	rec := record(domain.StatusPending, 8, 0)

	err := recordrepo.ReconcileStock(levels(10, 3), nil, &rec)

	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "p-1")
	assert.Contains(t, err.Error(), "disponível 7")
}

func TestReconcileStock_UpdateAddsBackPreviousReservation(t *testing.T) {
	// {10, 3, 7}: 2 das 3 reservas são do próprio registro.
	previous := []domain.RecordItem{{ID: "it-1", LocationID: "wh-1", ProductID: "p-1", Quantity: 2, ReservedQuantity: 2}}

	ok := record(domain.StatusDelivered, 9, 9)
	lv := levels(10, 3)
	require.NoError(t, recordrepo.ReconcileStock(lv, previous, &ok))
	assert.Equal(t, 1, lv[keyA.String()].Quantity)
	assert.Equal(t, 1, lv[keyA.String()].Reserved)
	assert.Zero(t, ok.Items[0].ReservedQuantity, "entrega concluída não mantém reserva")

	tooMuch := record(domain.StatusDelivered, 10, 10)
	err := recordrepo.ReconcileStock(levels(10, 3), previous, &tooMuch)
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestReconcileStock_CancelReleasesEverything(t *testing.T) {
	previous := []domain.RecordItem{{ID: "it-1", LocationID: "wh-1", ProductID: "p-1", Quantity: 3, ReservedQuantity: 3}}
	rec := record(domain.StatusCancelled, 3, 0)
	lv := levels(10, 3)

	require.NoError(t, recordrepo.ReconcileStock(lv, previous, &rec))

	assert.Zero(t, lv[keyA.String()].Reserved)
	assert.Equal(t, 10, lv[keyA.String()].Quantity)
	assert.Zero(t, rec.Items[0].ReservedQuantity)
}

func TestReconcileStock_MissingLevelIsInternalError(t *testing.T) {
	rec := record(domain.StatusPending, 1, 0)
	rec.Items[0].ProductID = "p-desconhecido"

	err := recordrepo.ReconcileStock(levels(10, 0), nil, &rec)
	assert.IsType(t, &apperror.InternalError{}, err)
}
