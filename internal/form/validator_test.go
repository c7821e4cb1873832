package form_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goerp/internal/domain"
	"goerp/internal/form"
)

func validHeader(status domain.RecordStatus) form.Header {
	date := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return form.Header{
		LocationID:     "wh-1",
		LocationName:   "Armazém Central",
		DocumentNumber: "ENT-0001",
		PreparedDate:   &date,
		Status:         status,
	}
}

func lineItem(id, productID string, qty int) domain.LineItem {
	return domain.LineItem{
		ID:                id,
		Selection:         domain.BaseProduct(productID),
		ProductName:       "Produto " + productID,
		LocationID:        "wh-1",
		LocationName:      "Armazém Central",
		RequestedQuantity: qty,
	}
}

func deliveryState(items ...domain.LineItem) form.FormState {
	s := form.New("form-1", domain.KindDelivery)
	s.Header = validHeader(domain.StatusPending)
	s.Items = items
	return s
}

func snapshots(entries ...domain.StockEntry) map[string]domain.StockEntry {
	out := map[string]domain.StockEntry{}
	for _, e := range entries {
		out[e.Snapshot.Key.String()] = e
	}
	return out
}

func entry(key domain.StockKey, qty, reserved, available int) domain.StockEntry {
	return domain.StockEntry{Snapshot: domain.StockSnapshot{Key: key, Quantity: qty, ReservedQuantity: reserved, AvailableQuantity: available}}
}

func paths(r domain.ValidationResult) []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.FieldPath)
	}
	return out
}

func TestValidate_ValidDelivery(t *testing.T) {
	item := lineItem("i1", "p-1", 3)
	result := form.Validate(deliveryState(item), snapshots(entry(item.Key(), 10, 0, 10)))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Violations)
}

func TestValidate_ZeroItemsAlwaysRejected(t *testing.T) {
	result := form.Validate(deliveryState(), nil)

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"items"}, paths(result))
}

func TestValidate_HeaderRequiredFields(t *testing.T) {
	s := form.New("form-1", domain.KindSale)
	s.Items = []domain.LineItem{lineItem("i1", "p-1", 1)}

	result := form.Validate(s, nil)

	assert.False(t, result.Valid)
	assert.ElementsMatch(t, []string{"header.location_id", "header.document_number", "header.prepared_date"}, paths(result))
	assert.Contains(t, result.Violations[0].Message, "Filial")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	s := form.New("form-1", domain.KindDelivery)
	s.Items = []domain.LineItem{
		// sem produto, sem local, quantidade 0
		{ID: "i1"},
		lineItem("i2", "p-1", 0),
		// duplicada com i2
		lineItem("i3", "p-1", 1),
	}

	result := form.Validate(s, nil)

	assert.False(t, result.Valid)
	assert.Subset(t, paths(result), []string{
		"header.location_id",
		"header.document_number",
		"header.prepared_date",
		"items[0].selection",
		"items[0].location_id",
		"items[0].requested_quantity",
		"items[1].requested_quantity",
		"items[2].selection",
	})
}

func TestValidate_RejectsQuantityBelowOne(t *testing.T) {
	for _, qty := range []int{0, -1, -50} {
		item := lineItem("i1", "p-1", qty)
		result := form.Validate(deliveryState(item), snapshots(entry(item.Key(), 100, 0, 100)))
		assert.False(t, result.Valid, "qty=%d", qty)
		assert.Contains(t, paths(result), "items[0].requested_quantity")
	}
}

func TestValidate_RejectsDuplicateProductVariation(t *testing.T) {
	a := lineItem("i1", "p-1", 1)
	b := lineItem("i2", "p-1", 1)
	b.LocationID = "wh-2" // mesmo par produto/variação em outro armazém ainda é duplicado

	result := form.Validate(deliveryState(a, b), nil)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"items[1].selection"}, paths(result))

	// variações diferentes do mesmo produto são permitidas
	c := lineItem("i3", "p-1", 1)
	c.Selection = domain.ProductVariation("p-1", "v-azul")
	result = form.Validate(deliveryState(a, c), nil)
	assert.True(t, result.Valid)
}

func TestValidate_CreateModeCeilingNamesProductAndCeiling(t *testing.T) {
	item := lineItem("i1", "p-1", 6)
	item.ProductName = "Parafuso 3mm"

	result := form.Validate(deliveryState(item), snapshots(entry(item.Key(), 5, 0, 5)))

	require.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	msg := result.Violations[0].Message
	assert.Equal(t, "items[0].requested_quantity", result.Violations[0].FieldPath)
	assert.Contains(t, msg, "Parafuso 3mm")
	assert.Contains(t, msg, "Armazém Central")
	assert.Contains(t, msg, "(6)")
	assert.Contains(t, msg, "(5)")
}

func TestValidate_EditModeDeliveredQuantity(t *testing.T) {
	key := domain.StockKey{LocationID: "wh-1", ProductID: "p-1"}
	snap := snapshots(entry(key, 10, 3, 7))

	build := func(delivered int) form.FormState {
		item := lineItem("i1", "p-1", delivered)
		item.OriginalReservedQuantity = 2
		item.OriginalKey = &key
		item.ConfirmedQuantity = delivered

		s := deliveryState(item)
		s.Mode = domain.ModeEdit
		s.RecordID = "rec-1"
		s.Header.Status = domain.StatusDelivered
		return s
	}

	assert.True(t, form.Validate(build(9), snap).Valid, "7 disponíveis + 2 reservados pelo próprio registro = 9")

	rejected := form.Validate(build(10), snap)
	assert.False(t, rejected.Valid)
	assert.Contains(t, paths(rejected), "items[0].confirmed_quantity")
	for _, v := range rejected.Violations {
		assert.Contains(t, v.Message, "(9)")
	}
}

func TestValidate_CompletingStatusRequiresConfirmedQuantity(t *testing.T) {
	item := lineItem("i1", "p-1", 2)
	s := deliveryState(item)
	s.Header.Status = domain.StatusDelivered

	result := form.Validate(s, snapshots(entry(item.Key(), 10, 0, 10)))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"items[0].confirmed_quantity"}, paths(result))
	assert.Contains(t, result.Violations[0].Message, "Quantidade entregue")
}

func TestValidate_FetchWarningIsReportedAndOtherLinesStillEvaluated(t *testing.T) {
	failing := lineItem("i1", "p-1", 1)
	other := lineItem("i2", "p-2", 0)

	snaps := snapshots(
		domain.StockEntry{Snapshot: domain.ZeroSnapshot(failing.Key()), Warning: "Não foi possível consultar o estoque: timeout"},
		entry(other.Key(), 10, 0, 10),
	)
	result := form.Validate(deliveryState(failing, other), snaps)

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"items[0].requested_quantity", "items[1].requested_quantity"}, paths(result))
	assert.True(t, strings.Contains(result.Violations[0].Message, "timeout"))
}

func TestValidate_SaleNegativePrice(t *testing.T) {
	item := lineItem("i1", "p-1", 1)
	item.UnitPrice = decimal.NewFromInt(-1)

	s := form.New("form-2", domain.KindSale)
	s.Header = validHeader(domain.StatusDraft)
	s.Items = []domain.LineItem{item}

	result := form.Validate(s, nil)
	assert.Equal(t, []string{"items[0].unit_price"}, paths(result))
}

func TestValidate_StatusMustMatchKind(t *testing.T) {
	item := lineItem("i1", "p-1", 1)
	s := deliveryState(item)
	s.Header.Status = domain.StatusConfirmed // status de venda numa entrega

	result := form.Validate(s, nil)
	assert.Contains(t, paths(result), "header.status")
}

func TestValidate_SeparatorInIDsUsesOwnSnapshot(t *testing.T) {
	// Produto base "p1:v1" e variação v1 do produto p1 são estoques distintos.
	item := lineItem("i1", "p1:v1", 50)
	other := domain.StockKey{LocationID: "wh-1", ProductID: "p1", VariationID: "v1"}

	result := form.Validate(deliveryState(item), snapshots(
		entry(item.Key(), 10, 0, 10),
		entry(other, 100, 0, 100),
	))

	assert.False(t, result.Valid)
	assert.Contains(t, paths(result), "items[0].requested_quantity")
}

func TestValidate_SeparatorInIDsIsNotDuplicate(t *testing.T) {
	base := lineItem("i1", "p|1", 1)
	variation := lineItem("i2", "p", 1)
	variation.Selection = domain.ProductVariation("p", "1|")

	result := form.Validate(deliveryState(base, variation), snapshots(
		entry(base.Key(), 10, 0, 10),
		entry(variation.Key(), 10, 0, 10),
	))

	assert.True(t, result.Valid, "violações: %v", result.Violations)
}
