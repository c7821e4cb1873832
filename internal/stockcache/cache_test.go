package stockcache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goerp/internal/domain"
	"goerp/internal/pkg/logger"
	"goerp/internal/stockcache"
)

// MockLookup é uma implementação mock da interface Lookup.
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.StockSnapshot), args.Error(1)
}

func newCache(lookup stockcache.Lookup) *stockcache.Cache {
	return stockcache.New(lookup, logger.NewNop(), stockcache.Options{FetchTimeout: time.Second, Concurrency: 2})
}

var keyA = domain.StockKey{LocationID: "wh-1", ProductID: "p-1"}

func TestRefresh_StoresSnapshot(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("GetSnapshot", mock.Anything, keyA).
		Return(domain.StockSnapshot{Quantity: 10, ReservedQuantity: 3, AvailableQuantity: 7}, nil).Once()

	c := newCache(lookup)
	entry := c.Refresh(context.Background(), keyA)

	assert.Equal(t, 7, entry.Snapshot.AvailableQuantity)
	assert.Equal(t, keyA, entry.Snapshot.Key)
	assert.Empty(t, entry.Warning)

	cached, ok := c.Get(keyA)
	require.True(t, ok)
	assert.Equal(t, entry, cached)
	lookup.AssertExpectations(t)
}

func TestRefresh_FailureStoresZeroSnapshotWithWarning(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("GetSnapshot", mock.Anything, keyA).
		Return(domain.StockSnapshot{}, errors.New("serviço de estoque indisponível")).Once()

	c := newCache(lookup)
	entry := c.Refresh(context.Background(), keyA)

	assert.Equal(t, 0, entry.Snapshot.Quantity)
	assert.Equal(t, 0, entry.Snapshot.ReservedQuantity)
	assert.Equal(t, 0, entry.Snapshot.AvailableQuantity)
	assert.Contains(t, entry.Warning, "serviço de estoque indisponível")

	cached, ok := c.Get(keyA)
	require.True(t, ok)
	assert.NotEmpty(t, cached.Warning)
}

func TestRefresh_IncompleteKeyDoesNotFetch(t *testing.T) {
	lookup := new(MockLookup)
	c := newCache(lookup)

	entry := c.Refresh(context.Background(), domain.StockKey{ProductID: "p-1"})

	assert.NotEmpty(t, entry.Warning)
	lookup.AssertNotCalled(t, "GetSnapshot", mock.Anything, mock.Anything)
}

func TestInvalidate_DropsEntry(t *testing.T) {
	lookup := new(MockLookup)
	lookup.On("GetSnapshot", mock.Anything, keyA).Return(domain.NewStockSnapshot(keyA, 5, 0), nil)

	c := newCache(lookup)
	c.Refresh(context.Background(), keyA)
	c.Invalidate(keyA)

	_, ok := c.Get(keyA)
	assert.False(t, ok)
}

// blockingLookup segura a resposta até release ser fechado.
type blockingLookup struct {
	started chan struct{}
	release chan struct{}
	snap    domain.StockSnapshot
}

func (b *blockingLookup) GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error) {
	close(b.started)
	<-b.release
	return b.snap, nil
}

func TestRefresh_LateResponseAfterInvalidateIsDiscarded(t *testing.T) {
	lookup := &blockingLookup{
		started: make(chan struct{}),
		release: make(chan struct{}),
		snap:    domain.NewStockSnapshot(keyA, 50, 0),
	}
	c := newCache(lookup)

	var (
		wg    sync.WaitGroup
		entry domain.StockEntry
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		entry = c.Refresh(context.Background(), keyA)
	}()

	<-lookup.started
	c.Invalidate(keyA) // a linha mudou de produto enquanto a consulta estava em voo
	close(lookup.release)
	wg.Wait()

	assert.True(t, entry.Stale)
	_, ok := c.Get(keyA)
	assert.False(t, ok, "resposta antiga não pode sobrescrever o cache")
}

func TestRefreshAll_OneFailureDoesNotBlockOthers(t *testing.T) {
	keyB := domain.StockKey{LocationID: "wh-1", ProductID: "p-2", VariationID: "v-1"}

	lookup := new(MockLookup)
	lookup.On("GetSnapshot", mock.Anything, keyA).Return(domain.StockSnapshot{}, errors.New("timeout")).Once()
	lookup.On("GetSnapshot", mock.Anything, keyB).Return(domain.NewStockSnapshot(keyB, 8, 2), nil).Once()

	c := newCache(lookup)
	results := c.RefreshAll(context.Background(), []domain.StockKey{keyA, keyB, keyB})

	require.Len(t, results, 2)
	assert.NotEmpty(t, results[keyA.String()].Warning)
	assert.Equal(t, 6, results[keyB.String()].Snapshot.AvailableQuantity)
	assert.Len(t, c.Entries(), 2)
	lookup.AssertExpectations(t)
}

func TestRefreshAll_KeysWithSeparatorInIDsDoNotCollide(t *testing.T) {
	base := domain.StockKey{LocationID: "w1", ProductID: "p1:v1"}
	variation := domain.StockKey{LocationID: "w1", ProductID: "p1", VariationID: "v1"}
	require.NotEqual(t, base.String(), variation.String())

	lookup := new(MockLookup)
	lookup.On("GetSnapshot", mock.Anything, base).
		Return(domain.StockSnapshot{Quantity: 10, AvailableQuantity: 10}, nil).Once()
	lookup.On("GetSnapshot", mock.Anything, variation).
		Return(domain.StockSnapshot{Quantity: 100, AvailableQuantity: 100}, nil).Once()

	c := newCache(lookup)
	results := c.RefreshAll(context.Background(), []domain.StockKey{base, variation})

	require.Len(t, results, 2)
	assert.Equal(t, 10, results[base.String()].Snapshot.AvailableQuantity)
	assert.Equal(t, 100, results[variation.String()].Snapshot.AvailableQuantity)

	cachedBase, ok := c.Get(base)
	require.True(t, ok)
	assert.Equal(t, 10, cachedBase.Snapshot.AvailableQuantity)
	lookup.AssertExpectations(t)
}
