package stockservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/pkg/logger"
	"goerp/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.StockSnapshot), args.Error(1)
}

func TestGetSnapshot_Success(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	key := domain.StockKey{LocationID: "wh-1", ProductID: "p-1", VariationID: "v-1"}
	mockRepo.On("GetSnapshot", mock.Anything, key).Return(domain.NewStockSnapshot(key, 10, 3), nil)

	snap, err := svc.GetSnapshot(context.Background(), domain.StockKey{LocationID: " wh-1 ", ProductID: "p-1", VariationID: "v-1"})

	assert.NoError(t, err)
	assert.Equal(t, 7, snap.AvailableQuantity)
	mockRepo.AssertExpectations(t)
}

func TestGetSnapshot_Fail_IncompleteKey(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	_, err := svc.GetSnapshot(context.Background(), domain.StockKey{ProductID: "p-1"})

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetSnapshot", mock.Anything, mock.Anything)
}

func TestGetSnapshot_Fail_RepositoryError(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewNop())

	key := domain.StockKey{LocationID: "wh-1", ProductID: "p-1"}
	mockRepo.On("GetSnapshot", mock.Anything, key).
		Return(domain.StockSnapshot{}, apperror.NewDBError("Falha ao buscar estoque", context.DeadlineExceeded))

	_, err := svc.GetSnapshot(context.Background(), key)

	assert.IsType(t, &apperror.InternalError{}, err)
	assert.Contains(t, err.Error(), "tempo limite")
}
