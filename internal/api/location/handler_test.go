package location_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goerp/internal/api/location"
	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/pkg/logger"
)

// MockLocationService é uma implementação mock da interface LocationService.
type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) ListLocations(ctx context.Context, kind domain.LocationKind) ([]domain.Location, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func list(svc *MockLocationService, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	location.NewHandler(svc, logger.NewNop()).ListLocationsHandler(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListLocationsHandler_PassesKind(t *testing.T) {
	svc := new(MockLocationService)
	svc.On("ListLocations", mock.Anything, domain.LocationBranch).
		Return([]domain.Location{{ID: "br-1", Kind: domain.LocationBranch, Name: "Filial Centro"}}, nil).Once()

	rec := list(svc, "/v1/locations?kind=branch")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Filial Centro", got[0].Name)
	svc.AssertExpectations(t)
}

func TestListLocationsHandler_InvalidKindIsBadRequest(t *testing.T) {
	svc := new(MockLocationService)
	svc.On("ListLocations", mock.Anything, domain.LocationKind("")).
		Return(nil, apperror.NewValidationError("O tipo de local deve ser 'warehouse' ou 'branch'.")).Once()

	rec := list(svc, "/v1/locations")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLocationsHandler_RepositoryFailureIsInternalError(t *testing.T) {
	svc := new(MockLocationService)
	svc.On("ListLocations", mock.Anything, domain.LocationWarehouse).
		Return(nil, apperror.NewInternalError("Falha interna ao buscar locais.", errors.New("conexão recusada"))).Once()

	rec := list(svc, "/v1/locations?kind=warehouse")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
