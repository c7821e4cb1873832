package stockservice

import (
	"context"
	"strings"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/pkg/logger"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error)
}

// Service é a fonte de snapshots de estoque usada pela API e pelo cache das sessões de formulário.
type Service struct {
	repo   StockRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetSnapshot valida a chave e consulta o estoque atual.
func (s *Service) GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error) {
	key = domain.StockKey{
		LocationID:  strings.TrimSpace(key.LocationID),
		ProductID:   strings.TrimSpace(key.ProductID),
		VariationID: strings.TrimSpace(key.VariationID),
	}
	s.logger.Debug("Iniciando consulta de estoque no serviço.", map[string]interface{}{"key": key.String()})

	if !key.Complete() {
		s.logger.Warn("Chave de estoque incompleta.", map[string]interface{}{"key": key.String()})
		return domain.StockSnapshot{}, apperror.NewValidationError("Informe o local (location_id) e o produto (product_id).")
	}

	snap, err := s.repo.GetSnapshot(ctx, key)
	if err != nil {
		s.logger.Error("Falha ao consultar estoque no repositório.", err)
		return domain.StockSnapshot{}, err // Erros do repositório já são AppError
	}

	// A fonte pode não informar o disponível; nunca é negativo.
	if snap.AvailableQuantity < 0 {
		snap.AvailableQuantity = 0
	}

	s.logger.Info("Estoque consultado.", map[string]interface{}{
		"key":       key.String(),
		"available": snap.AvailableQuantity,
	})
	return snap, nil
}
