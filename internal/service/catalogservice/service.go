package catalogservice

import (
	"context"
	"fmt"
	"strings"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/pkg/logger"
)

// CatalogRepository define o contrato que o Serviço de Catálogo espera da camada de Persistência.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetLocation(ctx context.Context, id string) (domain.Location, error)
	ListLocations(ctx context.Context, kind domain.LocationKind) ([]domain.Location, error)
}

// Service expõe os dados de referência (armazéns, filiais e nomes de produtos).
type Service struct {
	repo   CatalogRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo CatalogRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListLocations lista os armazéns ou as filiais.
func (s *Service) ListLocations(ctx context.Context, kind domain.LocationKind) ([]domain.Location, error) {
	s.logger.Debug("Iniciando listagem de locais no serviço.", map[string]interface{}{"kind": kind})

	kind = domain.LocationKind(strings.ToLower(strings.TrimSpace(string(kind))))
	if kind != domain.LocationWarehouse && kind != domain.LocationBranch {
		s.logger.Warn("Tipo de local inválido.", map[string]interface{}{"kind": kind})
		return nil, apperror.NewValidationError("O tipo de local deve ser 'warehouse' ou 'branch'.")
	}

	locations, err := s.repo.ListLocations(ctx, kind)
	if err != nil {
		s.logger.Error("Falha ao listar locais no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao buscar locais.", err)
	}

	s.logger.Info("Locais encontrados com sucesso.", map[string]interface{}{"kind": kind, "count": len(locations)})
	return locations, nil
}

// LocationName resolve o nome de um local, checando se é do tipo esperado.
func (s *Service) LocationName(ctx context.Context, id string, kind domain.LocationKind) (string, error) {
	location, err := s.repo.GetLocation(ctx, id)
	if err != nil {
		return "", err // Erros do repositório já são NotFoundError ou DBError
	}
	if location.Kind != kind {
		return "", apperror.NewValidationError(fmt.Sprintf("O local %s não é um(a) %s.", location.Name, kind))
	}
	return location.Name, nil
}

// ProductLabel resolve o nome exibido da seleção ("Camiseta (Cor: Azul)"),
// rejeitando produtos inativos e variações que não pertencem ao produto.
func (s *Service) ProductLabel(ctx context.Context, sel domain.ProductSelection) (string, error) {
	product, err := s.repo.GetProduct(ctx, sel.ProductID)
	if err != nil {
		return "", err
	}
	if !product.IsActive {
		return "", apperror.NewValidationError(fmt.Sprintf("O produto %s está inativo.", product.Name))
	}
	if sel.Kind == domain.SelectionVariation {
		found := false
		for _, v := range product.Variations {
			if v.ID == sel.VariationID {
				found = true
				break
			}
		}
		if !found {
			return "", apperror.NewValidationError(fmt.Sprintf("A variação %s não pertence ao produto %s.", sel.VariationID, product.Name))
		}
	}
	return product.LabelFor(sel), nil
}
