package catalogrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"goerp/internal/domain"
	"goerp/internal/errors"
	"goerp/internal/pkg/cache"
	"goerp/internal/pkg/logger"
)

// Chaves de cache do catálogo.
const (
	productCacheKey  = "catalog:product:%s"
	locationCacheKey = "catalog:location:%s"
)

// CatalogRepository lê os dados de referência (produtos, variações, armazéns e filiais).
// O catálogo é somente leitura para este serviço; leituras por ID usam Cache-Aside no Redis.
type CatalogRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewCatalogRepository cria e retorna uma nova instância do Repositório de Catálogo.
func NewCatalogRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// readCache tenta preencher target a partir do cache. Falhas do Redis não interrompem a leitura.
func (r *CatalogRepository) readCache(ctx context.Context, key string, target interface{}) bool {
	cached, err := r.Cache.Get(ctx, key)
	if err == nil {
		if json.Unmarshal([]byte(cached), target) == nil {
			r.logger.Debug("Cache HIT no catálogo.", map[string]interface{}{"key": key})
			return true
		}
		r.logger.Warn("Entrada de cache inválida, buscando no DB.", map[string]interface{}{"key": key})
		return false
	}
	if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return false
}

func (r *CatalogRepository) writeCache(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Falha ao serializar entrada de cache.", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar no cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// GetProduct busca um produto e suas variações pelo ID.
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	r.logger.Debug("Iniciando GetProduct no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 1. Cache-Aside (READ)
	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product
	if r.readCache(ctxTimeout, key, &product) {
		return product, nil
	}

	// 2. Banco de Dados
	productSQL := `
        SELECT id, sku, name, is_active
        FROM products
        WHERE id = $1`

	err := r.DB.QueryRowContext(ctxTimeout, productSQL, id).Scan(
		&product.ID, &product.SKU, &product.Name, &product.IsActive,
	)
	if err == sql.ErrNoRows {
		r.logger.Info("Produto não encontrado.", map[string]interface{}{"id": id})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	variationSQL := `
        SELECT id, product_id, attribute, value
        FROM variations
        WHERE product_id = $1
        ORDER BY attribute, value`

	rows, err := r.DB.QueryContext(ctxTimeout, variationSQL, id)
	if err != nil {
		r.logger.Error("Falha ao buscar variações no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar variações", err)
	}
	defer rows.Close()

	product.Variations = []domain.Variation{}
	for rows.Next() {
		var v domain.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Attribute, &v.Value); err != nil {
			r.logger.Error("Falha ao mapear variação.", err)
			return domain.Product{}, errors.NewDBError("Falha ao mapear variações do DB", err)
		}
		product.Variations = append(product.Variations, v)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das variações.", err)
		return domain.Product{}, errors.NewDBError("Erro após iteração de variações", err)
	}

	// 3. Cache-Aside (WRITE)
	r.writeCache(ctxTimeout, key, product)

	r.logger.Info("Produto encontrado.", map[string]interface{}{"id": id, "variations": len(product.Variations)})
	return product, nil
}

// GetLocation busca um armazém ou filial pelo ID.
func (r *CatalogRepository) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	r.logger.Debug("Iniciando GetLocation no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(locationCacheKey, id)
	var location domain.Location
	if r.readCache(ctxTimeout, key, &location) {
		return location, nil
	}

	query := `
        SELECT id, kind, name, created_at, updated_at
        FROM locations
        WHERE id = $1`

	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&location.ID, &location.Kind, &location.Name, &location.CreatedAt, &location.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		r.logger.Info("Local não encontrado.", map[string]interface{}{"id": id})
		return domain.Location{}, errors.NewNotFoundError(fmt.Sprintf("Local com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar local no DB.", err)
		return domain.Location{}, errors.NewDBError("Falha ao buscar local", err)
	}

	r.writeCache(ctxTimeout, key, location)

	r.logger.Info("Local encontrado.", map[string]interface{}{"id": id, "name": location.Name})
	return location, nil
}

// ListLocations busca todos os locais de um tipo (armazéns ou filiais), ordenados por nome.
func (r *CatalogRepository) ListLocations(ctx context.Context, kind domain.LocationKind) ([]domain.Location, error) {
	r.logger.Debug("Iniciando ListLocations no repositório.", map[string]interface{}{"kind": kind})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, kind, name, created_at, updated_at
        FROM locations
        WHERE kind = $1
        ORDER BY name`

	rows, err := r.DB.QueryContext(ctxTimeout, query, kind)
	if err != nil {
		r.logger.Error("Falha ao executar ListLocations query.", err)
		return nil, errors.NewDBError("Falha ao buscar locais", err)
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		var location domain.Location
		if err := rows.Scan(&location.ID, &location.Kind, &location.Name, &location.CreatedAt, &location.UpdatedAt); err != nil {
			r.logger.Error("Falha ao mapear local na iteração de ListLocations.", err)
			return nil, errors.NewDBError("Falha ao mapear locais do DB", err)
		}
		locations = append(locations, location)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de locais.", err)
		return nil, errors.NewDBError("Erro após iteração de locais", err)
	}

	r.logger.Info("ListLocations concluído com sucesso.", map[string]interface{}{"kind": kind, "total": len(locations)})
	return locations, nil
}
