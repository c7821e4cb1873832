package stockrepo

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"goerp/internal/domain"
	"goerp/internal/errors"
	"goerp/internal/pkg/logger"
)

// StockRepository lê e ajusta a tabela stock_levels.
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// nullable converte o ID de variação vazio em NULL.
func nullable(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

// GetSnapshot busca o estoque de uma chave. Chave sem linha na tabela significa estoque zerado.
func (r *StockRepository) GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error) {
	r.logger.Debug("Buscando snapshot de estoque no repositório.", map[string]interface{}{"key": key.String()})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT quantity, reserved_quantity, GREATEST(quantity - reserved_quantity, 0)
        FROM stock_levels
        WHERE location_id = $1 AND product_id = $2 AND variation_id IS NOT DISTINCT FROM $3`

	snap := domain.StockSnapshot{Key: key}
	err := r.DB.QueryRowContext(ctxTimeout, query, key.LocationID, key.ProductID, nullable(key.VariationID)).Scan(
		&snap.Quantity, &snap.ReservedQuantity, &snap.AvailableQuantity,
	)

	if err == sql.ErrNoRows {
		r.logger.Info("Estoque inexistente para a chave, considerando zero.", map[string]interface{}{"key": key.String()})
		return domain.ZeroSnapshot(key), nil
	}
	if err != nil {
		r.logger.Error("Falha ao buscar snapshot de estoque no DB.", err)
		return domain.StockSnapshot{}, errors.NewDBError("Falha ao buscar estoque", err)
	}

	snap.FetchedAt = time.Now().UTC()
	r.logger.Debug("Snapshot de estoque encontrado.", map[string]interface{}{
		"key":       key.String(),
		"quantity":  snap.Quantity,
		"reserved":  snap.ReservedQuantity,
		"available": snap.AvailableQuantity,
	})
	return snap, nil
}

// LockLevels bloqueia (FOR UPDATE) as linhas de estoque das chaves dentro da transação.
// As chaves são travadas em ordem para evitar deadlock entre transações concorrentes.
// Chaves sem linha voltam como Level novo (Version 0), inserido por SaveLevels.
func LockLevels(ctx context.Context, tx *sql.Tx, keys []domain.StockKey) (map[string]*Level, error) {
	unique := make(map[string]domain.StockKey, len(keys))
	for _, k := range keys {
		unique[k.String()] = k
	}
	ordered := make([]string, 0, len(unique))
	for s := range unique {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	query := `
        SELECT id, quantity, reserved_quantity, version
        FROM stock_levels
        WHERE location_id = $1 AND product_id = $2 AND variation_id IS NOT DISTINCT FROM $3
        FOR UPDATE`

	levels := make(map[string]*Level, len(ordered))
	for _, s := range ordered {
		key := unique[s]
		lvl := &Level{Key: key}
		err := tx.QueryRowContext(ctx, query, key.LocationID, key.ProductID, nullable(key.VariationID)).Scan(
			&lvl.ID, &lvl.Quantity, &lvl.Reserved, &lvl.Version,
		)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.NewDBError(fmt.Sprintf("Falha ao bloquear estoque %s", s), err)
		}
		levels[s] = lvl
	}
	return levels, nil
}

// SaveLevels grava os níveis alterados com controle de concorrência otimista (OCC).
func SaveLevels(ctx context.Context, tx *sql.Tx, levels map[string]*Level) error {
	now := time.Now().UTC()

	for s, lvl := range levels {
		if !lvl.dirty {
			continue
		}

		// 1. Nível inexistente: inserção inicial
		if lvl.Version == 0 {
			if lvl.ID == "" {
				lvl.ID = uuid.New().String()
			}
			queryInsert := `
                INSERT INTO stock_levels (id, location_id, product_id, variation_id, quantity, reserved_quantity, version, created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $7)`
			if _, err := tx.ExecContext(ctx, queryInsert,
				lvl.ID, lvl.Key.LocationID, lvl.Key.ProductID, nullable(lvl.Key.VariationID), lvl.Quantity, lvl.Reserved, now,
			); err != nil {
				return errors.NewDBError(fmt.Sprintf("Falha ao inserir estoque %s", s), err)
			}
			lvl.Version = 1
			lvl.dirty = false
			continue
		}

		// 2. Atualização checando a versão lida no bloqueio
		queryUpdate := `
            UPDATE stock_levels
            SET quantity = $1, reserved_quantity = $2, version = $3, updated_at = $4
            WHERE id = $5 AND version = $6`
		result, err := tx.ExecContext(ctx, queryUpdate,
			lvl.Quantity, lvl.Reserved, lvl.Version+1, now, lvl.ID, lvl.Version,
		)
		if err != nil {
			return errors.NewDBError(fmt.Sprintf("Falha ao atualizar estoque %s", s), err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return errors.NewDBError("Falha ao verificar linhas afetadas", err)
		}
		if rowsAffected == 0 {
			// Erro de concorrência otimista: o registro foi modificado por outra transação.
			return errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
		}
		lvl.Version++
		lvl.dirty = false
	}
	return nil
}
