package recordrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"goerp/internal/domain"
	"goerp/internal/errors"
	"goerp/internal/pkg/logger"
	"goerp/internal/repository/stockrepo"
)

// uniqueViolation é o código SQLSTATE do Postgres para violação de UNIQUE.
const uniqueViolation = "23505"

// tableSet descreve onde cada tipo de documento é persistido.
type tableSet struct {
	header    string
	items     string
	fk        string
	location  string
	document  string
	date      string
	confirmed string
	hasPrice  bool
}

var tables = map[domain.FormKind]tableSet{
	domain.KindDelivery: {
		header: "deliveries", items: "delivery_items", fk: "delivery_id",
		location: "warehouse_id", document: "document_number", date: "prepared_date",
		confirmed: "delivered_quantity",
	},
	domain.KindSale: {
		header: "sales", items: "sale_items", fk: "sale_id",
		location: "branch_id", document: "receipt_number", date: "sale_date",
		confirmed: "confirmed_quantity", hasPrice: true,
	},
}

func tablesFor(kind domain.FormKind) (tableSet, error) {
	t, ok := tables[kind]
	if !ok {
		return tableSet{}, errors.NewValidationError(fmt.Sprintf("Tipo de documento desconhecido: %q.", kind))
	}
	return t, nil
}

// queryer é satisfeito por *sql.DB e *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// RecordRepository persiste entregas e vendas, reconciliando o estoque na mesma transação.
type RecordRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewRecordRepository cria e retorna uma nova instância do Repositório de Registros.
func NewRecordRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *RecordRepository {
	return &RecordRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByID busca o registro e suas linhas.
func (r *RecordRepository) FindByID(ctx context.Context, kind domain.FormKind, id string) (domain.Record, error) {
	r.logger.Debug("Iniciando FindByID no repositório de registros.", map[string]interface{}{"kind": kind, "id": id})

	t, err := tablesFor(kind)
	if err != nil {
		return domain.Record{}, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rec, err := loadRecord(ctxTimeout, r.DB, t, kind, id, false)
	if err != nil {
		if _, ok := err.(*errors.NotFoundError); ok {
			r.logger.Info("Registro não encontrado.", map[string]interface{}{"kind": kind, "id": id})
		} else {
			r.logger.Error("Falha ao buscar registro no DB.", err)
		}
		return domain.Record{}, err
	}

	r.logger.Info("Registro encontrado.", map[string]interface{}{"kind": kind, "id": id, "items": len(rec.Items)})
	return rec, nil
}

// Create insere um novo registro e reserva (ou consome) o estoque das linhas.
func (r *RecordRepository) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	return r.save(ctx, rec, false)
}

// Update substitui as linhas de um registro existente. A reserva anterior do registro é
// devolvida ao estoque antes da nova checagem. Usa OCC sobre a coluna version.
func (r *RecordRepository) Update(ctx context.Context, rec domain.Record) (domain.Record, error) {
	return r.save(ctx, rec, true)
}

func (r *RecordRepository) save(ctx context.Context, rec domain.Record, update bool) (domain.Record, error) {
	r.logger.Debug("Iniciando gravação de registro.", map[string]interface{}{
		"kind": rec.Kind, "id": rec.ID, "update": update, "items": len(rec.Items),
	})

	t, err := tablesFor(rec.Kind)
	if err != nil {
		return domain.Record{}, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de registro.", err)
		return domain.Record{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Em edição, bloquear o registro atual e checar a versão
	var previous []domain.RecordItem
	if update {
		current, err := loadRecord(ctxTimeout, tx, t, rec.Kind, rec.ID, true)
		if err != nil {
			return domain.Record{}, err
		}
		if current.Version != rec.Version {
			r.logger.Warn("Versão do registro desatualizada.", map[string]interface{}{
				"id": rec.ID, "expected_version": rec.Version, "current_version": current.Version,
			})
			return domain.Record{}, errors.NewConflictError("O registro foi modificado por outra operação. Recarregue o formulário.")
		}
		if current.Status.Completes() || current.Status == domain.StatusCancelled {
			return domain.Record{}, errors.NewConflictError(fmt.Sprintf("Registro com status %s não pode mais ser alterado.", current.Status))
		}
		previous = current.Items
	} else {
		rec.ID = uuid.New().String()
	}

	for i := range rec.Items {
		if _, err := uuid.Parse(rec.Items[i].ID); err != nil {
			rec.Items[i].ID = uuid.New().String()
		}
		rec.Items[i].RecordID = rec.ID
	}

	// 2. Travar o estoque de todas as chaves envolvidas e reconciliar
	keys := make([]domain.StockKey, 0, len(previous)+len(rec.Items))
	for _, it := range previous {
		keys = append(keys, it.Key())
	}
	for _, it := range rec.Items {
		keys = append(keys, it.Key())
	}
	levels, err := stockrepo.LockLevels(ctxTimeout, tx, keys)
	if err != nil {
		r.logger.Error("Falha ao bloquear estoque.", err)
		return domain.Record{}, err
	}
	if err := ReconcileStock(levels, previous, &rec); err != nil {
		r.logger.Warn("Estoque insuficiente na gravação do registro.", map[string]interface{}{"id": rec.ID, "reason": err.Error()})
		return domain.Record{}, err
	}
	if err := stockrepo.SaveLevels(ctxTimeout, tx, levels); err != nil {
		r.logger.Error("Falha ao gravar estoque.", err)
		return domain.Record{}, err
	}

	// 3. Cabeçalho
	now := time.Now().UTC()
	if update {
		err = r.updateHeader(ctxTimeout, tx, t, &rec, now)
	} else {
		err = r.insertHeader(ctxTimeout, tx, t, &rec, now)
	}
	if err != nil {
		return domain.Record{}, err
	}

	// 4. Linhas (substituídas por completo)
	if _, err := tx.ExecContext(ctxTimeout, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.items, t.fk), rec.ID); err != nil {
		r.logger.Error("Falha ao remover linhas antigas.", err)
		return domain.Record{}, errors.NewDBError("Falha ao remover linhas do registro", err)
	}
	for _, it := range rec.Items {
		if err := insertItem(ctxTimeout, tx, t, it); err != nil {
			r.logger.Error("Falha ao inserir linha do registro.", err)
			return domain.Record{}, errors.NewDBError("Falha ao inserir linha do registro", err)
		}
	}

	// 5. Commit
	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de registro.", commitErr)
		return domain.Record{}, errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Registro gravado com sucesso.", map[string]interface{}{
		"kind": rec.Kind, "id": rec.ID, "status": rec.Status, "version": rec.Version,
	})
	return rec, nil
}

func (r *RecordRepository) insertHeader(ctx context.Context, tx *sql.Tx, t tableSet, rec *domain.Record, now time.Time) error {
	rec.Version = 1
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := fmt.Sprintf(`
        INSERT INTO %s (id, %s, company_id, %s, %s, status, notes, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.header, t.location, t.document, t.date)

	_, err := tx.ExecContext(ctx, query,
		rec.ID, rec.LocationID, nullString(rec.CompanyID), rec.DocumentNumber, rec.PreparedDate,
		rec.Status, nullString(rec.Notes), rec.Version, rec.CreatedAt, rec.UpdatedAt,
	)
	return r.headerError(err, rec, "Falha ao criar registro")
}

func (r *RecordRepository) updateHeader(ctx context.Context, tx *sql.Tx, t tableSet, rec *domain.Record, now time.Time) error {
	query := fmt.Sprintf(`
        UPDATE %s
        SET %s = $1, company_id = $2, %s = $3, %s = $4, status = $5, notes = $6, version = $7, updated_at = $8
        WHERE id = $9 AND version = $10
        RETURNING created_at`,
		t.header, t.location, t.document, t.date)

	err := tx.QueryRowContext(ctx, query,
		rec.LocationID, nullString(rec.CompanyID), rec.DocumentNumber, rec.PreparedDate, rec.Status,
		nullString(rec.Notes), rec.Version+1, now, rec.ID, rec.Version,
	).Scan(&rec.CreatedAt)
	if err == sql.ErrNoRows {
		return errors.NewConflictError("O registro foi modificado por outra operação. Recarregue o formulário.")
	}
	if err := r.headerError(err, rec, "Falha ao atualizar registro"); err != nil {
		return err
	}
	rec.Version++
	rec.UpdatedAt = now
	return nil
}

// headerError traduz a violação de número de documento único para ConflictError.
func (r *RecordRepository) headerError(err error, rec *domain.Record, msg string) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		r.logger.Warn("Número de documento duplicado.", map[string]interface{}{"document_number": rec.DocumentNumber})
		return errors.NewConflictError(fmt.Sprintf("Já existe um registro com o número %s.", rec.DocumentNumber))
	}
	r.logger.Error(msg+".", err)
	return errors.NewDBError(msg, err)
}

func insertItem(ctx context.Context, tx *sql.Tx, t tableSet, it domain.RecordItem) error {
	if t.hasPrice {
		query := fmt.Sprintf(`
            INSERT INTO %s (id, %s, %s, product_id, variation_id, quantity, reserved_quantity, %s, unit_price)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.items, t.fk, t.location, t.confirmed)
		_, err := tx.ExecContext(ctx, query,
			it.ID, it.RecordID, it.LocationID, it.ProductID, nullString(it.VariationID),
			it.Quantity, it.ReservedQuantity, it.ConfirmedQuantity, it.UnitPrice,
		)
		return err
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (id, %s, %s, product_id, variation_id, quantity, reserved_quantity, %s)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.items, t.fk, t.location, t.confirmed)
	_, err := tx.ExecContext(ctx, query,
		it.ID, it.RecordID, it.LocationID, it.ProductID, nullString(it.VariationID),
		it.Quantity, it.ReservedQuantity, it.ConfirmedQuantity,
	)
	return err
}

// loadRecord lê cabeçalho e linhas. forUpdate trava o cabeçalho na transação.
func loadRecord(ctx context.Context, q queryer, t tableSet, kind domain.FormKind, id string, forUpdate bool) (domain.Record, error) {
	query := fmt.Sprintf(`
        SELECT id, %s, company_id, %s, %s, status, notes, version, created_at, updated_at
        FROM %s
        WHERE id = $1`,
		t.location, t.document, t.date, t.header)
	if forUpdate {
		query += " FOR UPDATE"
	}

	rec := domain.Record{Kind: kind}
	var company, notes sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.LocationID, &company, &rec.DocumentNumber, &rec.PreparedDate,
		&rec.Status, &notes, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Record{}, errors.NewNotFoundError(fmt.Sprintf("Registro com ID %s não encontrado.", id))
	}
	if err != nil {
		return domain.Record{}, errors.NewDBError("Falha ao buscar registro", err)
	}
	rec.CompanyID = company.String
	rec.Notes = notes.String

	price := "0"
	if t.hasPrice {
		price = "unit_price"
	}
	itemsQuery := fmt.Sprintf(`
        SELECT id, %s, %s, product_id, variation_id, quantity, reserved_quantity, %s, %s
        FROM %s
        WHERE %s = $1
        ORDER BY id`,
		t.fk, t.location, t.confirmed, price, t.items, t.fk)

	rows, err := q.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return domain.Record{}, errors.NewDBError("Falha ao buscar linhas do registro", err)
	}
	defer rows.Close()

	rec.Items = []domain.RecordItem{}
	for rows.Next() {
		var it domain.RecordItem
		var variation sql.NullString
		if err := rows.Scan(
			&it.ID, &it.RecordID, &it.LocationID, &it.ProductID, &variation,
			&it.Quantity, &it.ReservedQuantity, &it.ConfirmedQuantity, &it.UnitPrice,
		); err != nil {
			return domain.Record{}, errors.NewDBError("Falha ao mapear linha do registro", err)
		}
		it.VariationID = variation.String
		rec.Items = append(rec.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Record{}, errors.NewDBError("Erro após iteração das linhas do registro", err)
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
