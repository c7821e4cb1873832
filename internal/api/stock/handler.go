package stock

import (
	"context"
	"net/http"

	"goerp/internal/api/respond"
	"goerp/internal/domain"
	"goerp/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	GetSnapshot(ctx context.Context, key domain.StockKey) (domain.StockSnapshot, error)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// GetSnapshotHandler lida com a requisição GET /v1/stock.
// @Summary Consulta o estoque de um produto em um local
// @Description Retorna quantidade, reservado e disponível para (local, produto, variação).
// @Tags stock
// @Produce json
// @Param location_id query string true "ID do armazém ou filial"
// @Param product_id query string true "ID do produto"
// @Param variation_id query string false "ID da variação"
// @Success 200 {object} domain.StockSnapshot "Snapshot do estoque"
// @Failure 400 {object} domain.ErrorResponse "Parâmetros ausentes"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /stock [get]
func (h *Handler) GetSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := domain.StockKey{
		LocationID:  q.Get("location_id"),
		ProductID:   q.Get("product_id"),
		VariationID: q.Get("variation_id"),
	}

	snap, err := h.Service.GetSnapshot(r.Context(), key)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, snap)
}
