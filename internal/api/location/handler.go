package location

import (
	"context"
	"net/http"

	"goerp/internal/api/respond"
	"goerp/internal/domain"
	"goerp/internal/pkg/logger"
)

// LocationService define o contrato que o Handler espera da camada de Serviço.
type LocationService interface {
	ListLocations(ctx context.Context, kind domain.LocationKind) ([]domain.Location, error)
}

// Handler agrupa os métodos de Handler de armazéns e filiais.
type Handler struct {
	Service LocationService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc LocationService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// ListLocationsHandler lida com a requisição GET /v1/locations.
// @Summary Lista armazéns ou filiais
// @Description Armazéns abastecem entregas; filiais, vendas.
// @Tags locations
// @Produce json
// @Param kind query string true "warehouse ou branch"
// @Success 200 {array} domain.Location "Locais encontrados"
// @Failure 400 {object} domain.ErrorResponse "Tipo inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /locations [get]
func (h *Handler) ListLocationsHandler(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Service.ListLocations(r.Context(), domain.LocationKind(r.URL.Query().Get("kind")))
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, locations)
}
