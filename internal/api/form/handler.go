package form

import (
	"context"
	"net/http"

	"goerp/internal/api/respond"
	formstate "goerp/internal/form"
	"goerp/internal/pkg/logger"
	"goerp/internal/service/formservice"
)

// FormService define o contrato que o Handler espera da camada de Serviço.
type FormService interface {
	Open(ctx context.Context, req formservice.OpenRequest) (formstate.FormState, error)
	Get(ctx context.Context, formID string) (formstate.FormState, error)
	Close(ctx context.Context, formID string) error
	Dispatch(ctx context.Context, formID string, action formstate.Action) (formstate.FormState, error)
	RefreshStock(ctx context.Context, formID, itemID string) (formstate.FormState, error)
	Submit(ctx context.Context, formID string) (formstate.FormState, error)
}

// Handler agrupa os métodos de Handler das sessões de formulário.
type Handler struct {
	Service FormService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc FormService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, state formstate.FormState, err error, successStatus int) {
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, successStatus, state)
}

// OpenHandler lida com a requisição POST /v1/forms.
// @Summary Abre um formulário de entrega ou venda
// @Description Cria uma sessão de formulário. Com record_id abre a edição do registro, carregando a reserva original de cada linha.
// @Tags forms
// @Accept json
// @Produce json
// @Param request body formservice.OpenRequest true "Tipo do formulário e registro opcional"
// @Success 201 {object} form.FormState "Formulário aberto"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Registro não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Registro não pode mais ser editado"
// @Security ApiKeyAuth
// @Router /forms [post]
func (h *Handler) OpenHandler(w http.ResponseWriter, r *http.Request) {
	var req formservice.OpenRequest
	if err := respond.Bind(w, r, &req); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	state, err := h.Service.Open(r.Context(), req)
	h.reply(w, r, state, err, http.StatusCreated)
}

// GetHandler lida com a requisição GET /v1/forms/{id}.
// @Summary Obtém o estado do formulário
// @Tags forms
// @Produce json
// @Param id path string true "ID do formulário"
// @Success 200 {object} form.FormState "Estado atual"
// @Failure 404 {object} domain.ErrorResponse "Formulário não encontrado"
// @Security ApiKeyAuth
// @Router /forms/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.Get(r.Context(), r.PathValue("id"))
	h.reply(w, r, state, err, http.StatusOK)
}

// CloseHandler lida com a requisição DELETE /v1/forms/{id}.
// @Summary Descarta o formulário
// @Tags forms
// @Param id path string true "ID do formulário"
// @Success 204 "Formulário descartado"
// @Failure 404 {object} domain.ErrorResponse "Formulário não encontrado"
// @Security ApiKeyAuth
// @Router /forms/{id} [delete]
func (h *Handler) CloseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Close(r.Context(), r.PathValue("id")); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DispatchHandler lida com a requisição POST /v1/forms/{id}/actions.
// @Summary Aplica uma ação de edição
// @Description Ações: set_field, add_item, remove_item (pede confirmação), set_item_field, select_product, request_confirmation, confirm, cancel_confirmation.
// @Tags forms
// @Accept json
// @Produce json
// @Param id path string true "ID do formulário"
// @Param action body form.Envelope true "Ação {type, payload}"
// @Success 200 {object} form.FormState "Estado após a ação"
// @Failure 400 {object} domain.ErrorResponse "Ação inválida"
// @Failure 404 {object} domain.ErrorResponse "Formulário ou linha não encontrados"
// @Failure 409 {object} domain.ErrorResponse "Formulário em envio ou já enviado"
// @Security ApiKeyAuth
// @Router /forms/{id}/actions [post]
func (h *Handler) DispatchHandler(w http.ResponseWriter, r *http.Request) {
	var env formstate.Envelope
	if err := respond.Bind(w, r, &env); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	action, err := formstate.DecodeAction(env)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}

	state, err := h.Service.Dispatch(r.Context(), r.PathValue("id"), action)
	h.reply(w, r, state, err, http.StatusOK)
}

// RefreshStockHandler lida com a requisição POST /v1/forms/{id}/items/{itemID}/stock.
// @Summary Consulta novamente o estoque de uma linha
// @Tags forms
// @Produce json
// @Param id path string true "ID do formulário"
// @Param itemID path string true "ID da linha"
// @Success 200 {object} form.FormState "Estado com o snapshot atualizado"
// @Failure 400 {object} domain.ErrorResponse "Linha sem produto ou local"
// @Failure 404 {object} domain.ErrorResponse "Formulário ou linha não encontrados"
// @Security ApiKeyAuth
// @Router /forms/{id}/items/{itemID}/stock [post]
func (h *Handler) RefreshStockHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.RefreshStock(r.Context(), r.PathValue("id"), r.PathValue("itemID"))
	h.reply(w, r, state, err, http.StatusOK)
}

// SubmitHandler lida com a requisição POST /v1/forms/{id}/submit.
// @Summary Valida e envia o formulário
// @Description Consulta o estoque de todas as linhas, valida tudo e grava o registro.
// @Tags forms
// @Produce json
// @Param id path string true "ID do formulário"
// @Success 200 {object} form.FormState "Registro gravado"
// @Failure 404 {object} domain.ErrorResponse "Formulário não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Envio em andamento ou estoque insuficiente na gravação"
// @Failure 422 {object} domain.ErrorResponse "Violações de validação"
// @Security ApiKeyAuth
// @Router /forms/{id}/submit [post]
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.Submit(r.Context(), r.PathValue("id"))
	h.reply(w, r, state, err, http.StatusOK)
}
