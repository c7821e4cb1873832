package form_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goerp/internal/api/form"
	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	formstate "goerp/internal/form"
	"goerp/internal/pkg/logger"
	"goerp/internal/service/formservice"
)

type MockFormService struct {
	mock.Mock
}

func (m *MockFormService) Open(ctx context.Context, req formservice.OpenRequest) (formstate.FormState, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(formstate.FormState), args.Error(1)
}

func (m *MockFormService) Get(ctx context.Context, formID string) (formstate.FormState, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(formstate.FormState), args.Error(1)
}

func (m *MockFormService) Close(ctx context.Context, formID string) error {
	return m.Called(ctx, formID).Error(0)
}

func (m *MockFormService) Dispatch(ctx context.Context, formID string, action formstate.Action) (formstate.FormState, error) {
	args := m.Called(ctx, formID, action)
	return args.Get(0).(formstate.FormState), args.Error(1)
}

func (m *MockFormService) RefreshStock(ctx context.Context, formID, itemID string) (formstate.FormState, error) {
	args := m.Called(ctx, formID, itemID)
	return args.Get(0).(formstate.FormState), args.Error(1)
}

func (m *MockFormService) Submit(ctx context.Context, formID string) (formstate.FormState, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(formstate.FormState), args.Error(1)
}

func newMux(svc *MockFormService) *http.ServeMux {
	h := form.NewHandler(svc, logger.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/forms", h.OpenHandler)
	mux.HandleFunc("GET /v1/forms/{id}", h.GetHandler)
	mux.HandleFunc("DELETE /v1/forms/{id}", h.CloseHandler)
	mux.HandleFunc("POST /v1/forms/{id}/actions", h.DispatchHandler)
	mux.HandleFunc("POST /v1/forms/{id}/items/{itemID}/stock", h.RefreshStockHandler)
	mux.HandleFunc("POST /v1/forms/{id}/submit", h.SubmitHandler)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestOpenHandler_Created(t *testing.T) {
	svc := new(MockFormService)
	svc.On("Open", mock.Anything, formservice.OpenRequest{Kind: domain.KindDelivery}).
		Return(formstate.FormState{ID: "f-1", Kind: domain.KindDelivery}, nil)

	rec := do(newMux(svc), http.MethodPost, "/v1/forms", `{"kind":"delivery"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var state formstate.FormState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "f-1", state.ID)
	svc.AssertExpectations(t)
}

func TestOpenHandler_InvalidKindNeverReachesService(t *testing.T) {
	svc := new(MockFormService)

	rec := do(newMux(svc), http.MethodPost, "/v1/forms", `{"kind":"invoice"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestDispatchHandler_DecodesAction(t *testing.T) {
	svc := new(MockFormService)
	svc.On("Dispatch", mock.Anything, "f-1", formstate.Confirm{}).
		Return(formstate.FormState{ID: "f-1"}, nil)

	rec := do(newMux(svc), http.MethodPost, "/v1/forms/f-1/actions", `{"type":"confirm"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestDispatchHandler_UnknownActionIsBadRequest(t *testing.T) {
	svc := new(MockFormService)

	rec := do(newMux(svc), http.MethodPost, "/v1/forms/f-1/actions", `{"type":"submitted","payload":{}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitHandler_ViolationsAreReturned(t *testing.T) {
	svc := new(MockFormService)
	violations := domain.ValidationResult{Violations: []domain.Violation{
		{FieldPath: "header.document_number", Message: "Informe o número do documento."},
		{FieldPath: "items[0].requested_quantity", Message: "Quantidade acima do disponível (5)."},
	}}
	svc.On("Submit", mock.Anything, "f-1").
		Return(formstate.FormState{}, apperror.NewFormValidationError(violations))

	rec := do(newMux(svc), http.MethodPost, "/v1/forms/f-1/submit", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FORM_VALIDATION_ERROR", body.Category)
	require.Len(t, body.Violations, 2)
	assert.Equal(t, "items[0].requested_quantity", body.Violations[1].FieldPath)
}

func TestSubmitHandler_ConflictWhileSubmitting(t *testing.T) {
	svc := new(MockFormService)
	svc.On("Submit", mock.Anything, "f-1").
		Return(formstate.FormState{}, apperror.NewConflictError("Envio já em andamento."))

	rec := do(newMux(svc), http.MethodPost, "/v1/forms/f-1/submit", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshStockHandler_PassesPathValues(t *testing.T) {
	svc := new(MockFormService)
	svc.On("RefreshStock", mock.Anything, "f-1", "it-9").Return(formstate.FormState{ID: "f-1"}, nil)

	rec := do(newMux(svc), http.MethodPost, "/v1/forms/f-1/items/it-9/stock", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestCloseHandler(t *testing.T) {
	svc := new(MockFormService)
	svc.On("Close", mock.Anything, "f-1").Return(nil)
	svc.On("Close", mock.Anything, "f-2").Return(apperror.NewNotFoundError("Formulário f-2 não encontrado."))
	mux := newMux(svc)

	assert.Equal(t, http.StatusNoContent, do(mux, http.MethodDelete, "/v1/forms/f-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodDelete, "/v1/forms/f-2", "").Code)
}

func TestDispatchHandler_OversizedBodyIsBadRequest(t *testing.T) {
	svc := new(MockFormService)
	body := `{"type":"add_item","payload":{"notes":"` + strings.Repeat("x", 2<<20) + `"}}`

	rec := do(newMux(svc), http.MethodPost, "/v1/forms/f-1/actions", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}
