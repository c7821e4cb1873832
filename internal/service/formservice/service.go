// Package formservice hospeda as sessões de formulário de entrega e venda: aplica as
// ações do usuário, resolve nomes no catálogo, mantém o estoque de cada linha atualizado
// e envia o registro validado para a persistência.
package formservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
	"goerp/internal/form"
	"goerp/internal/pkg/logger"
	"goerp/internal/stockcache"
)

// RecordRepository define o contrato que o Serviço de Formulários espera da persistência de registros.
type RecordRepository interface {
	FindByID(ctx context.Context, kind domain.FormKind, id string) (domain.Record, error)
	Create(ctx context.Context, rec domain.Record) (domain.Record, error)
	Update(ctx context.Context, rec domain.Record) (domain.Record, error)
}

// Catalog resolve os nomes exibidos no formulário.
type Catalog interface {
	ProductLabel(ctx context.Context, sel domain.ProductSelection) (string, error)
	LocationName(ctx context.Context, id string, kind domain.LocationKind) (string, error)
}

// Options agrupa a configuração das sessões.
type Options struct {
	SessionTTL time.Duration
	Stock      stockcache.Options
}

// OpenRequest abre um formulário novo ou a edição de um registro existente.
type OpenRequest struct {
	Kind     domain.FormKind `json:"kind" validate:"required,oneof=delivery sale"`
	RecordID string          `json:"record_id,omitempty"`
}

type session struct {
	mu       sync.Mutex
	state    form.FormState
	cache    *stockcache.Cache
	lastSeen time.Time
}

// Service é a estrutura que gerencia as sessões de formulário em memória.
type Service struct {
	records RecordRepository
	catalog Catalog
	lookup  stockcache.Lookup
	logger  logger.Logger
	opts    Options
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService cria e retorna uma nova instância do Serviço de Formulários.
func NewService(records RecordRepository, catalog Catalog, lookup stockcache.Lookup, logger logger.Logger, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	return &Service{
		records:  records,
		catalog:  catalog,
		lookup:   lookup,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Open cria a sessão, resolve os nomes e busca o estoque de todas as linhas.
func (s *Service) Open(ctx context.Context, req OpenRequest) (form.FormState, error) {
	s.logger.Debug("Abrindo formulário.", map[string]interface{}{"kind": req.Kind, "record_id": req.RecordID})

	if !req.Kind.Valid() {
		return form.FormState{}, apperror.NewValidationError("O tipo do formulário deve ser 'delivery' ou 'sale'.")
	}

	id := uuid.New().String()
	state := form.New(id, req.Kind)
	if req.RecordID != "" {
		rec, err := s.records.FindByID(ctx, req.Kind, req.RecordID)
		if err != nil {
			s.logger.Error("Falha ao carregar registro para edição.", err)
			return form.FormState{}, err // Erros do repositório já são NotFoundError ou DBError
		}
		if rec.Status.Completes() || rec.Status == domain.StatusCancelled {
			return form.FormState{}, apperror.NewConflictError(fmt.Sprintf("Registro com status %s não pode mais ser editado.", rec.Status))
		}
		state = form.FromRecord(id, rec)
	}

	sess := &session{
		state:    state,
		cache:    stockcache.New(s.lookup, s.logger, s.opts.Stock),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	if unlabeled, header := missingLabels(state); len(unlabeled) > 0 || header {
		s.apply(sess, s.labelActions(ctx, state, unlabeled, header)...)
	}
	state = s.refreshKeys(ctx, sess, state.Keys())

	s.logger.Info("Formulário aberto.", map[string]interface{}{"form_id": id, "kind": state.Kind, "mode": state.Mode, "items": len(state.Items)})
	return state, nil
}

// Get retorna o estado atual do formulário.
func (s *Service) Get(ctx context.Context, formID string) (form.FormState, error) {
	sess, err := s.session(formID)
	if err != nil {
		return form.FormState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return sess.state, nil
}

// Close descarta a sessão e seu cache de estoque.
func (s *Service) Close(ctx context.Context, formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[formID]; !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Formulário %s não encontrado.", formID))
	}
	delete(s.sessions, formID)
	s.logger.Info("Formulário fechado.", map[string]interface{}{"form_id": formID})
	return nil
}

// Sweep remove sessões ociosas há mais que o TTL. Sessões em envio são preservadas.
func (s *Service) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen) > s.opts.SessionTTL
		busy := sess.state.Phase == form.PhaseValidating || sess.state.Phase == form.PhaseSubmitting
		sess.mu.Unlock()
		if idle && !busy {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Sessões ociosas removidas.", map[string]interface{}{"removed": removed, "remaining": len(s.sessions)})
	}
	return removed
}

// Dispatch aplica uma ação do usuário. Linhas cuja chave de estoque mudou têm a chave
// antiga invalidada, os nomes resolvidos e o estoque da chave nova consultado.
func (s *Service) Dispatch(ctx context.Context, formID string, action form.Action) (form.FormState, error) {
	sess, err := s.session(formID)
	if err != nil {
		return form.FormState{}, err
	}

	before, after, err := s.reduce(sess, action)
	if err != nil {
		s.logger.Warn("Ação rejeitada.", map[string]interface{}{"form_id": formID, "action": form.TypeOf(action), "error": err.Error()})
		return before, err
	}
	s.logger.Debug("Ação aplicada.", map[string]interface{}{"form_id": formID, "action": form.TypeOf(action), "revision": after.Revision})

	changed, stale := diffKeys(before, after)
	for _, key := range stale {
		sess.cache.Invalidate(key)
	}

	unlabeled, header := missingLabels(after)
	if len(unlabeled) > 0 || header {
		after = s.apply(sess, s.labelActions(ctx, after, unlabeled, header)...)
	}

	keys := make([]domain.StockKey, 0, len(changed))
	for _, itemID := range changed {
		if idx := after.ItemIndex(itemID); idx >= 0 && after.Items[idx].Key().Complete() {
			keys = append(keys, after.Items[idx].Key())
		}
	}
	if len(keys) == 0 {
		return after, nil
	}
	return s.refreshKeys(ctx, sess, keys), nil
}

// RefreshStock consulta novamente o estoque de uma linha.
func (s *Service) RefreshStock(ctx context.Context, formID, itemID string) (form.FormState, error) {
	sess, err := s.session(formID)
	if err != nil {
		return form.FormState{}, err
	}

	sess.mu.Lock()
	state := sess.state
	sess.mu.Unlock()

	idx := state.ItemIndex(itemID)
	if idx < 0 {
		return state, apperror.NewNotFoundError(fmt.Sprintf("Linha %s não encontrada no formulário.", itemID))
	}
	key := state.Items[idx].Key()
	if !key.Complete() {
		return state, apperror.NewValidationError("Selecione o produto e o local da linha antes de consultar o estoque.")
	}

	entry := sess.cache.Refresh(ctx, key)
	return s.apply(sess, form.ApplyStockSnapshot{Entry: entry}), nil
}

// Submit valida contra estoque recém-consultado e grava o registro.
// Um segundo envio enquanto o primeiro está em andamento é rejeitado com ConflictError.
func (s *Service) Submit(ctx context.Context, formID string) (form.FormState, error) {
	sess, err := s.session(formID)
	if err != nil {
		return form.FormState{}, err
	}

	// 1. Marcar o formulário como em validação (bloqueia edições e envios concorrentes)
	_, state, err := s.reduce(sess, form.BeginValidation{})
	if err != nil {
		s.logger.Warn("Envio rejeitado: formulário não está em edição.", map[string]interface{}{"form_id": formID, "phase": state.Phase})
		return state, err
	}

	// 2. Estoque fresco de todas as linhas
	fresh := sess.cache.RefreshAll(ctx, state.Keys())
	actions := make([]form.Action, 0, len(fresh))
	for _, entry := range fresh {
		actions = append(actions, form.ApplyStockSnapshot{Entry: entry})
	}
	state = s.apply(sess, actions...)

	// 3. Validação completa
	result := form.Validate(state, fresh)
	if !result.Valid {
		state = s.apply(sess, form.ValidationFailed{Violations: result.Violations})
		s.logger.Info("Formulário com violações.", map[string]interface{}{"form_id": formID, "violations": len(result.Violations)})
		return state, apperror.NewFormValidationError(result)
	}

	// 4. Persistência (a checagem final de estoque é do repositório)
	state = s.apply(sess, form.BeginSubmit{})
	rec := state.ToRecord()

	var saved domain.Record
	if state.Mode == domain.ModeEdit {
		saved, err = s.records.Update(ctx, rec)
	} else {
		saved, err = s.records.Create(ctx, rec)
	}
	if err != nil {
		s.logger.Error("Falha ao gravar registro do formulário.", err)
		state = s.apply(sess, form.SubmitFailed{Message: err.Error()})
		return state, err
	}

	state = s.apply(sess, form.Submitted{RecordID: saved.ID, Version: saved.Version})
	s.logger.Info("Formulário enviado com sucesso.", map[string]interface{}{
		"form_id": formID, "record_id": saved.ID, "kind": saved.Kind, "status": saved.Status,
	})
	return state, nil
}

func (s *Service) session(formID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[formID]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Formulário %s não encontrado.", formID))
	}
	return sess, nil
}

// reduce aplica uma ação propagando o erro. Retorna o estado antes e depois.
func (s *Service) reduce(sess *session, action form.Action) (form.FormState, form.FormState, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.state
	next, err := form.Reduce(before, action)
	if err != nil {
		return before, before, err
	}
	sess.state = next
	sess.lastSeen = s.now()
	return before, next, nil
}

// apply aplica ações internas do serviço; uma falha não impede as demais.
func (s *Service) apply(sess *session, actions ...form.Action) form.FormState {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for _, a := range actions {
		next, err := form.Reduce(sess.state, a)
		if err != nil {
			s.logger.Warn("Ação interna ignorada.", map[string]interface{}{"form_id": sess.state.ID, "action": form.TypeOf(a), "error": err.Error()})
			continue
		}
		sess.state = next
	}
	sess.lastSeen = s.now()
	return sess.state
}

func (s *Service) refreshKeys(ctx context.Context, sess *session, keys []domain.StockKey) form.FormState {
	if len(keys) == 0 {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.state
	}
	entries := sess.cache.RefreshAll(ctx, keys)
	actions := make([]form.Action, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, form.ApplyStockSnapshot{Entry: entry})
	}
	return s.apply(sess, actions...)
}

// labelActions resolve no catálogo os nomes das linhas indicadas (e do local do cabeçalho).
// Falhas de resolução só geram log: o formulário continua exibindo os IDs.
func (s *Service) labelActions(ctx context.Context, state form.FormState, itemIDs []string, header bool) []form.Action {
	kind := state.Kind.LocationKind()
	actions := make([]form.Action, 0, len(itemIDs)+1)

	if header && state.Header.LocationID != "" {
		if name, err := s.catalog.LocationName(ctx, state.Header.LocationID, kind); err == nil {
			actions = append(actions, form.SetLabels{LocationName: name})
		} else {
			s.logger.Warn("Falha ao resolver nome do local.", map[string]interface{}{"location_id": state.Header.LocationID, "error": err.Error()})
		}
	}

	for _, itemID := range itemIDs {
		idx := state.ItemIndex(itemID)
		if idx < 0 {
			continue
		}
		item := state.Items[idx]
		labels := form.SetLabels{ItemID: itemID}

		if !item.Selection.IsZero() {
			if name, err := s.catalog.ProductLabel(ctx, item.Selection); err == nil {
				labels.ProductName = name
			} else {
				s.logger.Warn("Falha ao resolver nome do produto.", map[string]interface{}{"product_id": item.Selection.ProductID, "error": err.Error()})
			}
		}
		if item.LocationID != "" {
			if name, err := s.catalog.LocationName(ctx, item.LocationID, kind); err == nil {
				labels.LocationName = name
			} else {
				s.logger.Warn("Falha ao resolver nome do local.", map[string]interface{}{"location_id": item.LocationID, "error": err.Error()})
			}
		}
		if labels.ProductName != "" || labels.LocationName != "" {
			actions = append(actions, labels)
		}
	}
	return actions
}

// missingLabels lista as linhas sem nome resolvido e se o cabeçalho precisa do nome do local.
func missingLabels(state form.FormState) ([]string, bool) {
	var ids []string
	for _, it := range state.Items {
		if (it.ProductName == "" && !it.Selection.IsZero()) || (it.LocationName == "" && it.LocationID != "") {
			ids = append(ids, it.ID)
		}
	}
	return ids, state.Header.LocationID != "" && state.Header.LocationName == ""
}

// diffKeys compara as chaves de estoque por linha. changed são as linhas novas ou cuja
// chave mudou; stale são as chaves que nenhuma linha usa mais.
func diffKeys(before, after form.FormState) (changed []string, stale []domain.StockKey) {
	previous := make(map[string]domain.StockKey, len(before.Items))
	for _, it := range before.Items {
		previous[it.ID] = it.Key()
	}

	inUse := make(map[domain.StockKey]bool, len(after.Items))
	for _, it := range after.Items {
		key := it.Key()
		inUse[key] = true
		if old, ok := previous[it.ID]; !ok || old != key {
			changed = append(changed, it.ID)
		}
	}

	seen := make(map[domain.StockKey]bool)
	for _, it := range before.Items {
		key := it.Key()
		if !inUse[key] && !seen[key] && key.Complete() {
			stale = append(stale, key)
			seen[key] = true
		}
	}
	return changed, stale
}
