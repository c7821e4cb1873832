// Package form modela o formulário de entrega/venda como um valor imutável
// atualizado por funções puras (Reduce) e validado por Validate.
package form

import (
	"time"

	"github.com/shopspring/decimal"

	"goerp/internal/domain"
)

// Phase é o estado do formulário no fluxo de envio.
//
//	EDITING -> VALIDATING -> SUBMITTING -> SUBMITTED
//	               |             |
//	               +-> EDITING <-+   (violações ou rejeição do backend)
type Phase string

const (
	PhaseEditing    Phase = "EDITING"
	PhaseValidating Phase = "VALIDATING"
	PhaseSubmitting Phase = "SUBMITTING"
	PhaseSubmitted  Phase = "SUBMITTED"
)

// Header são os campos de cabeçalho do documento.
type Header struct {
	LocationID     string              `json:"location_id" validate:"required"`
	LocationName   string              `json:"location_name,omitempty"`
	CompanyID      string              `json:"company_id,omitempty"`
	DocumentNumber string              `json:"document_number" validate:"required,max=64"`
	PreparedDate   *time.Time          `json:"prepared_date" validate:"required"`
	Status         domain.RecordStatus `json:"status" validate:"required"`
	Notes          string              `json:"notes,omitempty" validate:"max=500"`
}

// ConfirmAction identifica a ação destrutiva aguardando confirmação.
type ConfirmAction string

const (
	ConfirmRemoveItem ConfirmAction = "remove_item"
	ConfirmClearItems ConfirmAction = "clear_items"
)

// Confirmation é a ação destrutiva pendente (substitui o diálogo de confirmação do navegador).
type Confirmation struct {
	Action ConfirmAction `json:"action"`
	ItemID string        `json:"item_id,omitempty"`
}

// FormState é o estado completo de uma sessão de formulário.
// Nunca é alterado no lugar: Reduce sempre devolve uma cópia.
type FormState struct {
	ID                  string                       `json:"id"`
	Kind                domain.FormKind              `json:"kind"`
	Mode                domain.FormMode              `json:"mode"`
	RecordID            string                       `json:"record_id,omitempty"`
	RecordVersion       int                          `json:"record_version,omitempty"`
	Header              Header                       `json:"header"`
	Items               []domain.LineItem            `json:"items"`
	Snapshots           map[string]domain.StockEntry `json:"snapshots"`
	Phase               Phase                        `json:"phase"`
	Violations          []domain.Violation           `json:"violations,omitempty"`
	SubmitError         string                       `json:"submit_error,omitempty"`
	PendingConfirmation *Confirmation                `json:"pending_confirmation,omitempty"`
	Revision            int                          `json:"revision"`
}

// New cria o estado de um formulário em modo de criação.
func New(id string, kind domain.FormKind) FormState {
	return FormState{
		ID:        id,
		Kind:      kind,
		Mode:      domain.ModeCreate,
		Header:    Header{Status: kind.DefaultStatus()},
		Items:     []domain.LineItem{},
		Snapshots: map[string]domain.StockEntry{},
		Phase:     PhaseEditing,
	}
}

// FromRecord cria o estado de edição de um registro existente. Cada linha guarda a
// quantidade que o próprio registro já reservou, devolvida ao cálculo de disponibilidade.
func FromRecord(id string, rec domain.Record) FormState {
	state := New(id, rec.Kind)
	state.Mode = domain.ModeEdit
	state.RecordID = rec.ID
	state.RecordVersion = rec.Version

	prepared := rec.PreparedDate
	state.Header = Header{
		LocationID:     rec.LocationID,
		CompanyID:      rec.CompanyID,
		DocumentNumber: rec.DocumentNumber,
		PreparedDate:   &prepared,
		Status:         rec.Status,
		Notes:          rec.Notes,
	}

	state.Items = make([]domain.LineItem, 0, len(rec.Items))
	for _, it := range rec.Items {
		selection := domain.BaseProduct(it.ProductID)
		if it.VariationID != "" {
			selection = domain.ProductVariation(it.ProductID, it.VariationID)
		}
		key := it.Key()
		state.Items = append(state.Items, domain.LineItem{
			ID:                       it.ID,
			Selection:                selection,
			LocationID:               it.LocationID,
			RequestedQuantity:        it.Quantity,
			OriginalReservedQuantity: it.ReservedQuantity,
			OriginalKey:              &key,
			ConfirmedQuantity:        it.ConfirmedQuantity,
			UnitPrice:                it.UnitPrice,
		})
	}
	return state
}

// ItemIndex devolve a posição da linha ou -1.
func (s FormState) ItemIndex(itemID string) int {
	for i, it := range s.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Keys devolve as chaves de estoque completas das linhas, na ordem das linhas.
func (s FormState) Keys() []domain.StockKey {
	keys := make([]domain.StockKey, 0, len(s.Items))
	for _, it := range s.Items {
		if it.Key().Complete() {
			keys = append(keys, it.Key())
		}
	}
	return keys
}

// Total soma quantidade x preço unitário das linhas (usado nas vendas).
func (s FormState) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.RequestedQuantity))))
	}
	return total
}

// ToRecord converte o formulário validado no registro enviado à persistência.
func (s FormState) ToRecord() domain.Record {
	rec := domain.Record{
		ID:             s.RecordID,
		Kind:           s.Kind,
		LocationID:     s.Header.LocationID,
		CompanyID:      s.Header.CompanyID,
		DocumentNumber: s.Header.DocumentNumber,
		Status:         s.Header.Status,
		Notes:          s.Header.Notes,
		Version:        s.RecordVersion,
		Items:          make([]domain.RecordItem, 0, len(s.Items)),
	}
	if s.Header.PreparedDate != nil {
		rec.PreparedDate = *s.Header.PreparedDate
	}
	for _, it := range s.Items {
		rec.Items = append(rec.Items, domain.RecordItem{
			ID:                it.ID,
			RecordID:          s.RecordID,
			LocationID:        it.LocationID,
			ProductID:         it.Selection.ProductID,
			VariationID:       it.Selection.VariationID,
			Quantity:          it.RequestedQuantity,
			ConfirmedQuantity: it.ConfirmedQuantity,
			UnitPrice:         it.UnitPrice,
		})
	}
	return rec
}

// clone faz a cópia profunda usada por Reduce.
func (s FormState) clone() FormState {
	out := s

	out.Items = make([]domain.LineItem, len(s.Items))
	copy(out.Items, s.Items)
	for i := range out.Items {
		if k := out.Items[i].OriginalKey; k != nil {
			kc := *k
			out.Items[i].OriginalKey = &kc
		}
	}

	out.Snapshots = make(map[string]domain.StockEntry, len(s.Snapshots))
	for k, v := range s.Snapshots {
		out.Snapshots[k] = v
	}

	if s.Violations != nil {
		out.Violations = make([]domain.Violation, len(s.Violations))
		copy(out.Violations, s.Violations)
	}
	if s.PendingConfirmation != nil {
		pc := *s.PendingConfirmation
		out.PendingConfirmation = &pc
	}
	if s.Header.PreparedDate != nil {
		d := *s.Header.PreparedDate
		out.Header.PreparedDate = &d
	}
	return out
}
