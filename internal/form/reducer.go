package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"goerp/internal/domain"
	apperror "goerp/internal/errors"
)

// dateLayouts são os formatos aceitos para a data de preparo.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Reduce aplica a ação sobre uma cópia do estado. O estado recebido nunca é alterado.
func Reduce(state FormState, action Action) (FormState, error) {
	if isEdit(action) {
		switch state.Phase {
		case PhaseSubmitted:
			return state, apperror.NewConflictError("O formulário já foi enviado e não pode mais ser alterado.")
		case PhaseValidating, PhaseSubmitting:
			return state, apperror.NewConflictError("O formulário está sendo enviado. Aguarde a conclusão.")
		}
	}

	next := state.clone()
	next.Revision++

	var err error
	switch a := action.(type) {
	case SetField:
		err = setField(&next, a)
	case AddItem:
		err = addItem(&next, a)
	case RemoveItem:
		err = removeItem(&next, a.ItemID)
	case SetItemField:
		err = setItemField(&next, a)
	case SelectProduct:
		err = selectProduct(&next, a)
	case RequestConfirmation:
		err = requestConfirmation(&next, a)
	case Confirm:
		err = confirm(&next)
	case CancelConfirmation:
		next.PendingConfirmation = nil
	case SetLabels:
		err = setLabels(&next, a)
	case ApplyStockSnapshot:
		if !a.Entry.Stale {
			next.Snapshots[a.Entry.Snapshot.Key.String()] = a.Entry
		}
	case BeginValidation:
		err = transition(&next, PhaseEditing, PhaseValidating)
	case ValidationFailed:
		if err = transition(&next, PhaseValidating, PhaseEditing); err == nil {
			next.Violations = append([]domain.Violation(nil), a.Violations...)
		}
	case BeginSubmit:
		if err = transition(&next, PhaseValidating, PhaseSubmitting); err == nil {
			next.Violations = nil
			next.SubmitError = ""
		}
	case SubmitFailed:
		if err = transition(&next, PhaseSubmitting, PhaseEditing); err == nil {
			next.SubmitError = a.Message
		}
	case Submitted:
		if err = transition(&next, PhaseSubmitting, PhaseSubmitted); err == nil {
			next.RecordID = a.RecordID
			next.RecordVersion = a.Version
		}
	default:
		err = apperror.NewValidationError(fmt.Sprintf("Ação não suportada: %T.", action))
	}
	if err != nil {
		return state, err
	}

	if isEdit(action) {
		next.SubmitError = ""
	}
	return next, nil
}

// isEdit identifica ações que alteram dados digitados pelo usuário.
func isEdit(action Action) bool {
	switch action.(type) {
	case SetField, AddItem, RemoveItem, SetItemField, SelectProduct, RequestConfirmation, Confirm, CancelConfirmation:
		return true
	}
	return false
}

func transition(s *FormState, from, to Phase) error {
	if s.Phase != from {
		return apperror.NewConflictError(fmt.Sprintf("Transição inválida do formulário: %s -> %s.", s.Phase, to))
	}
	s.Phase = to
	return nil
}

func setField(s *FormState, a SetField) error {
	value := strings.TrimSpace(a.Value)

	switch a.Field {
	case FieldLocation:
		previous := s.Header.LocationID
		s.Header.LocationID = value
		s.Header.LocationName = ""
		// Linhas que seguiam o local do cabeçalho acompanham a troca.
		for i := range s.Items {
			if s.Items[i].LocationID == "" || s.Items[i].LocationID == previous {
				s.Items[i].LocationID = value
				s.Items[i].LocationName = ""
			}
		}
	case FieldCompany:
		s.Header.CompanyID = value
	case FieldDocumentNumber:
		s.Header.DocumentNumber = value
	case FieldPreparedDate:
		if value == "" {
			s.Header.PreparedDate = nil
			return nil
		}
		date, err := parseDate(value)
		if err != nil {
			return err
		}
		s.Header.PreparedDate = &date
	case FieldStatus:
		status := domain.RecordStatus(strings.ToUpper(value))
		if !s.Kind.AllowsStatus(status) {
			return apperror.NewValidationError(fmt.Sprintf("Status %q não é válido para %s.", value, s.Kind))
		}
		s.Header.Status = status
	case FieldNotes:
		s.Header.Notes = value
	default:
		return apperror.NewValidationError(fmt.Sprintf("Campo de cabeçalho desconhecido: %q.", a.Field))
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, apperror.NewValidationError(fmt.Sprintf("Data inválida: %q. Use AAAA-MM-DD.", value))
}

func addItem(s *FormState, a AddItem) error {
	item := a.Item
	if item.ID == "" {
		return apperror.NewValidationError("A linha precisa de um ID.")
	}
	if s.ItemIndex(item.ID) >= 0 {
		return apperror.NewConflictError(fmt.Sprintf("A linha %s já existe no formulário.", item.ID))
	}
	if !item.Selection.IsZero() {
		if err := item.Selection.Validate(); err != nil {
			return apperror.NewValidationError(err.Error())
		}
	}
	if item.LocationID == "" {
		item.LocationID = s.Header.LocationID
		item.LocationName = s.Header.LocationName
	}
	// Linhas novas não têm reserva anterior, mesmo em modo de edição.
	item.OriginalReservedQuantity = 0
	item.OriginalKey = nil

	s.Items = append(s.Items, item)
	return nil
}

func removeItem(s *FormState, itemID string) error {
	idx := s.ItemIndex(itemID)
	if idx < 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Linha %s não encontrada no formulário.", itemID))
	}
	s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
	return nil
}

func setItemField(s *FormState, a SetItemField) error {
	idx := s.ItemIndex(a.ItemID)
	if idx < 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Linha %s não encontrada no formulário.", a.ItemID))
	}
	item := &s.Items[idx]
	value := strings.TrimSpace(a.Value)

	switch a.Field {
	case ItemFieldLocation:
		item.LocationID = value
		item.LocationName = ""
	case ItemFieldRequestedQuantity, ItemFieldConfirmedQuantity:
		qty, err := strconv.Atoi(value)
		if err != nil {
			return apperror.NewValidationError(fmt.Sprintf("A quantidade da linha %d deve ser um número inteiro.", idx+1))
		}
		if a.Field == ItemFieldRequestedQuantity {
			item.RequestedQuantity = qty
		} else {
			item.ConfirmedQuantity = qty
		}
	case ItemFieldUnitPrice:
		price, err := decimal.NewFromString(value)
		if err != nil {
			return apperror.NewValidationError(fmt.Sprintf("O preço da linha %d é inválido.", idx+1))
		}
		item.UnitPrice = price
	default:
		return apperror.NewValidationError(fmt.Sprintf("Campo de linha desconhecido: %q.", a.Field))
	}
	return nil
}

func selectProduct(s *FormState, a SelectProduct) error {
	idx := s.ItemIndex(a.ItemID)
	if idx < 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Linha %s não encontrada no formulário.", a.ItemID))
	}
	if err := a.Selection.Validate(); err != nil {
		return apperror.NewValidationError(err.Error())
	}
	s.Items[idx].Selection = a.Selection
	s.Items[idx].ProductName = ""
	return nil
}

func setLabels(s *FormState, a SetLabels) error {
	if a.ItemID == "" {
		s.Header.LocationName = a.LocationName
		return nil
	}
	idx := s.ItemIndex(a.ItemID)
	if idx < 0 {
		// A linha pode ter sido removida enquanto os nomes eram resolvidos.
		return nil
	}
	if a.ProductName != "" {
		s.Items[idx].ProductName = a.ProductName
	}
	if a.LocationName != "" {
		s.Items[idx].LocationName = a.LocationName
	}
	return nil
}

func requestConfirmation(s *FormState, a RequestConfirmation) error {
	switch a.Action {
	case ConfirmRemoveItem:
		if s.ItemIndex(a.ItemID) < 0 {
			return apperror.NewNotFoundError(fmt.Sprintf("Linha %s não encontrada no formulário.", a.ItemID))
		}
	case ConfirmClearItems:
	default:
		return apperror.NewValidationError(fmt.Sprintf("Ação de confirmação desconhecida: %q.", a.Action))
	}
	s.PendingConfirmation = &Confirmation{Action: a.Action, ItemID: a.ItemID}
	return nil
}

func confirm(s *FormState) error {
	pending := s.PendingConfirmation
	if pending == nil {
		return apperror.NewConflictError("Não há ação aguardando confirmação.")
	}
	s.PendingConfirmation = nil

	switch pending.Action {
	case ConfirmRemoveItem:
		return removeItem(s, pending.ItemID)
	case ConfirmClearItems:
		s.Items = []domain.LineItem{}
	}
	return nil
}
