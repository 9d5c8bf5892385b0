package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrStoreNotFound      = errors.New("estabelecimento não encontrado")
	ErrStoreAlreadyExists = errors.New("você já possui um estabelecimento cadastrado")
	ErrStoreRequired      = errors.New("cadastre seu estabelecimento antes de criar cardápios")
	ErrForbidden          = errors.New("você não tem permissão para alterar este recurso")

	ErrMenuNotFound      = errors.New("cardápio não encontrado")
	ErrSectionNotFound   = errors.New("seção não encontrada")
	ErrDishNotFound      = errors.New("prato não encontrado")
	ErrReorderOutOfScope = errors.New("a ordenação contém itens que não pertencem a este grupo")

	ErrInvalidWindow = errors.New("período inválido: use 7, 30 ou 90 dias")

	ErrSubscriptionNotFound = errors.New("Assinatura não encontrada.")
	ErrNotOnGracePeriod     = errors.New("A assinatura não está em período de carência e não pode ser retomada.")
	ErrUnknownPrice         = errors.New("plano desconhecido")
)

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// DuplicateSubscriptionError is returned when a user subscribes twice under the same name.
type DuplicateSubscriptionError struct {
	Name string
}

func (e *DuplicateSubscriptionError) Error() string {
	return fmt.Sprintf("O usuário já tem uma assinatura ativa chamada '%s'.", e.Name)
}

// IncompletePaymentError is returned when the first payment needs customer action.
type IncompletePaymentError struct {
	PaymentIntentID string
}

func (e *IncompletePaymentError) Error() string {
	return fmt.Sprintf("o pagamento %s requer uma confirmação adicional", e.PaymentIntentID)
}
