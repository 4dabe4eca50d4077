package e

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError — некорректные входные данные. Возвращается вызывающему, без повторов.
type ValidationError struct {
	Fields []FieldError
}

// FieldError описывает ошибку конкретного поля.
type FieldError struct {
	Field   string
	Message string
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}

	return "validation failed: " + strings.Join(parts, ", ")
}

// Add добавляет ошибку поля.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// OrNil возвращает nil, если ошибок полей нет.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}

	return v
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError — запрошенная сущность отсутствует.
type NotFoundError struct {
	Entity string
	ID     any
}

func (n *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", n.Entity, n.ID)
}

func (n *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError — конкурентная покупка исчерпала остаток товара.
// Вызывающий может повторить покупку.
type InsufficientStockError struct {
	ProductID int64
	Stock     int64
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuficiente. Stock actual: %d", i.Stock)
}

func NewInsufficientStockError(productID, stock int64) *InsufficientStockError {
	return &InsufficientStockError{ProductID: productID, Stock: stock}
}

// AuditWriteError — ошибка записи аудита. Всегда обрабатывается локально.
type AuditWriteError struct {
	Action string
	Kind   string
	ID     int64
	Err    error
}

func (a *AuditWriteError) Error() string {
	return fmt.Sprintf("audit %s for %s %d: %v", a.Action, a.Kind, a.ID, a.Err)
}

func (a *AuditWriteError) Unwrap() error {
	return a.Err
}

// NotificationDeliveryError — ошибка доставки письма. Повторяется раннером задач.
type NotificationDeliveryError struct {
	Recipient string
	Err       error
}

func (n *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("deliver notification to %s: %v", n.Recipient, n.Err)
}

func (n *NotificationDeliveryError) Unwrap() error {
	return n.Err
}

// IsValidation сообщает, содержит ли цепочка ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsInsufficientStock сообщает, содержит ли цепочка InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var s *InsufficientStockError
	return errors.As(err, &s)
}
