package domain

import (
	"fmt"
	"time"
)

// AuditAction — тип изменения, зафиксированного в журнале.
type AuditAction string

const (
	ActionCreated               AuditAction = "created"
	ActionUpdated               AuditAction = "updated"
	ActionDeleted               AuditAction = "deleted"
	ActionCategoryAssociated    AuditAction = "category_associated"
	ActionCategoryDisassociated AuditAction = "category_disassociated"
)

func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionCategoryAssociated, ActionCategoryDisassociated:
		return true
	}

	return false
}

// IsAssociation — действия со связью товар-категория всегда приписываются владельцу товара.
func (a AuditAction) IsAssociation() bool {
	return a == ActionCategoryAssociated || a == ActionCategoryDisassociated
}

// SubjectKind — тип сущности, к которой относится запись аудита.
type SubjectKind string

const (
	SubjectProduct         SubjectKind = "Product"
	SubjectCategory        SubjectKind = "Category"
	SubjectProductCategory SubjectKind = "ProductCategory"
)

func ParseSubjectKind(s string) (SubjectKind, error) {
	switch SubjectKind(s) {
	case SubjectProduct, SubjectCategory, SubjectProductCategory:
		return SubjectKind(s), nil
	}

	return "", fmt.Errorf("unknown auditable type %q", s)
}

// Subject — ссылка на проверяемую сущность: тип и идентификатор.
type Subject struct {
	Kind SubjectKind
	ID   int64
}

func ProductSubject(id int64) Subject {
	return Subject{Kind: SubjectProduct, ID: id}
}

func CategorySubject(id int64) Subject {
	return Subject{Kind: SubjectCategory, ID: id}
}

func ProductCategorySubject(id int64) Subject {
	return Subject{Kind: SubjectProductCategory, ID: id}
}

// AuditLog — неизменяемая запись журнала аудита.
type AuditLog struct {
	ID        int64
	Action    AuditAction
	AdminID   int64
	AdminName string
	Subject   Subject
	Changes   Changes
	CreatedAt time.Time
}

func NewAuditLog(action AuditAction, subject Subject, adminID int64, changes Changes) *AuditLog {
	return &AuditLog{
		Action:  action,
		AdminID: adminID,
		Subject: subject,
		Changes: changes,
	}
}
