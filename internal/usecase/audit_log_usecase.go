package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
)

const (
	recentAuditWindow = time.Hour
	recentAuditLimit  = 20
)

type AuditLogUseCase struct {
	repo AuditLogRepository
	now  Clock
}

func NewAuditLogUC(repo AuditLogRepository) *AuditLogUseCase {
	return &AuditLogUseCase{repo: repo, now: time.Now}
}

// List возвращает журнал аудита, новые записи первыми.
func (a *AuditLogUseCase) List(ctx context.Context, page Page) (*AuditLogList, error) {
	logs, total, err := a.repo.List(ctx, page)
	if err != nil {
		return nil, e.Wrap("AuditLogUseCase.List", err)
	}

	return &AuditLogList{AuditLogs: logs, Pagination: NewPagination(page, total)}, nil
}

// Recent возвращает до 20 записей за последний час.
func (a *AuditLogUseCase) Recent(ctx context.Context) ([]domain.AuditLog, error) {
	logs, err := a.repo.ListSince(ctx, a.now().Add(-recentAuditWindow), recentAuditLimit)
	if err != nil {
		return nil, e.Wrap("AuditLogUseCase.Recent", err)
	}

	return logs, nil
}

// ByEntity возвращает историю одной сущности. entityType принимает формы
// "Product", "products", "product_categories".
func (a *AuditLogUseCase) ByEntity(ctx context.Context, entityType string, id int64) (domain.Subject, []domain.AuditLog, error) {
	kind, err := domain.ParseSubjectKind(classify(entityType))
	if err != nil {
		return domain.Subject{}, nil, e.NewValidationError("entity_type", "is not auditable")
	}

	subject := domain.Subject{Kind: kind, ID: id}
	logs, err := a.repo.ListBySubject(ctx, subject)
	if err != nil {
		return subject, nil, e.Wrap("AuditLogUseCase.ByEntity", err)
	}

	return subject, logs, nil
}

// classify превращает имя таблицы или ресурса в имя типа: product_categories -> ProductCategory.
func classify(s string) string {
	parts := strings.Split(strings.TrimSpace(s), "_")
	last := len(parts) - 1
	switch {
	case strings.HasSuffix(parts[last], "ies"):
		parts[last] = strings.TrimSuffix(parts[last], "ies") + "y"
	case strings.HasSuffix(parts[last], "s"):
		parts[last] = strings.TrimSuffix(parts[last], "s")
	}

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}

	return b.String()
}
