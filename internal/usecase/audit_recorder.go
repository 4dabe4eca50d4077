package usecase

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

// AuditRecorder пишет по одной записи аудита на каждое изменение сущности.
// Ошибки записи логируются и не прерывают основную операцию.
type AuditRecorder struct {
	repo   AuditLogRepository
	logger logger.Logger
}

func NewAuditRecorder(repo AuditLogRepository, logger logger.Logger) *AuditRecorder {
	return &AuditRecorder{
		repo:   repo,
		logger: logger,
	}
}

// Record сохраняет запись аудита. ownerAdminID: владелец сущности, используется,
// если в контексте нет администратора, и всегда для действий со связями категорий.
// Возвращает nil, если запись не создана.
func (r *AuditRecorder) Record(
	ctx context.Context,
	action domain.AuditAction,
	subject domain.Subject,
	ownerAdminID int64,
	changes domain.Changes,
) *domain.AuditLog {
	if changes.Empty() {
		if action != domain.ActionUpdated {
			r.logger.Warnf("audit %s for %s %d skipped: empty changes", action, subject.Kind, subject.ID)
		}
		return nil
	}

	log, err := r.record(ctx, action, subject, ownerAdminID, changes)
	if err != nil {
		r.logger.Errorf(
			&e.AuditWriteError{Action: string(action), Kind: string(subject.Kind), ID: subject.ID, Err: err},
			"Failed to create audit log",
		)
		return nil
	}

	return log
}

func (r *AuditRecorder) record(
	ctx context.Context,
	action domain.AuditAction,
	subject domain.Subject,
	ownerAdminID int64,
	changes domain.Changes,
) (*domain.AuditLog, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown audit action %q", action)
	}

	adminID := resolveAuditAdmin(ctx, action, ownerAdminID)
	if adminID <= 0 {
		return nil, e.ErrAdminNotResolved
	}

	return r.repo.Create(ctx, domain.NewAuditLog(action, subject, adminID, changes))
}

// resolveAuditAdmin: для связей категорий берётся владелец товара, для остального текущий администратор или владелец.
func resolveAuditAdmin(ctx context.Context, action domain.AuditAction, ownerAdminID int64) int64 {
	if action.IsAssociation() {
		return ownerAdminID
	}

	if actor, ok := ActorFromContext(ctx); ok {
		return actor
	}

	return ownerAdminID
}
