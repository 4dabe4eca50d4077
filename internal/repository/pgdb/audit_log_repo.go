package pgdb

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const auditSelect = `
	SELECT l.id, l.admin_id, a.name, l.action, l.auditable_type, l.auditable_id, l.changes, l.created_at
	FROM audit_logs l
	LEFT JOIN admins a ON a.id = l.admin_id`

// AuditLogRepo хранит журнал аудита. Записи только добавляются.
type AuditLogRepo struct {
	pool *pgxpool.Pool
	conv converter.AuditLogConverter
}

func NewAuditLogRepo(pool *pgxpool.Pool, conv converter.AuditLogConverter) *AuditLogRepo {
	return &AuditLogRepo{pool: pool, conv: conv}
}

func scanAuditLog(row pgx.Row) (*converter.AuditLogModel, error) {
	var m converter.AuditLogModel
	if err := row.Scan(&m.ID, &m.AdminID, &m.AdminName, &m.Action, &m.AuditableType, &m.AuditableID, &m.Changes, &m.CreatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

// Create пишет запись в точке сохранения: ошибка вставки не ломает внешнюю транзакцию.
func (r *AuditLogRepo) Create(ctx context.Context, log *domain.AuditLog) (*domain.AuditLog, error) {
	query := `
		WITH ins AS (
			INSERT INTO audit_logs (admin_id, action, auditable_type, auditable_id, changes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, admin_id, action, auditable_type, auditable_id, changes, created_at
		)
		SELECT ins.id, ins.admin_id, a.name, ins.action, ins.auditable_type, ins.auditable_id, ins.changes, ins.created_at
		FROM ins
		LEFT JOIN admins a ON a.id = ins.admin_id
	`

	sp, err := tr.FromCtx(ctx, r.pool).Begin(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer sp.Rollback(ctx) //nolint:errcheck

	m, err := scanAuditLog(sp.QueryRow(ctx, query,
		log.AdminID, string(log.Action), string(log.Subject.Kind), log.Subject.ID, map[string]any(log.Changes),
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := sp.Commit(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(m), nil
}

func (r *AuditLogRepo) List(ctx context.Context, page usecase.Page) ([]domain.AuditLog, int64, error) {
	var total int64
	if err := tr.FromCtx(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	logs, err := r.list(ctx, auditSelect+` ORDER BY l.created_at DESC, l.id DESC LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *AuditLogRepo) ListSince(ctx context.Context, since time.Time, limit int) ([]domain.AuditLog, error) {
	return r.list(ctx, auditSelect+` WHERE l.created_at >= $1 ORDER BY l.created_at DESC, l.id DESC LIMIT $2`, since, limit)
}

func (r *AuditLogRepo) ListBySubject(ctx context.Context, subject domain.Subject) ([]domain.AuditLog, error) {
	return r.list(ctx,
		auditSelect+` WHERE l.auditable_type = $1 AND l.auditable_id = $2 ORDER BY l.created_at DESC, l.id DESC`,
		string(subject.Kind), subject.ID,
	)
}

func (r *AuditLogRepo) DeleteBySubject(ctx context.Context, subject domain.Subject) error {
	if _, err := tr.FromCtx(ctx, r.pool).Exec(ctx,
		`DELETE FROM audit_logs WHERE auditable_type = $1 AND auditable_id = $2`,
		string(subject.Kind), subject.ID,
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *AuditLogRepo) list(ctx context.Context, query string, args ...any) ([]domain.AuditLog, error) {
	rows, err := tr.FromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.AuditLog, 0)
	for rows.Next() {
		m, err := scanAuditLog(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *r.conv.ToEntity(m))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
