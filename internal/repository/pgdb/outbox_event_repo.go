package pgdb

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// maxOutboxRetries — после стольких неудачных отправок событие помечается FAILED.
const maxOutboxRetries = 5

type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		pool: pool,
		conv: conv,
	}
}

// Create пишет событие в транзакции вызывающего и будит воркер через NOTIFY.
// NOTIFY доставляется только после коммита.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	q := tr.FromCtx(ctx, o.pool)

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (
			id,
			aggregate_id,
			event_type,
			payload,
			status
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at;
	`

	if err := q.QueryRow(ctx, query,
		model.ID,
		model.AggregateID,
		model.EventType,
		model.Payload,
		model.Status,
	).Scan(&model.CreatedAt); err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists", whereami.WhereAmI(), event.ID)
		}

		return nil, fmt.Errorf("%s: failed to insert event: %w", whereami.WhereAmI(), err)
	}

	if _, err := q.Exec(ctx, "NOTIFY outbox_pending;"); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку PENDING-событий указанных типов. Параллельные воркеры
// не получают одни и те же строки благодаря FOR UPDATE SKIP LOCKED.
// Зависшие в PROCESSING дольше минуты события забираются повторно.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, eventTypes []string, limit int) (_ []*usecase.OutboxEvent, err error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx) //nolint:errcheck
		}
	}()

	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE event_type = ANY($4)
			  AND (status = $2 OR (status = $1 AND processing_started_at < now() - interval '1 minute'))
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, aggregate_id, event_type, payload, status, retry_count, created_at, processed_at
	`

	rows, err := tx.Query(ctx, query, usecase.Processing, usecase.Pending, limit, eventTypes)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.OutboxEventModel
	for rows.Next() {
		var model converter.OutboxEventModel

		if err = rows.Scan(
			&model.ID,
			&model.AggregateID,
			&model.EventType,
			&model.Payload,
			&model.Status,
			&model.RetryCount,
			&model.CreatedAt,
			&model.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: failed to scan event: %w", whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iterator error: %w", whereami.WhereAmI(), err)
	}
	rows.Close()

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = NOW()
		WHERE id = $2 AND status = $3
	`

	// 0 затронутых строк: событие уже обработано другим воркером
	if _, err := o.pool.Exec(ctx, query, usecase.Processed, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %s as processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// MarkAsFailed возвращает событие в очередь либо, после maxOutboxRetries попыток, помечает FAILED.
func (o *OutboxEventRepo) MarkAsFailed(ctx context.Context, id string) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			status = CASE WHEN retry_count + 1 >= $1 THEN $2 ELSE $3 END,
			processing_started_at = NULL
		WHERE id = $4 AND status = $5
	`

	if _, err := o.pool.Exec(ctx, query, maxOutboxRetries, usecase.Failed, usecase.Pending, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %s as failed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

func (o *OutboxEventRepo) Release(ctx context.Context, id string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = NULL
		WHERE id = $2 AND status = $3
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Pending, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to release event %s: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}
