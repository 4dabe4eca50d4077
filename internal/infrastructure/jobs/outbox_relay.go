package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/jitter"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

const (
	relayInterval   = time.Second
	relayMaxBackoff = time.Minute
	relayBatchSize  = 50
)

var relayEventTypes = []string{usecase.EventJobEnqueued}

// Enqueuer — очередь, в которую переносятся задачи из outbox.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *domain.Job) error
}

// OutboxRelay переносит задачи, записанные в outbox вместе с бизнес-изменением, в очередь.
// Событие помечается обработанным только после того, как очередь приняла задачу.
type OutboxRelay struct {
	repo   usecase.OutboxRepository
	queue  Enqueuer
	logger logger.Logger
	wg     sync.WaitGroup
}

func NewOutboxRelay(repo usecase.OutboxRepository, queue Enqueuer, logger logger.Logger) *OutboxRelay {
	return &OutboxRelay{
		repo:   repo,
		queue:  queue,
		logger: logger,
	}
}

// Start запускает периодический перенос. Останавливается по ctx.
func (o *OutboxRelay) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(ctx)
	}()
}

func (o *OutboxRelay) Stop() {
	o.wg.Wait()
}

func (o *OutboxRelay) run(ctx context.Context) {
	failures := 0
	for {
		delay := relayInterval
		if _, err := o.RelayOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			delay = jitter.ExponentialBackoff(relayInterval, relayMaxBackoff, failures-1, jitter.DefaultJitter)
			o.logger.Warnf("Outbox relay failed, next attempt in %s: %v", delay, err)
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// RelayOnce переносит пачки задач, пока они не кончатся, и возвращает число поставленных.
// Ошибка очереди прерывает проход: оставшиеся события пачки возвращаются в PENDING без учёта попытки.
func (o *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	const op = "OutboxRelay.RelayOnce"

	relayed := 0
	for {
		events, err := o.repo.GetAndMarkAsProcessing(ctx, relayEventTypes, relayBatchSize)
		if err != nil {
			return relayed, e.Wrap(op, err)
		}

		for i, event := range events {
			job, err := usecase.JobFromOutboxEvent(event)
			if err != nil {
				o.logger.Errorf(err, "Malformed job event %s", event.ID)
				if err := o.repo.MarkAsFailed(ctx, event.ID); err != nil {
					o.logger.Warnf("mark failed failed: %v", err)
				}
				continue
			}

			if err := o.queue.Enqueue(ctx, job); err != nil {
				o.release(context.WithoutCancel(ctx), events[i:])
				return relayed, e.Wrap(op, err)
			}

			// Если отметка не записалась, событие заберут повторно и задача встанет в очередь дважды.
			if err := o.repo.MarkAsProcessed(ctx, event.ID); err != nil {
				o.logger.Warnf("mark processed failed: %v", err)
			}
			relayed++
		}

		if len(events) < relayBatchSize {
			return relayed, nil
		}
	}
}

func (o *OutboxRelay) release(ctx context.Context, events []*usecase.OutboxEvent) {
	for _, event := range events {
		if err := o.repo.Release(ctx, event.ID); err != nil {
			o.logger.Warnf("release event %s failed, it will be picked up after the processing timeout: %v", event.ID, err)
		}
	}
}
