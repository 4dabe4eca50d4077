package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/jitter"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/panjf2000/ants/v2"
)

const (
	promoteInterval = time.Second
	jobTimeout      = 2 * time.Minute
	errorPause      = time.Second
)

// Queue — операции очереди, нужные раннеру.
// Выданная Dequeue задача остаётся арендованной до Ack, RequeueExpired возвращает
// в очередь задачи упавших воркеров.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error)
	Ack(ctx context.Context, job *domain.Job) error
	ScheduleRetry(ctx context.Context, job *domain.Job, at time.Time) error
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	RequeueExpired(ctx context.Context, now time.Time) (int, error)
	Dead(ctx context.Context, job *domain.Job) error
}

type Handler interface {
	Handle(ctx context.Context, job *domain.Job) error
}

// Runner забирает задачи из очереди и исполняет их в пуле воркеров.
// Упавшая задача откладывается с экспоненциальной задержкой, после MaxRetries попыток уходит в dead.
type Runner struct {
	queue   Queue
	handler Handler
	pool    *ants.Pool
	cfg     *cfg.JobsCfg
	logger  logger.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewRunner(queue Queue, handler Handler, cfg *cfg.JobsCfg, logger logger.Logger) (*Runner, error) {
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p any) {
		logger.Errorf(nil, "job panicked: %v", p)
	}))
	if err != nil {
		return nil, e.Wrap("jobs.NewRunner", err)
	}

	return &Runner{
		queue:   queue,
		handler: handler,
		pool:    pool,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start запускает чтение очереди и перенос созревших повторов. Останавливается по ctx.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.consume(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.promote(ctx)
	}()
}

// Stop ждёт завершения циклов и уже запущенных задач.
func (r *Runner) Stop() {
	r.wg.Wait()
	r.pool.Release()
}

func (r *Runner) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := r.queue.Dequeue(ctx, r.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warnf("Dequeue failed: %v", err)
			time.Sleep(errorPause)
			continue
		}
		if job == nil {
			continue
		}

		r.wg.Add(1)
		if err := r.pool.Submit(func() {
			defer r.wg.Done()
			r.Process(context.WithoutCancel(ctx), job)
		}); err != nil {
			r.wg.Done()
			r.logger.Errorf(err, "submit job %s failed, returning to retry", job.ID)
			if r.retryOrBury(context.WithoutCancel(ctx), job, err) {
				r.ack(context.WithoutCancel(ctx), job)
			}
		}
	}
}

func (r *Runner) promote(ctx context.Context) {
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.promoteOnce(ctx)
		}
	}
}

func (r *Runner) promoteOnce(ctx context.Context) {
	now := r.now()

	n, err := r.queue.PromoteDue(ctx, now)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warnf("Promote retries failed: %v", err)
		}
	} else if n > 0 {
		r.logger.Debugf("Promoted %d retried jobs", n)
	}

	n, err = r.queue.RequeueExpired(ctx, now)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warnf("Requeue expired jobs failed: %v", err)
		}
		return
	}
	if n > 0 {
		r.logger.Warnf("Returned %d unacknowledged jobs to their queues", n)
	}
}

// Process исполняет одну задачу и решает её дальнейшую судьбу.
// Аренда снимается, только когда задача выполнена, отложена или похоронена.
// Если сохранить повтор не удалось, задача остаётся арендованной и вернётся в очередь по истечении аренды.
func (r *Runner) Process(ctx context.Context, job *domain.Job) {
	handleCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	start := r.now()
	err := r.handler.Handle(handleCtx, job)
	cancel()

	if err == nil {
		r.logger.Infof("Job %s (%s) done in %s", job.ID, job.Type, r.now().Sub(start))
		r.ack(ctx, job)
		return
	}

	if r.retryOrBury(ctx, job, err) {
		r.ack(ctx, job)
	}
}

func (r *Runner) ack(ctx context.Context, job *domain.Job) {
	if err := r.queue.Ack(ctx, job); err != nil {
		r.logger.Warnf("ack job %s failed, it will be redelivered: %v", job.ID, err)
	}
}

// retryOrBury откладывает задачу или переносит её в dead. Возвращает false, если очередь
// не приняла задачу.
func (r *Runner) retryOrBury(ctx context.Context, job *domain.Job, cause error) bool {
	job.Attempt++
	job.LastError = cause.Error()

	var perm *permanentError
	if errors.As(cause, &perm) || job.Attempt >= r.cfg.MaxRetries {
		r.logger.Errorf(cause, "Job %s (%s) moved to dead after %d attempts", job.ID, job.Type, job.Attempt)
		if err := r.queue.Dead(ctx, job); err != nil {
			r.logger.Errorf(err, "bury job %s failed", job.ID)
			return false
		}
		return true
	}

	delay := jitter.ExponentialBackoff(r.cfg.BaseBackoff, r.cfg.MaxBackoff, job.Attempt-1, jitter.DefaultJitter)
	r.logger.Warnf("Job %s (%s) failed, attempt %d, retry in %s: %v", job.ID, job.Type, job.Attempt, delay, cause)
	if err := r.queue.ScheduleRetry(ctx, job, r.now().Add(delay)); err != nil {
		r.logger.Errorf(err, "schedule retry for job %s failed", job.ID)
		return false
	}

	return true
}
