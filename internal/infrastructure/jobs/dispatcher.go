package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
)

// Notifier — обработчики задач уведомлений.
type Notifier interface {
	SendFirstPurchaseNotification(ctx context.Context, purchaseID int64) error
	SendDailyReport(ctx context.Context, day time.Time) error
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Dispatcher выбирает обработчик по типу задачи.
type Dispatcher struct {
	handlers map[domain.JobType]HandlerFunc
}

func NewDispatcher(notifier Notifier, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}

	return &Dispatcher{
		handlers: map[domain.JobType]HandlerFunc{
			domain.JobFirstPurchaseNotification: func(ctx context.Context, payload json.RawMessage) error {
				var args domain.FirstPurchasePayload
				if err := json.Unmarshal(payload, &args); err != nil {
					return permanent(err)
				}
				return notifier.SendFirstPurchaseNotification(ctx, args.PurchaseID)
			},
			domain.JobDailyPurchaseReport: func(ctx context.Context, payload json.RawMessage) error {
				var args domain.DailyReportPayload
				if err := json.Unmarshal(payload, &args); err != nil {
					return permanent(err)
				}
				day, err := time.ParseInLocation(time.DateOnly, args.Date, loc)
				if err != nil {
					return permanent(err)
				}
				return notifier.SendDailyReport(ctx, day)
			},
		},
	}
}

func (d *Dispatcher) Handle(ctx context.Context, job *domain.Job) error {
	handler, ok := d.handlers[job.Type]
	if !ok {
		return permanent(fmt.Errorf("%w: %s", e.ErrUnknownJobType, job.Type))
	}

	return handler(ctx, job.Payload)
}

// permanentError — повтор задачи бессмысленен.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

func permanent(err error) error {
	return &permanentError{err: err}
}
