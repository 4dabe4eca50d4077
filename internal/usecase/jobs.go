package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/google/uuid"
)

// NewJob сериализует аргументы задачи.
func NewJob(jobType domain.JobType, queue domain.Queue, payload any) (*domain.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &domain.Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Queue:      queue,
		Payload:    data,
		EnqueuedAt: time.Now(),
	}, nil
}

func NewFirstPurchaseJob(purchaseID int64) (*domain.Job, error) {
	return NewJob(
		domain.JobFirstPurchaseNotification,
		domain.QueueDefault,
		domain.FirstPurchasePayload{PurchaseID: purchaseID},
	)
}

func NewDailyReportJob(day time.Time) (*domain.Job, error) {
	return NewJob(
		domain.JobDailyPurchaseReport,
		domain.QueueReports,
		domain.DailyReportPayload{Date: day.Format("2006-01-02")},
	)
}

// NewJobOutboxEvent упаковывает задачу в событие outbox, чтобы она попала в очередь
// только вместе с коммитом породившей её транзакции.
func NewJobOutboxEvent(aggregateID int64, job *domain.Job) (*OutboxEvent, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	return NewOutboxEvent(job.ID, aggregateID, EventJobEnqueued, payload), nil
}

// JobFromOutboxEvent восстанавливает задачу из события job.enqueued.
func JobFromOutboxEvent(event *OutboxEvent) (*domain.Job, error) {
	if event.EventType != EventJobEnqueued {
		return nil, fmt.Errorf("outbox event %s: unexpected type %q", event.ID, event.EventType)
	}

	var job domain.Job
	if err := json.Unmarshal(event.Payload, &job); err != nil {
		return nil, fmt.Errorf("outbox event %s: %w", event.ID, err)
	}
	if job.ID == "" || job.Type == "" {
		return nil, fmt.Errorf("outbox event %s: job without id or type", event.ID)
	}

	return &job, nil
}
