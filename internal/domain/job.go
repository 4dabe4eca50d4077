package domain

import (
	"encoding/json"
	"time"
)

// JobType — вид фоновой задачи.
type JobType string

const (
	JobFirstPurchaseNotification JobType = "first_purchase_notification"
	JobDailyPurchaseReport       JobType = "daily_purchase_report"
)

// Queue — имя очереди. Порядок приоритета: critical > default > reports > low.
type Queue string

const (
	QueueCritical Queue = "critical"
	QueueDefault  Queue = "default"
	QueueReports  Queue = "reports"
	QueueLow      Queue = "low"

	// QueueRetry — задачи, ожидающие повторной попытки, QueueDead — исчерпавшие попытки.
	// QueueInflight — выданные воркерам и ещё не подтверждённые задачи.
	QueueRetry    Queue = "retry"
	QueueDead     Queue = "dead"
	QueueInflight Queue = "inflight"
)

// QueuesByPriority перечисляет очереди от самой приоритетной.
var QueuesByPriority = []Queue{QueueCritical, QueueDefault, QueueReports, QueueLow}

// Job — сериализуемая фоновая задача.
type Job struct {
	ID         string
	Type       JobType
	Queue      Queue
	Payload    json.RawMessage
	Attempt    int
	EnqueuedAt time.Time
	LastError  string
}

// FirstPurchasePayload — аргументы уведомления о первой покупке товара.
type FirstPurchasePayload struct {
	PurchaseID int64 `json:"purchase_id"`
}

// DailyReportPayload — аргументы ежедневного отчёта. Date в формате 2006-01-02.
type DailyReportPayload struct {
	Date string `json:"date"`
}
