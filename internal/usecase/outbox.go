package usecase

import "time"

type OutboxStatus string

const (
	Pending    OutboxStatus = "PENDING"
	Processing OutboxStatus = "PROCESSING"
	Processed  OutboxStatus = "PROCESSED"
	Failed     OutboxStatus = "FAILED"
)

const (
	EventPurchaseCreated = "purchase.created"
	// EventJobEnqueued — фоновая задача, которую нужно поставить в очередь после коммита.
	EventJobEnqueued = "job.enqueued"
)

// OutboxEvent — событие, записанное в одной транзакции с изменением.
// purchase.created уходит в Kafka, job.enqueued переносится в очередь задач.
type OutboxEvent struct {
	ID          string
	AggregateID int64
	EventType   string
	Payload     []byte
	Status      OutboxStatus
	RetryCount  int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// PurchaseCreatedPayload — содержимое события purchase.created.
type PurchaseCreatedPayload struct {
	PurchaseID  int64     `json:"purchase_id"`
	CustomerID  int64     `json:"customer_id"`
	ProductID   int64     `json:"product_id"`
	Quantity    int64     `json:"quantity"`
	TotalPrice  string    `json:"total_price"`
	StockLeft   int64     `json:"stock_left"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func NewOutboxEvent(id string, aggregateID int64, eventType string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		ID:          id,
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
		Status:      Pending,
	}
}
