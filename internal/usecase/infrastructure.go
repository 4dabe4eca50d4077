package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
)

type ImagesInfra interface {
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
	CleanupImages(keys []string)
}

// JobQueue — очередь фоновых задач с приоритетами.
type JobQueue interface {
	Enqueue(ctx context.Context, job *domain.Job) error
	Lengths(ctx context.Context) (map[domain.Queue]int64, error)
}

// Mailer отправляет письма администраторам.
type Mailer interface {
	SendFirstPurchase(ctx context.Context, msg *FirstPurchaseEmail) error
	SendDailyReport(ctx context.Context, msg *DailyReportEmail) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type TokenIssuer interface {
	Issue(admin *domain.Admin) (string, time.Time, error)
}

// CronInfo сообщает расписание ежедневного отчёта.
type CronInfo interface {
	NextRun() (time.Time, bool)
	Spec() string
}

// Clock позволяет подменять текущее время в тестах.
type Clock func() time.Time
