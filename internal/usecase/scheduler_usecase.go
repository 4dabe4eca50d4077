package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

// SchedulerUseCase ставит задачи уведомлений в очередь по расписанию и вручную.
type SchedulerUseCase struct {
	jobs         JobQueue
	purchaseRepo PurchaseRepository
	cron         CronInfo
	loc          *time.Location
	now          Clock
	logger       logger.Logger
}

func NewSchedulerUC(jobs JobQueue, purchaseRepo PurchaseRepository, cron CronInfo, loc *time.Location, logger logger.Logger) *SchedulerUseCase {
	if loc == nil {
		loc = time.UTC
	}

	return &SchedulerUseCase{
		jobs:         jobs,
		purchaseRepo: purchaseRepo,
		cron:         cron,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// EnqueueYesterdayReport вызывается по расписанию.
func (s *SchedulerUseCase) EnqueueYesterdayReport(ctx context.Context) error {
	_, err := s.TriggerDailyReport(ctx, "")
	return err
}

// TriggerDailyReport ставит в очередь отчёт за date (пусто: вчера) и возвращает дату отчёта.
func (s *SchedulerUseCase) TriggerDailyReport(ctx context.Context, date string) (time.Time, error) {
	const op = "SchedulerUseCase.TriggerDailyReport"

	day, err := report.ParseDay(date, s.now(), s.loc)
	if err != nil {
		return time.Time{}, err
	}

	job, err := NewDailyReportJob(day)
	if err != nil {
		return time.Time{}, e.Wrap(op, err)
	}

	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return time.Time{}, e.Wrap(op, err)
	}

	s.logger.Infof("Daily purchase report job enqueued for %s", day.Format("2006-01-02"))
	return day, nil
}

// TriggerFirstPurchase ставит в очередь уведомление о первой покупке для существующей покупки.
func (s *SchedulerUseCase) TriggerFirstPurchase(ctx context.Context, purchaseID int64) error {
	const op = "SchedulerUseCase.TriggerFirstPurchase"

	if _, err := s.purchaseRepo.GetByID(ctx, purchaseID); err != nil {
		return e.Wrap(op, err)
	}

	job, err := NewFirstPurchaseJob(purchaseID)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Status возвращает расписание и длины очередей.
func (s *SchedulerUseCase) Status(ctx context.Context) (*SchedulerStatus, error) {
	lengths, err := s.jobs.Lengths(ctx)
	if err != nil {
		return nil, e.Wrap("SchedulerUseCase.Status", err)
	}

	status := &SchedulerStatus{Queues: lengths}
	if s.cron != nil {
		status.CronSpec = s.cron.Spec()
		if next, ok := s.cron.NextRun(); ok {
			status.NextRun = &next
		}
	}

	return status, nil
}
