package jobs

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CronScheduler запускает ежедневный отчёт по расписанию.
type CronScheduler struct {
	cron    *cron.Cron
	spec    string
	entryID cron.EntryID
	logger  logger.Logger
}

func NewCronScheduler(spec string, loc *time.Location, logger logger.Logger) (*CronScheduler, error) {
	if _, err := cronParser.Parse(spec); err != nil {
		return nil, e.Wrap("invalid cron spec "+spec, err)
	}

	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		spec:   spec,
		logger: logger,
	}, nil
}

// Register привязывает задачу к расписанию. Вызывается один раз до Start.
func (c *CronScheduler) Register(ctx context.Context, fn func(ctx context.Context) error) error {
	id, err := c.cron.AddFunc(c.spec, func() {
		if err := fn(ctx); err != nil {
			c.logger.Errorf(err, "scheduled daily report failed")
		}
	})
	if err != nil {
		return e.Wrap("CronScheduler.Register", err)
	}
	c.entryID = id

	return nil
}

func (c *CronScheduler) Start() {
	c.cron.Start()
	c.logger.Infof("Cron scheduler started, daily report at %q", c.spec)
}

// Stop ждёт завершения запущенных заданий или отмены ctx.
func (c *CronScheduler) Stop(ctx context.Context) {
	select {
	case <-c.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (c *CronScheduler) Spec() string {
	return c.spec
}

// NextRun возвращает время следующего запуска. false, если задача не зарегистрирована или cron не запущен.
func (c *CronScheduler) NextRun() (time.Time, bool) {
	if c.entryID == 0 {
		return time.Time{}, false
	}

	next := c.cron.Entry(c.entryID).Next
	return next, !next.IsZero()
}
