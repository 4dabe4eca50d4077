package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCron struct {
	next time.Time
}

func (f fakeCron) NextRun() (time.Time, bool) { return f.next, !f.next.IsZero() }

func (f fakeCron) Spec() string { return "0 8 * * *" }

func newScheduler(env *env) *SchedulerUseCase {
	s := NewSchedulerUC(env.queue, fakePurchaseRepo{env.store}, fakeCron{next: reportDay.Add(8 * time.Hour)}, time.UTC, nopLogger())
	s.now = func() time.Time { return time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestTriggerDailyReport(t *testing.T) {
	env := newEnv()
	s := newScheduler(env)

	day, err := s.TriggerDailyReport(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", day.Format("2006-01-02"))

	day, err = s.TriggerDailyReport(context.Background(), "2023-12-24")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-24", day.Format("2006-01-02"))

	_, err = s.TriggerDailyReport(context.Background(), "garbage")
	assert.True(t, e.IsValidation(err))

	jobs := env.queue.ofType(domain.JobDailyPurchaseReport)
	require.Len(t, jobs, 2)
	assert.Equal(t, domain.QueueReports, jobs[0].Queue)
	assert.JSONEq(t, `{"date":"2024-01-01"}`, string(jobs[0].Payload))
}

func TestTriggerFirstPurchase_UnknownPurchase(t *testing.T) {
	env := newEnv()

	err := newScheduler(env).TriggerFirstPurchase(context.Background(), 404)
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.Empty(t, env.queue.jobs)
}

func TestSchedulerStatus(t *testing.T) {
	env := newEnv()
	s := newScheduler(env)
	require.NoError(t, s.EnqueueYesterdayReport(context.Background()))

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0 8 * * *", status.CronSpec)
	require.NotNil(t, status.NextRun)
	assert.Equal(t, int64(1), status.Queues[domain.QueueReports])
}
