package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	purchases []int64
	days      []time.Time
	err       error
}

func (n *recordingNotifier) SendFirstPurchaseNotification(_ context.Context, purchaseID int64) error {
	n.purchases = append(n.purchases, purchaseID)
	return n.err
}

func (n *recordingNotifier) SendDailyReport(_ context.Context, day time.Time) error {
	n.days = append(n.days, day)
	return n.err
}

type memQueue struct {
	retries  map[string]time.Time
	dead     []*domain.Job
	acked    []string
	retryErr error
}

func newMemQueue() *memQueue {
	return &memQueue{retries: map[string]time.Time{}}
}

func (q *memQueue) Dequeue(context.Context, time.Duration) (*domain.Job, error) { return nil, nil }
func (q *memQueue) PromoteDue(context.Context, time.Time) (int, error)         { return 0, nil }
func (q *memQueue) RequeueExpired(context.Context, time.Time) (int, error)     { return 0, nil }

func (q *memQueue) Ack(_ context.Context, job *domain.Job) error {
	q.acked = append(q.acked, job.ID)
	return nil
}

func (q *memQueue) ScheduleRetry(_ context.Context, job *domain.Job, at time.Time) error {
	if q.retryErr != nil {
		return q.retryErr
	}
	q.retries[job.ID] = at
	return nil
}

func (q *memQueue) Dead(_ context.Context, job *domain.Job) error {
	q.dead = append(q.dead, job)
	return nil
}

func job(t *testing.T, id string, jobType domain.JobType, payload any) *domain.Job {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &domain.Job{ID: id, Type: jobType, Payload: data}
}

func newRunner(t *testing.T, queue Queue, notifier Notifier) *Runner {
	t.Helper()
	r, err := NewRunner(queue, NewDispatcher(notifier, time.UTC), &cfg.JobsCfg{
		Workers:     1,
		MaxRetries:  3,
		BaseBackoff: time.Second,
		MaxBackoff:  time.Minute,
		PollTimeout: 10 * time.Millisecond,
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(r.pool.Release)
	return r
}

func TestDispatcherRoutesByType(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, time.UTC)

	require.NoError(t, d.Handle(context.Background(), job(t, "1", domain.JobFirstPurchaseNotification, domain.FirstPurchasePayload{PurchaseID: 42})))
	require.NoError(t, d.Handle(context.Background(), job(t, "2", domain.JobDailyPurchaseReport, domain.DailyReportPayload{Date: "2024-01-01"})))

	assert.Equal(t, []int64{42}, n.purchases)
	require.Len(t, n.days, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), n.days[0])

	err := d.Handle(context.Background(), job(t, "3", "cleanup", nil))
	assert.ErrorIs(t, err, e.ErrUnknownJobType)
}

func TestRunnerRetriesDeliveryFailures(t *testing.T) {
	q := newMemQueue()
	n := &recordingNotifier{err: &e.NotificationDeliveryError{Recipient: "a@b.c", Err: errors.New("smtp down")}}
	r := newRunner(t, q, n)
	now := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	j := job(t, "1", domain.JobFirstPurchaseNotification, domain.FirstPurchasePayload{PurchaseID: 1})
	r.Process(context.Background(), j)

	assert.Equal(t, 1, j.Attempt)
	assert.Contains(t, j.LastError, "smtp down")
	require.Contains(t, q.retries, "1")
	delay := q.retries["1"].Sub(now)
	assert.GreaterOrEqual(t, delay, time.Second)
	assert.LessOrEqual(t, delay, 1500*time.Millisecond)
	assert.Empty(t, q.dead)
	assert.Equal(t, []string{"1"}, q.acked)
}

func TestRunnerAcksCompletedJob(t *testing.T) {
	q := newMemQueue()
	n := &recordingNotifier{}
	r := newRunner(t, q, n)

	r.Process(context.Background(), job(t, "1", domain.JobFirstPurchaseNotification, domain.FirstPurchasePayload{PurchaseID: 7}))

	assert.Equal(t, []int64{7}, n.purchases)
	assert.Equal(t, []string{"1"}, q.acked)
}

func TestRunnerKeepsLeaseWhenRetryNotStored(t *testing.T) {
	q := newMemQueue()
	q.retryErr = errors.New("redis down")
	r := newRunner(t, q, &recordingNotifier{err: errors.New("smtp down")})

	r.Process(context.Background(), job(t, "1", domain.JobFirstPurchaseNotification, domain.FirstPurchasePayload{PurchaseID: 1}))

	assert.Empty(t, q.acked)
	assert.Empty(t, q.retries)
}

func TestRunnerBuriesAfterMaxRetries(t *testing.T) {
	q := newMemQueue()
	r := newRunner(t, q, &recordingNotifier{err: errors.New("smtp down")})

	j := job(t, "1", domain.JobFirstPurchaseNotification, domain.FirstPurchasePayload{PurchaseID: 1})
	j.Attempt = 2
	r.Process(context.Background(), j)

	require.Len(t, q.dead, 1)
	assert.Equal(t, 3, q.dead[0].Attempt)
}

func TestRunnerBuriesPermanentFailuresImmediately(t *testing.T) {
	q := newMemQueue()
	r := newRunner(t, q, &recordingNotifier{})

	r.Process(context.Background(), &domain.Job{ID: "1", Type: domain.JobDailyPurchaseReport, Payload: json.RawMessage(`{"date":"01/01/2024"}`)})

	require.Len(t, q.dead, 1)
	assert.Empty(t, q.retries)
}

func TestCronSchedulerNextRun(t *testing.T) {
	s, err := NewCronScheduler("0 8 * * *", time.UTC, logger.Nop())
	require.NoError(t, err)

	_, ok := s.NextRun()
	assert.False(t, ok)

	require.NoError(t, s.Register(context.Background(), func(context.Context) error { return nil }))
	s.Start()
	defer s.Stop(context.Background())

	next, ok := s.NextRun()
	require.True(t, ok)
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, "0 8 * * *", s.Spec())

	_, err = NewCronScheduler("every day", time.UTC, logger.Nop())
	assert.Error(t, err)
}
