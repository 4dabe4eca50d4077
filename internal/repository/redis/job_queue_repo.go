package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/admin-backend/pkg/clients"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	queueKeyPrefix = "queue:"
	promoteBatch   = 100
	// inflightLease — сколько задача может оставаться неподтверждённой, прежде чем вернётся в очередь.
	inflightLease = 5 * time.Minute
	dequeuePause  = 200 * time.Millisecond
)

func queueKey(q domain.Queue) string {
	return queueKeyPrefix + string(q)
}

// inflightDataKey хранит тела выданных задач по ID, сам ZSET queue:inflight держит срок аренды.
func inflightDataKey() string {
	return queueKey(domain.QueueInflight) + ":data"
}

// claimScript снимает задачу с первой непустой очереди и в том же вызове
// регистрирует её аренду. KEYS: очереди по приоритету, затем inflight и inflight:data.
var claimScript = r.NewScript(`
local n = #KEYS
for i = 1, n - 2 do
	local raw = redis.call('RPOP', KEYS[i])
	if raw then
		local id = cjson.decode(raw)['id']
		redis.call('ZADD', KEYS[n - 1], ARGV[1], id)
		redis.call('HSET', KEYS[n], id, raw)
		return raw
	end
end
return false
`)

// requeueScript возвращает задачи с истёкшей арендой в их очереди.
// KEYS: inflight, inflight:data. ARGV: now, limit, префикс ключей очередей.
var requeueScript = r.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, id in ipairs(ids) do
	local raw = redis.call('HGET', KEYS[2], id)
	redis.call('ZREM', KEYS[1], id)
	redis.call('HDEL', KEYS[2], id)
	if raw then
		redis.call('LPUSH', ARGV[3] .. cjson.decode(raw)['queue'], raw)
	end
end
return #ids
`)

// JobQueueRepo — очереди задач на списках Redis.
// Приоритет обеспечивается порядком ключей в claimScript. Выданная задача остаётся
// в queue:inflight до Ack, отложенные повторы лежат в ZSET queue:retry.
type JobQueueRepo struct {
	client *clients.RedisClient
	conv   converter.JobConverter
	logger logger.Logger
	now    func() time.Time
}

func NewJobQueueRepo(client *clients.RedisClient, conv converter.JobConverter, logger logger.Logger) *JobQueueRepo {
	return &JobQueueRepo{
		client: client,
		conv:   conv,
		logger: logger,
		now:    time.Now,
	}
}

func (j *JobQueueRepo) Enqueue(ctx context.Context, job *domain.Job) error {
	data, err := j.marshal(job)
	if err != nil {
		return err
	}

	if err := j.client.Client.LPush(ctx, queueKey(job.Queue), data).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Dequeue ждёт задачу до timeout, проверяя очереди по приоритету. Пустые очереди дают nil, nil.
// Полученную задачу нужно подтвердить через Ack, иначе по истечении аренды она вернётся в очередь.
func (j *JobQueueRepo) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	keys := make([]string, 0, len(domain.QueuesByPriority)+2)
	for _, q := range domain.QueuesByPriority {
		keys = append(keys, queueKey(q))
	}
	keys = append(keys, queueKey(domain.QueueInflight), inflightDataKey())

	deadline := j.now().Add(timeout)
	for {
		lease := j.now().Add(inflightLease).Unix()
		raw, err := claimScript.Run(ctx, j.client.Client, keys, lease).Text()
		if err == nil {
			return j.unmarshal([]byte(raw))
		}
		if !errors.Is(err, r.Nil) {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		if !j.now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dequeuePause):
		}
	}
}

// Ack снимает аренду с задачи после того, как воркер решил её судьбу.
func (j *JobQueueRepo) Ack(ctx context.Context, job *domain.Job) error {
	pipe := j.client.Client.TxPipeline()
	pipe.ZRem(ctx, queueKey(domain.QueueInflight), job.ID)
	pipe.HDel(ctx, inflightDataKey(), job.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// RequeueExpired возвращает в очереди задачи, чья аренда истекла к now:
// воркер упал или завис, не подтвердив задачу.
func (j *JobQueueRepo) RequeueExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := requeueScript.Run(ctx, j.client.Client,
		[]string{queueKey(domain.QueueInflight), inflightDataKey()},
		now.Unix(), promoteBatch, queueKeyPrefix,
	).Int()
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return n, nil
}

// ScheduleRetry откладывает задачу до момента at.
func (j *JobQueueRepo) ScheduleRetry(ctx context.Context, job *domain.Job, at time.Time) error {
	data, err := j.marshal(job)
	if err != nil {
		return err
	}

	if err := j.client.Client.ZAdd(ctx, queueKey(domain.QueueRetry), r.Z{
		Score:  float64(at.Unix()),
		Member: data,
	}).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PromoteDue переносит созревшие повторы обратно в их очереди. Возвращает число перенесённых задач.
func (j *JobQueueRepo) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	members, err := j.client.Client.ZRangeByScore(ctx, queueKey(domain.QueueRetry), &r.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	promoted := 0
	for _, member := range members {
		// ZREM защищает от двойного переноса несколькими воркерами
		removed, err := j.client.Client.ZRem(ctx, queueKey(domain.QueueRetry), member).Result()
		if err != nil {
			return promoted, e.Wrap(whereami.WhereAmI(), err)
		}
		if removed == 0 {
			continue
		}

		job, err := j.unmarshal([]byte(member))
		if err != nil {
			j.logger.Warnf("Dropping malformed retry job: %v", err)
			continue
		}

		if err := j.client.Client.LPush(ctx, queueKey(job.Queue), member).Err(); err != nil {
			return promoted, e.Wrap(whereami.WhereAmI(), err)
		}
		promoted++
	}

	return promoted, nil
}

// Dead сохраняет задачу, исчерпавшую попытки.
func (j *JobQueueRepo) Dead(ctx context.Context, job *domain.Job) error {
	data, err := j.marshal(job)
	if err != nil {
		return err
	}

	if err := j.client.Client.LPush(ctx, queueKey(domain.QueueDead), data).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Lengths возвращает размеры всех очередей, включая retry, inflight и dead.
func (j *JobQueueRepo) Lengths(ctx context.Context) (map[domain.Queue]int64, error) {
	queues := append(append([]domain.Queue{}, domain.QueuesByPriority...), domain.QueueDead)

	pipe := j.client.Client.Pipeline()
	lens := make(map[domain.Queue]*r.IntCmd, len(queues)+2)
	for _, q := range queues {
		lens[q] = pipe.LLen(ctx, queueKey(q))
	}
	lens[domain.QueueRetry] = pipe.ZCard(ctx, queueKey(domain.QueueRetry))
	lens[domain.QueueInflight] = pipe.ZCard(ctx, queueKey(domain.QueueInflight))

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[domain.Queue]int64, len(lens))
	for q, cmd := range lens {
		result[q] = cmd.Val()
	}

	return result, nil
}

func (j *JobQueueRepo) marshal(job *domain.Job) ([]byte, error) {
	data, err := json.Marshal(j.conv.ToRedisModel(job))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

func (j *JobQueueRepo) unmarshal(data []byte) (*domain.Job, error) {
	var model converter.JobRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return j.conv.ToEntity(&model), nil
}
