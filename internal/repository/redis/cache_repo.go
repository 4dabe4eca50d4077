package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/pkg/clients"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const scanBatch = 100

// CacheRepo хранит JSON-ответы отчётов с TTL.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Get читает значение по ключу в dst. false при промахе.
func (c *CacheRepo) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return false, nil // cache miss
		}
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warnf("Redis unmarshal failed, key: %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(ctx, key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return false, nil
	}

	return true, nil
}

func (c *CacheRepo) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, key, data, c.cfg.ReportTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeletePrefix удаляет все ключи с префиксом. Использует SCAN, не блокируя Redis.
func (c *CacheRepo) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if len(keys) > 0 {
			if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
				return e.Wrap(whereami.WhereAmI(), err)
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}
