package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
)

const responseKeyPrefix = "explorer:response:"

type ResponseStore interface {
	FindResponse(ctx context.Context, db domain.Source, variant string, fen string) (domain.Response, error)
	SaveResponse(ctx context.Context, db domain.Source, variant string, resp domain.Response) error
}

type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedResponseStorage keeps recently looked up responses in redis in front
// of the position store. Cache failures fall through to the store; saving a
// response evicts its cache entry.
type CachedResponseStorage struct {
	next   ResponseStore
	client cacheClient
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewCachedResponseStorage(next ResponseStore, client cacheClient, ttl time.Duration, log *zap.SugaredLogger) *CachedResponseStorage {
	return &CachedResponseStorage{next: next, client: client, ttl: ttl, log: log}
}

func responseKey(db domain.Source, variant string, fen string) string {
	return responseKeyPrefix + string(db) + ":" + variant + ":" + domain.PositionKey(fen)
}

func (c *CachedResponseStorage) FindResponse(ctx context.Context, db domain.Source, variant string, fen string) (domain.Response, error) {
	key := responseKey(db, variant, fen)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		resp, decodeErr := domain.DecodeResponse(data)
		if decodeErr == nil {
			return resp, nil
		}
		c.log.Warnf("dropping cached response %s: %v", key, decodeErr)
	case !errors.Is(err, redis.Nil):
		c.log.Warnf("response cache is unavailable: %v", err)
	}

	resp, err := c.next.FindResponse(ctx, db, variant, fen)
	if err != nil {
		return nil, err
	}

	encoded, err := domain.EncodeResponse(resp)
	if err != nil {
		c.log.Warnf("response for %s is not cacheable: %v", key, err)
		return resp, nil
	}
	if err = c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.log.Warnf("failed to cache response %s: %v", key, err)
	}
	return resp, nil
}

func (c *CachedResponseStorage) SaveResponse(ctx context.Context, db domain.Source, variant string, resp domain.Response) error {
	if err := c.next.SaveResponse(ctx, db, variant, resp); err != nil {
		return err
	}
	key := responseKey(db, variant, resp.Position())
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to evict cached response %s: %w", key, err)
	}
	return nil
}
