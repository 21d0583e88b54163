package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "chess_explorer/internal/domain/explorer"
	explorerErrors "chess_explorer/internal/errors"
)

const sessionKeyPrefix = "explorer:session:"

// sessionClient is the part of *redis.Client the session storage uses.
type sessionClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisSessionStorage struct {
	client sessionClient
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewSessionRedisStorage(client sessionClient, ttl time.Duration, log *zap.SugaredLogger) *RedisSessionStorage {
	return &RedisSessionStorage{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// SaveSession stores the session and restarts its expiry.
func (r *RedisSessionStorage) SaveSession(ctx context.Context, session domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}
	if err = r.client.Set(ctx, sessionKeyPrefix+session.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}
	return nil
}

func (r *RedisSessionStorage) LoadSession(ctx context.Context, id string) (domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, explorerErrors.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var session domain.Session
	if err = json.Unmarshal(data, &session); err != nil {
		r.log.Errorf("session %s is corrupted: %v", id, err)
		return domain.Session{}, fmt.Errorf("%w: corrupted session %s", explorerErrors.ErrInternal, id)
	}
	return session, nil
}

func (r *RedisSessionStorage) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	removed, err := r.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if removed == 0 {
		return explorerErrors.ErrSessionNotFound
	}
	return nil
}
