package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis keeps string values in memory and answers with the command
// results go-redis would return.
type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
	sets   int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.sets++
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	default:
		f.values[key] = fmt.Sprint(v)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

var errConnRefused = errors.New("dial tcp: connection refused")
