package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/redis/go-redis/v9"

	"quotation_system/internal/session"
)

// memRedis implements the handful of commands the registry issues.
type memRedis struct {
	redis.Cmdable
	mu sync.Mutex
	m  map[string]string
}

func newMemRedis() *memRedis {
	return &memRedis{m: map[string]string{}}
}

func (r *memRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (r *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.m[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.m[k]; ok {
			delete(r.m, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRegistryLifecycle(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	rdb := newMemRedis()
	reg := session.NewRegistry(rdb)

	sid, err := reg.Create(ctx, 42, time.Hour)
	c.Assert(err, qt.IsNil)
	c.Assert(rdb.m, qt.HasLen, 1)
	_, stored := rdb.m["session:"+sid]
	c.Assert(stored, qt.IsTrue)

	uid, err := reg.Lookup(ctx, sid)
	c.Assert(err, qt.IsNil)
	c.Assert(uid, qt.Equals, uint(42))

	c.Assert(reg.Revoke(ctx, sid), qt.IsNil)
	_, err = reg.Lookup(ctx, sid)
	c.Assert(err, qt.ErrorIs, session.ErrUnknownSession)

	c.Assert(reg.Revoke(ctx, "never-existed"), qt.IsNil)
}

func TestRegistryCorruptValue(t *testing.T) {
	c := qt.New(t)
	rdb := newMemRedis()
	rdb.m["session:bad"] = "not-a-number"

	_, err := session.NewRegistry(rdb).Lookup(context.Background(), "bad")
	c.Assert(err, qt.IsNotNil)
	c.Assert(err, qt.Not(qt.ErrorIs), session.ErrUnknownSession)
}
