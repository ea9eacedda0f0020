// Package session tracks live login sessions in Redis so that a signed
// cookie can be revoked on logout or account deletion.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrUnknownSession is returned by Lookup for expired or revoked sessions.
var ErrUnknownSession = errors.New("session: unknown or expired")

// Registry stores session id -> user id with a TTL.
type Registry struct {
	rdb redis.Cmdable
}

// NewRegistry returns a Registry on rdb.
func NewRegistry(rdb redis.Cmdable) *Registry {
	return &Registry{rdb: rdb}
}

func key(sid string) string {
	return "session:" + sid
}

// Create starts a session for userID and returns its id.
func (r *Registry) Create(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	sid := uuid.NewString()
	if err := r.rdb.Set(ctx, key(sid), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return sid, nil
}

// Lookup returns the user a live session belongs to.
func (r *Registry) Lookup(ctx context.Context, sid string) (uint, error) {
	val, err := r.rdb.Get(ctx, key(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrUnknownSession
	}
	if err != nil {
		return 0, fmt.Errorf("session: lookup: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session: corrupt value for %s: %w", sid, err)
	}
	return uint(id), nil
}

// Revoke ends a session. Revoking an unknown session is not an error.
func (r *Registry) Revoke(ctx context.Context, sid string) error {
	if err := r.rdb.Del(ctx, key(sid)).Err(); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}
