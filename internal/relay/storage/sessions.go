package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a token is unknown or expired.
var ErrNoSession = errors.New("no such session")

const sessionTokenBytes = 32

// SessionCache keeps bearer tokens and unread counters in Redis.
type SessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionCache returns a SessionCache with the given token lifetime.
func NewSessionCache(rdb *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{rdb: rdb, ttl: ttl}
}

// Issue creates a fresh bearer token for username.
func (c *SessionCache) Issue(ctx context.Context, username string) (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	if err := c.rdb.Set(ctx, sessionKey(token), username, c.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Lookup resolves a token to its username.
func (c *SessionCache) Lookup(ctx context.Context, token string) (string, error) {
	username, err := c.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

// IncrUnread bumps the unread counter for messages from -> to.
func (c *SessionCache) IncrUnread(ctx context.Context, to, from string) error {
	return c.rdb.Incr(ctx, unreadKey(to, from)).Err()
}

// ResetUnread clears the unread counter for me's conversation with peer.
func (c *SessionCache) ResetUnread(ctx context.Context, me, peer string) error {
	return c.rdb.Del(ctx, unreadKey(me, peer)).Err()
}

// Unread returns the unread counter for me's conversation with peer.
func (c *SessionCache) Unread(ctx context.Context, me, peer string) (int64, error) {
	n, err := c.rdb.Get(ctx, unreadKey(me, peer)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func sessionKey(token string) string { return "session:" + token }

func unreadKey(me, peer string) string {
	return fmt.Sprintf("unread:%s:%s", me, peer)
}
