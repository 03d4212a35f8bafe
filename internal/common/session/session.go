// Package session holds the authenticated portal session for the process.
//
// The token is kept in memory behind a mutex and, when a redis address is
// configured, persisted there so it survives separate CLI invocations. It is
// injected into the API client rather than read as an ambient global, and is
// cleared on logout or on any 401 from the backend.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"intern-portal/internal/common/config"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "portal:session:token"

// Context owns the auth token lifecycle: initialize on load, set on login,
// clear on logout or 401.
type Context struct {
	mu          sync.RWMutex
	token       string
	tokenTTL    time.Duration
	redisClient *redis.Client
	onClear     []func()
}

// New builds a session context. cfg.Redis.Address may be empty, in which case
// the token is process-local only.
func New(cfg config.SessionConfig) *Context {
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	}
	return &Context{
		tokenTTL:    cfg.TokenTTL,
		redisClient: rdb,
	}
}

// Initialize loads a previously persisted token, if any. Safe to call without
// a redis backend; it is then a no-op.
func (c *Context) Initialize(ctx context.Context) error {
	if c.redisClient == nil {
		return nil
	}
	token, err := c.redisClient.Get(ctx, tokenKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// Token returns the current auth token, empty when unauthenticated.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a token is present.
func (c *Context) Authenticated() bool {
	return c.Token() != ""
}

// Set stores a fresh token, persisting it when a redis backend is configured.
func (c *Context) Set(ctx context.Context, token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.redisClient == nil {
		return nil
	}
	if err := c.redisClient.Set(ctx, tokenKey, token, c.tokenTTL).Err(); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	return nil
}

// Clear drops the token everywhere and fires the registered hooks.
// Called on logout and whenever the backend answers 401.
func (c *Context) Clear(ctx context.Context) {
	c.mu.Lock()
	c.token = ""
	hooks := make([]func(), len(c.onClear))
	copy(hooks, c.onClear)
	c.mu.Unlock()

	if c.redisClient != nil {
		_ = c.redisClient.Del(ctx, tokenKey).Err()
	}
	for _, hook := range hooks {
		hook()
	}
}

// OnClear registers a hook invoked after the session is cleared.
func (c *Context) OnClear(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClear = append(c.onClear, hook)
}

// Redis exposes the backing redis client so other components can share the
// connection. Nil when no redis address is configured.
func (c *Context) Redis() *redis.Client {
	return c.redisClient
}

// Close releases the redis connection, if any.
func (c *Context) Close() error {
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}
