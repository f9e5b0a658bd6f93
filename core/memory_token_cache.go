package core

import (
	"context"
	"sync"
)

// MemoryTokenCache keeps tokens for the lifetime of the process.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[Environment]CachedToken
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: map[Environment]CachedToken{}}
}

func (c *MemoryTokenCache) Get(_ context.Context, env Environment) (CachedToken, error) {
	if c == nil {
		return CachedToken{}, ErrTokenNotFound
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[env]
	if !ok {
		return CachedToken{}, ErrTokenNotFound
	}
	return token.Clone(), nil
}

func (c *MemoryTokenCache) Set(_ context.Context, env Environment, token CachedToken) error {
	if c == nil {
		return nil
	}
	token = token.Clone()
	token.Environment = env
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = map[Environment]CachedToken{}
	}
	c.tokens[env] = token
	return nil
}

func (c *MemoryTokenCache) Invalidate(_ context.Context, env Environment) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, env)
	return nil
}
