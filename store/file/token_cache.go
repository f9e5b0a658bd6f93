package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-etims/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	filePrefix = "etims-token-"
	fileSuffix = ".json"
	fileMode   = 0o600
	dirMode    = 0o700
)

// TokenCache keeps one JSON document per environment under a directory.
// Writes go to a temp file that is synced and renamed over the target, so a
// reader never sees a partial document.
type TokenCache struct {
	dir    string
	mu     sync.RWMutex
	logger glog.Logger
	sealer Sealer
}

// Sealer encrypts documents before they reach disk.
type Sealer interface {
	Seal(ctx context.Context, plaintext []byte) ([]byte, error)
	Open(ctx context.Context, sealed []byte) ([]byte, error)
}

type Option func(*TokenCache)

func WithSealer(sealer Sealer) Option {
	return func(c *TokenCache) {
		c.sealer = sealer
	}
}

func WithLogger(logger glog.Logger) Option {
	return func(c *TokenCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewTokenCache(dir string, opts ...Option) (*TokenCache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, core.NewConfigurationError(core.TextCodeConfigurationInvalid, "file cache: directory is required", nil)
	}
	cache := &TokenCache{dir: dir, logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}
	return cache, nil
}

func (c *TokenCache) Dir() string {
	return c.dir
}

func (c *TokenCache) Path(env core.Environment) string {
	return filepath.Join(c.dir, filePrefix+string(env)+fileSuffix)
}

// Get treats a missing, unreadable, corrupt or unopenable file as a miss.
func (c *TokenCache) Get(ctx context.Context, env core.Environment) (core.CachedToken, error) {
	c.mu.RLock()
	raw, err := os.ReadFile(c.Path(env))
	c.mu.RUnlock()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("token cache read failed", "environment", env, "error", err)
		}
		return core.CachedToken{}, core.ErrTokenNotFound
	}
	if c.sealer != nil {
		if raw, err = c.sealer.Open(ctx, raw); err != nil {
			c.logger.Warn("token cache entry could not be opened", "environment", env, "error", err)
			return core.CachedToken{}, core.ErrTokenNotFound
		}
	}
	var token core.CachedToken
	if err := json.Unmarshal(raw, &token); err != nil {
		c.logger.Warn("token cache entry is corrupt", "environment", env, "error", err)
		return core.CachedToken{}, core.ErrTokenNotFound
	}
	if strings.TrimSpace(token.Value) == "" || token.Environment != env {
		return core.CachedToken{}, core.ErrTokenNotFound
	}
	return token, nil
}

func (c *TokenCache) Set(ctx context.Context, env core.Environment, token core.CachedToken) error {
	token = token.Clone()
	token.Environment = env
	raw, err := json.Marshal(token)
	if err != nil {
		return cacheError("file cache: encode token", err)
	}
	if c.sealer != nil {
		if raw, err = c.sealer.Seal(ctx, raw); err != nil {
			return cacheError("file cache: seal token", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, dirMode); err != nil {
		return cacheError("file cache: create directory", err)
	}
	tmp, err := os.CreateTemp(c.dir, filePrefix+string(env)+"-*.tmp")
	if err != nil {
		return cacheError("file cache: create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		cleanup()
		return cacheError("file cache: set permissions", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		cleanup()
		return cacheError("file cache: write token", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return cacheError("file cache: sync token", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return cacheError("file cache: close token", err)
	}
	if err := os.Rename(tmpName, c.Path(env)); err != nil {
		_ = os.Remove(tmpName)
		return cacheError("file cache: replace token", err)
	}
	return nil
}

func (c *TokenCache) Invalidate(_ context.Context, env core.Environment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.Path(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cacheError("file cache: remove token", err)
	}
	return nil
}

func cacheError(message string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(core.TextCodeInternal)
}

var _ core.TokenCache = (*TokenCache)(nil)
