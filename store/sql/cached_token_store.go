package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-etims/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const tokenCacheKeyPrefix = "go-etims::token::v1"

// CachedTokenStore reads through a go-repository-cache service in front of a
// slower TokenCache. Writes go to the base store first and then drop the
// cached entry.
//
// The cache service is local to the process. When the base store is shared,
// a write or invalidate from another process is seen here only after the
// entry's TTL lapses; keep the TTL below the token renew window.
type CachedTokenStore struct {
	base  core.TokenCache
	cache repositorycache.CacheService
}

func NewCachedTokenStore(base core.TokenCache, cacheService repositorycache.CacheService) (*CachedTokenStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base token cache is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: token cache service is required")
	}
	return &CachedTokenStore{base: base, cache: cacheService}, nil
}

// TokenCacheKey returns go-etims::token::v1::<environment>.
func TokenCacheKey(env core.Environment) string {
	return tokenCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(string(env)))
}

func (s *CachedTokenStore) Get(ctx context.Context, env core.Environment) (core.CachedToken, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.CachedToken{}, fmt.Errorf("sqlstore: cached token store is not configured")
	}
	token, err := repositorycache.GetOrFetch(ctx, s.cache, TokenCacheKey(env), func(ctx context.Context) (core.CachedToken, error) {
		fetched, fetchErr := s.base.Get(ctx, env)
		if fetchErr != nil {
			return core.CachedToken{}, fetchErr
		}
		return fetched.Clone(), nil
	})
	if err != nil {
		return core.CachedToken{}, err
	}
	return token.Clone(), nil
}

func (s *CachedTokenStore) Set(ctx context.Context, env core.Environment, token core.CachedToken) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached token store is not configured")
	}
	if err := s.base.Set(ctx, env, token); err != nil {
		return err
	}
	return s.cache.Delete(ctx, TokenCacheKey(env))
}

func (s *CachedTokenStore) Invalidate(ctx context.Context, env core.Environment) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached token store is not configured")
	}
	if err := s.base.Invalidate(ctx, env); err != nil {
		return err
	}
	return s.cache.Delete(ctx, TokenCacheKey(env))
}
