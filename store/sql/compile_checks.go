package sqlstore

import "github.com/goliatone/go-etims/core"

var (
	_ core.TokenCache = (*TokenStore)(nil)
	_ core.TokenCache = (*CachedTokenStore)(nil)
)
