package sqlstore

import (
	"time"

	"github.com/goliatone/go-etims/core"
	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:etims_tokens,alias:et"`

	ID          string     `bun:"id,pk"`
	Environment string     `bun:"environment,notnull,unique"`
	Value       string     `bun:"value,notnull"`
	ExpiresAt   *time.Time `bun:"expires_at,nullzero"`
	IssuedAt    time.Time  `bun:"issued_at,nullzero,notnull,default:current_timestamp"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *tokenRecord) toDomain() core.CachedToken {
	if r == nil {
		return core.CachedToken{}
	}
	token := core.CachedToken{
		Value:       r.Value,
		Environment: core.Environment(r.Environment),
		IssuedAt:    r.IssuedAt.UTC(),
	}
	if r.ExpiresAt != nil {
		value := r.ExpiresAt.UTC()
		token.ExpiresAt = &value
	}
	return token
}
