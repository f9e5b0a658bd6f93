package sqlstore

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-etims/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenStore persists one bearer token per environment in etims_tokens so
// several processes can share a token.
type TokenStore struct {
	db   *bun.DB
	repo repository.Repository[*tokenRecord]
	now  func() time.Time
}

func NewTokenStore(db *bun.DB) (*TokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenRecord](db, tokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid token repository wiring: %w", err)
		}
	}
	return &TokenStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewTokenStoreFromPersistence accepts a *bun.DB or anything exposing DB(),
// such as a go-persistence-bun client.
func NewTokenStoreFromPersistence(client any) (*TokenStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewTokenStore(db)
}

// EnsureSchema creates etims_tokens when it does not exist.
func (s *TokenStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	_, err := s.db.NewCreateTable().
		Model((*tokenRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return storeError("sqlstore: create token table", err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, env core.Environment) (core.CachedToken, error) {
	if s == nil || s.db == nil {
		return core.CachedToken{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("environment", "=", string(env)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.CachedToken{}, storeError("sqlstore: load token", err)
	}
	if len(records) == 0 || records[0] == nil || records[0].Value == "" {
		return core.CachedToken{}, core.ErrTokenNotFound
	}
	return records[0].toDomain(), nil
}

// Set upserts on the environment column; the row id survives replacement.
func (s *TokenStore) Set(ctx context.Context, env core.Environment, token core.CachedToken) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	now := s.now()
	issuedAt := token.IssuedAt.UTC()
	if token.IssuedAt.IsZero() {
		issuedAt = now
	}
	record := &tokenRecord{
		ID:          uuid.NewString(),
		Environment: string(env),
		Value:       token.Value,
		IssuedAt:    issuedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if token.ExpiresAt != nil {
		value := token.ExpiresAt.UTC()
		record.ExpiresAt = &value
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (environment) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("expires_at = EXCLUDED.expires_at").
		Set("issued_at = EXCLUDED.issued_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return storeError("sqlstore: save token", err)
	}
	return nil
}

func (s *TokenStore) Invalidate(ctx context.Context, env core.Environment) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("environment = ?", string(env)).
		Exec(ctx)
	if err != nil {
		return storeError("sqlstore: delete token", err)
	}
	return nil
}

func storeError(message string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(core.TextCodeInternal)
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
