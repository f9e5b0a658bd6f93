package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryTokenCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTokenCache()
	expires := time.Now().Add(time.Hour).UTC()

	if err := cache.Set(ctx, EnvironmentSandbox, CachedToken{Value: "tok-1", ExpiresAt: &expires}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := cache.Get(ctx, EnvironmentSandbox)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value != "tok-1" || got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected token %#v", got)
	}
	if got.Environment != EnvironmentSandbox {
		t.Fatalf("expected environment stamped, got %q", got.Environment)
	}
	if _, err := cache.Get(ctx, EnvironmentProduction); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected environments to be isolated, got %v", err)
	}

	if err := cache.Invalidate(ctx, EnvironmentSandbox); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := cache.Invalidate(ctx, EnvironmentSandbox); err != nil {
		t.Fatalf("second invalidate should be a no-op: %v", err)
	}
	if _, err := cache.Get(ctx, EnvironmentSandbox); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected not found after invalidate, got %v", err)
	}
}

func TestMemoryTokenCache_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTokenCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cache.Set(ctx, EnvironmentSandbox, CachedToken{Value: "tok"})
			_, _ = cache.Get(ctx, EnvironmentSandbox)
		}()
	}
	wg.Wait()
	got, err := cache.Get(ctx, EnvironmentSandbox)
	if err != nil || got.Value != "tok" {
		t.Fatalf("unexpected state after concurrent writes: %#v %v", got, err)
	}
}
