package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-etims/core"
	"github.com/goliatone/go-etims/security"
)

func newCache(t *testing.T) *TokenCache {
	t.Helper()
	cache, err := NewTokenCache(filepath.Join(t.TempDir(), "tokens"))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return cache
}

func TestTokenCache_RoundTripPerEnvironment(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	expires := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := cache.Set(ctx, core.EnvironmentSandbox, core.CachedToken{Value: "sbx-token", ExpiresAt: &expires}); err != nil {
		t.Fatalf("set sandbox: %v", err)
	}
	if err := cache.Set(ctx, core.EnvironmentProduction, core.CachedToken{Value: "prod-token"}); err != nil {
		t.Fatalf("set production: %v", err)
	}

	got, err := cache.Get(ctx, core.EnvironmentSandbox)
	if err != nil {
		t.Fatalf("get sandbox: %v", err)
	}
	if got.Value != "sbx-token" || got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected sandbox token %+v", got)
	}
	got, err = cache.Get(ctx, core.EnvironmentProduction)
	if err != nil || got.Value != "prod-token" || got.ExpiresAt != nil {
		t.Fatalf("unexpected production token %+v %v", got, err)
	}
}

func TestTokenCache_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions only")
	}
	cache := newCache(t)
	if err := cache.Set(context.Background(), core.EnvironmentSandbox, core.CachedToken{Value: "secret"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	info, err := os.Stat(cache.Path(core.EnvironmentSandbox))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != fileMode {
		t.Fatalf("expected mode %o, got %o", fileMode, info.Mode().Perm())
	}
	entries, _ := os.ReadDir(cache.Dir())
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestTokenCache_MissingAndCorruptAreMisses(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)

	if _, err := cache.Get(ctx, core.EnvironmentSandbox); !errors.Is(err, core.ErrTokenNotFound) {
		t.Fatalf("expected miss on empty cache, got %v", err)
	}

	if err := os.MkdirAll(cache.Dir(), dirMode); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cache.Path(core.EnvironmentSandbox), []byte("{not json"), fileMode); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := cache.Get(ctx, core.EnvironmentSandbox); !errors.Is(err, core.ErrTokenNotFound) {
		t.Fatalf("expected miss on corrupt file, got %v", err)
	}

	if err := cache.Set(ctx, core.EnvironmentSandbox, core.CachedToken{Value: "fresh"}); err != nil {
		t.Fatalf("overwrite corrupt file: %v", err)
	}
	if got, err := cache.Get(ctx, core.EnvironmentSandbox); err != nil || got.Value != "fresh" {
		t.Fatalf("expected overwrite to recover, got %+v %v", got, err)
	}
}

func TestTokenCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	if err := cache.Invalidate(ctx, core.EnvironmentSandbox); err != nil {
		t.Fatalf("invalidate missing entry: %v", err)
	}
	if err := cache.Set(ctx, core.EnvironmentSandbox, core.CachedToken{Value: "v"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Invalidate(ctx, core.EnvironmentSandbox); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.Get(ctx, core.EnvironmentSandbox); !errors.Is(err, core.ErrTokenNotFound) {
		t.Fatalf("expected miss after invalidate, got %v", err)
	}
}

func TestTokenCache_ConcurrentWritersLeaveValidDocument(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cache.Set(ctx, core.EnvironmentSandbox, core.CachedToken{Value: "token"})
			_, _ = cache.Get(ctx, core.EnvironmentSandbox)
		}()
	}
	wg.Wait()
	if got, err := cache.Get(ctx, core.EnvironmentSandbox); err != nil || got.Value != "token" {
		t.Fatalf("expected a valid document, got %+v %v", got, err)
	}
}

func TestNewTokenCache_RequiresDirectory(t *testing.T) {
	if _, err := NewTokenCache("  "); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTokenCache_SealedDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sealer, err := security.NewAppKeySealerFromString("cache-key")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	cache, err := NewTokenCache(dir, WithSealer(sealer))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if err := cache.Set(ctx, core.EnvironmentSandbox, core.CachedToken{Value: "sealed-token"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(cache.Path(core.EnvironmentSandbox))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if strings.Contains(string(raw), "sealed-token") {
		t.Fatalf("expected token value to be sealed on disk")
	}
	if got, err := cache.Get(ctx, core.EnvironmentSandbox); err != nil || got.Value != "sealed-token" {
		t.Fatalf("expected sealed round trip, got %+v %v", got, err)
	}

	otherSealer, _ := security.NewAppKeySealerFromString("other-key")
	other, _ := NewTokenCache(dir, WithSealer(otherSealer))
	if _, err := other.Get(ctx, core.EnvironmentSandbox); !errors.Is(err, core.ErrTokenNotFound) {
		t.Fatalf("expected miss under a different key, got %v", err)
	}
	plain, _ := NewTokenCache(dir)
	if _, err := plain.Get(ctx, core.EnvironmentSandbox); !errors.Is(err, core.ErrTokenNotFound) {
		t.Fatalf("expected miss without sealer, got %v", err)
	}
}
