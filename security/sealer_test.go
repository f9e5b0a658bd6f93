package security

import (
	"bytes"
	"context"
	"testing"
)

func TestAppKeySealer_RoundTrip(t *testing.T) {
	sealer, err := NewAppKeySealerFromString("till-secret", WithKeyID("till-7"), WithVersion(3))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	plaintext := []byte(`{"Value":"token-1"}`)
	sealed, err := sealer.Seal(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("token-1")) {
		t.Fatalf("expected token value to be hidden")
	}
	if !bytes.HasPrefix(sealed, []byte(envelopePrefix)) {
		t.Fatalf("expected envelope prefix")
	}

	opened, err := sealer.Open(context.Background(), sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("expected round trip, got %q", opened)
	}
}

func TestAppKeySealer_RejectsForeignDocuments(t *testing.T) {
	issuer, _ := NewAppKeySealerFromString("till-secret", WithKeyID("v1"))
	rotated, _ := NewAppKeySealerFromString("till-secret", WithKeyID("v2"))
	otherKey, _ := NewAppKeySealerFromString("another-secret", WithKeyID("v1"))

	sealed, err := issuer.Seal(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := rotated.Open(context.Background(), sealed); err == nil {
		t.Fatalf("expected key id mismatch")
	}
	if _, err := otherKey.Open(context.Background(), sealed); err == nil {
		t.Fatalf("expected authentication failure under another key")
	}
	if _, err := issuer.Open(context.Background(), []byte(`{"Value":"plain"}`)); err == nil {
		t.Fatalf("expected plain document to be rejected")
	}
}

func TestNewAppKeySealer_RequiresKey(t *testing.T) {
	if _, err := NewAppKeySealer([]byte("  ")); err == nil {
		t.Fatalf("expected error for blank key")
	}
}
