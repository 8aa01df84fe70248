package store

import (
	"context"
	"testing"
	"time"

	"github.com/deklata/deklata/internal/db"
)

func TestGetJWTSecretGeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}

	second, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret (second call): %v", err)
	}
	if second != first {
		t.Error("secret changed between calls, should be persisted")
	}
}

func TestTokenRevocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "some-jti")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("unknown JTI reported as revoked")
	}

	expires := time.Now().Add(time.Hour)
	if err := RevokeToken(ctx, database, "some-jti", expires); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	// Revoking twice is a no-op.
	if err := RevokeToken(ctx, database, "some-jti", expires); err != nil {
		t.Fatalf("RevokeToken (repeat): %v", err)
	}

	revoked, err = IsTokenRevoked(ctx, database, "some-jti")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("revoked JTI not reported as revoked")
	}

	// Expired revocations are swept on the next revoke call.
	if err := RevokeToken(ctx, database, "stale-jti", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken (expired): %v", err)
	}
	if err := RevokeToken(ctx, database, "another-jti", expires); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	revoked, _ = IsTokenRevoked(ctx, database, "stale-jti")
	if revoked {
		t.Error("expired revocation survived cleanup")
	}
}
