package token

import (
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "authcore-test",
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	mgr, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr
}

func TestNewManagerRejectsWeakConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = []byte("short")
	if _, err := NewManager(cfg); err == nil {
		t.Fatal("expected short secret to be rejected")
	}

	cfg = testConfig()
	cfg.AccessTTL = 0
	if _, err := NewManager(cfg); err == nil {
		t.Fatal("expected zero access ttl to be rejected")
	}

	cfg = testConfig()
	cfg.Leeway = 10 * time.Minute
	if _, err := NewManager(cfg); err == nil {
		t.Fatal("expected excessive leeway to be rejected")
	}
}

func TestAccessRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	signed, err := mgr.CreateAccess("u1", "alice", "admin")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	claims, err := mgr.ParseAccess(signed)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.AccountID != "u1" || claims.Name != "alice" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	signed, err := mgr.CreateRefresh("u1", "alice", "user", "opaque-secret")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	claims, err := mgr.ParseRefresh(signed)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.AccountID != "u1" || claims.Secret != "opaque-secret" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestExpiredAccessAlwaysFails(t *testing.T) {
	cfg := testConfig()
	cfg.Leeway = 0
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	signed, err := mgr.CreateAccessWithTTL("u1", "alice", "user", -time.Minute)
	if err != nil {
		t.Fatalf("CreateAccessWithTTL failed: %v", err)
	}

	if _, err := mgr.ParseAccess(signed); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestTamperedTokenFails(t *testing.T) {
	mgr := newTestManager(t)

	signed, err := mgr.CreateAccess("u1", "alice", "user")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", signed)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := mgr.ParseAccess(tampered); err == nil {
		t.Fatal("expected tampered token to fail verification")
	}
}

func TestWrongSecretFails(t *testing.T) {
	mgr := newTestManager(t)

	other := testConfig()
	other.Secret = []byte("fedcba9876543210fedcba9876543210")
	otherMgr, err := NewManager(other)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	signed, err := mgr.CreateAccess("u1", "alice", "user")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if _, err := otherMgr.ParseAccess(signed); err == nil {
		t.Fatal("expected token signed with a different secret to fail")
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	mgr := newTestManager(t)

	access, err := mgr.CreateAccess("u1", "alice", "user")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := mgr.CreateRefresh("u1", "alice", "user", "s")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if _, err := mgr.ParseAccess(refresh); err == nil {
		t.Fatal("expected refresh token to fail access parse")
	}
	if _, err := mgr.ParseRefresh(access); err == nil {
		t.Fatal("expected access token to fail refresh parse")
	}
}
