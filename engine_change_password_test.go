package authcore

import (
	"context"
	"testing"
)

func TestChangePasswordHappyPath(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)
	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	if err := engine.ChangePassword(context.Background(), reg.Account.ID, "correct-horse", "brand-new-password"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	_, err := engine.Login(context.Background(), "olivia@example.com", "correct-horse")
	assertIs(t, err, ErrInvalidCredentials)
	if _, err := engine.Login(context.Background(), "olivia@example.com", "brand-new-password"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestChangePasswordRevokesExistingSession(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)
	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	if err := engine.ChangePassword(context.Background(), reg.Account.ID, "correct-horse", "brand-new-password"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := engine.Authenticate(context.Background(), "", reg.RefreshToken); err != ErrUnauthenticated {
		t.Fatalf("expected old refresh credential revoked, got %v", err)
	}
}

func TestChangePasswordWrongCurrentRejected(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)
	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	err := engine.ChangePassword(context.Background(), reg.Account.ID, "wrong-password", "brand-new-password")
	assertIs(t, err, ErrInvalidCredentials)
}

func TestChangePasswordReuseRejected(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)
	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	err := engine.ChangePassword(context.Background(), reg.Account.ID, "correct-horse", "correct-horse")
	assertIs(t, err, ErrPasswordReuse)
}

func TestChangePasswordUnknownAccountRejected(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)

	err := engine.ChangePassword(context.Background(), "missing-id", "anything", "brand-new-password")
	assertIs(t, err, ErrInvalidCredentials)
}
