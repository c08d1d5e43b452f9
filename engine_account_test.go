package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterFirstRegistrantBecomesAdmin(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)

	first := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")
	if first.Account.Role != RoleAdmin {
		t.Fatalf("expected first registrant to be admin, got %v", first.Account.Role)
	}

	second := mustRegister(t, engine, "Noah", "noah@example.com", "correct-horse")
	if second.Account.Role != RoleUser {
		t.Fatalf("expected second registrant to be user, got %v", second.Account.Role)
	}
}

func TestRegisterIssuesWorkingCredentials(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)

	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")
	if reg.AccessToken == "" || reg.RefreshToken == "" {
		t.Fatal("expected credential pair on registration")
	}

	res, err := engine.ValidateAccess(reg.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if res.AccountID != reg.Account.ID {
		t.Fatalf("access credential bound to %s, want %s", res.AccountID, reg.Account.ID)
	}

	stored := provider.stored(t, reg.Account.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "correct-horse" {
		t.Fatal("expected stored password to be hashed")
	}
}

func TestRegisterDuplicateEmailRejected(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)

	mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	_, err := engine.Register(context.Background(), RegisterInput{
		Name:     "Impostor",
		Email:    "olivia@example.com",
		Password: "other-password",
	})
	assertIs(t, err, ErrAccountExists)
}

func TestRegisterValidation(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)

	cases := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"short name", RegisterInput{Name: "Al", Email: "al@example.com", Password: "long-enough"}, "name"},
		{"missing email", RegisterInput{Name: "Alice", Email: "", Password: "long-enough"}, "email"},
		{"malformed email", RegisterInput{Name: "Alice", Email: "not-an-email", Password: "long-enough"}, "email"},
		{"short password", RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "short"}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Register(context.Background(), tc.input)
			assertIs(t, err, ErrValidation)

			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %T", err)
			}
			if fieldErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, fieldErr.Field)
			}
		})
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	provider := newMockProvider()
	engine := newTestEngine(t, testEngineConfig(), provider, nil)

	reg := mustRegister(t, engine, "Olivia", "  Olivia@Example.COM ", "correct-horse")
	if reg.Account.Email != "olivia@example.com" {
		t.Fatalf("expected normalized email, got %q", reg.Account.Email)
	}
}

func TestRegisterStoresVerificationTokenAndMails(t *testing.T) {
	provider := newMockProvider()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, testEngineConfig(), provider, mailer)

	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	payload := mailer.lastVerification(t)
	if payload.Email != "olivia@example.com" || payload.Token == "" {
		t.Fatalf("unexpected verification payload: %+v", payload)
	}

	stored := provider.stored(t, reg.Account.ID)
	if stored.VerificationToken != payload.Token {
		t.Fatal("mailed token must match the stored one")
	}
	if stored.IsVerified {
		t.Fatal("new account must start unverified")
	}
}

func TestRegisterFailsWhenMailerUnavailable(t *testing.T) {
	provider := newMockProvider()
	mailer := &recordingMailer{fail: errors.New("smtp down")}
	engine := newTestEngine(t, testEngineConfig(), provider, mailer)

	_, err := engine.Register(context.Background(), RegisterInput{
		Name:     "Olivia",
		Email:    "olivia@example.com",
		Password: "correct-horse",
	})
	assertIs(t, err, ErrEmailUnavailable)
}

func TestRegisterSkipsTokenWhenVerificationDisabled(t *testing.T) {
	cfg := testEngineConfig()
	cfg.EmailVerification.Enabled = false

	provider := newMockProvider()
	mailer := &recordingMailer{}
	engine := newTestEngine(t, cfg, provider, mailer)

	reg := mustRegister(t, engine, "Olivia", "olivia@example.com", "correct-horse")

	stored := provider.stored(t, reg.Account.ID)
	if stored.VerificationToken != "" {
		t.Fatal("expected no verification token when the flow is disabled")
	}
	if len(mailer.verifications) != 0 {
		t.Fatal("expected no verification mail when the flow is disabled")
	}
}
