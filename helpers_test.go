package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// mockAccountProvider is an in-memory AccountProvider for engine tests.
type mockAccountProvider struct {
	mu       sync.Mutex
	accounts map[string]Account
	byEmail  map[string]string
}

func newMockProvider() *mockAccountProvider {
	return &mockAccountProvider{
		accounts: map[string]Account{},
		byEmail:  map[string]string{},
	}
}

func (p *mockAccountProvider) GetByEmail(_ context.Context, email string) (Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byEmail[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return p.accounts[id], nil
}

func (p *mockAccountProvider) GetByID(_ context.Context, id string) (Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (p *mockAccountProvider) Create(_ context.Context, input CreateAccountInput) (Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[input.Email]; exists {
		return Account{}, ErrDuplicateEmail
	}
	account := Account{
		ID:                uuid.NewString(),
		Name:              input.Name,
		Email:             input.Email,
		PasswordHash:      input.PasswordHash,
		Role:              input.Role,
		VerificationToken: input.VerificationToken,
	}
	p.accounts[account.ID] = account
	p.byEmail[account.Email] = account.ID
	return account, nil
}

func (p *mockAccountProvider) AdminExists(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, account := range p.accounts {
		if account.Role == RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (p *mockAccountProvider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.PasswordHash = hash
	p.accounts[id] = account
	return nil
}

func (p *mockAccountProvider) MarkVerified(_ context.Context, id string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.IsVerified = true
	account.VerifiedAt = at
	account.VerificationToken = ""
	p.accounts[id] = account
	return nil
}

func (p *mockAccountProvider) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.ResetTokenHash = tokenHash
	account.ResetTokenExpiresAt = expiresAt
	p.accounts[id] = account
	return nil
}

func (p *mockAccountProvider) ClearResetToken(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.ResetTokenHash = ""
	account.ResetTokenExpiresAt = time.Time{}
	p.accounts[id] = account
	return nil
}

func (p *mockAccountProvider) stored(t *testing.T, id string) Account {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[id]
	if !ok {
		t.Fatalf("no stored account %s", id)
	}
	return account
}

// recordingMailer captures outbound payloads so tests can redeem the
// generated one-time tokens.
type recordingMailer struct {
	mu            sync.Mutex
	verifications []EmailPayload
	resets        []EmailPayload
	fail          error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, payload EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.verifications = append(m.verifications, payload)
	return nil
}

func (m *recordingMailer) SendResetPasswordEmail(_ context.Context, payload EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.resets = append(m.resets, payload)
	return nil
}

func (m *recordingMailer) lastReset(t *testing.T) EmailPayload {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resets) == 0 {
		t.Fatal("no reset mail recorded")
	}
	return m.resets[len(m.resets)-1]
}

func (m *recordingMailer) lastVerification(t *testing.T) EmailPayload {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.verifications) == 0 {
		t.Fatal("no verification mail recorded")
	}
	return m.verifications[len(m.verifications)-1]
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testEngineConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Cheap hashing keeps the suite fast without weakening assertions.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, provider AccountProvider, mailer Mailer) *Engine {
	t.Helper()

	_, client := newTestRedis(t)

	builder := New().
		WithConfig(cfg).
		WithRedis(client).
		WithAccountProvider(provider)
	if mailer != nil {
		builder = builder.WithMailer(mailer)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func mustRegister(t *testing.T, engine *Engine, name, email, password string) *RegisterResult {
	t.Helper()
	result, err := engine.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return result
}

func assertIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
