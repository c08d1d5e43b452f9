package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authcore "github.com/commercekit/authcore"
)

type memoryProvider struct {
	mu       sync.Mutex
	byID     map[string]authcore.Account
	idByMail map[string]string
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{
		byID:     make(map[string]authcore.Account),
		idByMail: make(map[string]string),
	}
}

func (p *memoryProvider) GetByEmail(_ context.Context, email string) (authcore.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.idByMail[email]
	if !ok {
		return authcore.Account{}, authcore.ErrAccountNotFound
	}
	return p.byID[id], nil
}

func (p *memoryProvider) GetByID(_ context.Context, id string) (authcore.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.byID[id]
	if !ok {
		return authcore.Account{}, authcore.ErrAccountNotFound
	}
	return account, nil
}

func (p *memoryProvider) Create(_ context.Context, input authcore.CreateAccountInput) (authcore.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.idByMail[input.Email]; exists {
		return authcore.Account{}, authcore.ErrDuplicateEmail
	}
	account := authcore.Account{
		ID:                uuid.NewString(),
		Name:              input.Name,
		Email:             input.Email,
		PasswordHash:      input.PasswordHash,
		Role:              input.Role,
		VerificationToken: input.VerificationToken,
	}
	p.byID[account.ID] = account
	p.idByMail[account.Email] = account.ID
	return account, nil
}

func (p *memoryProvider) AdminExists(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, account := range p.byID {
		if account.Role == authcore.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (p *memoryProvider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.byID[id]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	account.PasswordHash = hash
	p.byID[id] = account
	return nil
}

func (p *memoryProvider) MarkVerified(_ context.Context, id string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.byID[id]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	account.IsVerified = true
	account.VerifiedAt = at
	account.VerificationToken = ""
	p.byID[id] = account
	return nil
}

func (p *memoryProvider) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.byID[id]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	account.ResetTokenHash = tokenHash
	account.ResetTokenExpiresAt = expiresAt
	p.byID[id] = account
	return nil
}

func (p *memoryProvider) ClearResetToken(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.byID[id]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	account.ResetTokenHash = ""
	account.ResetTokenExpiresAt = time.Time{}
	p.byID[id] = account
	return nil
}

func newTestEngine(t *testing.T) (*authcore.Engine, *CookieManager, authcore.Config) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.EmailVerification.Enabled = false
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithAccountProvider(newMemoryProvider()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, NewCookieManager(cfg), cfg
}

func registerAccount(t *testing.T, engine *authcore.Engine, email string) *authcore.RegisterResult {
	t.Helper()
	result, err := engine.Register(context.Background(), authcore.RegisterInput{
		Name:     "Tester",
		Email:    email,
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardAllowsValidAccessCookie(t *testing.T) {
	engine, cookies, cfg := newTestEngine(t)
	reg := registerAccount(t, engine, "shopper@example.com")

	var seen *authcore.AuthResult
	handler := Guard(engine, cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AuthResultFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Cookie.AccessName, Value: reg.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.AccountID != reg.Account.ID {
		t.Fatalf("expected auth result for account %s, got %+v", reg.Account.ID, seen)
	}
	if seen.Renewed {
		t.Fatal("valid access credential must not trigger renewal")
	}
}

func TestGuardRejectsMissingCookies(t *testing.T) {
	engine, cookies, _ := newTestEngine(t)

	handler := Guard(engine, cookies)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuardRenewsFromRefreshCookie(t *testing.T) {
	engine, cookies, cfg := newTestEngine(t)
	reg := registerAccount(t, engine, "shopper@example.com")

	handler := Guard(engine, cookies)(okHandler())

	// Only the refresh cookie is presented; the guard must mint and set a
	// replacement access cookie.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Cookie.RefreshName, Value: reg.RefreshToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var renewed string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cfg.Cookie.AccessName {
			renewed = cookie.Value
		}
	}
	if renewed == "" {
		t.Fatal("expected renewed access cookie on response")
	}
	if _, err := engine.ValidateAccess(renewed); err != nil {
		t.Fatalf("renewed access credential does not validate: %v", err)
	}
}

func TestGuardRejectsAfterLogout(t *testing.T) {
	engine, cookies, cfg := newTestEngine(t)
	reg := registerAccount(t, engine, "shopper@example.com")

	if err := engine.Logout(context.Background(), reg.Account.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	handler := Guard(engine, cookies)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: cfg.Cookie.RefreshName, Value: reg.RefreshToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestRequireRoleGatesAdminRoute(t *testing.T) {
	engine, cookies, cfg := newTestEngine(t)

	// First registrant is promoted to admin, second stays a user.
	admin := registerAccount(t, engine, "owner@example.com")
	user := registerAccount(t, engine, "shopper@example.com")

	if admin.Account.Role != authcore.RoleAdmin {
		t.Fatalf("expected first registrant to be admin, got %v", admin.Account.Role)
	}
	if user.Account.Role != authcore.RoleUser {
		t.Fatalf("expected second registrant to be user, got %v", user.Account.Role)
	}

	handler := Guard(engine, cookies)(RequireRole(authcore.RoleAdmin)(okHandler()))

	adminReq := httptest.NewRequest(http.MethodGet, "/admin", nil)
	adminReq.AddCookie(&http.Cookie{Name: cfg.Cookie.AccessName, Value: admin.AccessToken})
	adminRec := httptest.NewRecorder()
	handler.ServeHTTP(adminRec, adminReq)
	if adminRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", adminRec.Code)
	}

	userReq := httptest.NewRequest(http.MethodGet, "/admin", nil)
	userReq.AddCookie(&http.Cookie{Name: cfg.Cookie.AccessName, Value: user.AccessToken})
	userRec := httptest.NewRecorder()
	handler.ServeHTTP(userRec, userReq)
	if userRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", userRec.Code)
	}
}

func TestRequireRoleRejectsUnguardedRequest(t *testing.T) {
	handler := RequireRole(authcore.RoleAdmin)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth result, got %d", rec.Code)
	}
}
