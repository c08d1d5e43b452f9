package authcore

import (
	"errors"
	"strings"
	"time"
)

// Config groups every knob the engine recognizes. Zero values are filled in
// by [defaultConfig]; [Config.Validate] runs during [Builder.Build] and
// rejects configurations that would weaken the credential chain.
type Config struct {
	Environment       string
	BaseURL           string
	JWT               JWTConfig
	Session           SessionConfig
	Cookie            CookieConfig
	Password          PasswordConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
	Account           AccountConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

const (
	// EnvDevelopment relaxes the cookie secure attribute.
	EnvDevelopment = "development"
	// EnvProduction forces the secure attribute on both credential cookies.
	EnvProduction = "production"
)

// JWTConfig controls the signer. Secret is the process-wide HMAC-SHA256
// signing secret, read-only after startup.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// SessionConfig controls the Redis-backed session registry.
type SessionConfig struct {
	RedisPrefix string
}

// CookieConfig controls how the two credential cookies are written. Secure
// is derived from Environment when left false and the environment is
// production.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	SameSite    string // "lax" (default), "strict", "none"
	Secure      bool
}

// PasswordConfig carries the argon2id parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PasswordResetConfig controls the reset one-time token flow. TokenTTL is
// the redemption window measured from issuance.
type PasswordResetConfig struct {
	Enabled  bool
	TokenTTL time.Duration
}

// EmailVerificationConfig controls the verification one-time token flow.
type EmailVerificationConfig struct {
	Enabled bool
}

// AccountConfig controls registration policy.
type AccountConfig struct {
	FirstRegistrantIsAdmin bool
	DefaultRole            Role
	MinNameLength          int
	MinPasswordLength      int
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters. Latency histograms cover the
// Authenticate path only and are off unless explicitly enabled.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration New starts from. Callers that
// only need to set the signing secret can take this, fill JWT.Secret, and
// pass it to WithConfig.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Environment: EnvDevelopment,
		BaseURL:     "http://localhost:8080",
		JWT: JWTConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "authcore",
			Leeway:     30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "ac",
		},
		Cookie: CookieConfig{
			AccessName:  "accessToken",
			RefreshName: "refreshToken",
			Path:        "/",
			SameSite:    "lax",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		PasswordReset: PasswordResetConfig{
			Enabled:  true,
			TokenTTL: 10 * time.Minute,
		},
		EmailVerification: EmailVerificationConfig{
			Enabled: true,
		},
		Account: AccountConfig{
			FirstRegistrantIsAdmin: true,
			DefaultRole:            RoleUser,
			MinNameLength:          3,
			MinPasswordLength:      8,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations that would produce weak or inconsistent
// credentials. It is called by Build, never by the hot path.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return errors.New("environment must be development or production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("jwt access ttl must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("jwt refresh ttl must exceed access ttl")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("jwt leeway must be between 0 and 2m")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("session redis prefix must not be empty")
	}
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return errors.New("cookie names must not be empty")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("access and refresh cookie names must differ")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return errors.New("cookie samesite must be lax, strict, or none")
	}
	if c.PasswordReset.Enabled && c.PasswordReset.TokenTTL <= 0 {
		return errors.New("password reset token ttl must be positive")
	}
	if c.Account.MinNameLength < 1 {
		return errors.New("account min name length must be >= 1")
	}
	if c.Account.MinPasswordLength < 8 {
		return errors.New("account min password length must be >= 8")
	}
	if c.Account.DefaultRole != RoleUser && c.Account.DefaultRole != RoleAdmin {
		return errors.New("account default role is not a known role")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
