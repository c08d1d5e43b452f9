package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	minSecretBytes = 32
)

// ErrWrongTokenType is returned when an access token is presented where a
// refresh token is expected, or the reverse.
var ErrWrongTokenType = errors.New("wrong token type")

// Config holds the signer's immutable parameters. Secret is shared by both
// credential kinds; the `typ` claim keeps them from being interchangeable.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// Manager signs and verifies credentials. Safe for concurrent use.
type Manager struct {
	config Config
}

// AccountClaims is the claim bundle of an access credential: identity plus
// role, existence entirely in the signed token.
type AccountClaims struct {
	AccountID string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim bundle of a refresh credential: the account
// subset plus the opaque secret that must match the persisted session
// record.
type RefreshClaims struct {
	AccountID string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Secret    string `json:"secret"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// CreateAccess signs an access credential with the configured TTL.
func (m *Manager) CreateAccess(accountID, name, role string) (string, error) {
	return m.CreateAccessWithTTL(accountID, name, role, m.config.AccessTTL)
}

// CreateAccessWithTTL signs an access credential with an explicit TTL. Used
// by tests exercising expiry; production paths go through CreateAccess.
func (m *Manager) CreateAccessWithTTL(accountID, name, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccountClaims{
		AccountID: accountID,
		Name:      name,
		Role:      role,
		TokenType: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.config.Secret)
}

// CreateRefresh signs a refresh credential wrapping the session secret.
func (m *Manager) CreateRefresh(accountID, name, role, secret string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		AccountID: accountID,
		Name:      name,
		Role:      role,
		Secret:    secret,
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.config.Secret)
}

// ParseAccess verifies the signature, expiry, issuer, and audience of an
// access credential and returns its claims.
func (m *Manager) ParseAccess(tokenStr string) (*AccountClaims, error) {
	claims := &AccountClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.AccountID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ParseRefresh verifies a refresh credential and returns its claims,
// including the embedded session secret.
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeRefresh {
		return nil, ErrWrongTokenType
	}
	if claims.AccountID == "" || claims.Secret == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
