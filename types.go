package authcore

import (
	"context"
	"errors"
	"time"
)

// Role is the closed set of roles an account can hold. The zero value is
// RoleUser; RoleAdmin is granted automatically to the first registrant.
type Role uint8

const (
	// RoleUser is an ordinary shopper account.
	RoleUser Role = iota
	// RoleAdmin can reach the management surfaces behind the role gate.
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "unknown"
	}
}

// ParseRole maps the wire representation of a role back to the enum.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	default:
		return RoleUser, errors.New("unknown role: " + s)
	}
}

// Account is the identity record held by the host application's store. The
// engine never deletes accounts; it mutates password, verification, and
// reset-token state through [AccountProvider].
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role

	// Verification state. VerificationToken is stored in cleartext and is
	// intended for a single comparison, after which MarkVerified clears it.
	IsVerified        bool
	VerifiedAt        time.Time
	VerificationToken string

	// Reset-token state. Only the SHA-256 hash of the reset token is ever
	// persisted; the plaintext goes out by email and is never stored.
	ResetTokenHash      string
	ResetTokenExpiresAt time.Time
}

// CreateAccountInput is passed to [AccountProvider.Create]. PasswordHash is
// already hashed; the provider must never see a plaintext password.
type CreateAccountInput struct {
	Name              string
	Email             string
	PasswordHash      string
	Role              Role
	VerificationToken string
}

// AccountProvider is the persistence contract the host application
// implements on top of its document store. Lookups return
// [ErrAccountNotFound] when no account matches; Create must enforce the
// email unique constraint and surface violations as [ErrDuplicateEmail].
type AccountProvider interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	Create(ctx context.Context, input CreateAccountInput) (Account, error)

	// AdminExists reports whether any account holds RoleAdmin. It decides
	// whether the next registrant is promoted.
	AdminExists(ctx context.Context) (bool, error)

	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// MarkVerified sets the verified flag and timestamp and clears the
	// stored verification token in one write.
	MarkVerified(ctx context.Context, id string, at time.Time) error

	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
}

// EmailPayload is handed to the [Mailer] for both verification and reset
// mail. Token is the plaintext one-time token to embed in the link.
type EmailPayload struct {
	Name  string
	Email string
	Token string
}

// Mailer is the outbound email collaborator. Sends are fire-and-forget from
// the engine's perspective: a non-nil error is mapped to
// [ErrEmailUnavailable] and the engine never retries.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, payload EmailPayload) error
	SendResetPasswordEmail(ctx context.Context, payload EmailPayload) error
}

// NoOpMailer discards all outbound mail. Useful in tests and in deployments
// where a queue consumer picks messages up elsewhere.
type NoOpMailer struct{}

func (NoOpMailer) SendVerificationEmail(context.Context, EmailPayload) error   { return nil }
func (NoOpMailer) SendResetPasswordEmail(context.Context, EmailPayload) error { return nil }

// AuthResult is returned by [Engine.Authenticate] and
// [Engine.ValidateAccess] for an allowed request.
type AuthResult struct {
	AccountID string
	Name      string
	Role      Role

	// Renewed is true when the access credential was minted on this request
	// via the refresh path; AccessToken then carries the replacement the
	// caller must re-attach as a cookie.
	Renewed     bool
	AccessToken string
}

// RegisterInput is the raw registration payload before validation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult is returned by [Engine.Register].
type RegisterResult struct {
	Account      Account
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by [Engine.Login]. VerificationNotice is set when
// the account has not yet verified its email; login still succeeds.
type LoginResult struct {
	Account            Account
	AccessToken        string
	RefreshToken       string
	VerificationNotice string
}
