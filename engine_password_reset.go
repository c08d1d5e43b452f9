package authcore

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/commercekit/authcore/internal"
)

// ForgotPassword starts the reset flow. A plaintext one-time token is
// mailed to the account and only its SHA-256 hash is persisted, together
// with the redemption deadline. An unknown email returns nil anyway so the
// endpoint cannot be used to probe for accounts.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}
	if !e.config.PasswordReset.Enabled {
		return ErrNotFound
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fieldError("email", "is required")
	}

	account, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		// Same outcome as the happy path, minus the email.
		e.metricInc(MetricPasswordResetRequest)
		e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", email, nil, func() map[string]string {
			return map[string]string{"known_account": "false"}
		})
		return nil
	}

	token, err := internal.NewOneTimeToken()
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}

	payload := EmailPayload{Name: account.Name, Email: account.Email, Token: token}
	if err := e.mailer.SendResetPasswordEmail(ctx, payload); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, account.ID, email, ErrEmailUnavailable, nil)
		return ErrEmailUnavailable
	}

	expiresAt := time.Now().UTC().Add(e.config.PasswordReset.TokenTTL)
	if err := e.accounts.SetResetToken(ctx, account.ID, internal.HashToken(token), expiresAt); err != nil {
		return err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, account.ID, email, nil, nil)
	return nil
}

// ResetPassword redeems a reset token. The presented token is hashed and
// compared against the stored hash; expiry is checked first and reported
// distinctly so the caller can invite a fresh request. On success the new
// password is installed, the token cleared, and the account's session
// revoked so stolen refresh credentials die with the old password.
func (e *Engine) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if e == nil || e.accounts == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	if !e.config.PasswordReset.Enabled {
		return ErrNotFound
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if len(newPassword) < e.config.Account.MinPasswordLength {
		return fieldError("password", fmt.Sprintf("must be at least %d characters", e.config.Account.MinPasswordLength))
	}

	account, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", email, ErrUnauthenticated, nil)
		return ErrUnauthenticated
	}

	if account.ResetTokenHash == "" || token == "" {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, account.ID, email, ErrUnauthenticated, nil)
		return ErrUnauthenticated
	}

	if time.Now().UTC().After(account.ResetTokenExpiresAt) {
		e.metricInc(MetricPasswordResetExpired)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, account.ID, email, ErrResetTokenExpired, nil)
		return ErrResetTokenExpired
	}

	presented := internal.HashToken(token)
	if subtle.ConstantTimeCompare([]byte(account.ResetTokenHash), []byte(presented)) != 1 {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, account.ID, email, ErrUnauthenticated, nil)
		return ErrUnauthenticated
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := e.accounts.UpdatePasswordHash(ctx, account.ID, newHash); err != nil {
		return err
	}
	if err := e.accounts.ClearResetToken(ctx, account.ID); err != nil {
		return err
	}
	if err := e.sessions.Revoke(ctx, account.ID); err != nil {
		return err
	}
	e.metricInc(MetricSessionRevoked)

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, account.ID, email, nil, nil)
	return nil
}
