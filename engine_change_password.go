package authcore

import (
	"context"
	"fmt"
)

// ChangePassword rotates an authenticated account's password. The current
// password is re-verified, the new one must differ from it, and on success
// the account's session is revoked so every device has to log in again
// under the new password.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if e == nil || e.accounts == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	if len(newPassword) < e.config.Account.MinPasswordLength {
		return fieldError("password", fmt.Sprintf("must be at least %d characters", e.config.Account.MinPasswordLength))
	}

	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, accountID, "", ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(oldPassword, account.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, account.ID, account.Email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if oldPassword == newPassword {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, account.ID, account.Email, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := e.accounts.UpdatePasswordHash(ctx, account.ID, newHash); err != nil {
		return err
	}
	if err := e.sessions.Revoke(ctx, account.ID); err != nil {
		return err
	}
	e.metricInc(MetricSessionRevoked)

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, account.ID, account.Email, nil, nil)
	return nil
}
