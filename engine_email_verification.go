package authcore

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"
)

// VerifyEmail redeems a verification token. An unknown email and a wrong
// token fail identically with [ErrUnauthenticated]. An already verified
// account has no stored token, so redeeming twice fails the same way.
func (e *Engine) VerifyEmail(ctx context.Context, email, token string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))

	account, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, auditEventEmailVerificationConfirm, false, "", email, ErrUnauthenticated, nil)
		return ErrUnauthenticated
	}

	// An empty stored token must never match, including against an empty
	// presented token.
	if account.VerificationToken == "" || token == "" ||
		subtle.ConstantTimeCompare([]byte(account.VerificationToken), []byte(token)) != 1 {
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, auditEventEmailVerificationConfirm, false, account.ID, email, ErrUnauthenticated, nil)
		return ErrUnauthenticated
	}

	if err := e.accounts.MarkVerified(ctx, account.ID, time.Now().UTC()); err != nil {
		return err
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerificationConfirm, true, account.ID, email, nil, nil)
	return nil
}
