package authcore

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/commercekit/authcore/internal"
)

// Register validates the payload, creates the account, and logs the new
// account in immediately. The first registrant while no admin exists is
// promoted to RoleAdmin; everyone after gets the configured default role.
// When email verification is enabled a one-time token is generated, stored
// on the account, and mailed before the credentials are issued.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if e == nil || e.accounts == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	if err := e.validateRegistration(name, email, input.Password); err != nil {
		e.metricInc(MetricAccountCreationInvalid)
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", email, err, nil)
		return nil, err
	}

	role := e.config.Account.DefaultRole
	if e.config.Account.FirstRegistrantIsAdmin {
		adminExists, err := e.accounts.AdminExists(ctx)
		if err != nil {
			return nil, fmt.Errorf("admin lookup: %w", err)
		}
		if !adminExists {
			role = RoleAdmin
		}
	}

	passwordHash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var verificationToken string
	if e.config.EmailVerification.Enabled {
		verificationToken, err = internal.NewOneTimeToken()
		if err != nil {
			return nil, fmt.Errorf("verification token: %w", err)
		}
	}

	account, err := e.accounts.Create(ctx, CreateAccountInput{
		Name:              name,
		Email:             email,
		PasswordHash:      passwordHash,
		Role:              role,
		VerificationToken: verificationToken,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metricInc(MetricAccountCreationDuplicate)
			e.emitAudit(ctx, auditEventAccountCreationDuplicate, false, "", email, ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, err
	}

	if e.config.EmailVerification.Enabled && e.mailer != nil {
		payload := EmailPayload{Name: account.Name, Email: account.Email, Token: verificationToken}
		if err := e.mailer.SendVerificationEmail(ctx, payload); err != nil {
			e.emitAudit(ctx, auditEventAccountCreationFailure, false, account.ID, email, ErrEmailUnavailable, func() map[string]string {
				return map[string]string{"stage": "verification_mail"}
			})
			return nil, ErrEmailUnavailable
		}
	}

	access, refresh, err := e.issueCredentialPair(ctx, loginAccountFrom(account))
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(ctx, auditEventAccountCreationSuccess, true, account.ID, email, nil, func() map[string]string {
		return map[string]string{"role": account.Role.String()}
	})

	return &RegisterResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (e *Engine) validateRegistration(name, email, plaintext string) error {
	if len(name) < e.config.Account.MinNameLength {
		return fieldError("name", fmt.Sprintf("must be at least %d characters", e.config.Account.MinNameLength))
	}
	if email == "" {
		return fieldError("email", "is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fieldError("email", "is not a valid email address")
	}
	if len(plaintext) < e.config.Account.MinPasswordLength {
		return fieldError("password", fmt.Sprintf("must be at least %d characters", e.config.Account.MinPasswordLength))
	}
	return nil
}
