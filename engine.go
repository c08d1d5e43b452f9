package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/commercekit/authcore/internal/flows"
	"github.com/commercekit/authcore/password"
	"github.com/commercekit/authcore/session"
	"github.com/commercekit/authcore/token"
)

// unverifiedLoginNotice is surfaced on successful logins from accounts that
// have not yet confirmed their email address.
const unverifiedLoginNotice = "please verify your email address"

// Engine is the credential core. It owns the signer, the Redis session
// registry, and the password hasher, and talks to the host application only
// through the AccountProvider and Mailer contracts. Construct it with
// [Builder]; the zero value is not usable.
type Engine struct {
	config   Config
	tokens   *token.Manager
	sessions *session.Store
	hasher   *password.Hasher
	accounts AccountProvider
	mailer   Mailer
	metrics  *Metrics
	audit    *auditDispatcher
	flowDeps flows.Deps
}

// Close flushes and stops the audit dispatcher. It does not close the Redis
// client, which the caller owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters for export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// bindFlows wires the flow dependency sets against the engine's
// collaborators. Called once from Builder.Build.
func (e *Engine) bindFlows() {
	e.flowDeps = flows.Deps{
		Login: flows.LoginDeps{
			GetAccountByEmail: func(ctx context.Context, email string) (flows.LoginAccount, error) {
				account, err := e.accounts.GetByEmail(ctx, email)
				if err != nil {
					return flows.LoginAccount{}, err
				}
				return loginAccountFrom(account), nil
			},
			VerifyPassword:       e.hasher.Verify,
			PasswordNeedsUpgrade: e.hasher.NeedsUpgrade,
			HashPassword:         e.hasher.Hash,
			UpdatePasswordHash:   e.accounts.UpdatePasswordHash,
			IssueCredentialPair:  e.issueCredentialPair,
			UnverifiedNotice:     unverifiedLoginNotice,
			Warn:                 log.Printf,
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				AccountNotFound:    ErrAccountNotFound,
			},
		},
		Refresh: flows.RefreshDeps{
			ParseRefresh: func(tokenStr string) (flows.RefreshClaims, error) {
				claims, err := e.tokens.ParseRefresh(tokenStr)
				if err != nil {
					return flows.RefreshClaims{}, err
				}
				return flows.RefreshClaims{
					AccountID: claims.AccountID,
					Name:      claims.Name,
					Role:      claims.Role,
					Secret:    claims.Secret,
				}, nil
			},
			FindSession: func(ctx context.Context, accountID, secret string) error {
				_, err := e.sessions.Find(ctx, accountID, secret)
				return err
			},
			IssueAccess: func(claims flows.RefreshClaims) (string, error) {
				return e.tokens.CreateAccess(claims.AccountID, claims.Name, claims.Role)
			},
			SessionNotFound: session.ErrNotFound,
			SessionRevoked:  session.ErrRevoked,
			SecretMismatch:  session.ErrSecretMismatch,
		},
		Logout: flows.LogoutDeps{
			ParseAccessAccountID: func(tokenStr string) (string, error) {
				claims, err := e.tokens.ParseAccess(tokenStr)
				if err != nil {
					return "", err
				}
				return claims.AccountID, nil
			},
			SessionStore: e.sessions,
		},
	}
}

func loginAccountFrom(account Account) flows.LoginAccount {
	return flows.LoginAccount{
		ID:           account.ID,
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         account.Role.String(),
		Verified:     account.IsVerified,
	}
}

func accountFromLogin(flow flows.LoginAccount) Account {
	role, err := ParseRole(flow.Role)
	if err != nil {
		role = RoleUser
	}
	return Account{
		ID:         flow.ID,
		Name:       flow.Name,
		Email:      flow.Email,
		Role:       role,
		IsVerified: flow.Verified,
	}
}

// issueCredentialPair resolves the account's session record and mints the
// access and refresh credentials bound to it. Logins while a valid record
// exists reuse its refresh secret, so every device of the account carries
// the same refresh credential.
func (e *Engine) issueCredentialPair(ctx context.Context, account flows.LoginAccount) (string, string, error) {
	fp := session.Fingerprint{
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	}

	record, err := e.sessions.GetOrCreate(ctx, account.ID, fp, e.config.JWT.RefreshTTL)
	if err != nil {
		if errors.Is(err, session.ErrRevoked) {
			return "", "", ErrSessionRevoked
		}
		return "", "", err
	}
	if record.Created {
		e.metricInc(MetricSessionCreated)
	} else {
		e.metricInc(MetricSessionReused)
	}

	access, err := e.tokens.CreateAccess(account.ID, account.Name, account.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err := e.tokens.CreateRefresh(account.ID, account.Name, account.Role, record.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Login checks the credentials and issues an access/refresh pair. An
// unknown email and a wrong password both fail with
// [ErrInvalidCredentials]. Unverified accounts still log in; the result
// carries a notice the transport layer can surface.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if e == nil || e.accounts == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	result, err := flows.RunLogin(ctx, email, plaintext, e.flowDeps.Login)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
		}
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, result.Account.ID, email, nil, nil)

	return &LoginResult{
		Account:            accountFromLogin(result.Account),
		AccessToken:        result.AccessToken,
		RefreshToken:       result.RefreshToken,
		VerificationNotice: result.VerificationNotice,
	}, nil
}

// Authenticate decides whether a request carrying the two credential
// cookies is allowed. A valid access credential passes directly. An absent
// or expired one falls through to the refresh path, which checks the
// session registry and mints a replacement access credential; the refresh
// credential itself is never rotated. Every failure collapses into
// [ErrUnauthenticated] so responses cannot reveal which check failed.
func (e *Engine) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if e == nil || e.tokens == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	if accessToken != "" {
		if claims, err := e.tokens.ParseAccess(accessToken); err == nil {
			e.metricInc(MetricAuthAllowed)
			role, roleErr := ParseRole(claims.Role)
			if roleErr != nil {
				role = RoleUser
			}
			return &AuthResult{
				AccountID: claims.AccountID,
				Name:      claims.Name,
				Role:      role,
			}, nil
		}
	}

	if refreshToken == "" {
		e.metricInc(MetricAuthRejected)
		return nil, ErrUnauthenticated
	}

	result := flows.RunRefresh(ctx, refreshToken, e.flowDeps.Refresh)
	if result.Failure != flows.RefreshFailureNone {
		e.metricInc(MetricAuthRejected)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, result.AccountID, "", ErrUnauthenticated, func() map[string]string {
			return map[string]string{"reason": refreshFailureReason(result.Failure)}
		})
		return nil, ErrUnauthenticated
	}

	e.metricInc(MetricAuthRenewed)
	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, result.AccountID, "", nil, nil)

	role, err := ParseRole(result.Claims.Role)
	if err != nil {
		role = RoleUser
	}
	return &AuthResult{
		AccountID:   result.AccountID,
		Name:        result.Claims.Name,
		Role:        role,
		Renewed:     true,
		AccessToken: result.AccessToken,
	}, nil
}

func refreshFailureReason(kind flows.RefreshFailureKind) string {
	switch kind {
	case flows.RefreshFailureParse:
		return "parse"
	case flows.RefreshFailureSessionNotFound:
		return "session_not_found"
	case flows.RefreshFailureSessionRevoked:
		return "session_revoked"
	case flows.RefreshFailureSecretMismatch:
		return "secret_mismatch"
	case flows.RefreshFailureSessionLookup:
		return "session_lookup"
	case flows.RefreshFailureIssueAccess:
		return "issue_access"
	default:
		return "unknown"
	}
}

// ValidateAccess checks an access credential without touching Redis. It
// never renews; use [Engine.Authenticate] for the full cookie flow.
func (e *Engine) ValidateAccess(tokenStr string) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := e.tokens.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		role = RoleUser
	}
	return &AuthResult{
		AccountID: claims.AccountID,
		Name:      claims.Name,
		Role:      role,
	}, nil
}

// Logout deletes the account's session record, cutting off the refresh path
// on every device at once. Already-issued access credentials remain valid
// until they expire.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if err := flows.RunLogout(ctx, accountID, e.flowDeps.Logout); err != nil {
		return err
	}
	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventLogoutSession, true, accountID, "", nil, nil)
	return nil
}

// LogoutByAccessToken resolves the account from a still-valid access
// credential and revokes its session.
func (e *Engine) LogoutByAccessToken(ctx context.Context, tokenStr string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	accountID, err := flows.RunLogoutByAccessToken(ctx, tokenStr, e.flowDeps.Logout)
	if err != nil {
		if accountID == "" {
			return ErrUnauthenticated
		}
		return err
	}
	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventLogoutSession, true, accountID, "", nil, nil)
	return nil
}
