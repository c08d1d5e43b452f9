package flows

import "context"

// LogoutSessionStore is the slice of the session registry the logout flow
// needs.
type LogoutSessionStore interface {
	Revoke(ctx context.Context, accountID string) error
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	ParseAccessAccountID func(string) (string, error)
	SessionStore         LogoutSessionStore
}

// RunLogout deletes the account's session record. Every device holding the
// refresh credential loses it simultaneously.
func RunLogout(ctx context.Context, accountID string, deps LogoutDeps) error {
	return deps.SessionStore.Revoke(ctx, accountID)
}

// RunLogoutByAccessToken resolves the account from a still-parseable access
// credential and revokes its session. Returns the account id for audit.
func RunLogoutByAccessToken(ctx context.Context, tokenStr string, deps LogoutDeps) (string, error) {
	accountID, err := deps.ParseAccessAccountID(tokenStr)
	if err != nil {
		return "", err
	}
	return accountID, deps.SessionStore.Revoke(ctx, accountID)
}
