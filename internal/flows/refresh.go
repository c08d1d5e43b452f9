package flows

import (
	"context"
	"errors"
)

// RefreshFailureKind classifies refresh-path failures for root-level
// mapping. Callers collapse every kind into one authentication failure;
// the kind feeds metrics and audit only.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureParse
	RefreshFailureSessionNotFound
	RefreshFailureSessionRevoked
	RefreshFailureSecretMismatch
	RefreshFailureSessionLookup
	RefreshFailureIssueAccess
)

// RefreshClaims is the flow-local shape of a decoded refresh credential.
type RefreshClaims struct {
	AccountID string
	Name      string
	Role      string
	Secret    string
}

// RefreshResult carries either the newly minted access credential or
// failure metadata.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Err         error
	AccountID   string
	Claims      RefreshClaims
	AccessToken string
}

// RefreshDeps captures refresh-path dependencies. The sentinel errors let
// the flow classify session lookups without importing the session package.
type RefreshDeps struct {
	ParseRefresh func(string) (RefreshClaims, error)
	FindSession  func(context.Context, string, string) error
	IssueAccess  func(RefreshClaims) (string, error)

	SessionNotFound error
	SessionRevoked  error
	SecretMismatch  error
}

// RunRefresh validates the refresh credential against the persisted session
// record and mints a new access credential only. The refresh secret and its
// cookie are left untouched; there is no rotation.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.ParseRefresh(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureParse, Err: err}
	}

	if err := deps.FindSession(ctx, claims.AccountID, claims.Secret); err != nil {
		failure := RefreshFailureSessionLookup
		switch {
		case deps.SessionNotFound != nil && errors.Is(err, deps.SessionNotFound):
			failure = RefreshFailureSessionNotFound
		case deps.SessionRevoked != nil && errors.Is(err, deps.SessionRevoked):
			failure = RefreshFailureSessionRevoked
		case deps.SecretMismatch != nil && errors.Is(err, deps.SecretMismatch):
			failure = RefreshFailureSecretMismatch
		}
		return RefreshResult{
			Failure:   failure,
			Err:       err,
			AccountID: claims.AccountID,
			Claims:    claims,
		}
	}

	access, err := deps.IssueAccess(claims)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureIssueAccess,
			Err:       err,
			AccountID: claims.AccountID,
			Claims:    claims,
		}
	}

	return RefreshResult{
		Failure:     RefreshFailureNone,
		AccountID:   claims.AccountID,
		Claims:      claims,
		AccessToken: access,
	}
}
