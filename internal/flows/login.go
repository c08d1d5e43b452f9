package flows

import "context"

// LoginAccount is the flow-local account model. The root engine maps its
// richer account record into this before delegating.
type LoginAccount struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Verified     bool
}

// LoginResult carries the issued credential pair and, for unverified
// accounts, the notice the caller should surface alongside success.
type LoginResult struct {
	Account            LoginAccount
	AccessToken        string
	RefreshToken       string
	VerificationNotice string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	AccountNotFound    error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	GetAccountByEmail    func(context.Context, string) (LoginAccount, error)
	VerifyPassword       func(password, hash string) (bool, error)
	PasswordNeedsUpgrade func(hash string) (bool, error)
	HashPassword         func(string) (string, error)
	UpdatePasswordHash   func(context.Context, string, string) error
	IssueCredentialPair  func(context.Context, LoginAccount) (string, string, error)

	UnverifiedNotice string
	Warn             func(string, ...any)
	Errors           LoginErrors
}

// RunLogin executes the credential check and credential-pair issuance. An
// unknown email and a wrong password produce the same error so responses
// cannot be used to enumerate accounts; no session state is touched before
// the password check passes.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.GetAccountByEmail == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueCredentialPair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	account, err := deps.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, deps.Errors.InvalidCredentials
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, deps.Errors.InvalidCredentials
	}

	// Transparent cost upgrade: rehash with current parameters while the
	// plaintext is available. Best effort; login proceeds on failure.
	if deps.PasswordNeedsUpgrade != nil && deps.HashPassword != nil && deps.UpdatePasswordHash != nil {
		if upgrade, err := deps.PasswordNeedsUpgrade(account.PasswordHash); err == nil && upgrade {
			if newHash, err := deps.HashPassword(password); err == nil {
				if err := deps.UpdatePasswordHash(ctx, account.ID, newHash); err != nil {
					deps.Warn("authcore: password upgrade persist failed")
				}
			}
		}
	}

	access, refresh, err := deps.IssueCredentialPair(ctx, account)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if !account.Verified {
		result.VerificationNotice = deps.UnverifiedNotice
	}
	return result, nil
}
