package flows

// Deps groups the per-flow dependency sets. The root engine builds this
// once during initialization and delegates request methods to the matching
// flow function.
type Deps struct {
	Login   LoginDeps
	Refresh RefreshDeps
	Logout  LogoutDeps
}
