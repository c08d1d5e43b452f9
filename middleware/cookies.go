package middleware

import (
	"net/http"
	"strings"
	"time"

	authcore "github.com/commercekit/authcore"
)

// CookieManager writes and clears the two http-only credential cookies. The
// access cookie rides on every request; the refresh cookie is scoped to the
// same path so the refresh fallback works without a dedicated endpoint.
type CookieManager struct {
	accessName  string
	refreshName string
	domain      string
	path        string
	secure      bool
	sameSite    http.SameSite
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewCookieManager derives cookie behavior from the engine configuration.
// The secure attribute is forced on in production regardless of the
// explicit flag.
func NewCookieManager(cfg authcore.Config) *CookieManager {
	sameSite := http.SameSiteLaxMode
	switch strings.ToLower(cfg.Cookie.SameSite) {
	case "none":
		sameSite = http.SameSiteNoneMode
	case "strict":
		sameSite = http.SameSiteStrictMode
	}

	return &CookieManager{
		accessName:  cfg.Cookie.AccessName,
		refreshName: cfg.Cookie.RefreshName,
		domain:      cfg.Cookie.Domain,
		path:        cfg.Cookie.Path,
		secure:      cfg.Cookie.Secure || cfg.Environment == authcore.EnvProduction,
		sameSite:    sameSite,
		accessTTL:   cfg.JWT.AccessTTL,
		refreshTTL:  cfg.JWT.RefreshTTL,
	}
}

// SetAuthCookies writes both credential cookies after login or
// registration.
func (c *CookieManager) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	c.SetAccessCookie(w, accessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     c.refreshName,
		Value:    refreshToken,
		Path:     c.path,
		Domain:   c.domain,
		MaxAge:   int(c.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

// SetAccessCookie writes the access cookie alone. Used by the guard when
// the engine renews a credential mid-request.
func (c *CookieManager) SetAccessCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.accessName,
		Value:    accessToken,
		Path:     c.path,
		Domain:   c.domain,
		MaxAge:   int(c.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
}

// ClearAuthCookies expires both credential cookies on logout.
func (c *CookieManager) ClearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{c.accessName, c.refreshName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     c.path,
			Domain:   c.domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: c.sameSite,
		})
	}
}

// ReadAccess returns the access cookie value, empty when absent.
func (c *CookieManager) ReadAccess(r *http.Request) string {
	return cookieValue(r, c.accessName)
}

// ReadRefresh returns the refresh cookie value, empty when absent.
func (c *CookieManager) ReadRefresh(r *http.Request) string {
	return cookieValue(r, c.refreshName)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
