package middleware

import (
	"context"
	"net"
	"net/http"

	authcore "github.com/commercekit/authcore"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the authentication result a [Guard]
// injected for the current request.
func AuthResultFromContext(ctx context.Context) (*authcore.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authcore.AuthResult)
	return res, ok
}

// Guard protects a route with the cookie credential flow. It reads both
// cookies, lets the engine decide, and re-attaches the access cookie when
// the engine minted a replacement on the refresh path. Every failure is a
// plain 401 with no detail.
func Guard(engine *authcore.Engine, cookies *CookieManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || cookies == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := requestContext(r)

			res, err := engine.Authenticate(ctx, cookies.ReadAccess(r), cookies.ReadRefresh(r))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if res.Renewed {
				cookies.SetAccessCookie(w, res.AccessToken)
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestContext annotates the request context with the client fingerprint
// the engine records on session creation and audit events.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if ip := clientIP(r); ip != "" {
		ctx = authcore.WithClientIP(ctx, ip)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = authcore.WithUserAgent(ctx, ua)
	}
	return ctx
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
