package middleware

import (
	"context"
	"net/http"

	"github.com/davidbz/creditmeter/internal/config"
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
)

type principalKey struct{}

// WithPrincipal stores the authenticated caller in the context.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller asserted for this request. The zero
// Principal means the request carried no identity.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey{}).(domain.Principal)
	return p
}

// Principal reads the identity headers set by the authenticating proxy in
// front of the service. Requests without them pass through anonymously and
// are rejected by handlers that need a scope.
func Principal(cfg *config.AuthConfig) Middleware {
	userHeader, scopesHeader := "X-Auth-User-Id", "X-Auth-Scopes"
	if cfg != nil {
		userHeader, scopesHeader = cfg.UserHeader, cfg.ScopesHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(userHeader)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			p := domain.Principal{
				UserID: userID,
				Scopes: domain.ParseScopes(r.Header.Get(scopesHeader)),
			}
			ctx := WithPrincipal(r.Context(), p)
			ctx = observability.WithUserID(ctx, userID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
