// Package middleware holds the HTTP wrappers shared by every billing route:
// CORS, request correlation and the trusted principal.
package middleware

import (
	"net/http"

	"github.com/davidbz/creditmeter/internal/config"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so that the first one listed sees the request
// first.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// BuildMiddlewareChain is the production chain: CORS, then request
// correlation, then the principal, so identity is logged with request ids.
func BuildMiddlewareChain(corsConfig *config.CORSConfig, authConfig *config.AuthConfig) Middleware {
	return Chain(
		CORS(corsConfig),
		Trace(),
		Principal(authConfig),
	)
}
