package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/creditmeter/internal/config"
)

// exposedHeaders lets browser dashboards read the correlation ids.
var exposedHeaders = []string{RequestIDHeader, "X-Trace-Id"} //nolint:gochecknoglobals // constant list

// CORS applies the configured cross-origin policy with rs/cors. A nil config
// disables it.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
