package middleware

import (
	"net/http"

	"github.com/benvon/order-cors/internal/cors"
	"github.com/benvon/order-cors/internal/models"
	rscors "github.com/rs/cors"
	"go.uber.org/zap"
)

// RSCORS creates CORS middleware backed by rs/cors. Each policy of the provider is
// translated into its own rs/cors handler; the provider picks the policy by path and
// decides origin matches, so both engines accept the same origins.
func RSCORS(provider *cors.Provider, logger *zap.Logger) func(http.Handler) http.Handler {
	policies := provider.Policies()
	logger.Info("rs_cors_middleware_initialized", zap.Int("policies", len(policies)))

	return func(next http.Handler) http.Handler {
		handlers := make([]http.Handler, len(policies))
		for i, pol := range policies {
			handlers[i] = rscors.New(RSCORSOptions(provider, pol, logger)).Handler(next)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			i, ok := provider.PolicyIndex(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			handlers[i].ServeHTTP(w, r)
		})
	}
}

// RSCORSOptions converts a frozen policy into rs/cors options.
func RSCORSOptions(provider *cors.Provider, pol models.CorsPolicy, logger *zap.Logger) rscors.Options {
	opts := rscors.Options{
		AllowOriginVaryRequestFunc: func(r *http.Request, origin string) (bool, []string) {
			return provider.AllowsOrigin(r.URL.Path, origin), nil
		},
		AllowedMethods:   pol.AllowedMethods,
		AllowedHeaders:   pol.AllowedHeaders,
		ExposedHeaders:   pol.ExposedHeaders,
		AllowCredentials: pol.AllowCredentials,
		MaxAge:           pol.MaxAge,
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		opts.Debug = true
		opts.Logger = zap.NewStdLog(logger.Named("rs_cors"))
	}
	return opts
}
