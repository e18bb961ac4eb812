package middleware

import (
	"net/http"

	"github.com/benvon/order-cors/internal/cors"
	logpkg "github.com/benvon/order-cors/internal/logger"
	"github.com/benvon/order-cors/internal/request"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultPreflightRejectStatus is written for preflight requests the policy rejects.
const DefaultPreflightRejectStatus = http.StatusForbidden

// CORSOption configures the CORS middleware.
type CORSOption func(*corsOptions)

type corsOptions struct {
	rejectStatus int
}

// WithPreflightRejectStatus sets the status code returned for rejected preflights.
func WithPreflightRejectStatus(status int) CORSOption {
	return func(o *corsOptions) {
		if status >= 100 && status <= 599 {
			o.rejectStatus = status
		}
	}
}

// CORS creates CORS middleware that evaluates every request against the provider,
// writes the resulting headers and answers preflight requests itself.
func CORS(provider *cors.Provider, logger *zap.Logger, opts ...CORSOption) func(http.Handler) http.Handler {
	o := corsOptions{rejectStatus: DefaultPreflightRejectStatus}
	for _, opt := range opts {
		opt(&o)
	}
	logger.Info("cors_middleware_initialized",
		zap.Int("policies", len(provider.Policies())),
		zap.Int("preflight_reject_status", o.rejectStatus),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := cors.RequestFromHTTP(r)
			decision := provider.Evaluate(req)
			recordDecision(r, decision)

			// Paths without a policy are not CORS-handled, preflight included.
			if decision.Reason == cors.ReasonNoPolicy {
				next.ServeHTTP(w, r)
				return
			}

			decision.WriteHeaders(w.Header())

			if decision.Preflight {
				if !decision.Allowed {
					logger.Info("cors_preflight_rejected",
						zap.String("path", logpkg.SanitizePath(req.Path)),
						zap.String("origin", logpkg.SanitizeOrigin(req.Origin)),
						zap.String("request_method", logpkg.SanitizeString(req.RequestMethod, 32)),
						zap.String("reason", string(decision.Reason)),
						zap.String("client_ip", request.ClientIP(r)),
						zap.String("request_id", request.RequestIDFromContext(r.Context())),
					)
					w.WriteHeader(o.rejectStatus)
					return
				}
				logger.Debug("cors_preflight_allowed",
					zap.String("path", logpkg.SanitizePath(req.Path)),
					zap.String("origin", logpkg.SanitizeOrigin(req.Origin)),
				)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if !decision.Allowed {
				// Headers are omitted and the browser blocks the response.
				logger.Debug("cors_origin_not_allowed",
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(req.Path)),
					zap.String("origin", logpkg.SanitizeOrigin(req.Origin)),
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// recordDecision annotates the active span, if any, with the CORS outcome.
func recordDecision(r *http.Request, d cors.Decision) {
	span := trace.SpanFromContext(r.Context())
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Bool("cors.allowed", d.Allowed),
		attribute.Bool("cors.preflight", d.Preflight),
		attribute.String("cors.reason", string(d.Reason)),
	)
}
