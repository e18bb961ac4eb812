package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/order-cors/internal/config"
	"github.com/benvon/order-cors/internal/cors"
	"github.com/benvon/order-cors/internal/handlers"
	"github.com/benvon/order-cors/internal/logger"
	"github.com/benvon/order-cors/internal/middleware"
	"github.com/benvon/order-cors/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "order-cors"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including per-request CORS decisions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.AppEnv, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	// The policy is built once here and never changes for the life of the process.
	provider, err := config.NewProvider(cfg)
	if err != nil {
		zapLogger.Fatal("invalid_cors_configuration", zap.Error(err))
	}

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("cors_engine", cfg.CORSEngine),
		zap.String("cors_policy_file", cfg.CORSPolicyFile),
		zap.Int("cors_policies", len(provider.Policies())),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
				ServiceName:    serviceName,
				ServiceVersion: handlers.Version,
				Endpoint:       cfg.OTELEndpoint,
				Insecure:       cfg.AppEnv != "production",
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        newRouter(cfg, provider, zapLogger, tracingEnabled),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}

// newRouter wires the CORS middleware in front of the service routes.
func newRouter(cfg *config.Config, provider *cors.Provider, zapLogger *zap.Logger, tracingEnabled bool) *mux.Router {
	r := mux.NewRouter()

	corsMW := middleware.CORS(provider, zapLogger, middleware.WithPreflightRejectStatus(cfg.PreflightRejectStatus))
	if cfg.CORSEngine == config.EngineRS {
		corsMW = middleware.RSCORS(provider, zapLogger)
	}

	// gorilla/mux runs middleware in registration order; the first registered is outermost.
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersOptions{EnableHSTS: cfg.EnableHSTS}))
	r.Use(corsMW)
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	healthChecker := handlers.NewHealthChecker(map[string]handlers.CheckFunc{
		"cors_policy": func(context.Context) error {
			if len(provider.Policies()) == 0 {
				return cors.ErrInvalidPolicy
			}
			return nil
		},
	})
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", handlers.VersionInfo).Methods(http.MethodGet)

	handlers.NewCORSHandler(provider).RegisterRoutes(r.PathPrefix("/cors").Subrouter())

	// Middleware only runs on matched routes, so preflights for any path need a route to land on.
	// The CORS middleware answers them before this handler is reached. A MatcherFunc is used
	// instead of Methods so that other methods on unknown paths still get 404, not 405.
	r.MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		return req.Method == http.MethodOptions
	}).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Unmatched routes bypass mux middleware; keep CORS headers on the 404 so the browser can read it.
	r.NotFoundHandler = corsMW(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "404 Not Found", http.StatusNotFound)
	}))
	r.MethodNotAllowedHandler = corsMW(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
	}))

	return r
}
