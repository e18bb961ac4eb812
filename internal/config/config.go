package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/order-cors/internal/validation"
)

const (
	// EngineNative evaluates CORS with the in-house provider middleware.
	EngineNative = "native"
	// EngineRS evaluates CORS with rs/cors driven by the same policies.
	EngineRS = "rs"
)

// Config holds application configuration
type Config struct {
	ServerPort            string
	AppEnv                string
	ServerDebugMode       bool
	EnableHSTS            bool
	OTELEnabled           bool
	OTELEndpoint          string
	CORSPolicyFile        string
	CORSEngine            string
	CORSAllowedOrigins    []string
	PreflightRejectStatus int
	RequestTimeout        time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		AppEnv:                getEnv("APP_ENV", "production"),
		ServerDebugMode:       getEnvBool("SERVER_DEBUG_MODE", false),
		EnableHSTS:            getEnvBool("ENABLE_HSTS", false),
		OTELEnabled:           getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSPolicyFile:        getEnv("CORS_POLICY_FILE", ""),
		CORSEngine:            strings.ToLower(getEnv("CORS_ENGINE", EngineNative)),
		CORSAllowedOrigins:    validation.SplitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		PreflightRejectStatus: getEnvInt("CORS_PREFLIGHT_REJECT_STATUS", http.StatusForbidden),
		RequestTimeout:        time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.CORSEngine != EngineNative && cfg.CORSEngine != EngineRS {
		return nil, fmt.Errorf("CORS_ENGINE must be %q or %q, got %q", EngineNative, EngineRS, cfg.CORSEngine)
	}

	if cfg.PreflightRejectStatus < 100 || cfg.PreflightRejectStatus > 599 {
		return nil, fmt.Errorf("CORS_PREFLIGHT_REJECT_STATUS must be a valid HTTP status, got %d", cfg.PreflightRejectStatus)
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
