package config

import (
	"net/http"
	"testing"
	"time"
)

// Env-mutating tests use t.Setenv and therefore cannot run in parallel.

var allConfigEnvVars = []string{
	"SERVER_PORT",
	"APP_ENV",
	"SERVER_DEBUG_MODE",
	"ENABLE_HSTS",
	"OTEL_ENABLED",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"CORS_POLICY_FILE",
	"CORS_ENGINE",
	"CORS_ALLOWED_ORIGINS",
	"CORS_PREFLIGHT_REJECT_STATUS",
	"REQUEST_TIMEOUT_SECONDS",
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError bool
		validate    func(*testing.T, *Config)
	}{
		{
			name: "default values",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != "8080" {
					t.Errorf("Expected default ServerPort to be '8080', got '%s'", cfg.ServerPort)
				}
				if cfg.AppEnv != "production" {
					t.Errorf("Expected default AppEnv to be 'production', got '%s'", cfg.AppEnv)
				}
				if cfg.CORSEngine != EngineNative {
					t.Errorf("Expected default CORSEngine to be %q, got %q", EngineNative, cfg.CORSEngine)
				}
				if cfg.PreflightRejectStatus != http.StatusForbidden {
					t.Errorf("Expected default PreflightRejectStatus 403, got %d", cfg.PreflightRejectStatus)
				}
				if cfg.RequestTimeout != 30*time.Second {
					t.Errorf("Expected default RequestTimeout 30s, got %s", cfg.RequestTimeout)
				}
				if cfg.CORSAllowedOrigins != nil {
					t.Errorf("Expected no origin override, got %v", cfg.CORSAllowedOrigins)
				}
			},
		},
		{
			name: "overrides",
			envVars: map[string]string{
				"SERVER_PORT":                  "9090",
				"CORS_ENGINE":                  "RS",
				"CORS_ALLOWED_ORIGINS":         "https://staging.example.com*, http://localhost*",
				"CORS_PREFLIGHT_REJECT_STATUS": "204",
				"REQUEST_TIMEOUT_SECONDS":      "5",
				"ENABLE_HSTS":                  "true",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != "9090" {
					t.Errorf("Expected ServerPort '9090', got '%s'", cfg.ServerPort)
				}
				if cfg.CORSEngine != EngineRS {
					t.Errorf("Expected CORSEngine %q, got %q", EngineRS, cfg.CORSEngine)
				}
				if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://staging.example.com*" {
					t.Errorf("Unexpected CORSAllowedOrigins %v", cfg.CORSAllowedOrigins)
				}
				if cfg.PreflightRejectStatus != http.StatusNoContent {
					t.Errorf("Expected PreflightRejectStatus 204, got %d", cfg.PreflightRejectStatus)
				}
				if cfg.RequestTimeout != 5*time.Second {
					t.Errorf("Expected RequestTimeout 5s, got %s", cfg.RequestTimeout)
				}
				if !cfg.EnableHSTS {
					t.Error("Expected EnableHSTS to be true")
				}
			},
		},
		{
			name:        "unknown engine",
			envVars:     map[string]string{"CORS_ENGINE": "gorilla"},
			expectError: true,
		},
		{
			name:        "invalid reject status",
			envVars:     map[string]string{"CORS_PREFLIGHT_REJECT_STATUS": "42"},
			expectError: true,
		},
		{
			name:        "non-positive timeout",
			envVars:     map[string]string{"REQUEST_TIMEOUT_SECONDS": "0"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range allConfigEnvVars {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{name: "true", value: "true", want: true},
		{name: "1", value: "1", want: true},
		{name: "yes", value: "yes", want: true},
		{name: "false overrides default", value: "false", defaultValue: true, want: false},
		{name: "unset uses default", value: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_KEY", tt.value)
			if got := getEnvBool("TEST_BOOL_KEY", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "not-a-number")
	if got := getEnvInt("TEST_INT_KEY", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %d, want 7", got)
	}
	t.Setenv("TEST_INT_KEY", "12")
	if got := getEnvInt("TEST_INT_KEY", 7); got != 12 {
		t.Errorf("getEnvInt() = %d, want 12", got)
	}
}
