package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benvon/order-cors/internal/cors"
	"github.com/benvon/order-cors/internal/models"
	"github.com/benvon/order-cors/internal/validation"
	"gopkg.in/yaml.v3"
)

// LoadPolicies reads the policy file at path, or returns the built-in order service
// policy when path is empty. A non-empty originOverride replaces the origin patterns
// of every loaded policy.
func LoadPolicies(path string, originOverride []string) ([]models.CorsPolicy, error) {
	var policies []models.CorsPolicy
	if path == "" {
		policies = []models.CorsPolicy{models.DefaultOrderServicePolicy()}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cors policy file: %w", err)
		}
		set, err := ParsePolicies(data)
		if err != nil {
			return nil, fmt.Errorf("parse cors policy file %s: %w", path, err)
		}
		policies = set.Policies
	}

	if len(originOverride) > 0 {
		for i := range policies {
			policies[i].AllowedOriginPatterns = append([]string(nil), originOverride...)
		}
	}
	return policies, nil
}

// ParsePolicies decodes and validates a YAML policy document. Unknown keys are rejected.
func ParsePolicies(data []byte) (*models.CorsPolicySet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var set models.CorsPolicySet
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty policy document", cors.ErrInvalidPolicy)
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validation.Validate.Struct(set); err != nil {
		return nil, fmt.Errorf("%w: %v", cors.ErrInvalidPolicy, err)
	}
	for i, p := range set.Policies {
		if err := cors.ValidatePolicy(p); err != nil {
			return nil, fmt.Errorf("policy %d: %w", i, err)
		}
	}
	return &set, nil
}

// NewProvider builds the CORS provider described by cfg.
func NewProvider(cfg *Config) (*cors.Provider, error) {
	policies, err := LoadPolicies(cfg.CORSPolicyFile, cfg.CORSAllowedOrigins)
	if err != nil {
		return nil, err
	}
	return cors.NewProvider(policies...)
}
