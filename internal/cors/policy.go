package cors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/order-cors/internal/models"
	"github.com/benvon/order-cors/internal/validation"
)

// ErrInvalidPolicy is returned for policies that must be rejected at startup.
var ErrInvalidPolicy = errors.New("invalid cors policy")

const wildcard = "*"

// ValidatePolicy checks a single policy for misconfiguration.
func ValidatePolicy(p models.CorsPolicy) error {
	if err := validation.Validate.Struct(p); err != nil {
		return fmt.Errorf("%w: path %q: %v", ErrInvalidPolicy, p.PathPattern, err)
	}
	if p.AllowCredentials {
		for _, o := range p.AllowedOriginPatterns {
			if strings.TrimSpace(o) == wildcard {
				return fmt.Errorf("%w: path %q: allow_credentials cannot be combined with origin %q", ErrInvalidPolicy, p.PathPattern, wildcard)
			}
		}
	}
	return nil
}

// normalize returns a deep copy of p with method tokens upper-cased, headers canonicalised and defaults applied.
func normalize(p models.CorsPolicy) models.CorsPolicy {
	out := p.Clone()
	out.PathPattern = strings.TrimSpace(out.PathPattern)
	for i, o := range out.AllowedOriginPatterns {
		out.AllowedOriginPatterns[i] = strings.TrimSpace(o)
	}
	out.AllowedMethods = dedupe(out.AllowedMethods, validation.NormalizeMethod)
	out.AllowedHeaders = dedupe(out.AllowedHeaders, strings.TrimSpace)
	out.ExposedHeaders = dedupe(out.ExposedHeaders, strings.TrimSpace)
	if len(out.AllowedHeaders) == 0 {
		out.AllowedHeaders = []string{wildcard}
	}
	if out.MaxAge == 0 {
		out.MaxAge = models.DefaultMaxAge
	}
	return out
}

func dedupe(values []string, fn func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = fn(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
