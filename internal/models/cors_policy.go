package models

import "net/http"

// DefaultMaxAge is the preflight cache lifetime, in seconds, used when a policy leaves it unset.
const DefaultMaxAge = 1800

// CorsPolicy describes which cross-origin requests are permitted for the paths matching PathPattern.
type CorsPolicy struct {
	PathPattern           string   `json:"path_pattern" yaml:"path_pattern" validate:"required,startswith=/"`
	AllowedOriginPatterns []string `json:"allowed_origin_patterns" yaml:"allowed_origin_patterns" validate:"required,min=1,dive,required"`
	AllowedMethods        []string `json:"allowed_methods" yaml:"allowed_methods" validate:"required,min=1,dive,http_method"`
	AllowedHeaders        []string `json:"allowed_headers,omitempty" yaml:"allowed_headers" validate:"dive,required"`
	ExposedHeaders        []string `json:"exposed_headers,omitempty" yaml:"exposed_headers" validate:"dive,required"`
	AllowCredentials      bool     `json:"allow_credentials" yaml:"allow_credentials"`
	MaxAge                int      `json:"max_age" yaml:"max_age" validate:"gte=0"`
}

// CorsPolicySet is the root of a policy file. Policies are matched in order.
type CorsPolicySet struct {
	Policies []CorsPolicy `json:"policies" yaml:"policies" validate:"required,min=1,dive"`
}

// DefaultOrderServicePolicy returns the policy the order service front-ends were deployed with.
func DefaultOrderServicePolicy() CorsPolicy {
	return CorsPolicy{
		PathPattern: "/**",
		AllowedOriginPatterns: []string{
			"http://localhost*",
			"https://splendid-madeleine-fb22ef.netlify.app*",
			"https://shop-client-c7tr.vercel.app*",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodHead,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           DefaultMaxAge,
	}
}

// Clone returns a deep copy of p.
func (p CorsPolicy) Clone() CorsPolicy {
	out := p
	out.AllowedOriginPatterns = append([]string(nil), p.AllowedOriginPatterns...)
	out.AllowedMethods = append([]string(nil), p.AllowedMethods...)
	out.AllowedHeaders = append([]string(nil), p.AllowedHeaders...)
	out.ExposedHeaders = append([]string(nil), p.ExposedHeaders...)
	return out
}
