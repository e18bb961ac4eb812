package cors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/benvon/order-cors/internal/models"
	"github.com/benvon/order-cors/internal/validation"
	"github.com/tidwall/match"
)

// Reason explains why a Decision came out the way it did.
type Reason string

const (
	ReasonNoPolicy          Reason = "no_policy"
	ReasonSameOrigin        Reason = "same_origin"
	ReasonOriginNotAllowed  Reason = "origin_not_allowed"
	ReasonMethodNotAllowed  Reason = "method_not_allowed"
	ReasonHeadersNotAllowed Reason = "headers_not_allowed"
	ReasonAllowed           Reason = "allowed"
)

// Request is the request metadata the provider needs.
type Request struct {
	Path   string `json:"path"`
	Origin string `json:"origin,omitempty"`
	Method string `json:"method"`
	// RequestMethod and RequestHeaders carry Access-Control-Request-Method and
	// Access-Control-Request-Headers on preflight requests.
	RequestMethod  string   `json:"request_method,omitempty"`
	RequestHeaders []string `json:"request_headers,omitempty"`
}

// RequestFromHTTP extracts the CORS-relevant metadata from r.
func RequestFromHTTP(r *http.Request) Request {
	return Request{
		Path:           r.URL.Path,
		Origin:         r.Header.Get(HeaderOrigin),
		Method:         r.Method,
		RequestMethod:  r.Header.Get(HeaderRequestMethod),
		RequestHeaders: parseHeaderList(r.Header.Values(HeaderRequestHeaders)),
	}
}

// IsPreflight reports whether the request is a CORS preflight.
func (r Request) IsPreflight() bool {
	return r.Method == http.MethodOptions && r.Origin != "" && r.RequestMethod != ""
}

// Provider evaluates requests against an immutable, ordered set of policies.
// It holds no mutable state and is safe for concurrent use.
type Provider struct {
	policies []models.CorsPolicy
}

// NewProvider validates and freezes the given policies. The caller's slices are copied.
func NewProvider(policies ...models.CorsPolicy) (*Provider, error) {
	if len(policies) == 0 {
		return nil, fmt.Errorf("%w: at least one policy is required", ErrInvalidPolicy)
	}
	frozen := make([]models.CorsPolicy, 0, len(policies))
	for i, p := range policies {
		if err := ValidatePolicy(p); err != nil {
			return nil, fmt.Errorf("policy %d: %w", i, err)
		}
		frozen = append(frozen, normalize(p))
	}
	return &Provider{policies: frozen}, nil
}

// Policies returns a copy of the effective policies.
func (p *Provider) Policies() []models.CorsPolicy {
	out := make([]models.CorsPolicy, len(p.policies))
	for i, pol := range p.policies {
		out[i] = pol.Clone()
	}
	return out
}

// PolicyIndex returns the position of the first policy whose path pattern matches path.
func (p *Provider) PolicyIndex(path string) (int, bool) {
	for i, pol := range p.policies {
		if matchPath(pol.PathPattern, path) {
			return i, true
		}
	}
	return -1, false
}

// PolicyFor returns the first policy whose path pattern matches path.
func (p *Provider) PolicyFor(path string) (models.CorsPolicy, bool) {
	i, ok := p.PolicyIndex(path)
	if !ok {
		return models.CorsPolicy{}, false
	}
	return p.policies[i], true
}

// AllowsOrigin reports whether origin matches an allowed pattern of the policy covering path.
func (p *Provider) AllowsOrigin(path, origin string) bool {
	pol, ok := p.PolicyFor(path)
	if !ok {
		return false
	}
	_, ok = matchOrigin(pol.AllowedOriginPatterns, origin)
	return ok
}

// Evaluate decides whether req is permitted and which headers the response should carry.
func (p *Provider) Evaluate(req Request) Decision {
	d := Decision{Preflight: req.IsPreflight()}

	pol, ok := p.PolicyFor(req.Path)
	if !ok {
		d.Reason = ReasonNoPolicy
		return d
	}

	if req.Origin == "" {
		d.Allowed = true
		d.Reason = ReasonSameOrigin
		return d
	}

	pattern, ok := matchOrigin(pol.AllowedOriginPatterns, req.Origin)
	if !ok {
		d.Reason = ReasonOriginNotAllowed
		return d
	}

	if d.Preflight {
		if !contains(pol.AllowedMethods, validation.NormalizeMethod(req.RequestMethod)) {
			d.Reason = ReasonMethodNotAllowed
			return d
		}
		headers, ok := allowedRequestHeaders(pol.AllowedHeaders, req.RequestHeaders)
		if !ok {
			d.Reason = ReasonHeadersNotAllowed
			return d
		}
		d.AllowedHeaders = headers
		d.MaxAge = pol.MaxAge
	} else {
		d.ExposedHeaders = append([]string(nil), pol.ExposedHeaders...)
	}

	d.Allowed = true
	d.Reason = ReasonAllowed
	d.EchoedOrigin = req.Origin
	if pattern == wildcard && !pol.AllowCredentials {
		d.EchoedOrigin = wildcard
	}
	d.AllowedMethods = append([]string(nil), pol.AllowedMethods...)
	d.AllowCredentials = pol.AllowCredentials
	return d
}

// matchOrigin returns the first pattern matching origin.
func matchOrigin(patterns []string, origin string) (string, bool) {
	for _, pattern := range patterns {
		if pattern == wildcard || match.Match(origin, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// matchPath matches path against an ant-style pattern where "*" and "**" match any substring.
// A trailing "/**" also matches the bare prefix.
func matchPath(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok && path == prefix {
		return true
	}
	return match.Match(path, strings.ReplaceAll(pattern, "**", "*"))
}

// allowedRequestHeaders checks the requested headers against the allowed list.
// A "*" entry allows any header, and the requested ones are echoed back.
func allowedRequestHeaders(allowed, requested []string) ([]string, bool) {
	if len(requested) == 0 {
		return nil, true
	}
	if contains(allowed, wildcard) {
		return append([]string(nil), requested...), true
	}
	out := make([]string, 0, len(requested))
	for _, h := range requested {
		found := false
		for _, a := range allowed {
			if strings.EqualFold(a, h) {
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
		out = append(out, h)
	}
	return out, true
}

func parseHeaderList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				out = append(out, strings.ToLower(h))
			}
		}
	}
	return out
}
