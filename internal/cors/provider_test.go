package cors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/order-cors/internal/models"
)

func newDefaultProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(models.DefaultOrderServicePolicy())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestEvaluate_Scenarios(t *testing.T) {
	t.Parallel()
	p := newDefaultProvider(t)

	tests := []struct {
		name       string
		req        Request
		wantAllow  bool
		wantReason Reason
		wantOrigin string
	}{
		{
			name:       "localhost GET allowed",
			req:        Request{Path: "/api/orders", Origin: "http://localhost:3000", Method: http.MethodGet},
			wantAllow:  true,
			wantReason: ReasonAllowed,
			wantOrigin: "http://localhost:3000",
		},
		{
			name:       "netlify front-end allowed",
			req:        Request{Path: "/api/orders/7", Origin: "https://splendid-madeleine-fb22ef.netlify.app", Method: http.MethodPut},
			wantAllow:  true,
			wantReason: ReasonAllowed,
			wantOrigin: "https://splendid-madeleine-fb22ef.netlify.app",
		},
		{
			name:       "vercel front-end with suffix allowed",
			req:        Request{Path: "/", Origin: "https://shop-client-c7tr.vercel.app:443", Method: http.MethodGet},
			wantAllow:  true,
			wantReason: ReasonAllowed,
			wantOrigin: "https://shop-client-c7tr.vercel.app:443",
		},
		{
			name:       "unknown origin rejected",
			req:        Request{Path: "/api/orders", Origin: "https://evil.example.com", Method: http.MethodGet},
			wantReason: ReasonOriginNotAllowed,
		},
		{
			name:       "https localhost does not match http pattern",
			req:        Request{Path: "/api/orders", Origin: "https://localhost:3000", Method: http.MethodGet},
			wantReason: ReasonOriginNotAllowed,
		},
		{
			name:       "missing origin is same-origin",
			req:        Request{Path: "/api/orders", Method: http.MethodGet},
			wantAllow:  true,
			wantReason: ReasonSameOrigin,
		},
		{
			name: "preflight PATCH rejected",
			req: Request{Path: "/api/orders", Origin: "http://localhost:3000", Method: http.MethodOptions,
				RequestMethod: http.MethodPatch},
			wantReason: ReasonMethodNotAllowed,
		},
		{
			name: "preflight DELETE allowed",
			req: Request{Path: "/api/orders/1", Origin: "http://localhost:3000", Method: http.MethodOptions,
				RequestMethod: http.MethodDelete, RequestHeaders: []string{"content-type"}},
			wantAllow:  true,
			wantReason: ReasonAllowed,
			wantOrigin: "http://localhost:3000",
		},
		{
			name:       "simple PATCH still gets headers",
			req:        Request{Path: "/api/orders/1", Origin: "http://localhost:3000", Method: http.MethodPatch},
			wantAllow:  true,
			wantReason: ReasonAllowed,
			wantOrigin: "http://localhost:3000",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := p.Evaluate(tt.req)
			if d.Allowed != tt.wantAllow {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.wantAllow)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if d.EchoedOrigin != tt.wantOrigin {
				t.Errorf("EchoedOrigin = %q, want %q", d.EchoedOrigin, tt.wantOrigin)
			}
			if d.Allowed && d.EchoedOrigin != "" && !d.AllowCredentials {
				t.Error("default policy should allow credentials")
			}
		})
	}
}

func TestEvaluate_PreflightMethods(t *testing.T) {
	t.Parallel()
	p := newDefaultProvider(t)

	methods := map[string]bool{
		http.MethodGet:     true,
		http.MethodPost:    true,
		http.MethodPut:     true,
		http.MethodDelete:  true,
		http.MethodHead:    true,
		"delete":           true,
		http.MethodPatch:   false,
		http.MethodOptions: false,
		http.MethodTrace:   false,
	}
	for method, want := range methods {
		d := p.Evaluate(Request{
			Path:          "/api/orders",
			Origin:        "http://localhost:8081",
			Method:        http.MethodOptions,
			RequestMethod: method,
		})
		if !d.Preflight {
			t.Fatalf("%s: expected a preflight decision", method)
		}
		if d.Allowed != want {
			t.Errorf("preflight %s: Allowed = %v, want %v", method, d.Allowed, want)
		}
	}
}

func TestEvaluate_NeverEchoesWildcardWithCredentials(t *testing.T) {
	t.Parallel()
	p := newDefaultProvider(t)

	origins := []string{
		"http://localhost",
		"http://localhost:3000",
		"http://localhost.dev:8080",
		"https://splendid-madeleine-fb22ef.netlify.app",
		"https://shop-client-c7tr.vercel.app",
	}
	for _, o := range origins {
		d := p.Evaluate(Request{Path: "/x", Origin: o, Method: http.MethodGet})
		if !d.Allowed {
			t.Errorf("origin %q should be allowed", o)
			continue
		}
		if d.EchoedOrigin == wildcard {
			t.Errorf("origin %q echoed as wildcard", o)
		}
		if d.EchoedOrigin != o {
			t.Errorf("EchoedOrigin = %q, want %q", d.EchoedOrigin, o)
		}
	}
}

func TestEvaluate_WildcardWithoutCredentials(t *testing.T) {
	t.Parallel()
	p, err := NewProvider(models.CorsPolicy{
		PathPattern:           "/public/**",
		AllowedOriginPatterns: []string{"*"},
		AllowedMethods:        []string{"GET"},
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	d := p.Evaluate(Request{Path: "/public/catalog", Origin: "https://anyone.example", Method: http.MethodGet})
	if !d.Allowed || d.EchoedOrigin != "*" {
		t.Errorf("expected wildcard echo, got allowed=%v origin=%q", d.Allowed, d.EchoedOrigin)
	}
	if d.AllowCredentials {
		t.Error("credentials should be off")
	}

	d = p.Evaluate(Request{Path: "/private", Origin: "https://anyone.example", Method: http.MethodGet})
	if d.Allowed || d.Reason != ReasonNoPolicy {
		t.Errorf("expected no_policy for uncovered path, got allowed=%v reason=%q", d.Allowed, d.Reason)
	}

	d = p.Evaluate(Request{Path: "/public", Origin: "https://anyone.example", Method: http.MethodGet})
	if !d.Allowed {
		t.Error("trailing /** should cover the bare prefix")
	}
}

func TestEvaluate_FirstPolicyWins(t *testing.T) {
	t.Parallel()
	p, err := NewProvider(
		models.CorsPolicy{
			PathPattern:           "/admin/**",
			AllowedOriginPatterns: []string{"https://admin.example.com"},
			AllowedMethods:        []string{"GET"},
			AllowCredentials:      true,
		},
		models.DefaultOrderServicePolicy(),
	)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if d := p.Evaluate(Request{Path: "/admin/users", Origin: "http://localhost:3000", Method: http.MethodGet}); d.Allowed {
		t.Error("localhost should not reach the admin policy")
	}
	if d := p.Evaluate(Request{Path: "/api/orders", Origin: "http://localhost:3000", Method: http.MethodGet}); !d.Allowed {
		t.Error("localhost should be allowed by the fallback policy")
	}
}

func TestEvaluate_RequestHeaders(t *testing.T) {
	t.Parallel()
	p, err := NewProvider(models.CorsPolicy{
		PathPattern:           "/**",
		AllowedOriginPatterns: []string{"https://app.example.com"},
		AllowedMethods:        []string{"POST"},
		AllowedHeaders:        []string{"Content-Type", "Authorization"},
		AllowCredentials:      true,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	base := Request{Path: "/orders", Origin: "https://app.example.com", Method: http.MethodOptions, RequestMethod: "POST"}

	ok := base
	ok.RequestHeaders = []string{"content-type", "authorization"}
	if d := p.Evaluate(ok); !d.Allowed {
		t.Errorf("expected allowed headers, got reason %q", d.Reason)
	}

	bad := base
	bad.RequestHeaders = []string{"x-debug"}
	if d := p.Evaluate(bad); d.Allowed || d.Reason != ReasonHeadersNotAllowed {
		t.Errorf("expected headers_not_allowed, got allowed=%v reason=%q", d.Allowed, d.Reason)
	}
}

func TestNewProvider_Validation(t *testing.T) {
	t.Parallel()
	valid := models.DefaultOrderServicePolicy()

	tests := []struct {
		name   string
		mutate func(*models.CorsPolicy)
	}{
		{"wildcard with credentials", func(p *models.CorsPolicy) { p.AllowedOriginPatterns = []string{"*"} }},
		{"empty origins", func(p *models.CorsPolicy) { p.AllowedOriginPatterns = nil }},
		{"empty methods", func(p *models.CorsPolicy) { p.AllowedMethods = nil }},
		{"unknown method", func(p *models.CorsPolicy) { p.AllowedMethods = []string{"GET", "BREW"} }},
		{"empty path", func(p *models.CorsPolicy) { p.PathPattern = "" }},
		{"relative path", func(p *models.CorsPolicy) { p.PathPattern = "api/**" }},
		{"negative max age", func(p *models.CorsPolicy) { p.MaxAge = -1 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pol := valid.Clone()
			tt.mutate(&pol)
			_, err := NewProvider(pol)
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("expected ErrInvalidPolicy, got %v", err)
			}
		})
	}

	if _, err := NewProvider(); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy for empty set, got %v", err)
	}
}

func TestNewProvider_FreezesPolicies(t *testing.T) {
	t.Parallel()
	pol := models.DefaultOrderServicePolicy()
	p, err := NewProvider(pol)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	pol.AllowedOriginPatterns[0] = "https://evil.example.com"
	got := p.Policies()
	got[0].AllowedMethods[0] = "PATCH"

	if d := p.Evaluate(Request{Path: "/", Origin: "https://evil.example.com", Method: http.MethodGet}); d.Allowed {
		t.Error("mutating the caller's slice changed the provider")
	}
	if d := p.Evaluate(Request{Path: "/", Origin: "http://localhost", Method: http.MethodOptions, RequestMethod: "PATCH"}); d.Allowed {
		t.Error("mutating Policies() output changed the provider")
	}
}

func TestRequestFromHTTP(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodOptions, "/api/orders?x=1", nil)
	r.Header.Set(HeaderOrigin, "http://localhost:3000")
	r.Header.Set(HeaderRequestMethod, "PUT")
	r.Header.Add(HeaderRequestHeaders, "Content-Type, X-Trace")
	r.Header.Add(HeaderRequestHeaders, "Authorization")

	req := RequestFromHTTP(r)
	if req.Path != "/api/orders" {
		t.Errorf("Path = %q", req.Path)
	}
	if !req.IsPreflight() {
		t.Error("expected preflight")
	}
	want := []string{"content-type", "x-trace", "authorization"}
	if len(req.RequestHeaders) != len(want) {
		t.Fatalf("RequestHeaders = %v, want %v", req.RequestHeaders, want)
	}
	for i := range want {
		if req.RequestHeaders[i] != want[i] {
			t.Errorf("RequestHeaders[%d] = %q, want %q", i, req.RequestHeaders[i], want[i])
		}
	}
}
